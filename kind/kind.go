// Package kind provides a closed enumeration of runtime value kinds used by
// rule evaluation, together with parsing of the external tag vocabulary used
// in declarative rule definitions.
package kind

import (
	"fmt"
	"reflect"
)

// Kind classifies a runtime value into one of a closed set of categories.
type Kind uint8

const (
	// Invalid is the zero Kind and matches nothing.
	Invalid Kind = iota
	// Null represents an absent value.
	Null
	// Bool represents a boolean value.
	Bool
	// Integer represents any signed or unsigned integer value.
	Integer
	// Double represents any floating-point value.
	Double
	// String represents a string value.
	String
	// Sequence represents a slice or array value.
	Sequence
	// Mapping represents a map value.
	Mapping
	// Resource represents a value implementing the Handle interface.
	Resource
	// Object represents any other value (structs, pointers, functions, ...).
	Object
	// Scalar is a pseudo-kind accepted in rule definitions; it matches any
	// value whose concrete kind is Bool, Integer, Double or String.
	Scalar
)

// Handle is implemented by resource-like values that expose a subtype name,
// e.g. connection or file handles wrapped for validation purposes.
type Handle interface {
	HandleType() string
}

// String returns the canonical tag for the kind.
func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Integer:
		return "integer"
	case Double:
		return "double"
	case String:
		return "string"
	case Sequence:
		return "sequence"
	case Mapping:
		return "mapping"
	case Resource:
		return "resource"
	case Object:
		return "object"
	case Scalar:
		return "scalar"
	default:
		return "invalid"
	}
}

// IsScalar reports whether the kind is one of the four scalar kinds.
func (k Kind) IsScalar() bool {
	switch k {
	case Bool, Integer, Double, String:
		return true
	default:
		return false
	}
}

// Of returns the Kind of a runtime value. A nil interface is Null. Values
// implementing Handle are Resource regardless of their underlying type.
func Of(v any) Kind {
	if v == nil {
		return Null
	}
	if _, ok := v.(Handle); ok {
		return Resource
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.Bool:
		return Bool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Integer
	case reflect.Float32, reflect.Float64:
		return Double
	case reflect.String:
		return String
	case reflect.Slice, reflect.Array:
		return Sequence
	case reflect.Map:
		return Mapping
	default:
		return Object
	}
}

// aliases maps every accepted definition tag to its canonical kind.
// Synonyms are normalized here so that "int" and "integer" configure the
// same constraint.
var aliases = map[string]Kind{
	"null":     Null,
	"bool":     Bool,
	"boolean":  Bool,
	"int":      Integer,
	"integer":  Integer,
	"float":    Double,
	"double":   Double,
	"string":   String,
	"array":    Sequence,
	"sequence": Sequence,
	"map":      Mapping,
	"mapping":  Mapping,
	"resource": Resource,
	"object":   Object,
	"scalar":   Scalar,
}

// Parse converts a definition tag into a Kind, applying alias normalization.
// Unknown tags are an error.
func Parse(tag string) (Kind, error) {
	k, ok := aliases[tag]
	if !ok {
		return Invalid, fmt.Errorf("unknown type tag %q", tag)
	}
	return k, nil
}
