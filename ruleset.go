package vrule

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/nextpkg/vrule/ce"
	"github.com/nextpkg/vrule/checks"
	"github.com/nextpkg/vrule/kind"
)

// Definition keys. The same names attribute evaluation failures in
// Result.FailedCheck.
const (
	KeyType          = "type"
	KeyTypes         = "types"
	KeyResourceType  = "resourceType"
	KeyMaxLength     = "maxLength"
	KeyMinLength     = "minLength"
	KeyMbMaxLength   = "mbMaxLength"
	KeyMbMinLength   = "mbMinLength"
	KeyMaxValue      = "maxValue"
	KeyMinValue      = "minValue"
	KeyIsa           = "isa"
	KeyRegex         = "regex"
	KeyCallback      = "callback"
	KeyCallbacks     = "callbacks"
	KeyAllowedValues = "allowedValues"
	KeyNoCase        = "nocase"
)

// vld validates the shape of Definition fields the tag language can express.
var vld = validator.New(validator.WithRequiredStructEnabled())

type (
	// NamedCheck is one entry of an ordered callbacks list: a boolean gate
	// with a name used for failure attribution.
	NamedCheck struct {
		Name  string
		Check checks.Predicate
	}

	// Definition declares the constraints of a RuleSet. Every field is
	// optional; an unset field means the constraint is not configured.
	// Compile validates shapes fail-fast and returns the immutable RuleSet.
	//
	// The untyped fields (Isa, Callback, Callbacks) accept either Go values
	// (types, predicates, ordered NamedCheck lists) or strings naming
	// entries in the checks registry, so the same Definition shape works for
	// code-built and file-loaded rule sets.
	Definition struct {
		// Type is a single accepted type tag, appended to Types.
		Type string `mapstructure:"type" validate:"omitempty,min=1"`
		// Types lists accepted type tags; aliases are normalized per tag.
		Types []string `mapstructure:"types" validate:"omitempty,min=1,dive,min=1"`
		// ResourceType is the required subtype of resource-kind values.
		ResourceType string `mapstructure:"resourceType" validate:"omitempty,min=1"`
		// MaxLength / MinLength bound the byte length of scalar values.
		MaxLength *int `mapstructure:"maxLength" validate:"omitempty,gte=0"`
		MinLength *int `mapstructure:"minLength" validate:"omitempty,gte=0"`
		// MbMaxLength / MbMinLength bound the character (codepoint) length.
		MbMaxLength *int `mapstructure:"mbMaxLength" validate:"omitempty,gte=0"`
		MbMinLength *int `mapstructure:"mbMinLength" validate:"omitempty,gte=0"`
		// MaxValue / MinValue are inclusive numeric bounds.
		MaxValue *float64 `mapstructure:"maxValue"`
		MinValue *float64 `mapstructure:"minValue"`
		// Isa requires the value to be an instance of a type: a reflect.Type,
		// a prototype value, a pointer-to-interface like (*io.Reader)(nil),
		// or the name of a registered isa target.
		Isa any `mapstructure:"isa"`
		// Regex is a pattern scalar values must match.
		Regex string `mapstructure:"regex" validate:"omitempty,min=1"`
		// Callback is a single predicate: a checks.Predicate, a
		// func(any) bool, or the name of a registered check.
		Callback any `mapstructure:"callback"`
		// Callbacks is an ordered list of named predicates: []NamedCheck or
		// a list of registered check names. A plain Go map is rejected
		// because its iteration order would make failure attribution
		// nondeterministic.
		Callbacks any `mapstructure:"callbacks"`
		// AllowedValues is a non-empty set of scalar values.
		AllowedValues []any `mapstructure:"allowedValues" validate:"omitempty,min=1"`
		// NoCase makes AllowedValues comparison case-insensitive.
		NoCase bool `mapstructure:"nocase"`
	}

	// RuleSet is an immutable bag of named constraints. It is built once via
	// Compile (or Builder.Build, FromMap, LoadFile) and is safe for
	// concurrent use: evaluation carries no mutable state.
	RuleSet struct {
		kinds        []kind.Kind
		resourceType string
		maxLength    *int
		minLength    *int
		mbMaxLength  *int
		mbMinLength  *int
		maxValue     *float64
		minValue     *float64
		isa          reflect.Type
		regex        *regexp.Regexp
		callback     checks.Predicate
		callbacks    []NamedCheck
		allowed      []any
		nocase       bool
	}
)

// fieldKeys maps Definition struct fields back to their definition keys for
// error attribution.
var fieldKeys = map[string]string{
	"Type":          KeyType,
	"Types":         KeyTypes,
	"ResourceType":  KeyResourceType,
	"MaxLength":     KeyMaxLength,
	"MinLength":     KeyMinLength,
	"MbMaxLength":   KeyMbMaxLength,
	"MbMinLength":   KeyMbMinLength,
	"MaxValue":      KeyMaxValue,
	"MinValue":      KeyMinValue,
	"Isa":           KeyIsa,
	"Regex":         KeyRegex,
	"Callback":      KeyCallback,
	"Callbacks":     KeyCallbacks,
	"AllowedValues": KeyAllowedValues,
	"NoCase":        KeyNoCase,
}

// Compile validates the shape of every configured constraint and returns the
// immutable RuleSet. Any malformed constraint aborts construction with a
// DefinitionError naming the offending key and the expected shape.
func Compile(def Definition) (*RuleSet, error) {
	if err := vld.Struct(&def); err != nil {
		return nil, shapeErrorFromValidator(err)
	}

	// Bounds are cloned so later mutation of the Definition cannot reach
	// into a compiled RuleSet.
	rs := &RuleSet{
		resourceType: def.ResourceType,
		maxLength:    clonePtr(def.MaxLength),
		minLength:    clonePtr(def.MinLength),
		mbMaxLength:  clonePtr(def.MbMaxLength),
		mbMinLength:  clonePtr(def.MbMinLength),
		maxValue:     clonePtr(def.MaxValue),
		minValue:     clonePtr(def.MinValue),
		nocase:       def.NoCase,
	}

	if err := rs.compileKinds(def); err != nil {
		return nil, err
	}
	if err := rs.compileRegex(def.Regex); err != nil {
		return nil, err
	}
	if err := rs.compileIsa(def.Isa); err != nil {
		return nil, err
	}
	if err := rs.compileCallback(def.Callback); err != nil {
		return nil, err
	}
	if err := rs.compileCallbacks(def.Callbacks); err != nil {
		return nil, err
	}
	if err := rs.compileAllowedValues(def.AllowedValues); err != nil {
		return nil, err
	}

	return rs, nil
}

// MustCompile is Compile panicking on error, for rule sets declared in
// package variables.
func MustCompile(def Definition) *RuleSet {
	rs, err := Compile(def)
	if err != nil {
		panic(err)
	}
	return rs
}

// compileKinds merges the singular type entry into the types list and
// normalizes every tag.
func (rs *RuleSet) compileKinds(def Definition) error {
	seen := make(map[kind.Kind]bool, len(def.Types)+1)
	add := func(key, tag string) error {
		k, err := kind.Parse(tag)
		if err != nil {
			return NewShapeError(key, "expected a known type tag", err)
		}
		if !seen[k] {
			seen[k] = true
			rs.kinds = append(rs.kinds, k)
		}
		return nil
	}

	for _, tag := range def.Types {
		if err := add(KeyTypes, tag); err != nil {
			return err
		}
	}
	if def.Type != "" {
		if err := add(KeyType, def.Type); err != nil {
			return err
		}
	}

	return nil
}

func (rs *RuleSet) compileRegex(pattern string) error {
	if pattern == "" {
		return nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return NewShapeError(KeyRegex, "expected a valid pattern", err)
	}
	rs.regex = re
	return nil
}

func (rs *RuleSet) compileIsa(target any) error {
	if target == nil {
		return nil
	}

	if name, ok := target.(string); ok {
		t, found := checks.LookupIsa(name)
		if !found {
			return NewShapeError(KeyIsa, fmt.Sprintf("expected a registered isa target, got %q", name), ce.ErrCheckNotRegistered)
		}
		rs.isa = t
		return nil
	}

	t := checks.TargetType(target)
	if t == nil {
		return NewShapeError(KeyIsa, "expected a type, a prototype value, or a registered name", nil)
	}
	rs.isa = t
	return nil
}

func (rs *RuleSet) compileCallback(cb any) error {
	if cb == nil {
		return nil
	}

	fn, err := resolvePredicate(KeyCallback, cb)
	if err != nil {
		return err
	}
	rs.callback = fn
	return nil
}

func (rs *RuleSet) compileCallbacks(cbs any) error {
	switch v := cbs.(type) {
	case nil:
		return nil
	case []NamedCheck:
		for _, nc := range v {
			if nc.Name == "" || nc.Check == nil {
				return NewShapeError(KeyCallbacks, "expected every entry to carry a name and a predicate", nil)
			}
		}
		rs.callbacks = append([]NamedCheck(nil), v...)
		return nil
	case []string:
		return rs.resolveCallbackNames(v)
	case []any:
		names := make([]string, 0, len(v))
		for _, el := range v {
			name, ok := el.(string)
			if !ok {
				return NewShapeError(KeyCallbacks, fmt.Sprintf("expected a list of registered check names, got element of type %T", el), nil)
			}
			names = append(names, name)
		}
		return rs.resolveCallbackNames(names)
	default:
		if reflect.TypeOf(cbs).Kind() == reflect.Map {
			return NewShapeError(KeyCallbacks, "expected an ordered list ([]NamedCheck or registered names); a map has no stable order", nil)
		}
		return NewShapeError(KeyCallbacks, fmt.Sprintf("expected an ordered list of named predicates, got %T", cbs), nil)
	}
}

func (rs *RuleSet) resolveCallbackNames(names []string) error {
	for _, name := range names {
		fn, ok := checks.Lookup(name)
		if !ok {
			return NewShapeError(KeyCallbacks, fmt.Sprintf("expected a registered check, got %q", name), ce.ErrCheckNotRegistered)
		}
		rs.callbacks = append(rs.callbacks, NamedCheck{Name: name, Check: fn})
	}
	return nil
}

func (rs *RuleSet) compileAllowedValues(values []any) error {
	if values == nil {
		return nil
	}

	for _, v := range values {
		if !kind.Of(v).IsScalar() {
			return NewShapeError(KeyAllowedValues, fmt.Sprintf("expected scalar values only, got %T", v), nil)
		}
	}
	rs.allowed = append([]any(nil), values...)
	return nil
}

// resolvePredicate accepts a predicate in any of its definition shapes.
func resolvePredicate(key string, cb any) (checks.Predicate, error) {
	switch fn := cb.(type) {
	case checks.Predicate:
		return fn, nil
	case func(any) bool:
		return fn, nil
	case string:
		resolved, ok := checks.Lookup(fn)
		if !ok {
			return nil, NewShapeError(key, fmt.Sprintf("expected a registered check, got %q", fn), ce.ErrCheckNotRegistered)
		}
		return resolved, nil
	default:
		return nil, NewShapeError(key, fmt.Sprintf("expected a predicate or a registered check name, got %T", cb), nil)
	}
}

// shapeErrorFromValidator converts the first tag violation reported by the
// struct validator into a DefinitionError attributed to the definition key.
func shapeErrorFromValidator(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		key := fieldKeys[fe.StructField()]
		if key == "" {
			key = fe.StructField()
		}
		return NewShapeError(key, fmt.Sprintf("must satisfy %q", fe.Tag()), err)
	}
	return NewShapeError("", "definition shape validation failed", err)
}

// Enumerated read-only accessors. RuleSet exposes exactly these getters;
// there is no generic property reader.

// Kinds returns the accepted value kinds after alias normalization.
func (rs *RuleSet) Kinds() []kind.Kind {
	return append([]kind.Kind(nil), rs.kinds...)
}

// ResourceType returns the required resource subtype, or "".
func (rs *RuleSet) ResourceType() string { return rs.resourceType }

// MaxLength returns the byte-length upper bound, if configured.
func (rs *RuleSet) MaxLength() (int, bool) { return deref(rs.maxLength) }

// MinLength returns the byte-length lower bound, if configured.
func (rs *RuleSet) MinLength() (int, bool) { return deref(rs.minLength) }

// MbMaxLength returns the character-length upper bound, if configured.
func (rs *RuleSet) MbMaxLength() (int, bool) { return deref(rs.mbMaxLength) }

// MbMinLength returns the character-length lower bound, if configured.
func (rs *RuleSet) MbMinLength() (int, bool) { return deref(rs.mbMinLength) }

// MaxValue returns the numeric upper bound, if configured.
func (rs *RuleSet) MaxValue() (float64, bool) { return deref(rs.maxValue) }

// MinValue returns the numeric lower bound, if configured.
func (rs *RuleSet) MinValue() (float64, bool) { return deref(rs.minValue) }

// Isa returns the required instance type, or nil.
func (rs *RuleSet) Isa() reflect.Type { return rs.isa }

// Regex returns the configured pattern, or "".
func (rs *RuleSet) Regex() string {
	if rs.regex == nil {
		return ""
	}
	return rs.regex.String()
}

// HasCallback reports whether a single predicate is configured.
func (rs *RuleSet) HasCallback() bool { return rs.callback != nil }

// CallbackNames returns the names of the ordered callbacks list.
func (rs *RuleSet) CallbackNames() []string {
	names := make([]string, 0, len(rs.callbacks))
	for _, nc := range rs.callbacks {
		names = append(names, nc.Name)
	}
	return names
}

// AllowedValues returns the allowed-values set, or nil.
func (rs *RuleSet) AllowedValues() []any {
	return append([]any(nil), rs.allowed...)
}

// NoCase reports whether allowed-values comparison is case-insensitive.
func (rs *RuleSet) NoCase() bool { return rs.nocase }

func deref[T any](p *T) (T, bool) {
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
