package vrule

import (
	"github.com/nextpkg/vrule/checks"
	"github.com/nextpkg/vrule/kind"
)

// Builder assembles a Definition through chained calls and compiles it.
// It is the typed construction path; FromMap covers declarative sources.
type Builder struct {
	def Definition
}

// NewBuilder creates a new rule-set builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Types adds accepted type tags. Aliases are normalized at Build time.
func (b *Builder) Types(tags ...string) *Builder {
	b.def.Types = append(b.def.Types, tags...)
	return b
}

// Kinds adds accepted kinds directly, bypassing the tag vocabulary.
func (b *Builder) Kinds(kinds ...kind.Kind) *Builder {
	for _, k := range kinds {
		b.def.Types = append(b.def.Types, k.String())
	}
	return b
}

// ResourceType requires resource-kind values to carry the given subtype.
func (b *Builder) ResourceType(subtype string) *Builder {
	b.def.ResourceType = subtype
	return b
}

// MaxLength bounds the byte length of scalar values.
func (b *Builder) MaxLength(n int) *Builder {
	b.def.MaxLength = &n
	return b
}

// MinLength bounds the byte length of scalar values.
func (b *Builder) MinLength(n int) *Builder {
	b.def.MinLength = &n
	return b
}

// MbMaxLength bounds the character (codepoint) length of scalar values.
func (b *Builder) MbMaxLength(n int) *Builder {
	b.def.MbMaxLength = &n
	return b
}

// MbMinLength bounds the character (codepoint) length of scalar values.
func (b *Builder) MbMinLength(n int) *Builder {
	b.def.MbMinLength = &n
	return b
}

// MaxValue sets the inclusive numeric upper bound.
func (b *Builder) MaxValue(n float64) *Builder {
	b.def.MaxValue = &n
	return b
}

// MinValue sets the inclusive numeric lower bound.
func (b *Builder) MinValue(n float64) *Builder {
	b.def.MinValue = &n
	return b
}

// Isa requires values to be instances of the given target: a reflect.Type,
// a prototype value, a pointer-to-interface, or a registered name.
func (b *Builder) Isa(target any) *Builder {
	b.def.Isa = target
	return b
}

// Regex requires scalar values to match the pattern.
func (b *Builder) Regex(pattern string) *Builder {
	b.def.Regex = pattern
	return b
}

// Callback sets the single unnamed predicate.
func (b *Builder) Callback(fn checks.Predicate) *Builder {
	b.def.Callback = fn
	return b
}

// NamedCallback appends one entry to the ordered callbacks list. Entries are
// evaluated in the order they were added.
func (b *Builder) NamedCallback(name string, fn checks.Predicate) *Builder {
	list, _ := b.def.Callbacks.([]NamedCheck)
	b.def.Callbacks = append(list, NamedCheck{Name: name, Check: fn})
	return b
}

// AllowedValues sets the closed set of scalar values.
func (b *Builder) AllowedValues(values ...any) *Builder {
	b.def.AllowedValues = append(b.def.AllowedValues, values...)
	return b
}

// NoCase makes allowed-values comparison case-insensitive.
func (b *Builder) NoCase() *Builder {
	b.def.NoCase = true
	return b
}

// Definition returns a copy of the assembled definition.
func (b *Builder) Definition() Definition {
	return b.def
}

// Build compiles the assembled definition into an immutable RuleSet.
func (b *Builder) Build() (*RuleSet, error) {
	return Compile(b.def)
}

// MustBuild compiles the assembled definition, panicking on error.
func (b *Builder) MustBuild() *RuleSet {
	rs, err := b.Build()
	if err != nil {
		panic(err)
	}
	return rs
}
