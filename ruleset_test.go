package vrule

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextpkg/vrule/checks"
	"github.com/nextpkg/vrule/kind"
)

func TestCompile_Empty(t *testing.T) {
	rs, err := Compile(Definition{})
	require.NoError(t, err)
	assert.Empty(t, rs.Kinds())
	assert.False(t, rs.HasCallback())
	assert.Nil(t, rs.AllowedValues())
}

func TestCompile_TypeMergesIntoTypes(t *testing.T) {
	rs, err := Compile(Definition{
		Type:  "int",
		Types: []string{"string", "bool"},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []kind.Kind{kind.String, kind.Bool, kind.Integer}, rs.Kinds())
}

func TestCompile_NormalizesAliases(t *testing.T) {
	rs, err := Compile(Definition{Types: []string{"int", "float"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []kind.Kind{kind.Integer, kind.Double}, rs.Kinds())

	// Aliased and canonical tags collapse into one entry.
	rs, err = Compile(Definition{Types: []string{"int", "integer"}})
	require.NoError(t, err)
	assert.Equal(t, []kind.Kind{kind.Integer}, rs.Kinds())
}

func TestCompile_UnknownTypeTag(t *testing.T) {
	_, err := Compile(Definition{Types: []string{"decimal"}})
	require.Error(t, err)

	var derr *DefinitionError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, ErrorTypeBadShape, derr.Type)
	assert.Equal(t, KeyTypes, derr.Key)
}

func TestCompile_NegativeLengthRejected(t *testing.T) {
	for _, def := range []Definition{
		{MaxLength: IntPtr(-1)},
		{MinLength: IntPtr(-1)},
		{MbMaxLength: IntPtr(-5)},
		{MbMinLength: IntPtr(-2)},
	} {
		_, err := Compile(def)
		require.Error(t, err)

		var derr *DefinitionError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, ErrorTypeBadShape, derr.Type)
		assert.NotEmpty(t, derr.Key)
	}
}

func TestCompile_EmptyListsRejected(t *testing.T) {
	_, err := Compile(Definition{Types: []string{}})
	require.Error(t, err)

	_, err = Compile(Definition{AllowedValues: []any{}})
	require.Error(t, err)
}

func TestCompile_BadRegex(t *testing.T) {
	_, err := Compile(Definition{Regex: "(unclosed"})
	require.Error(t, err)

	var derr *DefinitionError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, KeyRegex, derr.Key)
}

func TestCompile_AllowedValuesMustBeScalar(t *testing.T) {
	_, err := Compile(Definition{AllowedValues: []any{"ok", []int{1}}})
	require.Error(t, err)

	var derr *DefinitionError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, KeyAllowedValues, derr.Key)
}

func TestCompile_CallbackShapes(t *testing.T) {
	// Plain func and checks.Predicate both work.
	_, err := Compile(Definition{Callback: func(any) bool { return true }})
	require.NoError(t, err)

	_, err = Compile(Definition{Callback: checks.Predicate(func(any) bool { return true })})
	require.NoError(t, err)

	// Anything else is a shape error.
	_, err = Compile(Definition{Callback: 42})
	require.Error(t, err)
}

func TestCompile_CallbackByRegisteredName(t *testing.T) {
	checks.Register("ruleset-test.positive", func(v any) bool {
		n, ok := v.(int)
		return ok && n > 0
	})
	t.Cleanup(func() { checks.Unregister("ruleset-test.positive") })

	rs, err := Compile(Definition{Callback: "ruleset-test.positive"})
	require.NoError(t, err)
	assert.True(t, rs.Validate(3))
	assert.False(t, rs.Validate(-3))
}

func TestCompile_CallbackUnregisteredName(t *testing.T) {
	_, err := Compile(Definition{Callback: "ruleset-test.not-there"})
	require.Error(t, err)

	var derr *DefinitionError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, KeyCallback, derr.Key)
}

func TestCompile_CallbacksOrderedList(t *testing.T) {
	rs, err := Compile(Definition{Callbacks: []NamedCheck{
		{Name: "first", Check: func(any) bool { return true }},
		{Name: "second", Check: func(any) bool { return false }},
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, rs.CallbackNames())
	assert.Equal(t, "second (callback)", rs.Evaluate("x").FailedCheck)
}

func TestCompile_CallbacksByNames(t *testing.T) {
	checks.Register("ruleset-test.a", func(any) bool { return true })
	checks.Register("ruleset-test.b", func(any) bool { return false })
	t.Cleanup(func() {
		checks.Unregister("ruleset-test.a")
		checks.Unregister("ruleset-test.b")
	})

	rs, err := Compile(Definition{Callbacks: []string{"ruleset-test.a", "ruleset-test.b"}})
	require.NoError(t, err)
	assert.Equal(t, "ruleset-test.b (callback)", rs.Evaluate(1).FailedCheck)
}

func TestCompile_CallbacksMapRejected(t *testing.T) {
	// A Go map carries no ordering, so failure attribution would be
	// nondeterministic.
	_, err := Compile(Definition{Callbacks: map[string]checks.Predicate{
		"x": func(any) bool { return true },
	}})
	require.Error(t, err)

	var derr *DefinitionError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, KeyCallbacks, derr.Key)
	assert.Contains(t, derr.Message, "ordered")
}

func TestCompile_CallbacksEntriesNeedNameAndPredicate(t *testing.T) {
	_, err := Compile(Definition{Callbacks: []NamedCheck{{Name: "", Check: func(any) bool { return true }}}})
	require.Error(t, err)

	_, err = Compile(Definition{Callbacks: []NamedCheck{{Name: "x", Check: nil}}})
	require.Error(t, err)
}

func TestCompile_IsaShapes(t *testing.T) {
	rs, err := Compile(Definition{Isa: (*io.Reader)(nil)})
	require.NoError(t, err)
	assert.Equal(t, "io.Reader", rs.Isa().String())

	type payload struct{}
	rs, err = Compile(Definition{Isa: payload{}})
	require.NoError(t, err)
	assert.Equal(t, "vrule.payload", rs.Isa().String())
}

func TestCompile_IsaByRegisteredName(t *testing.T) {
	checks.RegisterIsa("ruleset-test.reader", (*io.Reader)(nil))
	t.Cleanup(func() { checks.UnregisterIsa("ruleset-test.reader") })

	rs, err := Compile(Definition{Isa: "ruleset-test.reader"})
	require.NoError(t, err)
	assert.Equal(t, "io.Reader", rs.Isa().String())
}

func TestCompile_IsaUnregisteredName(t *testing.T) {
	_, err := Compile(Definition{Isa: "ruleset-test.absent"})
	require.Error(t, err)

	var derr *DefinitionError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, KeyIsa, derr.Key)
}

func TestMustCompile_PanicsOnError(t *testing.T) {
	assert.Panics(t, func() {
		MustCompile(Definition{Regex: "(unclosed"})
	})
	assert.NotPanics(t, func() {
		MustCompile(Definition{Types: []string{"string"}})
	})
}

func TestAccessors(t *testing.T) {
	rs := NewBuilder().
		Types("int").
		ResourceType("stream").
		MaxLength(10).
		MinLength(1).
		MbMaxLength(8).
		MbMinLength(2).
		MaxValue(99).
		MinValue(-1).
		Regex("^a").
		AllowedValues("a").
		NoCase().
		MustBuild()

	assert.Equal(t, []kind.Kind{kind.Integer}, rs.Kinds())
	assert.Equal(t, "stream", rs.ResourceType())

	n, ok := rs.MaxLength()
	assert.True(t, ok)
	assert.Equal(t, 10, n)

	n, ok = rs.MinLength()
	assert.True(t, ok)
	assert.Equal(t, 1, n)

	n, ok = rs.MbMaxLength()
	assert.True(t, ok)
	assert.Equal(t, 8, n)

	n, ok = rs.MbMinLength()
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	f, ok := rs.MaxValue()
	assert.True(t, ok)
	assert.Equal(t, float64(99), f)

	f, ok = rs.MinValue()
	assert.True(t, ok)
	assert.Equal(t, float64(-1), f)

	assert.Equal(t, "^a", rs.Regex())
	assert.Equal(t, []any{"a"}, rs.AllowedValues())
	assert.True(t, rs.NoCase())

	_, ok = MustCompile(Definition{}).MaxLength()
	assert.False(t, ok)
}
