// Package vrule validates a single non-null runtime value against a
// declarative, precomputed set of named constraints: accepted type kinds,
// byte and character length bounds, numeric range, instance-of, pattern,
// predicates, and an allowed-value set.
//
// A RuleSet is built once — from a typed Definition (Compile, Builder), an
// untyped map (FromMap), a YAML/JSON file (LoadFile), or a viper subtree
// (FromViper) — and validated fail-fast at construction: every malformed
// constraint aborts with a DefinitionError naming the offending key, and an
// unknown key is a hard error unless it carries the ignore prefix.
//
// Evaluation runs the configured checks in a fixed order and stops at the
// first failure:
//
//	types, resourceType, maxLength, minLength, mbMaxLength, mbMinLength,
//	maxValue, minValue, isa, regex, callback, callbacks, allowedValues
//
// The failed check's name is returned in Result.FailedCheck; RuleSet carries
// no mutable state, so one instance may serve concurrent validations.
// A nil value passes every RuleSet: requiredness is a concern of the caller,
// not of this engine.
//
//	rs := vrule.MustCompile(vrule.Definition{
//		Types:     []string{"string"},
//		MaxLength: vrule.IntPtr(8),
//		Regex:     "^[a-z]+$",
//	})
//	if r := rs.Evaluate(name); !r.OK {
//		log.Printf("rejected by %s", r.FailedCheck)
//	}
//
// Manager adds hot reload on top: it keeps a RuleSet compiled from a
// definition file behind an atomic pointer and swaps it when the file
// changes.
package vrule

// IntPtr returns a pointer to n, for the optional length fields of
// Definition literals.
func IntPtr(n int) *int { return &n }

// FloatPtr returns a pointer to n, for the optional bound fields of
// Definition literals.
func FloatPtr(n float64) *float64 { return &n }
