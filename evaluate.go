package vrule

import (
	"fmt"
	"reflect"
	"strconv"
	"unicode/utf8"

	"github.com/spf13/cast"
	"golang.org/x/text/cases"

	"github.com/nextpkg/vrule/checks"
	"github.com/nextpkg/vrule/kind"
)

// Result is the outcome of evaluating a value against a RuleSet. On failure,
// FailedCheck carries the name of the first constraint that failed in the
// fixed evaluation order; later constraints are never consulted.
type Result struct {
	OK          bool
	FailedCheck string
}

func pass() Result { return Result{OK: true} }

func fail(check string) Result { return Result{FailedCheck: check} }

// Evaluate runs the constraint checks against a value in fixed order:
// types, resourceType, maxLength, minLength, mbMaxLength, mbMinLength,
// maxValue, minValue, isa, regex, callback, callbacks, allowedValues.
// Evaluation short-circuits at the first failure.
//
// A nil value passes unconditionally: absence is handled by a higher-level
// required concept, not by this engine.
func (rs *RuleSet) Evaluate(value any) Result {
	if value == nil {
		return pass()
	}

	k := kind.Of(value)

	if r := rs.checkTypes(k); !r.OK {
		return r
	}
	if r := rs.checkResourceType(value, k); !r.OK {
		return r
	}
	if r := rs.checkByteLength(value, k); !r.OK {
		return r
	}
	if r := rs.checkCharLength(value, k); !r.OK {
		return r
	}
	if r := rs.checkBounds(value, k); !r.OK {
		return r
	}
	if r := rs.checkIsa(value); !r.OK {
		return r
	}
	if r := rs.checkRegex(value, k); !r.OK {
		return r
	}
	if r := rs.checkCallback(value); !r.OK {
		return r
	}
	if r := rs.checkCallbacks(value); !r.OK {
		return r
	}
	return rs.checkAllowedValues(value, k)
}

// Validate reports whether the value satisfies every configured constraint.
func (rs *RuleSet) Validate(value any) bool {
	return rs.Evaluate(value).OK
}

// Check validates the value and converts a failure into a structured error
// carrying the failed check's name and the offending value. A nil value is a
// no-op, mirroring Evaluate's nil bypass.
func (rs *RuleSet) Check(value any) error {
	if value == nil {
		return nil
	}
	if r := rs.Evaluate(value); !r.OK {
		return &ValidationError{Check: r.FailedCheck, Value: value}
	}
	return nil
}

func (rs *RuleSet) checkTypes(k kind.Kind) Result {
	if len(rs.kinds) == 0 {
		return pass()
	}

	for _, accepted := range rs.kinds {
		if accepted == k || (accepted == kind.Scalar && k.IsScalar()) {
			return pass()
		}
	}
	return fail(KeyTypes)
}

// checkResourceType applies only to resource-kind values; everything else
// passes through untouched.
func (rs *RuleSet) checkResourceType(value any, k kind.Kind) Result {
	if rs.resourceType == "" || k != kind.Resource {
		return pass()
	}

	if h, ok := value.(kind.Handle); !ok || h.HandleType() != rs.resourceType {
		return fail(KeyResourceType)
	}
	return pass()
}

func (rs *RuleSet) checkByteLength(value any, k kind.Kind) Result {
	if rs.maxLength != nil {
		if !k.IsScalar() || len(scalarString(value, k)) > *rs.maxLength {
			return fail(KeyMaxLength)
		}
	}
	if rs.minLength != nil {
		if !k.IsScalar() || len(scalarString(value, k)) < *rs.minLength {
			return fail(KeyMinLength)
		}
	}
	return pass()
}

func (rs *RuleSet) checkCharLength(value any, k kind.Kind) Result {
	if rs.mbMaxLength != nil {
		if !k.IsScalar() || utf8.RuneCountInString(scalarString(value, k)) > *rs.mbMaxLength {
			return fail(KeyMbMaxLength)
		}
	}
	if rs.mbMinLength != nil {
		if !k.IsScalar() || utf8.RuneCountInString(scalarString(value, k)) < *rs.mbMinLength {
			return fail(KeyMbMinLength)
		}
	}
	return pass()
}

func (rs *RuleSet) checkBounds(value any, k kind.Kind) Result {
	if rs.maxValue != nil {
		n, ok := numericValue(value, k)
		if !ok || n > *rs.maxValue {
			return fail(KeyMaxValue)
		}
	}
	if rs.minValue != nil {
		n, ok := numericValue(value, k)
		if !ok || n < *rs.minValue {
			return fail(KeyMinValue)
		}
	}
	return pass()
}

// checkIsa requires an instance of the configured type; scalar kinds and
// other non-instances fall through to Satisfies, which rejects them unless
// they genuinely implement the target.
func (rs *RuleSet) checkIsa(value any) Result {
	if rs.isa == nil {
		return pass()
	}
	if !checks.Satisfies(value, rs.isa) {
		return fail(KeyIsa)
	}
	return pass()
}

func (rs *RuleSet) checkRegex(value any, k kind.Kind) Result {
	if rs.regex == nil {
		return pass()
	}
	if !k.IsScalar() || !rs.regex.MatchString(scalarString(value, k)) {
		return fail(KeyRegex)
	}
	return pass()
}

func (rs *RuleSet) checkCallback(value any) Result {
	if rs.callback == nil {
		return pass()
	}
	if !rs.callback(value) {
		return fail(KeyCallback)
	}
	return pass()
}

func (rs *RuleSet) checkCallbacks(value any) Result {
	for _, nc := range rs.callbacks {
		if !nc.Check(value) {
			return fail(fmt.Sprintf("%s (callback)", nc.Name))
		}
	}
	return pass()
}

// checkAllowedValues is the last and most involved check. Scalars must be a
// member of the allowed set; sequences must have every element in the set
// (an empty sequence passes trivially); any other kind fails outright.
func (rs *RuleSet) checkAllowedValues(value any, k kind.Kind) Result {
	if rs.allowed == nil {
		return pass()
	}

	switch {
	case k.IsScalar():
		if !rs.isAllowed(value, k) {
			return fail(KeyAllowedValues)
		}
	case k == kind.Sequence:
		for _, el := range sequenceElements(value) {
			if !rs.isAllowed(el, kind.Of(el)) {
				return fail(KeyAllowedValues)
			}
		}
	default:
		return fail(KeyAllowedValues)
	}
	return pass()
}

func (rs *RuleSet) isAllowed(value any, k kind.Kind) bool {
	for _, allowed := range rs.allowed {
		if equalValue(value, k, allowed, rs.nocase) {
			return true
		}
	}
	return false
}

// equalValue compares a candidate against one allowed entry. The comparison
// includes the kind: an integer never equals a double, and only string/string
// pairs are subject to case folding when nocase is set. Integers compare by
// value across widths and signedness.
func equalValue(value any, k kind.Kind, allowed any, nocase bool) bool {
	ak := kind.Of(allowed)
	if k != ak {
		return false
	}

	switch k {
	case kind.String:
		vs := cast.ToString(basicValue(value))
		as := cast.ToString(basicValue(allowed))
		if nocase {
			// A Caser is stateful; one per comparison keeps RuleSet safe
			// for concurrent use.
			fold := cases.Fold()
			return fold.String(vs) == fold.String(as)
		}
		return vs == as
	case kind.Integer:
		return cast.ToInt64(basicValue(value)) == cast.ToInt64(basicValue(allowed))
	case kind.Double:
		return cast.ToFloat64(basicValue(value)) == cast.ToFloat64(basicValue(allowed))
	case kind.Bool:
		return cast.ToBool(basicValue(value)) == cast.ToBool(basicValue(allowed))
	default:
		return false
	}
}

// basicValue normalizes a scalar to its builtin-typed equivalent so the cast
// helpers see plain Go types even when callers pass named types.
func basicValue(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	default:
		return v
	}
}

// scalarString renders a scalar value the way length and pattern checks see
// it. Booleans become "1"/"0".
func scalarString(value any, k kind.Kind) string {
	if k == kind.Bool {
		if cast.ToBool(basicValue(value)) {
			return "1"
		}
		return "0"
	}
	if k == kind.Double {
		return strconv.FormatFloat(cast.ToFloat64(basicValue(value)), 'f', -1, 64)
	}
	return cast.ToString(basicValue(value))
}

// sequenceElements flattens a slice or array value into its elements.
func sequenceElements(value any) []any {
	rv := reflect.ValueOf(value)
	out := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out = append(out, rv.Index(i).Interface())
	}
	return out
}

// numericValue coerces a value for the numeric bound checks. Integer and
// double kinds qualify, as do strings holding a number. Booleans and
// everything non-scalar do not.
func numericValue(value any, k kind.Kind) (float64, bool) {
	switch k {
	case kind.Integer, kind.Double:
		return cast.ToFloat64(basicValue(value)), true
	case kind.String:
		n, err := strconv.ParseFloat(cast.ToString(basicValue(value)), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
