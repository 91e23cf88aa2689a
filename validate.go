package envsmith

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// IssueKind classifies a single validation failure.
type IssueKind string

const (
	IssueTypeError        IssueKind = "type_error"
	IssueMissingRequired  IssueKind = "missing_required"
	IssueConstraint       IssueKind = "constraint_violation"
	IssueCustomValidation IssueKind = "custom_validation_failed"
	IssueTransformError   IssueKind = "transform_error"
	IssueUnknownKey       IssueKind = "unknown_key"
)

// Issue is one violated expectation for one field. A validation pass
// reports an issue for every failing field, not just the first.
type Issue struct {
	Field   string
	Kind    IssueKind
	Message string
}

// ValidatedConfig maps field names to their typed, validated values. It
// only ever contains fields declared in the schema.
type ValidatedConfig map[string]any

// String returns the value of name as a string, or "" when absent.
func (c ValidatedConfig) String(name string) string {
	v, _ := c[name].(string)
	return v
}

// Int returns the value of name as an int64, or 0 when absent.
func (c ValidatedConfig) Int(name string) int64 {
	v, _ := c[name].(int64)
	return v
}

// Float returns the value of name as a float64, or 0 when absent.
func (c ValidatedConfig) Float(name string) float64 {
	v, _ := c[name].(float64)
	return v
}

// Bool returns the value of name as a bool, or false when absent.
func (c ValidatedConfig) Bool(name string) bool {
	v, _ := c[name].(bool)
	return v
}

// Duration returns the value of name as a time.Duration, or 0 when absent.
func (c ValidatedConfig) Duration(name string) time.Duration {
	v, _ := c[name].(time.Duration)
	return v
}

// Strings returns the value of name as a []string, or nil when absent.
func (c ValidatedConfig) Strings(name string) []string {
	v, _ := c[name].([]string)
	return v
}

// ValidateEnv checks a fully resolved map against a schema and returns the
// typed configuration, or a *ValidationError carrying every issue found.
//
// Fields are processed in schema declaration order. Within one field the
// check chain stops at the first failure; across fields validation always
// continues, so one run surfaces a problem in every broken field. Absent
// values take their declared default (bypassing constraints and transform),
// or produce a missing_required issue. With WithStrict, keys present in the
// map but absent from the schema are reported as unknown_key issues.
func ValidateEnv(schema *Schema, m *Map, opts ...Option) (ValidatedConfig, error) {
	o := newOptions(opts)

	cfg := make(ValidatedConfig, schema.Len())
	var issues []Issue

	for _, f := range schema.fields {
		raw, present := m.Get(f.Name)
		if !present {
			switch {
			case f.Default != nil:
				cfg[f.Name] = f.Default
			case f.Required:
				issues = append(issues, Issue{f.Name, IssueMissingRequired, "required value is missing"})
			}
			continue
		}

		value, err := coerceValue(f.Type, raw)
		if err != nil {
			issues = append(issues, Issue{f.Name, IssueTypeError, fmt.Sprintf("cannot coerce %q to %s: %v", raw, f.Type, err)})
			continue
		}

		if issue, ok := checkConstraints(f, value); !ok {
			issues = append(issues, issue)
			continue
		}

		if f.Validator != nil && !f.Validator(value) {
			issues = append(issues, Issue{f.Name, IssueCustomValidation, fmt.Sprintf("value %v rejected by custom validator", value)})
			continue
		}

		if f.Transform != nil {
			transformed, err := f.Transform(value)
			if err != nil {
				issues = append(issues, Issue{f.Name, IssueTransformError, fmt.Sprintf("transform failed: %v", err)})
				continue
			}
			value = transformed
		}

		cfg[f.Name] = value
	}

	if o.strict {
		for _, key := range m.Keys() {
			if _, declared := schema.index[key]; !declared {
				issues = append(issues, Issue{key, IssueUnknownKey, "key is not declared in the schema"})
			}
		}
	}

	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return cfg, nil
}

var (
	truthy = map[string]bool{"true": true, "1": true, "yes": true, "on": true}
	falsy  = map[string]bool{"false": true, "0": true, "no": true, "off": true}
)

// coerceValue converts the raw string form of a value to the Go type
// declared in the schema.
func coerceValue(t Type, raw string) (any, error) {
	switch t {
	case TypeString:
		return raw, nil
	case TypeInt:
		return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	case TypeFloat:
		return strconv.ParseFloat(strings.TrimSpace(raw), 64)
	case TypeBool:
		s := strings.ToLower(strings.TrimSpace(raw))
		if truthy[s] {
			return true, nil
		}
		if falsy[s] {
			return false, nil
		}
		return nil, fmt.Errorf("not a recognized boolean literal")
	case TypeDuration:
		return time.ParseDuration(strings.TrimSpace(raw))
	case TypeStringList, TypeIntList, TypeFloatList, TypeBoolList:
		return coerceList(t, splitList(raw))
	default:
		return nil, fmt.Errorf("unsupported type %s", t)
	}
}

// splitList splits a comma-separated value into trimmed items, tolerating
// an optional surrounding bracket pair. Empty items are dropped.
func splitList(raw string) []string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = s[1 : len(s)-1]
	}
	var items []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func coerceList(t Type, items []string) (any, error) {
	switch t {
	case TypeStringList:
		return items, nil
	case TypeIntList:
		out := make([]int64, len(items))
		for i, item := range items {
			n, err := strconv.ParseInt(item, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("element %d: %v", i, err)
			}
			out[i] = n
		}
		return out, nil
	case TypeFloatList:
		out := make([]float64, len(items))
		for i, item := range items {
			n, err := strconv.ParseFloat(item, 64)
			if err != nil {
				return nil, fmt.Errorf("element %d: %v", i, err)
			}
			out[i] = n
		}
		return out, nil
	case TypeBoolList:
		out := make([]bool, len(items))
		for i, item := range items {
			v, err := coerceValue(TypeBool, item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %v", i, err)
			}
			out[i] = v.(bool)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("not a list type: %s", t)
	}
}

// checkConstraints applies the declared constraints in their fixed order:
// min/max, then min_len/max_len, then regex, then choices. The first
// failing constraint is returned; later constraints for the same field are
// not evaluated.
func checkConstraints(f Field, value any) (Issue, bool) {
	fail := func(msg string) (Issue, bool) {
		return Issue{f.Name, IssueConstraint, msg}, false
	}

	if f.Min != nil || f.Max != nil {
		n, ok := asFloat(value)
		if ok {
			if f.Min != nil && n < *f.Min {
				return fail(fmt.Sprintf("value %v is less than minimum %v", value, *f.Min))
			}
			if f.Max != nil && n > *f.Max {
				return fail(fmt.Sprintf("value %v is greater than maximum %v", value, *f.Max))
			}
		}
	}

	if f.MinLen != nil || f.MaxLen != nil {
		length, ok := valueLen(value)
		if ok {
			if f.MinLen != nil && length < *f.MinLen {
				return fail(fmt.Sprintf("length %d is less than minimum %d", length, *f.MinLen))
			}
			if f.MaxLen != nil && length > *f.MaxLen {
				return fail(fmt.Sprintf("length %d is greater than maximum %d", length, *f.MaxLen))
			}
		}
	}

	if f.Regex != nil {
		if s, ok := value.(string); ok && !f.Regex.MatchString(s) {
			return fail(fmt.Sprintf("value %q does not match pattern %q", s, f.Regex.String()))
		}
	}

	if len(f.Choices) > 0 {
		formatted := formatScalar(value)
		for _, choice := range f.Choices {
			if formatted == choice {
				return Issue{}, true
			}
		}
		return fail(fmt.Sprintf("value %v is not one of [%s]", value, strings.Join(f.Choices, ", ")))
	}

	return Issue{}, true
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func valueLen(value any) (int, bool) {
	switch v := value.(type) {
	case string:
		return len(v), true
	case []string:
		return len(v), true
	case []int64:
		return len(v), true
	case []float64:
		return len(v), true
	case []bool:
		return len(v), true
	default:
		return 0, false
	}
}

// formatScalar renders a scalar value in its canonical environment-file
// form, used for choices comparison and env-format export.
func formatScalar(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case time.Duration:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
