package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Sey56/Paracore-sub001/internal/script"
)

var (
	// ErrInvalidValues is returned when the raw parameter payload is not a
	// JSON object or a list of name/value pairs.
	ErrInvalidValues = errors.New("invalid parameter values")

	// ErrInvalidValue wraps a per-parameter coercion or validation failure.
	ErrInvalidValue = errors.New("invalid parameter value")
)

// Values are bound parameter values keyed by parameter name. Numbers with a
// convertible unit are stored in host units.
type Values map[string]any

// namedValue is the list form sent by clients that post the descriptor back
// with a value attached.
type namedValue struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// DecodeValues accepts either {"Name": value} or [{"name": ..., "value": ...}].
// An empty payload decodes to an empty map. Names must be unique.
func DecodeValues(raw []byte) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage)
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return out, nil
	}
	switch trimmed[0] {
	case '{':
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidValues, err)
		}
	case '[':
		var list []namedValue
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidValues, err)
		}
		for _, nv := range list {
			if _, dup := out[nv.Name]; dup {
				return nil, fmt.Errorf("%w: duplicate parameter %q", ErrInvalidValues, nv.Name)
			}
			out[nv.Name] = nv.Value
		}
	default:
		return nil, fmt.Errorf("%w: expected an object or a list", ErrInvalidValues)
	}
	return out, nil
}

// Bind coerces raw values to the descriptor types, fills in defaults for
// missing values, validates required, pattern and range constraints, and
// converts unit-tagged numbers to host units. Values without a descriptor
// are passed through decoded but unchecked. All failures are joined.
func Bind(descriptors []script.Parameter, raw []byte) (Values, error) {
	supplied, err := DecodeValues(raw)
	if err != nil {
		return nil, err
	}
	out := make(Values, len(supplied))
	var errs []error
	for _, p := range descriptors {
		rv, ok := supplied[p.Name]
		delete(supplied, p.Name)
		if !ok || isNull(rv) {
			rv = json.RawMessage(p.DefaultValueJSON)
		}
		v, err := coerce(p.Type, rv)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrInvalidValue, p.Name, err))
			continue
		}
		if err := validate(p, v); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrInvalidValue, p.Name, err))
			continue
		}
		out[p.Name] = toHostUnits(p, v)
	}
	for name, rv := range supplied {
		var v any
		if err := json.Unmarshal(rv, &v); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrInvalidValue, name, err))
			continue
		}
		out[name] = v
	}
	if len(errs) > 0 {
		return out, errors.Join(errs...)
	}
	return out, nil
}

func isNull(rv json.RawMessage) bool {
	t := bytes.TrimSpace(rv)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func coerce(typ script.ParameterType, rv json.RawMessage) (any, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(rv))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	switch typ {
	case script.TypeString:
		switch x := v.(type) {
		case string:
			return x, nil
		case json.Number:
			return x.String(), nil
		case bool:
			return strconv.FormatBool(x), nil
		}
	case script.TypeInteger:
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("%v is not a whole number", f)
		}
		return int64(f), nil
	case script.TypeFloat:
		return toFloat(v)
	case script.TypeBoolean:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			return strconv.ParseBool(strings.TrimSpace(x))
		}
	case script.TypeStringList:
		return toStrings(v)
	}
	return nil, fmt.Errorf("cannot use %T as %s", v, typ)
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case json.Number:
		return x.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	}
	return 0, fmt.Errorf("cannot use %T as a number", v)
}

func toStrings(v any) ([]string, error) {
	switch x := v.(type) {
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			switch s := e.(type) {
			case string:
				out = append(out, s)
			case json.Number:
				out = append(out, s.String())
			default:
				return nil, fmt.Errorf("cannot use %T as a list item", e)
			}
		}
		return out, nil
	case string:
		s := strings.TrimSpace(x)
		if strings.HasPrefix(s, "[") {
			var list []string
			if err := json.Unmarshal([]byte(s), &list); err == nil {
				return list, nil
			}
		}
		if s == "" {
			return []string{}, nil
		}
		return splitList(s), nil
	}
	return nil, fmt.Errorf("cannot use %T as a list", v)
}

func validate(p script.Parameter, v any) error {
	switch x := v.(type) {
	case string:
		if p.IsRequired && strings.TrimSpace(x) == "" {
			return errors.New("a value is required")
		}
		if p.Pattern != "" && x != "" {
			re, err := regexp.Compile(p.Pattern)
			if err != nil {
				return fmt.Errorf("bad pattern %q: %w", p.Pattern, err)
			}
			if !re.MatchString(x) {
				return fmt.Errorf("%q does not match %q", x, p.Pattern)
			}
		}
		if len(p.Options) > 0 && p.OptionsSource == script.OptionsStatic && x != "" && !contains(p.Options, x) {
			return fmt.Errorf("%q is not one of the allowed options", x)
		}
	case []string:
		if p.IsRequired && len(x) == 0 {
			return errors.New("at least one value is required")
		}
	case int64:
		return checkRange(p, float64(x))
	case float64:
		return checkRange(p, x)
	}
	return nil
}

func checkRange(p script.Parameter, f float64) error {
	if p.Min != nil && f < *p.Min {
		return fmt.Errorf("%v is below the minimum %v", f, *p.Min)
	}
	if p.Max != nil && f > *p.Max {
		return fmt.Errorf("%v is above the maximum %v", f, *p.Max)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func toHostUnits(p script.Parameter, v any) any {
	if p.Unit == "" {
		return v
	}
	var f float64
	switch x := v.(type) {
	case int64:
		f = float64(x)
	case float64:
		f = x
	default:
		return v
	}
	if converted, ok := ToInternal(f, p.Unit); ok {
		return converted
	}
	return v
}
