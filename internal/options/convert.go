package options

import (
	"fmt"
)

// toStrings converts a provider's list result. nil is an empty list.
func toStrings(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return append([]string{}, t...), nil
	case []any:
		out := make([]string, 0, len(t))
		for i, item := range t {
			switch s := item.(type) {
			case string:
				out = append(out, s)
			case nil:
				return nil, fmt.Errorf("%w: item %d is null", ErrBadProviderResult, i)
			default:
				out = append(out, fmt.Sprint(s))
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: expected a list, got %T", ErrBadProviderResult, v)
	}
}

func toRange(v any) (Range, error) {
	switch t := v.(type) {
	case Range:
		return t, nil
	case []float64:
		items := make([]any, len(t))
		for i, f := range t {
			items[i] = f
		}
		return rangeFromList(items)
	case []any:
		return rangeFromList(t)
	case map[string]any:
		var r Range
		for key, dst := range map[string]**float64{"min": &r.Min, "max": &r.Max, "step": &r.Step} {
			raw, ok := t[key]
			if !ok || raw == nil {
				continue
			}
			f, ok := toFloat(raw)
			if !ok {
				return Range{}, fmt.Errorf("%w: %s is not a number", ErrBadProviderResult, key)
			}
			*dst = &f
		}
		return r, nil
	default:
		return Range{}, fmt.Errorf("%w: expected a range, got %T", ErrBadProviderResult, v)
	}
}

func rangeFromList(items []any) (Range, error) {
	if len(items) < 2 || len(items) > 3 {
		return Range{}, fmt.Errorf("%w: range needs 2 or 3 numbers, got %d", ErrBadProviderResult, len(items))
	}
	nums := make([]*float64, len(items))
	for i, item := range items {
		f, ok := toFloat(item)
		if !ok {
			return Range{}, fmt.Errorf("%w: range item %d is not a number", ErrBadProviderResult, i)
		}
		nums[i] = &f
	}
	r := Range{Min: nums[0], Max: nums[1]}
	if len(nums) == 3 {
		r.Step = nums[2]
	}
	return r, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
