package polyscript

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sey56/Paracore-sub001/internal/execution"
	"github.com/Sey56/Paracore-sub001/internal/host"
)

// ErrScript is returned when a script reports failure through an "error" key.
var ErrScript = errors.New("script reported an error")

// applyResult applies what a script evaluated to:
//
//   - a string is printed
//   - a map may carry "print" (string or list), "output" (list of
//     {type, data}), "create" (list of element specs created in one
//     transaction named by "transaction"), "working_set" (list of ids that
//     replace the working set), "result" (shown as a result item) and
//     "error" (fails the run)
//   - anything else is shown as a result item
func applyResult(ctx context.Context, x *execution.Context, value any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		x.Println(v)
		return nil
	case map[string]any:
		return applyMap(ctx, x, v)
	default:
		return x.Show("result", v)
	}
}

var resultKeys = []string{"print", "output", "create", "transaction", "working_set", "result", "error"}

func applyMap(ctx context.Context, x *execution.Context, m map[string]any) error {
	known := false
	for _, k := range resultKeys {
		if _, ok := m[k]; ok {
			known = true
			break
		}
	}
	if !known {
		return x.Show("result", m)
	}

	switch p := m["print"].(type) {
	case string:
		x.Println(p)
	case []any:
		for _, line := range p {
			x.Println(line)
		}
	}

	if items, ok := m["output"].([]any); ok {
		for i, item := range items {
			im, ok := item.(map[string]any)
			if !ok {
				return fmt.Errorf("output item %d is not an object", i)
			}
			itemType, _ := im["type"].(string)
			if itemType == "" {
				itemType = "message"
			}
			if err := x.Show(itemType, im["data"]); err != nil {
				return err
			}
		}
	}

	if specs, ok := m["create"].([]any); ok && len(specs) > 0 {
		name, _ := m["transaction"].(string)
		if _, err := createElements(ctx, x, name, specs); err != nil {
			return err
		}
	}

	if ids, ok := m["working_set"].([]any); ok {
		set := make([]int64, 0, len(ids))
		for _, id := range ids {
			n, ok := toInt64(id)
			if !ok {
				return fmt.Errorf("working_set id %v is not an integer", id)
			}
			set = append(set, n)
		}
		x.ReplaceWorkingSet(set)
	}

	if r, ok := m["result"]; ok && r != nil {
		if err := x.Show("result", r); err != nil {
			return err
		}
	}

	if msg, ok := m["error"].(string); ok && msg != "" {
		return fmt.Errorf("%w: %s", ErrScript, msg)
	}
	return nil
}

// createElements creates the elements described by specs in one transaction
// and returns their ids. A read-only run creates nothing.
func createElements(ctx context.Context, x *execution.Context, name string, specs []any) ([]int64, error) {
	elements, err := elementSpecs(specs)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = "Create elements"
	}
	ids := []int64{}
	err = x.Transact(ctx, name, func(doc host.Document) error {
		for _, el := range elements {
			id, err := doc.Create(ctx, el)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func elementSpecs(specs []any) ([]host.Element, error) {
	out := make([]host.Element, 0, len(specs))
	for i, s := range specs {
		sm, ok := s.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("create item %d is not an object", i)
		}
		el := host.Element{}
		el.Type, _ = sm["type"].(string)
		el.Category, _ = sm["category"].(string)
		el.Name, _ = sm["name"].(string)
		if el.Type == "" {
			return nil, fmt.Errorf("create item %d has no type", i)
		}
		if pm, ok := sm["params"].(map[string]any); ok {
			el.Params = make(map[string]string, len(pm))
			for k, v := range pm {
				el.Params[k] = fmt.Sprint(v)
			}
		}
		out = append(out, el)
	}
	return out, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}
