package execution

import (
	"encoding/json"
	"slices"
)

// OutputTypeWorkingSet tags the internal-data envelope describing working set changes.
const OutputTypeWorkingSet = "working_set_elements"

// Working set operations.
const (
	OperationAdd     = "add"
	OperationReplace = "replace"
	OperationNone    = "none"
)

// WorkingSet is the internal-data envelope a client merges into its model
// of the elements a script touched.
type WorkingSet struct {
	OutputType string  `json:"paracore_output_type"`
	Operation  string  `json:"operation"`
	ElementIDs []int64 `json:"element_ids"`
}

// ParseWorkingSet decodes an internal-data string. It reports false when the
// string is empty or is not a working set envelope.
func ParseWorkingSet(data string) (WorkingSet, bool) {
	if data == "" {
		return WorkingSet{}, false
	}
	var ws WorkingSet
	if err := json.Unmarshal([]byte(data), &ws); err != nil || ws.OutputType != OutputTypeWorkingSet {
		return WorkingSet{}, false
	}
	return ws, true
}

func (w WorkingSet) String() string {
	if w.ElementIDs == nil {
		w.ElementIDs = []int64{}
	}
	b, _ := json.Marshal(w)
	return string(b)
}

// mergeAdded folds ids into an existing envelope. Adding to a replace keeps
// the replace; adding to none or to nothing becomes an add.
func mergeAdded(current string, ids []int64) WorkingSet {
	ws, ok := ParseWorkingSet(current)
	if !ok || ws.Operation == OperationNone {
		ws = WorkingSet{OutputType: OutputTypeWorkingSet, Operation: OperationAdd}
	}
	for _, id := range ids {
		if !slices.Contains(ws.ElementIDs, id) {
			ws.ElementIDs = append(ws.ElementIDs, id)
		}
	}
	return ws
}
