package script

// ParameterType is the normalized type of a script input.
type ParameterType string

const (
	TypeString     ParameterType = "string"
	TypeInteger    ParameterType = "integer"
	TypeFloat      ParameterType = "float"
	TypeBoolean    ParameterType = "boolean"
	TypeStringList ParameterType = "string-list"
)

// ZeroJSON is the JSON text used as the default when a declaration carries
// no usable initializer.
func (t ParameterType) ZeroJSON() string {
	switch t {
	case TypeInteger:
		return "0"
	case TypeFloat:
		return "0.0"
	case TypeBoolean:
		return "false"
	case TypeStringList:
		return "[]"
	default:
		return `""`
	}
}

// SelectionType names the interactive pick a client performs for a
// parameter.
type SelectionType string

const (
	SelectNone    SelectionType = ""
	SelectElement SelectionType = "element"
	SelectPoint   SelectionType = "point"
	SelectFace    SelectionType = "face"
	SelectEdge    SelectionType = "edge"
)

// OptionsSource describes where the options of a parameter come from.
type OptionsSource string

const (
	OptionsNone     OptionsSource = ""
	OptionsStatic   OptionsSource = "static"
	OptionsComputed OptionsSource = "computed"
	OptionsElements OptionsSource = "revit-elements"
)

// Parameter is the descriptor of one user-facing script input.
type Parameter struct {
	Name             string        `json:"name"`
	Type             ParameterType `json:"type"`
	DefaultValueJSON string        `json:"defaultValueJson"`
	Description      string        `json:"description"`
	Group            string        `json:"group,omitempty"`
	IsRequired       bool          `json:"isRequired"`
	MultiSelect      bool          `json:"multiSelect"`
	Options          []string      `json:"options"`
	OptionsSource    OptionsSource `json:"optionsSource,omitempty"`
	Min              *float64      `json:"min,omitempty"`
	Max              *float64      `json:"max,omitempty"`
	Step             *float64      `json:"step,omitempty"`
	Unit             string        `json:"unit,omitempty"`
	Suffix           string        `json:"suffix,omitempty"`
	Pattern          string        `json:"pattern,omitempty"`

	VisibleWhen string `json:"visibleWhenExpression,omitempty"`
	EnabledWhen string `json:"enabledWhenExpression,omitempty"`

	IsRevitElement       bool          `json:"isRevitElement"`
	RevitElementType     string        `json:"revitElementType,omitempty"`
	RevitElementCategory string        `json:"revitElementCategory,omitempty"`
	RequiresCompute      bool          `json:"requiresCompute"`
	SelectionType        SelectionType `json:"selectionType,omitempty"`

	HasVisibleFunction bool `json:"hasVisibleFunction,omitempty"`
	HasEnabledFunction bool `json:"hasEnabledFunction,omitempty"`
	HasRangeFunction   bool `json:"hasRangeFunction,omitempty"`
}

// HasRange reports whether any numeric bound is declared.
func (p Parameter) HasRange() bool {
	return p.Min != nil || p.Max != nil || p.Step != nil
}

// FindParameter returns the descriptor with the given name.
func FindParameter(params []Parameter, name string) (Parameter, bool) {
	for _, p := range params {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}
