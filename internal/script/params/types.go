package params

import (
	"strings"

	"github.com/Sey56/Paracore-sub001/internal/script"
)

var scalarTypes = map[string]script.ParameterType{
	"string": script.TypeString,
	"String": script.TypeString,
	"char":   script.TypeString,

	"int":    script.TypeInteger,
	"Int32":  script.TypeInteger,
	"long":   script.TypeInteger,
	"Int64":  script.TypeInteger,
	"short":  script.TypeInteger,
	"Int16":  script.TypeInteger,
	"byte":   script.TypeInteger,
	"uint":   script.TypeInteger,
	"ulong":  script.TypeInteger,
	"ushort": script.TypeInteger,

	"double":  script.TypeFloat,
	"Double":  script.TypeFloat,
	"float":   script.TypeFloat,
	"Single":  script.TypeFloat,
	"decimal": script.TypeFloat,
	"Decimal": script.TypeFloat,

	"bool":    script.TypeBoolean,
	"Boolean": script.TypeBoolean,
}

var listWrappers = []string{
	"List", "IList", "IEnumerable", "ICollection", "IReadOnlyList", "IReadOnlyCollection",
}

// MapType normalizes a declared C# type. Nullable types map to their
// underlying type. The second result is false for types scripts cannot
// receive as input.
func MapType(decl string) (script.ParameterType, bool) {
	t := strings.TrimSuffix(strings.TrimSpace(decl), "?")
	t = strings.TrimPrefix(t, "System.Collections.Generic.")
	t = strings.TrimPrefix(t, "System.")
	if strings.HasPrefix(t, "Nullable<") && strings.HasSuffix(t, ">") {
		t = t[len("Nullable<") : len(t)-1]
	}
	if pt, ok := scalarTypes[t]; ok {
		return pt, true
	}
	if elem, ok := strings.CutSuffix(t, "[]"); ok {
		return listOf(elem)
	}
	for _, w := range listWrappers {
		if strings.HasPrefix(t, w+"<") && strings.HasSuffix(t, ">") {
			return listOf(t[len(w)+1 : len(t)-1])
		}
	}
	return "", false
}

func listOf(elem string) (script.ParameterType, bool) {
	elem = strings.TrimSuffix(strings.TrimPrefix(elem, "System."), "?")
	if scalarTypes[elem] == script.TypeString {
		return script.TypeStringList, true
	}
	return "", false
}
