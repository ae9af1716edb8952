package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Sey56/Paracore-sub001/internal/engine/polyscript"
	"github.com/Sey56/Paracore-sub001/internal/script"
)

var errNoScripts = errors.New("no script files found")

func isScriptFile(name string) bool {
	if strings.EqualFold(filepath.Ext(name), ".cs") {
		return true
	}
	_, ok := polyscript.LanguageOf(name)
	return ok
}

// readUnit loads the script files named by paths. A directory contributes
// its script files, sorted by name. The unit is named after the first path.
func readUnit(paths []string) (script.Unit, error) {
	if len(paths) == 0 {
		return script.Unit{}, fmt.Errorf("at least one script file or directory is required")
	}

	unit := script.Unit{Name: strings.TrimSuffix(filepath.Base(paths[0]), filepath.Ext(paths[0]))}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return script.Unit{}, err
		}
		if !info.IsDir() {
			f, err := readFile(p)
			if err != nil {
				return script.Unit{}, err
			}
			unit.Files = append(unit.Files, f)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return script.Unit{}, err
		}
		for _, e := range entries {
			if e.IsDir() || !isScriptFile(e.Name()) {
				continue
			}
			f, err := readFile(filepath.Join(p, e.Name()))
			if err != nil {
				return script.Unit{}, err
			}
			unit.Files = append(unit.Files, f)
		}
	}
	if len(unit.Files) == 0 {
		return script.Unit{}, fmt.Errorf("%w in %s", errNoScripts, strings.Join(paths, ", "))
	}
	return unit, nil
}

func readFile(path string) (script.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return script.File{}, err
	}
	return script.File{Name: filepath.Base(path), Content: string(data)}, nil
}

// parseParamFlags turns name=value pairs into a JSON object. Values that
// parse as JSON keep their type; anything else is a string.
func parseParamFlags(pairs []string) (json.RawMessage, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	values := make(map[string]json.RawMessage, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", pair)
		}
		if json.Valid([]byte(value)) {
			values[name] = json.RawMessage(value)
			continue
		}
		quoted, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		values[name] = quoted
	}
	return json.Marshal(values)
}

// Output formats.
const (
	formatTree = "tree"
	formatJSON = "json"
	formatYAML = "yaml"
)

var outputFormats = []string{formatTree, formatJSON, formatYAML}

func checkFormat(format string) error {
	if !slices.Contains(outputFormats, format) {
		return fmt.Errorf("unsupported format %q, expected one of %s", format, strings.Join(outputFormats, ", "))
	}
	return nil
}

// writeData writes v as JSON or YAML. YAML goes through JSON first so both
// formats share the wire field names.
func writeData(w io.Writer, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if format == formatJSON {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}
