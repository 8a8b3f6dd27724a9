package scenario

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sigs.k8s.io/yaml"

	"scenarist/pkg/logging"
)

// IsDefinitionFile reports whether the path looks like a scenario definition
// file the loader understands.
func IsDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}

// LoadFile reads one definition file. A file may contain a single scenario
// object or a list of scenarios.
func LoadFile(path string) ([]*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file %s: %w", path, err)
	}
	defs, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("scenario file %s: %w", path, err)
	}
	return defs, nil
}

// Decode parses YAML or JSON definition data. The top level may be one
// scenario object or an array of them.
func Decode(data []byte) ([]*Definition, error) {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	trimmed := bytes.TrimSpace(jsonData)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var defs []*Definition
		if err := yaml.Unmarshal(trimmed, &defs); err != nil {
			return nil, fmt.Errorf("decode scenario list: %w", err)
		}
		return defs, nil
	}

	var def Definition
	if err := yaml.Unmarshal(trimmed, &def); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return []*Definition{&def}, nil
}

// LoadPath loads scenario definitions from a file or a directory tree.
// Directories are walked recursively; non-definition files are skipped.
// Files are visited in lexical order so that load results are deterministic.
func LoadPath(path string) ([]*Definition, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat scenario path %s: %w", path, err)
	}

	if !info.IsDir() {
		return LoadFile(path)
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && IsDefinitionFile(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk scenario directory %s: %w", path, err)
	}
	sort.Strings(files)

	var defs []*Definition
	for _, file := range files {
		fileDefs, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		logging.Debug("ScenarioLoader", "loaded %d scenario(s) from %s", len(fileDefs), file)
		defs = append(defs, fileDefs...)
	}
	return defs, nil
}
