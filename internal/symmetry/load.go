package symmetry

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// maxCatalogBytes caps catalog files read from disk.
const maxCatalogBytes = 1 << 20

// catalogFile is the on-disk YAML layout:
//
//	include_builtin: true
//	operations:
//	  C2x: [[1, 0], [0, -1]]
//	layer_groups:
//	  p2mm-custom:
//	    operations: [E, C2, Mx, My]
//	    z_sign_flip: false
type catalogFile struct {
	IncludeBuiltin *bool                      `yaml:"include_builtin"`
	Operations     map[string][][]float64     `yaml:"operations"`
	LayerGroups    map[string]layerGroupEntry `yaml:"layer_groups"`
}

type layerGroupEntry struct {
	Operations []string `yaml:"operations"`
	ZSignFlip  bool     `yaml:"z_sign_flip"`
}

// LoadCatalogFile reads a YAML catalog from path. See LoadCatalog.
func LoadCatalogFile(path string) (*Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat catalog file: %w", err)
	}
	if info.Size() > maxCatalogBytes {
		return nil, fmt.Errorf("%w: catalog file too large: %d bytes (max %d)", ErrInvalidCatalog, info.Size(), maxCatalogBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return LoadCatalog(bytes.NewReader(data))
}

// LoadCatalog decodes a YAML catalog. Extra operations extend the base
// table and may be referenced by name (with ^n powers) from layer groups.
// Unless include_builtin is false the result is the built-in catalog
// overlaid by the file's groups. Every failure wraps ErrInvalidCatalog.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(io.LimitReader(r, maxCatalogBytes))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}

	table := BaseTable()
	for _, name := range sortedKeys(f.Operations) {
		rows := f.Operations[name]
		if len(rows) != 2 || len(rows[0]) != 2 || len(rows[1]) != 2 {
			return nil, fmt.Errorf("%w: operation %s must be a 2x2 matrix", ErrInvalidCatalog, name)
		}
		op, err := NewOperation(name, denseFromRows(rows))
		if err != nil {
			return nil, err
		}
		table[name] = op.r
	}

	specs := make([]groupSpec, 0, len(f.LayerGroups))
	for _, label := range sortedKeys(f.LayerGroups) {
		e := f.LayerGroups[label]
		specs = append(specs, groupSpec{label: label, ops: e.Operations, zSignFlip: e.ZSignFlip})
	}
	custom, err := buildCatalog(table, specs)
	if err != nil {
		return nil, err
	}

	if f.IncludeBuiltin != nil && !*f.IncludeBuiltin {
		if custom.Len() == 0 {
			return nil, fmt.Errorf("%w: no layer groups defined", ErrInvalidCatalog)
		}
		return custom, nil
	}
	return Builtin().Merge(custom), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
