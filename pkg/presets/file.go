package presets

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/google/jsonschema-go/jsonschema"
)

// File is the on-disk format of a preset file. JSON files use the same
// shape.
type File struct {
	Presets []Preset `json:"presets" yaml:"presets" jsonschema:"preset definitions"`
}

// Load reads presets from YAML or JSON. Unknown fields and invalid presets
// are errors.
func Load(r io.Reader) ([]Preset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("presets: parse: %w", err)
	}
	seen := make(map[string]bool)
	for _, p := range f.Presets {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("presets: duplicate id %q", p.ID)
		}
		seen[p.ID] = true
	}
	return f.Presets, nil
}

// LoadFile reads presets from a file.
func LoadFile(path string) ([]Preset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ps, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ps, nil
}

// Schema returns the JSON Schema of File.
func Schema() (*jsonschema.Schema, error) {
	return jsonschema.For[File](&jsonschema.ForOptions{})
}

// SchemaJSON returns the indented JSON Schema of File.
func SchemaJSON() ([]byte, error) {
	s, err := Schema()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(s, "", "  ")
}
