package cmd

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/datamosaic/data-comparer/cmd/engine"
)

// MappingFile is the on-disk YAML shape of a column mapping. The
// automap command writes it; the compare and distinct commands read
// it back after the operator edits targets, joins and excludes.
type MappingFile struct {
	Mapping     []engine.MappingEntry `yaml:"mapping"`
	JoinColumns []string              `yaml:"join_columns,omitempty"`
}

// LoadMappingFile reads and decodes a mapping YAML file. Structural
// validation (duplicates, join constraints) happens in SetMapping.
func LoadMappingFile(path string) (*MappingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	var mf MappingFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("failed to parse mapping file: %w", err)
	}
	return &mf, nil
}

// WriteMapping encodes a mapping as YAML
func WriteMapping(w io.Writer, mf *MappingFile) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(mf); err != nil {
		return fmt.Errorf("failed to encode mapping: %w", err)
	}
	return encoder.Close()
}

// SaveMappingFile writes a mapping to a YAML file
func SaveMappingFile(path string, mf *MappingFile) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create mapping file: %w", err)
	}
	defer file.Close()
	return WriteMapping(file, mf)
}
