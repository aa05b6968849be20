package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed manifest.yaml
var defaultManifestYAML []byte

// Manifest is the versioned description of the listing dataset: column
// typing, display labels and the public projection.
type Manifest struct {
	Version         int               `yaml:"version"`
	Numeric         []string          `yaml:"numeric"`
	Boolean         []string          `yaml:"boolean"`
	BooleanPrefixes []string          `yaml:"boolean_prefixes"`
	Categorical     []string          `yaml:"categorical"`
	Labels          map[string]string `yaml:"labels"`
	Projection      []Projection      `yaml:"projection"`

	types map[string]ColumnType
}

// Projection maps a dataset column to its public response field.
type Projection struct {
	Source string `yaml:"source"`
	Name   string `yaml:"name"`
}

var defaultManifest = sync.OnceValues(func() (*Manifest, error) {
	return ParseManifest(defaultManifestYAML)
})

// DefaultManifest returns the manifest compiled into the binary.
func DefaultManifest() *Manifest {
	m, err := defaultManifest()
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded manifest is invalid: %v", err))
	}
	return m
}

// LoadManifest reads a manifest from path, or returns the embedded default
// when path is empty.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return DefaultManifest(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// ParseManifest decodes and validates a YAML manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if err := m.init(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) init() error {
	if m.Version <= 0 {
		return fmt.Errorf("manifest version must be positive, got %d", m.Version)
	}
	if len(m.Projection) == 0 {
		return fmt.Errorf("manifest projection is empty")
	}

	m.types = make(map[string]ColumnType)
	declare := func(cols []string, t ColumnType) error {
		for _, c := range cols {
			if prev, ok := m.types[c]; ok && prev != t {
				return fmt.Errorf("column %q declared as both %s and %s", c, prev, t)
			}
			m.types[c] = t
		}
		return nil
	}
	if err := declare(m.Numeric, Numeric); err != nil {
		return err
	}
	if err := declare(m.Boolean, Boolean); err != nil {
		return err
	}
	if err := declare(m.Categorical, Categorical); err != nil {
		return err
	}

	seen := make(map[string]bool, len(m.Projection))
	for i, p := range m.Projection {
		if p.Source == "" || p.Name == "" {
			return fmt.Errorf("projection entry %d needs both source and name", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("projection field %q appears twice", p.Name)
		}
		seen[p.Name] = true
	}
	if m.Labels == nil {
		m.Labels = map[string]string{}
	}
	return nil
}

// TypeOf returns the declared type of a column. Undeclared columns are
// strings.
func (m *Manifest) TypeOf(column string) ColumnType {
	if t, ok := m.types[column]; ok {
		return t
	}
	for _, prefix := range m.BooleanPrefixes {
		if strings.HasPrefix(column, prefix) {
			return Boolean
		}
	}
	return String
}
