package household

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Household is one monitored home from the registry file.
type Household struct {
	ID        string   `yaml:"id" json:"id"`
	Name      string   `yaml:"name" json:"name"`
	Latitude  float64  `yaml:"latitude" json:"latitude"`
	Longitude float64  `yaml:"longitude" json:"longitude"`
	Rooms     []string `yaml:"rooms" json:"rooms"`
}

// registryFile is the on-disk YAML shape.
type registryFile struct {
	Households []Household `yaml:"households"`
}

// Registry is the set of monitored households, loaded once at startup.
type Registry struct {
	byID  map[string]Household
	order []string
}

// Load reads a household registry from a YAML file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read households file: %w", err)
	}
	return Parse(data)
}

// Parse loads a registry from raw YAML (useful for testing).
func Parse(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse households YAML: %w", err)
	}

	registry := &Registry{byID: make(map[string]Household, len(file.Households))}
	for _, h := range file.Households {
		if h.ID == "" {
			return nil, fmt.Errorf("household with empty id in registry")
		}
		if _, exists := registry.byID[h.ID]; exists {
			return nil, fmt.Errorf("duplicate household id %q in registry", h.ID)
		}
		registry.byID[h.ID] = h
		registry.order = append(registry.order, h.ID)
	}

	return registry, nil
}

// Get looks up one household by id.
func (r *Registry) Get(id string) (Household, bool) {
	h, ok := r.byID[id]
	return h, ok
}

// All returns the households in file order.
func (r *Registry) All() []Household {
	out := make([]Household, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Len returns the number of registered households.
func (r *Registry) Len() int {
	return len(r.order)
}
