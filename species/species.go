// Package species defines the immutable templates shared by agents and the
// catalog loader. The simulation core consumes parsed records only; file
// handling stays on this side of the boundary.
package species

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// LifespanRange bounds the per-agent sampled lifespan, in seconds.
type LifespanRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Species is an immutable template shared by many agents.
// Fin and Hue are visual metadata for rendering collaborators; the
// simulation never reads them.
type Species struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Speed       float64       `yaml:"speed"` // Base cruise ceiling, units per second
	Size        float64       `yaml:"size"`  // Base body radius, world units
	Predator    bool          `yaml:"predator"`
	Personality string        `yaml:"personality"` // Flavor tag for name generation
	Lifespan    LifespanRange `yaml:"lifespan"`
	Fin         string        `yaml:"fin"`
	Hue         float64       `yaml:"hue"`
}

type catalogFile struct {
	Species []Species `yaml:"species"`
}

// Default returns the embedded catalog.
func Default() []Species {
	list, err := parse(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("species: embedded catalog invalid: %v", err))
	}
	return list
}

// Load reads a catalog from a YAML file.
func Load(path string) ([]Species, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	list, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return list, nil
}

func parse(data []byte) ([]Species, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if err := Validate(file.Species); err != nil {
		return nil, err
	}
	return file.Species, nil
}

// Validate checks catalog invariants: unique ids, positive speed and size,
// and a well-ordered lifespan range.
func Validate(list []Species) error {
	if len(list) == 0 {
		return fmt.Errorf("catalog has no species")
	}
	seen := make(map[string]bool, len(list))
	for i, s := range list {
		if s.ID == "" {
			return fmt.Errorf("species %d: empty id", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("species %q: duplicate id", s.ID)
		}
		seen[s.ID] = true
		if s.Name == "" {
			return fmt.Errorf("species %q: empty name", s.ID)
		}
		if s.Speed <= 0 {
			return fmt.Errorf("species %q: speed must be positive, got %v", s.ID, s.Speed)
		}
		if s.Size <= 0 {
			return fmt.Errorf("species %q: size must be positive, got %v", s.ID, s.Size)
		}
		if s.Lifespan.Min <= 0 || s.Lifespan.Max < s.Lifespan.Min {
			return fmt.Errorf("species %q: bad lifespan range [%v, %v]", s.ID, s.Lifespan.Min, s.Lifespan.Max)
		}
	}
	return nil
}

// Index maps species id to catalog position.
func Index(list []Species) map[string]int {
	idx := make(map[string]int, len(list))
	for i, s := range list {
		idx[s.ID] = i
	}
	return idx
}
