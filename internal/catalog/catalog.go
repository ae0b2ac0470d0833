// Package catalog loads and validates achievement catalogues. The built-in
// default set ships with the binary; deployments can replace it with a YAML
// file so achievement authoring is a data change, not a code change.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/habitloop/backend/internal/progression"
)

// file is the on-disk catalogue document.
type file struct {
	Achievements []progression.AchievementDefinition `yaml:"achievements"`
}

// Load reads a catalogue from a YAML file and validates every definition.
// Malformed authoring data fails here, at load time, never per-evaluation.
func Load(path string) ([]progression.AchievementDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalogue: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalogue: %w", err)
	}
	if err := Validate(f.Achievements); err != nil {
		return nil, err
	}
	return f.Achievements, nil
}

// Validate checks every definition and rejects duplicate IDs.
func Validate(defs []progression.AchievementDefinition) error {
	if len(defs) == 0 {
		return fmt.Errorf("%w: catalogue is empty", progression.ErrMalformedDefinition)
	}
	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return err
		}
		if seen[def.ID] {
			return fmt.Errorf("%w: duplicate id %q", progression.ErrMalformedDefinition, def.ID)
		}
		seen[def.ID] = true
	}
	return nil
}
