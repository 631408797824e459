package blinds

import (
	"fmt"
	"os"

	"github.com/mcdev12/pokerclock/go/internal/models"
	"gopkg.in/yaml.v3"
)

// Preset is a named blind configuration offered to operators.
type Preset struct {
	ID          string             `json:"id" yaml:"id"`
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description" yaml:"description"`
	Config      models.BlindConfig `json:"config" yaml:"config"`
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// DefaultPresets returns the built-in presets.
func DefaultPresets() []Preset {
	return []Preset{
		{
			ID:          "standard",
			Name:        "Standard Structure",
			Description: "Standard tournament structure with 20-minute levels and 50BB starting stack",
			Config:      models.BlindConfig{LevelDurationMinutes: 20, StartingStackBB: 50, AntesEnabled: true},
		},
		{
			ID:          "turbo",
			Name:        "Turbo Structure",
			Description: "Fast-paced tournament with 15-minute levels and 40BB starting stack",
			Config:      models.BlindConfig{LevelDurationMinutes: 15, StartingStackBB: 40, AntesEnabled: true},
		},
		{
			ID:          "deep-stack",
			Name:        "Deep Stack Structure",
			Description: "Longer tournament with 30-minute levels and 100BB starting stack",
			Config:      models.BlindConfig{LevelDurationMinutes: 30, StartingStackBB: 100, AntesEnabled: true},
		},
	}
}

// LoadPresets reads presets from a YAML file of the form
//
//	presets:
//	  - id: turbo
//	    name: Turbo
//	    config: {level_duration_minutes: 15, starting_stack_bb: 40, antes_enabled: true}
func LoadPresets(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file: %w", err)
	}
	return ParsePresets(data)
}

// ParsePresets decodes and validates YAML preset data.
func ParsePresets(data []byte) ([]Preset, error) {
	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}

	seen := make(map[string]bool, len(file.Presets))
	for _, p := range file.Presets {
		if p.ID == "" {
			return nil, fmt.Errorf("preset %q: missing id", p.Name)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("preset %q: duplicate id", p.ID)
		}
		seen[p.ID] = true
		if err := Validate(p.Config); err != nil {
			return nil, fmt.Errorf("preset %q: %w", p.ID, err)
		}
	}
	return file.Presets, nil
}

// FindPreset looks a preset up by id.
func FindPreset(presets []Preset, id string) (Preset, error) {
	for _, p := range presets {
		if p.ID == id {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %s", ErrPresetNotFound, id)
}
