package config

import (
	"fmt"
	"slices"
)

// Preset bundles the settings that trade answer length for speed.
type Preset struct {
	MaxTokens          int
	Temperature        float64
	TruncateChars      int
	SectionBudgetChars int
}

var presets = map[string]Preset{
	"speed":    {MaxTokens: 160, Temperature: 0.0, TruncateChars: 8000, SectionBudgetChars: 6000},
	"balanced": {MaxTokens: 256, Temperature: 0.1, TruncateChars: 12000, SectionBudgetChars: 10000},
	"detail":   {MaxTokens: 384, Temperature: 0.15, TruncateChars: 16000, SectionBudgetChars: 12000},
}

// PresetNames lists the known presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ApplyPreset overwrites the preset-controlled fields. An empty name is a
// no-op.
func (c *Config) ApplyPreset(name string) error {
	if name == "" {
		return nil
	}
	preset, ok := presets[name]
	if !ok {
		return fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, name)
	}
	c.Preset = name
	c.MaxTokens = preset.MaxTokens
	c.Temperature = preset.Temperature
	c.TruncateChars = preset.TruncateChars
	c.SectionBudgetChars = preset.SectionBudgetChars
	return nil
}
