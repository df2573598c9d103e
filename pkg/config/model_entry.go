package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ModelEntry is one candidate in a model-router list. Config files accept
// either a bare model-key string or a {key, priority} mapping; a missing
// priority defaults to the entry's index in the list.
type ModelEntry struct {
	Key      string `yaml:"key" json:"key"`
	Priority *int   `yaml:"priority,omitempty" json:"priority,omitempty"`
}

// EffectivePriority returns the configured priority, or the entry index when
// none was configured.
func (e ModelEntry) EffectivePriority(index int) int {
	if e.Priority != nil {
		return *e.Priority
	}
	return index
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *ModelEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*e = ModelEntry{Key: s}
		return nil
	}
	type plain ModelEntry
	var p plain
	if err := value.Decode(&p); err != nil {
		return fmt.Errorf("invalid model-router entry: %w", err)
	}
	*e = ModelEntry(p)
	return nil
}

// UnmarshalJSON implements json.Unmarshaler with the same shorthand rule.
func (e *ModelEntry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*e = ModelEntry{Key: s}
		return nil
	}
	type plain ModelEntry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("invalid model-router entry: %w", err)
	}
	*e = ModelEntry(p)
	return nil
}
