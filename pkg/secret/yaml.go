package secret

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML implements yaml.Unmarshaler. A plain scalar is shorthand for
// a literal secret; a mapping selects the reference kind explicitly.
func (r *Ref) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*r = Ref{Literal: s}
		return nil
	}
	type plain Ref
	var p plain
	if err := value.Decode(&p); err != nil {
		return fmt.Errorf("invalid secret reference: %w", err)
	}
	*r = Ref(p)
	return nil
}

// UnmarshalJSON implements json.Unmarshaler with the same shorthand rule as
// the YAML form. Database-sourced records use this path.
func (r *Ref) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = Ref{Literal: s}
		return nil
	}
	type plain Ref
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("invalid secret reference: %w", err)
	}
	*r = Ref(p)
	return nil
}
