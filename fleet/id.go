// Package fleet holds the tanks and trucks of a run, the rules that mutate
// them, the greedy dispatcher, and the per-truck trip ledger.
package fleet

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ID identifies a tank or a truck. IDs are opaque; scenario files may write
// them as numbers or strings and they are always rendered as strings.
type ID string

// UnmarshalJSON accepts both JSON strings and JSON numbers.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		*id = ID(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("fleet: id must be a string or a number, got %s", data)
	}

	*id = ID(n.String())

	return nil
}

// UnmarshalYAML accepts any scalar.
func (id *ID) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("fleet: id must be a scalar, line %d", value.Line)
	}

	*id = ID(value.Value)

	return nil
}

// IDPtr returns a pointer to a copy of id.
func IDPtr(id ID) *ID {
	return &id
}
