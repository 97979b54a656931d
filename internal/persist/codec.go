package persist

import (
	"bytes"
	"encoding/json"
	"fmt"

	"shoppinglist/internal/models"
)

const (
	// DefaultNamespace is the record namespace used by the app
	DefaultNamespace = "root"

	keyPrefix = "persist:"

	// persistMeta is written next to the state. Version -1 means unversioned;
	// nothing reads it back.
	persistMeta = `{"version":-1,"rehydrated":true}`
)

// Codec turns the shopping list into the stored record and back.
//
// The record is a JSON object whose fields are themselves JSON-encoded
// strings, e.g.
//
//	{"_persist":"{\"version\":-1,\"rehydrated\":true}","list":"[{\"id\":1,...}]"}
type Codec struct {
	Namespace string
}

// Key returns the storage key, e.g. "persist:root"
func (c Codec) Key() string {
	ns := c.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return keyPrefix + ns
}

// Encode serializes the full state
func (c Codec) Encode(state models.ShoppingListState) ([]byte, error) {
	list := state.List
	if list == nil {
		list = []models.ShoppingItem{}
	}

	listJSON, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal shopping list items: %w", err)
	}

	record := map[string]string{
		"list":     string(listJSON),
		"_persist": persistMeta,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal persisted record: %w", err)
	}
	return data, nil
}

// Decode restores state from a record. A record without a list decodes to
// the empty state. A plain {"list":[...]} object is accepted as well.
func (c Codec) Decode(data []byte) (models.ShoppingListState, error) {
	state := models.ShoppingListState{List: []models.ShoppingItem{}}

	var record map[string]json.RawMessage
	if err := json.Unmarshal(data, &record); err != nil {
		return state, fmt.Errorf("failed to unmarshal persisted record: %w", err)
	}

	raw, ok := record["list"]
	if !ok {
		return state, nil
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return state, fmt.Errorf("failed to unmarshal list field: %w", err)
		}
		raw = []byte(encoded)
	}

	var list []models.ShoppingItem
	if err := json.Unmarshal(raw, &list); err != nil {
		return state, fmt.Errorf("failed to unmarshal shopping list items: %w", err)
	}
	if list != nil {
		state.List = list
	}
	return state, nil
}
