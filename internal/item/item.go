package item

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Item is the decoded form of a listed item stack. The marketplace stores
// only the serialized payload; the decoded form exists so listings can be
// searched and rendered without another decode per request.
type Item struct {
	Type        string         `json:"type"`
	DisplayName string         `json:"display_name,omitempty"`
	Amount      int            `json:"amount"`
	Enchants    map[string]int `json:"enchants,omitempty"`
	Lore        []string       `json:"lore,omitempty"`
}

// Name returns the display name, falling back to the item type when the
// item was never renamed.
func (i *Item) Name() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Type
}

// Codec converts items to and from their persisted payload form.
type Codec interface {
	Serialize(it *Item) ([]byte, error)
	Deserialize(data []byte) (*Item, error)
}

// JSONCodec is the default Codec. Serialization is deterministic, so a
// serialize/deserialize/serialize round trip is byte-identical.
type JSONCodec struct{}

// Serialize encodes an item into its payload form.
func (JSONCodec) Serialize(it *Item) ([]byte, error) {
	if it == nil {
		return nil, errors.New("nil item")
	}
	if it.Type == "" {
		return nil, errors.New("item type is required")
	}
	data, err := json.Marshal(it)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize item: %w", err)
	}
	return data, nil
}

// Deserialize decodes a payload back into an item.
func (JSONCodec) Deserialize(data []byte) (*Item, error) {
	if len(data) == 0 {
		return nil, errors.New("empty item payload")
	}
	var it Item
	if err := json.Unmarshal(data, &it); err != nil {
		return nil, fmt.Errorf("malformed item payload: %w", err)
	}
	if it.Type == "" {
		return nil, errors.New("item payload missing type")
	}
	return &it, nil
}

var _ Codec = JSONCodec{}
