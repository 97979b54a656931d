package models

import (
	"time"
)

// ShoppingItem is a single line on the shopping list
type ShoppingItem struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Quantity  Quantity `json:"quantity"`
	Unit      string   `json:"unit"`
	Purchased bool     `json:"purchased"`
}

// ShoppingListState is the ordered list of items. Insertion order is display order.
type ShoppingListState struct {
	List []ShoppingItem `json:"list"`
}

// Clone returns a copy of the state that does not share the backing array
func (s ShoppingListState) Clone() ShoppingListState {
	if s.List == nil {
		return ShoppingListState{List: []ShoppingItem{}}
	}
	list := make([]ShoppingItem, len(s.List))
	copy(list, s.List)
	return ShoppingListState{List: list}
}

// IndexOf returns the position of the item with the given id, or -1
func (s ShoppingListState) IndexOf(id int64) int {
	for i := range s.List {
		if s.List[i].ID == id {
			return i
		}
	}
	return -1
}

// MaxID returns the highest item id in the state, or 0 for an empty list
func (s ShoppingListState) MaxID() int64 {
	var max int64
	for _, item := range s.List {
		if item.ID > max {
			max = item.ID
		}
	}
	return max
}

// KVEntry is a persisted key-value record
type KVEntry struct {
	Key       string    `gorm:"primaryKey;size:255" json:"key"`
	Value     []byte    `gorm:"not null" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName pins the table name used by every backend and migration
func (KVEntry) TableName() string {
	return "kv_entries"
}

// ItemRequest is the body for adding or editing an item.
// Fields are accepted as given; there is no validation.
type ItemRequest struct {
	Name     string   `json:"name"`
	Quantity Quantity `json:"quantity"`
	Unit     string   `json:"unit"`
}

// ListResponse wraps the current list
type ListResponse struct {
	Items []ShoppingItem `json:"items"`
}

// ItemResponse is returned after adding an item
type ItemResponse struct {
	Item  ShoppingItem   `json:"item"`
	Items []ShoppingItem `json:"items"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
