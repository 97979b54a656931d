// Package shoppinglist owns the shopping list state and the four transitions
// that change it: add, edit, toggle purchased and delete.
package shoppinglist

import (
	"shoppinglist/internal/models"
)

// Action is a state transition request
type Action interface {
	actionType() string
}

// AddItem appends a new item. ID is assigned when the action is built
// (see Store.AddItem) so that Reduce stays deterministic.
type AddItem struct {
	ID       int64
	Name     string
	Quantity models.Quantity
	Unit     string
}

// EditItem replaces name, quantity and unit of an existing item
type EditItem struct {
	ID       int64
	Name     string
	Quantity models.Quantity
	Unit     string
}

// MarkPurchased flips the purchased flag of an item
type MarkPurchased struct {
	ID int64
}

// DeleteItem removes an item
type DeleteItem struct {
	ID int64
}

func (AddItem) actionType() string       { return "shoppingList/addItem" }
func (EditItem) actionType() string      { return "shoppingList/editItem" }
func (MarkPurchased) actionType() string { return "shoppingList/markPurchased" }
func (DeleteItem) actionType() string    { return "shoppingList/deleteItem" }

// TypeOf returns the name of an action, used in log fields
func TypeOf(action Action) string {
	if action == nil {
		return ""
	}
	return action.actionType()
}

// Reduce applies action to state and returns the next state. changed is false
// when the action referenced an unknown id, or an add reused an id already in
// the list; the input state is then returned as-is. The input state is never
// modified.
func Reduce(state models.ShoppingListState, action Action) (next models.ShoppingListState, changed bool) {
	switch a := action.(type) {
	case AddItem:
		if state.IndexOf(a.ID) >= 0 {
			return state, false
		}
		next = state.Clone()
		next.List = append(next.List, models.ShoppingItem{
			ID:        a.ID,
			Name:      a.Name,
			Quantity:  a.Quantity,
			Unit:      a.Unit,
			Purchased: false,
		})
		return next, true

	case EditItem:
		idx := state.IndexOf(a.ID)
		if idx < 0 {
			return state, false
		}
		next = state.Clone()
		next.List[idx].Name = a.Name
		next.List[idx].Quantity = a.Quantity
		next.List[idx].Unit = a.Unit
		return next, true

	case MarkPurchased:
		idx := state.IndexOf(a.ID)
		if idx < 0 {
			return state, false
		}
		next = state.Clone()
		next.List[idx].Purchased = !next.List[idx].Purchased
		return next, true

	case DeleteItem:
		idx := state.IndexOf(a.ID)
		if idx < 0 {
			return state, false
		}
		next.List = make([]models.ShoppingItem, 0, len(state.List)-1)
		next.List = append(next.List, state.List[:idx]...)
		next.List = append(next.List, state.List[idx+1:]...)
		return next, true
	}

	return state, false
}
