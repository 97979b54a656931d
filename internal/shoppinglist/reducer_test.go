package shoppinglist

import (
	"math"
	"testing"

	"shoppinglist/internal/models"
	"shoppinglist/internal/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func sampleState() models.ShoppingListState {
	return models.ShoppingListState{List: []models.ShoppingItem{
		testutil.CreateTestItem(1, "Milk", 2, "L"),
		testutil.CreateTestItem(2, "Bread", 1, "kg"),
		testutil.CreateTestItem(3, "Eggs", 12, "pcs"),
	}}
}

func TestReduceAddItem(t *testing.T) {
	t.Run("adds to empty state", func(t *testing.T) {
		next, changed := Reduce(models.ShoppingListState{}, AddItem{ID: 100, Name: "Milk", Quantity: 2, Unit: "L"})

		assert.True(t, changed)
		assert.Len(t, next.List, 1)
		assert.Equal(t, models.ShoppingItem{ID: 100, Name: "Milk", Quantity: 2, Unit: "L", Purchased: false}, next.List[0])
	})

	t.Run("appends at the end", func(t *testing.T) {
		next, _ := Reduce(sampleState(), AddItem{ID: 4, Name: "Butter", Quantity: 250, Unit: "g"})

		assert.Len(t, next.List, 4)
		assert.Equal(t, "Butter", next.List[3].Name)
		assert.Equal(t, "Milk", next.List[0].Name)
	})

	t.Run("accepts empty and non-numeric input", func(t *testing.T) {
		next, changed := Reduce(models.ShoppingListState{}, AddItem{ID: 5, Quantity: models.Quantity(math.NaN())})

		assert.True(t, changed)
		assert.Equal(t, "", next.List[0].Name)
		assert.True(t, next.List[0].Quantity.IsNaN())
	})

	t.Run("rejects an id already in the list", func(t *testing.T) {
		state := sampleState()
		next, changed := Reduce(state, AddItem{ID: 2, Name: "Second bread"})

		assert.False(t, changed)
		assert.Equal(t, []int64{1, 2, 3}, testutil.ItemIDs(next.List))
		assert.Equal(t, "Bread", next.List[1].Name)
	})

	t.Run("does not modify the input state", func(t *testing.T) {
		full := sampleState()
		state := models.ShoppingListState{List: full.List[:2:3]}
		_, _ = Reduce(state, AddItem{ID: 9, Name: "X"})

		assert.Equal(t, "Eggs", full.List[2].Name)
		assert.Len(t, state.List, 2)
	})
}

func TestReduceEditItem(t *testing.T) {
	t.Run("edit preserves identity and position", func(t *testing.T) {
		state := sampleState()
		state.List[1].Purchased = true

		next, changed := Reduce(state, EditItem{ID: 2, Name: "Rye Bread", Quantity: 0.5, Unit: "loaf"})

		assert.True(t, changed)
		assert.Equal(t, models.ShoppingItem{ID: 2, Name: "Rye Bread", Quantity: 0.5, Unit: "loaf", Purchased: true}, next.List[1])
		assert.Equal(t, state.List[0], next.List[0])
		assert.Equal(t, state.List[2], next.List[2])
		assert.Equal(t, "Bread", state.List[1].Name, "input state must not change")
	})
}

func TestReduceMarkPurchased(t *testing.T) {
	t.Run("toggles purchased on and off", func(t *testing.T) {
		state := sampleState()

		once, changed := Reduce(state, MarkPurchased{ID: 3})
		assert.True(t, changed)
		assert.True(t, once.List[2].Purchased)

		twice, _ := Reduce(once, MarkPurchased{ID: 3})
		assert.False(t, twice.List[2].Purchased)
		assert.Empty(t, cmp.Diff(state, twice))
	})
}

func TestReduceDeleteItem(t *testing.T) {
	t.Run("delete preserves order", func(t *testing.T) {
		next, changed := Reduce(sampleState(), DeleteItem{ID: 2})

		assert.True(t, changed)
		assert.Equal(t, []int64{1, 3}, testutil.ItemIDs(next.List))
	})

	t.Run("deletes first and last", func(t *testing.T) {
		next, _ := Reduce(sampleState(), DeleteItem{ID: 1})
		next, _ = Reduce(next, DeleteItem{ID: 3})

		assert.Equal(t, []int64{2}, testutil.ItemIDs(next.List))
	})

	t.Run("deleting the only item leaves an empty list", func(t *testing.T) {
		state := models.ShoppingListState{List: []models.ShoppingItem{testutil.CreateTestItem(1, "Milk", 1, "L")}}
		next, _ := Reduce(state, DeleteItem{ID: 1})

		assert.NotNil(t, next.List)
		assert.Empty(t, next.List)
		assert.Len(t, state.List, 1)
	})
}

func TestReduceMissingIDIsNoOp(t *testing.T) {
	actions := []Action{
		EditItem{ID: 999, Name: "Nope", Quantity: 1, Unit: "x"},
		MarkPurchased{ID: 999},
		DeleteItem{ID: 999},
	}

	for _, action := range actions {
		t.Run(TypeOf(action), func(t *testing.T) {
			state := sampleState()
			next, changed := Reduce(state, action)

			assert.False(t, changed)
			assert.Empty(t, cmp.Diff(sampleState(), next))
		})
	}

	t.Run("nil action", func(t *testing.T) {
		next, changed := Reduce(sampleState(), nil)
		assert.False(t, changed)
		assert.Empty(t, cmp.Diff(sampleState(), next))
	})
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, "shoppingList/addItem", TypeOf(AddItem{}))
	assert.Equal(t, "shoppingList/editItem", TypeOf(EditItem{}))
	assert.Equal(t, "shoppingList/markPurchased", TypeOf(MarkPurchased{}))
	assert.Equal(t, "shoppingList/deleteItem", TypeOf(DeleteItem{}))
	assert.Equal(t, "", TypeOf(nil))
}
