package persist

import (
	"encoding/json"
	"math"
	"testing"

	"shoppinglist/internal/models"
	"shoppinglist/internal/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecKey(t *testing.T) {
	assert.Equal(t, "persist:root", Codec{}.Key())
	assert.Equal(t, "persist:root", Codec{Namespace: DefaultNamespace}.Key())
	assert.Equal(t, "persist:groceries", Codec{Namespace: "groceries"}.Key())
}

func TestCodecRoundTrip(t *testing.T) {
	codec := Codec{}

	t.Run("non-empty state survives a round trip", func(t *testing.T) {
		purchased := testutil.CreateTestItem(2, "Bread", 1, "kg")
		purchased.Purchased = true
		state := testutil.CreateTestState(
			testutil.CreateTestItem(1, "Milk", 2, "L"),
			purchased,
			testutil.CreateTestItem(3, "Eggs", 0.5, "dozen"),
		)

		data, err := codec.Encode(state)
		require.NoError(t, err)

		decoded, err := codec.Decode(data)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(state, decoded))
	})

	t.Run("NaN quantity survives a round trip", func(t *testing.T) {
		state := testutil.CreateTestState(testutil.CreateTestItem(1, "Mystery", math.NaN(), ""))

		data, err := codec.Encode(state)
		require.NoError(t, err)

		decoded, err := codec.Decode(data)
		require.NoError(t, err)
		require.Len(t, decoded.List, 1)
		assert.True(t, decoded.List[0].Quantity.IsNaN())
		assert.Empty(t, cmp.Diff(state, decoded))
	})

	t.Run("empty state encodes an empty list", func(t *testing.T) {
		data, err := codec.Encode(models.ShoppingListState{})
		require.NoError(t, err)

		decoded, err := codec.Decode(data)
		require.NoError(t, err)
		assert.NotNil(t, decoded.List)
		assert.Empty(t, decoded.List)
	})
}

func TestCodecRecordLayout(t *testing.T) {
	data, err := Codec{}.Encode(testutil.CreateTestState(testutil.CreateTestItem(1, "Milk", 2, "L")))
	require.NoError(t, err)

	var record map[string]string
	require.NoError(t, json.Unmarshal(data, &record))

	assert.JSONEq(t, `{"version":-1,"rehydrated":true}`, record["_persist"])
	assert.JSONEq(t, `[{"id":1,"name":"Milk","quantity":2,"unit":"L","purchased":false}]`, record["list"])
}

func TestCodecDecode(t *testing.T) {
	codec := Codec{}

	t.Run("reads a record written by the mobile app", func(t *testing.T) {
		data := []byte(`{"list":"[{\"id\":1712345678901,\"name\":\"Milk\",\"quantity\":2,\"unit\":\"L\",\"purchased\":true},{\"id\":1712345679000,\"name\":\"Eggs\",\"quantity\":null,\"unit\":\"pcs\",\"purchased\":false}]","_persist":"{\"version\":-1,\"rehydrated\":true}"}`)

		state, err := codec.Decode(data)
		require.NoError(t, err)
		require.Len(t, state.List, 2)
		assert.Equal(t, int64(1712345678901), state.List[0].ID)
		assert.True(t, state.List[0].Purchased)
		assert.True(t, state.List[1].Quantity.IsNaN())
	})

	t.Run("accepts a plain list", func(t *testing.T) {
		state, err := codec.Decode([]byte(`{"list":[{"id":7,"name":"Tea","quantity":1,"unit":"box","purchased":false}]}`))
		require.NoError(t, err)
		assert.Equal(t, []int64{7}, testutil.ItemIDs(state.List))
	})

	t.Run("record without list is empty", func(t *testing.T) {
		state, err := codec.Decode([]byte(`{"_persist":"{}"}`))
		require.NoError(t, err)
		assert.Empty(t, state.List)
	})

	t.Run("null list is empty", func(t *testing.T) {
		state, err := codec.Decode([]byte(`{"list":"null"}`))
		require.NoError(t, err)
		assert.NotNil(t, state.List)
		assert.Empty(t, state.List)
	})

	t.Run("rejects malformed records", func(t *testing.T) {
		for _, input := range []string{`not json`, `{"list":"[{"}`, `{"list":42}`, `[]`} {
			state, err := codec.Decode([]byte(input))
			assert.Error(t, err, "input %s", input)
			assert.Empty(t, state.List)
		}
	})
}
