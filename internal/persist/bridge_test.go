package persist

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"shoppinglist/internal/models"
	"shoppinglist/internal/shoppinglist"
	"shoppinglist/internal/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// gatedKV blocks the first SetItem until the gate is closed
type gatedKV struct {
	*MemoryKV
	gate    chan struct{}
	started chan struct{}
	once    sync.Once
	sets    atomic.Int32
}

func newGatedKV() *gatedKV {
	return &gatedKV{
		MemoryKV: NewMemoryKV(),
		gate:     make(chan struct{}),
		started:  make(chan struct{}),
	}
}

func (g *gatedKV) SetItem(ctx context.Context, key string, value []byte) error {
	g.sets.Add(1)
	g.once.Do(func() { close(g.started) })
	<-g.gate
	return g.MemoryKV.SetItem(ctx, key, value)
}

// failingKV fails every read and write
type failingKV struct {
	err  error
	sets atomic.Int32
}

func (f *failingKV) GetItem(context.Context, string) ([]byte, error) { return nil, f.err }
func (f *failingKV) SetItem(context.Context, string, []byte) error {
	f.sets.Add(1)
	return f.err
}
func (f *failingKV) RemoveItem(context.Context, string) error { return f.err }
func (f *failingKV) Close() error                             { return nil }

func storedState(t *testing.T, kv KVStore, key string) models.ShoppingListState {
	data, err := kv.GetItem(context.Background(), key)
	require.NoError(t, err)
	state, err := Codec{}.Decode(data)
	require.NoError(t, err)
	return state
}

func TestBridgeHydrate(t *testing.T) {
	ctx := context.Background()

	t.Run("missing record yields empty state", func(t *testing.T) {
		bridge := NewBridge(NewMemoryKV())
		defer bridge.Close()

		state := bridge.Hydrate(ctx)
		assert.NotNil(t, state.List)
		assert.Empty(t, state.List)
	})

	t.Run("restores a stored record", func(t *testing.T) {
		kv := NewMemoryKV()
		want := testutil.CreateTestState(
			testutil.CreateTestItem(1, "Milk", 2, "L"),
			testutil.CreateTestItem(2, "Bread", 1, "kg"),
		)
		data, err := Codec{}.Encode(want)
		require.NoError(t, err)
		require.NoError(t, kv.SetItem(ctx, "persist:root", data))

		bridge := NewBridge(kv)
		defer bridge.Close()

		assert.Empty(t, cmp.Diff(want, bridge.Hydrate(ctx)))
	})

	t.Run("unreadable record yields empty state", func(t *testing.T) {
		kv := NewMemoryKV()
		require.NoError(t, kv.SetItem(ctx, "persist:root", []byte("garbage")))

		bridge := NewBridge(kv)
		defer bridge.Close()

		assert.Empty(t, bridge.Hydrate(ctx).List)
	})

	t.Run("read failure yields empty state", func(t *testing.T) {
		bridge := NewBridge(&failingKV{err: errors.New("disk on fire")})
		defer bridge.Close()

		assert.Empty(t, bridge.Hydrate(ctx).List)
	})

	t.Run("duplicate ids are dropped", func(t *testing.T) {
		kv := NewMemoryKV()
		data, err := Codec{}.Encode(testutil.CreateTestState(
			testutil.CreateTestItem(1, "Milk", 2, "L"),
			testutil.CreateTestItem(1, "Milk again", 3, "L"),
			testutil.CreateTestItem(2, "Bread", 1, "kg"),
		))
		require.NoError(t, err)
		require.NoError(t, kv.SetItem(ctx, "persist:root", data))

		bridge := NewBridge(kv)
		defer bridge.Close()

		state := bridge.Hydrate(ctx)
		assert.Equal(t, []int64{1, 2}, testutil.ItemIDs(state.List))
		assert.Equal(t, "Milk", state.List[0].Name)
	})

	t.Run("namespace selects the record", func(t *testing.T) {
		kv := NewMemoryKV()
		data, err := Codec{}.Encode(testutil.CreateTestState(testutil.CreateTestItem(9, "Tea", 1, "box")))
		require.NoError(t, err)
		require.NoError(t, kv.SetItem(ctx, "persist:other", data))

		bridge := NewBridge(kv, WithNamespace("other"))
		defer bridge.Close()

		assert.Equal(t, "persist:other", bridge.Key())
		assert.Equal(t, []int64{9}, testutil.ItemIDs(bridge.Hydrate(ctx).List))
	})
}

func TestBridgePersist(t *testing.T) {
	ctx := context.Background()

	t.Run("writes the full state under the key", func(t *testing.T) {
		kv := NewMemoryKV()
		bridge := NewBridge(kv)
		defer bridge.Close()

		state := testutil.CreateTestState(testutil.CreateTestItem(1, "Milk", 2, "L"))
		bridge.Persist(state)
		require.NoError(t, bridge.Flush(ctx))

		assert.Empty(t, cmp.Diff(state, storedState(t, kv, "persist:root")))
	})

	t.Run("does not block while a write is in flight", func(t *testing.T) {
		kv := newGatedKV()
		bridge := NewBridge(kv)

		bridge.Persist(testutil.CreateTestState(testutil.CreateTestItem(1, "A", 1, "")))
		<-kv.started

		returned := make(chan struct{})
		go func() {
			bridge.Persist(testutil.CreateTestState(testutil.CreateTestItem(2, "B", 1, "")))
			bridge.Persist(testutil.CreateTestState(testutil.CreateTestItem(3, "C", 1, "")))
			close(returned)
		}()

		select {
		case <-returned:
		case <-time.After(time.Second):
			t.Fatal("Persist blocked on a slow write")
		}

		close(kv.gate)
		require.NoError(t, bridge.Flush(ctx))
		require.NoError(t, bridge.Close())

		// The second and third snapshots collapse into one write
		assert.Equal(t, int32(2), kv.sets.Load())
		assert.Equal(t, []int64{3}, testutil.ItemIDs(storedState(t, kv, "persist:root").List))
	})

	t.Run("write failures are not surfaced by Persist", func(t *testing.T) {
		kv := &failingKV{err: errors.New("read-only file system")}
		bridge := NewBridge(kv)

		bridge.Persist(testutil.CreateTestState(testutil.CreateTestItem(1, "Milk", 1, "L")))

		err := bridge.Flush(ctx)
		assert.EqualError(t, err, "read-only file system")
		assert.Equal(t, int32(1), kv.sets.Load())
		assert.Error(t, bridge.Close())
	})

	t.Run("persist after close is dropped", func(t *testing.T) {
		kv := NewMemoryKV()
		bridge := NewBridge(kv)
		require.NoError(t, bridge.Close())

		bridge.Persist(testutil.CreateTestState(testutil.CreateTestItem(1, "Milk", 1, "L")))

		_, err := kv.GetItem(ctx, "persist:root")
		assert.ErrorIs(t, err, ErrKeyNotFound)
		assert.NoError(t, bridge.Flush(ctx))
	})
}

func TestBridgeFlush(t *testing.T) {
	t.Run("returns immediately with nothing pending", func(t *testing.T) {
		bridge := NewBridge(NewMemoryKV())
		defer bridge.Close()

		assert.NoError(t, bridge.Flush(context.Background()))
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		kv := newGatedKV()
		bridge := NewBridge(kv)

		bridge.Persist(testutil.CreateTestState())
		<-kv.started

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, bridge.Flush(ctx), context.DeadlineExceeded)

		close(kv.gate)
		require.NoError(t, bridge.Close())
	})
}

func TestBridgeClose(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	kv := NewMemoryKV()
	bridge := NewBridge(kv)
	bridge.Persist(testutil.CreateTestState(testutil.CreateTestItem(1, "Milk", 1, "L")))

	require.NoError(t, bridge.Close())
	require.NoError(t, bridge.Close(), "second close is a no-op")

	assert.Equal(t, []int64{1}, testutil.ItemIDs(storedState(t, kv, "persist:root").List),
		"close writes the pending snapshot")
}

func TestBridgePurge(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	bridge := NewBridge(kv)
	defer bridge.Close()

	bridge.Persist(testutil.CreateTestState(testutil.CreateTestItem(1, "Milk", 1, "L")))
	require.NoError(t, bridge.Purge(ctx))

	_, err := kv.GetItem(ctx, "persist:root")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.Empty(t, bridge.Hydrate(ctx).List)
}

func TestBridgeWithStore(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx := context.Background()

	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	kv := NewGormKV(db)

	// First session
	bridge := NewBridge(kv)
	store := shoppinglist.NewStore(bridge.Hydrate(ctx), shoppinglist.WithPersister(bridge))

	state := store.AddItem("Milk", 2, "L")
	milk := state.List[0].ID
	state = store.AddItem("Bread", 1, "kg")
	bread := state.List[1].ID
	store.AddItem("Eggs", 12, "pcs")
	store.MarkPurchased(milk)
	store.DeleteItem(bread)
	want := store.State()
	require.NoError(t, bridge.Close())

	// Second session restores what the first left behind
	bridge = NewBridge(kv)
	defer bridge.Close()
	restored := shoppinglist.NewStore(bridge.Hydrate(ctx), shoppinglist.WithPersister(bridge))

	assert.Empty(t, cmp.Diff(want, restored.State()))
	next := restored.AddItem("Butter", 250, "g")
	assert.Greater(t, next.List[len(next.List)-1].ID, want.MaxID())
}
