package persist

import (
	"context"
	"errors"
	"sync"
	"time"

	"shoppinglist/internal/logging"
	"shoppinglist/internal/models"

	"github.com/sirupsen/logrus"
)

// DefaultWriteTimeout bounds a single background write
const DefaultWriteTimeout = 5 * time.Second

// BridgeOption configures a Bridge
type BridgeOption func(*Bridge)

// WithNamespace stores the record under "persist:<namespace>"
func WithNamespace(namespace string) BridgeOption {
	return func(b *Bridge) {
		b.codec.Namespace = namespace
	}
}

// WithWriteTimeout bounds each background write
func WithWriteTimeout(d time.Duration) BridgeOption {
	return func(b *Bridge) {
		if d > 0 {
			b.writeTimeout = d
		}
	}
}

type flushWaiter struct {
	seq  uint64
	done chan error
}

// Bridge keeps a durable copy of the shopping list. Persist hands a snapshot
// to a background writer and returns immediately; write failures are logged
// and never reach the caller. If several snapshots arrive while a write is in
// flight only the newest is written.
type Bridge struct {
	kv           KVStore
	codec        Codec
	writeTimeout time.Duration

	mu      sync.Mutex
	pending *models.ShoppingListState
	seq     uint64 // snapshots accepted
	written uint64 // seq of the last snapshot whose write finished
	lastErr error
	waiters []flushWaiter
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// NewBridge starts the background writer for kv
func NewBridge(kv KVStore, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		kv:           kv,
		codec:        Codec{Namespace: DefaultNamespace},
		writeTimeout: DefaultWriteTimeout,
		wake:         make(chan struct{}, 1),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	go b.run()
	return b
}

// Key returns the storage key of the record
func (b *Bridge) Key() string {
	return b.codec.Key()
}

// Hydrate reads the stored record. A missing or unreadable record yields the
// empty state; the error is logged, not returned.
func (b *Bridge) Hydrate(ctx context.Context) models.ShoppingListState {
	empty := models.ShoppingListState{List: []models.ShoppingItem{}}
	logEntry := logging.Component("persist").WithField("key", b.Key())

	data, err := b.kv.GetItem(ctx, b.Key())
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			logEntry.Info("No persisted shopping list, starting empty")
		} else {
			logEntry.WithError(err).Warn("Failed to read persisted shopping list, starting empty")
		}
		return empty
	}

	state, err := b.codec.Decode(data)
	if err != nil {
		logEntry.WithError(err).Warn("Persisted shopping list is unreadable, starting empty")
		return empty
	}

	state = dropDuplicateIDs(state, logEntry)
	logEntry.WithField("items", len(state.List)).Info("Shopping list restored")
	return state
}

// Persist queues state for writing and returns without waiting
func (b *Bridge) Persist(state models.ShoppingListState) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		logging.Component("persist").WithField("key", b.Key()).Warn("Persist called after close, state not written")
		return
	}
	snapshot := state.Clone()
	b.seq++
	b.pending = &snapshot
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Flush waits until every snapshot queued before the call is written and
// returns the result of the last write
func (b *Bridge) Flush(ctx context.Context) error {
	b.mu.Lock()
	if b.written >= b.seq {
		err := b.lastErr
		b.mu.Unlock()
		return err
	}
	w := flushWaiter{seq: b.seq, done: make(chan error, 1)}
	b.waiters = append(b.waiters, w)
	b.mu.Unlock()

	select {
	case err := <-w.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Purge waits for pending writes and then removes the stored record
func (b *Bridge) Purge(ctx context.Context) error {
	if err := b.Flush(ctx); err != nil {
		logging.Component("persist").WithError(err).Debug("Pending write failed before purge")
	}
	if err := b.kv.RemoveItem(ctx, b.Key()); err != nil {
		return err
	}
	logging.Component("persist").WithField("key", b.Key()).Info("Persisted shopping list purged")
	return nil
}

// Close writes the last pending snapshot and stops the writer. It does not
// close the underlying KVStore.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	close(b.stop)
	<-b.done

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

func (b *Bridge) run() {
	defer close(b.done)
	for {
		select {
		case <-b.wake:
			b.drain()
		case <-b.stop:
			b.drain()
			return
		}
	}
}

// drain writes until no snapshot is pending
func (b *Bridge) drain() {
	for {
		b.mu.Lock()
		if b.pending == nil {
			b.mu.Unlock()
			return
		}
		state := *b.pending
		seq := b.seq
		b.pending = nil
		b.mu.Unlock()

		err := b.write(state)

		b.mu.Lock()
		b.written = seq
		b.lastErr = err
		remaining := b.waiters[:0]
		for _, w := range b.waiters {
			if w.seq <= seq {
				w.done <- err
			} else {
				remaining = append(remaining, w)
			}
		}
		b.waiters = remaining
		b.mu.Unlock()
	}
}

func (b *Bridge) write(state models.ShoppingListState) error {
	logEntry := logging.Component("persist").WithFields(logrus.Fields{
		"key":   b.Key(),
		"items": len(state.List),
	})

	data, err := b.codec.Encode(state)
	if err != nil {
		logEntry.WithError(err).Error("Failed to encode shopping list")
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.writeTimeout)
	defer cancel()

	if err := b.kv.SetItem(ctx, b.Key(), data); err != nil {
		logEntry.WithError(err).Error("Failed to persist shopping list")
		return err
	}

	logEntry.WithField("bytes", len(data)).Debug("Shopping list persisted")
	return nil
}

// dropDuplicateIDs keeps the first item for each id
func dropDuplicateIDs(state models.ShoppingListState, logEntry *logrus.Entry) models.ShoppingListState {
	seen := make(map[int64]struct{}, len(state.List))
	list := make([]models.ShoppingItem, 0, len(state.List))
	for _, item := range state.List {
		if _, dup := seen[item.ID]; dup {
			logEntry.WithField("id", item.ID).Warn("Dropping persisted item with duplicate id")
			continue
		}
		seen[item.ID] = struct{}{}
		list = append(list, item)
	}
	return models.ShoppingListState{List: list}
}
