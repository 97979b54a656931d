package shoppinglist

import (
	"sync"

	"shoppinglist/internal/logging"
	"shoppinglist/internal/models"

	"github.com/sirupsen/logrus"
)

// Persister receives every accepted state. Persist must not block on I/O.
type Persister interface {
	Persist(state models.ShoppingListState)
}

// Listener is called after each accepted transition
type Listener func(state models.ShoppingListState, action Action)

// Option configures a Store
type Option func(*Store)

// WithPersister mirrors accepted states to p
func WithPersister(p Persister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

// WithIDGenerator overrides the id generator
func WithIDGenerator(g *IDGenerator) Option {
	return func(s *Store) {
		s.ids = g
	}
}

// Store holds the authoritative shopping list. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	state     models.ShoppingListState
	ids       *IDGenerator
	persister Persister

	listenerMu sync.Mutex
	listeners  map[int]Listener
	nextSubID  int
}

// NewStore creates a store holding initial, typically the hydrated state
func NewStore(initial models.ShoppingListState, opts ...Option) *Store {
	s := &Store{
		state:     initial.Clone(),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ids == nil {
		s.ids = NewIDGenerator(0)
	}
	s.ids.Observe(s.state.MaxID())
	return s
}

// State returns a copy of the current state
func (s *Store) State() models.ShoppingListState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Items returns a copy of the current items
func (s *Store) Items() []models.ShoppingItem {
	return s.State().List
}

// Item looks up an item by id
func (s *Store) Item(id int64) (models.ShoppingItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.state.IndexOf(id)
	if idx < 0 {
		return models.ShoppingItem{}, false
	}
	return s.state.List[idx], true
}

// AddItem appends a new unpurchased item with a fresh id
func (s *Store) AddItem(name string, quantity models.Quantity, unit string) models.ShoppingListState {
	next, _ := s.Dispatch(AddItem{
		ID:       s.ids.Next(),
		Name:     name,
		Quantity: quantity,
		Unit:     unit,
	})
	return next
}

// EditItem updates name, quantity and unit of the item with id.
// Unknown ids leave the state unchanged.
func (s *Store) EditItem(id int64, name string, quantity models.Quantity, unit string) models.ShoppingListState {
	next, _ := s.Dispatch(EditItem{ID: id, Name: name, Quantity: quantity, Unit: unit})
	return next
}

// MarkPurchased toggles the purchased flag of the item with id
func (s *Store) MarkPurchased(id int64) models.ShoppingListState {
	next, _ := s.Dispatch(MarkPurchased{ID: id})
	return next
}

// DeleteItem removes the item with id
func (s *Store) DeleteItem(id int64) models.ShoppingListState {
	next, _ := s.Dispatch(DeleteItem{ID: id})
	return next
}

// Dispatch applies action and returns the resulting state. When the action
// changes the state it is handed to the persister and to every listener.
func (s *Store) Dispatch(action Action) (models.ShoppingListState, bool) {
	s.mu.Lock()
	// Ids must stay unique, so an add without one or with a taken one gets a fresh id
	if add, ok := action.(AddItem); ok && (add.ID == 0 || s.state.IndexOf(add.ID) >= 0) {
		add.ID = s.ids.Next()
		action = add
	}
	next, changed := Reduce(s.state, action)
	if !changed {
		snapshot := s.state.Clone()
		s.mu.Unlock()
		logging.Component("store").WithField("action", TypeOf(action)).Debug("Action ignored, no matching item")
		return snapshot, false
	}
	s.state = next
	if add, ok := action.(AddItem); ok {
		s.ids.Observe(add.ID)
	}
	// Persisting under the lock keeps snapshots in transition order
	if s.persister != nil {
		s.persister.Persist(next.Clone())
	}
	snapshot := next.Clone()
	s.mu.Unlock()

	logging.Component("store").WithFields(logrus.Fields{
		"action": TypeOf(action),
		"items":  len(snapshot.List),
	}).Debug("State updated")

	s.notify(snapshot, action)
	return snapshot, true
}

// Subscribe registers fn for state changes and returns a function that
// removes it
func (s *Store) Subscribe(fn Listener) func() {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.listeners[id] = fn

	return func() {
		s.listenerMu.Lock()
		defer s.listenerMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(state models.ShoppingListState, action Action) {
	s.listenerMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.listenerMu.Unlock()

	for _, fn := range listeners {
		fn(state.Clone(), action)
	}
}
