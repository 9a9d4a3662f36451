// Package mirror keeps an in-memory copy of each remote collection current
// through a standing store subscription. Snapshots replace the whole
// mapping wholesale; the store already delivers the full picture.
package mirror

import (
	"log"
	"sync"

	"tabiji/store"

	"go.mongodb.org/mongo-driver/bson"
)

// Entity is any record with a stable string id.
type Entity interface {
	ID() string
}

// Mirror is one live collection view. Construct with New, register
// listeners, then Start. Close tears the subscription down.
type Mirror[T Entity] struct {
	collection string
	store      store.Adapter

	mu    sync.RWMutex
	order []string
	items map[string]T

	listeners []func([]T)
	errFns    []func(error)

	unsubscribe func()
}

func New[T Entity](st store.Adapter, collection string) *Mirror[T] {
	return &Mirror[T]{
		collection: collection,
		store:      st,
		items:      make(map[string]T),
	}
}

// OnChange registers a listener invoked with the full snapshot after every
// delivery. Register before Start so the first snapshot is observed.
func (m *Mirror[T]) OnChange(fn func([]T)) {
	m.listeners = append(m.listeners, fn)
}

// OnError registers a listener for subscription failures. Errors never
// clear mirror contents: stale-but-available beats empty.
func (m *Mirror[T]) OnError(fn func(error)) {
	m.errFns = append(m.errFns, fn)
}

// Start opens the subscription. The initial snapshot is delivered before
// Start returns when the adapter has one available.
func (m *Mirror[T]) Start() error {
	unsub, err := m.store.Subscribe(m.collection, m.apply, m.fail)
	if err != nil {
		return err
	}
	m.unsubscribe = unsub
	return nil
}

// Close unsubscribes. Mandatory on teardown to avoid leaking listeners.
func (m *Mirror[T]) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// apply replaces the mapping wholesale with the delivered set.
func (m *Mirror[T]) apply(docs []bson.Raw) {
	order := make([]string, 0, len(docs))
	items := make(map[string]T, len(docs))
	for _, raw := range docs {
		var item T
		if err := bson.Unmarshal(raw, &item); err != nil {
			log.Printf("mirror %s: skipping undecodable document: %v", m.collection, err)
			continue
		}
		order = append(order, item.ID())
		items[item.ID()] = item
	}

	m.mu.Lock()
	m.order = order
	m.items = items
	m.mu.Unlock()

	snapshot := m.Current()
	for _, fn := range m.listeners {
		fn(snapshot)
	}
}

func (m *Mirror[T]) fail(err error) {
	log.Printf("mirror %s: subscription error: %v", m.collection, err)
	for _, fn := range m.errFns {
		fn(err)
	}
}

// Current returns the snapshot in arrival order.
func (m *Mirror[T]) Current() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.items[id])
	}
	return out
}

// Get looks one entity up by id.
func (m *Mirror[T]) Get(id string) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[id]
	return item, ok
}

// Collection names the underlying collection.
func (m *Mirror[T]) Collection() string {
	return m.collection
}
