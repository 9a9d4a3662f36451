package store

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// Memory is an in-process adapter with the same snapshot and batch
// semantics as the Mongo one. It backs tests and Mongo-less dev runs.
type Memory struct {
	mu        sync.Mutex
	docs      map[string]map[string]bson.Raw
	order     map[string][]string
	subs      map[string][]*memSub
	commitErr error
}

type memSub struct {
	onSnapshot SnapshotFunc
	onError    ErrorFunc
	active     bool
}

func NewMemory() *Memory {
	return &Memory{
		docs:  make(map[string]map[string]bson.Raw),
		order: make(map[string][]string),
		subs:  make(map[string][]*memSub),
	}
}

func (m *Memory) snapshotLocked(collection string) []bson.Raw {
	ids := m.order[collection]
	docs := make([]bson.Raw, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, m.docs[collection][id])
	}
	return docs
}

// notify delivers the full current set to every subscriber, outside the
// lock so listeners may issue further writes.
func (m *Memory) notify(collection string) {
	m.mu.Lock()
	docs := m.snapshotLocked(collection)
	subs := make([]*memSub, 0, len(m.subs[collection]))
	for _, s := range m.subs[collection] {
		if s.active {
			subs = append(subs, s)
		}
	}
	m.mu.Unlock()

	for _, s := range subs {
		s.onSnapshot(docs)
	}
}

func (m *Memory) Subscribe(collection string, onSnapshot SnapshotFunc, onError ErrorFunc) (func(), error) {
	sub := &memSub{onSnapshot: onSnapshot, onError: onError, active: true}

	m.mu.Lock()
	m.subs[collection] = append(m.subs[collection], sub)
	docs := m.snapshotLocked(collection)
	m.mu.Unlock()

	onSnapshot(docs)

	return func() {
		m.mu.Lock()
		sub.active = false
		m.mu.Unlock()
	}, nil
}

func (m *Memory) GetDocument(ctx context.Context, collection, id string, out any) error {
	m.mu.Lock()
	raw, ok := m.docs[collection][id]
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	return bson.Unmarshal(raw, out)
}

func (m *Memory) setLocked(collection, id string, doc any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	if m.docs[collection] == nil {
		m.docs[collection] = make(map[string]bson.Raw)
	}
	if _, exists := m.docs[collection][id]; !exists {
		m.order[collection] = append(m.order[collection], id)
	}
	m.docs[collection][id] = raw
	return nil
}

// updateLocked applies a partial $set. A missing document is a no-op,
// matching UpdateOne's matched-zero behavior.
func (m *Memory) updateLocked(collection, id string, fields bson.M) error {
	raw, ok := m.docs[collection][id]
	if !ok {
		return nil
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return err
	}
	for k, v := range fields {
		doc[k] = v
	}
	merged, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	m.docs[collection][id] = merged
	return nil
}

func (m *Memory) deleteLocked(collection, id string) {
	if _, ok := m.docs[collection][id]; !ok {
		return
	}
	delete(m.docs[collection], id)
	ids := m.order[collection]
	for i, v := range ids {
		if v == id {
			m.order[collection] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

func (m *Memory) SetDocument(ctx context.Context, collection, id string, doc any) error {
	m.mu.Lock()
	err := m.setLocked(collection, id, doc)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.notify(collection)
	return nil
}

func (m *Memory) UpdateDocument(ctx context.Context, collection, id string, fields bson.M) error {
	m.mu.Lock()
	err := m.updateLocked(collection, id, fields)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.notify(collection)
	return nil
}

func (m *Memory) DeleteDocument(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	m.deleteLocked(collection, id)
	m.mu.Unlock()
	m.notify(collection)
	return nil
}

// --- Test hooks ---

// Broadcast re-delivers the current snapshot without any write, the way a
// live store re-fires listeners.
func (m *Memory) Broadcast(collection string) {
	m.notify(collection)
}

// EmitError pushes a subscription error to every subscriber.
func (m *Memory) EmitError(collection string, err error) {
	m.mu.Lock()
	subs := append([]*memSub(nil), m.subs[collection]...)
	m.mu.Unlock()
	for _, s := range subs {
		if s.active && s.onError != nil {
			s.onError(err)
		}
	}
}

// FailNextCommit makes the next batch commit fail with err, applying none
// of its ops.
func (m *Memory) FailNextCommit(err error) {
	m.mu.Lock()
	m.commitErr = err
	m.mu.Unlock()
}

// Len reports the number of documents in a collection.
func (m *Memory) Len(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs[collection])
}

// --- Batch ---

type memOp struct {
	kind       string // "set", "update", "delete"
	collection string
	id         string
	doc        any
	fields     bson.M
}

type memBatch struct {
	m   *Memory
	ops []memOp
}

func (m *Memory) Batch() Batch {
	return &memBatch{m: m}
}

func (b *memBatch) Set(collection, id string, doc any) {
	b.ops = append(b.ops, memOp{kind: "set", collection: collection, id: id, doc: doc})
}

func (b *memBatch) Update(collection, id string, fields bson.M) {
	b.ops = append(b.ops, memOp{kind: "update", collection: collection, id: id, fields: fields})
}

func (b *memBatch) Delete(collection, id string) {
	b.ops = append(b.ops, memOp{kind: "delete", collection: collection, id: id})
}

func (b *memBatch) Commit(ctx context.Context) error {
	m := b.m

	m.mu.Lock()
	if m.commitErr != nil {
		err := m.commitErr
		m.commitErr = nil
		m.mu.Unlock()
		return err
	}

	touched := make([]string, 0, 2)
	touch := func(c string) {
		for _, t := range touched {
			if t == c {
				return
			}
		}
		touched = append(touched, c)
	}

	for _, op := range b.ops {
		var err error
		switch op.kind {
		case "set":
			err = m.setLocked(op.collection, op.id, op.doc)
		case "update":
			err = m.updateLocked(op.collection, op.id, op.fields)
		case "delete":
			m.deleteLocked(op.collection, op.id)
		}
		if err != nil {
			m.mu.Unlock()
			return err
		}
		touch(op.collection)
	}
	m.mu.Unlock()

	for _, c := range touched {
		m.notify(c)
	}
	return nil
}
