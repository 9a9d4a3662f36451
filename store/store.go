// Package store wraps the document store's per-collection primitives into
// the one interface the rest of the app consumes: realtime subscribe,
// single-document writes, and atomic multi-document batches.
package store

import (
	"context"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
)

// ErrPermissionDenied marks an authorization failure from the store.
// It is fatal for the session: retrying cannot succeed without external
// reconfiguration, so subscribers surface it as a blocking state.
var ErrPermissionDenied = errors.New("store: permission denied")

// ErrNotFound is returned by GetDocument when no document has the id.
var ErrNotFound = errors.New("store: document not found")

// StatusFor maps a store error to the HTTP status handlers respond with.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// SnapshotFunc receives the entire current document set of a collection,
// in arrival order. It is not an incremental diff feed.
type SnapshotFunc func(docs []bson.Raw)

// ErrorFunc receives transport or permission failures from a subscription.
type ErrorFunc func(err error)

// Adapter is the uniform collection API.
type Adapter interface {
	// Subscribe delivers one snapshot immediately, then again every time
	// any document in the collection changes. The returned func tears the
	// subscription down.
	Subscribe(collection string, onSnapshot SnapshotFunc, onError ErrorFunc) (func(), error)

	GetDocument(ctx context.Context, collection, id string, out any) error
	SetDocument(ctx context.Context, collection, id string, doc any) error
	UpdateDocument(ctx context.Context, collection, id string, fields bson.M) error
	DeleteDocument(ctx context.Context, collection, id string) error

	// Batch starts an atomic multi-document write set: all ops apply
	// together or not at all.
	Batch() Batch
}

// Batch accumulates writes across collections for one atomic commit.
type Batch interface {
	Set(collection, id string, doc any)
	Update(collection, id string, fields bson.M)
	Delete(collection, id string)
	Commit(ctx context.Context) error
}
