// Package store defines the persistence contract shared by every backend.
//
// A collection is an ordered sequence of JSON records addressed by name.
// Backends never interpret the records; the grievance and admin packages own
// their shapes.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/frahmantamala/grievance-portal/internal"
)

const (
	CollectionAdmins     = "admins"
	CollectionGrievances = "problems"
)

// Adapter is implemented by the local and remote backends.
type Adapter interface {
	// Read returns the records of a collection in insertion order. A missing
	// collection yields an empty slice and no error.
	Read(ctx context.Context, collection string) ([]json.RawMessage, error)
	// WriteAll replaces the whole collection.
	WriteAll(ctx context.Context, collection string, records []json.RawMessage) error
	// Append adds one record and returns the backend generated key.
	Append(ctx context.Context, collection string, record json.RawMessage) (string, error)
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

const (
	OpAppend   = "append"
	OpWriteAll = "write_all"
)

// Change describes a write observed on a backend.
type Change struct {
	Collection string `json:"collection"`
	Op         string `json:"op"`
}

// Watcher is implemented by backends that emit change notifications.
type Watcher interface {
	// Watch calls fn for every change until ctx is done.
	Watch(ctx context.Context, fn func(Change)) error
}

// ReadError wraps a backend failure while reading a collection.
func ReadError(collection string, err error) error {
	return internal.NewStoreError(fmt.Sprintf("failed to read collection %q", collection), internal.ErrCodeStoreRead, err)
}

// WriteError wraps a backend failure while writing a collection.
func WriteError(collection string, err error) error {
	return internal.NewStoreError(fmt.Sprintf("failed to write collection %q", collection), internal.ErrCodeStoreWrite, err)
}

// Timed wraps an Adapter so every call runs under its own deadline.
type Timed struct {
	Adapter
	timeout time.Duration
}

func WithOpTimeout(a Adapter, timeout time.Duration) *Timed {
	return &Timed{Adapter: a, timeout: timeout}
}

func (t *Timed) Read(ctx context.Context, collection string) ([]json.RawMessage, error) {
	ctx, cancel := internal.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Adapter.Read(ctx, collection)
}

func (t *Timed) WriteAll(ctx context.Context, collection string, records []json.RawMessage) error {
	ctx, cancel := internal.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Adapter.WriteAll(ctx, collection, records)
}

func (t *Timed) Append(ctx context.Context, collection string, record json.RawMessage) (string, error) {
	ctx, cancel := internal.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Adapter.Append(ctx, collection, record)
}

func (t *Timed) Unwrap() Adapter {
	return t.Adapter
}

// WatcherOf returns the change notifier behind a, if the backend has one.
func WatcherOf(a Adapter) (Watcher, bool) {
	for {
		if w, ok := a.(Watcher); ok {
			return w, true
		}
		u, ok := a.(interface{ Unwrap() Adapter })
		if !ok {
			return nil, false
		}
		a = u.Unwrap()
	}
}

// DecodeAll unmarshals every record into T.
func DecodeAll[T any](records []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(records))
	for i, raw := range records {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode record %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// EncodeAll marshals every value into a raw record.
func EncodeAll[T any](values []T) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(values))
	for i := range values {
		raw, err := json.Marshal(values[i])
		if err != nil {
			return nil, fmt.Errorf("encode record %d: %w", i, err)
		}
		out = append(out, raw)
	}
	return out, nil
}
