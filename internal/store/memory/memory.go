// Package memory is an in-process Adapter that never persists. Service tests
// use it in place of a real backend.
package memory

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/frahmantamala/grievance-portal/internal/store"
)

type Store struct {
	mu          sync.Mutex
	collections map[string][]json.RawMessage
	seq         int64

	// FailWith, when set, is returned by every operation.
	FailWith error
}

func NewStore() *Store {
	return &Store{collections: make(map[string][]json.RawMessage)}
}

func (s *Store) Read(_ context.Context, collection string) ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return nil, store.ReadError(collection, s.FailWith)
	}
	out := make([]json.RawMessage, len(s.collections[collection]))
	copy(out, s.collections[collection])
	return out, nil
}

func (s *Store) WriteAll(_ context.Context, collection string, records []json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return store.WriteError(collection, s.FailWith)
	}
	s.collections[collection] = append([]json.RawMessage(nil), records...)
	return nil
}

func (s *Store) Append(_ context.Context, collection string, record json.RawMessage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return "", store.WriteError(collection, s.FailWith)
	}
	s.seq++
	s.collections[collection] = append(s.collections[collection], record)
	return strconv.FormatInt(s.seq, 10), nil
}

func (s *Store) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.FailWith
}

func (s *Store) Close() error {
	return nil
}
