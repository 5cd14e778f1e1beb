package metrics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/frahmantamala/grievance-portal/internal/store"
)

// InstrumentedStore records the duration and outcome of every adapter call.
type InstrumentedStore struct {
	store.Adapter
	m *Manager
}

func InstrumentStore(a store.Adapter, m *Manager) *InstrumentedStore {
	return &InstrumentedStore{Adapter: a, m: m}
}

func (s *InstrumentedStore) Read(ctx context.Context, collection string) ([]json.RawMessage, error) {
	start := time.Now()
	records, err := s.Adapter.Read(ctx, collection)
	s.m.ObserveStoreOp("read", time.Since(start).Seconds(), err)
	return records, err
}

func (s *InstrumentedStore) WriteAll(ctx context.Context, collection string, records []json.RawMessage) error {
	start := time.Now()
	err := s.Adapter.WriteAll(ctx, collection, records)
	s.m.ObserveStoreOp(store.OpWriteAll, time.Since(start).Seconds(), err)
	return err
}

func (s *InstrumentedStore) Append(ctx context.Context, collection string, record json.RawMessage) (string, error) {
	start := time.Now()
	key, err := s.Adapter.Append(ctx, collection, record)
	s.m.ObserveStoreOp(store.OpAppend, time.Since(start).Seconds(), err)
	return key, err
}

func (s *InstrumentedStore) Unwrap() store.Adapter {
	return s.Adapter
}
