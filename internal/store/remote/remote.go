// Package remote is the realtime backend. Each collection is a Redis list of
// JSON documents and every write is announced on a pub/sub channel.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/frahmantamala/grievance-portal/internal/store"
	"github.com/go-redis/redis/v8"
)

type Store struct {
	client    *redis.Client
	keyPrefix string
	channel   string
	logger    *slog.Logger
}

func NewStore(client *redis.Client, keyPrefix, channel string, logger *slog.Logger) *Store {
	return &Store{
		client:    client,
		keyPrefix: keyPrefix,
		channel:   channel,
		logger:    logger,
	}
}

func (s *Store) key(collection string) string {
	if s.keyPrefix == "" {
		return collection
	}
	return s.keyPrefix + ":" + collection
}

func (s *Store) Read(ctx context.Context, collection string) ([]json.RawMessage, error) {
	values, err := s.client.LRange(ctx, s.key(collection), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Error("remote store read failed", "collection", collection, "error", err)
		return nil, store.ReadError(collection, err)
	}

	records := make([]json.RawMessage, 0, len(values))
	for _, v := range values {
		records = append(records, json.RawMessage(v))
	}
	return records, nil
}

func (s *Store) WriteAll(ctx context.Context, collection string, records []json.RawMessage) error {
	key := s.key(collection)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(records) > 0 {
			values := make([]interface{}, 0, len(records))
			for _, r := range records {
				values = append(values, string(r))
			}
			pipe.RPush(ctx, key, values...)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("remote store write failed", "collection", collection, "count", len(records), "error", err)
		return store.WriteError(collection, err)
	}

	s.notify(ctx, collection, store.OpWriteAll)
	return nil
}

// Append returns the list index of the new record as its key.
func (s *Store) Append(ctx context.Context, collection string, record json.RawMessage) (string, error) {
	length, err := s.client.RPush(ctx, s.key(collection), string(record)).Result()
	if err != nil {
		s.logger.Error("remote store append failed", "collection", collection, "error", err)
		return "", store.WriteError(collection, err)
	}

	s.notify(ctx, collection, store.OpAppend)
	return strconv.FormatInt(length-1, 10), nil
}

// notify is best effort. The write already happened, so a failed publish is
// only logged.
func (s *Store) notify(ctx context.Context, collection, op string) {
	payload, err := json.Marshal(store.Change{Collection: collection, Op: op})
	if err != nil {
		s.logger.Error("encode change notification", "error", err)
		return
	}
	if err := s.client.Publish(ctx, s.channel, string(payload)).Err(); err != nil {
		s.logger.Warn("publish change notification failed", "collection", collection, "op", op, "error", err)
	}
}

// Watch subscribes to the change channel and calls fn for each notification
// until ctx is cancelled.
func (s *Store) Watch(ctx context.Context, fn func(store.Change)) error {
	sub := s.client.Subscribe(ctx, s.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}

	return s.consume(ctx, sub.Channel(), fn)
}

// consume decodes notifications from ch until ctx is done or ch is closed.
// Malformed payloads are logged and skipped.
func (s *Store) consume(ctx context.Context, ch <-chan *redis.Message, fn func(store.Change)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var change store.Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				s.logger.Warn("dropping malformed change notification", "payload", msg.Payload, "error", err)
				continue
			}
			fn(change)
		}
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
