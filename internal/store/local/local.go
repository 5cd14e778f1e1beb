// Package local is the synchronous key-value backend. Every collection is a
// set of rows in a single table, ordered by their auto-increment id.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/frahmantamala/grievance-portal/internal/core/datamodel/record"
	"github.com/frahmantamala/grievance-portal/internal/store"
	"gorm.io/gorm"
)

type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewStore(db *gorm.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// AutoMigrate creates the records table. The migrate command does the same
// through goose for postgres.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&record.StoreRecord{})
}

func (s *Store) Read(ctx context.Context, collection string) ([]json.RawMessage, error) {
	var rows []record.StoreRecord
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		s.logger.Error("local store read failed", "collection", collection, "error", err)
		return nil, store.ReadError(collection, err)
	}

	records := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		records = append(records, json.RawMessage(row.Payload))
	}
	return records, nil
}

// writeBatchSize keeps each INSERT below sqlite's bound variable limit.
const writeBatchSize = 500

func (s *Store) WriteAll(ctx context.Context, collection string, records []json.RawMessage) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection = ?", collection).Delete(&record.StoreRecord{}).Error; err != nil {
			return fmt.Errorf("delete: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		rows := make([]record.StoreRecord, 0, len(records))
		for _, r := range records {
			rows = append(rows, record.StoreRecord{Collection: collection, Payload: string(r)})
		}
		if err := tx.CreateInBatches(rows, writeBatchSize).Error; err != nil {
			return fmt.Errorf("insert: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("local store write failed", "collection", collection, "count", len(records), "error", err)
		return store.WriteError(collection, err)
	}

	s.logger.Debug("local store collection replaced", "collection", collection, "count", len(records))
	return nil
}

func (s *Store) Append(ctx context.Context, collection string, r json.RawMessage) (string, error) {
	row := record.StoreRecord{Collection: collection, Payload: string(r)}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		s.logger.Error("local store append failed", "collection", collection, "error", err)
		return "", store.WriteError(collection, err)
	}
	return strconv.FormatInt(row.ID, 10), nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
