package deadletter

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// PostgresStore persists dead letters with GORM.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore creates a postgres-backed recorder.
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Record inserts a terminal failure.
func (s *PostgresStore) Record(ctx context.Context, rec Record) error {
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert dead letter: %w", err)
	}
	return nil
}

// List returns the most recent dead letters, newest first.
func (s *PostgresStore) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	var records []Record
	err := s.db.WithContext(ctx).
		Order("failed_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list dead letters: %w", err)
	}
	return records, nil
}
