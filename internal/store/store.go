// Package store is the keyed entity repository shared by every other component.
// Identifiers are sqlite AUTOINCREMENT keys, so they grow monotonically per entity
// and are never reused while the database lives.
package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrNotFound reports a lookup for an identifier that does not exist.
	ErrNotFound = errors.New("store: record not found")
	// ErrDuplicate reports a create that would repeat an existing relation.
	ErrDuplicate = errors.New("store: duplicate record")

	errMissingDatabase = errors.New("store: database handle is required")
)

// Config describes the dependencies of a Store.
type Config struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// Store exposes create/read/query operations over every entity collection.
type Store struct {
	db    *gorm.DB
	clock func() time.Time
}

// New constructs a Store around an already migrated database handle.
func New(cfg Config) (*Store, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Store{db: cfg.Database, clock: clock}, nil
}

// WithinTransaction runs fn against a Store bound to a single transaction.
// Any error returned by fn rolls back every write performed through the tx Store.
func (s *Store) WithinTransaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, clock: s.clock})
	})
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *Store) now() time.Time {
	return s.clock().UTC()
}

func take[T any](db *gorm.DB, query string, args ...any) (T, error) {
	var record T
	err := db.Where(query, args...).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return record, ErrNotFound
	}
	return record, err
}

func findByID[T any](ctx context.Context, s *Store, id int64) (T, error) {
	return take[T](s.conn(ctx), "id = ?", id)
}

// deleteByID removes a single row and reports ErrNotFound when nothing matched.
func deleteByID[T any](db *gorm.DB, id int64) error {
	var model T
	result := db.Where("id = ?", id).Delete(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// exists reports whether any row of T matches the query.
func exists[T any](db *gorm.DB, query string, args ...any) (bool, error) {
	var count int64
	var model T
	if err := db.Model(&model).Where(query, args...).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
