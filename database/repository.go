package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// BaseRepository is the CRUD core embedded by domain repositories
type BaseRepository[T any] struct {
	db *gorm.DB
}

func NewBaseRepository[T any](db *gorm.DB) *BaseRepository[T] {
	return &BaseRepository[T]{db: db}
}

func (r *BaseRepository[T]) DB() *gorm.DB {
	return r.db
}

// Create inserts entity; unique violations become ErrDuplicateKey
func (r *BaseRepository[T]) Create(ctx context.Context, entity *T) error {
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
		}
		return fmt.Errorf("create record: %w", err)
	}
	return nil
}

// FindByID looks up by primary key
func (r *BaseRepository[T]) FindByID(ctx context.Context, id interface{}) (*T, error) {
	return r.FindOne(ctx, "id = ?", id)
}

// FindOne returns the first row matching query
func (r *BaseRepository[T]) FindOne(ctx context.Context, query interface{}, args ...interface{}) (*T, error) {
	var entity T
	err := r.db.WithContext(ctx).Where(query, args...).Take(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query record: %w", err)
	}
	return &entity, nil
}

// Exists reports whether any row matches query
func (r *BaseRepository[T]) Exists(ctx context.Context, query interface{}, args ...interface{}) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(new(T)).Where(query, args...).Limit(1).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count records: %w", err)
	}
	return count > 0, nil
}

// Update saves the given columns of entity
func (r *BaseRepository[T]) Update(ctx context.Context, entity *T, columns map[string]interface{}) error {
	if err := r.db.WithContext(ctx).Model(entity).Updates(columns).Error; err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}
