package utils

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

/* DB fetching */

// fetch model from db
// (may return RecordNotFound)
func FetchModel[T any](ctx context.Context, db *gorm.DB, id int, associations ...string) (*T, error) {
	dbCtx := db.WithContext(ctx)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// fetch model by WHERE $condition
// (may return RecordNotFound)
func FetchModelWhere[T any](ctx context.Context, db *gorm.DB, condition string, value ...interface{}) (*T, error) {
	var result T
	err := db.WithContext(ctx).Where(condition, value...).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// fetch model and hold a row lock until tx ends
// (SELECT ... FOR UPDATE; drivers without row locks ignore the clause)
func FetchModelForUpdate[T any](ctx context.Context, tx *gorm.DB, id int) (*T, error) {
	var result T
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&result, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}
