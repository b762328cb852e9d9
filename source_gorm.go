package keypager

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// GORMSource runs pager queries on top of a prepared gorm query. The base
// query may carry its own table, joins and WHERE conditions; the pager adds
// ordering, the keyset filter and limit/offset. Count needs the base query
// to name its table, through Model or Table.
//
// Usage:
//
//	src := keypager.NewGORMSource[User](db.Model(&User{}).Where("active"))
//	page, err := pager.WithToken(token).Paginate(ctx, src)
type GORMSource[T any] struct {
	db *gorm.DB
}

func NewGORMSource[T any](db *gorm.DB) *GORMSource[T] {
	return &GORMSource[T]{
		// A new session makes the base query safe to reuse across calls.
		db: db.Session(&gorm.Session{}),
	}
}

// Apply adds the query to a gorm statement without executing it.
func (q Query) Apply(db *gorm.DB) *gorm.DB {
	db = q.Sort.Apply(db)

	if exp := q.Filter.Expression(); exp != nil {
		db = db.Clauses(exp)
	}

	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}

	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}

	return db
}

// Fetch - implements Source.
func (s *GORMSource[T]) Fetch(ctx context.Context, q Query) ([]T, error) {
	var rows []T

	err := q.Apply(s.db.WithContext(ctx)).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("cannot fetch rows: %w", err)
	}

	return rows, nil
}

// Count - implements CountingSource.
func (s *GORMSource[T]) Count(ctx context.Context) (int64, error) {
	var count int64

	err := s.db.WithContext(ctx).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("cannot count rows: %w", err)
	}

	return count, nil
}

var _ CountingSource[struct{}] = (*GORMSource[struct{}])(nil)
