package keypager

import (
	"context"
	"fmt"
	"slices"
)

// SliceSource serves pager queries from an in-memory slice. Column values are
// read through Getters, so every column used in Sort or Filter needs one.
// The slice is not modified.
type SliceSource[T any] struct {
	items   []T
	getters Getters[T]
}

func NewSliceSource[T any](items []T, getters Getters[T]) *SliceSource[T] {
	return &SliceSource[T]{
		items:   items,
		getters: getters,
	}
}

// Fetch - implements Source.
func (s *SliceSource[T]) Fetch(ctx context.Context, q Query) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type row struct {
		item T
		key  Position
	}

	rows := make([]row, 0, len(s.items))
	for _, item := range s.items {
		ok, err := q.Filter.Match(s.getters.Reader(item))
		if err != nil {
			return nil, fmt.Errorf("cannot filter rows: %w", err)
		}
		if !ok {
			continue
		}

		key, err := s.getters.Position(q.Sort, item)
		if err != nil {
			return nil, fmt.Errorf("cannot sort rows: %w", err)
		}

		rows = append(rows, row{item: item, key: key})
	}

	slices.SortStableFunc(rows, func(a, b row) int {
		for i, orderBy := range q.Sort {
			c := a.key[i].Compare(b.key[i])
			if orderBy.Direction == DirectionDESC {
				c = -c
			}
			if c != 0 {
				return c
			}
		}

		return 0
	})

	if q.Offset > 0 {
		rows = rows[min(q.Offset, len(rows)):]
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	ret := make([]T, 0, len(rows))
	for _, r := range rows {
		ret = append(ret, r.item)
	}

	return ret, nil
}

// Count - implements CountingSource.
func (s *SliceSource[T]) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	return int64(len(s.items)), nil
}

var _ CountingSource[struct{}] = (*SliceSource[struct{}])(nil)
