package keypager

import "context"

// Query is everything a pager asks of a Source in one call: rows matching
// Filter, sorted by Sort, skipping Offset rows and returning at most Limit.
// A zero Limit means no limit; an empty Filter matches every row.
type Query struct {
	Sort   Orderings
	Filter DNF
	Limit  int
	Offset int
}

// Source is the result-source collaborator of the pagers. Fetch is called
// exactly once per page request.
type Source[T any] interface {
	Fetch(ctx context.Context, q Query) ([]T, error)
}

// CountingSource is a Source that can also count its whole result set. The
// page-number pager needs it to compute the number of pages.
type CountingSource[T any] interface {
	Source[T]
	Count(ctx context.Context) (int64, error)
}
