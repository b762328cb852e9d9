package keypager

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// LastPage may be passed as a page number to request the last page.
const LastPage = -1

// NumberPage is one page of classic page-number pagination. Numbers and
// indexes are 1-based.
type NumberPage[T any] struct {
	Items          []T   `json:"items"`
	Number         int   `json:"number"`
	PerPage        int   `json:"perPage"`
	Count          int64 `json:"count"`
	NumPages       int   `json:"numPages"`
	HasNext        bool  `json:"hasNext"`
	HasPrevious    bool  `json:"hasPrevious"`
	NextNumber     int   `json:"nextNumber,omitempty"`
	PreviousNumber int   `json:"previousNumber,omitempty"`
	// StartIndex and EndIndex are the 1-based positions of the first and last
	// items within the whole result set, 0 for an empty page.
	StartIndex int64 `json:"startIndex"`
	EndIndex   int64 `json:"endIndex"`
}

// HasOtherPages reports whether there is any page besides this one.
func (p *NumberPage[T]) HasOtherPages() bool {
	return p != nil && (p.HasNext || p.HasPrevious)
}

// ParsePageNumber parses a page number taken from a request. An empty value
// is the first page and "last" is LastPage. Anything else must be an integer.
func ParsePageNumber(raw string) (int, error) {
	raw = strings.TrimSpace(raw)

	switch raw {
	case "":
		return 1, nil
	case "last":
		return LastPage, nil
	}

	number, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: page is not a number '%s'", ErrInvalidPage, raw)
	}

	return number, nil
}

// NumberPager is used when an API requires page numbers rather than cursors.
// It costs one Count and one Fetch with LIMIT/OFFSET per page.
type NumberPager[T any] struct {
	limit                  int
	limits                 Limits
	sort                   Orderings
	disallowEmptyFirstPage bool
	logger                 *zap.Logger
}

func NewNumberPager[T any]() *NumberPager[T] {
	return new(NumberPager[T])
}

// WithLimit sets the page size. NoLimit puts every row on page 1.
func (p *NumberPager[T]) WithLimit(limit int) *NumberPager[T] {
	if p == nil {
		p = new(NumberPager[T])
	}

	p.limit = limit

	return p
}

// WithLimits replaces the default and maximum page size.
func (p *NumberPager[T]) WithLimits(limits Limits) *NumberPager[T] {
	if p == nil {
		p = new(NumberPager[T])
	}

	p.limits = limits

	return p
}

// WithSort appends sort orderings, see CursorPager.WithSort.
func (p *NumberPager[T]) WithSort(orderBy ...OrderBy) *NumberPager[T] {
	if p == nil {
		p = new(NumberPager[T])
	}

	p.sort = mergeSort(p.sort, orderBy)

	return p
}

// WithAllowEmptyFirstPage controls whether page 1 of an empty result set is
// a valid empty page (the default) or ErrInvalidPage.
func (p *NumberPager[T]) WithAllowEmptyFirstPage(allow bool) *NumberPager[T] {
	if p == nil {
		p = new(NumberPager[T])
	}

	p.disallowEmptyFirstPage = !allow

	return p
}

// WithLogger sets the logger. Defaults to a no-op logger.
func (p *NumberPager[T]) WithLogger(logger *zap.Logger) *NumberPager[T] {
	if p == nil {
		p = new(NumberPager[T])
	}

	p.logger = logger

	return p
}

// GetLimit returns the normalized page size, or NoLimit.
func (p *NumberPager[T]) GetLimit() int {
	if p == nil {
		return DefaultLimit
	}

	if p.limit == NoLimit {
		return NoLimit
	}

	limits := p.limits
	if limits == (Limits{}) {
		limits = DefaultLimits()
	}

	limit, _ := limits.Normalize(p.limit)

	return limit
}

// Paginate returns page number of source. Numbers below 1 (other than
// LastPage) and beyond the last page fail with ErrInvalidPage.
func (p *NumberPager[T]) Paginate(ctx context.Context, source CountingSource[T], number int) (*NumberPage[T], error) {
	if p == nil {
		p = new(NumberPager[T])
	}

	logger := p.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(p.sort) == 0 {
		logger.Warn("paginating an unordered result set, pages may be inconsistent")
	} else if err := p.sort.validate(); err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	count, err := source.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	perPage := p.GetLimit()
	numPages := p.numPages(count, perPage)

	if number == LastPage {
		number = max(numPages, 1)
	}

	if number < 1 {
		return nil, fmt.Errorf("%w: page number %d is less than 1", ErrInvalidPage, number)
	}
	if number > numPages {
		return nil, fmt.Errorf("%w: page %d contains no results", ErrInvalidPage, number)
	}

	q := Query{Sort: p.sort}
	if perPage != NoLimit {
		q.Limit = perPage
		q.Offset = (number - 1) * perPage
	}

	logger.Debug("fetching page by number",
		zap.Int("number", number),
		zap.Int("limit", perPage),
		zap.Int64("count", count),
	)

	rows, err := source.Fetch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	if rows == nil {
		rows = []T{}
	}

	page := &NumberPage[T]{
		Items:       rows,
		Number:      number,
		PerPage:     perPage,
		Count:       count,
		NumPages:    numPages,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
	}

	if page.HasNext {
		page.NextNumber = number + 1
	}
	if page.HasPrevious {
		page.PreviousNumber = number - 1
	}

	if count > 0 {
		page.StartIndex = int64(q.Offset) + 1
		page.EndIndex = page.StartIndex + int64(len(rows)) - 1
	}

	return page, nil
}

func (p *NumberPager[T]) numPages(count int64, perPage int) int {
	if count == 0 {
		if p.disallowEmptyFirstPage {
			return 0
		}

		return 1
	}

	if perPage == NoLimit {
		return 1
	}

	return int((count + int64(perPage) - 1) / int64(perPage))
}
