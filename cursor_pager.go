package keypager

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// RawCursorPager is intended for API payloads. For proper code generation, inline it:
//
//	type MyFilter struct {
//	    Paging RawCursorPager `json:",inline"`
//	}
type RawCursorPager struct {
	// Limit - maximum number of records to return in the response.
	Limit int `json:"limit"`
	// StartToken - token obtained from Page.NextToken or Page.PreviousToken.
	// If empty, the first page with Limit records is returned.
	StartToken string `json:"startToken"`
}

// Page is the result of one cursor pagination call.
type Page[T any] struct {
	// Items result elements in display order.
	Items []T `json:"items"`
	// HasNext reports whether rows exist after the last item.
	HasNext bool `json:"hasNext"`
	// HasPrevious reports whether rows exist before the first item.
	HasPrevious bool `json:"hasPrevious"`
	// NextToken token for the next page. Empty when HasNext is false.
	NextToken string `json:"nextToken,omitempty"`
	// PreviousToken token for the previous page. Empty when HasPrevious is false.
	PreviousToken string `json:"previousToken,omitempty"`
	// AppliedLimit effective limit used for the query.
	AppliedLimit int `json:"limit"`
}

// CursorPager paginates a Source with keyset cursors. Every page costs exactly
// one Source.Fetch of limit+1 rows: the extra row only tells whether more rows
// exist and is never returned.
//
// All With* methods may be called on a nil pager and return a usable one.
// Configuration setters modify the receiver; the per-request setters
// WithToken, WithCursor and WithRaw return a copy instead.
type CursorPager[T any] struct {
	limit   int
	limits  Limits
	sort    Orderings
	getters Getters[T]
	codec   *CursorCodec
	token   string
	cursor  *Cursor
	policy  InvalidCursorPolicy
	logger  *zap.Logger
}

func NewCursorPager[T any]() *CursorPager[T] {
	return new(CursorPager[T])
}

// DecodeCursorPager decodes a cursor token into *CursorPager. Unlike a token
// set through WithToken, an invalid token here is always an error.
func DecodeCursorPager[T any](
	codec *CursorCodec,
	limit int,
	rawStartToken string,
	orderBy ...OrderBy,
) (*CursorPager[T], error) {
	if codec == nil {
		return nil, fmt.Errorf("cursor codec is nil")
	}

	pager := NewCursorPager[T]().
		WithCodec(codec).
		WithSubstitutedSort(orderBy...).
		WithLimit(limit)

	cursor, err := codec.Decode(pager.sort, rawStartToken)
	if err != nil {
		return nil, err
	}

	return pager.WithCursor(cursor), nil
}

// WithConfig applies limits and the invalid cursor policy from cfg and builds
// the codec from its secret.
func (c *CursorPager[T]) WithConfig(cfg Config) (*CursorPager[T], error) {
	if c == nil {
		c = new(CursorPager[T])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	codec, err := cfg.Codec()
	if err != nil {
		return nil, err
	}

	c.limits = cfg.Limits()
	c.policy = cfg.InvalidCursor
	c.codec = codec

	return c, nil
}

// WithCodec sets the codec used to decode the incoming token and encode the
// boundary tokens.
func (c *CursorPager[T]) WithCodec(codec *CursorCodec) *CursorPager[T] {
	if c == nil {
		c = new(CursorPager[T])
	}

	c.codec = codec

	return c
}

// WithLimit sets the maximum number of returned records.
//
// IMPORTANT:
//   - NoLimit is rejected by Paginate: the over-fetch needs a bound.
//   - Other values are normalized against the pager limits on use.
func (c *CursorPager[T]) WithLimit(limit int) *CursorPager[T] {
	if c == nil {
		c = new(CursorPager[T])
	}

	c.limit = limit

	return c
}

// WithLimits replaces the default and maximum page size.
func (c *CursorPager[T]) WithLimits(limits Limits) *CursorPager[T] {
	if c == nil {
		c = new(CursorPager[T])
	}

	c.limits = limits

	return c
}

// WithRaw applies limit and start token from an API payload. Like WithToken
// it returns a copy and leaves the receiver untouched.
func (c *CursorPager[T]) WithRaw(raw RawCursorPager) *CursorPager[T] {
	return c.WithToken(raw.StartToken).WithLimit(raw.Limit)
}

// WithToken returns a copy of the pager with the incoming token set. It is
// decoded by Paginate according to the invalid cursor policy.
//
// The receiver is not modified, so one configured pager may be shared
// between goroutines as long as only WithToken, WithCursor, WithRaw and
// Paginate are called on it.
func (c *CursorPager[T]) WithToken(token string) *CursorPager[T] {
	cp := c.clone()
	cp.token = token
	cp.cursor = nil

	return cp
}

// WithCursor returns a copy of the pager with the cursor set explicitly.
func (c *CursorPager[T]) WithCursor(cursor *Cursor) *CursorPager[T] {
	cp := c.clone()
	cp.cursor = cursor
	cp.token = ""

	return cp
}

func (c *CursorPager[T]) clone() *CursorPager[T] {
	if c == nil {
		return new(CursorPager[T])
	}

	cp := *c
	// WithSort edits orderings in place.
	cp.sort = slices.Clone(c.sort)

	return &cp
}

// WithGetters sets column getters used to read boundary positions off rows.
func (c *CursorPager[T]) WithGetters(getters Getters[T]) *CursorPager[T] {
	if c == nil {
		c = new(CursorPager[T])
	}

	c.getters = getters

	return c
}

// WithInvalidCursorPolicy chooses between rejecting an invalid token and
// falling back to the first page. Rejecting is the default.
func (c *CursorPager[T]) WithInvalidCursorPolicy(policy InvalidCursorPolicy) *CursorPager[T] {
	if c == nil {
		c = new(CursorPager[T])
	}

	c.policy = policy

	return c
}

// WithLogger sets the logger. Defaults to a no-op logger.
func (c *CursorPager[T]) WithLogger(logger *zap.Logger) *CursorPager[T] {
	if c == nil {
		c = new(CursorPager[T])
	}

	c.logger = logger

	return c
}

// WithSubstitutedSort resets previous orderings and applies the provided ones.
func (c *CursorPager[T]) WithSubstitutedSort(orderBy ...OrderBy) *CursorPager[T] {
	if c == nil {
		c = new(CursorPager[T])
	}

	c.sort = nil

	return c.WithSort(orderBy...)
}

// WithSort appends sort orderings without overwriting existing ones.
// Order is preserved as if calling:
//
//	OrderBy(o1).ThenBy(o2).ThenBy(o3)...
func (c *CursorPager[T]) WithSort(orderBy ...OrderBy) *CursorPager[T] {
	if c == nil {
		c = new(CursorPager[T])
	}

	c.sort = mergeSort(c.sort, orderBy)

	return c
}

func mergeSort(sort Orderings, orderBy []OrderBy) Orderings {
	for _, o := range orderBy {
		idx := slices.IndexFunc(sort, func(processed OrderBy) bool {
			return processed.Column == o.Column
		})

		// Remove previous occurrence (avoid duplication).
		if idx != -1 {
			sort = slices.Delete(sort, idx, idx+1)
		}

		sort = append(sort, o)
	}

	return sort
}

// Paginate fetches one page from source.
//
// The incoming token (or cursor) selects rows strictly after (forward) or
// strictly before (backward) its position. The page carries tokens for the
// neighbouring pages, built from its first and last items.
func (c *CursorPager[T]) Paginate(ctx context.Context, source Source[T]) (*Page[T], error) {
	if c == nil {
		c = new(CursorPager[T])
	}

	err := c.validate()
	if err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	cursor, err := c.resolveCursor()
	if err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	limit := c.GetLimit()
	traversal := cursor.GetTraversal()
	filter, fetchSort := cursor.Filter(c.sort)

	c.log().Debug("fetching page",
		zap.Stringer("traversal", traversal),
		zap.Int("limit", limit),
		zap.Bool("from_cursor", !cursor.IsEmpty()),
	)

	rows, err := source.Fetch(ctx, Query{
		Sort:   fetchSort,
		Filter: filter,
		// Fetch one extra record to determine if there is a page beyond this one.
		Limit: limit + 1,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	extra := len(rows) > limit
	if extra {
		rows = rows[:limit]
	}

	// Backward pages are fetched nearest-first; restore display order.
	if traversal == Backward {
		slices.Reverse(rows)
	}

	page := &Page[T]{
		Items:        lo.Ternary(rows == nil, []T{}, rows),
		AppliedLimit: limit,
	}

	switch {
	case len(rows) == 0:
		// Nothing on the cursor's side: the rows on the other side may still
		// be there, so keep a way back at the same position.
		if cursor.IsEmpty() {
			return page, nil
		}

		if traversal == Forward {
			page.HasPrevious = true
			page.PreviousToken, err = c.codec.Encode(c.sort, NewCursor(Backward, cursor.Position...))
			if err != nil {
				return nil, fmt.Errorf("cannot build previous page token: %w", err)
			}
		} else {
			page.HasNext = true
			page.NextToken, err = c.codec.Encode(c.sort, NewCursor(Forward, cursor.Position...))
			if err != nil {
				return nil, fmt.Errorf("cannot build next page token: %w", err)
			}
		}

		return page, nil
	case traversal == Forward:
		page.HasNext = extra
		page.HasPrevious = !cursor.IsEmpty()
	default:
		// A backward cursor is only issued by a page that follows this one.
		page.HasNext = true
		page.HasPrevious = extra
	}

	if page.HasNext {
		page.NextToken, err = c.boundaryToken(Forward, lo.LastOrEmpty(rows))
		if err != nil {
			return nil, fmt.Errorf("cannot build next page token: %w", err)
		}
	}

	if page.HasPrevious {
		page.PreviousToken, err = c.boundaryToken(Backward, lo.FirstOrEmpty(rows))
		if err != nil {
			return nil, fmt.Errorf("cannot build previous page token: %w", err)
		}
	}

	return page, nil
}

func (c *CursorPager[T]) boundaryToken(traversal Traversal, row T) (string, error) {
	position, err := c.getters.Position(c.sort, row)
	if err != nil {
		return "", err
	}

	return c.codec.Encode(c.sort, NewCursor(traversal, position...))
}

// resolveCursor returns the explicit cursor or decodes the token, applying
// the invalid cursor policy.
func (c *CursorPager[T]) resolveCursor() (*Cursor, error) {
	if c.cursor != nil {
		if err := c.cursor.validate(c.sort); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
		}

		return c.cursor, nil
	}

	cursor, err := c.codec.Decode(c.sort, c.token)
	if err == nil {
		return cursor, nil
	}

	if errors.Is(err, ErrInvalidCursor) && c.policy == InvalidCursorFirstPage {
		c.log().Warn("invalid cursor, serving first page", zap.Error(err))
		return nil, nil
	}

	return nil, err
}

// GetSort returns orderings that will be applied to the dataset.
func (c *CursorPager[T]) GetSort() Orderings {
	if c == nil {
		return nil
	}

	return c.sort
}

// IsUnlimited returns true if the limit equals NoLimit (unbounded number of records).
func (c *CursorPager[T]) IsUnlimited() bool {
	if c == nil {
		return false
	}

	return c.limit == NoLimit
}

// GetLimit returns the normalized page size. The return value is >= 1.
func (c *CursorPager[T]) GetLimit() int {
	if c == nil {
		return DefaultLimit
	}

	limit, _ := c.getLimits().Normalize(c.limit)

	return limit
}

// GetDatasetLimit returns the number of rows requested from the source:
// GetLimit() + 1.
func (c *CursorPager[T]) GetDatasetLimit() int {
	return c.GetLimit() + 1
}

// GetCursor returns the cursor stored in CursorPager as-is.
func (c *CursorPager[T]) GetCursor() *Cursor {
	if c == nil {
		return nil
	}

	return c.cursor
}

func (c *CursorPager[T]) getLimits() Limits {
	if c.limits == (Limits{}) {
		return DefaultLimits()
	}

	return c.limits
}

func (c *CursorPager[T]) log() *zap.Logger {
	if c.logger == nil {
		return zap.NewNop()
	}

	return c.logger
}

func (c *CursorPager[T]) validate() error {
	if c == nil {
		return fmt.Errorf("cursor pager is nil")
	}

	if c.limit == NoLimit {
		return fmt.Errorf("cannot apply lookahead to unlimited paging")
	}

	if c.codec == nil {
		return fmt.Errorf("cursor codec is not set")
	}

	switch c.policy {
	case "", InvalidCursorReject, InvalidCursorFirstPage:
	default:
		return fmt.Errorf("unknown invalid cursor policy '%s'", c.policy)
	}

	err := c.sort.validate()
	if err != nil {
		return err
	}

	return c.getters.validate(c.sort)
}
