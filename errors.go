package keypager

import "errors"

var (
	// ErrInvalidCursor is returned when a token fails its checksum, cannot be
	// decoded or does not fit the requested orderings. It is always caused by
	// client input and is safe to report as a client error.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrMisconfiguredOrdering is returned at setup time when the orderings
	// are empty, invalid or cannot be served by the configured getters.
	ErrMisconfiguredOrdering = errors.New("misconfigured ordering")

	// ErrInvalidPage is returned by the page-number paginator for a page
	// number that is not a number or is out of range.
	ErrInvalidPage = errors.New("invalid page")
)
