package keypager

import (
	"encoding/base64"
	"fmt"
)

// base64url without padding in strict mode: tokens are safe in a URL path
// segment, and every token has exactly one decodable spelling.
var _encoder = base64.RawURLEncoding.Strict()

// Traversal tells which way a cursor points from its position.
type Traversal uint8

const (
	// Forward selects rows strictly after the position.
	Forward Traversal = iota
	// Backward selects rows strictly before the position.
	Backward
)

func (t Traversal) String() string {
	if t == Backward {
		return "backward"
	}

	return "forward"
}

func (t Traversal) marker() string {
	if t == Backward {
		return "<"
	}

	return ">"
}

func traversalFromMarker(m string) (Traversal, bool) {
	switch m {
	case ">":
		return Forward, true
	case "<":
		return Backward, true
	default:
		return Forward, false
	}
}

// Cursor is a decoded pagination token: a row position and the direction to
// continue in. A nil *Cursor means "first page".
type Cursor struct {
	Position  Position
	Traversal Traversal
}

func NewCursor(traversal Traversal, position ...Value) *Cursor {
	return &Cursor{
		Position:  position,
		Traversal: traversal,
	}
}

// IsEmpty reports whether the cursor points at the start of the dataset.
func (c *Cursor) IsEmpty() bool {
	return c == nil || len(c.Position) == 0
}

// GetTraversal returns the cursor direction; the start of the dataset is
// always walked forward.
func (c *Cursor) GetTraversal() Traversal {
	if c.IsEmpty() {
		return Forward
	}

	return c.Traversal
}

// Filter returns the keyset condition selecting rows on the cursor's side of
// its position, together with the orderings the rows must be fetched in.
// For a backward cursor the orderings are inverted so that the rows closest
// to the position come first.
func (c *Cursor) Filter(orderings Orderings) (DNF, Orderings) {
	if c.IsEmpty() {
		return nil, orderings
	}

	fetchOrderings := orderings
	if c.Traversal == Backward {
		fetchOrderings = orderings.Invert()
	}

	return keysetFilter(fetchOrderings, c.Position), fetchOrderings
}

func (c *Cursor) validate(orderings Orderings) error {
	if c.IsEmpty() {
		return nil
	}

	// Не допускаем расхождений между количеством колонок в токене и в списке сортировки.
	if len(c.Position) != len(orderings) {
		return fmt.Errorf("cursor column number mismatch: got %d, want %d", len(c.Position), len(orderings))
	}

	for i, orderBy := range orderings {
		if c.Position[i].Kind() != orderBy.Kind {
			return fmt.Errorf("unexpected %s value for cursor column '%s'", c.Position[i].Kind(), orderBy.Column)
		}

		if err := c.Position[i].validate(); err != nil {
			return fmt.Errorf("cursor column '%s': %w", orderBy.Column, err)
		}
	}

	return nil
}

// Getters - словарь геттеров для объекта. Указывать те колонки, на основе которых производится пагинация.
// Пример:
//
//	keypager.Getters[models.PlayerPushTarget]{
//		"id":          func(last models.PlayerPushTarget) any { return last.ID },
//		"deposit_sum": func(last models.PlayerPushTarget) any { return last.DepositSum },
//	}
type Getters[T any] map[string]func(T) any

// Reader returns a ValueReader over a single row.
func (g Getters[T]) Reader(row T) ValueReader {
	return func(column string, kind Kind) (Value, error) {
		getter, ok := g[column]
		if !ok {
			return Value{}, fmt.Errorf("cannot find getter for column '%s'", column)
		}

		v, err := ValueOf(kind, getter(row))
		if err != nil {
			return Value{}, fmt.Errorf("column '%s': %w", column, err)
		}

		return v, nil
	}
}

// Position reads the ordering column values off a row.
func (g Getters[T]) Position(orderings Orderings, row T) (Position, error) {
	read := g.Reader(row)

	position := make(Position, 0, len(orderings))
	for _, orderBy := range orderings {
		v, err := read(orderBy.Column, orderBy.Kind)
		if err != nil {
			return nil, err
		}

		position = append(position, v)
	}

	return position, nil
}

func (g Getters[T]) validate(orderings Orderings) error {
	for _, orderBy := range orderings {
		if _, ok := g[orderBy.Column]; !ok {
			return fmt.Errorf("%w: cannot find getter for column '%s' met in ordering", ErrMisconfiguredOrdering, orderBy.Column)
		}
	}

	return nil
}
