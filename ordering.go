package keypager

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Direction defines the sort direction for the requested dataset.
type Direction string

const (
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

func (o Direction) Valid() bool {
	return o == DirectionASC || o == DirectionDESC
}

func (o Direction) ForOperator() Operator {
	switch o {
	case DirectionASC:
		return OperatorGT
	case DirectionDESC:
		return OperatorLT
	default:
		panic(fmt.Errorf("cannot map direction '%s' to operator", o))
	}
}

// Invert returns the opposite direction.
func (o Direction) Invert() Direction {
	return lo.Ternary(o == DirectionASC, DirectionDESC, DirectionASC)
}

type (
	// Orderings is the ordered list of columns a dataset is sorted by. The
	// combination of columns must identify a row uniquely, otherwise cursor
	// positions are ambiguous and rows may be skipped or repeated.
	Orderings []OrderBy
	OrderBy   struct {
		Column    string
		Direction Direction
		// Kind of the column values. Used to encode and parse cursor values.
		Kind Kind
	}

	ColumnAlias = string

	// Column describes an orderable column: its fully qualified name and the
	// kind of its values.
	Column struct {
		Name string
		Kind Kind
	}

	// ColumnMapping maps external column aliases to internal columns.
	// Use fully qualified names when bare column names could cause an
	// "ambiguous column name" error.
	ColumnMapping = map[ColumnAlias]Column
)

// Asc and Desc are shorthands for building an OrderBy.
func Asc(column string, kind Kind) OrderBy {
	return OrderBy{Column: column, Direction: DirectionASC, Kind: kind}
}

func Desc(column string, kind Kind) OrderBy {
	return OrderBy{Column: column, Direction: DirectionDESC, Kind: kind}
}

var _availableColumnNameSymbols = append([]rune("_.'`\""), lo.AlphanumericCharset...)

func (o OrderBy) validate() error {
	if !o.Direction.Valid() {
		return fmt.Errorf("%w: invalid ordering direction '%s'", ErrMisconfiguredOrdering, o.Direction)
	}

	if !o.Kind.Valid() {
		return fmt.Errorf("%w: invalid kind for ordering column '%s'", ErrMisconfiguredOrdering, o.Column)
	}

	// Guard against SQL injection by restricting allowed characters in column names.
	if o.Column == "" || !lo.Every(_availableColumnNameSymbols, []rune(o.Column)) {
		return fmt.Errorf("%w: ordering column name contains forbidden symbols '%s'", ErrMisconfiguredOrdering, o.Column)
	}

	return nil
}

// ToSQLSlice converts Orderings to a slice of strings in the form
// "<order_column> <order_direction>" suitable for SQL query builders.
//
// Example: for Orderings: [{"a", "ASC"}, {"b", "DESC"}] returns ["a ASC", "b DESC"].
func (o Orderings) ToSQLSlice() []string {
	ret := make([]string, 0, len(o))
	for _, ordering := range o {
		ret = append(ret, fmt.Sprintf("%s %s", ordering.Column, ordering.Direction))
	}

	return ret
}

// ToSQL converts Orderings to a single string
// "<order_column_1> <order_direction_1>, <order_column_2> <order_direction_2>"
// suitable for embedding into an SQL query.
// Example: for [{"a", "ASC"}, {"b", "DESC"}] returns "a ASC, b DESC".
//
// Usage:
//
//	query := fmt.Sprintf("SELECT * FROM table ORDER BY %s", orderings.ToSQL())
func (o Orderings) ToSQL() string {
	return strings.Join(o.ToSQLSlice(), ", ")
}

// Apply applies the ordering to a gorm query.
func (o Orderings) Apply(db *gorm.DB) *gorm.DB {
	if len(o) == 0 {
		return db
	}

	return db.Order(o.ToSQL())
}

// Invert flips the direction of every column. Walking a dataset backwards
// from a position is the same as walking it forwards in inverted order.
func (o Orderings) Invert() Orderings {
	return lo.Map(o, func(item OrderBy, _ int) OrderBy {
		item.Direction = item.Direction.Invert()
		return item
	})
}

// Columns returns the column names in ordering order.
func (o Orderings) Columns() []string {
	return lo.Map(o, func(item OrderBy, _ int) string { return item.Column })
}

func (o Orderings) validate() error {
	if len(o) == 0 {
		return fmt.Errorf("%w: empty ordering list", ErrMisconfiguredOrdering)
	}

	var err error
	for _, ordering := range o {
		err = ordering.validate()
		if err != nil {
			return err
		}
	}

	if dup := lo.FindDuplicates(o.Columns()); len(dup) > 0 {
		return fmt.Errorf("%w: duplicated ordering columns %v", ErrMisconfiguredOrdering, dup)
	}

	return nil
}

// ParseSort builds Orderings from a list of strings in the format
// "column asc|desc". Column aliases are resolved via ColumnMapping.
// Returns an error if an alias is not found in the mapping.
func ParseSort(stringsOrderings []string, columnMapping ColumnMapping) (Orderings, error) {
	ret := make([]OrderBy, 0, len(stringsOrderings))
	aliases := lo.Keys(columnMapping)

	for _, stringOrdering := range stringsOrderings {
		cutStringOrdering := strings.Fields(stringOrdering)
		if len(cutStringOrdering) != 2 {
			return nil, fmt.Errorf("invalid ordering string format '%s'", stringOrdering)
		}

		columnAlias := cutStringOrdering[0]
		direction := Direction(strings.ToUpper(cutStringOrdering[1]))
		if !direction.Valid() {
			return nil, fmt.Errorf("invalid ordering direction '%s'", cutStringOrdering[1])
		}

		column, ok := columnMapping[columnAlias]
		if !ok || column.Name == "" {
			return nil, fmt.Errorf("invalid column alias. closest: '%s'", closestAlias(columnAlias, aliases))
		}

		ret = append(ret, OrderBy{
			Column:    column.Name,
			Direction: direction,
			Kind:      column.Kind,
		})
	}

	return ret, nil
}

func closestAlias(input ColumnAlias, dataSet []ColumnAlias) ColumnAlias {
	minDist := math.MaxInt
	closest := ""

	for _, dataSetAlias := range dataSet {
		dist := levenshtein([]rune(dataSetAlias), []rune(input))
		// Ties resolve to the lexicographically smaller alias, map order is random.
		if dist < minDist || (dist == minDist && dataSetAlias < closest) {
			minDist = dist
			closest = dataSetAlias
		}
	}

	return closest
}
