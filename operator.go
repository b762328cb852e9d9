package keypager

import "fmt"

// Operator defines a comparison operator for filtering by column.
// Used in keyset filtering conditions.
type Operator string

func (o Operator) Valid() bool {
	return o == OperatorLT || o == OperatorGT
}

func (o Operator) ForOrdering() Direction {
	switch o {
	case OperatorGT:
		return DirectionASC
	case OperatorLT:
		return DirectionDESC
	default:
		panic(fmt.Errorf("cannot map operator '%s' to ordering", o))
	}
}

// holds reports whether "left o right" is true according to Value.Compare.
func (o Operator) holds(left, right Value) bool {
	c := left.Compare(right)

	switch o {
	case OperatorGT:
		return c > 0
	case OperatorLT:
		return c < 0
	case operatorEq:
		return c == 0
	default:
		return false
	}
}

const (
	OperatorGT Operator = ">"
	OperatorLT Operator = "<"

	// operatorEq is the equality operator. It is private because we use it
	// ONLY while building filtering conditions.
	operatorEq Operator = "="
)
