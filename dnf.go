package keypager

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm/clause"
)

type (
	// Conjunct is the condition Operator(Column, Value).
	Conjunct struct {
		Column   string
		Value    Value
		Operator Operator
	}

	// Disjunct is a list of conjuncts joined by AND.
	Disjunct []Conjunct

	// DNF represents the disjunctive normal form (DNF) of a logical expression.
	// Each disjunct is joined by OR, and each disjunct consists of a list of
	// conjuncts which are joined by AND. A conjunct is the value of
	// Operator(Column, Value).
	//
	// Thus:
	//
	//	DNF = X1 OR X2 ... OR Xn, where Xi = Ai1 AND Ai2 ... AND Aim.
	//	DNF = (A11 AND A12 AND A13) OR (A21 AND A22 AND A23), for n=2, m=3.
	//
	//  Where (A11 AND A12 AND A13), (A21 AND A22 AND A23) are disjuncts and
	//  A11, A12, A13, A21, A22, A23 are conjuncts.
	//
	// An empty DNF matches every row.
	DNF []Disjunct

	// ValueReader reads the value of a column off a row.
	ValueReader func(column string, kind Kind) (Value, error)
)

// keysetFilter builds the "strictly after position" filter for the given
// orderings. For [(C1, D1), (C2, D2)... (Cn, Dn)] and position
// [V1, V2... Vn] the result is:
//
//	(C1 O1 V1) OR (C1 = V1 AND C2 O2 V2) OR ... OR (C1 = V1 AND ... AND Cn On Vn)
//
// where Oi is ">" for ASC and "<" for DESC. Passing inverted orderings gives
// the "strictly before position" filter. The lengths must match; a nil
// position yields an empty DNF.
func keysetFilter(orderings Orderings, position Position) DNF {
	if len(position) == 0 {
		return nil
	}

	dnf := make(DNF, 0, len(orderings))
	for i, orderBy := range orderings {
		previousElementsWithEqualityCondition := lo.Map(orderings[:i], func(item OrderBy, j int) Conjunct {
			return Conjunct{Column: item.Column, Value: position[j], Operator: operatorEq}
		})

		disjunct := make(Disjunct, 0, i+1)
		disjunct = append(disjunct, previousElementsWithEqualityCondition...)
		disjunct = append(disjunct, Conjunct{
			Column:   orderBy.Column,
			Value:    position[i],
			Operator: orderBy.Direction.ForOperator(),
		})

		dnf = append(dnf, disjunct)
	}

	return dnf
}

// Expression converts a conjunct of the form Operator(Column, Value)
// into an SQL condition "Column Operator ?" represented as a clause.Expression.
//
// Example:
//
//	Conjunct = { Column: "id", Operator: ">", Value: Int(123)}
//
// Result:
//
//	"id > ?" with var 123
func (c Conjunct) Expression() clause.Expression {
	sqlClause, arg := c.ToSQL()

	return clause.Expr{
		SQL:  sqlClause,
		Vars: []any{arg},
	}
}

// ToSQL converts a conjunct of the form Operator(Column, Value) to
// an SQL condition of the form "Column Operator ?" with a corresponding value.
// Returns the SQL string and the value for the placeholder.
//
// Example:
//
//	Conjunct = { Column: "id", Operator: ">", Value: Int(123)}
//
// Result:
//
//	("id > ?", int64(123))
func (c Conjunct) ToSQL() (string, driver.Value) {
	return fmt.Sprintf("%s %s ?", c.Column, c.Operator), c.Value.Any()
}

// Match evaluates the conjunct against a row.
func (c Conjunct) Match(read ValueReader) (bool, error) {
	v, err := read(c.Column, c.Value.Kind())
	if err != nil {
		return false, err
	}

	return c.Operator.holds(v, c.Value), nil
}

// Expression converts a disjunct (K1, K2, K3) into a gorm expression
// "K1 AND K2 AND K3" where each Ki is expanded via Conjunct.Expression.
func (d Disjunct) Expression() clause.Expression {
	andExpressions := make([]clause.Expression, 0, len(d))
	for _, conjunct := range d {
		andExpressions = append(andExpressions, conjunct.Expression())
	}

	if len(andExpressions) == 1 {
		return andExpressions[0]
	} else if len(andExpressions) > 1 {
		return clause.And(andExpressions...)
	}

	return nil
}

// ToSQL converts a disjunct (K1, K2, K3) into an SQL condition
// "(K1 AND K2 AND K3)" with corresponding values. Returns the SQL string and
// the list of values for placeholders.
//
// Example:
//
//	Disjunct = {
//		{Column: "id", Operator: ">", Value: Int(5)},
//		{Column: "name", Operator: "<", Value: String("abc")}
//	}
//
// Result:
//
//	("(id > ? AND name < ?)", [5, "abc"])
func (d Disjunct) ToSQL() (string, []driver.Value) {
	andClauses := make([]string, 0, len(d))
	andValues := make([]driver.Value, 0, len(d))

	for _, conjunct := range d {
		andClause, andValue := conjunct.ToSQL()
		andClauses = append(andClauses, andClause)
		andValues = append(andValues, andValue)
	}

	if len(andClauses) >= 1 {
		return fmt.Sprintf("(%s)", strings.Join(andClauses, " AND ")), andValues
	}

	return "", nil
}

// Match reports whether every conjunct holds. An empty disjunct never
// matches.
func (d Disjunct) Match(read ValueReader) (bool, error) {
	if len(d) == 0 {
		return false, nil
	}

	for _, conjunct := range d {
		ok, err := conjunct.Match(read)
		if err != nil || !ok {
			return false, err
		}
	}

	return true, nil
}

// Expression converts a DNF into a clause.Expression.
// For each disjunct it calls Disjunct.Expression and joins disjuncts with OR.
// Returns nil for an empty DNF.
func (d DNF) Expression() clause.Expression {
	orExpressions := make([]clause.Expression, 0, len(d))

	for _, disjunct := range d {
		andExpressions := disjunct.Expression()
		if andExpressions == nil {
			continue
		}

		orExpressions = append(orExpressions, andExpressions)
	}

	if len(orExpressions) == 1 {
		return orExpressions[0]
	} else if len(orExpressions) > 1 {
		return clause.Or(orExpressions...)
	}

	return nil
}

// ToSQL converts a DNF into an SQL condition. For each disjunct it
// calls Disjunct.ToSQL and joins disjuncts with OR. Returns the SQL
// string and the list of values for placeholders.
//
// Example:
//
//	DNF = {
//		{{Column: "id", Operator: "<", Value: Int(10)}},
//		{{Column: "id", Operator: "=", Value: Int(10)}, {Column: "name", Operator: "<", Value: String("abc")}},
//	}
//
// Result:
//
//	("((id < ?) OR (id = ? AND name < ?))", [10, 10, "abc"])
//
// Usage:
//
//	where, args := dnf.ToSQL()
//	rows, err := db.QueryContext(ctx, "SELECT * FROM table WHERE "+where, lo.ToAnySlice(args)...)
func (d DNF) ToSQL() (string, []driver.Value) {
	orClauses := make([]string, 0, len(d))
	values := make([]driver.Value, 0, len(d))

	for _, disjunct := range d {
		orClause, orValues := disjunct.ToSQL()
		if orClause == "" {
			continue
		}

		orClauses = append(orClauses, orClause)
		values = append(values, orValues...)
	}

	if len(orClauses) >= 1 {
		return fmt.Sprintf("(%s)", strings.Join(orClauses, " OR ")), values
	}

	return "TRUE", nil
}

// Match evaluates the DNF against a row. Empty disjuncts are skipped, and a
// DNF without conjuncts matches everything, mirroring ToSQL.
func (d DNF) Match(read ValueReader) (bool, error) {
	if lo.EveryBy(d, func(item Disjunct) bool { return len(item) == 0 }) {
		return true, nil
	}

	for _, disjunct := range d {
		ok, err := disjunct.Match(read)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}

	return false, nil
}
