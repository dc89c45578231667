package gocrud

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	// Condition is the value of Operator(Column, Value).
	Condition struct {
		Column   string
		Operator Operator
		Value    any
	}

	// Conjunction is a list of conditions joined by AND.
	Conjunction []Condition

	// DNF represents the disjunctive normal form (DNF) of a logical expression.
	// Each conjunction is joined by OR, and each conjunction consists of a list
	// of conditions which are joined by AND.
	//
	// Thus:
	//
	//	DNF = X1 OR X2 ... OR Xn, where Xi = Ai1 AND Ai2 ... AND Aim.
	//	DNF = (A11 AND A12 AND A13) OR (A21 AND A22 AND A23), for n=2, m=3.
	DNF []Conjunction
)

func (c Condition) validate() error {
	if !c.Operator.Valid() {
		return fmt.Errorf("%w: invalid operator '%s'", ErrInvalidArgument, c.Operator)
	}

	if err := validColumnName(c.Column); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	return nil
}

// toGORMExpression converts a condition into an expression with the column
// quoted by the dialect.
//
// Example:
//
//	Condition = { Column: "id", Operator: ">", Value: 123}
//
// Result (mysql):
//
//	"`id` > ?" with 123
func (c Condition) toGORMExpression() clause.Expression {
	return c.Operator.toGORMExpression(clause.Column{Name: c.Column}, c.Value)
}

// toGORMExpression converts a conjunction (K1, K2, K3) into "(K1 AND K2 AND K3)".
// A single condition is returned as is.
func (c Conjunction) toGORMExpression() clause.Expression {
	andExpressions := make([]clause.Expression, 0, len(c))
	for _, condition := range c {
		andExpressions = append(andExpressions, condition.toGORMExpression())
	}

	if len(andExpressions) == 1 {
		return andExpressions[0]
	} else if len(andExpressions) > 1 {
		return clause.And(andExpressions...)
	}

	return nil
}

// toGORMExpression joins the conjunctions with OR. Empty conjunctions are
// skipped. A single conjunction is returned without the OR wrapper, which
// GORM would otherwise attach to the preceding conditions with OR.
func (d DNF) toGORMExpression() clause.Expression {
	orExpressions := make([]clause.Expression, 0, len(d))

	for _, conjunction := range d {
		andExpression := conjunction.toGORMExpression()
		if andExpression == nil {
			continue
		}

		orExpressions = append(orExpressions, andExpression)
	}

	if len(orExpressions) == 1 {
		return orExpressions[0]
	} else if len(orExpressions) > 1 {
		return clause.Or(orExpressions...)
	}

	return nil
}

func (d DNF) validate() error {
	for _, conjunction := range d {
		for _, condition := range conjunction {
			if err := condition.validate(); err != nil {
				return err
			}
		}
	}

	return nil
}

// Where returns a Filter keeping rows where Operator(column, value) holds.
func Where(column string, operator Operator, value any) Filter {
	return WhereAll(Condition{Column: column, Operator: operator, Value: value})
}

// WhereAll returns a Filter keeping rows matching every condition.
func WhereAll(conditions ...Condition) Filter {
	return WhereAny(conditions)
}

// WhereAny returns a Filter keeping rows matching at least one conjunction.
// An invalid condition is reported through the query error, so the query
// fails when executed.
func WhereAny(conjunctions ...Conjunction) Filter {
	dnf := DNF(conjunctions)

	return func(db *gorm.DB) *gorm.DB {
		if err := dnf.validate(); err != nil {
			_ = db.AddError(fmt.Errorf("cannot apply filter: %w", err))
			return db
		}

		exp := dnf.toGORMExpression()
		if exp == nil {
			return db
		}

		return db.Where(exp)
	}
}
