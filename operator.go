package gocrud

import (
	"fmt"

	"gorm.io/gorm/clause"
)

// Operator defines a comparison operator for filtering by column.
type Operator string

const (
	OperatorEq    Operator = "="
	OperatorNotEq Operator = "<>"
	OperatorGT    Operator = ">"
	OperatorGTE   Operator = ">="
	OperatorLT    Operator = "<"
	OperatorLTE   Operator = "<="
)

func (o Operator) Valid() bool {
	switch o {
	case OperatorEq, OperatorNotEq, OperatorGT, OperatorGTE, OperatorLT, OperatorLTE:
		return true
	default:
		return false
	}
}

// toGORMExpression maps the operator applied to (column, value) onto the GORM
// clause. Eq and NotEq with a nil value become IS NULL and IS NOT NULL, with
// a slice value IN and NOT IN.
func (o Operator) toGORMExpression(column clause.Column, value any) clause.Expression {
	switch o {
	case OperatorEq:
		return clause.Eq{Column: column, Value: value}
	case OperatorNotEq:
		return clause.Neq{Column: column, Value: value}
	case OperatorGT:
		return clause.Gt{Column: column, Value: value}
	case OperatorGTE:
		return clause.Gte{Column: column, Value: value}
	case OperatorLT:
		return clause.Lt{Column: column, Value: value}
	case OperatorLTE:
		return clause.Lte{Column: column, Value: value}
	default:
		panic(fmt.Errorf("cannot map operator '%s' to expression", o))
	}
}
