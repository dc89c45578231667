package gocrud

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

const (
	orderSeparator = ":"
	orderTokenASC  = "asc"
	orderTokenDESC = "desc"
)

type (
	Orderings []OrderBy
	OrderBy   struct {
		Column    string
		Direction Direction
	}
)

// ParseOrder parses an order token of the form "<field>:<direction>".
//
// The direction is DirectionDESC only for the exact, lower-case "desc".
// Anything else, including "DESC", an empty or a missing direction, yields
// DirectionASC. Text after a second separator is ignored: "a:desc:x" orders
// by "a" descending.
func ParseOrder(token string) OrderBy {
	column, rest, _ := strings.Cut(token, orderSeparator)
	direction, _, _ := strings.Cut(rest, orderSeparator)

	return OrderBy{
		Column:    column,
		Direction: lo.Ternary(direction == orderTokenDESC, DirectionDESC, DirectionASC),
	}
}

// String formats the ordering back into its token form, e.g. "name:desc".
func (o OrderBy) String() string {
	return o.Column + orderSeparator + strings.ToLower(string(o.Direction))
}

// ToSQLSlice converts Orderings to a slice of strings in the form
// "<order_column> <order_direction>".
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
// "<order_column_1> <order_direction_1>, <order_column_2> <order_direction_2>".
// Column names are not quoted, use it for logs and raw queries you control.
func (o Orderings) ToSQL() string {
	return strings.Join(o.ToSQLSlice(), ", ")
}

// Apply replaces any ordering already present on db with o. Columns are quoted
// by the dialect. Empty Orderings leave db as is.
func (o Orderings) Apply(db *gorm.DB) *gorm.DB {
	if len(o) == 0 {
		return db
	}

	columns := lo.Map(o, func(ordering OrderBy, _ int) clause.OrderByColumn {
		return clause.OrderByColumn{
			Column: clause.Column{Name: ordering.Column},
			Desc:   ordering.Direction == DirectionDESC,
		}
	})
	columns[0].Reorder = true

	return db.Clauses(clause.OrderBy{Columns: columns})
}

// OrderQueryBy orders db by a single column parsed from token, replacing any
// previous ordering. An empty token falls back to the table default order and
// an empty field to the primary key. A field that is not a plain column name
// is rejected with ErrInvalidArgument. db itself is never modified.
//
// No tiebreaker is added: rows sharing the same value come in whatever order
// the engine returns them.
func (t *Table) OrderQueryBy(db *gorm.DB, token string) (*gorm.DB, error) {
	if db == nil {
		return nil, ErrMissingQuery
	}

	ordering := ParseOrder(lo.Ternary(token == "", t.defaultOrder, token))
	if ordering.Column == "" {
		ordering.Column = t.pk
	}

	if err := validColumnName(ordering.Column); err != nil {
		return nil, fmt.Errorf("%w: order '%s': %w", ErrInvalidArgument, token, err)
	}

	orderings := Orderings{ordering}
	t.logger.Debug("ordering query", zap.String("table", t.name), zap.String("order", orderings.ToSQL()))

	return orderings.Apply(cloneQuery(db)), nil
}
