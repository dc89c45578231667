package gocrud

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeFunc builds the predicate matching rows whose column contains term.
type LikeFunc func(column, term string) clause.Expression

// CaseInsensitiveLike matches term anywhere in column, lower-casing both sides:
//
//	LOWER(column) LIKE LOWER('%term%')
//
// The column is quoted by the dialect. Wildcards inside term are not escaped.
func CaseInsensitiveLike(column, term string) clause.Expression {
	return clause.Expr{
		SQL:  "LOWER(?) LIKE LOWER(?)",
		Vars: []any{clause.Column{Name: column}, "%" + term + "%"},
	}
}

// cloneQuery returns a copy of db sharing no further mutation with it. The
// statement is copied eagerly.
func cloneQuery(db *gorm.DB) *gorm.DB {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}

	return db.Session(&gorm.Session{Context: ctx})
}

// FilterQueryBy applies filters in order to a clone of db. Every filter
// receives the result of the previous one. nil filters are skipped. db itself
// is never modified.
func (t *Table) FilterQueryBy(db *gorm.DB, filters ...Filter) (*gorm.DB, error) {
	if db == nil {
		return nil, ErrMissingQuery
	}

	return lo.Reduce(filters, func(agg *gorm.DB, filter Filter, _ int) *gorm.DB {
		if filter == nil {
			return agg
		}

		return filter(agg)
	}, cloneQuery(db)), nil
}

// SearchInQueryBy restricts db to rows where any of columns contains term,
// case-insensitively. The OR-chain is grouped, so it is AND-ed with the
// conditions already present. An empty term or column list leaves the query
// unconstrained. Column names are checked like the table's own, a bad one
// yields ErrInvalidArgument. db itself is never modified.
func (t *Table) SearchInQueryBy(db *gorm.DB, term string, columns ...string) (*gorm.DB, error) {
	if db == nil {
		return nil, ErrMissingQuery
	}

	if err := validSearchColumns(columns); err != nil {
		return nil, err
	}

	tx := cloneQuery(db)

	exp := t.searchExpression(term, columns)
	if exp == nil {
		return tx, nil
	}

	return tx.Where(exp), nil
}

// SearchFilter is SearchInQueryBy in Filter form, for use with FilterQueryBy.
// Returns nil when there is nothing to search for. A bad column name is
// recorded on the query it is applied to.
func (t *Table) SearchFilter(term string, columns ...string) Filter {
	if err := validSearchColumns(columns); err != nil {
		return func(db *gorm.DB) *gorm.DB {
			_ = db.AddError(err)
			return db
		}
	}

	exp := t.searchExpression(term, columns)
	if exp == nil {
		return nil
	}

	return func(db *gorm.DB) *gorm.DB {
		return db.Where(exp)
	}
}

// validSearchColumns checks every non-empty column. Empty names are skipped
// by searchExpression.
func validSearchColumns(columns []string) error {
	for _, column := range lo.Compact(columns) {
		if err := validColumnName(column); err != nil {
			return fmt.Errorf("%w: search column '%s': %w", ErrInvalidArgument, column, err)
		}
	}

	return nil
}

// searchExpression builds:
//
//	like(c1, term)                                   for a single column
//	(like(c1, term) OR like(c2, term) ... OR like(cn, term))   otherwise
func (t *Table) searchExpression(term string, columns []string) clause.Expression {
	columns = lo.Compact(columns)
	if term == "" || len(columns) == 0 {
		return nil
	}

	like := t.like
	if like == nil {
		like = CaseInsensitiveLike
	}

	likeExpressions := lo.Map(columns, func(column string, _ int) clause.Expression {
		return like(column, term)
	})

	// A single OrConditions would be joined to the preceding conditions with OR.
	if len(likeExpressions) == 1 {
		return likeExpressions[0]
	}

	return clause.Or(likeExpressions...)
}
