package gocrud

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	// Record is a single table row keyed by column name. It is an alias so GORM
	// scans into it directly.
	Record = map[string]any

	// Formatter transforms every row read through a Table.
	Formatter func(Record) (Record, error)

	// Filter adds a constraint to a query. It has the shape of a GORM scope.
	Filter = func(*gorm.DB) *gorm.DB
)

func identityFormatter(r Record) (Record, error) {
	return r, nil
}

// Table is an accessor for a single relational table. It holds no per-call
// state, so one bound Table may serve concurrent callers.
type Table struct {
	name                 string
	pk                   string
	defaultOrder         string
	formatter            Formatter
	like                 LikeFunc
	logger               *zap.Logger
	maxLimit             int
	insertStrategy       InsertStrategy
	concurrentPagination bool

	db *gorm.DB
}

// New creates an unbound Table for the named table.
func New(name string, opts ...Option) (*Table, error) {
	if name == "" {
		return nil, ErrMissingTableName
	}

	t := &Table{
		name:           name,
		pk:             DefaultPrimaryKey,
		formatter:      identityFormatter,
		like:           CaseInsensitiveLike,
		logger:         zap.NewNop(),
		insertStrategy: InsertReadLatest,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}

	if t.defaultOrder == "" {
		t.defaultOrder = t.pk + orderSeparator + orderTokenASC
	}

	if err := t.validate(); err != nil {
		return nil, err
	}

	return t, nil
}

// Bind returns a copy of the Table bound to db. The receiver is left untouched.
func (t *Table) Bind(db *gorm.DB) (*Table, error) {
	if db == nil {
		return nil, ErrMissingEngine
	}

	bound := *t
	bound.db = db

	return &bound, nil
}

func (t *Table) Name() string { return t.name }

func (t *Table) PrimaryKey() string { return t.pk }

func (t *Table) DefaultOrder() string { return t.defaultOrder }

// Query returns a fresh query against the table, carrying ctx.
func (t *Table) Query(ctx context.Context) (*gorm.DB, error) {
	if t.db == nil {
		return nil, ErrMissingEngine
	}

	return t.db.WithContext(ctx).Table(t.name), nil
}

// List returns every row matching filters, formatted, in engine order.
func (t *Table) List(ctx context.Context, filters ...Filter) ([]Record, error) {
	db, err := t.Query(ctx)
	if err != nil {
		return nil, err
	}

	db, err = t.FilterQueryBy(db, filters...)
	if err != nil {
		return nil, err
	}

	return t.find(db)
}

// PaginatedList returns one page of rows matching filters. nil limit or offset
// means unset.
func (t *Table) PaginatedList(ctx context.Context, limit, offset *int, filters ...Filter) (*PageResult[Record], error) {
	db, err := t.Query(ctx)
	if err != nil {
		return nil, err
	}

	db, err = t.FilterQueryBy(db, filters...)
	if err != nil {
		return nil, err
	}

	return t.paginateAndFormat(db, limit, offset)
}

// GetOneBy returns the first row whose column equals value. column defaults to
// the primary key. A missing row yields (nil, nil).
func (t *Table) GetOneBy(ctx context.Context, value any, column ...string) (Record, error) {
	db, err := t.Query(ctx)
	if err != nil {
		return nil, err
	}

	var rows []Record
	err = db.Where(t.lookup(value, column...)).Limit(1).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}

	return t.formatter(rows[0])
}

// InsertOne inserts data and returns the stored row, formatted.
//
// IMPORTANT:
// Under InsertReadLatest the inserted row is taken to be the one with the
// greatest primary key. This holds for auto-incrementing keys only.
func (t *Table) InsertOne(ctx context.Context, data Record) (Record, error) {
	if t.db == nil {
		return nil, ErrMissingEngine
	}

	if len(data) == 0 {
		return nil, ErrMissingData
	}

	if t.insertStrategy == InsertReturning {
		return t.insertReturning(ctx, data)
	}

	return t.insertReadLatest(ctx, data)
}

func (t *Table) insertReadLatest(ctx context.Context, data Record) (Record, error) {
	var latestID any
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// GORM writes the last insert id back into map values, keep the caller's intact.
		err := tx.Table(t.name).Create(lo.Assign(data)).Error
		if err != nil {
			return err
		}

		var latest []Record
		err = tx.Table(t.name).
			Select(t.pk).
			Order(clause.OrderByColumn{Column: clause.Column{Name: t.pk}, Desc: true}).
			Limit(1).
			Find(&latest).Error
		if err != nil {
			return err
		}

		if len(latest) == 0 {
			return fmt.Errorf("cannot read back row inserted into '%s'", t.name)
		}
		latestID = latest[0][t.pk]

		return nil
	})
	if err != nil {
		return nil, err
	}

	t.logger.Debug("inserted row", zap.String("table", t.name), zap.Any("pk", latestID))

	return t.GetOneBy(ctx, latestID, t.pk)
}

var _returningDialects = []string{"postgres", "sqlite"}

func (t *Table) insertReturning(ctx context.Context, data Record) (Record, error) {
	if !lo.Contains(_returningDialects, t.db.Dialector.Name()) {
		return nil, fmt.Errorf("%w: '%s'", ErrReturningUnsupported, t.db.Dialector.Name())
	}

	row := lo.Assign(data)
	err := t.db.WithContext(ctx).
		Table(t.name).
		Clauses(clause.Returning{}).
		Create(row).Error
	if err != nil {
		return nil, err
	}

	t.logger.Debug("inserted row", zap.String("table", t.name), zap.Any("pk", row[t.pk]))

	return t.formatter(row)
}

// UpdateOneBy updates at most one row whose column equals value and returns
// the row as read afterwards. column defaults to the primary key. (nil, nil)
// means no row matched the lookup after the update.
//
// Dialects without UPDATE ... LIMIT (postgres, sqlite) update every matching
// row, so the lookup column should be unique.
func (t *Table) UpdateOneBy(ctx context.Context, data Record, value any, column ...string) (Record, error) {
	db, err := t.Query(ctx)
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, ErrMissingData
	}

	res := db.Where(t.lookup(value, column...)).Limit(1).Updates(lo.Assign(data))
	if res.Error != nil {
		return nil, res.Error
	}

	t.logger.Debug("updated rows", zap.String("table", t.name), zap.Int64("affected", res.RowsAffected))

	return t.GetOneBy(ctx, value, column...)
}

// DeleteOneBy deletes rows whose column equals value. It reports whether any
// row was deleted.
func (t *Table) DeleteOneBy(ctx context.Context, value any, column ...string) (bool, error) {
	db, err := t.Query(ctx)
	if err != nil {
		return false, err
	}

	res := db.Where(t.lookup(value, column...)).Delete(Record{})
	if res.Error != nil {
		return false, res.Error
	}

	t.logger.Debug("deleted rows", zap.String("table", t.name), zap.Int64("affected", res.RowsAffected))

	return res.RowsAffected > 0, nil
}

// lookup builds the equality predicate used by the single-row operations.
func (t *Table) lookup(value any, column ...string) clause.Expression {
	return clause.Eq{
		Column: clause.Column{Name: lo.FirstOr(lo.Compact(column), t.pk)},
		Value:  value,
	}
}

func (t *Table) find(db *gorm.DB) ([]Record, error) {
	var rows []Record
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}

	t.logger.Debug("listed rows", zap.String("table", t.name), zap.Int("rows", len(rows)))

	return t.formatAll(rows)
}

func (t *Table) paginateAndFormat(db *gorm.DB, limit, offset *int) (*PageResult[Record], error) {
	page, err := t.PaginateQuery(db, limit, offset)
	if err != nil {
		return nil, err
	}

	page.Rows, err = t.formatAll(page.Rows)
	if err != nil {
		return nil, err
	}

	return page, nil
}

// formatAll runs rows through the formatter sequentially, preserving order.
func (t *Table) formatAll(rows []Record) ([]Record, error) {
	ret := make([]Record, 0, len(rows))
	for _, row := range rows {
		formatted, err := t.formatter(row)
		if err != nil {
			return nil, fmt.Errorf("cannot format row of '%s': %w", t.name, err)
		}

		ret = append(ret, formatted)
	}

	return ret, nil
}
