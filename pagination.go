package gocrud

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// PageResult is a generic paginated result container.
type PageResult[T any] struct {
	// Rows result elements.
	Rows []T `json:"rows"`
	// Page zero-based page number: ceil(Offset / Limit).
	Page int `json:"page"`
	// Limit effective limit. Equals Total when no limit was requested.
	Limit int `json:"limit"`
	// Offset effective offset.
	Offset int `json:"offset"`
	// Total number of distinct primary keys matching the query, regardless of
	// Limit and Offset.
	Total int64 `json:"total"`
}

// ParseBound coerces a loosely typed limit or offset (ints, floats, decimal
// strings, pointers to those) into an optional int. Strings are read in base
// 10 with surrounding spaces trimmed, so "010" is 10. nil, booleans and values
// that are not numeric yield nil, meaning unset.
func ParseBound(v any) *int {
	switch x := v.(type) {
	case nil, bool, *bool:
		return nil
	case *int:
		return x
	case *string:
		if x == nil {
			return nil
		}
		return ParseBound(*x)
	case string:
		ret, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return nil
		}
		return &ret
	}

	ret, err := cast.ToIntE(v)
	if err != nil {
		return nil
	}

	return &ret
}

type pageRequest struct {
	pk         string
	limit      *int
	offset     *int
	concurrent bool
}

// PaginateQuery runs db twice: once bounded by limit and offset for the page
// rows, once as COUNT(DISTINCT pk) for the total. nil limit or offset means
// unset; zero is a valid bound. db itself is never modified.
func (t *Table) PaginateQuery(db *gorm.DB, limit, offset *int) (*PageResult[Record], error) {
	if db == nil {
		return nil, ErrMissingQuery
	}

	ret, err := paginate[Record](db, pageRequest{
		pk:         t.pk,
		limit:      NormalizeLimitMax(limit, t.maxLimit),
		offset:     offset,
		concurrent: t.concurrentPagination,
	})
	if err != nil {
		return nil, err
	}

	t.logger.Debug("paginated query",
		zap.String("table", t.name),
		zap.Int("page", ret.Page),
		zap.Int("limit", ret.Limit),
		zap.Int("offset", ret.Offset),
		zap.Int64("total", ret.Total),
	)

	return ret, nil
}

// Paginate is PaginateQuery for typed rows, e.g. GORM models:
//
//	page, err := gocrud.Paginate[User](db.Model(&User{}).Where("age > ?", 18), "id", lo.ToPtr(10), nil)
func Paginate[T any](db *gorm.DB, pk string, limit, offset *int) (*PageResult[T], error) {
	if db == nil {
		return nil, ErrMissingQuery
	}

	if err := validColumnName(pk); err != nil {
		return nil, fmt.Errorf("%w: primary key: %w", ErrInvalidArgument, err)
	}

	return paginate[T](db, pageRequest{pk: pk, limit: limit, offset: offset})
}

// MySQL accepts OFFSET only after a LIMIT.
var _offsetNeedsLimitDialects = []string{"mysql"}

func paginate[T any](db *gorm.DB, req pageRequest) (*PageResult[T], error) {
	if err := validateBounds(req.limit, req.offset); err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	totalQuery := countQuery(db, req.pk)

	pageQuery := cloneQuery(db)
	if req.limit != nil {
		pageQuery = pageQuery.Limit(*req.limit)
	} else if req.offset != nil && lo.Contains(_offsetNeedsLimitDialects, db.Dialector.Name()) {
		pageQuery = pageQuery.Limit(math.MaxInt)
	}
	if req.offset != nil {
		pageQuery = pageQuery.Offset(*req.offset)
	}

	var (
		rows  []T
		total int64
	)
	fetchRows := func() error { return pageQuery.Find(&rows).Error }
	fetchTotal := func() error { return totalQuery.Count(&total).Error }

	var err error
	if req.concurrent {
		var g errgroup.Group
		g.Go(fetchRows)
		g.Go(fetchTotal)
		err = g.Wait()
	} else if err = fetchRows(); err == nil {
		err = fetchTotal()
	}
	if err != nil {
		return nil, err
	}

	if rows == nil {
		rows = []T{}
	}

	effectiveLimit := lo.FromPtrOr(req.limit, int(total))
	effectiveOffset := lo.FromPtr(req.offset)

	return &PageResult[T]{
		Rows:   rows,
		Page:   pageNumber(effectiveOffset, effectiveLimit, total),
		Limit:  effectiveLimit,
		Offset: effectiveOffset,
		Total:  total,
	}, nil
}

// countQuery rewrites a clone of db into a distinct primary key projection
// without ordering, limit or offset.
func countQuery(db *gorm.DB, pk string) *gorm.DB {
	tx := cloneQuery(db).Distinct(pk)
	delete(tx.Statement.Clauses, "ORDER BY")
	delete(tx.Statement.Clauses, "LIMIT")

	return tx
}

// pageNumber returns ceil(offset / limit). An empty result set or a zero limit
// is page 0.
func pageNumber(offset, limit int, total int64) int {
	if total == 0 || limit <= 0 {
		return 0
	}

	return (offset + limit - 1) / limit
}

func validateBounds(limit, offset *int) error {
	if limit != nil && *limit < 0 {
		return fmt.Errorf("%w: negative limit %d", ErrInvalidArgument, *limit)
	}

	if offset != nil && *offset < 0 {
		return fmt.Errorf("%w: negative offset %d", ErrInvalidArgument, *offset)
	}

	return nil
}
