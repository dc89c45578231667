package gocrud

import (
	"context"
	"fmt"
	"slices"

	"gorm.io/gorm"
)

// RawPageRequest is intended for API payloads. For proper code generation, inline it:
//
//	type MyFilter struct {
//	    Paging RawPageRequest `json:",inline"`
//	}
type RawPageRequest struct {
	// Limit - maximum number of records to return. Unset returns every record.
	Limit *int `json:"limit,omitempty"`
	// Offset - number of records to skip.
	Offset *int `json:"offset,omitempty"`
	// Order - order token "<field>:<direction>". Empty uses the table default.
	Order string `json:"order,omitempty"`
	// Search - substring searched for case-insensitively.
	Search string `json:"search,omitempty"`
}

// Decode converts RawPageRequest into a *Pipeline over t. searchColumns are the
// columns Search is matched against; without them Search is ignored.
func (r RawPageRequest) Decode(t *Table, searchColumns ...string) *Pipeline {
	return t.Pipeline().
		WithSearch(r.Search, searchColumns...).
		WithOrder(r.Order).
		WithBounds(r.Limit, r.Offset)
}

// Pipeline runs filter -> search -> order -> paginate -> format over a Table.
type Pipeline struct {
	table   *Table
	filters []Filter
	search  string
	columns []string
	order   string
	limit   *int
	offset  *int
}

// Pipeline starts a pipeline over the table.
func (t *Table) Pipeline() *Pipeline {
	return &Pipeline{table: t}
}

// WithFilters appends filters without overwriting existing ones.
func (p *Pipeline) WithFilters(filters ...Filter) *Pipeline {
	if p == nil {
		p = new(Pipeline)
	}

	p.filters = append(p.filters, filters...)

	return p
}

// WithSearch sets the search term and the columns it is matched against.
func (p *Pipeline) WithSearch(term string, columns ...string) *Pipeline {
	if p == nil {
		p = new(Pipeline)
	}

	p.search = term
	p.columns = columns

	return p
}

// WithOrder sets the order token. An empty token uses the table default.
func (p *Pipeline) WithOrder(token string) *Pipeline {
	if p == nil {
		p = new(Pipeline)
	}

	p.order = token

	return p
}

// WithLimit sets the maximum number of returned records.
func (p *Pipeline) WithLimit(limit int) *Pipeline {
	if p == nil {
		p = new(Pipeline)
	}

	p.limit = &limit

	return p
}

// WithOffset sets the number of skipped records.
func (p *Pipeline) WithOffset(offset int) *Pipeline {
	if p == nil {
		p = new(Pipeline)
	}

	p.offset = &offset

	return p
}

// WithUnlimited removes the limit. The table max limit still applies.
func (p *Pipeline) WithUnlimited() *Pipeline {
	if p == nil {
		p = new(Pipeline)
	}

	p.limit = nil

	return p
}

// WithBounds sets limit and offset as optional values, nil meaning unset.
func (p *Pipeline) WithBounds(limit, offset *int) *Pipeline {
	if p == nil {
		p = new(Pipeline)
	}

	p.limit = limit
	p.offset = offset

	return p
}

// GetLimit returns the limit as it is stored in Pipeline. nil means unset.
func (p *Pipeline) GetLimit() *int {
	if p == nil {
		return nil
	}

	return p.limit
}

// GetOffset returns the offset as it is stored in Pipeline. nil means unset.
func (p *Pipeline) GetOffset() *int {
	if p == nil {
		return nil
	}

	return p.offset
}

// Build returns the filtered, searched and ordered query without executing it.
func (p *Pipeline) Build(ctx context.Context) (*gorm.DB, error) {
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("cannot build query: %w", err)
	}

	db, err := p.table.Query(ctx)
	if err != nil {
		return nil, err
	}

	// The search predicate is one more filter, applied after the caller's.
	filters := append(slices.Clone(p.filters), p.table.SearchFilter(p.search, p.columns...))

	db, err = p.table.FilterQueryBy(db, filters...)
	if err != nil {
		return nil, err
	}

	return p.table.OrderQueryBy(db, p.order)
}

// List returns every matching row, formatted. Limit and offset are ignored.
func (p *Pipeline) List(ctx context.Context) ([]Record, error) {
	db, err := p.Build(ctx)
	if err != nil {
		return nil, err
	}

	return p.table.find(db)
}

// Paginate returns one page of matching rows, formatted.
func (p *Pipeline) Paginate(ctx context.Context) (*PageResult[Record], error) {
	db, err := p.Build(ctx)
	if err != nil {
		return nil, err
	}

	return p.table.paginateAndFormat(db, p.limit, p.offset)
}

func (p *Pipeline) validate() error {
	if p == nil || p.table == nil {
		return fmt.Errorf("%w: pipeline is not attached to a table", ErrConfiguration)
	}

	return validateBounds(p.limit, p.offset)
}
