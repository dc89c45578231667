package gocrud

// Package gocrud provides a generic table accessor on top of GORM.
//
// Overview
//
// A Table identifies one relational table by name and exposes record-level
// operations (List, PaginatedList, GetOneBy, InsertOne, UpdateOneBy,
// DeleteOneBy) together with the composition primitives they are built from:
//   - FilterQueryBy: folds an ordered list of Filter functions over a clone of
//     the query. nil filters are skipped.
//   - SearchInQueryBy: attaches one grouped, case-insensitive substring
//     predicate spanning several columns.
//   - OrderQueryBy: applies a single "field:direction" ordering token.
//   - PaginateQuery: runs a bounded page query and an independent
//     COUNT(DISTINCT pk) query, returning a PageResult.
//
// Key concepts
//   - Filter: a func(*gorm.DB) *gorm.DB, the same shape as a GORM scope.
//   - Record: a map[string]any row; every read path runs rows through the
//     table Formatter.
//   - Pipeline: a fluent builder running filter -> search -> order ->
//     paginate -> format in one call. RawPageRequest decodes API payloads
//     into a Pipeline.
//
// Usage
//
//	users, err := gocrud.New("users", gocrud.WithDefaultOrder("name:asc"))
//	if err != nil { ... }
//	users, err = users.Bind(db)
//	if err != nil { ... }
//
//	page, err := users.Pipeline().
//		WithFilters(gocrud.Where("age", gocrud.OperatorGTE, 18)).
//		WithSearch("ann", "name", "email").
//		WithOrder("created_at:desc").
//		WithLimit(20).
//		Paginate(ctx)
