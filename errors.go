package gocrud

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a table that cannot be used as configured.
	ErrConfiguration = errors.New("configuration error")
	// ErrInvalidArgument marks a programmer error in a call to the package.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMissingData is returned by write operations called with an empty payload.
	ErrMissingData = errors.New("missing data")

	ErrMissingTableName = fmt.Errorf("%w: missing table name", ErrConfiguration)
	ErrMissingEngine    = fmt.Errorf("%w: missing gorm binding", ErrConfiguration)
	ErrMissingQuery     = fmt.Errorf("%w: missing query", ErrInvalidArgument)

	// ErrReturningUnsupported is returned by InsertOne under InsertReturning
	// when the dialect did not hand back the inserted row.
	ErrReturningUnsupported = errors.New("dialect does not support INSERT ... RETURNING")
)
