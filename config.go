package gocrud

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// DefaultPrimaryKey is the primary key column used when none is configured.
const DefaultPrimaryKey = "id"

// InsertStrategy selects how InsertOne obtains the inserted row.
type InsertStrategy string

const (
	// InsertReadLatest inserts and reads back the row with the greatest primary
	// key inside the same transaction. Requires auto-incrementing keys.
	InsertReadLatest InsertStrategy = "read_latest"
	// InsertReturning issues a single INSERT ... RETURNING *. Only dialects
	// supporting RETURNING may use it.
	InsertReturning InsertStrategy = "returning"
)

func (s InsertStrategy) Valid() bool {
	return s == InsertReadLatest || s == InsertReturning
}

// Option configures a Table at construction time.
type Option func(*Table)

// WithPrimaryKey sets the primary key column. Empty values are ignored.
func WithPrimaryKey(pk string) Option {
	return func(t *Table) {
		if pk != "" {
			t.pk = pk
		}
	}
}

// WithDefaultOrder sets the order token used when OrderQueryBy gets none.
// Defaults to "<pk>:asc".
func WithDefaultOrder(token string) Option {
	return func(t *Table) {
		if token != "" {
			t.defaultOrder = token
		}
	}
}

// WithFormatter sets the function every read row passes through.
func WithFormatter(formatter Formatter) Option {
	return func(t *Table) {
		if formatter != nil {
			t.formatter = formatter
		}
	}
}

// WithLogger sets the logger. The table logs at debug level only.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Table) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithLikeFunc replaces the predicate builder used by the search composer.
func WithLikeFunc(like LikeFunc) Option {
	return func(t *Table) {
		if like != nil {
			t.like = like
		}
	}
}

// WithMaxLimit caps the number of rows a page may hold. Zero disables the cap.
func WithMaxLimit(maxLimit int) Option {
	return func(t *Table) {
		t.maxLimit = maxLimit
	}
}

func WithInsertStrategy(strategy InsertStrategy) Option {
	return func(t *Table) {
		if strategy != "" {
			t.insertStrategy = strategy
		}
	}
}

// WithConcurrentPagination runs the page and count queries of PaginateQuery
// concurrently.
//
// IMPORTANT:
// Do not enable it for tables bound to a transaction, database/sql does not
// allow concurrent statements on a single *sql.Tx.
func WithConcurrentPagination(enabled bool) Option {
	return func(t *Table) {
		t.concurrentPagination = enabled
	}
}

// Config is the declarative form of a Table, suitable for configuration files.
type Config struct {
	Table                string         `mapstructure:"table"`
	PrimaryKey           string         `mapstructure:"primary_key"`
	DefaultOrder         string         `mapstructure:"default_order"`
	MaxLimit             int            `mapstructure:"max_limit"`
	InsertStrategy       InsertStrategy `mapstructure:"insert_strategy"`
	ConcurrentPagination bool           `mapstructure:"concurrent_pagination"`
}

// LoadConfig reads a Config from v. When key is not empty the Config is read
// from that sub-tree, e.g. "tables.users".
func LoadConfig(v *viper.Viper, key string) (Config, error) {
	var cfg Config
	if v == nil {
		return cfg, fmt.Errorf("%w: viper instance is nil", ErrConfiguration)
	}

	var err error
	if key == "" {
		err = v.Unmarshal(&cfg)
	} else {
		err = v.UnmarshalKey(key, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("%w: cannot decode table config: %w", ErrConfiguration, err)
	}

	return cfg, nil
}

// Options converts the Config into construction options.
func (c Config) Options() []Option {
	return []Option{
		WithPrimaryKey(c.PrimaryKey),
		WithDefaultOrder(c.DefaultOrder),
		WithMaxLimit(c.MaxLimit),
		WithInsertStrategy(c.InsertStrategy),
		WithConcurrentPagination(c.ConcurrentPagination),
	}
}

// NewFromConfig creates a Table from cfg. Explicit opts are applied after the
// ones derived from cfg and take precedence.
func NewFromConfig(cfg Config, opts ...Option) (*Table, error) {
	return New(cfg.Table, append(cfg.Options(), opts...)...)
}

var _availableColumnNameSymbols = append([]rune("_.'`\""), lo.AlphanumericCharset...)

// validColumnName guards raw identifiers against SQL injection by restricting
// allowed characters.
func validColumnName(column string) error {
	if column == "" {
		return fmt.Errorf("empty column name")
	}

	if !lo.Every(_availableColumnNameSymbols, []rune(column)) {
		return fmt.Errorf("column name contains forbidden symbols '%s'", column)
	}

	return nil
}

func (t *Table) validate() error {
	if err := validColumnName(t.pk); err != nil {
		return fmt.Errorf("%w: primary key: %w", ErrConfiguration, err)
	}

	// An empty default order field resolves to the primary key.
	if column := ParseOrder(t.defaultOrder).Column; column != "" {
		if err := validColumnName(column); err != nil {
			return fmt.Errorf("%w: default order: %w", ErrConfiguration, err)
		}
	}

	if !t.insertStrategy.Valid() {
		return fmt.Errorf("%w: unknown insert strategy '%s'", ErrConfiguration, t.insertStrategy)
	}

	if t.maxLimit < 0 {
		return fmt.Errorf("%w: negative max limit %d", ErrConfiguration, t.maxLimit)
	}

	return nil
}
