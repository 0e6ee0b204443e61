package windowpager

import (
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"
)

// Config holds the sizing parameters shared by every pager.
type Config struct {
	// PageSize is the number of items requested per page.
	PageSize int `mapstructure:"page_size"`
	// Threshold is how close, in items, the visible position may get to an
	// edge before the adjacent page is requested.
	Threshold int `mapstructure:"threshold"`
	// MaxPagesToKeep bounds the window of index-keyed pagers.
	MaxPagesToKeep int `mapstructure:"max_pages_to_keep"`
	// MaxItemsToKeep bounds the window of the filterable pager.
	MaxItemsToKeep int `mapstructure:"max_items_to_keep"`
	// MinItemsToLoad is how many filtered items a partial invalidation
	// gathers around the visible item before publishing.
	MinItemsToLoad int `mapstructure:"min_items_to_load"`
}

// DefaultConfig returns the configuration used by the demo screens.
func DefaultConfig() Config {
	return Config{
		PageSize:       20,
		Threshold:      10,
		MaxPagesToKeep: 5,
		MaxItemsToKeep: 60,
		MinItemsToLoad: 60,
	}
}

type budgetKind int

const (
	budgetPages budgetKind = iota
	budgetItems
)

// validate checks the fields a pager with the given budget kind relies on.
func (c Config) validate(kind budgetKind) error {
	var result *multierror.Error
	if c.PageSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("page size must be positive, got %d", c.PageSize))
	}
	if c.Threshold < 0 {
		result = multierror.Append(result, fmt.Errorf("threshold must not be negative, got %d", c.Threshold))
	}
	switch kind {
	case budgetPages:
		if c.MaxPagesToKeep <= 0 {
			result = multierror.Append(result, fmt.Errorf("max pages to keep must be positive, got %d", c.MaxPagesToKeep))
		}
	case budgetItems:
		if c.MaxItemsToKeep <= 0 {
			result = multierror.Append(result, fmt.Errorf("max items to keep must be positive, got %d", c.MaxItemsToKeep))
		}
		if c.MinItemsToLoad < 0 {
			result = multierror.Append(result, fmt.Errorf("min items to load must not be negative, got %d", c.MinItemsToLoad))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c Config) budget(kind budgetKind) budget {
	if kind == budgetItems {
		return budget{maxItems: c.MaxItemsToKeep}
	}
	return budget{maxPages: c.MaxPagesToKeep}
}

// Option configures a pager.
type Option interface {
	apply(*options)
}

type options struct {
	logger      *slog.Logger
	errorBuffer int
}

func defaultOptions() options {
	return options{
		logger:      slog.Default(),
		errorBuffer: 16,
	}
}

type loggerOption struct {
	logger *slog.Logger
}

func (o loggerOption) apply(opts *options) {
	if o.logger != nil {
		opts.logger = o.logger
	}
}

// WithLogger sets the logger used by the pager.
func WithLogger(logger *slog.Logger) Option {
	return loggerOption{logger: logger}
}

type errorBufferOption int

func (o errorBufferOption) apply(opts *options) {
	if o >= 0 {
		opts.errorBuffer = int(o)
	}
}

// WithErrorBuffer sets how many load errors the error stream buffers before
// further errors are dropped.
func WithErrorBuffer(n int) Option {
	return errorBufferOption(n)
}
