package generator

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyUniverse       = errors.New("symbol list is empty")
	ErrDuplicateSymbol     = errors.New("duplicate symbol")
	ErrNonPositivePrice    = errors.New("seed price must be positive")
	ErrNegativeVolume      = errors.New("seed volume cannot be negative")
	ErrPriceBelowFloor     = errors.New("seed price is below the price floor")
	ErrNonPositiveInterval = errors.New("tick interval must be positive")

	ErrNotFound         = errors.New("stock not found")
	ErrSchedulerRunning = errors.New("scheduler already running")
)

// ConfigurationError is returned by NewFeed for input the feed cannot start with.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid feed configuration (%s): %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func configErr(field string, err error) error {
	return &ConfigurationError{Field: field, Err: err}
}
