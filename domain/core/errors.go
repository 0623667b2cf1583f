package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound       = errors.New("resource not found")
	ErrColumnNotFound = fmt.Errorf("%w: column", ErrNotFound)
	ErrSampleNotFound = fmt.Errorf("%w: sample dataset", ErrNotFound)

	// Loading errors
	ErrNoSupportedEncoding = errors.New("no supported encoding could decode the file")
	ErrEmptyFile           = errors.New("file has no header row")
	ErrUnsupportedFormat   = errors.New("unsupported file format")

	// Analysis errors
	ErrColumnNotNumeric  = errors.New("column is not numeric")
	ErrNotDatetime       = errors.New("column cannot be converted to dates")
	ErrInsufficientData  = errors.New("insufficient data for analysis")
	ErrUnknownMethod     = errors.New("unknown detection method")
	ErrNotEnoughNumerics = errors.New("not enough numeric columns")

	// Chart errors
	ErrUnsupportedChart = errors.New("unsupported chart type")
	ErrMissingAxis      = errors.New("chart axis column not specified")
)

// NewColumnNotFoundError names the column that could not be resolved
func NewColumnNotFoundError(column string) error {
	return fmt.Errorf("%w: '%s' does not exist", ErrColumnNotFound, column)
}

// NewColumnNotNumericError names the column that failed a numeric requirement
func NewColumnNotNumericError(column string) error {
	return fmt.Errorf("%w: '%s'", ErrColumnNotNumeric, column)
}

func NewInsufficientDataError(have, need int) error {
	return fmt.Errorf("%w: have %d rows, need at least %d", ErrInsufficientData, have, need)
}
