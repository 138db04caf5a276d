package adapter

import (
	"errors"
	"fmt"

	"github.com/conduit-lang/modelmeta/internal/orm/metadata"
)

var (
	// ErrUnknownSource is returned for a data source id that is not configured
	ErrUnknownSource = errors.New("unknown data source")

	// ErrUnsupportedDriver is returned for a driver without a known dialect
	ErrUnsupportedDriver = errors.New("unsupported database driver")

	// ErrInvalidDSN is returned when a data source name cannot be parsed by
	// its driver
	ErrInvalidDSN = errors.New("invalid data source name")

	// ErrDuplicateSource is returned when a data source id is added twice
	ErrDuplicateSource = errors.New("data source already registered")
)

// UnknownSourceError is returned when a data source id is not configured.
// A model bound to such a source is misdeclared, so the error matches both
// ErrUnknownSource and metadata.ErrConfiguration.
type UnknownSourceError struct {
	Source string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownSource, e.Source)
}

// Is reports whether target is ErrUnknownSource or metadata.ErrConfiguration
func (e *UnknownSourceError) Is(target error) bool {
	return target == ErrUnknownSource || target == metadata.ErrConfiguration
}
