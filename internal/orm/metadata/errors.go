package metadata

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration is matched by every error caused by an invalid model
// declaration. Such errors abort compilation of the model and are not
// retried.
var ErrConfiguration = errors.New("invalid model configuration")

// MissingPropertiesError is returned when a model declares no properties
type MissingPropertiesError struct {
	Model string
}

func (e *MissingPropertiesError) Error() string {
	return fmt.Sprintf("model %s: there are no properties defined on the model", e.Model)
}

// Is reports whether target is ErrConfiguration
func (e *MissingPropertiesError) Is(target error) bool {
	return target == ErrConfiguration
}

// MissingSourceError is returned when a model has no @Source annotation
type MissingSourceError struct {
	Model string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("model %s has no Source defined", e.Model)
}

// Is reports whether target is ErrConfiguration
func (e *MissingSourceError) Is(target error) bool {
	return target == ErrConfiguration
}

// UnknownDialectError is returned when a data source reports a dialect
// without a compilation profile
type UnknownDialectError struct {
	Model   string
	Source  string
	Dialect string
	Known   []string
}

func (e *UnknownDialectError) Error() string {
	var b strings.Builder
	if e.Model != "" {
		fmt.Fprintf(&b, "model %s: ", e.Model)
	}
	fmt.Fprintf(&b, "unknown dialect %q", e.Dialect)
	if e.Source != "" {
		fmt.Fprintf(&b, " for source %q", e.Source)
	}
	if len(e.Known) > 0 {
		fmt.Fprintf(&b, " (known: %s)", strings.Join(e.Known, ", "))
	}
	return b.String()
}

// Is reports whether target is ErrConfiguration
func (e *UnknownDialectError) Is(target error) bool {
	return target == ErrConfiguration
}

// UnknownTypeError is returned for a @Column type outside the supported
// vocabulary
type UnknownTypeError struct {
	Model    string
	Property string
	Type     string
}

func (e *UnknownTypeError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("property %s: unknown column type %q", e.Property, e.Type)
	}
	return fmt.Sprintf("model %s property %s: unknown column type %q", e.Model, e.Property, e.Type)
}

// Is reports whether target is ErrConfiguration
func (e *UnknownTypeError) Is(target error) bool {
	return target == ErrConfiguration
}

// InvalidColumnError is returned for a @Column argument of the wrong shape
type InvalidColumnError struct {
	Model    string
	Property string
	Reason   string
}

func (e *InvalidColumnError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("property %s: %s", e.Property, e.Reason)
	}
	return fmt.Sprintf("model %s property %s: %s", e.Model, e.Property, e.Reason)
}

// Is reports whether target is ErrConfiguration
func (e *InvalidColumnError) Is(target error) bool {
	return target == ErrConfiguration
}

// IsConfigurationError reports whether err was caused by an invalid model
// declaration
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
