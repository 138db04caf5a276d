package relations

import (
	"fmt"

	"github.com/conduit-lang/modelmeta/internal/orm/metadata"
)

// RelationArgumentError is returned when a relation or source annotation
// lacks a required argument or carries one of the wrong shape
type RelationArgumentError struct {
	Model      string
	Annotation string
	Index      int
	Reason     string
}

func (e *RelationArgumentError) Error() string {
	return fmt.Sprintf("model %s: @%s argument %d: %s", e.Model, e.Annotation, e.Index, e.Reason)
}

// Is reports whether target is metadata.ErrConfiguration
func (e *RelationArgumentError) Is(target error) bool {
	return target == metadata.ErrConfiguration
}
