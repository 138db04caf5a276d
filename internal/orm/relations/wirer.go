package relations

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/modelmeta/internal/annotations"
	"github.com/conduit-lang/modelmeta/internal/orm/metadata"
)

// arity is the number of required positional arguments per annotation. The
// argument following the required ones holds the options.
var arity = map[string]int{
	"HasMany":       3,
	"HasManyToMany": 6,
	"HasOne":        3,
	"BelongsTo":     3,
}

// Wirer registers the source and relations declared by a model's class
// annotations
type Wirer struct {
	reader   annotations.Reader
	registry Registry
	logger   *zap.Logger
}

// NewWirer creates a wirer. A nil logger disables logging.
func NewWirer(reader annotations.Reader, registry Registry, logger *zap.Logger) *Wirer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Wirer{reader: reader, registry: registry, logger: logger}
}

// Initialize wires a model once. Subsequent calls for the same model are
// no-ops; the first reports whether wiring happened. A model whose
// annotations are invalid is left untouched and unmarked.
func (w *Wirer) Initialize(model string) (bool, error) {
	class, err := w.reader.ClassAnnotations(model)
	if err != nil {
		return false, fmt.Errorf("failed to read annotations of %s: %w", model, err)
	}
	steps, err := w.plan(model, class)
	if err != nil {
		return false, err
	}
	if !w.registry.MarkInitialized(model) {
		return false, nil
	}
	apply(steps)
	return true, nil
}

// Wire issues one registry call per recognized annotation, in declaration
// order. Unrelated annotations are ignored and an empty collection is a
// no-op. Every annotation is checked before the first call, so an error
// leaves the registry unchanged.
func (w *Wirer) Wire(model string, class annotations.Collection) error {
	steps, err := w.plan(model, class)
	if err != nil {
		return err
	}
	apply(steps)
	return nil
}

// plan validates the class annotations and returns the registry calls they
// translate to
func (w *Wirer) plan(model string, class annotations.Collection) ([]func(), error) {
	var steps []func()
	for _, a := range class.All() {
		var (
			step []func()
			err  error
		)
		switch a.Name {
		case metadata.AnnotationSource:
			step, err = w.wireSource(model, a)
		case "HasMany", "HasManyToMany", "HasOne", "BelongsTo":
			step, err = w.wireRelation(model, a)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		steps = append(steps, step...)
	}
	return steps, nil
}

func apply(steps []func()) {
	for _, step := range steps {
		step()
	}
}

func (w *Wirer) wireSource(model string, a *annotations.Annotation) ([]func(), error) {
	service, err := stringArg(model, a, 0)
	if err != nil {
		return nil, err
	}
	steps := []func(){func() { w.registry.SetConnectionService(model, service) }}

	if !a.Args.HasAt(1) {
		return steps, nil
	}
	source, err := stringArg(model, a, 1)
	if err != nil {
		return nil, err
	}
	return append(steps, func() {
		w.registry.SetModelSource(model, source)
		w.logger.Debug("bound model source",
			zap.String("model", model),
			zap.String("service", service),
			zap.String("source", source),
		)
	}), nil
}

func (w *Wirer) wireRelation(model string, a *annotations.Annotation) ([]func(), error) {
	required := arity[a.Name]
	if n := len(a.Args.Positionals()); n < required {
		return nil, &RelationArgumentError{
			Model:      model,
			Annotation: a.Name,
			Index:      n,
			Reason:     fmt.Sprintf("expected at least %d arguments, got %d", required, n),
		}
	}

	options, err := optionsArg(model, a, required)
	if err != nil {
		return nil, err
	}

	// Positions shared by every kind: local fields first, referenced model
	// and fields last
	fields, err := fieldsArg(model, a, 0)
	if err != nil {
		return nil, err
	}
	referencedModel, err := stringArg(model, a, required-2)
	if err != nil {
		return nil, err
	}
	referencedFields, err := fieldsArg(model, a, required-1)
	if err != nil {
		return nil, err
	}

	var register func()
	switch a.Name {
	case "HasMany":
		register = func() { w.registry.AddHasMany(model, fields, referencedModel, referencedFields, options) }
	case "HasOne":
		register = func() { w.registry.AddHasOne(model, fields, referencedModel, referencedFields, options) }
	case "BelongsTo":
		register = func() { w.registry.AddBelongsTo(model, fields, referencedModel, referencedFields, options) }
	case "HasManyToMany":
		intermediateModel, err := stringArg(model, a, 1)
		if err != nil {
			return nil, err
		}
		intermediateFields, err := fieldsArg(model, a, 2)
		if err != nil {
			return nil, err
		}
		intermediateReferencedFields, err := fieldsArg(model, a, 3)
		if err != nil {
			return nil, err
		}
		register = func() {
			w.registry.AddHasManyToMany(model, fields, intermediateModel, intermediateFields,
				intermediateReferencedFields, referencedModel, referencedFields, options)
		}
	}

	return []func(){func() {
		register()
		w.logger.Debug("registered relation",
			zap.String("model", model),
			zap.String("kind", a.Name),
			zap.String("referenced_model", referencedModel),
			zap.String("alias", options.Alias()),
		)
	}}, nil
}

func stringArg(model string, a *annotations.Annotation, i int) (string, error) {
	s, ok := a.Args.At(i).(string)
	if !ok || s == "" {
		return "", &RelationArgumentError{Model: model, Annotation: a.Name, Index: i, Reason: "expected a non-empty name"}
	}
	return s, nil
}

// fieldsArg accepts a single field name or a list of them
func fieldsArg(model string, a *annotations.Annotation, i int) ([]string, error) {
	fields, ok := annotations.ToStrings(a.Args.At(i))
	if !ok || len(fields) == 0 {
		return nil, &RelationArgumentError{Model: model, Annotation: a.Name, Index: i, Reason: "expected a field name or a list of field names"}
	}
	return fields, nil
}

// optionsArg returns nil when the options argument is absent or empty
func optionsArg(model string, a *annotations.Annotation, i int) (Options, error) {
	switch v := a.Args.At(i).(type) {
	case nil:
		return nil, nil
	case map[string]any:
		if len(v) == 0 {
			return nil, nil
		}
		options := make(Options, len(v))
		for k, val := range v {
			options[k] = val
		}
		return options, nil
	case []any:
		if len(v) == 0 {
			return nil, nil
		}
	}
	return nil, &RelationArgumentError{Model: model, Annotation: a.Name, Index: i, Reason: "options must be a map"}
}
