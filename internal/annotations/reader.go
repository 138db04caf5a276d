package annotations

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrModelNotFound is returned by a Reader for a model it does not know
var ErrModelNotFound = errors.New("model not found")

// Reader provides the reflected annotations of a model
type Reader interface {
	// ClassAnnotations returns the model-level annotations
	ClassAnnotations(model string) (Collection, error)
	// PropertiesAnnotations returns the per-property annotations
	PropertiesAnnotations(model string) (*PropertyAnnotations, error)
}

// Model is the reflected annotation set of a single model
type Model struct {
	Name       string
	Class      Collection
	Properties *PropertyAnnotations
}

// StaticReader serves annotations registered ahead of time. It is safe for
// concurrent use.
type StaticReader struct {
	models map[string]*Model
	mu     sync.RWMutex
}

// NewStaticReader creates a reader over the given models
func NewStaticReader(models ...*Model) *StaticReader {
	r := &StaticReader{models: make(map[string]*Model, len(models))}
	for _, m := range models {
		r.Register(m)
	}
	return r
}

// Register adds or replaces a model
func (r *StaticReader) Register(m *Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[m.Name] = m
}

// Model returns a registered model
func (r *StaticReader) Model(name string) (*Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[name]
	return m, ok
}

// Models returns registered model names sorted alphabetically
func (r *StaticReader) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClassAnnotations implements Reader
func (r *StaticReader) ClassAnnotations(model string) (Collection, error) {
	m, ok := r.Model(model)
	if !ok {
		return Collection{}, fmt.Errorf("%w: %s", ErrModelNotFound, model)
	}
	return m.Class, nil
}

// PropertiesAnnotations implements Reader
func (r *StaticReader) PropertiesAnnotations(model string) (*PropertyAnnotations, error) {
	m, ok := r.Model(model)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, model)
	}
	return m.Properties, nil
}

// Builder assembles a Model fluently, mostly for tests and programmatic
// model declarations
type Builder struct {
	model *Model
}

// NewModel starts building the annotations of a model
func NewModel(name string) *Builder {
	return &Builder{model: &Model{Name: name, Properties: NewPropertyAnnotations()}}
}

// Class appends class-level annotations
func (b *Builder) Class(items ...*Annotation) *Builder {
	b.model.Class = NewCollection(append(b.model.Class.All(), items...)...)
	return b
}

// Property declares a property with its annotations
func (b *Builder) Property(name string, items ...*Annotation) *Builder {
	b.model.Properties.Add(name, NewCollection(items...))
	return b
}

// Build returns the assembled model
func (b *Builder) Build() *Model {
	return b.model
}
