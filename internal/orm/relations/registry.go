package relations

import (
	"sort"
	"strings"
	"sync"
)

// Registry receives the declarations of models. The Wirer only issues
// calls; de-duplication and override policy belong to the implementation.
type Registry interface {
	SetConnectionService(model, service string)
	SetModelSource(model, source string)
	AddHasMany(model string, fields []string, referencedModel string, referencedFields []string, options Options)
	AddHasManyToMany(model string, fields []string, intermediateModel string, intermediateFields, intermediateReferencedFields []string, referencedModel string, referencedFields []string, options Options)
	AddHasOne(model string, fields []string, referencedModel string, referencedFields []string, options Options)
	AddBelongsTo(model string, fields []string, referencedModel string, referencedFields []string, options Options)
	// MarkInitialized records that a model has been initialized and reports
	// whether this is the first time
	MarkInitialized(model string) bool
}

// ModelRegistry is the in-memory Registry. It is safe for concurrent use.
type ModelRegistry struct {
	services    map[string]string
	sources     map[string]string
	relations   map[string][]*RelationDefinition
	initialized map[string]bool
	mu          sync.RWMutex
}

// NewModelRegistry creates an empty registry
func NewModelRegistry() *ModelRegistry {
	return &ModelRegistry{
		services:    make(map[string]string),
		sources:     make(map[string]string),
		relations:   make(map[string][]*RelationDefinition),
		initialized: make(map[string]bool),
	}
}

// SetConnectionService binds a model to a connection service
func (r *ModelRegistry) SetConnectionService(model, service string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[model] = service
}

// SetModelSource sets the table a model is mapped to
func (r *ModelRegistry) SetModelSource(model, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[model] = source
}

// AddHasMany registers a one-to-many association
func (r *ModelRegistry) AddHasMany(model string, fields []string, referencedModel string, referencedFields []string, options Options) {
	r.add(&RelationDefinition{
		Kind:             HasMany,
		Model:            model,
		Fields:           fields,
		ReferencedModel:  referencedModel,
		ReferencedFields: referencedFields,
		Options:          options,
	})
}

// AddHasManyToMany registers a many-to-many association through an
// intermediate model
func (r *ModelRegistry) AddHasManyToMany(model string, fields []string, intermediateModel string, intermediateFields, intermediateReferencedFields []string, referencedModel string, referencedFields []string, options Options) {
	r.add(&RelationDefinition{
		Kind:                         HasManyToMany,
		Model:                        model,
		Fields:                       fields,
		IntermediateModel:            intermediateModel,
		IntermediateFields:           intermediateFields,
		IntermediateReferencedFields: intermediateReferencedFields,
		ReferencedModel:              referencedModel,
		ReferencedFields:             referencedFields,
		Options:                      options,
	})
}

// AddHasOne registers a one-to-one association
func (r *ModelRegistry) AddHasOne(model string, fields []string, referencedModel string, referencedFields []string, options Options) {
	r.add(&RelationDefinition{
		Kind:             HasOne,
		Model:            model,
		Fields:           fields,
		ReferencedModel:  referencedModel,
		ReferencedFields: referencedFields,
		Options:          options,
	})
}

// AddBelongsTo registers the inverse side of a one-to-one or one-to-many
// association
func (r *ModelRegistry) AddBelongsTo(model string, fields []string, referencedModel string, referencedFields []string, options Options) {
	r.add(&RelationDefinition{
		Kind:             BelongsTo,
		Model:            model,
		Fields:           fields,
		ReferencedModel:  referencedModel,
		ReferencedFields: referencedFields,
		Options:          options,
	})
}

// add stores a relation. A relation whose alias matches an existing one of
// the same model (case-insensitively) replaces it.
func (r *ModelRegistry) add(rel *RelationDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.relations[rel.Model]
	if alias := strings.ToLower(rel.Alias()); alias != "" {
		for i, other := range existing {
			if strings.ToLower(other.Alias()) == alias {
				existing[i] = rel
				return
			}
		}
	}
	r.relations[rel.Model] = append(existing, rel)
}

// MarkInitialized implements Registry
func (r *ModelRegistry) MarkInitialized(model string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized[model] {
		return false
	}
	r.initialized[model] = true
	return true
}

// IsInitialized reports whether a model has been initialized
func (r *ModelRegistry) IsInitialized(model string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized[model]
}

// ConnectionService returns the connection service of a model
func (r *ModelRegistry) ConnectionService(model string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	service, ok := r.services[model]
	return service, ok
}

// Source returns the table a model is mapped to
func (r *ModelRegistry) Source(model string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	source, ok := r.sources[model]
	return source, ok
}

// Relations returns a copy of the relations of a model in registration order
func (r *ModelRegistry) Relations(model string) []RelationDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RelationDefinition, 0, len(r.relations[model]))
	for _, rel := range r.relations[model] {
		out = append(out, *rel)
	}
	return out
}

// Relation looks up a relation of a model by alias or referenced model name
func (r *ModelRegistry) Relation(model, name string) (RelationDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rel := range r.relations[model] {
		if strings.EqualFold(rel.Name(), name) {
			return *rel, true
		}
	}
	return RelationDefinition{}, false
}

// Models returns every model known to the registry, sorted
func (r *ModelRegistry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for m := range r.services {
		seen[m] = true
	}
	for m := range r.sources {
		seen[m] = true
	}
	for m := range r.relations {
		seen[m] = true
	}
	for m := range r.initialized {
		seen[m] = true
	}

	names := make([]string, 0, len(seen))
	for m := range seen {
		names = append(names, m)
	}
	sort.Strings(names)
	return names
}

// Clear removes everything from the registry (useful for testing)
func (r *ModelRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.services = make(map[string]string)
	r.sources = make(map[string]string)
	r.relations = make(map[string][]*RelationDefinition)
	r.initialized = make(map[string]bool)
}

// RegistryStats summarizes the content of a registry
type RegistryStats struct {
	TotalModels    int          `json:"total_models"`
	TotalRelations int          `json:"total_relations"`
	ByKind         map[Kind]int `json:"by_kind"`
	Initialized    int          `json:"initialized"`
}

// Stats returns statistics about the registry
func (r *ModelRegistry) Stats() *RegistryStats {
	models := r.Models()

	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &RegistryStats{
		TotalModels: len(models),
		ByKind:      make(map[Kind]int),
		Initialized: len(r.initialized),
	}
	for _, rels := range r.relations {
		stats.TotalRelations += len(rels)
		for _, rel := range rels {
			stats.ByKind[rel.Kind]++
		}
	}
	return stats
}
