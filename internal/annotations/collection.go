package annotations

// Collection is the set of annotations attached to one declaration site
type Collection struct {
	items []*Annotation
}

// NewCollection creates a collection from annotations in declaration order
func NewCollection(items ...*Annotation) Collection {
	return Collection{items: items}
}

// Has reports whether an annotation with the given name exists
func (c Collection) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Get returns the first annotation with the given name
func (c Collection) Get(name string) (*Annotation, bool) {
	for _, a := range c.items {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// GetAll returns every annotation with the given name, in declaration order
func (c Collection) GetAll(name string) []*Annotation {
	var out []*Annotation
	for _, a := range c.items {
		if a.Name == name {
			out = append(out, a)
		}
	}
	return out
}

// All returns every annotation in declaration order
func (c Collection) All() []*Annotation {
	out := make([]*Annotation, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of annotations
func (c Collection) Len() int {
	return len(c.items)
}

// PropertyAnnotations maps property names to their annotation collections.
// Iteration follows declaration order.
type PropertyAnnotations struct {
	names  []string
	byName map[string]Collection
}

// NewPropertyAnnotations creates an empty property mapping
func NewPropertyAnnotations() *PropertyAnnotations {
	return &PropertyAnnotations{byName: make(map[string]Collection)}
}

// Add records the annotations of a property. Adding a property twice
// replaces its collection but keeps its original position.
func (p *PropertyAnnotations) Add(name string, c Collection) {
	if _, exists := p.byName[name]; !exists {
		p.names = append(p.names, name)
	}
	p.byName[name] = c
}

// Get returns the annotations of a property
func (p *PropertyAnnotations) Get(name string) (Collection, bool) {
	if p == nil {
		return Collection{}, false
	}
	c, ok := p.byName[name]
	return c, ok
}

// Names returns property names in declaration order
func (p *PropertyAnnotations) Names() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Len returns the number of properties
func (p *PropertyAnnotations) Len() int {
	if p == nil {
		return 0
	}
	return len(p.names)
}

// Each calls fn for every property in declaration order
func (p *PropertyAnnotations) Each(fn func(name string, c Collection)) {
	if p == nil {
		return
	}
	for _, name := range p.names {
		fn(name, p.byName[name])
	}
}
