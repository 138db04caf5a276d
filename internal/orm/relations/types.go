// Package relations wires class level relation annotations of a model into
// a model registry.
//
// A model declares its data source and associations in its docblock:
//
//	@Source("db", "robots")
//	@HasMany("id", RobotsParts, "robotsId", {alias: "parts"})
//	@BelongsTo("brandId", Brands, "id")
//
// The Wirer turns each of them into exactly one registry call, in
// declaration order. The registry owns the resulting relation definitions.
package relations

import (
	"fmt"
	"strings"
)

// Kind identifies the type of association
type Kind int

const (
	HasMany Kind = iota
	HasManyToMany
	HasOne
	BelongsTo
)

// String returns the annotation name of the kind
func (k Kind) String() string {
	switch k {
	case HasMany:
		return "HasMany"
	case HasManyToMany:
		return "HasManyToMany"
	case HasOne:
		return "HasOne"
	case BelongsTo:
		return "BelongsTo"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name
func (k *Kind) UnmarshalText(text []byte) error {
	for _, candidate := range []Kind{HasMany, HasManyToMany, HasOne, BelongsTo} {
		if candidate.String() == string(text) {
			*k = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown relation kind %q", text)
}

// Options are the optional settings of a relation, such as its alias
type Options map[string]any

// Alias returns the "alias" option
func (o Options) Alias() string {
	alias, _ := o["alias"].(string)
	return alias
}

// RelationDefinition describes one association of a model. Intermediate
// fields are only set for HasManyToMany.
type RelationDefinition struct {
	Kind                         Kind     `json:"kind"`
	Model                        string   `json:"model"`
	Fields                       []string `json:"fields"`
	IntermediateModel            string   `json:"intermediate_model,omitempty"`
	IntermediateFields           []string `json:"intermediate_fields,omitempty"`
	IntermediateReferencedFields []string `json:"intermediate_referenced_fields,omitempty"`
	ReferencedModel              string   `json:"referenced_model"`
	ReferencedFields             []string `json:"referenced_fields"`
	Options                      Options  `json:"options,omitempty"`
}

// Alias returns the relation alias, if any
func (r *RelationDefinition) Alias() string {
	return r.Options.Alias()
}

// Name returns the alias, or the referenced model when there is none
func (r *RelationDefinition) Name() string {
	if alias := r.Alias(); alias != "" {
		return alias
	}
	return r.ReferencedModel
}

// String renders the relation in a compact, human readable form
func (r *RelationDefinition) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s(%s) -> ", r.Kind, r.Model, strings.Join(r.Fields, ", "))
	if r.Kind == HasManyToMany {
		fmt.Fprintf(&b, "%s(%s | %s) -> ", r.IntermediateModel,
			strings.Join(r.IntermediateFields, ", "),
			strings.Join(r.IntermediateReferencedFields, ", "))
	}
	fmt.Fprintf(&b, "%s(%s)", r.ReferencedModel, strings.Join(r.ReferencedFields, ", "))
	if alias := r.Alias(); alias != "" {
		fmt.Fprintf(&b, " as %s", alias)
	}
	return b.String()
}
