// Package annotations defines the typed annotation model that the metadata
// compiler and the relation wirer consume.
//
// An annotation is a named tag with positional and named arguments attached
// to a model (class level) or to one of its properties. Annotations are
// produced by a Reader and are treated as read-only by every consumer.
package annotations

import (
	"fmt"
	"strings"
)

// Annotation is a single named tag with its arguments
type Annotation struct {
	Name string
	Args Arguments
}

// New creates an annotation with the given name and arguments
func New(name string, args Arguments) *Annotation {
	return &Annotation{Name: name, Args: args}
}

// String renders the annotation in docblock form
func (a *Annotation) String() string {
	if a.Args.Len() == 0 {
		return "@" + a.Name
	}
	return fmt.Sprintf("@%s(%s)", a.Name, a.Args.String())
}

// Arguments holds positional and named annotation arguments. Both addressing
// modes coexist: @Column("id", type="integer") has one positional and one
// named argument.
type Arguments struct {
	positional []any
	named      map[string]any
	order      []string
}

// Positional builds arguments from positional values only
func Positional(values ...any) Arguments {
	return Arguments{positional: values}
}

// Named builds arguments from alternating key/value pairs. Keys are kept in
// the given order. It panics on an odd number of values or a non-string key.
func Named(kv ...any) Arguments {
	if len(kv)%2 != 0 {
		panic("annotations: Named requires key/value pairs")
	}
	var args Arguments
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("annotations: key %v is not a string", kv[i]))
		}
		args.Set(key, kv[i+1])
	}
	return args
}

// Append adds a positional argument
func (a *Arguments) Append(v any) {
	a.positional = append(a.positional, v)
}

// Set adds or replaces a named argument
func (a *Arguments) Set(key string, v any) {
	if a.named == nil {
		a.named = make(map[string]any)
	}
	if _, exists := a.named[key]; !exists {
		a.order = append(a.order, key)
	}
	a.named[key] = v
}

// At returns the positional argument at index i, or nil when out of range
func (a Arguments) At(i int) any {
	if i < 0 || i >= len(a.positional) {
		return nil
	}
	return a.positional[i]
}

// HasAt reports whether positional index i is present and non-nil
func (a Arguments) HasAt(i int) bool {
	return a.At(i) != nil
}

// Lookup returns a named argument and whether it was set to a non-nil value
func (a Arguments) Lookup(key string) (any, bool) {
	v, ok := a.named[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Get returns a named argument or nil
func (a Arguments) Get(key string) any {
	v, _ := a.Lookup(key)
	return v
}

// Str returns a named argument when it is a string
func (a Arguments) Str(key string) (string, bool) {
	v, ok := a.Lookup(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int returns a named argument when it holds an integer value
func (a Arguments) Int(key string) (int, bool) {
	v, ok := a.Lookup(key)
	if !ok {
		return 0, false
	}
	return ToInt(v)
}

// Positionals returns a copy of the positional arguments
func (a Arguments) Positionals() []any {
	out := make([]any, len(a.positional))
	copy(out, a.positional)
	return out
}

// Keys returns the named argument keys in declaration order
func (a Arguments) Keys() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Len returns the total number of arguments
func (a Arguments) Len() int {
	return len(a.positional) + len(a.named)
}

// String renders the arguments in docblock form
func (a Arguments) String() string {
	parts := make([]string, 0, a.Len())
	for _, v := range a.positional {
		parts = append(parts, formatValue(v))
	}
	for _, k := range a.order {
		parts = append(parts, k+"="+formatValue(a.named[k]))
	}
	return strings.Join(parts, ", ")
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", val)
	case []any:
		items := make([]string, len(val))
		for i, item := range val {
			items[i] = formatValue(item)
		}
		return "{" + strings.Join(items, ", ") + "}"
	case []string:
		items := make([]string, len(val))
		for i, item := range val {
			items[i] = fmt.Sprintf("%q", item)
		}
		return "{" + strings.Join(items, ", ") + "}"
	case map[string]any:
		keys := sortedKeys(val)
		items := make([]string, len(keys))
		for i, k := range keys {
			items[i] = fmt.Sprintf("%q: %s", k, formatValue(val[k]))
		}
		return "{" + strings.Join(items, ", ") + "}"
	default:
		return fmt.Sprint(val)
	}
}
