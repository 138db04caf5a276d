package metadata

import (
	"sort"
	"strings"
)

// Dialect identifiers reported by a DialectProvider
const (
	DialectMySQL      = "mysql"
	DialectPostgreSQL = "postgresql"
	DialectSQLite     = "sqlite"
)

// DialectProvider resolves the dialect of a data source. Implementations
// map the source identifier declared by @Source to a dialect identifier.
type DialectProvider interface {
	Dialect(source string) (string, error)
}

// DialectLister is implemented by providers that can enumerate every dialect
// they may report, which lets the compiler validate them up front
type DialectLister interface {
	Dialects() []string
}

// Profile holds the dialect-specific column compilation rules
type Profile struct {
	Name string
	// DefaultSizes maps a column type tag to the size used when the
	// annotation does not declare one
	DefaultSizes map[string]int
}

// DefaultSize returns the implicit size for a type tag
func (p Profile) DefaultSize(typeTag string) (int, bool) {
	size, ok := p.DefaultSizes[typeTag]
	return size, ok
}

// Profiles is a static table of dialect profiles keyed by dialect identifier
type Profiles map[string]Profile

// DefaultProfiles returns the built-in dialect table. PostgreSQL integers
// carry no display width, so only strings get an implicit size there.
func DefaultProfiles() Profiles {
	return Profiles{
		DialectMySQL: {
			Name:         DialectMySQL,
			DefaultSizes: map[string]int{"integer": 11, "string": 255},
		},
		DialectSQLite: {
			Name:         DialectSQLite,
			DefaultSizes: map[string]int{"integer": 11, "string": 255},
		},
		DialectPostgreSQL: {
			Name:         DialectPostgreSQL,
			DefaultSizes: map[string]int{"string": 255},
		},
	}
}

// Lookup returns the profile of a dialect. Identifiers are matched
// case-insensitively.
func (p Profiles) Lookup(dialect string) (Profile, bool) {
	profile, ok := p[strings.ToLower(dialect)]
	return profile, ok
}

// Names returns the known dialects sorted alphabetically
func (p Profiles) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every dialect has a profile
func (p Profiles) Validate(dialects []string) error {
	for _, d := range dialects {
		if _, ok := p.Lookup(d); !ok {
			return &UnknownDialectError{Dialect: d, Known: p.Names()}
		}
	}
	return nil
}
