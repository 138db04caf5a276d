package metadata

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/modelmeta/internal/annotations"
)

// AnnotationSource is the class level annotation naming the data source
// (first argument) and the table (second argument) of a model
const AnnotationSource = "Source"

// Compiler assembles model metadata from reflected annotations. It is safe
// for concurrent use.
type Compiler struct {
	reader   annotations.Reader
	dialects DialectProvider
	profiles Profiles
	logger   *zap.Logger
}

// Option configures a Compiler
type Option func(*Compiler)

// WithLogger sets the logger used for compilation diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithProfile adds or replaces a dialect profile
func WithProfile(p Profile) Option {
	return func(c *Compiler) {
		p.Name = strings.ToLower(p.Name)
		c.profiles[p.Name] = p
	}
}

// NewCompiler creates a compiler. When the dialect provider can enumerate
// its dialects, each of them must have a profile; otherwise an
// *UnknownDialectError is returned so misconfiguration fails at startup.
func NewCompiler(reader annotations.Reader, dialects DialectProvider, opts ...Option) (*Compiler, error) {
	c := &Compiler{
		reader:   reader,
		dialects: dialects,
		profiles: DefaultProfiles(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if lister, ok := dialects.(DialectLister); ok {
		if err := c.profiles.Validate(lister.Dialects()); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Profiles returns the dialect table used by the compiler
func (c *Compiler) Profiles() Profiles {
	return c.profiles
}

// Compile builds the metadata record of a model
func (c *Compiler) Compile(model string) (*ModelMetadata, error) {
	props, err := c.reader.PropertiesAnnotations(model)
	if err != nil {
		return nil, fmt.Errorf("failed to read properties of %s: %w", model, err)
	}
	if props.Len() == 0 {
		return nil, &MissingPropertiesError{Model: model}
	}

	class, err := c.reader.ClassAnnotations(model)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotations of %s: %w", model, err)
	}
	source, ok := SourceOf(class)
	if !ok {
		return nil, &MissingSourceError{Model: model}
	}

	dialect, err := c.dialects.Dialect(source)
	if err != nil {
		return nil, fmt.Errorf("model %s: failed to resolve dialect of source %q: %w", model, source, err)
	}
	profile, ok := c.profiles.Lookup(dialect)
	if !ok {
		return nil, &UnknownDialectError{Model: model, Source: source, Dialect: dialect, Known: c.profiles.Names()}
	}

	meta, err := c.assemble(model, class, props, profile)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("compiled model metadata",
		zap.String("model", model),
		zap.String("source", source),
		zap.String("dialect", profile.Name),
		zap.Int("columns", len(meta.Attributes)),
		zap.Int("indexes", len(meta.Indexes)),
	)
	return meta, nil
}

func (c *Compiler) assemble(model string, class annotations.Collection, props *annotations.PropertyAnnotations, profile Profile) (*ModelMetadata, error) {
	meta := newModelMetadata(model, profile.Name)
	renamed := make(map[string]string)

	var compileErr error
	props.Each(func(name string, coll annotations.Collection) {
		if compileErr != nil {
			return
		}
		col, ok, err := CompileColumn(name, coll, profile)
		if err != nil {
			switch e := err.(type) {
			case *UnknownTypeError:
				e.Model = model
			case *InvalidColumnError:
				e.Model = model
			}
			compileErr = err
			return
		}
		if !ok {
			return
		}
		if col.IsIdentity && meta.IdentityColumn.Valid {
			c.logger.Warn("model declares more than one identity column, keeping the last",
				zap.String("model", model),
				zap.String("previous", meta.IdentityColumn.Column),
				zap.String("column", col.ColumnName),
			)
		}
		if col.ColumnName != name {
			renamed[name] = col.ColumnName
		}
		meta.add(col)
	})
	if compileErr != nil {
		return nil, compileErr
	}

	columns := make(map[string]bool, len(meta.Attributes))
	for _, a := range meta.Attributes {
		columns[a] = true
	}
	for _, idx := range DeriveIndexes(class) {
		if missing := missingColumns(idx, columns); len(missing) > 0 {
			c.logger.Warn("skipping index referencing unknown columns",
				zap.String("model", model),
				zap.String("index", idx.Name),
				zap.Strings("columns", missing),
				zap.Strings("hints", renameHints(missing, renamed)),
			)
			continue
		}
		meta.Indexes = append(meta.Indexes, idx)
	}

	return meta, nil
}

// ColumnMap returns the column map of a model
func (c *Compiler) ColumnMap(model string) (ColumnMap, error) {
	props, err := c.reader.PropertiesAnnotations(model)
	if err != nil {
		return ColumnMap{}, fmt.Errorf("failed to read properties of %s: %w", model, err)
	}
	return BuildColumnMap(props), nil
}

// Sizes returns the explicitly declared column sizes of a model, or nil
// when it has no @Column property
func (c *Compiler) Sizes(model string) (map[string]int, error) {
	props, err := c.reader.PropertiesAnnotations(model)
	if err != nil {
		return nil, fmt.Errorf("failed to read properties of %s: %w", model, err)
	}
	return ExtractSizes(props), nil
}

// SourceOf returns the data source identifier declared by @Source
func SourceOf(class annotations.Collection) (string, bool) {
	a, ok := class.Get(AnnotationSource)
	if !ok {
		return "", false
	}
	source, ok := a.Args.At(0).(string)
	if !ok || source == "" {
		return "", false
	}
	return source, true
}

func missingColumns(idx IndexDefinition, columns map[string]bool) []string {
	var missing []string
	for _, col := range idx.Columns {
		if !columns[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

// renameHints points out index columns that name a renamed property instead
// of its column
func renameHints(missing []string, renamed map[string]string) []string {
	var hints []string
	for _, col := range missing {
		if to, ok := renamed[col]; ok {
			hints = append(hints, fmt.Sprintf("property %s maps to column %s", col, to))
		}
	}
	return hints
}
