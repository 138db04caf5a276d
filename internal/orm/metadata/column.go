package metadata

import (
	"fmt"

	"github.com/conduit-lang/modelmeta/internal/annotations"
)

// Annotation names recognized on properties
const (
	AnnotationColumn   = "Column"
	AnnotationPrimary  = "Primary"
	AnnotationIdentity = "Identity"
)

// columnType is one row of the type tag table
type columnType struct {
	dataType DataType
	bindType BindType
	numeric  bool
}

var columnTypes = map[string]columnType{
	"integer":   {TypeInteger, BindInt, true},
	"bigint":    {TypeBigInteger, BindInt, true},
	"timestamp": {TypeTimestamp, BindString, false},
	"string":    {TypeVarchar, BindString, false},
	"datetime":  {TypeDatetime, BindString, false},
	"text":      {TypeText, BindString, false},
	"decimal":   {TypeDecimal, BindDecimal, true},
	"float":     {TypeFloat, BindDecimal, true},
	"date":      {TypeDate, BindString, false},
	"boolean":   {TypeBoolean, BindBool, false},
	"json":      {TypeJSON, BindString, false},
	"jsonb":     {TypeJSONB, BindString, false},
	"array":     {TypeArray, BindString, false},
}

// untyped is used when @Column declares no type
var untyped = columnType{TypeVarchar, BindString, false}

// TypeTags returns the supported @Column type vocabulary
func TypeTags() []string {
	return []string{
		"integer", "bigint", "timestamp", "string", "datetime", "text",
		"decimal", "float", "date", "boolean", "json", "jsonb", "array",
	}
}

// ColumnName resolves the column name of a property: the "column" argument
// of @Column when present and non-empty, the property name otherwise.
// CompileColumn rejects an explicit empty name before it gets here.
func ColumnName(property string, column *annotations.Annotation) string {
	if name, ok := column.Args.Str("column"); ok && name != "" {
		return name
	}
	return property
}

// CompileColumn compiles the annotations of one property. The second result
// is false when the property has no @Column annotation and is therefore not
// part of the model.
func CompileColumn(property string, c annotations.Collection, profile Profile) (ColumnDefinition, bool, error) {
	column, ok := c.Get(AnnotationColumn)
	if !ok {
		return ColumnDefinition{}, false, nil
	}
	args := column.Args

	if raw, ok := args.Lookup("column"); ok {
		if name, isStr := raw.(string); !isStr || name == "" {
			return ColumnDefinition{}, true, &InvalidColumnError{Property: property, Reason: "column name must be a non-empty string"}
		}
	}

	def := ColumnDefinition{
		ColumnName:   ColumnName(property, column),
		PropertyName: property,
		IsPrimaryKey: c.Has(AnnotationPrimary),
		IsIdentity:   c.Has(AnnotationIdentity),
	}

	ct := untyped
	var tag string
	if raw, ok := args.Lookup("type"); ok {
		tag, _ = raw.(string)
		known, found := columnTypes[tag]
		if !found {
			return ColumnDefinition{}, true, &UnknownTypeError{Property: property, Type: fmtTag(raw)}
		}
		ct = known
	}
	def.DataType = ct.dataType
	def.BindType = ct.bindType
	def.IsNumeric = ct.numeric

	if size, ok := args.Int("size"); ok {
		def.Size = &size
	} else if tag != "" {
		if size, ok := profile.DefaultSize(tag); ok {
			def.Size = &size
		}
	}

	// Identity columns are always tracked as not null; other columns only
	// when nullable is explicitly set to a falsy value.
	if def.IsIdentity {
		def.NotNull = true
	} else if nullable, ok := args.Lookup("nullable"); ok && !annotations.Truthy(nullable) {
		def.NotNull = true
	}

	return def, true, nil
}

func fmtTag(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
