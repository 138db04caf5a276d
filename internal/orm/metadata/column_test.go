package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/modelmeta/internal/annotations"
)

func column(kv ...any) *annotations.Annotation {
	return annotations.New(AnnotationColumn, annotations.Named(kv...))
}

func marker(name string) *annotations.Annotation {
	return annotations.New(name, annotations.Arguments{})
}

func mustProfile(t *testing.T, dialect string) Profile {
	t.Helper()
	p, ok := DefaultProfiles().Lookup(dialect)
	require.True(t, ok, "profile %s", dialect)
	return p
}

func TestCompileColumn_TypeTable(t *testing.T) {
	tests := []struct {
		tag      string
		dataType DataType
		bindType BindType
		numeric  bool
	}{
		{"integer", TypeInteger, BindInt, true},
		{"bigint", TypeBigInteger, BindInt, true},
		{"timestamp", TypeTimestamp, BindString, false},
		{"string", TypeVarchar, BindString, false},
		{"datetime", TypeDatetime, BindString, false},
		{"text", TypeText, BindString, false},
		{"decimal", TypeDecimal, BindDecimal, true},
		{"float", TypeFloat, BindDecimal, true},
		{"date", TypeDate, BindString, false},
		{"boolean", TypeBoolean, BindBool, false},
		{"json", TypeJSON, BindString, false},
		{"jsonb", TypeJSONB, BindString, false},
		{"array", TypeArray, BindString, false},
	}

	profile := mustProfile(t, DialectMySQL)
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			def, ok, err := CompileColumn("field", annotations.NewCollection(column("type", tt.tag)), profile)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.dataType, def.DataType)
			assert.Equal(t, tt.bindType, def.BindType)
			assert.Equal(t, tt.numeric, def.IsNumeric)
		})
	}

	assert.Len(t, TypeTags(), len(tests))
}

func TestCompileColumn_NoColumnAnnotation(t *testing.T) {
	_, ok, err := CompileColumn("transient", annotations.NewCollection(marker(AnnotationPrimary)), mustProfile(t, DialectMySQL))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompileColumn_Untyped(t *testing.T) {
	def, ok, err := CompileColumn("name", annotations.NewCollection(column()), mustProfile(t, DialectMySQL))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "name", def.ColumnName)
	assert.Equal(t, TypeVarchar, def.DataType)
	assert.Equal(t, BindString, def.BindType)
	assert.False(t, def.IsNumeric)
	// Default sizes only apply to declared type tags
	assert.Nil(t, def.Size)
	assert.False(t, def.NotNull)
}

func TestCompileColumn_ColumnName(t *testing.T) {
	def, _, err := CompileColumn("createdAt", annotations.NewCollection(column("column", "created_at", "type", "datetime")), mustProfile(t, DialectMySQL))
	require.NoError(t, err)
	assert.Equal(t, "created_at", def.ColumnName)
	assert.Equal(t, "createdAt", def.PropertyName)
}

func TestCompileColumn_DefaultSizes(t *testing.T) {
	t.Run("integer outside postgresql", func(t *testing.T) {
		for _, dialect := range []string{DialectMySQL, DialectSQLite} {
			def, _, err := CompileColumn("id", annotations.NewCollection(column("type", "integer")), mustProfile(t, dialect))
			require.NoError(t, err)
			require.NotNil(t, def.Size, dialect)
			assert.Equal(t, 11, *def.Size, dialect)
		}
	})

	t.Run("integer on postgresql", func(t *testing.T) {
		def, _, err := CompileColumn("id", annotations.NewCollection(column("type", "integer")), mustProfile(t, DialectPostgreSQL))
		require.NoError(t, err)
		assert.Nil(t, def.Size)
	})

	t.Run("string on every dialect", func(t *testing.T) {
		for _, dialect := range DefaultProfiles().Names() {
			def, _, err := CompileColumn("name", annotations.NewCollection(column("type", "string")), mustProfile(t, dialect))
			require.NoError(t, err)
			require.NotNil(t, def.Size, dialect)
			assert.Equal(t, 255, *def.Size, dialect)
		}
	})

	t.Run("explicit size wins", func(t *testing.T) {
		def, _, err := CompileColumn("name", annotations.NewCollection(column("type", "string", "size", 70)), mustProfile(t, DialectPostgreSQL))
		require.NoError(t, err)
		require.NotNil(t, def.Size)
		assert.Equal(t, 70, *def.Size)
	})

	t.Run("input arguments are not mutated", func(t *testing.T) {
		col := column("type", "integer")
		_, _, err := CompileColumn("id", annotations.NewCollection(col), mustProfile(t, DialectMySQL))
		require.NoError(t, err)
		_, ok := col.Args.Lookup("size")
		assert.False(t, ok)
	})
}

func TestCompileColumn_Nullability(t *testing.T) {
	profile := mustProfile(t, DialectMySQL)

	tests := []struct {
		name    string
		items   []*annotations.Annotation
		notNull bool
	}{
		{"nullable omitted", []*annotations.Annotation{column("type", "string")}, false},
		{"nullable true", []*annotations.Annotation{column("nullable", true)}, false},
		{"nullable false", []*annotations.Annotation{column("nullable", false)}, true},
		{"nullable zero", []*annotations.Annotation{column("nullable", 0)}, true},
		{"identity", []*annotations.Annotation{column("type", "integer"), marker(AnnotationIdentity)}, true},
		{"identity overrides nullable", []*annotations.Annotation{column("type", "integer", "nullable", true), marker(AnnotationIdentity)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, _, err := CompileColumn("id", annotations.NewCollection(tt.items...), profile)
			require.NoError(t, err)
			assert.Equal(t, tt.notNull, def.NotNull)
		})
	}
}

func TestCompileColumn_Keys(t *testing.T) {
	def, _, err := CompileColumn("id", annotations.NewCollection(
		marker(AnnotationPrimary),
		marker(AnnotationIdentity),
		column("type", "integer", "nullable", false),
	), mustProfile(t, DialectMySQL))
	require.NoError(t, err)
	assert.True(t, def.IsPrimaryKey)
	assert.True(t, def.IsIdentity)
}

func TestCompileColumn_UnknownType(t *testing.T) {
	_, ok, err := CompileColumn("payload", annotations.NewCollection(column("type", "blob")), mustProfile(t, DialectMySQL))
	require.Error(t, err)
	assert.True(t, ok)

	var typeErr *UnknownTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "payload", typeErr.Property)
	assert.Equal(t, "blob", typeErr.Type)
	assert.True(t, IsConfigurationError(err))
}

func TestCompileColumn_EmptyColumnName(t *testing.T) {
	for _, name := range []any{"", 42} {
		_, ok, err := CompileColumn("title", annotations.NewCollection(column("column", name, "type", "string")), mustProfile(t, DialectMySQL))
		assert.True(t, ok)

		var target *InvalidColumnError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "title", target.Property)
		assert.True(t, IsConfigurationError(err))
	}
}
