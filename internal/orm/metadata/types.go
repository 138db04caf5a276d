// Package metadata compiles model annotations into the canonical,
// dialect-aware metadata record consumed by the persistence layer.
//
// The compiler reads a model's class and property annotations, resolves the
// dialect of the model's data source, and derives for every @Column property
// its column name, data type, bind type, size, nullability, primary-key and
// identity flags. Class level @Index annotations become index definitions.
// Compilation is a pure function of the reflected annotations and the
// dialect; the compiler holds no per-model state.
package metadata

import (
	"encoding/json"
	"fmt"
)

// DataType is the column data type code understood by the persistence layer
type DataType int

const (
	TypeInteger    DataType = 0
	TypeDate       DataType = 1
	TypeVarchar    DataType = 2
	TypeDecimal    DataType = 3
	TypeDatetime   DataType = 4
	TypeChar       DataType = 5
	TypeText       DataType = 6
	TypeFloat      DataType = 7
	TypeBoolean    DataType = 8
	TypeDouble     DataType = 9
	TypeTinyBlob   DataType = 10
	TypeBlob       DataType = 11
	TypeMediumBlob DataType = 12
	TypeLongBlob   DataType = 13
	TypeBigInteger DataType = 14
	TypeJSON       DataType = 15
	TypeJSONB      DataType = 16
	TypeTimestamp  DataType = 17

	// TypeArray has no code in the persistence layer yet; 100 is a placeholder
	TypeArray DataType = 100
)

// String returns the SQL name of the data type
func (d DataType) String() string {
	switch d {
	case TypeInteger:
		return "INTEGER"
	case TypeDate:
		return "DATE"
	case TypeVarchar:
		return "VARCHAR"
	case TypeDecimal:
		return "DECIMAL"
	case TypeDatetime:
		return "DATETIME"
	case TypeChar:
		return "CHAR"
	case TypeText:
		return "TEXT"
	case TypeFloat:
		return "FLOAT"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeDouble:
		return "DOUBLE"
	case TypeTinyBlob:
		return "TINYBLOB"
	case TypeBlob:
		return "BLOB"
	case TypeMediumBlob:
		return "MEDIUMBLOB"
	case TypeLongBlob:
		return "LONGBLOB"
	case TypeBigInteger:
		return "BIGINTEGER"
	case TypeJSON:
		return "JSON"
	case TypeJSONB:
		return "JSONB"
	case TypeTimestamp:
		return "TIMESTAMP"
	case TypeArray:
		return "ARRAY"
	default:
		return fmt.Sprintf("DataType(%d)", int(d))
	}
}

// BindType is the parameter binding category used when sending a value
type BindType int

const (
	BindNull    BindType = 0
	BindInt     BindType = 1
	BindString  BindType = 2
	BindBool    BindType = 5
	BindDecimal BindType = 32
	BindSkip    BindType = 1024
)

// String returns the name of the bind type
func (b BindType) String() string {
	switch b {
	case BindNull:
		return "NULL"
	case BindInt:
		return "INT"
	case BindString:
		return "STRING"
	case BindBool:
		return "BOOL"
	case BindDecimal:
		return "DECIMAL"
	case BindSkip:
		return "SKIP"
	default:
		return fmt.Sprintf("BindType(%d)", int(b))
	}
}

// ColumnDefinition is the compiled form of one @Column property
type ColumnDefinition struct {
	ColumnName   string
	PropertyName string
	DataType     DataType
	BindType     BindType
	IsNumeric    bool
	Size         *int
	NotNull      bool
	IsPrimaryKey bool
	IsIdentity   bool
}

// IndexKind distinguishes plain indexes from unique ones
type IndexKind string

const (
	IndexDefault IndexKind = ""
	IndexUnique  IndexKind = "UNIQUE"
)

// String returns the kind as used in synthesized index names
func (k IndexKind) String() string {
	if k == IndexDefault {
		return "INDEX"
	}
	return string(k)
}

// IndexDefinition is the compiled form of a class level @Index annotation
type IndexDefinition struct {
	Name    string    `json:"name" msgpack:"name"`
	Columns []string  `json:"columns" msgpack:"columns"`
	Kind    IndexKind `json:"type,omitempty" msgpack:"type"`
}

// Identity is the identity column of a model, or absent. An absent identity
// serializes as false, never as an empty string.
type Identity struct {
	Column string
	Valid  bool
}

// IdentityOf returns a present identity for column
func IdentityOf(column string) Identity {
	return Identity{Column: column, Valid: true}
}

// String returns the column name or "false"
func (i Identity) String() string {
	if !i.Valid {
		return "false"
	}
	return i.Column
}

// MarshalJSON encodes an absent identity as false
func (i Identity) MarshalJSON() ([]byte, error) {
	if !i.Valid {
		return []byte("false"), nil
	}
	return json.Marshal(i.Column)
}

// UnmarshalJSON accepts a column name or false
func (i *Identity) UnmarshalJSON(data []byte) error {
	if string(data) == "false" || string(data) == "null" {
		*i = Identity{}
		return nil
	}
	var column string
	if err := json.Unmarshal(data, &column); err != nil {
		return fmt.Errorf("identity column: %w", err)
	}
	*i = IdentityOf(column)
	return nil
}

// ModelMetadata is the compiled metadata record of a model
type ModelMetadata struct {
	Model   string `json:"model" msgpack:"model"`
	Dialect string `json:"dialect" msgpack:"dialect"`

	// Every column in the mapped table
	Attributes []string `json:"attributes" msgpack:"attributes"`
	// Columns that are part of the primary key
	PrimaryKeys []string `json:"primary_keys" msgpack:"primary_keys"`
	// Columns that are not part of the primary key
	NonPrimaryKeys []string `json:"non_primary_keys" msgpack:"non_primary_keys"`
	// Columns that do not allow null values
	NotNull []string `json:"not_null" msgpack:"not_null"`

	DataTypes    map[string]DataType `json:"data_types" msgpack:"data_types"`
	NumericTypes map[string]bool     `json:"numeric_types" msgpack:"numeric_types"`
	BindTypes    map[string]BindType `json:"bind_types" msgpack:"bind_types"`

	IdentityColumn Identity `json:"identity_column" msgpack:"identity_column"`

	// Columns ignored in INSERT and UPDATE statements, default values and
	// columns allowing empty strings. Annotations do not declare these yet,
	// so they are always empty.
	AutomaticDefaultInsert map[string]bool `json:"automatic_default_insert" msgpack:"automatic_default_insert"`
	AutomaticDefaultUpdate map[string]bool `json:"automatic_default_update" msgpack:"automatic_default_update"`
	DefaultValues          map[string]any  `json:"default_values" msgpack:"default_values"`
	EmptyStringValues      map[string]bool `json:"empty_string_values" msgpack:"empty_string_values"`

	Sizes   map[string]int    `json:"sizes" msgpack:"sizes"`
	Indexes []IndexDefinition `json:"indexes" msgpack:"indexes"`

	// Column name to property name, and back
	ColumnMap        map[string]string `json:"column_map" msgpack:"column_map"`
	ReverseColumnMap map[string]string `json:"reverse_column_map" msgpack:"reverse_column_map"`
}

func newModelMetadata(model, dialect string) *ModelMetadata {
	return &ModelMetadata{
		Model:                  model,
		Dialect:                dialect,
		Attributes:             []string{},
		PrimaryKeys:            []string{},
		NonPrimaryKeys:         []string{},
		NotNull:                []string{},
		DataTypes:              make(map[string]DataType),
		NumericTypes:           make(map[string]bool),
		BindTypes:              make(map[string]BindType),
		AutomaticDefaultInsert: make(map[string]bool),
		AutomaticDefaultUpdate: make(map[string]bool),
		DefaultValues:          make(map[string]any),
		EmptyStringValues:      make(map[string]bool),
		Sizes:                  make(map[string]int),
		Indexes:                []IndexDefinition{},
		ColumnMap:              make(map[string]string),
		ReverseColumnMap:       make(map[string]string),
	}
}

// add folds a compiled column into the record
func (m *ModelMetadata) add(col ColumnDefinition) {
	name := col.ColumnName
	m.Attributes = append(m.Attributes, name)
	if col.IsPrimaryKey {
		m.PrimaryKeys = append(m.PrimaryKeys, name)
	} else {
		m.NonPrimaryKeys = append(m.NonPrimaryKeys, name)
	}
	if col.NotNull {
		m.NotNull = append(m.NotNull, name)
	}
	m.DataTypes[name] = col.DataType
	m.BindTypes[name] = col.BindType
	if col.IsNumeric {
		m.NumericTypes[name] = true
	}
	if col.Size != nil {
		m.Sizes[name] = *col.Size
	}
	if col.IsIdentity {
		m.IdentityColumn = IdentityOf(name)
	}
	m.ColumnMap[name] = col.PropertyName
	m.ReverseColumnMap[col.PropertyName] = name
}
