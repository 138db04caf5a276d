package metadata

import (
	"github.com/conduit-lang/modelmeta/internal/annotations"
)

// ColumnMap relates column names and property names of a model
type ColumnMap struct {
	ColumnToProperty map[string]string `json:"column_map"`
	PropertyToColumn map[string]string `json:"reverse_column_map"`
	// Renamed is set when at least one column name differs from its property
	Renamed bool `json:"renamed"`
}

// BuildColumnMap maps every @Column property to its column name in both
// directions
func BuildColumnMap(props *annotations.PropertyAnnotations) ColumnMap {
	cm := ColumnMap{
		ColumnToProperty: make(map[string]string),
		PropertyToColumn: make(map[string]string),
	}
	props.Each(func(name string, c annotations.Collection) {
		column, ok := c.Get(AnnotationColumn)
		if !ok {
			return
		}
		columnName := ColumnName(name, column)
		cm.ColumnToProperty[columnName] = name
		cm.PropertyToColumn[name] = columnName
		if columnName != name {
			cm.Renamed = true
		}
	})
	return cm
}

// ExtractSizes returns the explicitly declared size of every @Column
// property, keyed by property name. It returns nil when the model has no
// @Column property at all. Dialect default sizes are not included.
func ExtractSizes(props *annotations.PropertyAnnotations) map[string]int {
	var sizes map[string]int
	props.Each(func(name string, c annotations.Collection) {
		column, ok := c.Get(AnnotationColumn)
		if !ok {
			return
		}
		if sizes == nil {
			sizes = make(map[string]int)
		}
		if size, ok := column.Args.Int("size"); ok {
			sizes[name] = size
		}
	})
	return sizes
}
