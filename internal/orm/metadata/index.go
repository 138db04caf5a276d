package metadata

import (
	"strings"

	"github.com/conduit-lang/modelmeta/internal/annotations"
)

// AnnotationIndex is the repeatable class level index annotation
const AnnotationIndex = "Index"

// DeriveIndexes turns every class level @Index annotation into an index
// definition, in declaration order. Annotations without a non-empty
// "columns" list are skipped. Unrecognized "type" values fall back to a
// plain index.
func DeriveIndexes(class annotations.Collection) []IndexDefinition {
	var indexes []IndexDefinition
	for _, a := range class.GetAll(AnnotationIndex) {
		idx, ok := deriveIndex(a)
		if !ok {
			continue
		}
		indexes = append(indexes, idx)
	}
	return indexes
}

func deriveIndex(a *annotations.Annotation) (IndexDefinition, bool) {
	raw, ok := a.Args.Lookup("columns")
	if !ok || !annotations.IsSequence(raw) {
		return IndexDefinition{}, false
	}
	columns, ok := annotations.ToStrings(raw)
	if !ok || len(columns) == 0 {
		return IndexDefinition{}, false
	}

	kind := IndexDefault
	if t, ok := a.Args.Str("type"); ok && strings.EqualFold(t, "unique") {
		kind = IndexUnique
	}

	name, ok := a.Args.Str("name")
	if !ok || name == "" {
		name = indexName(kind, columns)
	}

	return IndexDefinition{Name: name, Columns: columns, Kind: kind}, true
}

// indexName synthesizes IDX_<KIND>_<COL1>_<COL2>...
func indexName(kind IndexKind, columns []string) string {
	parts := make([]string, 0, len(columns)+2)
	parts = append(parts, "IDX", kind.String())
	for _, c := range columns {
		parts = append(parts, strings.ToUpper(c))
	}
	return strings.Join(parts, "_")
}
