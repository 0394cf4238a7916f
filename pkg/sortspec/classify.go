package sortspec

import "strings"

// relationSeparator splits a related-field identifier into its relation
// name and the column on the related table.
const relationSeparator = "__"

// customPrefix marks a sort specification that names a registered custom
// ordering scope instead of columns.
const customPrefix = "c_"

// FieldKind distinguishes the shapes a sort field can take.
type FieldKind int

const (
	KindLocal FieldKind = iota
	KindRelated
)

// Field is the classified form of a token's field identifier.
type Field struct {
	Kind FieldKind
	// Column is the column name: the whole identifier for local fields,
	// the text after the first relation separator for related fields.
	Column string
	// Relation is the relation name for related fields, empty otherwise.
	Relation string
}

// Classify determines the shape of a field identifier. Identifiers
// containing "__" are related fields, split on the FIRST occurrence so
// that columns whose names themselves contain "__" survive intact.
func Classify(field string) Field {
	if idx := strings.Index(field, relationSeparator); idx >= 0 {
		return Field{
			Kind:     KindRelated,
			Relation: field[:idx],
			Column:   field[idx+len(relationSeparator):],
		}
	}
	return Field{Kind: KindLocal, Column: field}
}

// IsCustomSpec reports whether a raw sort specification routes to a custom
// ordering scope. The check applies to the whole trimmed specification, not
// to individual tokens: a "c_" field appearing after the first position is
// handled like any other column request.
func IsCustomSpec(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), customPrefix)
}
