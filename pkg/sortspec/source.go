package sortspec

// Query is the slice of a query builder the compiler drives. Order appends
// a complete ORDER BY expression; LeftJoin requests LEFT OUTER joins for
// the named relations. Implementations decide how relation names map onto
// actual join clauses.
type Query interface {
	Order(fragment string)
	LeftJoin(relations ...string)
}

// Scope applies a named custom ordering to a query. The direction is the
// one requested in the specification; scopes decide what honoring it means.
type Scope func(q Query, dir Direction) error

// Source declares the sortable surface of one entity type: its base table,
// the allow-list of legal sort fields, its joinable relations, and any
// registered custom ordering scopes. Sources must be immutable once handed
// to a Compiler; that is what makes compilation safe for concurrent use.
type Source interface {
	// Table returns the base table name used to qualify local columns.
	Table() string
	// Sortable reports whether a field identifier, exactly as written in
	// the specification, is on the allow-list.
	Sortable(field string) bool
	// HasRelation reports whether a relation name is declared on the type.
	HasRelation(name string) bool
	// Scope returns the custom ordering registered under a custom field
	// name, if any.
	Scope(field string) (Scope, bool)
}
