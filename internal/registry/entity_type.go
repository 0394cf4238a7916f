package registry

import (
	"fmt"
	"strings"

	"github.com/rpattn/sortable/pkg/sortspec"
)

// Relation describes how a named relation of an entity type joins onto its
// base table. The relation name doubles as the SQL alias of the joined
// table, which is what lets sort fragments reference "project.name" no
// matter what the target table is called.
type Relation struct {
	Name       string
	Table      string
	ForeignKey string
	References string
}

// EntityType is the immutable sort surface of one entity type: its base
// table, the allow-list of sortable fields, its joinable relations and its
// custom ordering scopes. Instances are built once through a Builder and
// never mutated afterwards, so they are safe to share across requests.
type EntityType struct {
	name      string
	table     string
	fields    []string
	fieldSet  map[string]struct{}
	relations map[string]Relation
	scopes    map[string]sortspec.Scope
}

// Name returns the registered entity type name.
func (t *EntityType) Name() string {
	return t.name
}

// Table returns the base table used to qualify local sort columns.
func (t *EntityType) Table() string {
	return t.table
}

// Sortable reports whether a field identifier is on the allow-list.
func (t *EntityType) Sortable(field string) bool {
	_, ok := t.fieldSet[field]
	return ok
}

// HasRelation reports whether a relation name is declared.
func (t *EntityType) HasRelation(name string) bool {
	_, ok := t.relations[name]
	return ok
}

// Scope returns the custom ordering registered under a field name.
func (t *EntityType) Scope(field string) (sortspec.Scope, bool) {
	fn, ok := t.scopes[field]
	return fn, ok
}

// Relation returns the join description for a declared relation.
func (t *EntityType) Relation(name string) (Relation, bool) {
	rel, ok := t.relations[name]
	return rel, ok
}

// SortableFields returns a copy of the allow-list in declaration order.
func (t *EntityType) SortableFields() []string {
	return append([]string(nil), t.fields...)
}

// Builder assembles an EntityType. Calls chain; the first invalid input
// sticks and is reported by Build, so wiring code can stay linear.
type Builder struct {
	name      string
	table     string
	fields    []string
	relations map[string]Relation
	scopes    map[string]sortspec.Scope
	err       error
}

// NewType starts a builder for an entity type backed by a base table.
func NewType(name, table string) *Builder {
	b := &Builder{
		name:      name,
		table:     table,
		relations: map[string]Relation{},
		scopes:    map[string]sortspec.Scope{},
	}
	if err := validIdentifier(name); err != nil {
		b.fail(fmt.Errorf("entity type name: %w", err))
	}
	if err := validIdentifier(table); err != nil {
		b.fail(fmt.Errorf("entity type %s table: %w", name, err))
	}
	return b
}

// SortableBy replaces the allow-list wholesale. A later call discards
// whatever an earlier call declared; lists are never merged.
func (b *Builder) SortableBy(fields ...string) *Builder {
	b.fields = append([]string(nil), fields...)
	for _, field := range fields {
		if err := validFieldIdentifier(field); err != nil {
			b.fail(fmt.Errorf("entity type %s sortable field: %w", b.name, err))
		}
	}
	return b
}

// Relation declares a joinable relation. The name becomes the join alias
// sort fields reference in their "relation__column" form; foreignKey is the
// column on the base table and references the column on the target table.
func (b *Builder) Relation(name, table, foreignKey, references string) *Builder {
	for _, id := range []string{name, table, foreignKey, references} {
		if err := validIdentifier(id); err != nil {
			b.fail(fmt.Errorf("entity type %s relation %s: %w", b.name, name, err))
			return b
		}
	}
	if _, exists := b.relations[name]; exists {
		b.fail(fmt.Errorf("entity type %s declares relation %s twice", b.name, name))
		return b
	}
	b.relations[name] = Relation{Name: name, Table: table, ForeignKey: foreignKey, References: references}
	return b
}

// CustomScope registers a custom ordering under a field name. The field
// must carry the custom prefix and the scope must be callable; both are
// checked here because a bad registration is a wiring bug that should
// surface at startup, not at request time.
func (b *Builder) CustomScope(field string, fn sortspec.Scope) *Builder {
	if !strings.HasPrefix(field, "c_") {
		b.fail(fmt.Errorf("entity type %s custom scope %q must start with c_", b.name, field))
		return b
	}
	if err := validFieldIdentifier(field); err != nil {
		b.fail(fmt.Errorf("entity type %s custom scope: %w", b.name, err))
		return b
	}
	if fn == nil {
		b.fail(fmt.Errorf("entity type %s custom scope %s has nil implementation", b.name, field))
		return b
	}
	if _, exists := b.scopes[field]; exists {
		b.fail(fmt.Errorf("entity type %s registers custom scope %s twice", b.name, field))
		return b
	}
	b.scopes[field] = fn
	return b
}

// Build finalizes the descriptor, reporting the first error any builder
// call recorded.
func (b *Builder) Build() (*EntityType, error) {
	if b.err != nil {
		return nil, b.err
	}

	t := &EntityType{
		name:      b.name,
		table:     b.table,
		fields:    append([]string(nil), b.fields...),
		fieldSet:  make(map[string]struct{}, len(b.fields)),
		relations: make(map[string]Relation, len(b.relations)),
		scopes:    make(map[string]sortspec.Scope, len(b.scopes)),
	}
	for _, field := range b.fields {
		t.fieldSet[field] = struct{}{}
	}
	for name, rel := range b.relations {
		t.relations[name] = rel
	}
	for field, fn := range b.scopes {
		t.scopes[field] = fn
	}
	return t, nil
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// validIdentifier accepts the SQL identifiers this package ever splices
// into statements: letters, digits and underscores, not starting with a
// digit. Everything else is rejected so that caller-supplied configuration
// can never smuggle SQL text through a table, column or relation name.
func validIdentifier(s string) error {
	if s == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	for i, char := range s {
		switch {
		case char >= 'a' && char <= 'z':
		case char >= 'A' && char <= 'Z':
		case char == '_':
		case char >= '0' && char <= '9':
			if i == 0 {
				return fmt.Errorf("identifier %q cannot start with a digit", s)
			}
		default:
			return fmt.Errorf("identifier %q contains invalid character %q", s, char)
		}
	}
	return nil
}

// validFieldIdentifier additionally allows the "relation__column" form used
// by allow-list entries: both halves must be valid identifiers themselves.
func validFieldIdentifier(s string) error {
	if idx := strings.Index(s, "__"); idx >= 0 {
		if err := validIdentifier(s[:idx]); err != nil {
			return err
		}
		return validIdentifier(s[idx+2:])
	}
	return validIdentifier(s)
}
