package repository

import (
	"fmt"
	"strings"

	"github.com/rpattn/sortable/internal/registry"
)

type sqlBuilder struct {
	args []any
}

func newSQLBuilder() *sqlBuilder {
	return &sqlBuilder{args: make([]any, 0)}
}

func (b *sqlBuilder) addArg(value any) int {
	b.args = append(b.args, value)
	return len(b.args)
}

func (b *sqlBuilder) placeholder(idx int) string {
	return fmt.Sprintf("$%d", idx)
}

// selectQuery assembles one SELECT over an entity type's base table. It is
// the query half the sort compiler drives: compiled plans push ordering
// fragments through Order and relation names through LeftJoin, and the
// repository renders the final statement. Relation names are resolved
// against the type descriptor; the relation name becomes the join alias so
// ordering fragments like "project.name" line up with the joined table.
type selectQuery struct {
	entityType *registry.EntityType
	columns    string
	joins      []string
	joined     map[string]bool
	orders     []string
	err        error
}

func newSelectQuery(entityType *registry.EntityType, columns string) *selectQuery {
	return &selectQuery{
		entityType: entityType,
		columns:    columns,
		joined:     map[string]bool{},
	}
}

func (q *selectQuery) Order(fragment string) {
	if strings.TrimSpace(fragment) == "" {
		return
	}
	q.orders = append(q.orders, fragment)
}

func (q *selectQuery) LeftJoin(relations ...string) {
	for _, name := range relations {
		if q.joined[name] {
			continue
		}
		rel, ok := q.entityType.Relation(name)
		if !ok {
			// Compiled plans only carry declared relations, so reaching this
			// means a custom scope asked for a relation the type never
			// declared. Surface it when the statement is rendered.
			if q.err == nil {
				q.err = fmt.Errorf("relation %s is not declared on entity type %s", name, q.entityType.Name())
			}
			continue
		}
		q.joined[name] = true
		q.joins = append(q.joins, fmt.Sprintf("LEFT JOIN %s AS %s ON %s.%s = %s.%s",
			rel.Table, rel.Name, rel.Name, rel.References, q.entityType.Table(), rel.ForeignKey))
	}
}

// SQL renders the statement. When no ordering was applied the fallback
// keeps pagination deterministic; pass an empty fallback to render without
// an ORDER BY.
func (q *selectQuery) SQL(fallbackOrder string) (string, error) {
	if q.err != nil {
		return "", q.err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(q.columns)
	sb.WriteString(" FROM ")
	sb.WriteString(q.entityType.Table())
	for _, join := range q.joins {
		sb.WriteString(" ")
		sb.WriteString(join)
	}

	order := strings.Join(q.orders, ", ")
	if order == "" {
		order = fallbackOrder
	}
	if order != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(order)
	}
	return sb.String(), nil
}
