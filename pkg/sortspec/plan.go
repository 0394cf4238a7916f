package sortspec

import "strings"

// Fragment is one accepted ordering expression. Relation names the relation
// the fragment depends on, or is empty for local columns.
type Fragment struct {
	SQL      string
	Relation string
}

// Plan is the compiled form of a sort specification: either an ordered set
// of column fragments plus the joins they require, or a single custom scope
// invocation. The zero Plan is empty and applies nothing.
type Plan struct {
	fragments []Fragment
	joins     []string
	scope     Scope
	scopeDir  Direction
}

// Empty reports whether applying the plan would leave a query unmodified.
func (p Plan) Empty() bool {
	return len(p.fragments) == 0 && p.scope == nil
}

// Fragments returns the accepted ordering fragments in specification order.
func (p Plan) Fragments() []Fragment {
	return p.fragments
}

// Joins returns the relations the plan depends on, deduplicated, in the
// order they were first requested.
func (p Plan) Joins() []string {
	return p.joins
}

// OrderBy renders the fragments as a single ORDER BY expression.
func (p Plan) OrderBy() string {
	parts := make([]string, len(p.fragments))
	for i, f := range p.fragments {
		parts[i] = f.SQL
	}
	return strings.Join(parts, ", ")
}

// Apply pushes the plan onto a query: joins first, then the combined
// ordering expression. Custom plans instead invoke their scope, and any
// error the scope returns propagates unchanged. Applying an empty plan is
// a no-op.
func (p Plan) Apply(q Query) error {
	if p.scope != nil {
		return p.scope(q, p.scopeDir)
	}
	if len(p.fragments) == 0 {
		return nil
	}
	if len(p.joins) > 0 {
		q.LeftJoin(p.joins...)
	}
	q.Order(p.OrderBy())
	return nil
}

// addFragment appends a fragment, recording its relation for joining the
// first time that relation appears.
func (p *Plan) addFragment(f Fragment) {
	p.fragments = append(p.fragments, f)
	if f.Relation == "" {
		return
	}
	for _, j := range p.joins {
		if j == f.Relation {
			return
		}
	}
	p.joins = append(p.joins, f.Relation)
}
