// Package sortspec compiles untrusted, caller-supplied sort specifications
// into the ordering fragments and join requirements a query builder needs.
// A specification is a comma-separated list of fields with optional
// directions ("name:asc,project__code:desc"), or a single custom-scope
// request ("c_urgency:desc"). Every field is validated against the
// allow-list its Source declares before any SQL text is produced.
package sortspec

import (
	"fmt"
	"strings"
)

// Compiler turns raw sort specifications into Plans for one entity type.
// The source, policy and logger are fixed at construction; a Compiler is
// immutable and safe for concurrent use.
type Compiler struct {
	src    Source
	policy Policy
	logger Logger
}

// Option configures optional Compiler collaborators.
type Option func(*Compiler)

// WithLogger sets the sink for lenient-mode warnings. Without it the
// compiler is silent.
func WithLogger(l Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// New builds a Compiler over a source with an explicit violation policy.
func New(src Source, policy Policy, opts ...Option) *Compiler {
	c := &Compiler{src: src, policy: policy}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the violation policy the compiler was built with.
func (c *Compiler) Policy() Policy {
	return c.policy
}

// Compile parses, classifies and validates a raw specification and returns
// the resulting plan. Empty and all-whitespace specifications compile to an
// empty plan. Under Strict the first violation is returned as an error and
// the plan is discarded; under Lenient violations are logged through the
// configured logger, offending tokens are skipped, and critical violations
// yield an empty plan. A custom field with no registered scope is an error
// under both policies.
func (c *Compiler) Compile(raw string) (Plan, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Plan{}, nil
	}
	if IsCustomSpec(trimmed) {
		return c.compileCustom(trimmed)
	}

	var plan Plan
	for _, tok := range Parse(raw) {
		frag, violation := c.buildFragment(tok, trimmed)
		if violation != nil {
			if c.policy == Strict {
				return Plan{}, violation
			}
			c.warnf("ignoring disallowed column: %s", violation.Field)
			continue
		}
		plan.addFragment(frag)
	}
	return plan, nil
}

// Apply compiles a specification and applies the plan to a query in one
// step. The query is left untouched when compilation fails or the plan is
// empty.
func (c *Compiler) Apply(q Query, raw string) error {
	plan, err := c.Compile(raw)
	if err != nil {
		return err
	}
	return plan.Apply(q)
}

// buildFragment validates one token and renders its ordering fragment.
// Allow-list membership is checked on the field exactly as written, before
// any shape handling, so related fields must be allow-listed in their
// "relation__column" form.
func (c *Compiler) buildFragment(tok Token, spec string) (Fragment, *Violation) {
	if !c.src.Sortable(tok.Field) {
		return Fragment{}, &Violation{Kind: ViolationDisallowedField, Field: tok.Field, Spec: spec}
	}

	f := Classify(tok.Field)
	if f.Kind == KindRelated {
		if !c.src.HasRelation(f.Relation) {
			return Fragment{}, &Violation{Kind: ViolationUnknownRelation, Field: tok.Field, Spec: spec}
		}
		return Fragment{
			SQL:      fmt.Sprintf("%s.%s %s %s", f.Relation, f.Column, tok.Direction.SQL(), tok.Direction.NullsDirective()),
			Relation: f.Relation,
		}, nil
	}
	return Fragment{SQL: fmt.Sprintf("%s.%s %s", c.src.Table(), f.Column, tok.Direction.SQL())}, nil
}

// compileCustom handles specifications routed to a registered scope. The
// whole specification must be a single custom field: a comma anywhere in it
// is a critical violation that discards everything.
func (c *Compiler) compileCustom(trimmed string) (Plan, error) {
	if strings.Contains(trimmed, ",") {
		violation := &Violation{Kind: ViolationMultipleCustomScopes, Field: trimmed, Spec: trimmed}
		if c.policy == Strict {
			return Plan{}, violation
		}
		c.warnf("ignoring all columns due to %s", trimmed)
		return Plan{}, nil
	}

	field, dir := splitToken(trimmed)
	if !c.src.Sortable(field) {
		violation := &Violation{Kind: ViolationDisallowedField, Field: field, Spec: trimmed}
		if c.policy == Strict {
			return Plan{}, violation
		}
		c.warnf("ignoring disallowed column: %s", field)
		return Plan{}, nil
	}

	fn, ok := c.src.Scope(field)
	if !ok {
		return Plan{}, &MissingScopeError{Field: field}
	}
	return Plan{scope: fn, scopeDir: dir}, nil
}

// warnf emits a lenient-mode warning. A nil logger is a no-op and a
// panicking logger is swallowed; compilation must not fail because the
// logging sink is broken.
func (c *Compiler) warnf(format string, args ...any) {
	if c.logger == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	c.logger.Warnf(format, args...)
}
