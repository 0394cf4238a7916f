package sortspec

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func newTaskSource() *stubSource {
	return &stubSource{
		table: "tasks",
		fields: map[string]bool{
			"name":            true,
			"status":          true,
			"priority":        true,
			"project__name":   true,
			"project__code":   true,
			"assignee__email": true,
			"owner__name":     true,
			"c_urgency":       true,
			"c_rank":          true,
		},
		relations: map[string]bool{
			"project":  true,
			"assignee": true,
		},
		scopes: map[string]Scope{},
	}
}

func TestCompileEmptySpecIsNoOp(t *testing.T) {
	c := New(newTaskSource(), Strict)
	for _, raw := range []string{"", "   ", ","} {
		plan, err := c.Compile(raw)
		if err != nil {
			t.Fatalf("Compile(%q) returned error: %v", raw, err)
		}
		if !plan.Empty() {
			t.Fatalf("Compile(%q): expected empty plan, got %+v", raw, plan)
		}

		q := &recordingQuery{}
		if err := plan.Apply(q); err != nil {
			t.Fatalf("Apply returned error: %v", err)
		}
		if len(q.orders) != 0 || len(q.joins) != 0 {
			t.Fatalf("expected untouched query, got orders=%v joins=%v", q.orders, q.joins)
		}
	}
}

func TestCompileLocalField(t *testing.T) {
	c := New(newTaskSource(), Strict)
	plan, err := c.Compile("name:desc")
	if err != nil {
		t.Fatalf("compile returned error: %v", err)
	}
	if got := plan.OrderBy(); got != "tasks.name DESC" {
		t.Fatalf("unexpected order by: %q", got)
	}
	if len(plan.Joins()) != 0 {
		t.Fatalf("local field should need no joins, got %v", plan.Joins())
	}
}

func TestCompileInvalidDirectionDefaultsAscending(t *testing.T) {
	c := New(newTaskSource(), Strict)
	plan, err := c.Compile("name:DESC")
	if err != nil {
		t.Fatalf("compile returned error: %v", err)
	}
	if got := plan.OrderBy(); got != "tasks.name ASC" {
		t.Fatalf("expected uppercase direction to default to ASC, got %q", got)
	}
}

func TestCompileRelatedFieldNullsPlacement(t *testing.T) {
	c := New(newTaskSource(), Strict)

	plan, err := c.Compile("project__name:asc")
	if err != nil {
		t.Fatalf("compile returned error: %v", err)
	}
	if got := plan.OrderBy(); got != "project.name ASC NULLS LAST" {
		t.Fatalf("unexpected ascending fragment: %q", got)
	}

	plan, err = c.Compile("project__name:desc")
	if err != nil {
		t.Fatalf("compile returned error: %v", err)
	}
	if got := plan.OrderBy(); got != "project.name DESC NULLS FIRST" {
		t.Fatalf("unexpected descending fragment: %q", got)
	}
	if len(plan.Joins()) != 1 || plan.Joins()[0] != "project" {
		t.Fatalf("expected project join, got %v", plan.Joins())
	}
}

func TestCompileDeduplicatesJoins(t *testing.T) {
	c := New(newTaskSource(), Strict)
	plan, err := c.Compile("project__name,assignee__email:desc,project__code")
	if err != nil {
		t.Fatalf("compile returned error: %v", err)
	}
	if len(plan.Fragments()) != 3 {
		t.Fatalf("expected 3 fragments, got %d", len(plan.Fragments()))
	}
	joins := plan.Joins()
	if len(joins) != 2 || joins[0] != "project" || joins[1] != "assignee" {
		t.Fatalf("expected first-seen deduplicated joins, got %v", joins)
	}
}

func TestCompilePreservesPrecedence(t *testing.T) {
	c := New(newTaskSource(), Strict)
	plan, err := c.Compile("status,priority:desc,project__name")
	if err != nil {
		t.Fatalf("compile returned error: %v", err)
	}
	want := "tasks.status ASC, tasks.priority DESC, project.name ASC NULLS LAST"
	if got := plan.OrderBy(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestCompileStrictRejectsDisallowedField(t *testing.T) {
	c := New(newTaskSource(), Strict)
	plan, err := c.Compile("name,password")
	if err == nil {
		t.Fatalf("expected error for disallowed field")
	}
	var v *Violation
	if !errors.As(err, &v) {
		t.Fatalf("expected *Violation, got %T: %v", err, err)
	}
	if v.Kind != ViolationDisallowedField || v.Field != "password" {
		t.Fatalf("unexpected violation: %+v", v)
	}
	if v.Critical() {
		t.Fatalf("disallowed field should not be critical")
	}
	if !plan.Empty() {
		t.Fatalf("expected discarded plan, got %+v", plan)
	}
}

func TestCompileLenientSkipsDisallowedField(t *testing.T) {
	logger := &captureLogger{}
	c := New(newTaskSource(), Lenient, WithLogger(logger))

	plan, err := c.Compile("name,password,status")
	if err != nil {
		t.Fatalf("lenient compile returned error: %v", err)
	}
	if got := plan.OrderBy(); got != "tasks.name ASC, tasks.status ASC" {
		t.Fatalf("expected surviving fields only, got %q", got)
	}
	if len(logger.messages) != 1 || logger.messages[0] != "ignoring disallowed column: password" {
		t.Fatalf("unexpected warnings: %v", logger.messages)
	}
}

func TestCompileUnknownRelation(t *testing.T) {
	// owner__name is allow-listed but no "owner" relation is declared.
	strict := New(newTaskSource(), Strict)
	_, err := strict.Compile("owner__name")
	var v *Violation
	if !errors.As(err, &v) {
		t.Fatalf("expected *Violation, got %T: %v", err, err)
	}
	if v.Kind != ViolationUnknownRelation || v.Field != "owner__name" {
		t.Fatalf("unexpected violation: %+v", v)
	}

	logger := &captureLogger{}
	lenient := New(newTaskSource(), Lenient, WithLogger(logger))
	plan, err := lenient.Compile("owner__name,name")
	if err != nil {
		t.Fatalf("lenient compile returned error: %v", err)
	}
	if got := plan.OrderBy(); got != "tasks.name ASC" {
		t.Fatalf("expected only the local field to survive, got %q", got)
	}
	if len(logger.messages) != 1 || logger.messages[0] != "ignoring disallowed column: owner__name" {
		t.Fatalf("unexpected warnings: %v", logger.messages)
	}
}

func TestCompileCustomScopeDispatch(t *testing.T) {
	src := newTaskSource()
	var gotDir Direction
	calls := 0
	src.scopes["c_urgency"] = func(q Query, dir Direction) error {
		calls++
		gotDir = dir
		q.Order("urgency rank")
		return nil
	}

	c := New(src, Strict)
	q := &recordingQuery{}
	if err := c.Apply(q, "c_urgency:desc"); err != nil {
		t.Fatalf("apply returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected scope to be invoked once, got %d", calls)
	}
	if gotDir != Desc {
		t.Fatalf("expected desc direction, got %s", gotDir)
	}
	if len(q.orders) != 1 || q.orders[0] != "urgency rank" {
		t.Fatalf("expected scope to drive the query, got %v", q.orders)
	}
}

func TestCompileCustomScopeRejectsCompanions(t *testing.T) {
	src := newTaskSource()
	src.scopes["c_urgency"] = func(Query, Direction) error { return nil }

	strict := New(src, Strict)
	_, err := strict.Compile("c_urgency,name")
	var v *Violation
	if !errors.As(err, &v) {
		t.Fatalf("expected *Violation, got %T: %v", err, err)
	}
	if v.Kind != ViolationMultipleCustomScopes || !v.Critical() {
		t.Fatalf("expected critical multiple-scope violation, got %+v", v)
	}
	if v.Field != "c_urgency,name" {
		t.Fatalf("critical violation should name the whole spec, got %q", v.Field)
	}

	logger := &captureLogger{}
	lenient := New(src, Lenient, WithLogger(logger))
	plan, err := lenient.Compile("c_urgency,name")
	if err != nil {
		t.Fatalf("lenient compile returned error: %v", err)
	}
	if !plan.Empty() {
		t.Fatalf("critical violation should discard the whole plan, got %+v", plan)
	}
	if len(logger.messages) != 1 || logger.messages[0] != "ignoring all columns due to c_urgency,name" {
		t.Fatalf("unexpected warnings: %v", logger.messages)
	}
}

func TestCompileCustomScopeDisallowedField(t *testing.T) {
	strict := New(newTaskSource(), Strict)
	_, err := strict.Compile("c_secret")
	var v *Violation
	if !errors.As(err, &v) {
		t.Fatalf("expected *Violation, got %T: %v", err, err)
	}
	if v.Kind != ViolationDisallowedField || v.Field != "c_secret" {
		t.Fatalf("unexpected violation: %+v", v)
	}

	logger := &captureLogger{}
	lenient := New(newTaskSource(), Lenient, WithLogger(logger))
	plan, err := lenient.Compile("c_secret")
	if err != nil {
		t.Fatalf("lenient compile returned error: %v", err)
	}
	if !plan.Empty() {
		t.Fatalf("expected empty plan, got %+v", plan)
	}
	if len(logger.messages) != 1 || logger.messages[0] != "ignoring disallowed column: c_secret" {
		t.Fatalf("unexpected warnings: %v", logger.messages)
	}
}

func TestCompileMissingScopeFailsBothPolicies(t *testing.T) {
	// c_rank is allow-listed but no scope was registered for it.
	for _, policy := range []Policy{Strict, Lenient} {
		c := New(newTaskSource(), policy)
		_, err := c.Compile("c_rank")
		var missing *MissingScopeError
		if !errors.As(err, &missing) {
			t.Fatalf("policy %s: expected *MissingScopeError, got %T: %v", policy, err, err)
		}
		if missing.Field != "c_rank" {
			t.Fatalf("policy %s: unexpected field %q", policy, missing.Field)
		}
	}
}

func TestApplyPropagatesScopeError(t *testing.T) {
	src := newTaskSource()
	sentinel := errors.New("scope exploded")
	src.scopes["c_urgency"] = func(Query, Direction) error { return sentinel }

	c := New(src, Lenient)
	err := c.Apply(&recordingQuery{}, "c_urgency")
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected scope error to propagate unchanged, got %v", err)
	}
}

func TestApplyPushesJoinsBeforeOrder(t *testing.T) {
	c := New(newTaskSource(), Strict)
	q := &recordingQuery{}
	if err := c.Apply(q, "project__name,status"); err != nil {
		t.Fatalf("apply returned error: %v", err)
	}
	if len(q.joins) != 1 || q.joins[0] != "project" {
		t.Fatalf("expected project join, got %v", q.joins)
	}
	if len(q.orders) != 1 || q.orders[0] != "project.name ASC NULLS LAST, tasks.status ASC" {
		t.Fatalf("unexpected orders: %v", q.orders)
	}
}

func TestCompileToleratesBrokenLogger(t *testing.T) {
	// Nil logger.
	c := New(newTaskSource(), Lenient)
	plan, err := c.Compile("password,name")
	if err != nil {
		t.Fatalf("compile with nil logger returned error: %v", err)
	}
	if got := plan.OrderBy(); got != "tasks.name ASC" {
		t.Fatalf("unexpected order by: %q", got)
	}

	// Panicking logger.
	c = New(newTaskSource(), Lenient, WithLogger(panicLogger{}))
	plan, err = c.Compile("password,name")
	if err != nil {
		t.Fatalf("compile with panicking logger returned error: %v", err)
	}
	if got := plan.OrderBy(); got != "tasks.name ASC" {
		t.Fatalf("unexpected order by: %q", got)
	}
}

func TestCompileConcurrentUse(t *testing.T) {
	c := New(newTaskSource(), Lenient, WithLogger(&captureLogger{}))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				plan, err := c.Compile("project__name:desc,status,bogus")
				if err != nil {
					t.Errorf("concurrent compile returned error: %v", err)
					return
				}
				if len(plan.Fragments()) != 2 {
					t.Errorf("expected 2 fragments, got %d", len(plan.Fragments()))
					return
				}
			}
		}()
	}
	wg.Wait()
}

type stubSource struct {
	table     string
	fields    map[string]bool
	relations map[string]bool
	scopes    map[string]Scope
}

func (s *stubSource) Table() string {
	return s.table
}

func (s *stubSource) Sortable(field string) bool {
	return s.fields[field]
}

func (s *stubSource) HasRelation(name string) bool {
	return s.relations[name]
}

func (s *stubSource) Scope(field string) (Scope, bool) {
	fn, ok := s.scopes[field]
	return fn, ok
}

type recordingQuery struct {
	orders []string
	joins  []string
}

func (q *recordingQuery) Order(fragment string) {
	q.orders = append(q.orders, fragment)
}

func (q *recordingQuery) LeftJoin(relations ...string) {
	q.joins = append(q.joins, relations...)
}

type captureLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *captureLogger) Warnf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf(format, args...))
}

type panicLogger struct{}

func (panicLogger) Warnf(string, ...any) {
	panic("logger sink is broken")
}

var _ Source = (*stubSource)(nil)
var _ Query = (*recordingQuery)(nil)
var _ Logger = (*captureLogger)(nil)
