package export

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rpattn/sortable/internal/domain"
	"github.com/rpattn/sortable/internal/execctx"
	"github.com/rpattn/sortable/pkg/sortspec"
)

func TestHandleListReturnsPage(t *testing.T) {
	service, repo := newTestService(testTasks(3))
	handler := NewHTTPHandler(service, sortspec.Lenient)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks?sort=name&limit=2&offset=1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var page domain.TaskPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.TotalCount != 3 || len(page.Items) != 2 {
		t.Errorf("unexpected page: total=%d items=%d", page.TotalCount, len(page.Items))
	}
	if repo.lastSort != "name" {
		t.Errorf("expected sort to be forwarded, got %q", repo.lastSort)
	}
}

func TestHandleListRejectsBadPagination(t *testing.T) {
	service, _ := newTestService(nil)
	handler := NewHTTPHandler(service, sortspec.Lenient)

	for _, target := range []string{
		"/api/tasks?limit=abc",
		"/api/tasks?limit=0",
		"/api/tasks?offset=-2",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestHandleListUsesPolicyFromContext(t *testing.T) {
	service, repo := newTestService(testTasks(1))
	handler := NewHTTPHandler(service, sortspec.Lenient)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req = req.WithContext(execctx.ContextWithPolicy(req.Context(), sortspec.Strict))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if repo.lastPolicy != sortspec.Strict {
		t.Errorf("expected strict policy from context, got %v", repo.lastPolicy)
	}
}

func TestHandleListViolationMapsToBadRequest(t *testing.T) {
	repo := &pagedTaskRepo{err: fmt.Errorf("compile sort specification: %w",
		&sortspec.Violation{Kind: sortspec.ViolationDisallowedField, Field: "password", Spec: "password"})}
	service := NewService(repo, &stubProjectRepo{}, &stubUserRepo{})
	handler := NewHTTPHandler(service, sortspec.Strict)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks?sort=password", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "disallowed sort field") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandleExportCSV(t *testing.T) {
	service, _ := newTestService(testTasks(2))
	handler := NewHTTPHandler(service, sortspec.Lenient)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/export?format=csv&sort=name", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv, got %s", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "tasks.csv") {
		t.Errorf("unexpected content disposition: %s", cd)
	}
	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Errorf("expected header plus 2 rows, got %d lines", len(lines))
	}
}

func TestHandleExportRejectsUnknownFormat(t *testing.T) {
	service, _ := newTestService(nil)
	handler := NewHTTPHandler(service, sortspec.Lenient)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/export?format=pdf", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleExportValidatesSortBeforeStreaming(t *testing.T) {
	repo := &pagedTaskRepo{err: fmt.Errorf("compile sort specification: %w",
		&sortspec.MissingScopeError{Field: "c_rank"})}
	service := NewService(repo, &stubProjectRepo{}, &stubUserRepo{})
	handler := NewHTTPHandler(service, sortspec.Lenient)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/export?sort=c_rank", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 before streaming, got %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != "" {
		t.Errorf("expected no download headers on failure, got %s", cd)
	}
}

func TestHandlerRejectsNonGet(t *testing.T) {
	service, _ := newTestService(nil)
	handler := NewHTTPHandler(service, sortspec.Lenient)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
