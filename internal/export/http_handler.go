package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/rpattn/sortable/internal/domain"
	"github.com/rpattn/sortable/internal/execctx"
	"github.com/rpattn/sortable/pkg/sortspec"
)

// Handler serves the task listing and file export endpoints.
type Handler struct {
	service       *Service
	defaultPolicy sortspec.Policy
}

func NewHTTPHandler(service *Service, defaultPolicy sortspec.Policy) http.Handler {
	return &Handler{service: service, defaultPolicy: defaultPolicy}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/export"):
		h.handleExport(w, r)
	case r.Method == http.MethodGet:
		h.handleList(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := domain.ListParams{Sort: strings.TrimSpace(query.Get("sort"))}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		params.Limit = parsed
	}
	if raw := strings.TrimSpace(query.Get("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "offset must be zero or positive", http.StatusBadRequest)
			return
		}
		params.Offset = parsed
	}

	policy := execctx.Policy(r.Context(), h.defaultPolicy)
	page, err := h.service.List(r.Context(), params, policy)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	format, err := ParseFormat(query.Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sort := strings.TrimSpace(query.Get("sort"))
	policy := execctx.Policy(r.Context(), h.defaultPolicy)

	// Validate the sort specification before committing response headers.
	total, err := h.service.RowCount(r.Context(), sort, policy)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", format.FileName()))

	rows, err := h.service.Export(r.Context(), w, format, sort, policy)
	if err != nil {
		log.Printf("[EXPORT] streaming %s failed after %d rows: %v", format.FileName(), rows, err)
		return
	}
	log.Printf("[EXPORT] streamed %d of %d tasks as %s", rows, total, format)
}

// statusForError maps sort compilation failures to 400s; anything else is
// a server fault.
func statusForError(err error) int {
	var violation *sortspec.Violation
	var missingScope *sortspec.MissingScopeError
	switch {
	case errors.As(err, &violation), errors.As(err, &missingScope):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
