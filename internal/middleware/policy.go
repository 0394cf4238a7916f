package middleware

import (
	"net/http"
	"strings"

	"github.com/rpattn/sortable/internal/execctx"
	"github.com/rpattn/sortable/pkg/sortspec"
)

// HeaderSortStrict lets trusted callers override the configured sort
// violation policy for one request.
const HeaderSortStrict = "X-Sort-Strict"

// PolicyMiddleware stamps each request context with the sort violation
// policy it runs under: the configured default, or the header override when
// the deployment allows one.
func PolicyMiddleware(defaultPolicy sortspec.Policy, allowHeaderOverride bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			policy := defaultPolicy
			if allowHeaderOverride {
				switch strings.ToLower(r.Header.Get(HeaderSortStrict)) {
				case "1", "true":
					policy = sortspec.Strict
				case "0", "false":
					policy = sortspec.Lenient
				}
			}
			ctx := execctx.ContextWithPolicy(r.Context(), policy)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
