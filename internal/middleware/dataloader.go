package middleware

import (
	"context"
	"net/http"

	"github.com/rpattn/sortable/internal/loader"
	"github.com/rpattn/sortable/internal/repository"
)

type ctxKey string

const loadersKey ctxKey = "relationLoaders"

// DataLoaderMiddleware attaches fresh relation loaders to the request
// context so nested project/assignee resolution batches per request.
func DataLoaderMiddleware(projects repository.ProjectRepository, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loaders := loader.New(projects, users)
			ctx := context.WithValue(r.Context(), loadersKey, loaders)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoadersFromContext retrieves the request's relation loaders, if any.
func LoadersFromContext(ctx context.Context) *loader.Loaders {
	if l, ok := ctx.Value(loadersKey).(*loader.Loaders); ok {
		return l
	}
	return nil
}
