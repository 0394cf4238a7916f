package middleware

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql"
)

// responseWriter captures HTTP status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// OperationLoggerExtension logs GraphQL operation execution times.
type OperationLoggerExtension struct{}

// ExtensionName implements graphql.HandlerExtension
func (e *OperationLoggerExtension) ExtensionName() string {
	return "OperationLogger"
}

// Validate implements graphql.HandlerExtension
func (e *OperationLoggerExtension) Validate(schema graphql.ExecutableSchema) error {
	return nil
}

// InterceptResponse logs each operation's duration and error count.
func (e *OperationLoggerExtension) InterceptResponse(ctx context.Context, next graphql.ResponseHandler) *graphql.Response {
	start := time.Now()
	resp := next(ctx)
	duration := time.Since(start).Seconds() * 1000 //convert to ms

	name := "(anonymous)"
	if oc := graphql.GetOperationContext(ctx); oc != nil && oc.OperationName != "" {
		name = oc.OperationName
	}
	errCount := 0
	if resp != nil {
		errCount = len(resp.Errors)
	}
	log.Printf("[GRAPHQL] %s took %.3fms, errors: %d", name, duration, errCount)
	return resp
}

// LoggingMiddleware logs HTTP request outcomes.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Printf("[HTTP] %s %s %d %s from %s", r.Method, r.URL.Path, rw.statusCode, duration, r.RemoteAddr)
	})
}
