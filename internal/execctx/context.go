// Package execctx carries per-request execution settings through
// context.Context. Today that is the sort violation policy: the server
// default, optionally overridden per request by trusted callers.
package execctx

import (
	"context"

	"github.com/rpattn/sortable/pkg/sortspec"
)

type contextKey string

const policyKey contextKey = "sortPolicy"

// ContextWithPolicy returns a new context that carries the sort violation
// policy the request runs under.
func ContextWithPolicy(ctx context.Context, policy sortspec.Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, policyKey, policy)
}

// PolicyFromContext retrieves the request's sort violation policy, if any.
func PolicyFromContext(ctx context.Context) (sortspec.Policy, bool) {
	if ctx == nil {
		return sortspec.Lenient, false
	}
	policy, ok := ctx.Value(policyKey).(sortspec.Policy)
	if !ok {
		return sortspec.Lenient, false
	}
	return policy, true
}

// Policy returns the request's policy, falling back to a default when the
// request never set one.
func Policy(ctx context.Context, fallback sortspec.Policy) sortspec.Policy {
	if policy, ok := PolicyFromContext(ctx); ok {
		return policy
	}
	return fallback
}
