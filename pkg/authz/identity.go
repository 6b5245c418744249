package authz

import (
	"context"
	"net/http"
	"strings"
)

// identityCtxKey is an unexported type used as the context key for Identity.
type identityCtxKey struct{}

// Identity represents the user making a request and their resolved role.
type Identity struct {
	User string
	Role Role
}

// WithIdentity returns a new context with the given Identity attached.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext retrieves the Identity from the context.
// Returns the zero value and false if no identity is set.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(Identity)
	return id, ok
}

// RoleExtractor resolves the role for a request. Implementations exist for
// the X-User-Role header (development) and JWT claims (trusted proxy).
type RoleExtractor func(r *http.Request) Role

// HeaderRoleExtractor reads the role from the X-User-Role header. An empty
// or unknown value maps to viewer.
func HeaderRoleExtractor(r *http.Request) Role {
	switch Role(strings.TrimSpace(strings.ToLower(r.Header.Get("X-User-Role")))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleOperator:
		return RoleOperator
	default:
		return RoleViewer
	}
}

// IdentityMiddleware returns HTTP middleware that extracts the user from the
// X-Remote-User header, resolves the role through the given extractor, and
// stores both in the request context. A missing user defaults to
// "anonymous".
func IdentityMiddleware(extractRole RoleExtractor) func(http.Handler) http.Handler {
	if extractRole == nil {
		extractRole = HeaderRoleExtractor
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := strings.TrimSpace(r.Header.Get("X-Remote-User"))
			if user == "" {
				user = "anonymous"
			}
			id := Identity{User: user, Role: extractRole(r)}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
