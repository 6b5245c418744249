package authz

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// RequirePermission returns middleware that enforces a resource/verb
// permission check. It retrieves the identity from context (via
// IdentityMiddleware) and calls the authorizer; a nil authorizer allows
// everything.
func RequirePermission(authorizer Authorizer, resource, verb string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authorizer == nil {
				next.ServeHTTP(w, r)
				return
			}

			id, _ := IdentityFromContext(r.Context())
			allowed, err := authorizer.Authorize(r.Context(), AuthzRequest{
				User:     id.User,
				Role:     id.Role,
				Resource: resource,
				Verb:     verb,
			})
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   "internal_error",
					"message": "authorization check failed",
				})
				return
			}

			if !allowed {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   "forbidden",
					"message": fmt.Sprintf("insufficient permissions for %s/%s", resource, verb),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
