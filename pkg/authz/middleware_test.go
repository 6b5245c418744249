package authz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestIdentityMiddlewarePopulatesContext(t *testing.T) {
	var got Identity
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	handler := IdentityMiddleware(HeaderRoleExtractor)(inner)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Remote-User", "ana")
	req.Header.Set("X-User-Role", "Operator")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "ana", got.User)
	assert.Equal(t, RoleOperator, got.Role)
}

func TestIdentityMiddlewareDefaultsAnonymousViewer(t *testing.T) {
	var got Identity
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	handler := IdentityMiddleware(nil)(inner)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "anonymous", got.User)
	assert.Equal(t, RoleViewer, got.Role)
}

func TestRequirePermissionAllowsAndDenies(t *testing.T) {
	handler := IdentityMiddleware(HeaderRoleExtractor)(
		RequirePermission(NewRoleAuthorizer(), ResourceJobs, VerbCreate)(okHandler()))

	req := httptest.NewRequest(http.MethodPost, "/jobs", nil)
	req.Header.Set("X-User-Role", "operator")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/jobs", nil)
	req.Header.Set("X-User-Role", "viewer")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequirePermissionNilAuthorizerAllows(t *testing.T) {
	handler := RequirePermission(nil, ResourceJobs, VerbForceDelete)(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type failingAuthorizer struct{}

func (f *failingAuthorizer) Authorize(context.Context, AuthzRequest) (bool, error) {
	return false, errors.New("backend unavailable")
}

func TestRequirePermissionAuthorizerError(t *testing.T) {
	handler := RequirePermission(&failingAuthorizer{}, ResourceJobs, VerbGet)(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHeaderRoleExtractorUnknownDefaultsViewer(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-Role", "superuser")
	assert.Equal(t, RoleViewer, HeaderRoleExtractor(req))

	req.Header.Set("X-User-Role", "ADMIN")
	assert.Equal(t, RoleAdmin, HeaderRoleExtractor(req))
}
