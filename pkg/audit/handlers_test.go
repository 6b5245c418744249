package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FelipeCamposM/Gerencie3D-sub000/pkg/authz"
)

func TestListEventsEndpoint(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, slog.Default())
	store.Record(context.Background(), "ana", "job.create", "job", "job-1", nil)
	store.Record(context.Background(), "bob", "job.cancel", "job", "job-2", nil)

	router := Router(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/events?actor=bob", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Events []eventResponse `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "job.cancel", resp.Events[0].Action)
}

func TestGetEventEndpointNotFound(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, slog.Default())
	router := Router(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/events/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventsRequireAuditPermission(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, slog.Default())
	router := Router(store, authz.NewRoleAuthorizer())
	handler := authz.IdentityMiddleware(authz.HeaderRoleExtractor)(router)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("X-Remote-User", "ana")
	req.Header.Set("X-User-Role", "viewer")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// No identity middleware means no role, which is denied.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
