package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTestServer(t *testing.T, handler http.HandlerFunc) *fleetClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	oldURL := serverURL
	serverURL = srv.URL
	t.Cleanup(func() { serverURL = oldURL })

	return newClient()
}

func TestClientSendsIdentityHeaders(t *testing.T) {
	oldUser, oldRole := userName, userRole
	userName, userRole = "ana", "operator"
	t.Cleanup(func() { userName, userRole = oldUser, oldRole })

	var gotUser, gotRole string
	client := withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotUser = r.Header.Get("X-Remote-User")
		gotRole = r.Header.Get("X-User-Role")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	var resp map[string]string
	require.NoError(t, client.getJSON("/healthz", &resp))
	assert.Equal(t, "ana", gotUser)
	assert.Equal(t, "operator", gotRole)
}

func TestClientSurfacesServerErrors(t *testing.T) {
	client := withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "printer busy"})
	})

	err := client.postJSON(apiBase+"/jobs", map[string]any{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
	assert.Contains(t, err.Error(), "printer busy")
}

func TestClientDecodesJobList(t *testing.T) {
	client := withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, apiBase+"/jobs", r.URL.Path)
		assert.Equal(t, "completed", r.URL.Query().Get("status"))
		_ = json.NewEncoder(w).Encode(jobList{
			Jobs: []jobView{{ID: "j-1", ProjectName: "benchy", Status: "completed", TotalCost: 6.78}},
		})
	})

	var list jobList
	require.NoError(t, client.getJSON(apiBase+"/jobs?status=completed", &list))
	require.Len(t, list.Jobs, 1)
	assert.Equal(t, "benchy", list.Jobs[0].ProjectName)
	assert.Equal(t, 6.78, list.Jobs[0].TotalCost)
}

func TestParseUsageSpecs(t *testing.T) {
	usage, err := parseUsageSpecs([]string{"spool-a=60", "spool-b=40.5"})
	require.NoError(t, err)
	require.Len(t, usage, 2)
	assert.Equal(t, "spool-a", usage[0]["spoolId"])
	assert.Equal(t, 60.0, usage[0]["grams"])
	assert.Equal(t, 40.5, usage[1]["grams"])

	_, err = parseUsageSpecs([]string{"no-equals-sign"})
	assert.Error(t, err)

	_, err = parseUsageSpecs([]string{"spool=abc"})
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactly-10", truncate("exactly-10", 10))
	assert.Equal(t, "a-very-...", truncate("a-very-long-string", 10))
	assert.Equal(t, "ab", truncate("abcd", 2))
}

func TestResolvedUserFallsBack(t *testing.T) {
	oldUser := userName
	userName = ""
	t.Cleanup(func() { userName = oldUser })

	t.Setenv("FLEET_USER", "cfg-user")
	assert.Equal(t, "cfg-user", resolvedUser())

	userName = "flag-user"
	assert.Equal(t, "flag-user", resolvedUser())
}
