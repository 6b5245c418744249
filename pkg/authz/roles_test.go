package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleAuthorizer(t *testing.T) {
	a := NewRoleAuthorizer()
	ctx := context.Background()

	cases := []struct {
		name     string
		role     Role
		resource string
		verb     string
		allowed  bool
	}{
		{"viewer lists printers", RoleViewer, ResourcePrinters, VerbList, true},
		{"viewer cannot create jobs", RoleViewer, ResourceJobs, VerbCreate, false},
		{"viewer reads audit", RoleViewer, ResourceAudit, VerbList, true},
		{"operator creates jobs", RoleOperator, ResourceJobs, VerbCreate, true},
		{"operator deletes jobs", RoleOperator, ResourceJobs, VerbDelete, true},
		{"operator cannot force-delete", RoleOperator, ResourceJobs, VerbForceDelete, false},
		{"operator cannot delete printers", RoleOperator, ResourcePrinters, VerbDelete, false},
		{"admin force-deletes jobs", RoleAdmin, ResourceJobs, VerbForceDelete, true},
		{"admin deletes spools", RoleAdmin, ResourceSpools, VerbDelete, true},
		{"unknown role denied", Role("intern"), ResourcePrinters, VerbList, false},
		{"empty role denied", Role(""), ResourceJobs, VerbGet, false},
		{"unknown resource denied", RoleAdmin, "webhooks", VerbList, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			allowed, err := a.Authorize(ctx, AuthzRequest{
				User: "test", Role: tc.role, Resource: tc.resource, Verb: tc.verb,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.allowed, allowed)
		})
	}
}

func TestNoopAuthorizerAllowsEverything(t *testing.T) {
	a := &NoopAuthorizer{}
	allowed, err := a.Authorize(context.Background(), AuthzRequest{
		Role: Role(""), Resource: "anything", Verb: "whatever",
	})
	require.NoError(t, err)
	assert.True(t, allowed)
}
