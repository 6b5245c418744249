// Package authz provides request authorization for the fleet server. The
// fleet runs behind an authenticating proxy; identities arrive on trusted
// headers or a JWT role claim and are mapped onto a small fixed role set.
package authz

import "context"

// Resource names for permission mapping.
const (
	ResourcePrinters = "printers"
	ResourceSpools   = "spools"
	ResourceJobs     = "jobs"
	ResourceAudit    = "audit"
)

// Verb names for permission mapping.
const (
	VerbGet    = "get"
	VerbList   = "list"
	VerbCreate = "create"
	VerbUpdate = "update"
	VerbDelete = "delete"
	// VerbForceDelete covers deleting a job that is still in progress,
	// which reverses live inventory reservations.
	VerbForceDelete = "force-delete"
)

// Role is a coarse permission tier assigned to an identity.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// AuthzRequest represents a single authorization check.
type AuthzRequest struct {
	User     string
	Role     Role
	Resource string
	Verb     string
}

// Authorizer checks whether a user is authorized to perform an action.
type Authorizer interface {
	Authorize(ctx context.Context, req AuthzRequest) (bool, error)
}
