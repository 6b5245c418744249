package authz

import "context"

// rolePermissions maps each role to the resource/verb pairs it may use.
// Roles are strictly widening: operator includes viewer, admin includes
// operator plus the privileged verbs.
var rolePermissions = map[Role]map[string][]string{
	RoleViewer: {
		ResourcePrinters: {VerbGet, VerbList},
		ResourceSpools:   {VerbGet, VerbList},
		ResourceJobs:     {VerbGet, VerbList},
		ResourceAudit:    {VerbGet, VerbList},
	},
	RoleOperator: {
		ResourcePrinters: {VerbGet, VerbList, VerbCreate, VerbUpdate},
		ResourceSpools:   {VerbGet, VerbList, VerbCreate, VerbUpdate},
		ResourceJobs:     {VerbGet, VerbList, VerbCreate, VerbUpdate, VerbDelete},
		ResourceAudit:    {VerbGet, VerbList},
	},
	RoleAdmin: {
		ResourcePrinters: {VerbGet, VerbList, VerbCreate, VerbUpdate, VerbDelete},
		ResourceSpools:   {VerbGet, VerbList, VerbCreate, VerbUpdate, VerbDelete},
		ResourceJobs:     {VerbGet, VerbList, VerbCreate, VerbUpdate, VerbDelete, VerbForceDelete},
		ResourceAudit:    {VerbGet, VerbList},
	},
}

// RoleAuthorizer authorizes against the static role permission table.
type RoleAuthorizer struct{}

// NewRoleAuthorizer creates a RoleAuthorizer.
func NewRoleAuthorizer() *RoleAuthorizer {
	return &RoleAuthorizer{}
}

// Authorize checks the request against the permission table. Unknown roles,
// including the empty role of an unauthenticated request, are denied
// everything.
func (a *RoleAuthorizer) Authorize(_ context.Context, req AuthzRequest) (bool, error) {
	perms, ok := rolePermissions[req.Role]
	if !ok {
		return false, nil
	}
	verbs, ok := perms[req.Resource]
	if !ok {
		return false, nil
	}
	for _, v := range verbs {
		if v == req.Verb {
			return true, nil
		}
	}
	return false, nil
}
