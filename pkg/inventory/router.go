package inventory

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FelipeCamposM/Gerencie3D-sub000/pkg/authz"
)

// Router creates a chi.Router for the printer and spool APIs. When
// authorizer is non-nil, endpoints require the matching printers or spools
// permission.
func Router(store *Store, refs JobReferenceChecker, authorizer authz.Authorizer) chi.Router {
	r := chi.NewRouter()
	Routes(r, store, refs, authorizer)
	return r
}

// Routes registers the printer and spool endpoints on an existing router,
// letting callers combine them with other route sets under one mount.
func Routes(r chi.Router, store *Store, refs JobReferenceChecker, authorizer authz.Authorizer) {
	require := func(resource, verb string) func(http.Handler) http.Handler {
		return authz.RequirePermission(authorizer, resource, verb)
	}

	r.Post("/printers", require(authz.ResourcePrinters, authz.VerbCreate)(CreatePrinterHandler(store)).ServeHTTP)
	r.Get("/printers", require(authz.ResourcePrinters, authz.VerbList)(ListPrintersHandler(store)).ServeHTTP)
	r.Get("/printers/{printerId}", require(authz.ResourcePrinters, authz.VerbGet)(GetPrinterHandler(store)).ServeHTTP)
	r.Patch("/printers/{printerId}", require(authz.ResourcePrinters, authz.VerbUpdate)(UpdatePrinterHandler(store)).ServeHTTP)
	r.Delete("/printers/{printerId}", require(authz.ResourcePrinters, authz.VerbDelete)(DeletePrinterHandler(store)).ServeHTTP)

	r.Post("/spools", require(authz.ResourceSpools, authz.VerbCreate)(CreateSpoolHandler(store)).ServeHTTP)
	r.Get("/spools", require(authz.ResourceSpools, authz.VerbList)(ListSpoolsHandler(store)).ServeHTTP)
	r.Get("/spools/{spoolId}", require(authz.ResourceSpools, authz.VerbGet)(GetSpoolHandler(store)).ServeHTTP)
	r.Patch("/spools/{spoolId}", require(authz.ResourceSpools, authz.VerbUpdate)(UpdateSpoolHandler(store)).ServeHTTP)
	r.Delete("/spools/{spoolId}", require(authz.ResourceSpools, authz.VerbDelete)(DeleteSpoolHandler(store, refs)).ServeHTTP)
}
