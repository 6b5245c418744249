package printjob

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FelipeCamposM/Gerencie3D-sub000/pkg/authz"
	"github.com/FelipeCamposM/Gerencie3D-sub000/pkg/inventory"
)

// Router creates a chi.Router for the print job API. When authorizer is
// non-nil, endpoints require jobs permissions; deleting an in-progress job
// with force=true additionally requires jobs:force-delete.
func Router(engine *Engine, store *Store, inv *inventory.Store, sweeper *Sweeper, cfg *SweepConfig, authorizer authz.Authorizer) chi.Router {
	r := chi.NewRouter()
	Routes(r, engine, store, inv, sweeper, cfg, authorizer)
	return r
}

// Routes registers the job endpoints on an existing router, letting callers
// combine them with other route sets under one mount.
func Routes(r chi.Router, engine *Engine, store *Store, inv *inventory.Store, sweeper *Sweeper, cfg *SweepConfig, authorizer authz.Authorizer) {
	createHandler := CreateJobHandler(engine, store)
	getHandler := GetJobHandler(store)
	listHandler := ListJobsHandler(store)
	updateHandler := UpdateJobHandler(engine, store)
	completeHandler := CompleteJobHandler(engine)
	failHandler := FailJobHandler(engine)
	cancelHandler := CancelJobHandler(engine)
	deleteHandler := DeleteJobHandler(engine)
	sweepHandler := SweepHandler(sweeper)
	quoteHandler := QuoteHandler(inv, cfg)

	require := func(verb string) func(http.Handler) http.Handler {
		return authz.RequirePermission(authorizer, authz.ResourceJobs, verb)
	}

	// force=true escalates the permission check before the handler runs.
	plainDelete := require(authz.VerbDelete)(deleteHandler)
	forceDelete := require(authz.VerbForceDelete)(deleteHandler)
	deleteDispatch := func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("force") == "true" {
			forceDelete.ServeHTTP(w, req)
			return
		}
		plainDelete.ServeHTTP(w, req)
	}

	r.Post("/jobs", require(authz.VerbCreate)(createHandler).ServeHTTP)
	r.Get("/jobs", require(authz.VerbList)(listHandler).ServeHTTP)
	r.Post("/jobs:sweep", require(authz.VerbUpdate)(sweepHandler).ServeHTTP)
	r.Post("/jobs:quote", require(authz.VerbGet)(quoteHandler).ServeHTTP)
	r.Get("/jobs/{jobId}", require(authz.VerbGet)(getHandler).ServeHTTP)
	r.Patch("/jobs/{jobId}", require(authz.VerbUpdate)(updateHandler).ServeHTTP)
	r.Delete("/jobs/{jobId}", deleteDispatch)
	r.Post("/jobs/{jobId}:complete", require(authz.VerbUpdate)(completeHandler).ServeHTTP)
	r.Post("/jobs/{jobId}:fail", require(authz.VerbUpdate)(failHandler).ServeHTTP)
	r.Post("/jobs/{jobId}:cancel", require(authz.VerbUpdate)(cancelHandler).ServeHTTP)
}
