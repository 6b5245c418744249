package printjob

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/FelipeCamposM/Gerencie3D-sub000/pkg/costing"
	"github.com/FelipeCamposM/Gerencie3D-sub000/pkg/inventory"
)

// usageResponse is one line of a job's filament breakdown.
type usageResponse struct {
	SpoolID string  `json:"spoolId"`
	Grams   float64 `json:"grams"`
}

// jobResponse is the API representation of a print job.
type jobResponse struct {
	ID              string          `json:"id"`
	ProjectName     string          `json:"projectName"`
	PrinterID       string          `json:"printerId"`
	Operator        string          `json:"operator"`
	DurationMinutes int             `json:"durationMinutes"`
	EstimatedGrams  float64         `json:"estimatedGrams"`
	ActualGrams     *float64        `json:"actualGrams,omitempty"`
	EnergyCost      float64         `json:"energyCost"`
	FilamentCost    float64         `json:"filamentCost"`
	TotalCost       float64         `json:"totalCost"`
	SalePrice       *float64        `json:"salePrice,omitempty"`
	Profit          *float64        `json:"profit,omitempty"`
	Status          string          `json:"status"`
	Notes           string          `json:"notes,omitempty"`
	StartedAt       string          `json:"startedAt"`
	CompletedAt     string          `json:"completedAt,omitempty"`
	Usage           []usageResponse `json:"usage,omitempty"`
}

func jobToResponse(j *PrintJob, usage []FilamentUsage) jobResponse {
	resp := jobResponse{
		ID:              j.ID,
		ProjectName:     j.ProjectName,
		PrinterID:       j.PrinterID,
		Operator:        j.Operator,
		DurationMinutes: j.DurationMinutes,
		EstimatedGrams:  j.EstimatedGrams,
		ActualGrams:     j.ActualGrams,
		EnergyCost:      j.EnergyCost,
		FilamentCost:    j.FilamentCost,
		TotalCost:       j.TotalCost,
		SalePrice:       j.SalePrice,
		Profit:          j.Profit,
		Status:          string(j.Status),
		Notes:           j.Notes,
		StartedAt:       j.StartedAt.Format(time.RFC3339),
	}
	if j.CompletedAt != nil {
		resp.CompletedAt = j.CompletedAt.Format(time.RFC3339)
	}
	for _, u := range usage {
		resp.Usage = append(resp.Usage, usageResponse{SpoolID: u.SpoolID, Grams: u.Grams})
	}
	return resp
}

// writeDomainError maps lifecycle and inventory errors onto HTTP statuses.
// Validation problems are 400, missing entities 404, state conflicts 409,
// and anything else 500.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		validation *costing.ValidationError
		stock      *inventory.InsufficientStockError
		busy       *inventory.PrinterBusyError
		finalized  *AlreadyFinalizedError
		active     *ActiveJobDeletionError
	)
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, ErrJobNotFound),
		errors.Is(err, inventory.ErrPrinterNotFound),
		errors.Is(err, inventory.ErrSpoolNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &stock),
		errors.As(err, &busy),
		errors.As(err, &finalized),
		errors.As(err, &active):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// CreateJobHandler handles POST /jobs
func CreateJobHandler(engine *Engine, store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		job, err := engine.CreateJob(r.Context(), req)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		usage, err := store.Usage(job.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, jobToResponse(job, usage))
	}
}

// GetJobHandler handles GET /jobs/{jobId}
func GetJobHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "jobId")
		job, err := store.Get(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if job == nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("job %q not found", id))
			return
		}
		usage, err := store.Usage(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, jobToResponse(job, usage))
	}
}

// ListJobsHandler handles GET /jobs
// Query params: status, printerId, operator, pageSize, pageToken
func ListJobsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageSize := 20
		if ps := r.URL.Query().Get("pageSize"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 {
				pageSize = v
			}
		}
		filter := ListFilter{
			Status:    JobStatus(r.URL.Query().Get("status")),
			PrinterID: r.URL.Query().Get("printerId"),
			Operator:  r.URL.Query().Get("operator"),
		}
		records, nextToken, err := store.List(filter, pageSize, r.URL.Query().Get("pageToken"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		jobs := make([]jobResponse, len(records))
		for i := range records {
			jobs[i] = jobToResponse(&records[i], nil)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"jobs":          jobs,
			"nextPageToken": nextToken,
		})
	}
}

// UpdateJobHandler handles PATCH /jobs/{jobId}
func UpdateJobHandler(engine *Engine, store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "jobId")
		var req struct {
			ProjectName *string  `json:"projectName"`
			Notes       *string  `json:"notes"`
			SalePrice   *float64 `json:"salePrice"`
			Status      *string  `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		patch := JobPatch{
			ProjectName: req.ProjectName,
			Notes:       req.Notes,
			SalePrice:   req.SalePrice,
		}
		if req.Status != nil {
			status := JobStatus(*req.Status)
			patch.Status = &status
		}

		job, err := engine.UpdateJob(r.Context(), id, patch)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		usage, err := store.Usage(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, jobToResponse(job, usage))
	}
}

// CompleteJobHandler handles POST /jobs/{jobId}:complete
func CompleteJobHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "jobId")
		job, err := engine.CompleteJob(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, jobToResponse(job, nil))
	}
}

// FailJobHandler handles POST /jobs/{jobId}:fail
func FailJobHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "jobId")
		var req struct {
			ActualGrams float64 `json:"actualGrams"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		job, err := engine.FailJob(r.Context(), id, req.ActualGrams)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, jobToResponse(job, nil))
	}
}

// CancelJobHandler handles POST /jobs/{jobId}:cancel
func CancelJobHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "jobId")
		job, err := engine.CancelJob(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, jobToResponse(job, nil))
	}
}

// DeleteJobHandler handles DELETE /jobs/{jobId}
// Deleting an in-progress job requires force=true and the force-delete
// permission, enforced by the router.
func DeleteJobHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "jobId")
		force := r.URL.Query().Get("force") == "true"

		if err := engine.DeleteJob(r.Context(), id, force); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "jobId": id})
	}
}

// SweepHandler handles POST /jobs:sweep, running one completion sweep on
// demand.
func SweepHandler(sweeper *Sweeper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		completed, err := sweeper.Sweep(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"completed": completed})
	}
}

// quoteRequest asks for a cost estimate without creating a job.
type quoteRequest struct {
	PrinterID       string         `json:"printerId"`
	DurationMinutes int            `json:"durationMinutes"`
	Usage           []UsageRequest `json:"usage"`
	SalePrice       *float64       `json:"salePrice,omitempty"`
	MarkupFactor    *float64       `json:"markupFactor,omitempty"`
}

// QuoteHandler handles POST /jobs:quote
// It prices a hypothetical job against current printer rates and spool
// prices. Nothing is reserved.
func QuoteHandler(inv *inventory.Store, cfg *SweepConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.DurationMinutes <= 0 {
			writeError(w, http.StatusBadRequest, "durationMinutes must be positive")
			return
		}
		if len(req.Usage) == 0 {
			writeError(w, http.StatusBadRequest, "at least one usage line is required")
			return
		}

		printer, err := inv.GetPrinter(req.PrinterID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if printer == nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("printer %q not found", req.PrinterID))
			return
		}

		lines := make([]costing.UsageLine, 0, len(req.Usage))
		for _, u := range req.Usage {
			spool, err := inv.GetSpool(u.SpoolID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			if spool == nil {
				writeError(w, http.StatusNotFound, fmt.Sprintf("spool %q not found", u.SpoolID))
				return
			}
			lines = append(lines, costing.UsageLine{
				SpoolID:       spool.ID,
				Grams:         u.Grams,
				PurchasePrice: spool.PurchasePrice,
				InitialGrams:  spool.InitialGrams,
			})
		}

		quote, err := costing.BuildQuote(float64(req.DurationMinutes),
			printer.PowerDrawKwh, printer.EnergyUnitPrice, lines, req.SalePrice)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		markup := cfg.MarkupFactor
		if req.MarkupFactor != nil {
			markup = *req.MarkupFactor
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"quote":              quote,
			"suggestedSalePrice": costing.SuggestedSalePrice(quote.TotalCost, markup),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
