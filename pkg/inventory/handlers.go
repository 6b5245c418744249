package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// JobReferenceChecker reports whether any job still references a spool.
// It is satisfied by the print job store but declared here to avoid a
// package cycle.
type JobReferenceChecker interface {
	SpoolReferenced(spoolID string) (bool, error)
}

// createPrinterRequest is the API request for registering a printer.
type createPrinterRequest struct {
	Name            string  `json:"name"`
	Model           string  `json:"model"`
	PowerDrawKwh    float64 `json:"powerDrawKwh"`
	EnergyUnitPrice float64 `json:"energyUnitPrice"`
}

// printerResponse is the API representation of a printer.
type printerResponse struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Model             string  `json:"model,omitempty"`
	PowerDrawKwh      float64 `json:"powerDrawKwh"`
	EnergyUnitPrice   float64 `json:"energyUnitPrice"`
	Status            string  `json:"status"`
	FilamentUsedGrams float64 `json:"filamentUsedGrams"`
	LastJobID         string  `json:"lastJobId,omitempty"`
	LastOperator      string  `json:"lastOperator,omitempty"`
	CreatedAt         string  `json:"createdAt"`
}

func printerToResponse(p *Printer) printerResponse {
	resp := printerResponse{
		ID:                p.ID,
		Name:              p.Name,
		Model:             p.Model,
		PowerDrawKwh:      p.PowerDrawKwh,
		EnergyUnitPrice:   p.EnergyUnitPrice,
		Status:            string(p.Status),
		FilamentUsedGrams: p.FilamentUsedGrams,
		LastOperator:      p.LastOperator,
		CreatedAt:         p.CreatedAt.Format(time.RFC3339),
	}
	if p.LastJobID != nil {
		resp.LastJobID = *p.LastJobID
	}
	return resp
}

// CreatePrinterHandler handles POST /printers
func CreatePrinterHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPrinterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		if req.PowerDrawKwh < 0 || req.EnergyUnitPrice < 0 {
			writeError(w, http.StatusBadRequest, "power draw and energy price must not be negative")
			return
		}

		printer := &Printer{
			Name:            req.Name,
			Model:           req.Model,
			PowerDrawKwh:    req.PowerDrawKwh,
			EnergyUnitPrice: req.EnergyUnitPrice,
		}
		if err := store.CreatePrinter(printer); err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create printer: %v", err))
			return
		}
		writeJSON(w, http.StatusCreated, printerToResponse(printer))
	}
}

// GetPrinterHandler handles GET /printers/{printerId}
func GetPrinterHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "printerId")
		printer, err := store.GetPrinter(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get printer: %v", err))
			return
		}
		if printer == nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("printer %q not found", id))
			return
		}
		writeJSON(w, http.StatusOK, printerToResponse(printer))
	}
}

// ListPrintersHandler handles GET /printers
// Query params: status, pageSize, pageToken
func ListPrintersHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageSize := 20
		if ps := r.URL.Query().Get("pageSize"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 {
				pageSize = v
			}
		}
		records, nextToken, err := store.ListPrinters(
			r.URL.Query().Get("status"), pageSize, r.URL.Query().Get("pageToken"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list printers: %v", err))
			return
		}

		printers := make([]printerResponse, len(records))
		for i := range records {
			printers[i] = printerToResponse(&records[i])
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"printers":      printers,
			"nextPageToken": nextToken,
		})
	}
}

// UpdatePrinterHandler handles PATCH /printers/{printerId}
// Only descriptive fields are editable; status and cumulative usage belong
// to the lifecycle engine.
func UpdatePrinterHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "printerId")
		var req struct {
			Name            *string  `json:"name"`
			Model           *string  `json:"model"`
			PowerDrawKwh    *float64 `json:"powerDrawKwh"`
			EnergyUnitPrice *float64 `json:"energyUnitPrice"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		printer, err := store.UpdatePrinter(id, PrinterPatch{
			Name:            req.Name,
			Model:           req.Model,
			PowerDrawKwh:    req.PowerDrawKwh,
			EnergyUnitPrice: req.EnergyUnitPrice,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to update printer: %v", err))
			return
		}
		if printer == nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("printer %q not found", id))
			return
		}
		writeJSON(w, http.StatusOK, printerToResponse(printer))
	}
}

// DeletePrinterHandler handles DELETE /printers/{printerId}
func DeletePrinterHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "printerId")
		err := store.DeletePrinter(id)
		if err != nil {
			var busy *PrinterBusyError
			switch {
			case errors.Is(err, ErrPrinterNotFound):
				writeError(w, http.StatusNotFound, fmt.Sprintf("printer %q not found", id))
			case errors.As(err, &busy):
				writeError(w, http.StatusConflict, busy.Error())
			default:
				writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to delete printer: %v", err))
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "printerId": id})
	}
}

// createSpoolRequest is the API request for registering a spool.
type createSpoolRequest struct {
	Material      string  `json:"material"`
	Color         string  `json:"color"`
	InitialGrams  float64 `json:"initialGrams"`
	PurchasePrice float64 `json:"purchasePrice"`
	PurchasedBy   string  `json:"purchasedBy"`
}

// spoolResponse is the API representation of a spool.
type spoolResponse struct {
	ID            string  `json:"id"`
	Material      string  `json:"material"`
	Color         string  `json:"color,omitempty"`
	InitialGrams  float64 `json:"initialGrams"`
	CurrentGrams  float64 `json:"currentGrams"`
	PurchasePrice float64 `json:"purchasePrice"`
	PricePerGram  float64 `json:"pricePerGram"`
	PurchasedBy   string  `json:"purchasedBy,omitempty"`
	LastUsedBy    string  `json:"lastUsedBy,omitempty"`
	LastUsedAt    string  `json:"lastUsedAt,omitempty"`
	CreatedAt     string  `json:"createdAt"`
}

func spoolToResponse(s *FilamentSpool) spoolResponse {
	resp := spoolResponse{
		ID:            s.ID,
		Material:      s.Material,
		Color:         s.Color,
		InitialGrams:  s.InitialGrams,
		CurrentGrams:  s.CurrentGrams,
		PurchasePrice: s.PurchasePrice,
		PricePerGram:  s.PricePerGram(),
		PurchasedBy:   s.PurchasedBy,
		LastUsedBy:    s.LastUsedBy,
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
	}
	if s.LastUsedAt != nil {
		resp.LastUsedAt = s.LastUsedAt.Format(time.RFC3339)
	}
	return resp
}

// CreateSpoolHandler handles POST /spools
func CreateSpoolHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSpoolRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Material == "" {
			writeError(w, http.StatusBadRequest, "material is required")
			return
		}
		if req.InitialGrams <= 0 {
			writeError(w, http.StatusBadRequest, "initialGrams must be positive")
			return
		}
		if req.PurchasePrice < 0 {
			writeError(w, http.StatusBadRequest, "purchasePrice must not be negative")
			return
		}

		spool := &FilamentSpool{
			Material:      req.Material,
			Color:         req.Color,
			InitialGrams:  req.InitialGrams,
			PurchasePrice: req.PurchasePrice,
			PurchasedBy:   req.PurchasedBy,
		}
		if err := store.CreateSpool(spool); err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create spool: %v", err))
			return
		}
		writeJSON(w, http.StatusCreated, spoolToResponse(spool))
	}
}

// GetSpoolHandler handles GET /spools/{spoolId}
func GetSpoolHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "spoolId")
		spool, err := store.GetSpool(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get spool: %v", err))
			return
		}
		if spool == nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("spool %q not found", id))
			return
		}
		writeJSON(w, http.StatusOK, spoolToResponse(spool))
	}
}

// ListSpoolsHandler handles GET /spools
// Query params: material, pageSize, pageToken
func ListSpoolsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageSize := 20
		if ps := r.URL.Query().Get("pageSize"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 {
				pageSize = v
			}
		}
		records, nextToken, err := store.ListSpools(
			r.URL.Query().Get("material"), pageSize, r.URL.Query().Get("pageToken"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list spools: %v", err))
			return
		}

		spools := make([]spoolResponse, len(records))
		for i := range records {
			spools[i] = spoolToResponse(&records[i])
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"spools":        spools,
			"nextPageToken": nextToken,
		})
	}
}

// UpdateSpoolHandler handles PATCH /spools/{spoolId}
func UpdateSpoolHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "spoolId")
		var req struct {
			Material *string `json:"material"`
			Color    *string `json:"color"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		spool, err := store.UpdateSpool(id, SpoolPatch{Material: req.Material, Color: req.Color})
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to update spool: %v", err))
			return
		}
		if spool == nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("spool %q not found", id))
			return
		}
		writeJSON(w, http.StatusOK, spoolToResponse(spool))
	}
}

// DeleteSpoolHandler handles DELETE /spools/{spoolId}
// A spool referenced by any job cannot be deleted; the usage rows are the
// job's cost history.
func DeleteSpoolHandler(store *Store, refs JobReferenceChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "spoolId")

		if refs != nil {
			referenced, err := refs.SpoolReferenced(id)
			if err != nil {
				writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to check spool references: %v", err))
				return
			}
			if referenced {
				writeError(w, http.StatusConflict, fmt.Sprintf("spool %q is referenced by print job history", id))
				return
			}
		}

		if err := store.DeleteSpool(id); err != nil {
			if errors.Is(err, ErrSpoolNotFound) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("spool %q not found", id))
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to delete spool: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "spoolId": id})
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
