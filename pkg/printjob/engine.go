// Package printjob owns the print-job lifecycle: creation reserves filament
// and the printer, and every transition out of in_progress settles the
// books through the inventory ledger inside a single database transaction.
package printjob

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/FelipeCamposM/Gerencie3D-sub000/pkg/authz"
	"github.com/FelipeCamposM/Gerencie3D-sub000/pkg/costing"
	"github.com/FelipeCamposM/Gerencie3D-sub000/pkg/inventory"
)

// Recorder receives lifecycle transition events for the audit trail. It is
// satisfied by the audit store but declared here to avoid a package cycle.
// A nil recorder disables recording.
type Recorder interface {
	Record(ctx context.Context, actor, action, entityType, entityID string, details map[string]any)
}

// Engine drives the print-job state machine. Each transition runs as one
// transaction: spool mass, printer status, and the job row change together
// or not at all.
type Engine struct {
	db       *gorm.DB
	logger   *slog.Logger
	recorder Recorder
}

// NewEngine creates an Engine. recorder may be nil.
func NewEngine(db *gorm.DB, logger *slog.Logger, recorder Recorder) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{db: db, logger: logger, recorder: recorder}
}

// AutoMigrate creates or updates the print_jobs and job_filament_usage
// tables.
func (e *Engine) AutoMigrate() error {
	if err := e.db.AutoMigrate(&PrintJob{}); err != nil {
		return fmt.Errorf("auto-migrate print_jobs: %w", err)
	}
	if err := e.db.AutoMigrate(&FilamentUsage{}); err != nil {
		return fmt.Errorf("auto-migrate job_filament_usage: %w", err)
	}
	return nil
}

// locked applies a FOR UPDATE row lock on dialects that support it.
func locked(tx *gorm.DB) *gorm.DB {
	switch tx.Dialector.Name() {
	case "postgres", "mysql":
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// UsageRequest asks for grams of filament from one spool.
type UsageRequest struct {
	SpoolID string  `json:"spoolId"`
	Grams   float64 `json:"grams"`
}

// CreateJobRequest holds the parameters for starting a print job.
type CreateJobRequest struct {
	ProjectName     string         `json:"projectName"`
	PrinterID       string         `json:"printerId"`
	Operator        string         `json:"operator"`
	DurationMinutes int            `json:"durationMinutes"`
	Usage           []UsageRequest `json:"usage"`
	SalePrice       *float64       `json:"salePrice,omitempty"`
	Notes           string         `json:"notes,omitempty"`
}

func (r *CreateJobRequest) validate() error {
	if r.ProjectName == "" {
		return &costing.ValidationError{Field: "projectName", Message: "is required"}
	}
	if r.PrinterID == "" {
		return &costing.ValidationError{Field: "printerId", Message: "is required"}
	}
	if r.Operator == "" {
		return &costing.ValidationError{Field: "operator", Message: "is required"}
	}
	if r.DurationMinutes <= 0 {
		return &costing.ValidationError{Field: "durationMinutes", Message: "must be positive"}
	}
	if len(r.Usage) == 0 {
		return &costing.ValidationError{Field: "usage", Message: "at least one spool is required"}
	}
	for _, u := range r.Usage {
		if u.SpoolID == "" {
			return &costing.ValidationError{Field: "usage.spoolId", Message: "is required"}
		}
		if u.Grams <= 0 {
			return &costing.ValidationError{Field: "usage.grams", Message: "must be positive"}
		}
	}
	return nil
}

// CreateJob validates the request, reserves inventory, computes costs, and
// persists the job in progress. Any failure leaves inventory untouched.
func (e *Engine) CreateJob(ctx context.Context, req CreateJobRequest) (*PrintJob, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var job *PrintJob
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv := inventory.NewStore(tx, e.logger)

		printer, err := inv.GetPrinter(req.PrinterID)
		if err != nil {
			return err
		}
		if printer == nil {
			return inventory.ErrPrinterNotFound
		}

		var totalGrams float64
		lines := make([]costing.UsageLine, 0, len(req.Usage))
		for _, u := range req.Usage {
			spool, err := inv.GetSpool(u.SpoolID)
			if err != nil {
				return err
			}
			if spool == nil {
				return inventory.ErrSpoolNotFound
			}
			lines = append(lines, costing.UsageLine{
				SpoolID:       spool.ID,
				Grams:         u.Grams,
				PurchasePrice: spool.PurchasePrice,
				InitialGrams:  spool.InitialGrams,
			})
			totalGrams += u.Grams
		}

		quote, err := costing.BuildQuote(float64(req.DurationMinutes),
			printer.PowerDrawKwh, printer.EnergyUnitPrice, lines, req.SalePrice)
		if err != nil {
			return err
		}

		for _, u := range req.Usage {
			if err := inv.Reserve(u.SpoolID, u.Grams, req.Operator); err != nil {
				return err
			}
		}

		jobID := uuid.New().String()
		if err := inv.MarkInUse(req.PrinterID, jobID, req.Operator); err != nil {
			return err
		}
		if err := inv.AddCumulativeUsage(req.PrinterID, totalGrams); err != nil {
			return err
		}

		now := time.Now()
		expectedEnd := now.Add(time.Duration(req.DurationMinutes) * time.Minute)
		job = &PrintJob{
			ID:              jobID,
			ProjectName:     req.ProjectName,
			PrinterID:       req.PrinterID,
			Operator:        req.Operator,
			DurationMinutes: req.DurationMinutes,
			EstimatedGrams:  totalGrams,
			EnergyCost:      quote.EnergyCost,
			FilamentCost:    quote.FilamentCost,
			TotalCost:       quote.TotalCost,
			SalePrice:       req.SalePrice,
			Profit:          quote.Profit,
			Status:          JobInProgress,
			Notes:           req.Notes,
			StartedAt:       now,
			CompletedAt:     &expectedEnd,
		}
		if err := tx.Create(job).Error; err != nil {
			return fmt.Errorf("create job: %w", err)
		}

		for _, u := range req.Usage {
			usage := &FilamentUsage{
				ID:      uuid.New().String(),
				JobID:   jobID,
				SpoolID: u.SpoolID,
				Grams:   u.Grams,
			}
			if err := tx.Create(usage).Error; err != nil {
				return fmt.Errorf("create usage row: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.record(ctx, "job.create", job.ID, map[string]any{
		"printerId":      job.PrinterID,
		"operator":       job.Operator,
		"estimatedGrams": job.EstimatedGrams,
		"totalCost":      job.TotalCost,
	})
	e.logger.Info("job created",
		"jobID", job.ID,
		"printerID", job.PrinterID,
		"estimatedGrams", job.EstimatedGrams,
		"totalCost", job.TotalCost)
	return job, nil
}

// loadJobForUpdate loads a job with a row lock inside tx.
func loadJobForUpdate(tx *gorm.DB, jobID string) (*PrintJob, error) {
	var job PrintJob
	if err := locked(tx).First(&job, "id = ?", jobID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("load job: %w", err)
	}
	return &job, nil
}

// completeTx finalizes an in-progress job inside tx. No inventory mass
// moves: the reservation already reflects actual consumption.
func (e *Engine) completeTx(tx *gorm.DB, job *PrintJob) error {
	if job.Status.IsTerminal() {
		return &AlreadyFinalizedError{JobID: job.ID, Status: job.Status}
	}

	now := time.Now()
	job.Status = JobCompleted
	job.CompletedAt = &now
	err := tx.Model(&PrintJob{}).Where("id = ?", job.ID).Updates(map[string]any{
		"status":       JobCompleted,
		"completed_at": now,
	}).Error
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}

	return inventory.NewStore(tx, e.logger).MarkAvailable(job.PrinterID)
}

// CompleteJob transitions a job from in_progress to completed and frees the
// printer. A second completion attempt fails with AlreadyFinalizedError.
func (e *Engine) CompleteJob(ctx context.Context, jobID string) (*PrintJob, error) {
	var job *PrintJob
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if job, err = loadJobForUpdate(tx, jobID); err != nil {
			return err
		}
		return e.completeTx(tx, job)
	})
	if err != nil {
		return nil, err
	}

	e.record(ctx, "job.complete", job.ID, map[string]any{"printerId": job.PrinterID})
	e.logger.Info("job completed", "jobID", job.ID, "printerID", job.PrinterID)
	return job, nil
}

// failTx finalizes an in-progress job as failed inside tx, returning the
// unused share of the reservation to each spool in proportion to its share
// of the estimated total.
func (e *Engine) failTx(tx *gorm.DB, job *PrintJob, actualGrams float64, status JobStatus, note string) error {
	if job.Status.IsTerminal() {
		return &AlreadyFinalizedError{JobID: job.ID, Status: job.Status}
	}

	inv := inventory.NewStore(tx, e.logger)

	toReturn := job.EstimatedGrams - actualGrams
	if toReturn < 0 {
		toReturn = 0
	}

	// estimated = 0 cannot happen through creation validation; guard the
	// division anyway.
	if toReturn > 0 && job.EstimatedGrams > 0 {
		var usage []FilamentUsage
		if err := tx.Where("job_id = ?", job.ID).Find(&usage).Error; err != nil {
			return fmt.Errorf("load usage rows: %w", err)
		}
		for _, u := range usage {
			share := u.Grams / job.EstimatedGrams
			if err := inv.Release(u.SpoolID, toReturn*share); err != nil {
				return err
			}
		}
	}

	now := time.Now()
	notes := job.Notes
	if notes != "" {
		notes += "\n"
	}
	notes += note

	updates := map[string]any{
		"status":       status,
		"completed_at": now,
		"notes":        notes,
	}
	if status == JobFailed {
		updates["actual_grams"] = actualGrams
	}
	if err := tx.Model(&PrintJob{}).Where("id = ?", job.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("finalize job: %w", err)
	}

	job.Status = status
	job.CompletedAt = &now
	job.Notes = notes
	if status == JobFailed {
		job.ActualGrams = &actualGrams
	}

	return inv.MarkAvailable(job.PrinterID)
}

// FailJob transitions a job to failed, recording the filament actually
// consumed and returning the rest to its source spools proportionally.
func (e *Engine) FailJob(ctx context.Context, jobID string, actualGrams float64) (*PrintJob, error) {
	if actualGrams < 0 {
		return nil, &costing.ValidationError{Field: "actualGrams", Message: "must not be negative"}
	}

	var job *PrintJob
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if job, err = loadJobForUpdate(tx, jobID); err != nil {
			return err
		}
		note := fmt.Sprintf("failed: %.2fg wasted of %.2fg estimated", actualGrams, job.EstimatedGrams)
		return e.failTx(tx, job, actualGrams, JobFailed, note)
	})
	if err != nil {
		return nil, err
	}

	e.record(ctx, "job.fail", job.ID, map[string]any{
		"printerId":   job.PrinterID,
		"actualGrams": actualGrams,
	})
	e.logger.Info("job failed", "jobID", job.ID, "actualGrams", actualGrams)
	return job, nil
}

// CancelJob transitions a job to cancelled. Nothing was printed, so the
// full reservation flows back to the spools.
func (e *Engine) CancelJob(ctx context.Context, jobID string) (*PrintJob, error) {
	var job *PrintJob
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if job, err = loadJobForUpdate(tx, jobID); err != nil {
			return err
		}
		return e.failTx(tx, job, 0, JobCancelled, "cancelled: reservation returned")
	})
	if err != nil {
		return nil, err
	}

	e.record(ctx, "job.cancel", job.ID, map[string]any{"printerId": job.PrinterID})
	e.logger.Info("job cancelled", "jobID", job.ID)
	return job, nil
}

// DeleteJob removes a job and its usage rows, reversing its accounting in
// full: every reserved gram returns to its spool and the estimated mass
// leaves the printer's cumulative counter. Deleting a job that is still in
// progress additionally frees the printer and requires allowActive.
func (e *Engine) DeleteJob(ctx context.Context, jobID string, allowActive bool) error {
	var deleted *PrintJob
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := loadJobForUpdate(tx, jobID)
		if err != nil {
			return err
		}
		if job.Status == JobInProgress && !allowActive {
			return &ActiveJobDeletionError{JobID: jobID}
		}

		inv := inventory.NewStore(tx, e.logger)

		var usage []FilamentUsage
		if err := tx.Where("job_id = ?", job.ID).Find(&usage).Error; err != nil {
			return fmt.Errorf("load usage rows: %w", err)
		}
		for _, u := range usage {
			if err := inv.Release(u.SpoolID, u.Grams); err != nil {
				return err
			}
		}
		if err := inv.RemoveCumulativeUsage(job.PrinterID, job.EstimatedGrams); err != nil {
			return err
		}
		if job.Status == JobInProgress {
			if err := inv.MarkAvailable(job.PrinterID); err != nil {
				return err
			}
		}

		if err := tx.Where("job_id = ?", job.ID).Delete(&FilamentUsage{}).Error; err != nil {
			return fmt.Errorf("delete usage rows: %w", err)
		}
		if err := tx.Delete(&PrintJob{}, "id = ?", job.ID).Error; err != nil {
			return fmt.Errorf("delete job: %w", err)
		}
		deleted = job
		return nil
	})
	if err != nil {
		return err
	}

	e.record(ctx, "job.delete", deleted.ID, map[string]any{
		"printerId": deleted.PrinterID,
		"status":    string(deleted.Status),
	})
	e.logger.Info("job deleted", "jobID", deleted.ID, "status", deleted.Status)
	return nil
}

// JobPatch holds the non-transitioning edits plus an optional status
// change. Status changes funnel into the same transition functions as the
// dedicated calls, so the generic update path cannot finalize a job
// without releasing its printer.
type JobPatch struct {
	ProjectName *string
	Notes       *string
	SalePrice   *float64
	Status      *JobStatus
}

// UpdateJob applies a patch. Name, notes, and sale price are editable on
// any job; sale price recomputes profit against the fixed total cost.
func (e *Engine) UpdateJob(ctx context.Context, jobID string, patch JobPatch) (*PrintJob, error) {
	var job *PrintJob
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if job, err = loadJobForUpdate(tx, jobID); err != nil {
			return err
		}

		if patch.Status != nil && *patch.Status != job.Status {
			switch *patch.Status {
			case JobCompleted:
				if err := e.completeTx(tx, job); err != nil {
					return err
				}
			case JobCancelled:
				if err := e.failTx(tx, job, 0, JobCancelled, "cancelled: reservation returned"); err != nil {
					return err
				}
			default:
				return &costing.ValidationError{
					Field:   "status",
					Message: fmt.Sprintf("cannot transition to %q through an update; use the dedicated operation", *patch.Status),
				}
			}
		}

		updates := map[string]any{}
		if patch.ProjectName != nil {
			updates["project_name"] = *patch.ProjectName
			job.ProjectName = *patch.ProjectName
		}
		if patch.Notes != nil {
			updates["notes"] = *patch.Notes
			job.Notes = *patch.Notes
		}
		if patch.SalePrice != nil {
			profit, err := costing.Reprice(job.TotalCost, *patch.SalePrice)
			if err != nil {
				return err
			}
			updates["sale_price"] = *patch.SalePrice
			updates["profit"] = profit
			job.SalePrice = patch.SalePrice
			job.Profit = &profit
		}
		if len(updates) > 0 {
			if err := tx.Model(&PrintJob{}).Where("id = ?", job.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("update job: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.record(ctx, "job.update", job.ID, map[string]any{"status": string(job.Status)})
	return job, nil
}

// record emits an audit event for a committed transition. The actor comes
// from the request identity when one is present.
func (e *Engine) record(ctx context.Context, action, jobID string, details map[string]any) {
	if e.recorder == nil {
		return
	}
	actor := "system"
	if id, ok := authz.IdentityFromContext(ctx); ok {
		actor = id.User
	}
	e.recorder.Record(ctx, actor, action, "job", jobID, details)
}
