package printjob

import (
	"time"
)

// JobStatus represents the lifecycle state of a print job.
type JobStatus string

const (
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobCancelled  JobStatus = "cancelled"
)

// IsTerminal returns true if the status permits no further transition.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}

// PrintJob is the GORM model for a print production run.
//
// CompletedAt carries the expected end time while the job is in progress
// and is overwritten with the actual end time on the terminal transition.
type PrintJob struct {
	ID              string     `gorm:"primaryKey;column:id;type:varchar(36)"`
	ProjectName     string     `gorm:"column:project_name;not null"`
	PrinterID       string     `gorm:"column:printer_id;index:idx_job_printer_status,priority:1;type:varchar(36);not null"`
	Operator        string     `gorm:"column:operator;index:idx_job_operator;not null"`
	DurationMinutes int        `gorm:"column:duration_minutes;not null"`
	EstimatedGrams  float64    `gorm:"column:estimated_grams;not null"`
	ActualGrams     *float64   `gorm:"column:actual_grams"`
	EnergyCost      float64    `gorm:"column:energy_cost;not null"`
	FilamentCost    float64    `gorm:"column:filament_cost;not null"`
	TotalCost       float64    `gorm:"column:total_cost;not null"`
	SalePrice       *float64   `gorm:"column:sale_price"`
	Profit          *float64   `gorm:"column:profit"`
	Status          JobStatus  `gorm:"column:status;index:idx_job_printer_status,priority:2;index:idx_job_status;not null;default:in_progress"`
	Notes           string     `gorm:"column:notes"`
	StartedAt       time.Time  `gorm:"column:started_at;not null"`
	CompletedAt     *time.Time `gorm:"column:completed_at"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

// TableName returns the GORM table name.
func (PrintJob) TableName() string { return "print_jobs" }

// FilamentUsage records the mass one job draws from one spool. The sum of a
// job's usage rows equals its estimated total mass at creation time; the
// rows are the basis for proportional return on failure.
type FilamentUsage struct {
	ID      string  `gorm:"primaryKey;column:id;type:varchar(36)"`
	JobID   string  `gorm:"column:job_id;index:idx_usage_job;type:varchar(36);not null"`
	SpoolID string  `gorm:"column:spool_id;index:idx_usage_spool;type:varchar(36);not null"`
	Grams   float64 `gorm:"column:grams;not null"`
}

// TableName returns the GORM table name.
func (FilamentUsage) TableName() string { return "job_filament_usage" }
