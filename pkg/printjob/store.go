package printjob

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

// Store serves read queries over print jobs. Writes go through the Engine.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewStore creates a job read store.
func NewStore(db *gorm.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Get returns the job with the given ID, or nil if it does not exist.
func (s *Store) Get(id string) (*PrintJob, error) {
	var job PrintJob
	if err := s.db.First(&job, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// ListFilter narrows a job listing. Zero values mean no filtering.
type ListFilter struct {
	Status    JobStatus
	PrinterID string
	Operator  string
}

// List returns jobs newest first. The returned token resumes the listing
// when more rows remain; it encodes the start time of the last row.
func (s *Store) List(filter ListFilter, pageSize int, pageToken string) ([]PrintJob, string, error) {
	if pageSize <= 0 {
		pageSize = 50
	}

	query := s.db.Model(&PrintJob{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PrinterID != "" {
		query = query.Where("printer_id = ?", filter.PrinterID)
	}
	if filter.Operator != "" {
		query = query.Where("operator = ?", filter.Operator)
	}
	if pageToken != "" {
		cursor, err := time.Parse(time.RFC3339Nano, pageToken)
		if err != nil {
			return nil, "", fmt.Errorf("invalid page token: %w", err)
		}
		query = query.Where("started_at < ?", cursor)
	}

	var jobs []PrintJob
	if err := query.Order("started_at DESC").Limit(pageSize + 1).Find(&jobs).Error; err != nil {
		return nil, "", fmt.Errorf("list jobs: %w", err)
	}

	nextToken := ""
	if len(jobs) > pageSize {
		jobs = jobs[:pageSize]
		nextToken = jobs[len(jobs)-1].StartedAt.Format(time.RFC3339Nano)
	}
	return jobs, nextToken, nil
}

// ListOverdue returns in-progress jobs whose expected end time has passed.
func (s *Store) ListOverdue(now time.Time) ([]PrintJob, error) {
	var jobs []PrintJob
	err := s.db.
		Where("status = ? AND completed_at IS NOT NULL AND completed_at <= ?", JobInProgress, now).
		Order("completed_at ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("list overdue jobs: %w", err)
	}
	return jobs, nil
}

// Usage returns the per-spool filament breakdown for a job.
func (s *Store) Usage(jobID string) ([]FilamentUsage, error) {
	var usage []FilamentUsage
	if err := s.db.Where("job_id = ?", jobID).Order("spool_id ASC").Find(&usage).Error; err != nil {
		return nil, fmt.Errorf("load usage rows: %w", err)
	}
	return usage, nil
}

// SpoolReferenced reports whether any job has drawn from the given spool.
// The inventory spool-delete handler consults this to keep history intact.
func (s *Store) SpoolReferenced(spoolID string) (bool, error) {
	var count int64
	if err := s.db.Model(&FilamentUsage{}).Where("spool_id = ?", spoolID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count spool references: %w", err)
	}
	return count > 0, nil
}
