package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store persists and queries audit events.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewStore creates an audit Store.
func NewStore(db *gorm.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// AutoMigrate creates or updates the audit_events table.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&EventRecord{}); err != nil {
		return fmt.Errorf("auto-migrate audit_events: %w", err)
	}
	return nil
}

// Record appends an event. Writes are best effort: the trail must never
// fail the transition it describes, so errors are logged and swallowed.
// This satisfies the job engine's recorder interface.
func (s *Store) Record(ctx context.Context, actor, action, entityType, entityID string, details map[string]any) {
	event := &EventRecord{
		ID:         uuid.New().String(),
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    JSONMap(details),
		CreatedAt:  time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		s.logger.Error("failed to write audit event",
			"action", action,
			"entityID", entityID,
			"error", err)
	}
}

// ListFilter narrows an event listing. Zero values mean no filtering.
type ListFilter struct {
	Actor      string
	Action     string
	EntityType string
	EntityID   string
}

// List returns events newest first with token pagination.
func (s *Store) List(filter ListFilter, pageSize int, pageToken string) ([]EventRecord, string, error) {
	if pageSize <= 0 {
		pageSize = 50
	}

	query := s.db.Model(&EventRecord{})
	if filter.Actor != "" {
		query = query.Where("actor = ?", filter.Actor)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}
	if pageToken != "" {
		cursor, err := time.Parse(time.RFC3339Nano, pageToken)
		if err != nil {
			return nil, "", fmt.Errorf("invalid page token: %w", err)
		}
		query = query.Where("created_at < ?", cursor)
	}

	var events []EventRecord
	if err := query.Order("created_at DESC").Limit(pageSize + 1).Find(&events).Error; err != nil {
		return nil, "", fmt.Errorf("list audit events: %w", err)
	}

	nextToken := ""
	if len(events) > pageSize {
		events = events[:pageSize]
		nextToken = events[len(events)-1].CreatedAt.Format(time.RFC3339Nano)
	}
	return events, nextToken, nil
}

// GetByID returns the event with the given ID, or nil if it does not exist.
func (s *Store) GetByID(id string) (*EventRecord, error) {
	var event EventRecord
	if err := s.db.First(&event, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get audit event: %w", err)
	}
	return &event, nil
}

// DeleteOlderThan removes events created before the cutoff and returns the
// number deleted.
func (s *Store) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := s.db.Where("created_at < ?", cutoff).Delete(&EventRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete old audit events: %w", result.Error)
	}
	return result.RowsAffected, nil
}
