// Package audit keeps an append-only trail of fleet lifecycle events. The
// job engine records every transition; the trail answers who did what to
// which printer, spool, or job, and when.
package audit

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONMap stores arbitrary event details as a JSON column.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSONMap: %T", value)
	}
	return json.Unmarshal(data, m)
}

// EventRecord is one audit trail entry.
type EventRecord struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)"`
	Actor      string    `gorm:"type:varchar(255);index;not null"`
	Action     string    `gorm:"type:varchar(64);index;not null"`
	EntityType string    `gorm:"type:varchar(32);index;not null"`
	EntityID   string    `gorm:"type:varchar(36);index"`
	Details    JSONMap   `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"index;autoCreateTime"`
}

// TableName returns the table name for EventRecord.
func (EventRecord) TableName() string {
	return "audit_events"
}
