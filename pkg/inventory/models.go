package inventory

import (
	"time"
)

// PrinterStatus represents the availability of a printer.
type PrinterStatus string

const (
	PrinterAvailable   PrinterStatus = "available"
	PrinterInUse       PrinterStatus = "in_use"
	PrinterMaintenance PrinterStatus = "maintenance"
)

// Printer is the GORM model for a 3D printer. Status, FilamentUsedGrams,
// LastJobID, and LastOperator are owned by the job lifecycle engine and are
// never written through the generic update path.
type Printer struct {
	ID                string        `gorm:"primaryKey;column:id;type:varchar(36)"`
	Name              string        `gorm:"column:name;not null"`
	Model             string        `gorm:"column:model"`
	PowerDrawKwh      float64       `gorm:"column:power_draw_kwh;not null"`
	EnergyUnitPrice   float64       `gorm:"column:energy_unit_price;not null"`
	Status            PrinterStatus `gorm:"column:status;index:idx_printer_status;not null;default:available"`
	FilamentUsedGrams float64       `gorm:"column:filament_used_grams;default:0"`
	LastJobID         *string       `gorm:"column:last_job_id;type:varchar(36)"`
	LastOperator      string        `gorm:"column:last_operator"`
	CreatedAt         time.Time     `gorm:"column:created_at"`
	UpdatedAt         time.Time     `gorm:"column:updated_at"`
}

// TableName returns the GORM table name.
func (Printer) TableName() string { return "printers" }

// FilamentSpool is the GORM model for a spool of filament tracked by mass.
// CurrentGrams only moves through the ledger operations.
type FilamentSpool struct {
	ID            string     `gorm:"primaryKey;column:id;type:varchar(36)"`
	Material      string     `gorm:"column:material;index:idx_spool_material;not null"`
	Color         string     `gorm:"column:color"`
	InitialGrams  float64    `gorm:"column:initial_grams;not null"`
	CurrentGrams  float64    `gorm:"column:current_grams;not null"`
	PurchasePrice float64    `gorm:"column:purchase_price;not null"`
	PurchasedBy   string     `gorm:"column:purchased_by"`
	LastUsedBy    string     `gorm:"column:last_used_by"`
	LastUsedAt    *time.Time `gorm:"column:last_used_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

// TableName returns the GORM table name.
func (FilamentSpool) TableName() string { return "filament_spools" }

// PricePerGram returns the spool's constant cost per gram, derived from the
// purchase price over the initial mass.
func (s *FilamentSpool) PricePerGram() float64 {
	if s.InitialGrams <= 0 {
		return 0
	}
	return s.PurchasePrice / s.InitialGrams
}
