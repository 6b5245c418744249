// Package inventory is the ledger for the fleet's shared mutable resources:
// filament spool mass and printer availability. All mutation of those fields
// funnels through Store so that every path uses the same row-locking
// discipline. The lifecycle engine composes ledger operations into a single
// transaction by constructing a Store over its transaction handle.
package inventory

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store provides ledger and CRUD operations for printers and spools.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewStore creates a Store. db may be a transaction handle; ledger
// operations then participate in that transaction.
func NewStore(db *gorm.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// AutoMigrate creates or updates the printers and filament_spools tables.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&Printer{}); err != nil {
		return fmt.Errorf("auto-migrate printers: %w", err)
	}
	if err := s.db.AutoMigrate(&FilamentSpool{}); err != nil {
		return fmt.Errorf("auto-migrate filament_spools: %w", err)
	}
	return nil
}

// locked applies a FOR UPDATE row lock on dialects that support it.
// SQLite serializes writers on its own.
func (s *Store) locked() *gorm.DB {
	switch s.db.Dialector.Name() {
	case "postgres", "mysql":
		return s.db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return s.db
}

// Reserve decrements a spool's current mass by grams, failing with
// InsufficientStockError when the spool does not hold enough. It stamps the
// spool's last-used bookkeeping fields.
func (s *Store) Reserve(spoolID string, grams float64, usedBy string) error {
	var spool FilamentSpool
	if err := s.locked().First(&spool, "id = ?", spoolID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrSpoolNotFound
		}
		return fmt.Errorf("load spool for reserve: %w", err)
	}

	if grams > spool.CurrentGrams {
		return &InsufficientStockError{
			SpoolID:        spoolID,
			RequestedGrams: grams,
			AvailableGrams: spool.CurrentGrams,
		}
	}

	now := time.Now()
	err := s.db.Model(&FilamentSpool{}).Where("id = ?", spoolID).Updates(map[string]any{
		"current_grams": spool.CurrentGrams - grams,
		"last_used_by":  usedBy,
		"last_used_at":  now,
	}).Error
	if err != nil {
		return fmt.Errorf("reserve spool mass: %w", err)
	}
	return nil
}

// Release returns grams to a spool, clamped at its initial mass. A release
// that would overshoot indicates an accounting bug upstream; it is logged
// and clamped rather than silently applied.
func (s *Store) Release(spoolID string, grams float64) error {
	var spool FilamentSpool
	if err := s.locked().First(&spool, "id = ?", spoolID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrSpoolNotFound
		}
		return fmt.Errorf("load spool for release: %w", err)
	}

	restored := spool.CurrentGrams + grams
	if restored > spool.InitialGrams {
		s.logger.Warn("spool release exceeds initial mass, clamping",
			"spoolID", spoolID,
			"currentGrams", spool.CurrentGrams,
			"releaseGrams", grams,
			"initialGrams", spool.InitialGrams)
		restored = spool.InitialGrams
	}

	err := s.db.Model(&FilamentSpool{}).Where("id = ?", spoolID).
		Update("current_grams", restored).Error
	if err != nil {
		return fmt.Errorf("release spool mass: %w", err)
	}
	return nil
}

// MarkInUse transitions a printer from available to in_use and records the
// job and operator driving it. Fails with PrinterBusyError when the printer
// is in any other state.
func (s *Store) MarkInUse(printerID, jobID, operator string) error {
	var printer Printer
	if err := s.locked().First(&printer, "id = ?", printerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrPrinterNotFound
		}
		return fmt.Errorf("load printer for mark in use: %w", err)
	}

	if printer.Status != PrinterAvailable {
		return &PrinterBusyError{PrinterID: printerID, Status: printer.Status}
	}

	err := s.db.Model(&Printer{}).Where("id = ?", printerID).Updates(map[string]any{
		"status":        PrinterInUse,
		"last_job_id":   jobID,
		"last_operator": operator,
	}).Error
	if err != nil {
		return fmt.Errorf("mark printer in use: %w", err)
	}
	return nil
}

// MarkAvailable returns a printer to the available state.
func (s *Store) MarkAvailable(printerID string) error {
	result := s.db.Model(&Printer{}).Where("id = ?", printerID).
		Update("status", PrinterAvailable)
	if result.Error != nil {
		return fmt.Errorf("mark printer available: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPrinterNotFound
	}
	return nil
}

// AddCumulativeUsage adds grams to the printer's running filament counter.
func (s *Store) AddCumulativeUsage(printerID string, grams float64) error {
	result := s.db.Model(&Printer{}).Where("id = ?", printerID).
		Update("filament_used_grams", gorm.Expr("filament_used_grams + ?", grams))
	if result.Error != nil {
		return fmt.Errorf("add cumulative usage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPrinterNotFound
	}
	return nil
}

// RemoveCumulativeUsage subtracts grams from the printer's running filament
// counter, clamped at zero.
func (s *Store) RemoveCumulativeUsage(printerID string, grams float64) error {
	var printer Printer
	if err := s.locked().First(&printer, "id = ?", printerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrPrinterNotFound
		}
		return fmt.Errorf("load printer for usage removal: %w", err)
	}

	remaining := printer.FilamentUsedGrams - grams
	if remaining < 0 {
		s.logger.Warn("cumulative usage removal exceeds counter, clamping",
			"printerID", printerID,
			"counterGrams", printer.FilamentUsedGrams,
			"removeGrams", grams)
		remaining = 0
	}

	err := s.db.Model(&Printer{}).Where("id = ?", printerID).
		Update("filament_used_grams", remaining).Error
	if err != nil {
		return fmt.Errorf("remove cumulative usage: %w", err)
	}
	return nil
}

// CreatePrinter persists a new printer, defaulting its status to available.
func (s *Store) CreatePrinter(p *Printer) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = PrinterAvailable
	}
	if err := s.db.Create(p).Error; err != nil {
		return fmt.Errorf("create printer: %w", err)
	}
	return nil
}

// GetPrinter retrieves a printer by ID. Returns nil, nil when missing.
func (s *Store) GetPrinter(id string) (*Printer, error) {
	var p Printer
	if err := s.db.First(&p, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get printer: %w", err)
	}
	return &p, nil
}

// ListPrinters returns paginated printers, optionally filtered by status.
// pageToken is the ID of the last record from the previous page.
func (s *Store) ListPrinters(status string, pageSize int, pageToken string) ([]Printer, string, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	query := s.db.Model(&Printer{}).Order("id ASC").Limit(pageSize + 1)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if pageToken != "" {
		query = query.Where("id > ?", pageToken)
	}

	var records []Printer
	if err := query.Find(&records).Error; err != nil {
		return nil, "", fmt.Errorf("list printers: %w", err)
	}

	var nextToken string
	if len(records) > pageSize {
		nextToken = records[pageSize-1].ID
		records = records[:pageSize]
	}
	return records, nextToken, nil
}

// PrinterPatch holds the descriptive fields a caller may edit directly.
// Status and the cumulative counter are engine-owned.
type PrinterPatch struct {
	Name            *string
	Model           *string
	PowerDrawKwh    *float64
	EnergyUnitPrice *float64
}

// UpdatePrinter applies a descriptive-field patch.
func (s *Store) UpdatePrinter(id string, patch PrinterPatch) (*Printer, error) {
	updates := map[string]any{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Model != nil {
		updates["model"] = *patch.Model
	}
	if patch.PowerDrawKwh != nil {
		updates["power_draw_kwh"] = *patch.PowerDrawKwh
	}
	if patch.EnergyUnitPrice != nil {
		updates["energy_unit_price"] = *patch.EnergyUnitPrice
	}

	if len(updates) > 0 {
		result := s.db.Model(&Printer{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return nil, fmt.Errorf("update printer: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, nil
		}
	}
	return s.GetPrinter(id)
}

// DeletePrinter removes a printer. A printer with an active job cannot be
// deleted.
func (s *Store) DeletePrinter(id string) error {
	var p Printer
	if err := s.locked().First(&p, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrPrinterNotFound
		}
		return fmt.Errorf("load printer for delete: %w", err)
	}
	if p.Status == PrinterInUse {
		return &PrinterBusyError{PrinterID: id, Status: p.Status}
	}
	if err := s.db.Delete(&Printer{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete printer: %w", err)
	}
	return nil
}

// CreateSpool persists a new spool with its current mass set to its initial
// mass.
func (s *Store) CreateSpool(spool *FilamentSpool) error {
	if spool.ID == "" {
		spool.ID = uuid.New().String()
	}
	spool.CurrentGrams = spool.InitialGrams
	if err := s.db.Create(spool).Error; err != nil {
		return fmt.Errorf("create spool: %w", err)
	}
	return nil
}

// GetSpool retrieves a spool by ID. Returns nil, nil when missing.
func (s *Store) GetSpool(id string) (*FilamentSpool, error) {
	var spool FilamentSpool
	if err := s.db.First(&spool, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get spool: %w", err)
	}
	return &spool, nil
}

// ListSpools returns paginated spools, optionally filtered by material.
func (s *Store) ListSpools(material string, pageSize int, pageToken string) ([]FilamentSpool, string, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	query := s.db.Model(&FilamentSpool{}).Order("id ASC").Limit(pageSize + 1)
	if material != "" {
		query = query.Where("material = ?", material)
	}
	if pageToken != "" {
		query = query.Where("id > ?", pageToken)
	}

	var records []FilamentSpool
	if err := query.Find(&records).Error; err != nil {
		return nil, "", fmt.Errorf("list spools: %w", err)
	}

	var nextToken string
	if len(records) > pageSize {
		nextToken = records[pageSize-1].ID
		records = records[:pageSize]
	}
	return records, nextToken, nil
}

// SpoolPatch holds the descriptive fields a caller may edit directly. Mass
// fields only move through the ledger operations.
type SpoolPatch struct {
	Material *string
	Color    *string
}

// UpdateSpool applies a descriptive-field patch.
func (s *Store) UpdateSpool(id string, patch SpoolPatch) (*FilamentSpool, error) {
	updates := map[string]any{}
	if patch.Material != nil {
		updates["material"] = *patch.Material
	}
	if patch.Color != nil {
		updates["color"] = *patch.Color
	}

	if len(updates) > 0 {
		result := s.db.Model(&FilamentSpool{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return nil, fmt.Errorf("update spool: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, nil
		}
	}
	return s.GetSpool(id)
}

// DeleteSpool removes a spool. Reference checks against jobs are the
// caller's responsibility (see the handler layer).
func (s *Store) DeleteSpool(id string) error {
	result := s.db.Delete(&FilamentSpool{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete spool: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSpoolNotFound
	}
	return nil
}
