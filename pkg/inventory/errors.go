package inventory

import (
	"errors"
	"fmt"
)

// ErrPrinterNotFound and ErrSpoolNotFound are returned by ledger operations
// that require the referenced row to exist.
var (
	ErrPrinterNotFound = errors.New("printer not found")
	ErrSpoolNotFound   = errors.New("filament spool not found")
)

// InsufficientStockError is returned when a reservation asks for more
// filament than the spool currently holds.
type InsufficientStockError struct {
	SpoolID        string  `json:"spoolId"`
	RequestedGrams float64 `json:"requestedGrams"`
	AvailableGrams float64 `json:"availableGrams"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("spool %s has %.2fg, cannot reserve %.2fg",
		e.SpoolID, e.AvailableGrams, e.RequestedGrams)
}

// PrinterBusyError is returned when a printer cannot be marked in use
// because it is not available.
type PrinterBusyError struct {
	PrinterID string        `json:"printerId"`
	Status    PrinterStatus `json:"status"`
}

func (e *PrinterBusyError) Error() string {
	return fmt.Sprintf("printer %s is %s, not available", e.PrinterID, e.Status)
}
