package ports

import (
	"context"

	"cryptoRebalancer/internal/domain"
)

// CycleJournal records each cycle's status report for later inspection.
// Journal failures must never fail a cycle; callers log and continue.
type CycleJournal interface {
	// Append stores one cycle report.
	Append(ctx context.Context, report *domain.CycleReport) error
	// Recent retrieves the most recent reports for a symbol, newest first.
	Recent(ctx context.Context, symbol string, limit int) ([]*domain.CycleReport, error)
	// Close releases the underlying storage.
	Close() error
}
