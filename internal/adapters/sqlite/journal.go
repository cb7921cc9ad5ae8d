// Package sqlite implements the cycle journal on SQLite. The journal is an
// append-only observability record of each cycle's signal and decision; it
// does not persist trade history.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cryptoRebalancer/internal/domain"
	"cryptoRebalancer/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Journal implements the ports.CycleJournal interface using SQLite.
type Journal struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite journal.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewJournal opens (creating if needed) the journal database.
func NewJournal(cfg Config) (*Journal, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite journal: %w", ports.ErrConfigurationError)
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/rebalancer.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}

	// WAL mode so the control API can read recent cycles while the worker
	// is appending.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	journal := &Journal{db: db, logger: cfg.Logger}
	if err := journal.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize journal schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}

	cfg.Logger.Info(context.Background(), "SQLite cycle journal opened", map[string]interface{}{"path": dbPath})
	return journal, nil
}

func (j *Journal) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS cycle_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		cycle_time TIMESTAMP NOT NULL,
		price REAL NOT NULL,
		total_value REAL NOT NULL,
		cash_ratio REAL NOT NULL,
		asset_ratio REAL NOT NULL,
		action TEXT NOT NULL,
		confidence REAL NOT NULL,
		risk_level TEXT NOT NULL,
		reason TEXT NOT NULL,
		outcome TEXT NOT NULL,
		detail TEXT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cycle_reports_symbol_time ON cycle_reports (symbol, cycle_time);
	`
	if _, err := j.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the journal database.
func (j *Journal) Close() error {
	if j.db != nil {
		j.logger.Info(context.Background(), "Closing SQLite cycle journal")
		return j.db.Close()
	}
	return nil
}

// Append stores one cycle report.
func (j *Journal) Append(ctx context.Context, report *domain.CycleReport) error {
	const query = `
	INSERT INTO cycle_reports (symbol, cycle_time, price, total_value, cash_ratio, asset_ratio,
		action, confidence, risk_level, reason, outcome, detail)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := j.db.ExecContext(ctx, query,
		report.Symbol, report.CycleTime, report.Price, report.TotalValue,
		report.CashRatio, report.AssetRatio,
		string(report.Action), report.Confidence, string(report.RiskLevel),
		report.Reason, string(report.Outcome), report.Detail)
	if err != nil {
		return fmt.Errorf("failed to insert cycle report for %s: %w: %w", report.Symbol, ports.ErrQueryFailed, err)
	}
	return nil
}

// Recent retrieves the most recent reports for a symbol, newest first.
func (j *Journal) Recent(ctx context.Context, symbol string, limit int) ([]*domain.CycleReport, error) {
	const query = `
	SELECT symbol, cycle_time, price, total_value, cash_ratio, asset_ratio,
		action, confidence, risk_level, reason, outcome, detail
	FROM cycle_reports
	WHERE symbol = ?
	ORDER BY cycle_time DESC
	LIMIT ?`

	rows, err := j.db.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycle reports for %s: %w: %w", symbol, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var reports []*domain.CycleReport
	for rows.Next() {
		var r domain.CycleReport
		var action, riskLevel, outcome string
		var detail sql.NullString
		if err := rows.Scan(&r.Symbol, &r.CycleTime, &r.Price, &r.TotalValue,
			&r.CashRatio, &r.AssetRatio,
			&action, &r.Confidence, &riskLevel, &r.Reason, &outcome, &detail); err != nil {
			return nil, fmt.Errorf("failed to scan cycle report: %w: %w", ports.ErrQueryFailed, err)
		}
		r.Action = domain.SignalAction(action)
		r.RiskLevel = domain.RiskLevel(riskLevel)
		r.Outcome = domain.CycleOutcome(outcome)
		r.Detail = detail.String
		reports = append(reports, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cycle reports: %w: %w", ports.ErrQueryFailed, err)
	}
	return reports, nil
}
