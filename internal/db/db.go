// Package db keeps a SQLite history of generated rail reports.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/railwear/internal/monitoring"
	"github.com/banshee-data/railwear/internal/report"
)

// DefaultHistoryLimit is used when Reports is asked for zero rows.
const DefaultHistoryLimit = 50

// MaxHistoryLimit caps a single history query.
const MaxHistoryLimit = 1000

var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
}

var logf = monitoring.Component("db")

type DB struct {
	*sql.DB
	path string
}

func dsn(path string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	return path + "?" + q.Encode()
}

// OpenDB opens (or creates) the history database at path without touching
// its schema. The migrate subcommand uses it so that rollbacks stick.
func OpenDB(path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is empty")
	}
	sqlDB, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &DB{DB: sqlDB, path: path}, nil
}

// NewDB opens the history database at path and applies any outstanding
// migrations.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	version, _, _ := db.MigrateVersion()
	logf("opened %s at schema version %d", path, version)
	return db, nil
}

// Path returns the file the database was opened from.
func (db *DB) Path() string {
	return db.path
}

// RecordReport stores a report summary. Recording the same ID twice keeps
// the first row.
func (db *DB) RecordReport(ctx context.Context, s report.Summary) error {
	worst := s.Rail1Total
	if s.Rail2Total > worst {
		worst = s.Rail2Total
	}
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO rail_reports (
			report_id, seed, length, amplitude, frequency,
			rail1_total, rail1_label, rail2_total, rail2_label,
			worst_total, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, strconv.FormatUint(s.Seed, 10), s.Length, s.Amplitude, s.Frequency,
		s.Rail1Total, s.Rail1Label, s.Rail2Total, s.Rail2Label,
		worst, s.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record report %s: %w", s.ID, err)
	}
	return nil
}

// HistoryOrder selects the sort order for history queries.
type HistoryOrder int

const (
	// NewestFirst sorts by creation time, most recent first.
	NewestFirst HistoryOrder = iota
	// WorstFirst sorts by the larger of the two rail totals, descending.
	WorstFirst
)

// ParseHistoryOrder maps "", "recent" and "worst" to a HistoryOrder.
func ParseHistoryOrder(s string) (HistoryOrder, error) {
	switch strings.ToLower(s) {
	case "", "recent", "newest":
		return NewestFirst, nil
	case "worst":
		return WorstFirst, nil
	default:
		return NewestFirst, fmt.Errorf("unknown history order %q", s)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

// Reports returns up to limit summaries in the given order.
func (db *DB) Reports(ctx context.Context, limit int, order HistoryOrder) ([]report.Summary, error) {
	orderBy := "created_at DESC, report_id"
	if order == WorstFirst {
		orderBy = "worst_total DESC, created_at DESC"
	}
	rows, err := db.QueryContext(ctx,
		`SELECT report_id, seed, length, amplitude, frequency,
			rail1_total, rail1_label, rail2_total, rail2_label, created_at
		FROM rail_reports ORDER BY `+orderBy+` LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []report.Summary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReportByID returns the stored summary for id, or sql.ErrNoRows.
func (db *DB) ReportByID(ctx context.Context, id string) (report.Summary, error) {
	row := db.QueryRowContext(ctx,
		`SELECT report_id, seed, length, amplitude, frequency,
			rail1_total, rail1_label, rail2_total, rail2_label, created_at
		FROM rail_reports WHERE report_id = ?`, id)
	return scanSummary(row)
}

// CountReports returns the number of stored summaries.
func (db *DB) CountReports(ctx context.Context) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rail_reports").Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(sc scanner) (report.Summary, error) {
	var (
		s         report.Summary
		seed      string
		createdAt int64
	)
	if err := sc.Scan(
		&s.ID,
		&seed,
		&s.Length,
		&s.Amplitude,
		&s.Frequency,
		&s.Rail1Total,
		&s.Rail1Label,
		&s.Rail2Total,
		&s.Rail2Label,
		&createdAt,
	); err != nil {
		return report.Summary{}, err
	}
	v, err := strconv.ParseUint(seed, 10, 64)
	if err != nil {
		return report.Summary{}, fmt.Errorf("failed to parse seed %q: %w", seed, err)
	}
	s.Seed = v
	s.CreatedAt = time.Unix(0, createdAt).UTC()
	return s, nil
}
