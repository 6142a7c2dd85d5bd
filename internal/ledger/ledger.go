// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger keeps a local SQLite record of searches, their ordered
// results, and every transfer attempt. It lets download and history run
// without repeating a catalog query.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/sara-fetch/internal/normalize"
	"github.com/pdiddy/sara-fetch/pkg/types"
)

const (
	dbFile = "ledger.db"

	// timeLayout is fixed width so stored timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrNoSearch is returned by LatestSearch when nothing has been recorded.
var ErrNoSearch = errors.New("no search recorded yet")

// Store wraps the ledger database.
type Store struct {
	db *sql.DB
}

// Open opens or creates dataDir/ledger.db and its schema.
func Open(cfg types.LedgerConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS searches (
			id TEXT PRIMARY KEY,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			geometry TEXT NOT NULL,
			product_type TEXT NOT NULL,
			result_count INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			search_id TEXT NOT NULL REFERENCES searches(id) ON DELETE CASCADE,
			ordinal INTEGER NOT NULL,
			product_identifier TEXT NOT NULL,
			start_date TEXT,
			download_url TEXT NOT NULL,
			download_size INTEGER NOT NULL DEFAULT 0,
			feature_json TEXT NOT NULL,
			PRIMARY KEY (search_id, ordinal)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_identifier ON products(product_identifier)`,
		`CREATE TABLE IF NOT EXISTS transfers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_identifier TEXT NOT NULL,
			destination TEXT NOT NULL,
			expected_bytes INTEGER NOT NULL,
			bytes_written INTEGER NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_product ON transfers(product_identifier)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SearchSummary describes one recorded search.
type SearchSummary struct {
	ID          string
	Criteria    types.SearchCriteria
	ResultCount int
	CreatedAt   time.Time
}

// StoredProduct is one row of a recorded search result, in collection order.
type StoredProduct struct {
	SearchID          string
	Ordinal           int
	ProductIdentifier string
	StartDate         *time.Time
	DownloadURL       string
	DownloadSize      int64
	FeatureJSON       string
}

// Record rebuilds the product record from the stored feature.
func (p StoredProduct) Record() (types.ProductRecord, error) {
	var f struct {
		Geometry   json.RawMessage `json:"geometry"`
		Properties map[string]any  `json:"properties"`
	}
	if err := json.Unmarshal([]byte(p.FeatureJSON), &f); err != nil {
		return types.ProductRecord{}, fmt.Errorf("decoding stored feature %s: %w", p.ProductIdentifier, err)
	}
	return types.ProductRecord{
		ProductIdentifier: p.ProductIdentifier,
		Geometry:          f.Geometry,
		StartDate:         p.StartDate,
		DownloadURL:       p.DownloadURL,
		DownloadSize:      p.DownloadSize,
		Properties:        f.Properties,
		Raw:               json.RawMessage(p.FeatureJSON),
	}, nil
}

// TransferRecord is one transfer attempt.
type TransferRecord struct {
	ID                int64
	ProductIdentifier string
	Destination       string
	ExpectedBytes     int64
	BytesWritten      int64
	Status            string
	Error             string
	StartedAt         time.Time
	FinishedAt        time.Time
}

// StatusFailed marks a transfer that ended in an error.
const StatusFailed = "failed"

// NewTransferRecord builds a ledger row from a transfer result.
func NewTransferRecord(productID, dest string, outcome types.TransferOutcome, err error, started, finished time.Time) TransferRecord {
	rec := TransferRecord{
		ProductIdentifier: productID,
		Destination:       dest,
		ExpectedBytes:     outcome.ExpectedBytes,
		BytesWritten:      outcome.BytesWritten,
		Status:            string(outcome.Status),
		StartedAt:         started,
		FinishedAt:        finished,
	}
	if err != nil {
		rec.Status = StatusFailed
		rec.Error = err.Error()
	}
	return rec
}

// RecordSearch stores the criteria and the ordered collection, returning the
// new search ID.
func (s *Store) RecordSearch(ctx context.Context, criteria types.SearchCriteria, results *normalize.ResultCollection) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO searches (id, start_date, end_date, geometry, product_type, result_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, criteria.StartDate.Format(types.DateLayout), criteria.EndDate.Format(types.DateLayout),
		criteria.Geometry, criteria.ProductType, results.Len(), formatTime(time.Now()),
	)
	if err != nil {
		return "", fmt.Errorf("inserting search: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO products (search_id, ordinal, product_identifier, start_date, download_url, download_size, feature_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < results.Len(); i++ {
		item := results.At(i)
		featureJSON, err := json.Marshal(item.Feature)
		if err != nil {
			return "", fmt.Errorf("encoding feature %s: %w", item.Record.ProductIdentifier, err)
		}
		var start sql.NullString
		if item.Record.StartDate != nil {
			start = sql.NullString{String: formatTime(*item.Record.StartDate), Valid: true}
		}
		_, err = stmt.ExecContext(ctx,
			id, item.Ordinal, item.Record.ProductIdentifier, start,
			item.Record.DownloadURL, item.Record.DownloadSize, string(featureJSON),
		)
		if err != nil {
			return "", fmt.Errorf("inserting product %s: %w", item.Record.ProductIdentifier, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing search: %w", err)
	}
	return id, nil
}

// LatestSearch returns the most recently recorded search.
func (s *Store) LatestSearch(ctx context.Context) (SearchSummary, error) {
	var (
		sum                   SearchSummary
		start, end, createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, start_date, end_date, geometry, product_type, result_count, created_at
		 FROM searches ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	).Scan(&sum.ID, &start, &end, &sum.Criteria.Geometry, &sum.Criteria.ProductType, &sum.ResultCount, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SearchSummary{}, ErrNoSearch
	}
	if err != nil {
		return SearchSummary{}, fmt.Errorf("querying latest search: %w", err)
	}

	if sum.Criteria.StartDate, err = time.Parse(types.DateLayout, start); err != nil {
		return SearchSummary{}, fmt.Errorf("parsing start_date: %w", err)
	}
	if sum.Criteria.EndDate, err = time.Parse(types.DateLayout, end); err != nil {
		return SearchSummary{}, fmt.Errorf("parsing end_date: %w", err)
	}
	if sum.CreatedAt, err = parseTime(createdAt); err != nil {
		return SearchSummary{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return sum, nil
}

// Products returns the results of a search in ordinal order.
func (s *Store) Products(ctx context.Context, searchID string) ([]StoredProduct, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT search_id, ordinal, product_identifier, start_date, download_url, download_size, feature_json
		 FROM products WHERE search_id = ? ORDER BY ordinal`, searchID)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var out []StoredProduct
	for rows.Next() {
		var (
			p     StoredProduct
			start sql.NullString
		)
		if err := rows.Scan(&p.SearchID, &p.Ordinal, &p.ProductIdentifier, &start, &p.DownloadURL, &p.DownloadSize, &p.FeatureJSON); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		if start.Valid {
			t, err := parseTime(start.String)
			if err != nil {
				return nil, fmt.Errorf("parsing start_date of %s: %w", p.ProductIdentifier, err)
			}
			p.StartDate = &t
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RecordTransfer appends one transfer attempt.
func (s *Store) RecordTransfer(ctx context.Context, rec TransferRecord) error {
	var errText sql.NullString
	if rec.Error != "" {
		errText = sql.NullString{String: rec.Error, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transfers (product_identifier, destination, expected_bytes, bytes_written, status, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ProductIdentifier, rec.Destination, rec.ExpectedBytes, rec.BytesWritten,
		rec.Status, errText, formatTime(rec.StartedAt), formatTime(rec.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting transfer: %w", err)
	}
	return nil
}

// Transfers returns up to limit transfer attempts, newest first. A limit of
// zero or less returns all of them.
func (s *Store) Transfers(ctx context.Context, limit int) ([]TransferRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, product_identifier, destination, expected_bytes, bytes_written, status, error, started_at, finished_at
		 FROM transfers ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying transfers: %w", err)
	}
	defer rows.Close()

	var out []TransferRecord
	for rows.Next() {
		var (
			r                 TransferRecord
			errText           sql.NullString
			started, finished string
		)
		if err := rows.Scan(&r.ID, &r.ProductIdentifier, &r.Destination, &r.ExpectedBytes, &r.BytesWritten,
			&r.Status, &errText, &started, &finished); err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}
		r.Error = errText.String
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		if r.FinishedAt, err = parseTime(finished); err != nil {
			return nil, fmt.Errorf("parsing finished_at: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
