package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/shinsa/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		total INTEGER NOT NULL,
		compliant INTEGER NOT NULL,
		non_compliant INTEGER NOT NULL,
		error_count INTEGER NOT NULL,
		warnings TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);

	CREATE TABLE IF NOT EXISTS verdicts (
		report_id TEXT NOT NULL,
		ordinal INTEGER NOT NULL,
		record_id TEXT NOT NULL,
		receipt_id TEXT,
		compliance TEXT NOT NULL,
		explanation TEXT NOT NULL,
		similarity_record REAL,
		similarity_receipt REAL,
		label TEXT,
		warnings TEXT,
		PRIMARY KEY (report_id, ordinal),
		FOREIGN KEY (report_id) REFERENCES reports(id) ON DELETE CASCADE
	);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveReport inserts a report and its verdicts in one transaction.
func (s *SQLiteStorage) SaveReport(ctx context.Context, r *models.Report) error {
	if r.ID == "" {
		return &models.InvalidInputError{Reason: "report id is empty"}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	warnings, err := marshalStrings(r.Warnings)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reports (id, mode, created_at, total, compliant, non_compliant, error_count, warnings)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Mode, r.CreatedAt, r.Summary.Total, r.Summary.Compliant, r.Summary.NonCompliant, r.Summary.Error, warnings,
	); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO verdicts (report_id, ordinal, record_id, receipt_id, compliance, explanation,
		 similarity_record, similarity_receipt, label, warnings)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, v := range r.Verdicts {
		vw, err := marshalStrings(v.Warnings)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID, i, v.RecordID, nullString(v.ReceiptID), string(v.Compliance), v.Explanation,
			nullFloat(v.SimilarityRecord), nullFloat(v.SimilarityReceipt), v.Label, vw,
		); err != nil {
			return fmt.Errorf("insert verdict %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// GetReport returns a report with its verdicts in their original order.
func (s *SQLiteStorage) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var r models.Report
	var warnings sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, mode, created_at, total, compliant, non_compliant, error_count, warnings
		 FROM reports WHERE id = ?`, id,
	).Scan(&r.ID, &r.Mode, &r.CreatedAt, &r.Summary.Total, &r.Summary.Compliant,
		&r.Summary.NonCompliant, &r.Summary.Error, &warnings)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if r.Warnings, err = unmarshalStrings(warnings); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT record_id, receipt_id, compliance, explanation, similarity_record, similarity_receipt, label, warnings
		 FROM verdicts WHERE report_id = ? ORDER BY ordinal`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	r.Verdicts = make([]models.Verdict, 0, r.Summary.Total)
	for rows.Next() {
		var v models.Verdict
		var receiptID, label, vw sql.NullString
		var simRec, simRcpt sql.NullFloat64
		var compliance string
		if err := rows.Scan(&v.RecordID, &receiptID, &compliance, &v.Explanation, &simRec, &simRcpt, &label, &vw); err != nil {
			return nil, err
		}
		v.Compliance = models.Compliance(compliance)
		if receiptID.Valid {
			v.ReceiptID = &receiptID.String
		}
		if simRec.Valid {
			v.SimilarityRecord = &simRec.Float64
		}
		if simRcpt.Valid {
			v.SimilarityReceipt = &simRcpt.Float64
		}
		v.Label = label.String
		if v.Warnings, err = unmarshalStrings(vw); err != nil {
			return nil, err
		}
		r.Verdicts = append(r.Verdicts, v)
	}
	return &r, rows.Err()
}

// ListReports returns report summaries with offset and limit, newest first.
func (s *SQLiteStorage) ListReports(ctx context.Context, offset, limit int) ([]*models.ReportInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, created_at, total, compliant, non_compliant, error_count
		 FROM reports ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	infos := make([]*models.ReportInfo, 0)
	for rows.Next() {
		var info models.ReportInfo
		if err := rows.Scan(&info.ID, &info.Mode, &info.CreatedAt, &info.Summary.Total,
			&info.Summary.Compliant, &info.Summary.NonCompliant, &info.Summary.Error); err != nil {
			return nil, err
		}
		infos = append(infos, &info)
	}
	return infos, rows.Err()
}

// DeleteReport removes a report and its verdicts.
func (s *SQLiteStorage) DeleteReport(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM verdicts WHERE report_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return tx.Commit()
}

// CountReports returns the total number of reports.
func (s *SQLiteStorage) CountReports(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&count)
	return count, err
}

// DiskUsageBytes returns the size of the database including its WAL files.
func (s *SQLiteStorage) DiskUsageBytes() (int64, error) {
	return databaseSize(s.path)
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func marshalStrings(ss []string) (sql.NullString, error) {
	if len(ss) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(ss)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal warnings: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func unmarshalStrings(ns sql.NullString) ([]string, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var ss []string
	if err := json.Unmarshal([]byte(ns.String), &ss); err != nil {
		return nil, fmt.Errorf("failed to unmarshal warnings: %w", err)
	}
	return ss, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

var _ Storage = (*SQLiteStorage)(nil)
