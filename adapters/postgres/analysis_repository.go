package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"fmeagraph/domain/analysis"
	"fmeagraph/domain/core"
	apperrors "fmeagraph/internal/errors"
	"fmeagraph/ports"

	"github.com/jmoiron/sqlx"
)

// analysisRow is the analyses table layout. created_at is RFC3339 text so
// it orders the same way on every driver.
type analysisRow struct {
	ID           string `db:"id"`
	Source       string `db:"source"`
	Fingerprint  string `db:"fingerprint"`
	ProcessCount int    `db:"process_count"`
	FailureCount int    `db:"failure_count"`
	Payload      string `db:"payload"`
	CreatedAt    string `db:"created_at"`
}

// AnalysisRepositoryImpl implements AnalysisRepository on sqlx. Queries are
// written with ? placeholders and rebound for the connected driver.
type AnalysisRepositoryImpl struct {
	db *sqlx.DB
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *sqlx.DB) ports.AnalysisRepository {
	return &AnalysisRepositoryImpl{db: db}
}

// Save upserts a record
func (r *AnalysisRepositoryImpl) Save(ctx context.Context, rec *analysis.Record) error {
	if rec == nil || rec.ID == "" {
		return apperrors.InvalidInput("analysis record requires an id")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode analysis")
	}

	query := r.db.Rebind(`
		INSERT INTO analyses (id, source, fingerprint, process_count, failure_count, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			source = excluded.source,
			fingerprint = excluded.fingerprint,
			process_count = excluded.process_count,
			failure_count = excluded.failure_count,
			payload = excluded.payload
	`)
	_, err = r.db.ExecContext(ctx, query,
		rec.ID.String(),
		rec.Source,
		rec.Fingerprint.String(),
		len(rec.Processes),
		len(rec.Failures),
		string(payload),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return apperrors.DatabaseError("failed to save analysis", err)
	}
	return nil
}

// Get loads one record
func (r *AnalysisRepositoryImpl) Get(ctx context.Context, id core.AnalysisID) (*analysis.Record, error) {
	var row analysisRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`
		SELECT id, source, fingerprint, process_count, failure_count, payload, created_at
		FROM analyses
		WHERE id = ?
	`), id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("analysis", id.String())
	}
	if err != nil {
		return nil, apperrors.DatabaseError("failed to load analysis", err)
	}
	return row.decode()
}

// List returns records newest first
func (r *AnalysisRepositoryImpl) List(ctx context.Context, limit int) ([]*analysis.Record, error) {
	query := `
		SELECT id, source, fingerprint, process_count, failure_count, payload, created_at
		FROM analyses
		ORDER BY created_at DESC, id DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []analysisRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, apperrors.DatabaseError("failed to list analyses", err)
	}

	records := make([]*analysis.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.decode()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (row analysisRow) decode() (*analysis.Record, error) {
	var rec analysis.Record
	if err := json.Unmarshal([]byte(row.Payload), &rec); err != nil {
		return nil, apperrors.DatabaseError("corrupt analysis payload "+row.ID, err)
	}
	return &rec, nil
}
