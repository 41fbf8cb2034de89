package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"PersonIntel/internal/domain"
	"PersonIntel/internal/ports"
)

const reportsTable = "intelligence_reports"

// Schema creates the report history table.
const Schema = `CREATE TABLE IF NOT EXISTS intelligence_reports (
    run_id             TEXT PRIMARY KEY,
    name               TEXT NOT NULL,
    name_key           TEXT NOT NULL,
    query_time         TIMESTAMPTZ NOT NULL,
    risk_level         TEXT NOT NULL,
    confidence         DOUBLE PRECISION NOT NULL,
    sources_checked    TEXT[] NOT NULL,
    sources_successful TEXT[] NOT NULL,
    error_count        INTEGER NOT NULL,
    payload            JSONB NOT NULL,
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS intelligence_reports_name_idx ON intelligence_reports (name_key, query_time DESC);`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository keeps finished intelligence records in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.ReportRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Open connects with the pq driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Save upserts the report keyed by run id.
func (r *PostgresRepository) Save(ctx context.Context, report domain.Intelligence) error {
	if r.db == nil {
		return nil
	}
	query, args, err := saveQuery(report)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert report: %w", err)
	}
	return nil
}

// Latest returns the most recent report for name, matched case-insensitively.
func (r *PostgresRepository) Latest(ctx context.Context, name string) (domain.Intelligence, bool, error) {
	if r.db == nil {
		return domain.Intelligence{}, false, nil
	}
	query, args, err := latestQuery(name)
	if err != nil {
		return domain.Intelligence{}, false, err
	}

	var payload []byte
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Intelligence{}, false, nil
	}
	if err != nil {
		return domain.Intelligence{}, false, fmt.Errorf("query latest report: %w", err)
	}

	var intel domain.Intelligence
	if err := json.Unmarshal(payload, &intel); err != nil {
		return domain.Intelligence{}, false, fmt.Errorf("decode report: %w", err)
	}
	return intel, true, nil
}

func saveQuery(report domain.Intelligence) (string, []any, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return "", nil, fmt.Errorf("encode report: %w", err)
	}
	query, args, err := psql.Insert(reportsTable).
		Columns("run_id", "name", "name_key", "query_time", "risk_level", "confidence",
			"sources_checked", "sources_successful", "error_count", "payload").
		Values(report.RunID, report.Name, nameKey(report.Name), report.QueryTime, string(report.RiskLevel),
			report.ConfidenceScore, pq.StringArray(report.SourcesChecked), pq.StringArray(report.SourcesSuccessful),
			len(report.Errors), payload).
		Suffix(`ON CONFLICT (run_id) DO UPDATE
              SET risk_level = EXCLUDED.risk_level,
                  confidence = EXCLUDED.confidence,
                  sources_checked = EXCLUDED.sources_checked,
                  sources_successful = EXCLUDED.sources_successful,
                  error_count = EXCLUDED.error_count,
                  payload = EXCLUDED.payload,
                  updated_at = NOW()`).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build upsert: %w", err)
	}
	return query, args, nil
}

func latestQuery(name string) (string, []any, error) {
	query, args, err := psql.Select("payload").
		From(reportsTable).
		Where(sq.Eq{"name_key": nameKey(name)}).
		OrderBy("query_time DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build select: %w", err)
	}
	return query, args, nil
}

func nameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
