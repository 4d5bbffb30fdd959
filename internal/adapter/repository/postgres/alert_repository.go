package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/auditflow/rule-engine/internal/domain"
)

// AlertRepository implements domain.AlertRepository backed by PostgreSQL.
// All access goes through the bounded connection pool of the shared *sql.DB;
// pool exhaustion blocks callers, which backpressures the stream consumer.
type AlertRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAlertRepository creates a PostgreSQL alert repository.
func NewAlertRepository(db *sql.DB, logger *slog.Logger) *AlertRepository {
	return &AlertRepository{db: db, logger: logger.With("component", "alert_repository")}
}

// EnsureSchema idempotently creates the alerts table and its lookup
// indexes. Safe to run on every boot.
func (r *AlertRepository) EnsureSchema(ctx context.Context) error {
	const createTable = `
		CREATE TABLE IF NOT EXISTS alerts (
			id SERIAL PRIMARY KEY,
			rule_name VARCHAR(255) NOT NULL,
			level VARCHAR(50) NOT NULL DEFAULT 'medium',
			message TEXT,
			status VARCHAR(50) NOT NULL DEFAULT 'new',
			event_id INTEGER,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`
	if _, err := r.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create alerts table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_alerts_level ON alerts(level)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts(status)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_event_id ON alerts(event_id)`,
	}
	for _, stmt := range indexes {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create alerts index: %w", err)
		}
	}

	// The events table belongs to the ingestion API and may not exist yet
	// when the engine boots first; attach the FK only once it does.
	const addForeignKey = `
		DO $$
		BEGIN
			IF EXISTS (SELECT FROM information_schema.tables WHERE table_name = 'events')
				AND NOT EXISTS (
					SELECT FROM information_schema.table_constraints
					WHERE table_name = 'alerts' AND constraint_name = 'alerts_event_id_fkey'
				) THEN
				ALTER TABLE alerts ADD CONSTRAINT alerts_event_id_fkey
					FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE SET NULL;
			END IF;
		END $$`
	if _, err := r.db.ExecContext(ctx, addForeignKey); err != nil {
		return fmt.Errorf("failed to attach event_id foreign key: %w", err)
	}

	r.logger.Info("alerts schema ready")
	return nil
}

// Exists is the authoritative dedup check for a (event id, rule name) pair.
// A nil eventID reports false: unattributable alerts are never deduplicated.
func (r *AlertRepository) Exists(ctx context.Context, eventID *int64, ruleName string) (bool, error) {
	if eventID == nil {
		return false, nil
	}

	const query = `SELECT EXISTS(SELECT 1 FROM alerts WHERE event_id = $1 AND rule_name = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, *eventID, ruleName).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check alert existence: %w", err)
	}
	return exists, nil
}

// Insert persists a candidate as a new alert and returns the generated id.
// The row starts with status "new" and matching created/updated timestamps.
func (r *AlertRepository) Insert(ctx context.Context, candidate domain.AlertCandidate) (int64, error) {
	const query = `
		INSERT INTO alerts (rule_name, level, message, status, event_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id`

	var eventID sql.NullInt64
	if candidate.EventID != nil {
		eventID = sql.NullInt64{Int64: *candidate.EventID, Valid: true}
	}

	now := time.Now().UTC()

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		candidate.RuleName,
		string(candidate.Level),
		candidate.Message,
		string(domain.AlertStatusNew),
		eventID,
		now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert alert %q: %w", candidate.RuleName, err)
	}
	return id, nil
}

// UpdateStatus sets the status of an alert, bumping updated_at. It reports
// whether a row was affected and rejects unknown status values.
func (r *AlertRepository) UpdateStatus(ctx context.Context, alertID int64, status domain.AlertStatus) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("invalid alert status %q", status)
	}

	const query = `UPDATE alerts SET status = $1, updated_at = $2 WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, string(status), time.Now().UTC(), alertID)
	if err != nil {
		return false, fmt.Errorf("failed to update alert %d status: %w", alertID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
