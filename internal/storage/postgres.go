package storage

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// PostgresLedger is the durable ledger implementation. Terminal sessions are
// never deleted, so the table doubles as the audit record.
type PostgresLedger struct {
	db *sql.DB
}

// NewPostgresLedger creates a Postgres-backed ledger.
func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS escrow_sessions (
	session_id            TEXT PRIMARY KEY,
	payer                 TEXT NOT NULL,
	provider              TEXT NOT NULL,
	asset                 TEXT NOT NULL,
	total_amount          NUMERIC(78,0) NOT NULL,
	released_amount       NUMERIC(78,0) NOT NULL,
	refunded_amount       NUMERIC(78,0) NOT NULL DEFAULT 0,
	platform_fee          NUMERIC(78,0) NOT NULL DEFAULT 0,
	duration_minutes      BIGINT NOT NULL,
	status                TEXT NOT NULL,
	active                BOOLEAN NOT NULL DEFAULT FALSE,
	paused                BOOLEAN NOT NULL DEFAULT FALSE,
	survey_completed      BOOLEAN NOT NULL DEFAULT FALSE,
	rating                INT NOT NULL DEFAULT 0,
	feedback              TEXT NOT NULL DEFAULT '',
	resolution_note       TEXT NOT NULL DEFAULT '',
	created_at            TIMESTAMPTZ NOT NULL,
	started_at            TIMESTAMPTZ,
	last_liveness_signal  TIMESTAMPTZ NOT NULL,
	accumulated_paused_ms BIGINT NOT NULL DEFAULT 0,
	finalized_at          TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_escrow_sessions_payer ON escrow_sessions (payer);
CREATE INDEX IF NOT EXISTS idx_escrow_sessions_provider ON escrow_sessions (provider);
CREATE INDEX IF NOT EXISTS idx_escrow_sessions_status ON escrow_sessions (status);
`

// EnsureSchema creates the ledger table and indexes if missing.
func (l *PostgresLedger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, ledgerSchema); err != nil {
		return errors.Wrap(err, "failed to apply ledger schema")
	}
	return nil
}

// CreateSession inserts a new record, failing on duplicate id.
func (l *PostgresLedger) CreateSession(ctx context.Context, rec *SessionRecord) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO escrow_sessions (
			session_id, payer, provider, asset,
			total_amount, released_amount, refunded_amount, platform_fee,
			duration_minutes, status, active, paused, survey_completed,
			rating, feedback, resolution_note,
			created_at, started_at, last_liveness_signal, accumulated_paused_ms, finalized_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
		rec.SessionID, rec.Payer, rec.Provider, rec.Asset,
		rec.TotalAmount, rec.ReleasedAmount, rec.RefundedAmount, rec.PlatformFee,
		rec.ScheduledDurationMinutes, rec.Status, rec.Active, rec.Paused, rec.SurveyCompleted,
		rec.Rating, rec.Feedback, rec.ResolutionNote,
		rec.CreatedAt, rec.StartedAt, rec.LastLivenessSignal, rec.AccumulatedPausedMs, rec.FinalizedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return errors.Wrap(ErrDuplicate, rec.SessionID)
		}
		return errors.Wrap(err, "failed to insert session")
	}
	return nil
}

// GetSession loads a record by id.
func (l *PostgresLedger) GetSession(ctx context.Context, sessionID string) (*SessionRecord, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT session_id, payer, provider, asset,
			total_amount, released_amount, refunded_amount, platform_fee,
			duration_minutes, status, active, paused, survey_completed,
			rating, feedback, resolution_note,
			created_at, started_at, last_liveness_signal, accumulated_paused_ms, finalized_at
		FROM escrow_sessions WHERE session_id = $1`, sessionID)

	rec, err := scanSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Wrap(ErrNotFound, sessionID)
		}
		return nil, errors.Wrap(err, "failed to get session")
	}
	return rec, nil
}

// UpdateSession overwrites the mutable columns of an existing record.
func (l *PostgresLedger) UpdateSession(ctx context.Context, rec *SessionRecord) error {
	res, err := l.db.ExecContext(ctx, `
		UPDATE escrow_sessions SET
			released_amount = $2, refunded_amount = $3, platform_fee = $4,
			status = $5, active = $6, paused = $7, survey_completed = $8,
			rating = $9, feedback = $10, resolution_note = $11,
			started_at = $12, last_liveness_signal = $13,
			accumulated_paused_ms = $14, finalized_at = $15
		WHERE session_id = $1`,
		rec.SessionID,
		rec.ReleasedAmount, rec.RefundedAmount, rec.PlatformFee,
		rec.Status, rec.Active, rec.Paused, rec.SurveyCompleted,
		rec.Rating, rec.Feedback, rec.ResolutionNote,
		rec.StartedAt, rec.LastLivenessSignal,
		rec.AccumulatedPausedMs, rec.FinalizedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update session")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read update result")
	}
	if n == 0 {
		return errors.Wrap(ErrNotFound, rec.SessionID)
	}
	return nil
}

// ListSessions returns records matching the filter, oldest first.
func (l *PostgresLedger) ListSessions(ctx context.Context, filter *SessionFilter) ([]*SessionRecord, error) {
	query := `
		SELECT session_id, payer, provider, asset,
			total_amount, released_amount, refunded_amount, platform_fee,
			duration_minutes, status, active, paused, survey_completed,
			rating, feedback, resolution_note,
			created_at, started_at, last_liveness_signal, accumulated_paused_ms, finalized_at
		FROM escrow_sessions
		WHERE ($1 = '' OR payer = $1)
		  AND ($2 = '' OR provider = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY created_at ASC`

	var payer, provider, status string
	limit, offset := 100, 0
	if filter != nil {
		payer, provider, status = filter.Payer, filter.Provider, filter.Status
		if filter.Limit > 0 {
			limit = filter.Limit
		}
		if filter.Offset > 0 {
			offset = filter.Offset
		}
	}

	rows, err := l.db.QueryContext(ctx, query+` LIMIT $4 OFFSET $5`, payer, provider, status, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sessions")
	}
	defer rows.Close()

	var out []*SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan session")
		}
		out = append(out, rec)
	}
	return out, errors.Wrap(rows.Err(), "failed to iterate sessions")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*SessionRecord, error) {
	var rec SessionRecord
	var startedAt, finalizedAt sql.NullTime
	err := row.Scan(
		&rec.SessionID, &rec.Payer, &rec.Provider, &rec.Asset,
		&rec.TotalAmount, &rec.ReleasedAmount, &rec.RefundedAmount, &rec.PlatformFee,
		&rec.ScheduledDurationMinutes, &rec.Status, &rec.Active, &rec.Paused, &rec.SurveyCompleted,
		&rec.Rating, &rec.Feedback, &rec.ResolutionNote,
		&rec.CreatedAt, &startedAt, &rec.LastLivenessSignal, &rec.AccumulatedPausedMs, &finalizedAt,
	)
	if err != nil {
		return nil, err
	}
	if startedAt.Valid {
		rec.StartedAt = &startedAt.Time
	}
	if finalizedAt.Valid {
		rec.FinalizedAt = &finalizedAt.Time
	}
	return &rec, nil
}
