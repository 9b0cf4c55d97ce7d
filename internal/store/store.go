// File: internal/store/store.go
// Package store persists terminal review outcomes to PostgreSQL for audit
// and later analysis. The review core never reads from here; this is a
// write-mostly edge.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/knakar/replyvet/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DBPool abstracts pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Store is the PostgreSQL implementation of schemas.AuditStore.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// Connect opens a pgx pool against the given database URL.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	return pool, nil
}

// New creates a store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS review_outcomes (
    session_id    TEXT PRIMARY KEY,
    kind          TEXT NOT NULL,
    sender        TEXT NOT NULL,
    message       TEXT NOT NULL,
    reply         TEXT,
    overall_score DOUBLE PRECISION,
    round_count   INT NOT NULL,
    reason        TEXT,
    actions       JSONB NOT NULL DEFAULT '[]',
    completed_at  TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS review_rounds (
    session_id  TEXT NOT NULL,
    round_index INT NOT NULL,
    reply       TEXT NOT NULL,
    assessment  JSONB,
    passed      BOOL NOT NULL,
    PRIMARY KEY (session_id, round_index)
);
`

// EnsureSchema creates the audit tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create audit schema: %w", err)
	}
	return nil
}

const insertOutcomeSQL = `
INSERT INTO review_outcomes
    (session_id, kind, sender, message, reply, overall_score, round_count, reason, actions, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`

// RecordOutcome writes one outcome and its full round history in a single
// transaction.
func (s *Store) RecordOutcome(ctx context.Context, outcome *schemas.Outcome) error {
	if outcome == nil {
		return errors.New("cannot record a nil outcome")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	var reply *string
	if outcome.Candidate != nil {
		reply = &outcome.Candidate.Text
	}
	var overall *float64
	if outcome.Assessment != nil {
		overall = &outcome.Assessment.OverallScore
	}
	var reason *string
	if outcome.Reason != "" {
		r := string(outcome.Reason)
		reason = &r
	}

	actions, err := json.Marshal(outcome.CommittedActions())
	if err != nil {
		return fmt.Errorf("failed to marshal committed actions: %w", err)
	}
	if string(actions) == "null" {
		actions = []byte("[]")
	}

	if _, err := tx.Exec(ctx, insertOutcomeSQL,
		outcome.SessionID, string(outcome.Kind),
		outcome.Message.Sender, outcome.Message.Body,
		reply, overall, outcome.RoundCount, reason,
		actions, outcome.CompletedAt.UTC(),
	); err != nil {
		return fmt.Errorf("failed to insert outcome: %w", err)
	}

	if len(outcome.Rounds) > 0 {
		if err := s.persistRounds(ctx, tx, outcome.SessionID, outcome.Rounds); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) persistRounds(ctx context.Context, tx pgx.Tx, sessionID string, rounds []schemas.RevisionRound) error {
	rows := make([][]interface{}, len(rounds))
	for i, rd := range rounds {
		var assessment []byte
		if rd.Assessment != nil {
			var err error
			assessment, err = json.Marshal(rd.Assessment)
			if err != nil {
				return fmt.Errorf("failed to marshal assessment for round %d: %w", rd.Index, err)
			}
		}
		rows[i] = []interface{}{sessionID, rd.Index, rd.Candidate.Text, assessment, rd.Passed}
	}

	copyCount, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"review_rounds"},
		[]string{"session_id", "round_index", "reply", "assessment", "passed"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy rounds: %w", err)
	}
	if int(copyCount) != len(rounds) {
		return fmt.Errorf("mismatch in copied round count: expected %d, got %d", len(rounds), copyCount)
	}
	return nil
}

// OutcomeRecord is one row of the audit log as read back for reporting.
type OutcomeRecord struct {
	SessionID    string
	Kind         schemas.OutcomeKind
	Sender       string
	Message      string
	Reply        string
	OverallScore *float64
	RoundCount   int
	Reason       string
	CompletedAt  string
}

const listOutcomesSQL = `
SELECT session_id, kind, sender, message,
       COALESCE(reply, ''), overall_score, round_count,
       COALESCE(reason, ''), completed_at::text
FROM review_outcomes
ORDER BY completed_at DESC
LIMIT $1;
`

// ListRecentOutcomes returns the newest outcomes, most recent first.
func (s *Store) ListRecentOutcomes(ctx context.Context, limit int) ([]OutcomeRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, listOutcomesSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	var records []OutcomeRecord
	for rows.Next() {
		var rec OutcomeRecord
		var kind string
		if err := rows.Scan(
			&rec.SessionID, &kind, &rec.Sender, &rec.Message,
			&rec.Reply, &rec.OverallScore, &rec.RoundCount,
			&rec.Reason, &rec.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outcome row: %w", err)
		}
		rec.Kind = schemas.OutcomeKind(kind)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return records, nil
}
