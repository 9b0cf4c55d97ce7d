// File: internal/store/store_test.go
package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/knakar/replyvet/api/schemas"
)

// flexibleSQLMatcher creates a regex that is insensitive to whitespace for
// more robust SQL mock testing.
func flexibleSQLMatcher(sql string) string {
	trimmed := strings.TrimSpace(sql)
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(trimmed), `\s+`)
}

var roundColumns = []string{"session_id", "round_index", "reply", "assessment", "passed"}

func approvedOutcome() *schemas.Outcome {
	assessment := &schemas.Assessment{
		DimensionScores: map[string]float64{"clarity": 9, "safety": 9},
		OverallScore:    9,
		Feedback:        "Clear and safe.",
	}
	candidate := schemas.Candidate{
		Text: "Tuesday works for me.",
		DeclaredActions: []schemas.DeclaredAction{{
			Kind: schemas.ActionRecordContact,
			Contact: &schemas.RecordContactPayload{
				Email:   "recruiter@example.com",
				Company: "Acme",
			},
		}},
	}
	return &schemas.Outcome{
		Kind:      schemas.OutcomeApproved,
		SessionID: "session-1",
		Message: schemas.InboundMessage{
			ID:     "session-1",
			Sender: "recruiter@example.com",
			Body:   "Interview Tuesday?",
		},
		Candidate:  &candidate,
		Assessment: assessment,
		RoundCount: 1,
		Rounds: []schemas.RevisionRound{
			{Index: 1, Candidate: candidate, Assessment: assessment, Passed: true},
		},
		CompletedAt: time.Now(),
	}
}

func setupStore(t *testing.T) (pgxmock.PgxPoolIface, *Store) {
	t.Helper()
	mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	mockPool.ExpectPing().WillReturnError(nil)
	s, err := New(context.Background(), mockPool, zap.NewNop())
	require.NoError(t, err)
	return mockPool, s
}

func TestNewStore(t *testing.T) {
	t.Run("should return error if ping fails", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer mockPool.Close()

		pingErr := errors.New("database unavailable")
		mockPool.ExpectPing().WillReturnError(pingErr)

		_, err = New(context.Background(), mockPool, zap.NewNop())
		require.Error(t, err)
		assert.ErrorIs(t, err, pingErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestEnsureSchema(t *testing.T) {
	mockPool, s := setupStore(t)

	mockPool.ExpectExec(flexibleSQLMatcher(schemaSQL)).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRecordOutcome(t *testing.T) {
	ctx := context.Background()

	t.Run("should persist an approved outcome without rollback errors", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer mockPool.Close()

		observedZapCore, observedLogs := observer.New(zapcore.ErrorLevel)
		mockPool.ExpectPing().WillReturnError(nil)
		s, err := New(ctx, mockPool, zap.New(observedZapCore))
		require.NoError(t, err)

		outcome := approvedOutcome()

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(insertOutcomeSQL)).
			WithArgs(
				outcome.SessionID, "approved",
				"recruiter@example.com", "Interview Tuesday?",
				pgxmock.AnyArg(), pgxmock.AnyArg(), 1, pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCopyFrom(pgx.Identifier{"review_rounds"}, roundColumns).
			WillReturnResult(1)
		mockPool.ExpectCommit()
		mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

		require.NoError(t, s.RecordOutcome(ctx, outcome))
		assert.NoError(t, mockPool.ExpectationsWereMet())
		assert.Empty(t, observedLogs.All(), "no errors should be logged on a successful commit")
	})

	t.Run("should persist an escalated outcome with no candidate", func(t *testing.T) {
		mockPool, s := setupStore(t)

		outcome := &schemas.Outcome{
			Kind:      schemas.OutcomeEscalated,
			SessionID: "session-2",
			Message: schemas.InboundMessage{
				ID: "session-2", Sender: "a@b.c", Body: "hi",
			},
			RoundCount:  1,
			Reason:      schemas.ReasonGenerationFailure,
			CompletedAt: time.Now(),
		}

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(insertOutcomeSQL)).
			WithArgs(
				"session-2", "escalated", "a@b.c", "hi",
				(*string)(nil), (*float64)(nil), 1, pgxmock.AnyArg(),
				[]byte("[]"), pgxmock.AnyArg(),
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCommit()
		mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

		require.NoError(t, s.RecordOutcome(ctx, outcome))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should handle transaction begin failure", func(t *testing.T) {
		mockPool, s := setupStore(t)

		beginErr := errors.New("cannot begin tx")
		mockPool.ExpectBegin().WillReturnError(beginErr)

		err := s.RecordOutcome(ctx, approvedOutcome())
		require.Error(t, err)
		assert.ErrorIs(t, err, beginErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should rollback if copying rounds fails", func(t *testing.T) {
		mockPool, s := setupStore(t)

		copyErr := errors.New("copy from failed")
		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(insertOutcomeSQL)).
			WithArgs(
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCopyFrom(pgx.Identifier{"review_rounds"}, roundColumns).
			WillReturnError(copyErr)
		mockPool.ExpectRollback()

		err := s.RecordOutcome(ctx, approvedOutcome())
		require.Error(t, err)
		assert.ErrorIs(t, err, copyErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should reject a nil outcome", func(t *testing.T) {
		_, s := setupStore(t)
		assert.Error(t, s.RecordOutcome(ctx, nil))
	})
}

func TestListRecentOutcomes(t *testing.T) {
	ctx := context.Background()

	t.Run("should retrieve outcomes most recent first", func(t *testing.T) {
		mockPool, s := setupStore(t)

		overall := 9.0
		columns := []string{
			"session_id", "kind", "sender", "message",
			"reply", "overall_score", "round_count", "reason", "completed_at",
		}
		rows := pgxmock.NewRows(columns).
			AddRow("session-1", "approved", "recruiter@example.com", "Interview Tuesday?",
				"Tuesday works for me.", &overall, 1, "", "2026-08-31 10:00:00+00").
			AddRow("session-0", "escalated", "hr@example.com", "Salary?",
				"", (*float64)(nil), 1, "flagged-by-agent", "2026-08-30 09:00:00+00")

		mockPool.ExpectQuery(flexibleSQLMatcher(listOutcomesSQL)).
			WithArgs(10).
			WillReturnRows(rows)

		records, err := s.ListRecentOutcomes(ctx, 10)
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, schemas.OutcomeApproved, records[0].Kind)
		require.NotNil(t, records[0].OverallScore)
		assert.InDelta(t, 9.0, *records[0].OverallScore, 1e-9)
		assert.Equal(t, schemas.OutcomeEscalated, records[1].Kind)
		assert.Equal(t, "flagged-by-agent", records[1].Reason)
		assert.Nil(t, records[1].OverallScore)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("defaults the limit", func(t *testing.T) {
		mockPool, s := setupStore(t)

		mockPool.ExpectQuery(flexibleSQLMatcher(listOutcomesSQL)).
			WithArgs(20).
			WillReturnRows(pgxmock.NewRows([]string{
				"session_id", "kind", "sender", "message",
				"reply", "overall_score", "round_count", "reason", "completed_at",
			}))

		records, err := s.ListRecentOutcomes(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, records)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
