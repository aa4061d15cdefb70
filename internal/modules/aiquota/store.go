package aiquota

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store handles ai_explain_quota persistence.
type Store struct {
	db *pgxpool.Pool
}

// NewStore returns a Store backed by the given connection pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// UseCredit atomically checks the monthly quota and deducts one credit.
// It resets the counter to DefaultCredits when last_reset_month is behind
// the current month. Returns ErrQuotaExhausted when 0 rows are updated
// (quota exhausted or employer absent).
func (s *Store) UseCredit(ctx context.Context, employerID string) error {
	month := time.Now().Format("2006-01")

	tag, err := s.db.Exec(ctx, `
		UPDATE ai_explain_quota SET
			credits_remaining = CASE WHEN last_reset_month != $1 THEN $2 - 1 ELSE credits_remaining - 1 END,
			last_reset_month = $1
		WHERE employer_id = $3 AND (last_reset_month < $1 OR credits_remaining > 0)
	`, month, DefaultCredits, employerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrQuotaExhausted
	}
	return nil
}

// EnsureEmployer inserts a new quota row with the default allowance.
// If the row already exists the insert is silently skipped.
func (s *Store) EnsureEmployer(ctx context.Context, employerID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ai_explain_quota (employer_id, credits_remaining, last_reset_month)
		VALUES ($1, $2, $3)
		ON CONFLICT (employer_id) DO NOTHING
	`, employerID, DefaultCredits, time.Now().Format("2006-01"))
	return err
}
