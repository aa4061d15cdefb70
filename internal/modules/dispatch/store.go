// README: Dispatch record store; insert-only creation, conditional resolution.
package dispatch

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"laborhub/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const recordColumns = `
	id, order_id, worker_id, dispatch_type, status, priority_score,
	distance, accept_deadline, reject_reason, dispatched_at`

func (s *PGStore) Create(ctx context.Context, r *Record) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO dispatch_records (
			id, order_id, worker_id, dispatch_type, status, priority_score,
			distance, accept_deadline, reject_reason, dispatched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		string(r.ID),
		string(r.OrderID),
		string(r.WorkerID),
		string(r.Type),
		string(r.Status),
		r.PriorityScore,
		r.Distance,
		r.AcceptDeadline,
		r.RejectReason,
		r.DispatchedAt,
	)
	return err
}

// PendingByOrder returns the order's active (pending) record, or nil when
// there is none.
func (s *PGStore) PendingByOrder(ctx context.Context, orderID types.ID) (*Record, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM dispatch_records
		WHERE order_id = $1 AND status = 'pending'
		ORDER BY dispatched_at DESC
		LIMIT 1`, string(orderID),
	)
	r, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Resolve moves a pending record into a terminal status. Returns false when
// the record was already resolved by someone else.
func (s *PGStore) Resolve(ctx context.Context, id types.ID, to Status, reason *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE dispatch_records
		SET status = $1,
		    reject_reason = COALESCE($2, reject_reason)
		WHERE id = $3 AND status = 'pending'`,
		string(to),
		reason,
		string(id),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListExpiredPending returns pending records whose accept deadline has
// passed, oldest deadline first.
func (s *PGStore) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]Record, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+recordColumns+`
		FROM dispatch_records
		WHERE status = 'pending' AND accept_deadline < $1
		ORDER BY accept_deadline ASC
		LIMIT $2`, now, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (s *PGStore) ListByOrder(ctx context.Context, orderID types.ID) ([]Record, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+recordColumns+`
		FROM dispatch_records
		WHERE order_id = $1
		ORDER BY dispatched_at DESC`, string(orderID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	var reason sql.NullString

	err := row.Scan(
		&r.ID, &r.OrderID, &r.WorkerID, &r.Type, &r.Status, &r.PriorityScore,
		&r.Distance, &r.AcceptDeadline, &reason, &r.DispatchedAt,
	)
	if err != nil {
		return nil, err
	}
	if reason.Valid {
		r.RejectReason = &reason.String
	}
	return &r, nil
}
