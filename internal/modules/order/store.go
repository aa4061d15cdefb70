// README: Order store backed by PostgreSQL; status changes use conditional updates.
package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"laborhub/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const orderColumns = `
	id, employer_id, worker_id, title, service_category, required_skills,
	latitude, longitude, address, pay_amount, pay_currency,
	status, dispatch_status, created_at,
	accepted_at, started_at, completed_at, canceled_at, cancel_reason`

func (s *Store) Create(ctx context.Context, o *Order) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO orders (
			id, employer_id, worker_id, title, service_category, required_skills,
			latitude, longitude, address, pay_amount, pay_currency,
			status, dispatch_status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14
		)`,
		string(o.ID),
		string(o.EmployerID),
		toStringPtr(o.WorkerID),
		o.Title,
		o.ServiceCategory,
		o.RequiredSkills,
		o.Location.Lat, o.Location.Lng,
		o.Address,
		o.Pay.Amount, o.Pay.Currency,
		string(o.Status),
		string(o.DispatchStatus),
		o.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Order, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1`, string(id),
	)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateStatus moves the job-progress track from an expected prior value.
// Returns false when another writer got there first.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, reason *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = $1,
		    cancel_reason = COALESCE($2, cancel_reason),
		    started_at = CASE WHEN $1 = 'in_progress' THEN NOW() ELSE started_at END,
		    completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
		    canceled_at = CASE WHEN $1 = 'canceled' THEN NOW() ELSE canceled_at END
		WHERE id = $3 AND status = $4`,
		string(to),
		reason,
		string(id),
		string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateDispatchStatus is the atomic guard behind at-most-one active dispatch
// per order: the transition only happens when the current value still equals
// from, and the caller learns whether it won.
func (s *Store) UpdateDispatchStatus(ctx context.Context, id types.ID, from, to DispatchStatus) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET dispatch_status = $1
		WHERE id = $2 AND dispatch_status = $3`,
		string(to),
		string(id),
		string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// AssignWorker accepts an order for a worker in one conditional write:
// job status pending → accepted, dispatch status fromDispatch → assigned,
// worker recorded, acceptance timestamped.
func (s *Store) AssignWorker(ctx context.Context, id, workerID types.ID, fromDispatch DispatchStatus) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = 'accepted',
		    dispatch_status = 'assigned',
		    worker_id = $1,
		    accepted_at = NOW()
		WHERE id = $2 AND status = 'pending' AND dispatch_status = $3`,
		string(workerID),
		string(id),
		string(fromDispatch),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListOpenUnassigned returns pending, not-yet-dispatched orders for the
// dispatch board, oldest first.
func (s *Store) ListOpenUnassigned(ctx context.Context, limit int) ([]Order, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status = 'pending' AND dispatch_status = 'unassigned'
		ORDER BY created_at ASC
		LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (s *Store) ListByEmployer(ctx context.Context, employerID types.ID, limit int) ([]Order, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE employer_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, string(employerID), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var workerID sql.NullString
	var acceptedAt, startedAt, completedAt, canceledAt sql.NullTime
	var cancelReason sql.NullString

	err := row.Scan(
		&o.ID, &o.EmployerID, &workerID, &o.Title, &o.ServiceCategory, &o.RequiredSkills,
		&o.Location.Lat, &o.Location.Lng, &o.Address, &o.Pay.Amount, &o.Pay.Currency,
		&o.Status, &o.DispatchStatus, &o.CreatedAt,
		&acceptedAt, &startedAt, &completedAt, &canceledAt, &cancelReason,
	)
	if err != nil {
		return nil, err
	}

	if workerID.Valid {
		w := types.ID(workerID.String)
		o.WorkerID = &w
	}
	o.AcceptedAt = toTimePtr(acceptedAt)
	o.StartedAt = toTimePtr(startedAt)
	o.CompletedAt = toTimePtr(completedAt)
	o.CanceledAt = toTimePtr(canceledAt)
	if cancelReason.Valid {
		o.CancelReason = &cancelReason.String
	}
	return &o, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
