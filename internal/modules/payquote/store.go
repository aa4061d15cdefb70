// README: Pay-rate store backed by PostgreSQL.
package payquote

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUnknownCategory = errors.New("no pay rate for category")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetRate(ctx context.Context, category string) (Rate, error) {
	var r Rate
	err := s.db.QueryRow(ctx, `
		SELECT category, base_amount, per_hour, currency
		FROM pay_rates
		WHERE category = $1`, category,
	).Scan(&r.Category, &r.BaseAmount, &r.PerHour, &r.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rate{}, ErrUnknownCategory
	}
	if err != nil {
		return Rate{}, err
	}
	return r, nil
}
