// README: Worker profile store backed by PostgreSQL.
package worker

import (
	"context"
	"database/sql"
	"errors"

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

const profileColumns = `
	user_id, name, phone, avatar, online_status, account_status,
	service_categories, skills, average_rating, acceptance_rate,
	completion_rate, completed_orders,
	last_location_lat, last_location_lng, location_updated_at`

// Available returns workers that are online or busy, offer the category,
// meet the rating floor, and belong to an active account. Location presence
// and distance are filtered by the matching engine, not here.
func (s *Store) Available(ctx context.Context, category string, minRating float64) ([]Profile, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+profileColumns+`
		FROM worker_profiles
		WHERE online_status IN ('online', 'busy')
		  AND $1 = ANY(service_categories)
		  AND average_rating >= $2
		  AND account_status = 'active'`,
		category, minRating,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (s *Store) Get(ctx context.Context, userID types.ID) (*Profile, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM worker_profiles
		WHERE user_id = $1`, string(userID),
	)
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListOnline returns currently online-or-busy workers for the dispatch board.
func (s *Store) ListOnline(ctx context.Context, limit int) ([]Profile, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+profileColumns+`
		FROM worker_profiles
		WHERE online_status IN ('online', 'busy')
		  AND account_status = 'active'
		ORDER BY location_updated_at DESC NULLS LAST
		LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (s *Store) Upsert(ctx context.Context, p *Profile) error {
	var lat, lng *float64
	if p.LastLocation != nil {
		lat, lng = &p.LastLocation.Lat, &p.LastLocation.Lng
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO worker_profiles (
			user_id, name, phone, avatar, online_status, account_status,
			service_categories, skills, average_rating, acceptance_rate,
			completion_rate, completed_orders,
			last_location_lat, last_location_lng, location_updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			avatar = EXCLUDED.avatar,
			service_categories = EXCLUDED.service_categories,
			skills = EXCLUDED.skills`,
		string(p.UserID), p.Name, p.Phone, p.Avatar,
		string(p.OnlineStatus), string(p.AccountStatus),
		p.ServiceCategories, p.Skills,
		p.AverageRating, p.AcceptanceRate, p.CompletionRate, p.CompletedOrders,
		lat, lng, p.LocationUpdatedAt,
	)
	return err
}

func (s *Store) UpdateOnlineStatus(ctx context.Context, userID types.ID, status OnlineStatus) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE worker_profiles SET online_status = $1 WHERE user_id = $2`,
		string(status), string(userID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateLocation(ctx context.Context, userID types.ID, p types.Point) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE worker_profiles
		SET last_location_lat = $1, last_location_lng = $2, location_updated_at = NOW()
		WHERE user_id = $3`,
		p.Lat, p.Lng, string(userID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// HiredCounts returns, per worker, how many of the employer's orders ended up
// with that worker assigned. Feeds the history-affinity score.
func (s *Store) HiredCounts(ctx context.Context, employerID types.ID) (map[types.ID]int, error) {
	rows, err := s.db.Query(ctx, `
		SELECT worker_id, COUNT(*)
		FROM orders
		WHERE employer_id = $1 AND worker_id IS NOT NULL
		GROUP BY worker_id`, string(employerID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[types.ID]int)
	for rows.Next() {
		var workerID string
		var n int
		if err := rows.Scan(&workerID, &n); err != nil {
			return nil, err
		}
		counts[types.ID(workerID)] = n
	}
	return counts, rows.Err()
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	var avatar sql.NullString
	var lat, lng sql.NullFloat64
	var locUpdated sql.NullTime

	err := row.Scan(
		&p.UserID, &p.Name, &p.Phone, &avatar, &p.OnlineStatus, &p.AccountStatus,
		&p.ServiceCategories, &p.Skills, &p.AverageRating, &p.AcceptanceRate,
		&p.CompletionRate, &p.CompletedOrders,
		&lat, &lng, &locUpdated,
	)
	if err != nil {
		return nil, err
	}

	if avatar.Valid {
		p.Avatar = &avatar.String
	}
	if lat.Valid && lng.Valid {
		p.LastLocation = &types.Point{Lat: lat.Float64, Lng: lng.Float64}
	}
	if locUpdated.Valid {
		t := locUpdated.Time
		p.LocationUpdatedAt = &t
	}
	return &p, nil
}
