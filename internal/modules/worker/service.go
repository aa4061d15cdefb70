// README: Worker profile service used by the HTTP layer.
package worker

import (
	"context"
	"errors"
	"strings"

	"laborhub/internal/types"
)

var (
	ErrNotFound   = errors.New("worker not found")
	ErrBadRequest = errors.New("bad request")
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, userID types.ID) (*Profile, error) {
	return s.store.Get(ctx, userID)
}

func (s *Service) ListOnline(ctx context.Context, limit int) ([]Profile, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.store.ListOnline(ctx, limit)
}

type UpdateProfileCommand struct {
	UserID            types.ID
	Name              string
	Phone             string
	Avatar            *string
	ServiceCategories []string
	Skills            []string
}

// UpdateProfile upserts the worker-editable profile fields. Ratings and
// rates are owned by the order-completion workflow and never touched here.
func (s *Service) UpdateProfile(ctx context.Context, cmd UpdateProfileCommand) error {
	if strings.TrimSpace(string(cmd.UserID)) == "" {
		return ErrBadRequest
	}

	existing, err := s.store.Get(ctx, cmd.UserID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	p := &Profile{
		UserID:            cmd.UserID,
		Name:              strings.TrimSpace(cmd.Name),
		Phone:             strings.TrimSpace(cmd.Phone),
		Avatar:            cmd.Avatar,
		OnlineStatus:      StatusOffline,
		AccountStatus:     AccountActive,
		ServiceCategories: cmd.ServiceCategories,
		Skills:            cmd.Skills,
	}
	if existing != nil {
		p.OnlineStatus = existing.OnlineStatus
		p.AccountStatus = existing.AccountStatus
		p.AverageRating = existing.AverageRating
		p.AcceptanceRate = existing.AcceptanceRate
		p.CompletionRate = existing.CompletionRate
		p.CompletedOrders = existing.CompletedOrders
		p.LastLocation = existing.LastLocation
		p.LocationUpdatedAt = existing.LocationUpdatedAt
	}
	return s.store.Upsert(ctx, p)
}

func (s *Service) SetOnlineStatus(ctx context.Context, userID types.ID, status OnlineStatus) error {
	if !ValidOnlineStatus(status) {
		return ErrBadRequest
	}
	return s.store.UpdateOnlineStatus(ctx, userID, status)
}
