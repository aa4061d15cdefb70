// README: Location service keeps the profile row and the GEO index in sync.
package location

import (
	"context"

	"laborhub/internal/types"
)

// GeoIndex is the position index side of the store (Redis in production).
type GeoIndex interface {
	AddWorker(ctx context.Context, id types.ID, p types.Point) error
	RemoveWorker(ctx context.Context, id types.ID) error
	Nearby(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error)
}

// ProfileLocations is the persistent side (the worker profile store).
type ProfileLocations interface {
	UpdateLocation(ctx context.Context, userID types.ID, p types.Point) error
}

type Service struct {
	index    GeoIndex
	profiles ProfileLocations
}

func NewService(index GeoIndex, profiles ProfileLocations) *Service {
	return &Service{index: index, profiles: profiles}
}

// Update records a worker's position in the profile row and the GEO index.
// The profile row is the matching engine's source of truth; the index only
// serves proximity lookups, so an index failure after a successful profile
// write is still an error worth surfacing to the worker's client.
func (s *Service) Update(ctx context.Context, workerID types.ID, p types.Point) error {
	if err := s.profiles.UpdateLocation(ctx, workerID, p); err != nil {
		return err
	}
	return s.index.AddWorker(ctx, workerID, p)
}

// Deactivate removes a worker from the proximity index when they go offline.
func (s *Service) Deactivate(ctx context.Context, workerID types.ID) error {
	return s.index.RemoveWorker(ctx, workerID)
}

func (s *Service) Nearby(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error) {
	return s.index.Nearby(ctx, p, radiusKm)
}
