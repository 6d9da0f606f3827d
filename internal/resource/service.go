package resource

import (
	"context"
	"errors"

	"disaster-platform/internal/geo"
)

var ErrInvalidArgument = errors.New("resource: invalid argument")

// Repository is the read contract for resources near a point.
type Repository interface {
	// Near returns every resource of the disaster whose point lies within
	// radiusMeters great-circle distance of p. Result order must be
	// deterministic for a fixed data snapshot.
	Near(ctx context.Context, disasterID string, p geo.Point, radiusMeters float64) ([]Resource, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// Near validates the query and delegates to the repository.
// Radius must be positive; callers apply their default before calling.
func (s *Service) Near(ctx context.Context, disasterID string, p geo.Point, radiusMeters float64) ([]Resource, error) {
	if disasterID == "" {
		return nil, ErrInvalidArgument
	}
	if !p.Valid() {
		return nil, ErrInvalidArgument
	}
	if radiusMeters <= 0 {
		return nil, ErrInvalidArgument
	}
	return s.repo.Near(ctx, disasterID, p, radiusMeters)
}
