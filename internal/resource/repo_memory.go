package resource

import (
	"context"
	"sort"
	"sync"

	"disaster-platform/internal/geo"
)

// MemoryRepo is an in-memory repository useful for tests.
type MemoryRepo struct {
	mu        sync.Mutex
	resources []Resource
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

// Add seeds a resource. Test helper.
func (r *MemoryRepo) Add(res Resource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resources = append(r.resources, res)
}

func (r *MemoryRepo) Near(_ context.Context, disasterID string, p geo.Point, radiusMeters float64) ([]Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Resource
	for _, res := range r.resources {
		if res.DisasterID != disasterID {
			continue
		}
		if geo.DistanceMeters(p, geo.Point{Lat: res.Lat, Lon: res.Lon}) <= radiusMeters {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
