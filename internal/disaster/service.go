package disaster

import (
	"context"
	"errors"
	"strings"
	"time"

	"disaster-platform/internal/event"
	"disaster-platform/internal/metrics"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("disaster: not found")
	ErrInvalidArgument = errors.New("disaster: invalid argument")
)

// Repository is the persistence contract for disaster records.
//
// Mutate must serialize concurrent calls for the same id (row lock or
// equivalent single-writer discipline) while letting unrelated records
// proceed in parallel: field changes are last-write-wins, but every audit
// append survives.
type Repository interface {
	Insert(ctx context.Context, d Disaster) error
	Get(ctx context.Context, id string) (Disaster, error)
	// List returns all records, restricted to those containing tag when
	// tag is non-empty.
	List(ctx context.Context, tag string) ([]Disaster, error)
	// Mutate loads the record under a per-id lock, applies fn and persists
	// the result. fn must not retain the argument.
	Mutate(ctx context.Context, id string, fn func(*Disaster)) (Disaster, error)
	// Delete removes the record and its dependent resources.
	Delete(ctx context.Context, id string) error
}

// Service owns record mutations and their broadcast. Every successful
// mutation publishes exactly one event, and only after the repository
// write has been applied.
type Service struct {
	repo Repository
	bus  *event.Broadcaster
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository, bus *event.Broadcaster) *Service {
	return &Service{repo: repo, bus: bus, clock: time.Now}
}

// WithClock overrides the time source. Test helper.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Create assigns a fresh id, stamps the creation time and seeds the audit
// trail with a single create entry for the requesting actor.
func (s *Service) Create(ctx context.Context, actorID string, req CreateRequest) (Disaster, error) {
	if actorID == "" {
		return Disaster{}, ErrInvalidArgument
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.LocationName) == "" {
		return Disaster{}, ErrInvalidArgument
	}

	now := s.clock().UTC()
	d := Disaster{
		ID:           uuid.NewString(),
		Title:        req.Title,
		LocationName: req.LocationName,
		Description:  req.Description,
		Tags:         append([]string(nil), req.Tags...),
		OwnerID:      actorID,
		CreatedAt:    now,
		AuditTrail: []AuditEntry{
			{Action: ActionCreate, UserID: actorID, Timestamp: now},
		},
	}
	if err := s.repo.Insert(ctx, d); err != nil {
		return Disaster{}, err
	}

	metrics.RecordMutationsTotal.WithLabelValues(string(ActionCreate)).Inc()
	s.bus.Publish(event.New(event.KindDisasterCreated, d))
	return d, nil
}

func (s *Service) Get(ctx context.Context, id string) (Disaster, error) {
	if id == "" {
		return Disaster{}, ErrInvalidArgument
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, tag string) ([]Disaster, error) {
	return s.repo.List(ctx, tag)
}

// Update merges the non-nil request fields into the record and appends
// exactly one update audit entry, even when no field changed.
//
// The entry timestamp is read inside the mutation closure, which both
// repositories run under the per-record lock; a timestamp taken before
// lock acquisition could land out of order when updates interleave.
func (s *Service) Update(ctx context.Context, id, actorID string, req UpdateRequest) (Disaster, error) {
	if id == "" || actorID == "" {
		return Disaster{}, ErrInvalidArgument
	}

	updated, err := s.repo.Mutate(ctx, id, func(d *Disaster) {
		if req.Title != nil {
			d.Title = *req.Title
		}
		if req.LocationName != nil {
			d.LocationName = *req.LocationName
		}
		if req.Description != nil {
			d.Description = *req.Description
		}
		if req.Tags != nil {
			d.Tags = append([]string(nil), req.Tags...)
		}
		d.AuditTrail = append(d.AuditTrail, AuditEntry{
			Action:    ActionUpdate,
			UserID:    actorID,
			Timestamp: s.clock().UTC(),
		})
	})
	if err != nil {
		return Disaster{}, err
	}

	metrics.RecordMutationsTotal.WithLabelValues(string(ActionUpdate)).Inc()
	s.bus.Publish(event.New(event.KindDisasterUpdated, updated))
	return updated, nil
}

// Delete removes the record. A second delete of the same id reports
// ErrNotFound, not a crash, and publishes nothing.
func (s *Service) Delete(ctx context.Context, id, actorID string) error {
	if id == "" || actorID == "" {
		return ErrInvalidArgument
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	metrics.RecordMutationsTotal.WithLabelValues(string(ActionDelete)).Inc()
	s.bus.Publish(event.New(event.KindDisasterDeleted, map[string]string{"id": id}))
	return nil
}
