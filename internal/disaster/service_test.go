package disaster

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"disaster-platform/internal/event"
)

func newTestService() (*Service, *MemoryRepo, *event.Broadcaster) {
	repo := NewMemoryRepo()
	bus := event.NewBroadcaster()
	svc := NewService(repo, bus)
	return svc, repo, bus
}

func TestCreate_SeedsSingleCreateAuditEntry(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	d, err := svc.Create(ctx, "A1", CreateRequest{
		Title:        "Flood A",
		LocationName: "Riverside",
		Tags:         []string{"flood", "urgent"},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if d.ID == "" {
		t.Fatalf("expected generated id")
	}
	if d.OwnerID != "A1" {
		t.Fatalf("expected owner A1, got %q", d.OwnerID)
	}
	if len(d.AuditTrail) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(d.AuditTrail))
	}
	if d.AuditTrail[0].Action != ActionCreate || d.AuditTrail[0].UserID != "A1" {
		t.Fatalf("expected create/A1 entry, got %+v", d.AuditTrail[0])
	}

	got, err := svc.Get(ctx, d.ID)
	if err != nil {
		t.Fatalf("read after create failed: %v", err)
	}
	if len(got.AuditTrail) != 1 {
		t.Fatalf("expected 1 audit entry after read, got %d", len(got.AuditTrail))
	}
}

func TestCreate_RequiresTitleLocationAndActor(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name  string
		actor string
		req   CreateRequest
	}{
		{"missing actor", "", CreateRequest{Title: "t", LocationName: "l"}},
		{"missing title", "A1", CreateRequest{LocationName: "l"}},
		{"missing location", "A1", CreateRequest{Title: "t"}},
		{"blank title", "A1", CreateRequest{Title: "   ", LocationName: "l"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.actor, tc.req); !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestUpdate_PartialMergeKeepsOmittedFields(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	d, err := svc.Create(ctx, "A1", CreateRequest{
		Title:        "Flood A",
		LocationName: "Riverside",
		Tags:         []string{"flood", "urgent"},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := svc.Update(ctx, d.ID, "A2", UpdateRequest{Tags: []string{"flood", "resolved"}})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got.Title != "Flood A" || got.LocationName != "Riverside" {
		t.Fatalf("omitted fields changed: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "flood" || got.Tags[1] != "resolved" {
		t.Fatalf("expected merged tags, got %v", got.Tags)
	}
	if len(got.AuditTrail) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(got.AuditTrail))
	}
	last := got.AuditTrail[1]
	if last.Action != ActionUpdate || last.UserID != "A2" {
		t.Fatalf("expected update/A2 entry, got %+v", last)
	}
}

func TestUpdate_EmptyRequestStillAppendsOneAuditEntry(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	d, _ := svc.Create(ctx, "A1", CreateRequest{Title: "t", LocationName: "l", Description: "desc"})

	got, err := svc.Update(ctx, d.ID, "A1", UpdateRequest{})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got.Title != "t" || got.LocationName != "l" || got.Description != "desc" {
		t.Fatalf("visible fields changed on empty update: %+v", got)
	}
	if len(got.AuditTrail) != 2 {
		t.Fatalf("expected exactly 2 audit entries, got %d", len(got.AuditTrail))
	}
}

func TestUpdate_AuditTimestampsNonDecreasing(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	step := 0
	svc.WithClock(func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Second)
	})

	d, _ := svc.Create(ctx, "A1", CreateRequest{Title: "t", LocationName: "l"})
	for i := 0; i < 3; i++ {
		if _, err := svc.Update(ctx, d.ID, "A1", UpdateRequest{}); err != nil {
			t.Fatalf("update %d failed: %v", i, err)
		}
	}

	got, _ := svc.Get(ctx, d.ID)
	if len(got.AuditTrail) != 4 {
		t.Fatalf("expected n+1 = 4 entries, got %d", len(got.AuditTrail))
	}
	for i := 1; i < len(got.AuditTrail); i++ {
		if got.AuditTrail[i].Timestamp.Before(got.AuditTrail[i-1].Timestamp) {
			t.Fatalf("audit timestamps decreased at %d", i)
		}
	}
}

// gatedRepo parks the first Mutate call until released so a second update
// can complete in between.
type gatedRepo struct {
	Repository
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *gatedRepo) Mutate(ctx context.Context, id string, fn func(*Disaster)) (Disaster, error) {
	park := false
	r.once.Do(func() { park = true })
	if park {
		close(r.entered)
		<-r.release
	}
	return r.Repository.Mutate(ctx, id, fn)
}

func TestUpdate_InterleavedUpdatesKeepTimestampOrder(t *testing.T) {
	repo := &gatedRepo{
		Repository: NewMemoryRepo(),
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	svc := NewService(repo, event.NewBroadcaster())
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	step := 0
	svc.WithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		step++
		return base.Add(time.Duration(step) * time.Second)
	})

	d, err := svc.Create(ctx, "A1", CreateRequest{Title: "t", LocationName: "l"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// First writer reaches the repository and parks; a full second update
	// lands before it is released.
	done := make(chan error, 1)
	go func() {
		_, err := svc.Update(ctx, d.ID, "A2", UpdateRequest{})
		done <- err
	}()
	<-repo.entered

	if _, err := svc.Update(ctx, d.ID, "A3", UpdateRequest{}); err != nil {
		t.Fatalf("interleaved update failed: %v", err)
	}
	close(repo.release)
	if err := <-done; err != nil {
		t.Fatalf("parked update failed: %v", err)
	}

	got, _ := svc.Get(ctx, d.ID)
	if len(got.AuditTrail) != 3 {
		t.Fatalf("expected 3 audit entries, got %d", len(got.AuditTrail))
	}
	for i := 1; i < len(got.AuditTrail); i++ {
		prev, cur := got.AuditTrail[i-1], got.AuditTrail[i]
		if cur.Timestamp.Before(prev.Timestamp) {
			t.Fatalf("audit timestamps decreased: entry %d (%s by %s) is before entry %d (%s by %s)",
				i, cur.Timestamp, cur.UserID, i-1, prev.Timestamp, prev.UserID)
		}
	}
}

func TestUpdate_ConcurrentUpdatesNeverLoseAuditEntries(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	d, _ := svc.Create(ctx, "A1", CreateRequest{Title: "t", LocationName: "l"})

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			title := "updated"
			if _, err := svc.Update(ctx, d.ID, "A2", UpdateRequest{Title: &title}); err != nil {
				t.Errorf("concurrent update failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := svc.Get(ctx, d.ID)
	if len(got.AuditTrail) != writers+1 {
		t.Fatalf("expected %d audit entries, got %d", writers+1, len(got.AuditTrail))
	}
}

func TestDelete_IdempotentNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	d, _ := svc.Create(ctx, "A1", CreateRequest{Title: "t", LocationName: "l"})

	if err := svc.Delete(ctx, d.ID, "A1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, d.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, d.ID, "A1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestList_FiltersByTag(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	svc.Create(ctx, "A1", CreateRequest{Title: "a", LocationName: "l", Tags: []string{"flood"}})
	svc.Create(ctx, "A1", CreateRequest{Title: "b", LocationName: "l", Tags: []string{"fire"}})
	svc.Create(ctx, "A1", CreateRequest{Title: "c", LocationName: "l", Tags: []string{"flood", "urgent"}})

	all, err := svc.List(ctx, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 records, got %d err=%v", len(all), err)
	}
	floods, err := svc.List(ctx, "flood")
	if err != nil || len(floods) != 2 {
		t.Fatalf("expected 2 flood records, got %d err=%v", len(floods), err)
	}
}

func TestMutations_BroadcastAfterApplyInOrder(t *testing.T) {
	svc, _, bus := newTestService()
	ctx := context.Background()

	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	d, _ := svc.Create(ctx, "A1", CreateRequest{Title: "Flood A", LocationName: "Riverside", Tags: []string{"flood", "urgent"}})
	svc.Update(ctx, d.ID, "A2", UpdateRequest{Tags: []string{"flood", "resolved"}})
	svc.Delete(ctx, d.ID, "A2")

	want := []event.Kind{event.KindDisasterCreated, event.KindDisasterUpdated, event.KindDisasterDeleted}
	for i, k := range want {
		select {
		case e := <-sub.C:
			if e.Kind != k {
				t.Fatalf("event %d: got %s, want %s", i, e.Kind, k)
			}
		case <-time.After(time.Second):
			t.Fatalf("missing event %d (%s)", i, k)
		}
	}
}

func TestFailedMutation_PublishesNothing(t *testing.T) {
	svc, _, bus := newTestService()
	ctx := context.Background()

	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	if _, err := svc.Update(ctx, "missing", "A1", UpdateRequest{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, "missing", "A1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	select {
	case e := <-sub.C:
		t.Fatalf("unexpected event %s for failed mutation", e.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}
