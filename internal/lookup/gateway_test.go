package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"disaster-platform/internal/cache"
	"disaster-platform/internal/disaster"
	"disaster-platform/internal/event"
	"disaster-platform/internal/geo"
)

type countingGeocoder struct {
	calls int
	point geo.Point
	err   error
}

func (g *countingGeocoder) Geocode(_ context.Context, _ string) (geo.Point, error) {
	g.calls++
	if g.err != nil {
		return geo.Point{}, g.err
	}
	return g.point, nil
}

type countingSocial struct {
	calls int
}

func (s *countingSocial) FetchPosts(_ context.Context, d disaster.Disaster) ([]Post, error) {
	s.calls++
	return []Post{{Post: "Need help in " + d.LocationName, User: "citizen2"}}, nil
}

type hangingVerifier struct{}

func (hangingVerifier) Verify(ctx context.Context, _ string) (Verdict, error) {
	<-ctx.Done()
	return Verdict{}, ctx.Err()
}

func newTestGateway(t *testing.T, geocoder Geocoder, social SocialFeed, cfg Config) (*Gateway, *cache.MemoryStore, *disaster.MemoryRepo, *event.Broadcaster) {
	t.Helper()
	store := cache.NewMemoryStore()
	records := disaster.NewMemoryRepo()
	bus := event.NewBroadcaster()
	if social == nil {
		social = MockSocialFeed{}
	}
	g := NewGateway(store, records, bus, cfg,
		PassthroughExtractor{}, geocoder, social, StaticUpdatesFeed{}, StubImageVerifier{})
	return g, store, records, bus
}

func seedRecord(t *testing.T, records *disaster.MemoryRepo) disaster.Disaster {
	t.Helper()
	d := disaster.Disaster{
		ID:           "d1",
		Title:        "Flood A",
		LocationName: "Riverside",
		Tags:         []string{"flood"},
		OwnerID:      "A1",
		CreatedAt:    time.Now().UTC(),
		AuditTrail: []disaster.AuditEntry{
			{Action: disaster.ActionCreate, UserID: "A1", Timestamp: time.Now().UTC()},
		},
	}
	if err := records.Insert(context.Background(), d); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return d
}

func TestGeocode_ComputesOncePerTTLWindow(t *testing.T) {
	geocoder := &countingGeocoder{point: geo.Point{Lat: 40.1, Lon: -74.2}}
	g, _, _, _ := newTestGateway(t, geocoder, nil, Config{})
	ctx := context.Background()

	first, err := g.Geocode(ctx, "Riverside")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if first.Cached {
		t.Fatalf("first call must be uncached")
	}

	second, err := g.Geocode(ctx, "Riverside")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !second.Cached {
		t.Fatalf("second call must be cached")
	}
	if geocoder.calls != 1 {
		t.Fatalf("expected exactly one external computation, got %d", geocoder.calls)
	}
	if string(first.Value) != string(second.Value) {
		t.Fatalf("cached value differs from computed value")
	}

	var loc Location
	if err := json.Unmarshal(second.Value, &loc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if loc.LocationName != "Riverside" || loc.Coords.Lat != 40.1 {
		t.Fatalf("unexpected payload %+v", loc)
	}
}

func TestGeocode_ZeroCandidatesIsNotFoundAndNotCached(t *testing.T) {
	geocoder := &countingGeocoder{err: ErrNotFound}
	g, store, _, _ := newTestGateway(t, geocoder, nil, Config{})
	ctx := context.Background()

	if _, err := g.Geocode(ctx, "Atlantis"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("negative result must not be cached by default")
	}

	// A later call with more geocoding data can succeed.
	geocoder.err = nil
	geocoder.point = geo.Point{Lat: 1, Lon: 2}
	res, err := g.Geocode(ctx, "Atlantis")
	if err != nil {
		t.Fatalf("expected success after upstream learns the place: %v", err)
	}
	if res.Cached {
		t.Fatalf("expected fresh computation")
	}
	if geocoder.calls != 2 {
		t.Fatalf("expected 2 geocoder calls, got %d", geocoder.calls)
	}
}

func TestGeocode_NegativeTTLCachesNotFoundWhenConfigured(t *testing.T) {
	geocoder := &countingGeocoder{err: ErrNotFound}
	g, _, _, _ := newTestGateway(t, geocoder, nil, Config{NegativeGeocodeTTL: time.Minute})
	ctx := context.Background()

	if _, err := g.Geocode(ctx, "Atlantis"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := g.Geocode(ctx, "Atlantis"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected cached ErrNotFound, got %v", err)
	}
	if geocoder.calls != 1 {
		t.Fatalf("expected one upstream call with negative caching, got %d", geocoder.calls)
	}
}

func TestSocialMedia_CachesByRecordIdAndBroadcasts(t *testing.T) {
	social := &countingSocial{}
	g, _, records, bus := newTestGateway(t, &countingGeocoder{}, social, Config{})
	ctx := context.Background()
	d := seedRecord(t, records)

	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	first, err := g.SocialMedia(ctx, d.ID)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if first.Cached {
		t.Fatalf("first call must be uncached")
	}

	select {
	case e := <-sub.C:
		if e.Kind != event.KindSocialMediaUpdated {
			t.Fatalf("expected social_media_updated, got %s", e.Kind)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected broadcast on fresh social lookup")
	}

	second, err := g.SocialMedia(ctx, d.ID)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !second.Cached || social.calls != 1 {
		t.Fatalf("expected cached second call, calls=%d", social.calls)
	}

	// Cache hits do not re-broadcast.
	select {
	case e := <-sub.C:
		t.Fatalf("unexpected event %s on cache hit", e.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSocialMedia_UnknownRecordIsNotFound(t *testing.T) {
	g, _, _, _ := newTestGateway(t, &countingGeocoder{}, nil, Config{})
	if _, err := g.SocialMedia(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOfficialUpdates_CachedSecondCall(t *testing.T) {
	g, _, records, _ := newTestGateway(t, &countingGeocoder{}, nil, Config{})
	ctx := context.Background()
	d := seedRecord(t, records)

	first, err := g.OfficialUpdates(ctx, d.ID)
	if err != nil || first.Cached {
		t.Fatalf("first call: cached=%v err=%v", first.Cached, err)
	}
	second, err := g.OfficialUpdates(ctx, d.ID)
	if err != nil || !second.Cached {
		t.Fatalf("second call: cached=%v err=%v", second.Cached, err)
	}

	var updates []Update
	if err := json.Unmarshal(second.Value, &updates); err != nil || len(updates) == 0 {
		t.Fatalf("unexpected payload %s err=%v", second.Value, err)
	}
}

func TestVerifyImage_VerdictSharedAcrossDisasters(t *testing.T) {
	g, store, _, _ := newTestGateway(t, &countingGeocoder{}, nil, Config{})
	ctx := context.Background()

	first, err := g.VerifyImage(ctx, "https://img.example/flood.jpg")
	if err != nil || first.Cached {
		t.Fatalf("first call: cached=%v err=%v", first.Cached, err)
	}
	// The key encodes only the image URL; a second disaster submitting the
	// same URL reuses the verdict.
	second, err := g.VerifyImage(ctx, "https://img.example/flood.jpg")
	if err != nil || !second.Cached {
		t.Fatalf("second call: cached=%v err=%v", second.Cached, err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected a single cache entry, got %d", store.Len())
	}
}

func TestTimeout_MapsToUpstreamTimeoutAndNothingCached(t *testing.T) {
	store := cache.NewMemoryStore()
	records := disaster.NewMemoryRepo()
	bus := event.NewBroadcaster()
	g := NewGateway(store, records, bus, Config{Timeout: 20 * time.Millisecond},
		PassthroughExtractor{}, &countingGeocoder{}, MockSocialFeed{}, StaticUpdatesFeed{}, hangingVerifier{})

	if _, err := g.VerifyImage(context.Background(), "https://img.example/slow.jpg"); !errors.Is(err, ErrUpstreamTimeout) {
		t.Fatalf("expected ErrUpstreamTimeout, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("timeout results must not be cached")
	}
}

func TestNominatimGeocoder_ParsesCandidatesAndNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "Riverside" {
			w.Write([]byte(`[{"lat":"40.1","lon":"-74.2"}]`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	geocoder := NewNominatimGeocoder(srv.URL, "test-agent")

	p, err := geocoder.Geocode(context.Background(), "Riverside")
	if err != nil {
		t.Fatalf("geocode: %v", err)
	}
	if p.Lat != 40.1 || p.Lon != -74.2 {
		t.Fatalf("unexpected point %+v", p)
	}

	if _, err := geocoder.Geocode(context.Background(), "Atlantis"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for zero candidates, got %v", err)
	}
}
