// Package lookup fronts the slow external data sources behind a uniform
// compute-if-absent contract: consult the cache, compute on a miss, store
// the result with a TTL, report whether the value was cached.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"disaster-platform/internal/cache"
	"disaster-platform/internal/disaster"
	"disaster-platform/internal/event"
	"disaster-platform/internal/geo"
	"disaster-platform/internal/metrics"
)

var (
	// ErrNotFound covers zero geocoding candidates and missing records.
	ErrNotFound = errors.New("lookup: not found")
	// ErrUpstream covers a failed external source call.
	ErrUpstream = errors.New("lookup: upstream failure")
	// ErrUpstreamTimeout covers an external source exceeding its deadline.
	ErrUpstreamTimeout = errors.New("lookup: upstream timeout")
)

// Result is the uniform lookup response.
type Result struct {
	Cached bool            `json:"cached"`
	Value  json.RawMessage `json:"value"`
}

// Location is the geocode lookup payload.
type Location struct {
	LocationName string    `json:"location_name"`
	Coords       geo.Point `json:"coords"`
}

// Post is one social-media item.
type Post struct {
	Post string `json:"post"`
	User string `json:"user"`
}

// Update is one official-updates item.
type Update struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Summary string `json:"summary"`
}

// Verdict is an image-verification result. It is a property of the image,
// not of the disaster it was submitted for.
type Verdict struct {
	URL     string `json:"url"`
	Status  string `json:"status"`
	Details string `json:"details"`
}

// RecordReader is the slice of the record store the gateway needs.
type RecordReader interface {
	Get(ctx context.Context, id string) (disaster.Disaster, error)
}

// Config carries lookup policy. TTL applies to every cached result;
// NegativeGeocodeTTL, when positive, additionally caches geocode NotFound
// results to avoid hammering the upstream (0 disables, the default).
type Config struct {
	TTL                time.Duration
	Timeout            time.Duration
	NegativeGeocodeTTL time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	if out.TTL <= 0 {
		out.TTL = time.Hour
	}
	if out.Timeout <= 0 {
		out.Timeout = 10 * time.Second
	}
	return out
}

// Gateway sequences one cache-or-compute cycle per lookup call.
type Gateway struct {
	cache   cache.Store
	records RecordReader
	bus     *event.Broadcaster
	cfg     Config

	extractor Extractor
	geocoder  Geocoder
	social    SocialFeed
	updates   UpdatesFeed
	verifier  ImageVerifier
}

func NewGateway(
	store cache.Store,
	records RecordReader,
	bus *event.Broadcaster,
	cfg Config,
	extractor Extractor,
	geocoder Geocoder,
	social SocialFeed,
	updates UpdatesFeed,
	verifier ImageVerifier,
) *Gateway {
	return &Gateway{
		cache:     store,
		records:   records,
		bus:       bus,
		cfg:       cfg.withDefaults(),
		extractor: extractor,
		geocoder:  geocoder,
		social:    social,
		updates:   updates,
		verifier:  verifier,
	}
}

// negativeMarker is the cached placeholder for a geocode NotFound when
// negative caching is enabled.
var negativeMarker = json.RawMessage(`{"not_found":true}`)

// Geocode resolves free text to a place name and coordinates.
// Two-staged: semantic extraction reduces the text to a canonical place
// name, then geocoding resolves that name. Zero candidates is ErrNotFound,
// not a miss, and is not cached unless negative caching is configured.
func (g *Gateway) Geocode(ctx context.Context, description string) (Result, error) {
	if description == "" {
		return Result{}, errors.New("lookup: description is required")
	}
	key := cache.Key("geocode", description)
	if v, ok := g.cache.Get(ctx, key); ok {
		if string(v) == string(negativeMarker) {
			return Result{}, ErrNotFound
		}
		return Result{Cached: true, Value: v}, nil
	}

	name, err := g.callExtract(ctx, description)
	if err != nil {
		return Result{}, err
	}
	point, err := g.callGeocode(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) && g.cfg.NegativeGeocodeTTL > 0 {
			g.cache.Put(ctx, key, negativeMarker, g.cfg.NegativeGeocodeTTL)
		}
		return Result{}, err
	}

	value, err := json.Marshal(Location{LocationName: name, Coords: point})
	if err != nil {
		return Result{}, err
	}
	g.cache.Put(ctx, key, value, g.cfg.TTL)
	return Result{Cached: false, Value: value}, nil
}

// SocialMedia fetches social posts for a record. Keyed on the record id
// only, so repeated calls within the TTL never touch the external source.
func (g *Gateway) SocialMedia(ctx context.Context, disasterID string) (Result, error) {
	key := cache.Key("social-media", disasterID)
	if v, ok := g.cache.Get(ctx, key); ok {
		return Result{Cached: true, Value: v}, nil
	}

	d, err := g.records.Get(ctx, disasterID)
	if err != nil {
		if errors.Is(err, disaster.ErrNotFound) {
			return Result{}, ErrNotFound
		}
		return Result{}, err
	}

	posts, err := g.callSocial(ctx, d)
	if err != nil {
		return Result{}, err
	}
	value, err := json.Marshal(posts)
	if err != nil {
		return Result{}, err
	}
	g.cache.Put(ctx, key, value, g.cfg.TTL)
	g.bus.Publish(event.New(event.KindSocialMediaUpdated, map[string]any{
		"disaster_id": disasterID,
		"data":        json.RawMessage(value),
	}))
	return Result{Cached: false, Value: value}, nil
}

// OfficialUpdates fetches official advisories for a record.
func (g *Gateway) OfficialUpdates(ctx context.Context, disasterID string) (Result, error) {
	key := cache.Key("official-updates", disasterID)
	if v, ok := g.cache.Get(ctx, key); ok {
		return Result{Cached: true, Value: v}, nil
	}

	d, err := g.records.Get(ctx, disasterID)
	if err != nil {
		if errors.Is(err, disaster.ErrNotFound) {
			return Result{}, ErrNotFound
		}
		return Result{}, err
	}

	updates, err := g.callUpdates(ctx, d)
	if err != nil {
		return Result{}, err
	}
	value, err := json.Marshal(updates)
	if err != nil {
		return Result{}, err
	}
	g.cache.Put(ctx, key, value, g.cfg.TTL)
	return Result{Cached: false, Value: value}, nil
}

// VerifyImage checks the authenticity of an image. Keyed on the URL alone:
// the same image submitted for two disasters reuses the cached verdict.
func (g *Gateway) VerifyImage(ctx context.Context, imageURL string) (Result, error) {
	if imageURL == "" {
		return Result{}, errors.New("lookup: image_url is required")
	}
	key := cache.Key("verify-image", imageURL)
	if v, ok := g.cache.Get(ctx, key); ok {
		return Result{Cached: true, Value: v}, nil
	}

	verdict, err := g.callVerify(ctx, imageURL)
	if err != nil {
		return Result{}, err
	}
	value, err := json.Marshal(verdict)
	if err != nil {
		return Result{}, err
	}
	g.cache.Put(ctx, key, value, g.cfg.TTL)
	return Result{Cached: false, Value: value}, nil
}

func (g *Gateway) callExtract(ctx context.Context, text string) (string, error) {
	var name string
	err := g.timed(ctx, "extract", func(ctx context.Context) error {
		var err error
		name, err = g.extractor.ExtractLocation(ctx, text)
		return err
	})
	return name, err
}

func (g *Gateway) callGeocode(ctx context.Context, name string) (geo.Point, error) {
	var p geo.Point
	err := g.timed(ctx, "geocode", func(ctx context.Context) error {
		var err error
		p, err = g.geocoder.Geocode(ctx, name)
		return err
	})
	return p, err
}

func (g *Gateway) callSocial(ctx context.Context, d disaster.Disaster) ([]Post, error) {
	var posts []Post
	err := g.timed(ctx, "social-media", func(ctx context.Context) error {
		var err error
		posts, err = g.social.FetchPosts(ctx, d)
		return err
	})
	return posts, err
}

func (g *Gateway) callUpdates(ctx context.Context, d disaster.Disaster) ([]Update, error) {
	var updates []Update
	err := g.timed(ctx, "official-updates", func(ctx context.Context) error {
		var err error
		updates, err = g.updates.FetchUpdates(ctx, d)
		return err
	})
	return updates, err
}

func (g *Gateway) callVerify(ctx context.Context, imageURL string) (Verdict, error) {
	var v Verdict
	err := g.timed(ctx, "verify-image", func(ctx context.Context) error {
		var err error
		v, err = g.verifier.Verify(ctx, imageURL)
		return err
	})
	return v, err
}

// timed bounds one external source call and maps its failure modes.
// A deadline overrun is a Timeout, never a cache-worthy result.
func (g *Gateway) timed(ctx context.Context, kind string, fn func(ctx context.Context) error) error {
	metrics.LookupRequestsTotal.WithLabelValues(kind).Inc()
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	err := fn(callCtx)
	metrics.LookupDurationMs.WithLabelValues(kind).Observe(float64(time.Since(start).Milliseconds()))
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	metrics.LookupFailuresTotal.WithLabelValues(kind).Inc()
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrUpstreamTimeout
	}
	return errors.Join(ErrUpstream, err)
}
