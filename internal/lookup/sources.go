package lookup

import (
	"context"
	"fmt"

	"disaster-platform/internal/disaster"
	"disaster-platform/internal/geo"
)

// Extractor reduces free text to a canonical place name.
type Extractor interface {
	ExtractLocation(ctx context.Context, text string) (string, error)
}

// Geocoder resolves a place name to coordinates. Zero candidates must be
// reported as ErrNotFound.
type Geocoder interface {
	Geocode(ctx context.Context, name string) (geo.Point, error)
}

// SocialFeed fetches social posts relevant to a record.
type SocialFeed interface {
	FetchPosts(ctx context.Context, d disaster.Disaster) ([]Post, error)
}

// UpdatesFeed fetches official advisories relevant to a record.
type UpdatesFeed interface {
	FetchUpdates(ctx context.Context, d disaster.Disaster) ([]Update, error)
}

// ImageVerifier checks the authenticity of an image by URL.
type ImageVerifier interface {
	Verify(ctx context.Context, imageURL string) (Verdict, error)
}

// PassthroughExtractor returns the text unchanged.
// TODO: integrate an LLM extraction step so "flooding near the riverside
// district" reduces to "Riverside" before geocoding.
type PassthroughExtractor struct{}

func (PassthroughExtractor) ExtractLocation(_ context.Context, text string) (string, error) {
	return text, nil
}

// MockSocialFeed fabricates posts from the record's own fields. Stands in
// for a Twitter/Bluesky integration.
type MockSocialFeed struct{}

func (MockSocialFeed) FetchPosts(_ context.Context, d disaster.Disaster) ([]Post, error) {
	tag := "disaster"
	if len(d.Tags) > 0 {
		tag = d.Tags[0]
	}
	return []Post{
		{Post: fmt.Sprintf("#%s Stay safe in %s", tag, d.LocationName), User: "citizen1"},
		{Post: fmt.Sprintf("Need help in %s", d.LocationName), User: "citizen2"},
	}, nil
}

// StaticUpdatesFeed serves a fixed advisory list. Stands in for scraping
// FEMA / Red Cross feeds.
type StaticUpdatesFeed struct{}

func (StaticUpdatesFeed) FetchUpdates(_ context.Context, _ disaster.Disaster) ([]Update, error) {
	return []Update{
		{Title: "FEMA Update", Link: "https://www.fema.gov", Summary: "Stay indoors"},
	}, nil
}

// StubImageVerifier marks every image verified. Stands in for a vision-API
// authenticity check.
type StubImageVerifier struct{}

func (StubImageVerifier) Verify(_ context.Context, imageURL string) (Verdict, error) {
	return Verdict{
		URL:     imageURL,
		Status:  "verified",
		Details: "Image appears authentic based on visual inspection.",
	}, nil
}
