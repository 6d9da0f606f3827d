package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"disaster-platform/internal/geo"
)

// NominatimGeocoder resolves place names against a Nominatim instance.
// Nominatim's usage policy requires an identifying User-Agent.
type NominatimGeocoder struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

func NewNominatimGeocoder(baseURL, userAgent string) *NominatimGeocoder {
	return &NominatimGeocoder{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Client:    http.DefaultClient,
	}
}

type nominatimCandidate struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, name string) (geo.Point, error) {
	u := fmt.Sprintf("%s/search?format=json&q=%s", g.BaseURL, url.QueryEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return geo.Point{}, err
	}
	req.Header.Set("User-Agent", g.UserAgent)

	resp, err := g.Client.Do(req)
	if err != nil {
		return geo.Point{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return geo.Point{}, fmt.Errorf("nominatim status %d", resp.StatusCode)
	}

	var candidates []nominatimCandidate
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		return geo.Point{}, fmt.Errorf("nominatim decode: %w", err)
	}
	if len(candidates) == 0 {
		return geo.Point{}, ErrNotFound
	}

	lat, err := strconv.ParseFloat(candidates[0].Lat, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("nominatim lat %q: %w", candidates[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(candidates[0].Lon, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("nominatim lon %q: %w", candidates[0].Lon, err)
	}
	return geo.Point{Lat: lat, Lon: lon}, nil
}
