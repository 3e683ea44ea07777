package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// Photon queries the komoot Photon API as the fallback service.
type Photon struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rateLimiter
}

func (p *Photon) Name() string { return "photon" }

func (p *Photon) Lookup(ctx context.Context, address string) (*Point, error) {
	u, err := url.Parse(strings.TrimRight(p.baseURL, "/") + "/api/")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", address)
	q.Set("limit", "1")
	q.Set("osm_tag", "place")
	u.RawQuery = q.Encode()

	body, err := fetchJSON(ctx, p.httpClient, p.limiter, u.String(), p.userAgent)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if len(payload.Features) == 0 {
		return nil, nil
	}

	coords := payload.Features[0].Geometry.Coordinates
	if len(coords) < 2 {
		return nil, nil
	}
	// GeoJSON orders coordinates [lon, lat].
	return &Point{Latitude: coords[1], Longitude: coords[0]}, nil
}
