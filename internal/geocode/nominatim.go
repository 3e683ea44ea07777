package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Nominatim queries the OpenStreetMap Nominatim search API. The service
// requires an identifying User-Agent and fair-use pacing of one request per
// second against the public instance.
type Nominatim struct {
	baseURL      string
	userAgent    string
	countryCodes string
	httpClient   *http.Client
	limiter      *rateLimiter
}

func (n *Nominatim) Name() string { return "nominatim" }

func (n *Nominatim) Lookup(ctx context.Context, address string) (*Point, error) {
	u, err := url.Parse(strings.TrimRight(n.baseURL, "/") + "/search")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")
	if n.countryCodes != "" {
		q.Set("countrycodes", n.countryCodes)
	}
	u.RawQuery = q.Encode()

	body, err := fetchJSON(ctx, n.httpClient, n.limiter, u.String(), n.userAgent)
	if err != nil {
		return nil, err
	}

	// Coordinates arrive as strings, e.g. [{"lat":"-37.81","lon":"144.96"}].
	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, err
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, err
	}
	return &Point{Latitude: lat, Longitude: lon}, nil
}
