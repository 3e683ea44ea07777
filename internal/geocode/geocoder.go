package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"icndb/internal"
	"icndb/internal/config"
	"icndb/internal/util"
)

// Point is one resolved coordinate pair, latitude first.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Backend resolves a formatted address against one lookup service. A nil
// Point with a nil error means the service answered but found nothing.
type Backend interface {
	Name() string
	Lookup(ctx context.Context, address string) (*Point, error)
}

// Cache persists successful lookups between runs. *storage.DB satisfies it.
type Cache interface {
	GetGeocode(address string) (*internal.GeocodeResult, error)
	UpsertGeocode(address string, latitude, longitude float64, service string) error
}

type Geocoder struct {
	backends []Backend
	cache    Cache
}

func New(cfg config.Config, cache Cache) *Geocoder {
	httpClient := &http.Client{Timeout: time.Duration(cfg.GeocoderTimeoutMs) * time.Millisecond}
	limiter := newRateLimiter(cfg.GeocoderRateLimitRPS)
	return &Geocoder{
		backends: []Backend{
			&Nominatim{
				baseURL:      cfg.NominatimBaseURL,
				userAgent:    cfg.GeocoderUserAgent,
				countryCodes: cfg.GeocoderCountryCodes,
				httpClient:   httpClient,
				limiter:      limiter,
			},
			&Photon{
				baseURL:    cfg.PhotonBaseURL,
				userAgent:  cfg.GeocoderUserAgent,
				httpClient: httpClient,
				limiter:    limiter,
			},
		},
		cache: cache,
	}
}

// Enrich resolves the address assembled from the given fragments, trying
// each backend in order until one produces coordinates. Exhausting every
// backend is a result, not an error.
func (g *Geocoder) Enrich(ctx context.Context, street, city, state, postcode string) internal.GeocodeResult {
	address := util.JoinAddress(street, city, state, postcode)
	if address == "" {
		return internal.GeocodeResult{Status: internal.GeocodeEmptyInput}
	}

	if g.cache != nil {
		if hit, err := g.cache.GetGeocode(address); err == nil && hit != nil {
			return *hit
		}
	}

	for _, backend := range g.backends {
		point, err := backend.Lookup(ctx, address)
		if err != nil {
			fmt.Printf("geocode backend=%s address=%q error: %v\n", backend.Name(), address, err)
			continue
		}
		if point == nil {
			continue
		}
		if g.cache != nil {
			_ = g.cache.UpsertGeocode(address, point.Latitude, point.Longitude, backend.Name())
		}
		return internal.GeocodeResult{
			FormattedAddress: address,
			Latitude:         util.FloatPtr(point.Latitude),
			Longitude:        util.FloatPtr(point.Longitude),
			Service:          util.StringPtr(backend.Name()),
			Status:           internal.GeocodeSuccess,
		}
	}

	return internal.GeocodeResult{FormattedAddress: address, Status: internal.GeocodeFailed}
}

// ShouldSkip reports whether a source row is exempt from lookup: aggregate
// rows (row label starts with the subtotal marker) and rows without a usable
// street cell pass through with status "skipped".
func ShouldSkip(street, label string) bool {
	return util.CleanCell(street) == "" || strings.HasPrefix(label, internal.SubtotalMarker)
}

type rateLimiter struct {
	mu            sync.Mutex
	nextAllowedAt time.Time
	interval      time.Duration
}

func newRateLimiter(requestsPerSecond int) *rateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &rateLimiter{interval: time.Second / time.Duration(requestsPerSecond)}
}

func (r *rateLimiter) waitTurn() {
	r.mu.Lock()
	now := time.Now()
	scheduled := now
	if r.nextAllowedAt.After(now) {
		scheduled = r.nextAllowedAt
	}
	r.nextAllowedAt = scheduled.Add(r.interval)
	r.mu.Unlock()

	if sleep := time.Until(scheduled); sleep > 0 {
		time.Sleep(sleep)
	}
}

const lookupAttempts = 3

func fetchJSON(ctx context.Context, httpClient *http.Client, limiter *rateLimiter, rawURL, userAgent string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= lookupAttempts; attempt++ {
		limiter.waitTurn()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < lookupAttempts {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				lastErr = fmt.Errorf("status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("lookup error: status=%d body=%s", resp.StatusCode, string(body))
		}

		return body, nil
	}

	if lastErr == nil {
		lastErr = errors.New("lookup failed")
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
