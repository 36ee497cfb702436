package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/propstack/proximity/internal/model"
	"github.com/propstack/proximity/internal/observability"
)

const userAgent = "propstack-proximity/1.0"

// Nominatim queries an OSM Nominatim instance. The public instance allows
// at most one request per second, enforced here with a rate limiter.
type Nominatim struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func NewNominatim(baseURL string, client *http.Client, ratePerSec float64) *Nominatim {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	return &Nominatim{
		baseURL: baseURL,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
	}
}

func (n *Nominatim) Name() string { return "nominatim" }

func (n *Nominatim) Resolve(ctx context.Context, query string) (model.GeocodeResult, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return model.GeocodeResult{}, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		n.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return model.GeocodeResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := n.client.Do(req)
	if err != nil {
		return model.GeocodeResult{}, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	observability.ObserveUpstreamLatency("nominatim", time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.GeocodeResult{}, fmt.Errorf("status %d", resp.StatusCode)
	}

	// lat/lon arrive as strings
	var results []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return model.GeocodeResult{}, fmt.Errorf("decode response: %w", err)
	}
	if len(results) == 0 {
		return model.GeocodeResult{}, errors.New("empty result set")
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return model.GeocodeResult{}, fmt.Errorf("parse lat: %w", err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return model.GeocodeResult{}, fmt.Errorf("parse lon: %w", err)
	}

	coord := model.Coordinate{Lat: lat, Lng: lng}
	if !coord.Valid() {
		return model.GeocodeResult{}, fmt.Errorf("coordinate out of range: %v,%v", lat, lng)
	}
	return model.GeocodeResult{Coordinate: coord, DisplayName: results[0].DisplayName}, nil
}
