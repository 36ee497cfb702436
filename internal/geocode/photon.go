package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/propstack/proximity/internal/model"
	"github.com/propstack/proximity/internal/observability"
)

// Photon queries a Photon (komoot) instance, the fallback geocoder. It
// answers with a GeoJSON FeatureCollection whose coordinates are ordered
// [lon, lat].
type Photon struct {
	baseURL string
	client  *http.Client
}

func NewPhoton(baseURL string, client *http.Client) *Photon {
	return &Photon{baseURL: baseURL, client: client}
}

func (p *Photon) Name() string { return "photon" }

func (p *Photon) Resolve(ctx context.Context, query string) (model.GeocodeResult, error) {
	params := url.Values{
		"q":     {query},
		"limit": {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/api?"+params.Encode(), nil)
	if err != nil {
		return model.GeocodeResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return model.GeocodeResult{}, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	observability.ObserveUpstreamLatency("photon", time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.GeocodeResult{}, fmt.Errorf("status %d", resp.StatusCode)
	}

	var decoded struct {
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties struct {
				Name    string `json:"name"`
				City    string `json:"city"`
				State   string `json:"state"`
				Country string `json:"country"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return model.GeocodeResult{}, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Features) == 0 {
		return model.GeocodeResult{}, errors.New("empty result set")
	}

	f := decoded.Features[0]
	if len(f.Geometry.Coordinates) != 2 {
		return model.GeocodeResult{}, fmt.Errorf("invalid coordinate array of length %d", len(f.Geometry.Coordinates))
	}

	coord := model.Coordinate{Lat: f.Geometry.Coordinates[1], Lng: f.Geometry.Coordinates[0]}
	if !coord.Valid() {
		return model.GeocodeResult{}, fmt.Errorf("coordinate out of range: %v", f.Geometry.Coordinates)
	}

	var parts []string
	for _, s := range []string{f.Properties.Name, f.Properties.City, f.Properties.State, f.Properties.Country} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return model.GeocodeResult{Coordinate: coord, DisplayName: strings.Join(parts, ", ")}, nil
}
