// Package overpass executes radius queries against a pool of mirrored
// Overpass API endpoints. No single mirror is trustworthy: every failure
// mode advances to the next endpoint, and exhausted rounds back off
// before retrying the whole pool.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/propstack/proximity/internal/model"
	"github.com/propstack/proximity/internal/observability"
)

// MaxRadiusMeters bounds result size and mirror load.
const MaxRadiusMeters = 3000

// DefaultSelectors are the tag selectors queried for amenity discovery.
var DefaultSelectors = []string{
	`node["amenity"]`,
	`way["amenity"]`,
	`node["shop"]`,
	`way["shop"]`,
	`node["leisure"]`,
	`way["leisure"]`,
	`node["railway"="station"]`,
	`node["highway"="bus_stop"]`,
}

// QueryError reports that every endpoint failed in every round. It
// carries the total attempt count and the last observed error.
type QueryError struct {
	Attempts int
	LastErr  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("overpass: all endpoints failed after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *QueryError) Unwrap() error { return e.LastErr }

type Engine struct {
	endpoints  []string
	client     *http.Client
	logger     *slog.Logger
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	sleep      func(ctx context.Context, d time.Duration) error // for tests
}

type Option func(*Engine)

func WithTimeout(d time.Duration) Option { return func(e *Engine) { e.timeout = d } }
func WithMaxRetries(n int) Option        { return func(e *Engine) { e.maxRetries = n } }
func WithBackoff(d time.Duration) Option { return func(e *Engine) { e.backoff = d } }

func New(logger *slog.Logger, client *http.Client, endpoints []string, opts ...Option) *Engine {
	e := &Engine{
		endpoints:  endpoints,
		client:     client,
		logger:     logger,
		timeout:    12 * time.Second,
		maxRetries: 2,
		backoff:    time.Second,
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query runs one radius query against the mirror pool. Each round walks
// the endpoints in fixed order; the first 2xx short-circuits everything.
// 429, 5xx, other 4xx, timeouts and network errors all count as a soft
// failure for that endpoint. Rounds are separated by a fixed backoff,
// skipped after the final round.
func (e *Engine) Query(ctx context.Context, center model.Coordinate, radiusM int, selectors []string) ([]model.RawPoint, error) {
	if radiusM > MaxRadiusMeters {
		radiusM = MaxRadiusMeters
	}
	if len(selectors) == 0 {
		selectors = DefaultSelectors
	}
	payload := BuildQuery(center, radiusM, selectors)

	attempts := 0
	var lastErr error
	for round := 0; round < e.maxRetries; round++ {
		for _, endpoint := range e.endpoints {
			attempts++
			points, err := e.fetch(ctx, endpoint, payload)
			if err == nil {
				observability.IncSpatialAttempt(endpoint, "success")
				e.logger.Debug("overpass query succeeded",
					"endpoint", endpoint, "round", round, "points", len(points))
				return points, nil
			}
			lastErr = err
			observability.IncSpatialAttempt(endpoint, "failure")
			e.logger.Warn("overpass endpoint failed",
				"endpoint", endpoint, "round", round, "err", err)
			if ctx.Err() != nil {
				return nil, &QueryError{Attempts: attempts, LastErr: lastErr}
			}
		}
		if round < e.maxRetries-1 {
			if err := e.sleep(ctx, e.backoff); err != nil {
				return nil, &QueryError{Attempts: attempts, LastErr: lastErr}
			}
		}
	}
	return nil, &QueryError{Attempts: attempts, LastErr: lastErr}
}

func (e *Engine) fetch(ctx context.Context, endpoint, payload string) ([]model.RawPoint, error) {
	rctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	form := url.Values{"data": {payload}}
	req, err := http.NewRequestWithContext(rctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "propstack-proximity/1.0")

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	observability.ObserveUpstreamLatency("overpass", time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var decoded struct {
		Elements []struct {
			Lat    float64           `json:"lat"`
			Lon    float64           `json:"lon"`
			Tags   map[string]string `json:"tags"`
			Center *struct {
				Lat float64 `json:"lat"`
				Lon float64 `json:"lon"`
			} `json:"center"`
		} `json:"elements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	points := make([]model.RawPoint, 0, len(decoded.Elements))
	for _, el := range decoded.Elements {
		p := model.RawPoint{
			Tags:       el.Tags,
			Coordinate: model.Coordinate{Lat: el.Lat, Lng: el.Lon},
		}
		if el.Center != nil {
			p.Center = &model.Coordinate{Lat: el.Center.Lat, Lng: el.Center.Lon}
		}
		points = append(points, p)
	}
	return points, nil
}

// BuildQuery assembles the Overpass QL payload for a radius query.
func BuildQuery(center model.Coordinate, radiusM int, selectors []string) string {
	var b strings.Builder
	b.WriteString("[out:json][timeout:10];\n(\n")
	for _, sel := range selectors {
		fmt.Fprintf(&b, "  %s(around:%d,%.6f,%.6f);\n", sel, radiusM, center.Lat, center.Lng)
	}
	b.WriteString(");\nout center;")
	return b.String()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
