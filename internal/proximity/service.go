// Package proximity wires the cache, geocoder chain, spatial query
// engine and ranker into the service consumed by the HTTP layer.
package proximity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/propstack/proximity/internal/cache/keys"
	"github.com/propstack/proximity/internal/cache/ttlcache"
	"github.com/propstack/proximity/internal/geocode"
	"github.com/propstack/proximity/internal/model"
	"github.com/propstack/proximity/internal/observability"
	"github.com/propstack/proximity/internal/rank"
)

const (
	// DefaultRadiusKm applies when the client omits the radius.
	DefaultRadiusKm = 2
	// MaxRadiusKm bounds provider load; larger requests are clamped.
	MaxRadiusKm = 3

	unavailableMessage = "Nearby places temporarily unavailable"
)

// Geocoder resolves a free-text location, reporting geocode.ErrNotFound
// once every backend has been tried.
type Geocoder interface {
	Resolve(ctx context.Context, query string) (model.GeocodeResult, error)
}

// SpatialQuerier fetches raw points around a center.
type SpatialQuerier interface {
	Query(ctx context.Context, center model.Coordinate, radiusM int, selectors []string) ([]model.RawPoint, error)
}

type Options struct {
	CacheMaxSize int
	ResultsTTL   time.Duration
	SpatialTTL   time.Duration
}

type Service struct {
	logger  *slog.Logger
	chain   Geocoder
	engine  SpatialQuerier
	results *ttlcache.Cache[model.NearbyResult]
	spatial *ttlcache.Cache[[]model.RawPoint]
	geo     *ttlcache.Cache[model.GeocodeResult]
}

func NewService(logger *slog.Logger, chain Geocoder, engine SpatialQuerier, opts Options) *Service {
	if opts.CacheMaxSize <= 0 {
		opts.CacheMaxSize = 1000
	}
	if opts.ResultsTTL <= 0 {
		opts.ResultsTTL = 5 * time.Minute
	}
	if opts.SpatialTTL <= 0 {
		opts.SpatialTTL = 10 * time.Minute
	}
	return &Service{
		logger:  logger,
		chain:   chain,
		engine:  engine,
		results: ttlcache.New[model.NearbyResult](opts.CacheMaxSize, opts.ResultsTTL),
		spatial: ttlcache.New[[]model.RawPoint](opts.CacheMaxSize, opts.SpatialTTL),
		geo:     ttlcache.New[model.GeocodeResult](opts.CacheMaxSize, opts.ResultsTTL),
	}
}

// StartSweepers launches the periodic cleanup for all caches. They stop
// when ctx is cancelled.
func (s *Service) StartSweepers(ctx context.Context, interval time.Duration) {
	s.results.StartSweeper(ctx, interval)
	s.spatial.StartSweeper(ctx, interval)
	s.geo.StartSweeper(ctx, interval)
}

// Nearby returns the ranked amenities around (lat, lng). The radius
// defaults to 2 km and is clamped to 3 km. Engine exhaustion degrades to
// an empty, successful result with an explanatory message.
func (s *Service) Nearby(ctx context.Context, lat, lng, radiusKm float64) model.NearbyResult {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	if radiusKm > MaxRadiusKm {
		radiusKm = MaxRadiusKm
	}

	key := keys.Nearby(lat, lng, radiusKm)
	if cached, ok := s.results.Get(key); ok {
		observability.IncCacheHit("results")
		return cached
	}
	observability.IncCacheMiss("results")

	anchor := model.Coordinate{Lat: lat, Lng: lng}
	radiusM := int(radiusKm * 1000)

	points, ok := s.spatial.Get(keys.Spatial(lat, lng, radiusM))
	if ok {
		observability.IncCacheHit("spatial")
	} else {
		observability.IncCacheMiss("spatial")
		var err error
		points, err = s.engine.Query(ctx, anchor, radiusM, nil)
		if err != nil {
			// Availability over completeness: the caller gets a valid,
			// empty result set, never the upstream failure.
			s.logger.Error("spatial query exhausted all endpoints", "err", err)
			return model.NearbyResult{
				Amenities:      []model.Amenity{},
				SearchRadiusKm: radiusKm,
				Message:        unavailableMessage,
			}
		}
		s.spatial.Set(keys.Spatial(lat, lng, radiusM), points)
	}

	amenities := rank.Rank(anchor, points)
	result := model.NearbyResult{
		Amenities:      amenities,
		SearchRadiusKm: radiusKm,
		TotalFound:     len(amenities),
	}
	s.results.Set(key, result)
	return result
}

// Geocode resolves the joined address/city query. The found flag is
// false when every provider came up empty; that outcome is not an error.
func (s *Service) Geocode(ctx context.Context, query string) (model.GeocodeResult, bool) {
	key := keys.Geocode(query)
	if cached, ok := s.geo.Get(key); ok {
		observability.IncCacheHit("geocode")
		return cached, true
	}
	observability.IncCacheMiss("geocode")

	res, err := s.chain.Resolve(ctx, query)
	if err != nil {
		if !errors.Is(err, geocode.ErrNotFound) {
			s.logger.Error("geocode chain failed", "err", err)
		}
		return model.GeocodeResult{}, false
	}
	s.geo.Set(key, res)
	return res, true
}

// Invalidate removes entries whose key contains pattern from every cache
// and returns the number removed. Driven by map-data change events.
func (s *Service) Invalidate(pattern string) int {
	n := s.results.Invalidate(pattern)
	n += s.spatial.Invalidate(pattern)
	n += s.geo.Invalidate(pattern)
	return n
}

// CacheStats reports a read-only snapshot of all cache instances.
func (s *Service) CacheStats() map[string]any {
	return map[string]any{
		"results": s.results.Stats(),
		"spatial": s.spatial.Stats(),
		"geocode": s.geo.Stats(),
	}
}
