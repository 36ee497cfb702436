// Package router parses and validates the public HTTP surface and
// serializes responses. Recoverable upstream failures never surface as
// error statuses here; only malformed client input yields a 4xx.
package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/propstack/proximity/internal/health"
	"github.com/propstack/proximity/internal/middleware"
	"github.com/propstack/proximity/internal/model"
	"github.com/propstack/proximity/internal/observability"
	"github.com/propstack/proximity/internal/proximity"
)

type geocodeResponse struct {
	Success     bool              `json:"success"`
	Coordinates *model.Coordinate `json:"coordinates"`
	DisplayName string            `json:"displayName,omitempty"`
	Error       string            `json:"error,omitempty"`
}

type nearbyResponse struct {
	Success      bool            `json:"success"`
	Amenities    []model.Amenity `json:"amenities"`
	SearchRadius float64         `json:"searchRadius"`
	TotalFound   int             `json:"totalFound"`
	Message      string          `json:"message,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// New assembles the chi router with the standard middleware set.
func New(logger *slog.Logger, svc *proximity.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/cache/stats", health.CacheStats(svc))
	r.Get("/geocode", HandleGeocode(logger, svc))
	r.Get("/nearby", HandleNearby(logger, svc))

	return r
}

func HandleGeocode(logger *slog.Logger, svc *proximity.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		defer func() {
			observability.ObserveHTTP(r.Method, "/geocode", sw.code, time.Since(start).Seconds())
		}()

		query, err := parseGeocodeQuery(r)
		if err != nil {
			writeJSON(sw, http.StatusBadRequest, geocodeResponse{Success: false, Error: err.Error()})
			return
		}

		res, found := svc.Geocode(r.Context(), query)
		if !found {
			// every provider exhausted: a valid not-found payload, not a 5xx
			logger.Debug("geocode not found", "query", query)
			writeJSON(sw, http.StatusOK, geocodeResponse{
				Success: false,
				Error:   "Could not find coordinates for the given address",
			})
			return
		}
		coord := res.Coordinate
		writeJSON(sw, http.StatusOK, geocodeResponse{
			Success:     true,
			Coordinates: &coord,
			DisplayName: res.DisplayName,
		})
	}
}

func HandleNearby(logger *slog.Logger, svc *proximity.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		defer func() {
			observability.ObserveHTTP(r.Method, "/nearby", sw.code, time.Since(start).Seconds())
		}()

		coord, radiusKm, err := parseNearbyQuery(r)
		if err != nil {
			writeJSON(sw, http.StatusBadRequest, nearbyResponse{
				Success: false, Amenities: []model.Amenity{}, Error: err.Error(),
			})
			return
		}

		res := svc.Nearby(r.Context(), coord.Lat, coord.Lng, radiusKm)
		if res.Message != "" {
			logger.Debug("nearby degraded", "message", res.Message)
		}
		writeJSON(sw, http.StatusOK, nearbyResponse{
			Success:      true,
			Amenities:    res.Amenities,
			SearchRadius: res.SearchRadiusKm,
			TotalFound:   res.TotalFound,
			Message:      res.Message,
		})
	}
}

func parseGeocodeQuery(r *http.Request) (string, error) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if address == "" && city == "" {
		return "", errors.New("at least one of address or city is required")
	}
	parts := make([]string, 0, 2)
	if address != "" {
		parts = append(parts, address)
	}
	if city != "" {
		parts = append(parts, city)
	}
	return strings.Join(parts, ", "), nil
}

func parseNearbyQuery(r *http.Request) (model.Coordinate, float64, error) {
	q := r.URL.Query()

	lat, err := parseFinite(q.Get("lat"))
	if err != nil {
		return model.Coordinate{}, 0, fmt.Errorf("lat: %w", err)
	}
	lng, err := parseFinite(q.Get("lng"))
	if err != nil {
		return model.Coordinate{}, 0, fmt.Errorf("lng: %w", err)
	}
	coord := model.Coordinate{Lat: lat, Lng: lng}
	if !coord.Valid() {
		return model.Coordinate{}, 0, errors.New("coordinates out of range")
	}

	radiusKm := float64(proximity.DefaultRadiusKm)
	if raw := strings.TrimSpace(q.Get("radius")); raw != "" {
		radiusKm, err = parseFinite(raw)
		if err != nil {
			return model.Coordinate{}, 0, fmt.Errorf("radius: %w", err)
		}
	}
	return coord, radiusKm, nil
}

func parseFinite(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, errors.New("missing required parameter")
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse float: %w", err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("must be a finite number")
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
