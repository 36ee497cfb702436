// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type InvalidationCfg struct {
	Enabled bool
	Driver  string
	Topic   string
	Brokers string
	GroupID string
}

type Config struct {
	Addr     string
	LogLevel string

	NominatimURL string
	PhotonURL    string
	OverpassURLs []string

	GeocodeTimeout    time.Duration
	GeocodeRatePerSec float64
	SpatialTimeout    time.Duration
	SpatialMaxRetries int
	SpatialBackoff    time.Duration

	CacheMaxSize       int
	CacheTTLResults    time.Duration
	CacheTTLSpatial    time.Duration
	CacheSweepInterval time.Duration

	Invalidation InvalidationCfg
}

func FromEnv() Config {
	return Config{
		Addr:     getenv("ADDR", ":8080"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		NominatimURL: getenv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		PhotonURL:    getenv("PHOTON_URL", "https://photon.komoot.io"),
		OverpassURLs: splitCSV(getenv("OVERPASS_URLS",
			"https://overpass-api.de/api/interpreter,"+
				"https://overpass.kumi.systems/api/interpreter,"+
				"https://maps.mail.ru/osm/tools/overpass/api/interpreter")),

		GeocodeTimeout:    getduration("GEOCODE_TIMEOUT", 8*time.Second),
		GeocodeRatePerSec: getfloat("GEOCODE_RATE_PER_SEC", 1.0),
		SpatialTimeout:    getduration("SPATIAL_TIMEOUT", 12*time.Second),
		SpatialMaxRetries: getint("SPATIAL_MAX_RETRIES", 2),
		SpatialBackoff:    getduration("SPATIAL_BACKOFF", time.Second),

		CacheMaxSize:       getint("CACHE_MAX_SIZE", 1000),
		CacheTTLResults:    getduration("CACHE_TTL_RESULTS", 5*time.Minute),
		CacheTTLSpatial:    getduration("CACHE_TTL_SPATIAL", 10*time.Minute),
		CacheSweepInterval: getduration("CACHE_SWEEP_INTERVAL", 60*time.Second),

		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Driver:  getenv("INVALIDATION_DRIVER", "none"),
			Topic:   getenv("KAFKA_TOPIC", "proximity-invalidation"),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			GroupID: getenv("KAFKA_GROUP_ID", "proximity-invalidator"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
