package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()
	if cfg.Addr != ":8080" {
		t.Fatalf("addr=%q", cfg.Addr)
	}
	if len(cfg.OverpassURLs) != 3 {
		t.Fatalf("want 3 default mirrors, got %v", cfg.OverpassURLs)
	}
	if cfg.GeocodeTimeout != 8*time.Second || cfg.SpatialTimeout != 12*time.Second {
		t.Fatalf("timeouts: %v %v", cfg.GeocodeTimeout, cfg.SpatialTimeout)
	}
	if cfg.CacheTTLResults != 5*time.Minute || cfg.CacheTTLSpatial != 10*time.Minute {
		t.Fatalf("ttls: %v %v", cfg.CacheTTLResults, cfg.CacheTTLSpatial)
	}
	if cfg.Invalidation.Enabled {
		t.Fatal("invalidation must default off")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("OVERPASS_URLS", "http://a/interpreter , http://b/interpreter,")
	t.Setenv("SPATIAL_MAX_RETRIES", "5")
	t.Setenv("CACHE_TTL_RESULTS", "90s")
	t.Setenv("INVALIDATION_ENABLED", "true")

	cfg := FromEnv()
	if len(cfg.OverpassURLs) != 2 || cfg.OverpassURLs[1] != "http://b/interpreter" {
		t.Fatalf("got %v", cfg.OverpassURLs)
	}
	if cfg.SpatialMaxRetries != 5 {
		t.Fatalf("got %d", cfg.SpatialMaxRetries)
	}
	if cfg.CacheTTLResults != 90*time.Second {
		t.Fatalf("got %v", cfg.CacheTTLResults)
	}
	if !cfg.Invalidation.Enabled {
		t.Fatal("invalidation should be enabled")
	}
}
