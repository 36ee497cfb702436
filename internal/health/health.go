// Package health exposes liveness and cache statistics handlers.
package health

import (
	"encoding/json"
	"net/http"
)

func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

type StatsReporter interface {
	CacheStats() map[string]any
}

// CacheStats reports the in-process cache sizes, useful when tuning TTLs.
func CacheStats(sr StatsReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sr.CacheStats())
	}
}
