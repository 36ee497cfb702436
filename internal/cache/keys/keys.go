// Package keys builds stable cache keys for geocode and nearby lookups.
package keys

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Nearby keys a nearby-amenity lookup by the anchor coordinate rounded to
// three decimals (~110 m) and the search radius. Requests that round to
// the same point share one cache entry.
func Nearby(lat, lng, radiusKm float64) string {
	return fmt.Sprintf("nearby:%.3f:%.3f:%g", lat, lng, radiusKm)
}

// Spatial keys a raw spatial-query response by rounded center and the
// radius in meters.
func Spatial(lat, lng float64, radiusM int) string {
	return fmt.Sprintf("spatial:%.3f:%.3f:%d", lat, lng, radiusM)
}

// Geocode keys a free-text geocode query. The normalized text is hashed
// so arbitrary user input cannot produce unbounded or unsafe keys.
func Geocode(query string) string {
	norm := normalize(query)
	return fmt.Sprintf("geo:%016x", xxhash.Sum64String(norm))
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}
