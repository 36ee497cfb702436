// Package invalidation defines the cache invalidation events published
// when underlying map or listing data changes.
package invalidation

import (
	"fmt"
	"strings"
	"time"
)

type Event struct {
	Version int       `json:"version"`
	Op      string    `json:"op"`
	TS      time.Time `json:"ts"`
	Source  string    `json:"source,omitempty"`
	Seq     uint64    `json:"seq,omitempty"`

	// Exactly one of Pattern or Area selects the affected entries.
	Pattern string `json:"pattern,omitempty"`
	Area    *Area  `json:"area,omitempty"`
}

// Area selects cache entries around a coordinate.
type Area struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	switch e.Op {
	case "insert", "update", "delete":
	default:
		return fmt.Errorf("op must be insert|update|delete")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	hasPattern := strings.TrimSpace(e.Pattern) != ""
	hasArea := e.Area != nil
	if hasPattern == hasArea {
		return fmt.Errorf("exactly one of pattern or area is required")
	}
	if hasArea {
		if !(e.Area.Lat >= -90 && e.Area.Lat <= 90) {
			return fmt.Errorf("area latitude out of range")
		}
		if !(e.Area.Lng >= -180 && e.Area.Lng <= 180) {
			return fmt.Errorf("area longitude out of range")
		}
	}
	return nil
}

// KeyPattern derives the cache key substring affected by the event. Area
// events collapse onto the rounded coordinate shared by nearby and
// spatial cache keys.
func (e Event) KeyPattern() string {
	if e.Area != nil {
		return fmt.Sprintf("%.3f:%.3f", e.Area.Lat, e.Area.Lng)
	}
	return e.Pattern
}
