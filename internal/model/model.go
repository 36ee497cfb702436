// Package model defines the shared domain types for the proximity service.
package model

import "math"

// Coordinate is a WGS84 point. Immutable value type.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate is finite and inside WGS84 bounds.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// GeocodeResult is a resolved free-text location.
type GeocodeResult struct {
	Coordinate  Coordinate `json:"coordinates"`
	DisplayName string     `json:"displayName"`
}

// RawPoint is a provider-native spatial element. Way elements carry a
// bounding-box center instead of a node coordinate.
type RawPoint struct {
	Tags       map[string]string
	Coordinate Coordinate
	Center     *Coordinate
}

// Location returns the usable coordinate for the point, preferring the
// node coordinate and falling back to the way center.
func (p RawPoint) Location() (Coordinate, bool) {
	if (p.Coordinate.Lat != 0 || p.Coordinate.Lng != 0) && p.Coordinate.Valid() {
		return p.Coordinate, true
	}
	if p.Center != nil && p.Center.Valid() {
		return *p.Center, true
	}
	return Coordinate{}, false
}

// Amenity is one ranked point of interest near an anchor coordinate.
type Amenity struct {
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	DistanceKm float64 `json:"distanceKm"`
	Distance   string  `json:"distance"`
	Icon       string  `json:"icon"`
	Color      string  `json:"color"`
}

// NearbyResult is the ranked amenity set for one anchor+radius query.
type NearbyResult struct {
	Amenities      []Amenity `json:"amenities"`
	SearchRadiusKm float64   `json:"searchRadius"`
	TotalFound     int       `json:"totalFound"`
	Message        string    `json:"message,omitempty"`
}
