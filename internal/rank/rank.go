// Package rank turns raw spatial-query points into the bounded, sorted
// amenity list shown to users: at most two representatives per category,
// the globally closest ten overall.
package rank

import (
	"fmt"
	"math"
	"sort"

	"github.com/propstack/proximity/internal/model"
)

const (
	earthRadiusKm = 6371
	perCategory   = 2
	maxResults    = 10
)

// Rank classifies, measures and reduces rawPoints relative to anchor.
// Total function: unmappable or unnamed-and-unlocatable points are
// silently dropped.
func Rank(anchor model.Coordinate, rawPoints []model.RawPoint) []model.Amenity {
	best := make(map[string][]model.Amenity)

	for _, p := range rawPoints {
		cat, ok := Classify(p.Tags)
		if !ok {
			continue
		}
		loc, ok := p.Location()
		if !ok {
			continue
		}

		name := p.Tags["name"]
		if name == "" {
			name = cat.Label
		}

		dist := Haversine(anchor, loc)
		cand := model.Amenity{
			Name:       name,
			Category:   cat.Key,
			DistanceKm: dist,
			Distance:   FormatDistance(dist),
			Icon:       cat.Icon,
			Color:      cat.Color,
		}

		kept := best[cat.Key]
		switch {
		case len(kept) < perCategory:
			kept = append(kept, cand)
		case cand.DistanceKm < kept[len(kept)-1].DistanceKm:
			kept[len(kept)-1] = cand
		default:
			continue
		}
		sort.Slice(kept, func(i, j int) bool { return kept[i].DistanceKm < kept[j].DistanceKm })
		best[cat.Key] = kept
	}

	out := make([]model.Amenity, 0, len(best)*perCategory)
	for _, kept := range best {
		out = append(out, kept...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}

// Haversine returns the great-circle distance in kilometers between two
// points on a mean-radius spherical Earth.
func Haversine(a, b model.Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// FormatDistance renders meters below one kilometer, kilometers to one
// decimal otherwise.
func FormatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%d m", int(math.Round(km*1000)))
	}
	return fmt.Sprintf("%.1f km", km)
}
