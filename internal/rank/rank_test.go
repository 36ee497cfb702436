package rank

import (
	"fmt"
	"math"
	"testing"

	"github.com/propstack/proximity/internal/model"
)

var anchor = model.Coordinate{Lat: 23.0271, Lng: 72.5586}

// pointAt returns a raw point roughly km kilometers north of the anchor.
func pointAt(km float64, tags map[string]string) model.RawPoint {
	return model.RawPoint{
		Tags:       tags,
		Coordinate: model.Coordinate{Lat: anchor.Lat + km/111.0, Lng: anchor.Lng},
	}
}

func TestHaversine_KnownDistance(t *testing.T) {
	// Ahmedabad to Mumbai, roughly 441 km
	mumbai := model.Coordinate{Lat: 19.076, Lng: 72.8777}
	got := Haversine(anchor, mumbai)
	if math.Abs(got-441) > 5 {
		t.Fatalf("got %.1f km want ~441 km", got)
	}
	if Haversine(anchor, anchor) != 0 {
		t.Fatal("distance to self must be zero")
	}
}

func TestFormatDistance(t *testing.T) {
	cases := []struct {
		km   float64
		want string
	}{
		{0.2, "200 m"},
		{0.999, "999 m"},
		{1.0, "1.0 km"},
		{1.54, "1.5 km"},
		{2.96, "3.0 km"},
	}
	for _, c := range cases {
		if got := FormatDistance(c.km); got != c.want {
			t.Errorf("FormatDistance(%v)=%q want %q", c.km, got, c.want)
		}
	}
}

func TestClassify_Precedence(t *testing.T) {
	// amenity wins over shop
	cat, ok := Classify(map[string]string{"amenity": "pharmacy", "shop": "supermarket"})
	if !ok || cat.Key != "pharmacy" {
		t.Fatalf("got %+v", cat)
	}
	// shop wins over leisure
	cat, ok = Classify(map[string]string{"shop": "mall", "leisure": "park"})
	if !ok || cat.Key != "mall" {
		t.Fatalf("got %+v", cat)
	}
	// railway station recognized
	cat, ok = Classify(map[string]string{"railway": "station"})
	if !ok || cat.Key != "train_station" {
		t.Fatalf("got %+v", cat)
	}
	// unknown tags dropped
	if _, ok := Classify(map[string]string{"barrier": "fence"}); ok {
		t.Fatal("unmapped tags must not classify")
	}
	if _, ok := Classify(nil); ok {
		t.Fatal("nil tags must not classify")
	}
}

func TestRank_CapsTwoPerCategoryAndSortsGlobally(t *testing.T) {
	points := []model.RawPoint{
		pointAt(0.4, map[string]string{"amenity": "hospital", "name": "Hospital A"}),
		pointAt(0.8, map[string]string{"amenity": "hospital", "name": "Hospital B"}),
		pointAt(1.5, map[string]string{"amenity": "hospital", "name": "Hospital C"}),
		pointAt(0.2, map[string]string{"amenity": "pharmacy", "name": "Pharmacy A"}),
	}

	got := Rank(anchor, points)
	want := []string{"Pharmacy A", "Hospital A", "Hospital B"}
	if len(got) != len(want) {
		t.Fatalf("got %d amenities want %d: %+v", len(got), len(want), got)
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("position %d: got %q want %q", i, got[i].Name, name)
		}
	}
}

func TestRank_CloserCandidateReplacesSecondPlace(t *testing.T) {
	points := []model.RawPoint{
		pointAt(1.0, map[string]string{"amenity": "cafe", "name": "Far"}),
		pointAt(2.0, map[string]string{"amenity": "cafe", "name": "Farther"}),
		pointAt(0.3, map[string]string{"amenity": "cafe", "name": "Near"}),
	}
	got := Rank(anchor, points)
	if len(got) != 2 {
		t.Fatalf("got %d want 2", len(got))
	}
	if got[0].Name != "Near" || got[1].Name != "Far" {
		t.Fatalf("got %q,%q want Near,Far", got[0].Name, got[1].Name)
	}
}

func TestRank_GlobalTopTen(t *testing.T) {
	var points []model.RawPoint
	kinds := []string{"hospital", "pharmacy", "school", "restaurant", "cafe", "bank", "atm", "fuel"}
	for i, k := range kinds {
		for j := 0; j < 2; j++ {
			points = append(points, pointAt(0.1*float64(i*2+j+1),
				map[string]string{"amenity": k, "name": fmt.Sprintf("%s-%d", k, j)}))
		}
	}

	got := Rank(anchor, points)
	if len(got) != 10 {
		t.Fatalf("got %d want 10", len(got))
	}
	perCat := map[string]int{}
	for i, a := range got {
		perCat[a.Category]++
		if i > 0 && got[i-1].DistanceKm > a.DistanceKm {
			t.Fatalf("not sorted ascending at %d: %v > %v", i, got[i-1].DistanceKm, a.DistanceKm)
		}
	}
	for cat, n := range perCat {
		if n > 2 {
			t.Fatalf("category %s appears %d times", cat, n)
		}
	}
}

func TestRank_DropsUnlocatablePoints(t *testing.T) {
	points := []model.RawPoint{
		{Tags: map[string]string{"amenity": "hospital", "name": "nowhere"}},
		pointAt(0.5, map[string]string{"amenity": "hospital", "name": "somewhere"}),
	}
	got := Rank(anchor, points)
	if len(got) != 1 || got[0].Name != "somewhere" {
		t.Fatalf("got %+v", got)
	}
}

func TestRank_UnnamedFallsBackToLabel(t *testing.T) {
	got := Rank(anchor, []model.RawPoint{pointAt(0.5, map[string]string{"amenity": "fuel"})})
	if len(got) != 1 || got[0].Name != "Fuel Station" {
		t.Fatalf("got %+v", got)
	}
}

func TestRank_EmptyInput(t *testing.T) {
	if got := Rank(anchor, nil); len(got) != 0 {
		t.Fatalf("got %+v", got)
	}
}
