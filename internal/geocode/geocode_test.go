package geocode

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/propstack/proximity/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubProvider struct {
	name  string
	res   model.GeocodeResult
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Resolve(_ context.Context, _ string) (model.GeocodeResult, error) {
	s.calls++
	return s.res, s.err
}

func TestChain_FirstSuccessWins(t *testing.T) {
	p1 := &stubProvider{name: "p1", res: model.GeocodeResult{
		Coordinate: model.Coordinate{Lat: 23.03, Lng: 72.56}, DisplayName: "Ahmedabad"}}
	p2 := &stubProvider{name: "p2"}
	ch := NewChain(discardLogger(), time.Second, p1, p2)

	res, err := ch.Resolve(context.Background(), "ahmedabad")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.DisplayName != "Ahmedabad" {
		t.Fatalf("got %q", res.DisplayName)
	}
	if p2.calls != 0 {
		t.Fatal("second provider must not be called after a success")
	}
}

func TestChain_FallsThroughOnFailure(t *testing.T) {
	p1 := &stubProvider{name: "p1", err: errors.New("connection refused")}
	p2 := &stubProvider{name: "p2", res: model.GeocodeResult{
		Coordinate: model.Coordinate{Lat: 1, Lng: 2}, DisplayName: "fallback"}}
	ch := NewChain(discardLogger(), time.Second, p1, p2)

	res, err := ch.Resolve(context.Background(), "somewhere")
	if err != nil {
		t.Fatalf("fallback result expected, got err: %v", err)
	}
	if res.DisplayName != "fallback" {
		t.Fatalf("got %q want fallback", res.DisplayName)
	}
	if p1.calls != 1 || p2.calls != 1 {
		t.Fatalf("calls p1=%d p2=%d", p1.calls, p2.calls)
	}
}

func TestChain_AllFail_NotFound(t *testing.T) {
	p1 := &stubProvider{name: "p1", err: errors.New("timeout")}
	p2 := &stubProvider{name: "p2", err: errors.New("status 503")}
	ch := NewChain(discardLogger(), time.Second, p1, p2)

	_, err := ch.Resolve(context.Background(), "nowhere")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestNominatim_ParsesStringCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("format"); got != "json" {
			t.Errorf("format=%q want json", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"23.0271","lon":"72.5586","display_name":"Ahmedabad, Gujarat, India"}]`))
	}))
	defer srv.Close()

	n := NewNominatim(srv.URL, srv.Client(), 100)
	res, err := n.Resolve(context.Background(), "ahmedabad")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Coordinate.Lat != 23.0271 || res.Coordinate.Lng != 72.5586 {
		t.Fatalf("got %+v", res.Coordinate)
	}
	if res.DisplayName != "Ahmedabad, Gujarat, India" {
		t.Fatalf("got %q", res.DisplayName)
	}
}

func TestNominatim_EmptyAndMalformedAreFailures(t *testing.T) {
	for name, body := range map[string]string{
		"empty_array": `[]`,
		"not_json":    `<html>rate limited</html>`,
		"bad_lat":     `[{"lat":"north","lon":"72.5","display_name":"x"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			n := NewNominatim(srv.URL, srv.Client(), 100)
			if _, err := n.Resolve(context.Background(), "x"); err == nil {
				t.Fatal("expected soft failure")
			}
		})
	}
}

func TestPhoton_ParsesLonLatOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[{"geometry":{"coordinates":[72.5586,23.0271]},"properties":{"name":"Ahmedabad","state":"Gujarat","country":"India"}}]}`))
	}))
	defer srv.Close()

	p := NewPhoton(srv.URL, srv.Client())
	res, err := p.Resolve(context.Background(), "ahmedabad")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Coordinate.Lat != 23.0271 || res.Coordinate.Lng != 72.5586 {
		t.Fatalf("lon/lat order not handled: %+v", res.Coordinate)
	}
	if res.DisplayName != "Ahmedabad, Gujarat, India" {
		t.Fatalf("got %q", res.DisplayName)
	}
}

func TestPhoton_Non2xxIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewPhoton(srv.URL, srv.Client())
	if _, err := p.Resolve(context.Background(), "x"); err == nil {
		t.Fatal("expected failure on 429")
	}
}

func TestChain_HTTPFallbackEndToEnd(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer down.Close()
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[72.5,23.0]},"properties":{"name":"Gujarat"}}]}`))
	}))
	defer up.Close()

	ch := NewChain(discardLogger(), time.Second,
		NewNominatim(down.URL, down.Client(), 100),
		NewPhoton(up.URL, up.Client()),
	)
	res, err := ch.Resolve(context.Background(), "gujarat")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.DisplayName != "Gujarat" {
		t.Fatalf("got %q", res.DisplayName)
	}
}
