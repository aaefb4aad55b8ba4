package ors

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/samirrijal/tripplanner/internal/core/domain"
	"github.com/samirrijal/tripplanner/internal/pkg/upstream"
)

const geocodeBody = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [2.3488, 48.8534]},
      "properties": {"layer": "country", "label": "France"},
      "bbox": [-5.1, 41.3, 9.6, 51.1]
    },
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [2.3488, 48.8534]},
      "properties": {"layer": "locality", "label": "Paris, France"},
      "bbox": [2.224, 48.815, 2.469, 48.902]
    },
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [2.35, 48.86]},
      "properties": {"layer": "venue", "name": "Louvre"}
    }
  ]
}`

const directionsBody = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"summary": {"distance": 1234.5}},
      "geometry": {"type": "LineString", "coordinates": [[-2.935, 43.263], [-2.930, 43.270], [-2.935, 43.263]]}
    }
  ]
}`

func TestSearchPlaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geocode/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("text") != "Paris" || q.Get("size") != "5" || q.Get("api_key") != "key" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, geocodeBody)
	}))
	defer srv.Close()

	c := New(srv.URL, "key", upstream.Options{})
	places, err := c.SearchPlaces(context.Background(), "Paris", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 3 {
		t.Fatalf("expected 3 places, got %d", len(places))
	}
	paris := places[1]
	if paris.Layer != "locality" || paris.Name != "Paris, France" {
		t.Errorf("unexpected place: %+v", paris)
	}
	if paris.BBox == nil || paris.BBox.MinLon != 2.224 || paris.BBox.MaxLat != 48.902 {
		t.Errorf("unexpected bbox: %+v", paris.BBox)
	}
	if paris.Point == nil || paris.Point.Lat != 48.8534 || paris.Point.Lon != 2.3488 {
		t.Errorf("unexpected point: %+v", paris.Point)
	}
	if places[2].BBox != nil || places[2].Name != "Louvre" {
		t.Errorf("expected venue without bbox, got %+v", places[2])
	}
}

func TestSearchPlaces_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "bad", upstream.Options{}).SearchPlaces(context.Background(), "Paris", 5)
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Query != "Paris" {
		t.Errorf("unexpected query %q", nf.Query)
	}
}

func TestSearchPlaces_MalformedBodyIsNotFound(t *testing.T) {
	bodies := []string{
		`{"type":"FeatureCollection","features":"oops"}`,
		`not json`,
	}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, body)
			}))
			defer srv.Close()

			_, err := New(srv.URL, "key", upstream.Options{}).SearchPlaces(context.Background(), "Paris", 5)
			var nf *domain.NotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("expected NotFoundError, got %v", err)
			}
			if nf.Err == nil {
				t.Error("expected decode cause to be kept")
			}
		})
	}
}

func TestSearchPlaces_ServerErrorIsNotNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "key", upstream.Options{}).SearchPlaces(context.Background(), "Paris", 5)
	if err == nil {
		t.Fatal("expected error")
	}
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		t.Errorf("5xx must stay distinct from NotFound, got %v", err)
	}
}

func TestDirections_HikeProfileAndAxisOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/directions/foot-walking/geojson" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "key" {
			t.Errorf("expected api key in Authorization header")
		}
		var body struct {
			Coordinates [][2]float64 `json:"coordinates"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(body.Coordinates) != 2 || body.Coordinates[0] != [2]float64{-2.935, 43.263} {
			t.Errorf("expected [lon, lat] pairs, got %v", body.Coordinates)
		}
		io.WriteString(w, directionsBody)
	}))
	defer srv.Close()

	route, err := New(srv.URL, "key", upstream.Options{}).Directions(context.Background(), domain.ActivityHike,
		[]domain.Coordinate{{Lat: 43.263, Lon: -2.935}, {Lat: 43.27, Lon: -2.93}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(route) != 3 {
		t.Fatalf("expected 3 points, got %d", len(route))
	}
	if route[1] != (domain.Coordinate{Lat: 43.270, Lon: -2.930}) {
		t.Errorf("expected lat/lon order, got %+v", route[1])
	}
}

func TestDirections_BikeProfile(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		io.WriteString(w, directionsBody)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "key", upstream.Options{}).Directions(context.Background(), domain.ActivityBike,
		[]domain.Coordinate{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/v2/directions/cycling-regular/geojson" {
		t.Errorf("unexpected path %s", path)
	}
}

func TestDirections_FailuresAreRouteServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"rejected", http.StatusBadRequest, `{"error":{"code":2010,"message":"Could not find routable point"}}`},
		{"upstream down", http.StatusServiceUnavailable, ``},
		{"no geometry", http.StatusOK, `{"type":"FeatureCollection","features":[]}`},
		{"garbage", http.StatusOK, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := New(srv.URL, "key", upstream.Options{}).Directions(context.Background(), domain.ActivityHike,
				[]domain.Coordinate{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}})
			var rs *domain.RouteServiceError
			if !errors.As(err, &rs) {
				t.Fatalf("expected RouteServiceError, got %v", err)
			}
			if rs.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rs.Status)
			}
			if !strings.Contains(rs.Error(), "try another location") {
				t.Errorf("unexpected message %q", rs.Error())
			}
		})
	}
}

func TestDirections_DeadlineIsNotRouteServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := New(srv.URL, "key", upstream.Options{}).Directions(ctx, domain.ActivityHike,
		[]domain.Coordinate{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	var rs *domain.RouteServiceError
	if errors.As(err, &rs) {
		t.Error("deadline must not be reported as a route service failure")
	}
}

func TestProfile_Unknown(t *testing.T) {
	if _, err := Profile("swim"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
