// Package ors talks to OpenRouteService for place search and directions.
package ors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/tripplanner/internal/core/domain"
	"github.com/samirrijal/tripplanner/internal/pkg/upstream"
)

// Client implements ports.PlaceSearcher and ports.RouteProvider.
type Client struct {
	baseURL string
	apiKey  string
	http    *upstream.Client
}

// New creates an OpenRouteService client.
func New(baseURL, apiKey string, opts upstream.Options) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    upstream.New("openrouteservice", opts),
	}
}

// SearchPlaces runs a free-text geocode search and returns up to size
// candidates in service order. A rejected query or an undecodable answer
// is a *domain.NotFoundError; transport and 5xx failures are not.
func (c *Client) SearchPlaces(ctx context.Context, text string, size int) ([]domain.Place, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("text", text)
	q.Set("size", strconv.Itoa(size))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/geocode/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, &domain.NotFoundError{Query: text, Err: fmt.Errorf("geocode search: status %d: %s", res.Status, snippet(res.Body))}
	}

	fc, err := geojson.UnmarshalFeatureCollection(res.Body)
	if err != nil {
		return nil, &domain.NotFoundError{Query: text, Err: fmt.Errorf("decode geocode response: %w", err)}
	}
	return placesFromFeatures(fc.Features), nil
}

func placesFromFeatures(features []*geojson.Feature) []domain.Place {
	places := make([]domain.Place, 0, len(features))
	for _, f := range features {
		p := domain.Place{
			Name:  f.Properties.MustString("label", f.Properties.MustString("name", "")),
			Layer: f.Properties.MustString("layer", ""),
		}
		if len(f.BBox) == 4 {
			p.BBox = &domain.BBox{MinLon: f.BBox[0], MinLat: f.BBox[1], MaxLon: f.BBox[2], MaxLat: f.BBox[3]}
		}
		if pt, ok := f.Geometry.(orb.Point); ok {
			p.Point = &domain.Coordinate{Lat: pt.Lat(), Lon: pt.Lon()}
		}
		places = append(places, p)
	}
	return places
}

type directionsRequest struct {
	Coordinates [][2]float64 `json:"coordinates"`
}

// Profile maps an activity to the routing profile used for it.
func Profile(t domain.ActivityType) (string, error) {
	switch t {
	case domain.ActivityHike:
		return "foot-walking", nil
	case domain.ActivityBike:
		return "cycling-regular", nil
	}
	return "", fmt.Errorf("%w: no routing profile for %q", domain.ErrInvalidInput, t)
}

// Directions requests a route through waypoints. Any failure other than a
// cancelled or expired context is a *domain.RouteServiceError.
func (c *Client) Directions(ctx context.Context, profile domain.ActivityType, waypoints []domain.Coordinate) (domain.Route, error) {
	p, err := Profile(profile)
	if err != nil {
		return nil, err
	}

	body := directionsRequest{Coordinates: make([][2]float64, len(waypoints))}
	for i, w := range waypoints {
		// Service order is [lon, lat].
		body.Coordinates[i] = [2]float64{w.Lon, w.Lat}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/directions/"+p+"/geojson", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/geo+json, application/json")

	res, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		status := 0
		switch {
		case res != nil:
			status = res.Status
		case upstream.IsOpen(err):
			status = http.StatusServiceUnavailable
		}
		return nil, &domain.RouteServiceError{Status: status, Err: err}
	}
	if !res.OK() {
		return nil, &domain.RouteServiceError{Status: res.Status, Err: fmt.Errorf("directions: %s", snippet(res.Body))}
	}

	route, err := routeFromGeoJSON(res.Body)
	if err != nil {
		return nil, &domain.RouteServiceError{Status: res.Status, Err: err}
	}
	return route, nil
}

// routeFromGeoJSON takes the first LineString feature and converts its
// [lon, lat] pairs into the domain's lat/lon order.
func routeFromGeoJSON(data []byte) (domain.Route, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode directions: %w", err)
	}
	for _, f := range fc.Features {
		ls, ok := f.Geometry.(orb.LineString)
		if !ok {
			continue
		}
		route := make(domain.Route, len(ls))
		for i, pt := range ls {
			route[i] = domain.Coordinate{Lat: pt.Lat(), Lon: pt.Lon()}
		}
		if !route.Drawable() {
			return nil, errors.New("directions: route has fewer than two points")
		}
		return route, nil
	}
	return nil, errors.New("directions: no line geometry in response")
}

func snippet(b []byte) string {
	const n = 200
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

// Status reports the upstream circuit breaker state.
func (c *Client) Status() upstream.Status {
	return c.http.Status()
}
