package usecases

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/goccy/go-json"

	"github.com/samirrijal/tripplanner/internal/core/domain"
	"github.com/samirrijal/tripplanner/internal/core/ports"
)

const (
	geocodeCandidates = 5
	geocodeCacheTTL   = 24 * 60 * 60
)

// settlementLayers are preferred over everything else when picking a candidate.
var settlementLayers = map[string]bool{
	"locality": true,
	"city":     true,
	"town":     true,
	"village":  true,
}

// Geocoder resolves a free-text place name to one representative coordinate.
type Geocoder struct {
	places ports.PlaceSearcher
	cache  ports.CacheService
	rnd    func() float64
}

// NewGeocoder creates a Geocoder. cache may be nil.
func NewGeocoder(places ports.PlaceSearcher, cache ports.CacheService) *Geocoder {
	return &Geocoder{places: places, cache: cache, rnd: rand.Float64}
}

// WithRand replaces the uniform [0,1) source used for bbox sampling.
func (g *Geocoder) WithRand(rnd func() float64) *Geocoder {
	g.rnd = rnd
	return g
}

// Resolve returns a coordinate for text. Places with a bounding box yield a
// uniformly random point inside it, so repeated calls differ.
func (g *Geocoder) Resolve(ctx context.Context, text string) (domain.Coordinate, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return domain.Coordinate{}, domain.ErrEmptyLocation
	}

	candidates, err := g.candidates(ctx, query)
	if err != nil {
		return domain.Coordinate{}, err
	}

	place := SelectPlace(candidates)
	if place == nil {
		return domain.Coordinate{}, &domain.NotFoundError{Query: query}
	}
	if place.BBox != nil {
		return PointInBBox(*place.BBox, g.rnd), nil
	}
	if place.Point != nil {
		return *place.Point, nil
	}
	return domain.Coordinate{}, &domain.NotFoundError{Query: query}
}

// candidates reads through the cache. The random draw stays outside it.
func (g *Geocoder) candidates(ctx context.Context, query string) ([]domain.Place, error) {
	cacheKey := fmt.Sprintf("geocode:%s", strings.ToLower(query))
	if g.cache != nil {
		if data, err := g.cache.Get(ctx, cacheKey); err == nil {
			var places []domain.Place
			if err := json.Unmarshal(data, &places); err == nil {
				return places, nil
			}
		}
	}

	places, err := g.places.SearchPlaces(ctx, query, geocodeCandidates)
	if err != nil {
		return nil, fmt.Errorf("place search: %w", err)
	}

	if g.cache != nil && len(places) > 0 {
		if data, err := json.Marshal(places); err == nil {
			_ = g.cache.Set(ctx, cacheKey, data, geocodeCacheTTL)
		}
	}
	return places, nil
}

// SelectPlace picks the first settlement-level candidate, else the first
// country, else the first candidate. It returns nil for an empty list.
func SelectPlace(candidates []domain.Place) *domain.Place {
	if len(candidates) == 0 {
		return nil
	}
	for i := range candidates {
		if settlementLayers[candidates[i].Layer] {
			return &candidates[i]
		}
	}
	for i := range candidates {
		if candidates[i].Layer == "country" {
			return &candidates[i]
		}
	}
	return &candidates[0]
}

// PointInBBox samples each axis independently and uniformly.
func PointInBBox(b domain.BBox, rnd func() float64) domain.Coordinate {
	return domain.Coordinate{
		Lon: b.MinLon + rnd()*(b.MaxLon-b.MinLon),
		Lat: b.MinLat + rnd()*(b.MaxLat-b.MinLat),
	}
}
