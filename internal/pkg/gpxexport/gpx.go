// Package gpxexport renders stored trips as GPX 1.1 tracks.
package gpxexport

import (
	"fmt"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/samirrijal/tripplanner/internal/core/domain"
)

const creator = "tripplanner"

// Encode renders one track per trip, one segment per stored day.
func Encode(trip *domain.Trip) ([]byte, error) {
	doc := &gpx.GPX{
		Version:     "1.1",
		Creator:     creator,
		Name:        trip.Name,
		Description: trip.Description,
	}
	if !trip.CreatedAt.IsZero() {
		t := trip.CreatedAt.UTC()
		doc.Time = &t
	}

	track := gpx.GPXTrack{
		Name:        trip.Name,
		Description: fmt.Sprintf("%s %s, %.2f km", trip.Location, trip.Type, trip.DistanceKm()),
		Type:        string(trip.Type),
	}
	for _, day := range trip.Route {
		seg := gpx.GPXTrackSegment{Points: make([]gpx.GPXPoint, 0, len(day.Points))}
		for _, p := range day.Points {
			seg.Points = append(seg.Points, gpx.GPXPoint{
				Point: gpx.Point{Latitude: p.Lat, Longitude: p.Lng},
			})
		}
		track.Segments = append(track.Segments, seg)
	}
	doc.Tracks = append(doc.Tracks, track)

	data, err := doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return nil, fmt.Errorf("encode gpx: %w", err)
	}
	return data, nil
}

// ObjectKey is where the archived export of trip lives in object storage.
func ObjectKey(trip *domain.Trip) string {
	return fmt.Sprintf("users/%s/trips/%s.gpx", trip.UserID, trip.ID)
}
