package usecases_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/tripplanner/internal/core/domain"
	"github.com/samirrijal/tripplanner/internal/core/usecases"
)

func samplePlan() domain.TripPlan {
	return domain.TripPlan{
		Location:        "Paris",
		Type:            domain.ActivityHike,
		Route:           parisLoop,
		TotalDistanceKm: 12.34,
		DaysRequired:    1,
		KmPerDay:        12.34,
	}
}

func TestTripService_SaveFromPlan_RoundTrip(t *testing.T) {
	repo := newMemTripRepo()
	svc := usecases.NewTripService(repo, nil)
	sess := testSession()

	saved, err := svc.SaveFromPlan(context.Background(), sess, samplePlan(), "Paris loop", "Sunday walk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.Get(context.Background(), sess, saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Route) != 1 {
		t.Fatalf("expected a single stored leg, got %d", len(got.Route))
	}
	leg := got.Route[0]
	if leg.Day != 1 || leg.DistanceKm != 12.34 {
		t.Errorf("expected day 1 with 12.34 km, got day %d with %.2f", leg.Day, leg.DistanceKm)
	}
	if len(leg.Points) != len(parisLoop) {
		t.Fatalf("expected %d points, got %d", len(parisLoop), len(leg.Points))
	}
	for i, p := range leg.Points {
		if p.Lat != parisLoop[i].Lat || p.Lng != parisLoop[i].Lon {
			t.Errorf("point %d: expected %+v, got %+v", i, parisLoop[i], p)
		}
	}
	if got.UserID != sess.UserID || got.Name != "Paris loop" || got.Description != "Sunday walk" {
		t.Errorf("unexpected trip header: %+v", got)
	}
}

func TestTripService_Get_ScopedToOwner(t *testing.T) {
	repo := newMemTripRepo()
	svc := usecases.NewTripService(repo, nil)

	saved, err := svc.SaveFromPlan(context.Background(), testSession(), samplePlan(), "Mine", "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	other := testSession()
	other.UserID = "user-2"
	if _, err := svc.Get(context.Background(), other, saved.ID); !errors.Is(err, domain.ErrTripNotFound) {
		t.Fatalf("expected ErrTripNotFound for another user's trip, got %v", err)
	}
	if _, err := svc.Get(context.Background(), testSession(), "not-a-uuid"); !errors.Is(err, domain.ErrTripNotFound) {
		t.Fatalf("expected ErrTripNotFound for malformed id, got %v", err)
	}
}

func TestTripService_Save_RepoFailureIsSaveFailed(t *testing.T) {
	repo := &mockTripRepo{createFn: func(ctx context.Context, trip *domain.Trip) error {
		return errors.New("connection reset")
	}}
	svc := usecases.NewTripService(repo, nil)

	_, err := svc.SaveFromPlan(context.Background(), testSession(), samplePlan(), "x", "")
	if !errors.Is(err, domain.ErrSaveFailed) {
		t.Fatalf("expected ErrSaveFailed, got %v", err)
	}
	var pf *domain.PlanningFailedError
	if errors.As(err, &pf) {
		t.Error("save failure must not look like a planning failure")
	}
}

func TestTripService_Save_Validation(t *testing.T) {
	called := false
	repo := &mockTripRepo{createFn: func(ctx context.Context, trip *domain.Trip) error {
		called = true
		return nil
	}}
	svc := usecases.NewTripService(repo, nil)

	tests := []struct {
		name string
		in   domain.NewTrip
	}{
		{"missing name", domain.NewTrip{Location: "Paris", Type: domain.ActivityHike, Route: domain.StoredRoute(samplePlan())}},
		{"bad type", domain.NewTrip{Name: "x", Location: "Paris", Type: "swim", Route: domain.StoredRoute(samplePlan())}},
		{"no route", domain.NewTrip{Name: "x", Location: "Paris", Type: domain.ActivityBike}},
		{"single point", domain.NewTrip{Name: "x", Location: "Paris", Type: domain.ActivityBike,
			Route: []domain.RouteDay{{Day: 1, Points: []domain.LatLng{{Lat: 1, Lng: 1}}}}}},
		{"latitude out of range", domain.NewTrip{Name: "x", Location: "Paris", Type: domain.ActivityBike,
			Route: []domain.RouteDay{{Day: 1, Points: []domain.LatLng{{Lat: 91, Lng: 1}, {Lat: 1, Lng: 1}}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Save(context.Background(), testSession(), tt.in)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
	if called {
		t.Error("repository must not be called for invalid input")
	}
}

func TestTripService_Save_PublishesEvent(t *testing.T) {
	events := &mockEvents{}
	svc := usecases.NewTripService(newMemTripRepo(), events)

	saved, err := svc.SaveFromPlan(context.Background(), testSession(), samplePlan(), "Loop", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events.events))
	}
	ev := events.events[0]
	if ev.Kind != domain.EventTripSaved || ev.TripID != saved.ID || ev.DistanceKm != 12.34 {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestTripService_Unauthorized(t *testing.T) {
	svc := usecases.NewTripService(newMemTripRepo(), nil)
	expired := testSession()
	expired.ExpiresAt = time.Now().Add(-time.Second)

	if _, err := svc.SaveFromPlan(context.Background(), expired, samplePlan(), "x", ""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("save: expected ErrUnauthorized, got %v", err)
	}
	if _, _, err := svc.List(context.Background(), nil, 10, 0); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("list: expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.Get(context.Background(), expired, "x"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("get: expected ErrUnauthorized, got %v", err)
	}
}

func TestTripService_List_ClampsAndScopes(t *testing.T) {
	var gotUser string
	var gotLimit, gotOffset int
	repo := &mockTripRepo{listFn: func(ctx context.Context, userID string, limit, offset int) ([]domain.TripSummary, int, error) {
		gotUser, gotLimit, gotOffset = userID, limit, offset
		return []domain.TripSummary{{ID: "t1", Name: "Loop"}}, 1, nil
	}}
	svc := usecases.NewTripService(repo, nil)

	trips, total, err := svc.List(context.Background(), testSession(), 1000, -5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUser != "user-1" || gotLimit != 50 || gotOffset != 0 {
		t.Errorf("expected (user-1, 50, 0), got (%s, %d, %d)", gotUser, gotLimit, gotOffset)
	}
	if total != 1 || len(trips) != 1 {
		t.Errorf("expected 1 trip, got %d/%d", len(trips), total)
	}
}

func TestTripService_ExportGPX(t *testing.T) {
	repo := newMemTripRepo()
	svc := usecases.NewTripService(repo, nil)
	saved, err := svc.SaveFromPlan(context.Background(), testSession(), samplePlan(), "Loop", "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	data, trip, err := svc.ExportGPX(context.Background(), testSession(), saved.ID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if trip.ID != saved.ID {
		t.Errorf("expected trip %s, got %s", saved.ID, trip.ID)
	}
	if !bytes.Contains(data, []byte("<trkpt")) {
		t.Errorf("expected track points in gpx, got %s", data)
	}
}
