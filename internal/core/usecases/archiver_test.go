package usecases_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/tripplanner/internal/core/domain"
	"github.com/samirrijal/tripplanner/internal/core/usecases"
)

type mockLookup struct {
	getFn func(ctx context.Context, id string) (*domain.Trip, error)
}

func (m *mockLookup) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	return m.getFn(ctx, id)
}

type mockStore struct {
	puts map[string][]byte
	err  error
}

func (m *mockStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	if m.puts == nil {
		m.puts = map[string][]byte{}
	}
	m.puts[key] = data
	return nil
}

func archivedTrip() *domain.Trip {
	return &domain.Trip{
		ID: "t-1", UserID: "u-1", Name: "Loop", Location: "Bilbao", Type: domain.ActivityHike,
		Route: []domain.RouteDay{{Day: 1, DistanceKm: 3, Points: []domain.LatLng{
			{Lat: 43.26, Lng: -2.93}, {Lat: 43.27, Lng: -2.92},
		}}},
		CreatedAt: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestArchiver_StoresGPX(t *testing.T) {
	store := &mockStore{}
	a := usecases.NewArchiver(&mockLookup{getFn: func(ctx context.Context, id string) (*domain.Trip, error) {
		if id != "t-1" {
			t.Errorf("unexpected id %s", id)
		}
		return archivedTrip(), nil
	}}, store)

	err := a.HandleTripEvent(context.Background(), &domain.TripEvent{Kind: domain.EventTripSaved, UserID: "u-1", TripID: "t-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, ok := store.puts["users/u-1/trips/t-1.gpx"]
	if !ok {
		t.Fatalf("expected object under user prefix, got %v", store.puts)
	}
	if !strings.Contains(string(data), "<trkpt") {
		t.Error("expected GPX track points")
	}
}

func TestArchiver_IgnoresPlannedEvents(t *testing.T) {
	store := &mockStore{}
	a := usecases.NewArchiver(&mockLookup{getFn: func(ctx context.Context, id string) (*domain.Trip, error) {
		t.Fatal("lookup must not run")
		return nil, nil
	}}, store)

	if err := a.HandleTripEvent(context.Background(), &domain.TripEvent{Kind: domain.EventTripPlanned}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.puts) != 0 {
		t.Error("nothing should be stored")
	}
}

func TestArchiver_Errors(t *testing.T) {
	tests := []struct {
		name      string
		ev        domain.TripEvent
		lookupErr error
		storeErr  error
		final     bool
	}{
		{"missing trip id", domain.TripEvent{Kind: domain.EventTripSaved}, nil, nil, true},
		{"trip deleted", domain.TripEvent{Kind: domain.EventTripSaved, TripID: "t-1"}, domain.ErrTripNotFound, nil, true},
		{"db down", domain.TripEvent{Kind: domain.EventTripSaved, TripID: "t-1"}, errors.New("conn refused"), nil, false},
		{"store down", domain.TripEvent{Kind: domain.EventTripSaved, TripID: "t-1"}, nil, errors.New("503"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := usecases.NewArchiver(&mockLookup{getFn: func(ctx context.Context, id string) (*domain.Trip, error) {
				if tt.lookupErr != nil {
					return nil, tt.lookupErr
				}
				return archivedTrip(), nil
			}}, &mockStore{err: tt.storeErr})

			err := a.HandleTripEvent(context.Background(), &tt.ev)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, domain.ErrUnprocessableEvent); got != tt.final {
				t.Errorf("final=%v, want %v (%v)", got, tt.final, err)
			}
		})
	}
}
