package unsplash

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samirrijal/tripplanner/internal/pkg/upstream"
)

func TestLandscapeImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/search/photos" || q.Get("orientation") != "landscape" || q.Get("client_id") != "k" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		if q.Get("query") != "Bilbao" {
			t.Errorf("unexpected query %q", q.Get("query"))
		}
		io.WriteString(w, `{"results":[
			{"urls":{"regular":"https://img/1"}},
			{"urls":{"regular":""}},
			{"urls":{"regular":"https://img/2"}}]}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "k", upstream.Options{})
	c.pick = func(n int) int {
		if n != 2 {
			t.Errorf("expected 2 usable results, got %d", n)
		}
		return 1
	}

	u, err := c.LandscapeImage(context.Background(), "Bilbao")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u != "https://img/2" {
		t.Errorf("expected second image, got %s", u)
	}
}

func TestLandscapeImage_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"results":[]}`)
	}))
	defer srv.Close()

	if _, err := New(srv.URL, "k", upstream.Options{}).LandscapeImage(context.Background(), "x"); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
}

func TestLandscapeImage_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	if _, err := New(srv.URL, "bad", upstream.Options{}).LandscapeImage(context.Background(), "x"); err == nil {
		t.Fatal("expected error on 401")
	}
}
