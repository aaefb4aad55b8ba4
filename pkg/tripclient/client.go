// Package tripclient is a Go client for the TripPlanner REST API.
//
// A Client holds at most one Session. Calls that need authentication fail
// with ErrNoSession until Signup or Login succeeds, and the session is
// dropped on Logout or as soon as the server answers 401.
package tripclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

var (
	// ErrNoSession is returned by authenticated calls made without a session.
	ErrNoSession = errors.New("tripclient: no active session")
	// ErrUnauthorized wraps 401 responses. The session is gone afterwards.
	ErrUnauthorized = errors.New("tripclient: unauthorized")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tripclient: HTTP %d", e.Status)
	}
	return fmt.Sprintf("tripclient: HTTP %d: %s", e.Status, e.Message)
}

// Client talks to one TripPlanner server. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time

	mu      sync.RWMutex
	session *Session
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a Client for baseURL, e.g. "https://trips.example.com".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 45 * time.Second},
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Session returns a copy of the current session, or nil.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

func (c *Client) setSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *Client) token() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return "", ErrNoSession
	}
	return c.session.Token, nil
}

type authResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Signup creates an account and starts a session for it.
func (c *Client) Signup(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, "/api/auth/signup", email, password)
}

// Login starts a session for an existing account, replacing any current one.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, "/api/auth/login", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*Session, error) {
	var out authResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, path, false, body, &out); err != nil {
		return nil, err
	}
	s := &Session{Token: out.Token, User: out.User, IssuedAt: c.now()}
	c.setSession(s)
	return c.Session(), nil
}

// Logout revokes the token on the server. The local session ends even when
// the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", true, nil, nil)
	c.setSession(nil)
	if errors.Is(err, ErrUnauthorized) {
		return nil
	}
	return err
}

// Me returns the account behind the session.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", true, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Plan asks for a "hike" or "bike" trip around location.
func (c *Client) Plan(ctx context.Context, location, activity string, extras bool) (*Plan, error) {
	var out Plan
	body := map[string]any{"location": location, "type": activity, "extras": extras}
	if err := c.do(ctx, http.MethodPost, "/api/plan", true, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveTrip stores a trip.
func (c *Client) SaveTrip(ctx context.Context, in NewTrip) (*Trip, error) {
	var out struct {
		Trip Trip `json:"trip"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/trips", true, in, &out); err != nil {
		return nil, err
	}
	return &out.Trip, nil
}

// SavePlan stores a plan as a single day=1 leg holding the whole route.
func (c *Client) SavePlan(ctx context.Context, plan *Plan, name, description string) (*Trip, error) {
	pts := make([]LatLng, len(plan.Route))
	for i, p := range plan.Route {
		pts[i] = LatLng{Lat: p.Lat, Lng: p.Lon}
	}
	return c.SaveTrip(ctx, NewTrip{
		Name:        name,
		Description: description,
		Location:    plan.Location,
		Type:        plan.Type,
		Route:       []RouteDay{{Day: 1, DistanceKm: plan.TotalDistanceKm, Points: pts}},
	})
}

// ListTrips returns a page of the caller's trips, newest first.
func (c *Client) ListTrips(ctx context.Context, limit, offset int) (*TripPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	var out TripPage
	if err := c.do(ctx, http.MethodGet, "/api/trips?"+q.Encode(), true, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTrip returns one of the caller's trips.
func (c *Client) GetTrip(ctx context.Context, id string) (*Trip, error) {
	var out Trip
	if err := c.do(ctx, http.MethodGet, "/api/trips/"+url.PathEscape(id), true, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TripGPX downloads a trip as a GPX document.
func (c *Client) TripGPX(ctx context.Context, id string) ([]byte, error) {
	var out []byte
	if err := c.do(ctx, http.MethodGet, "/api/trips/"+url.PathEscape(id)+"/gpx", true, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// do sends a request and decodes a JSON response into out. A *[]byte out
// receives the raw body.
func (c *Client) do(ctx context.Context, method, path string, auth bool, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if auth {
		tok, err := c.token()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		apiErr.Status = resp.StatusCode
		if resp.StatusCode == http.StatusUnauthorized && auth {
			c.setSession(nil)
			return fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
		}
		return apiErr
	}

	switch v := out.(type) {
	case nil:
		return nil
	case *[]byte:
		*v = data
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("tripclient: decode %s %s: %w", method, path, err)
	}
	return nil
}
