// Package unsplash finds landscape photos for a destination.
package unsplash

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/samirrijal/tripplanner/internal/pkg/upstream"
)

// ErrNoImage is returned when the search has no usable result.
var ErrNoImage = errors.New("no image found")

// Client implements ports.ImageProvider.
type Client struct {
	baseURL   string
	accessKey string
	http      *upstream.Client
	pick      func(n int) int
}

// New creates an Unsplash client.
func New(baseURL, accessKey string, opts upstream.Options) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accessKey: accessKey,
		http:      upstream.New("unsplash", opts),
		pick:      rand.IntN,
	}
}

type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

// LandscapeImage returns the URL of a random landscape photo matching query.
func (c *Client) LandscapeImage(ctx context.Context, query string) (string, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("orientation", "landscape")
	q.Set("client_id", c.accessKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/photos?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", fmt.Errorf("photo search: status %d", res.Status)
	}

	var body searchResponse
	if err := json.Unmarshal(res.Body, &body); err != nil {
		return "", fmt.Errorf("decode photo search: %w", err)
	}

	urls := make([]string, 0, len(body.Results))
	for _, r := range body.Results {
		if r.URLs.Regular != "" {
			urls = append(urls, r.URLs.Regular)
		}
	}
	if len(urls) == 0 {
		return "", ErrNoImage
	}
	return urls[c.pick(len(urls))], nil
}

// Status reports the upstream circuit breaker state.
func (c *Client) Status() upstream.Status {
	return c.http.Status()
}
