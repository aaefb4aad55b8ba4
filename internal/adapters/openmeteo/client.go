// Package openmeteo fetches daily forecasts from the Open-Meteo API.
package openmeteo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/samirrijal/tripplanner/internal/core/domain"
	"github.com/samirrijal/tripplanner/internal/pkg/upstream"
)

const dateLayout = "2006-01-02"

// Client implements ports.WeatherProvider.
type Client struct {
	baseURL string
	http    *upstream.Client
}

// New creates an Open-Meteo client.
func New(baseURL string, opts upstream.Options) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    upstream.New("open-meteo", opts),
	}
}

type forecastResponse struct {
	Daily struct {
		Time             []string   `json:"time"`
		TemperatureMax   []*float64 `json:"temperature_2m_max"`
		TemperatureMin   []*float64 `json:"temperature_2m_min"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// DailyForecast returns days forecasts starting on from's date.
func (c *Client) DailyForecast(ctx context.Context, at domain.Coordinate, from time.Time, days int) ([]domain.DayForecast, error) {
	if days <= 0 {
		return nil, nil
	}
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(at.Lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(at.Lon, 'f', 4, 64))
	q.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum")
	q.Set("timezone", "auto")
	q.Set("start_date", from.Format(dateLayout))
	q.Set("end_date", from.AddDate(0, 0, days-1).Format(dateLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, fmt.Errorf("forecast: status %d", res.Status)
	}

	var body forecastResponse
	if err := json.Unmarshal(res.Body, &body); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}

	d := body.Daily
	out := make([]domain.DayForecast, 0, len(d.Time))
	for i, date := range d.Time {
		out = append(out, domain.DayForecast{
			Date:            date,
			MaxTempC:        valueAt(d.TemperatureMax, i),
			MinTempC:        valueAt(d.TemperatureMin, i),
			PrecipitationMm: valueAt(d.PrecipitationSum, i),
		})
	}
	return out, nil
}

// valueAt reads a nullable series value, treating gaps as zero.
func valueAt(series []*float64, i int) float64 {
	if i >= len(series) || series[i] == nil {
		return 0
	}
	return *series[i]
}

// Status reports the upstream circuit breaker state.
func (c *Client) Status() upstream.Status {
	return c.http.Status()
}
