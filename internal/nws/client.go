package nws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tbaldwin/weather-widget/internal/observability"
)

// ErrFetch is the single error kind raised by this package: network failure,
// non-OK response, or malformed JSON. Callers match with errors.Is.
var ErrFetch = errors.New("weather fetch failed")

const defaultBaseURL = "https://api.weather.gov"

// Client talks to the National Weather Service API. Requests are made once,
// with no retry; failures are reported to the caller and counted in metrics.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewClient creates an NWS client. baseURL defaults to the public API when
// empty. The NWS requires a User-Agent identifying the application.
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// pointsResponse is the subset of the /points/{lat},{lon} response we consume.
type pointsResponse struct {
	Properties struct {
		ForecastHourly string `json:"forecastHourly"`
	} `json:"properties"`
}

// hourlyResponse is the subset of the hourly forecast response we consume.
// Only the first period matters; it describes the current hour.
type hourlyResponse struct {
	Properties struct {
		Periods []struct {
			StartTime     string `json:"startTime"`
			IsDaytime     bool   `json:"isDaytime"`
			Temperature   int    `json:"temperature"`
			WindSpeed     string `json:"windSpeed"`
			ShortForecast string `json:"shortForecast"`
		} `json:"periods"`
	} `json:"properties"`
}

// Period is the current hour's observation as reported by the provider.
// Temperature is Fahrenheit; WindSpeed keeps the provider formatting
// (e.g. "10 mph").
type Period struct {
	IsDaytime     bool
	Temperature   int
	WindSpeed     string
	ShortForecast string
}

// ResolveHourlyForecastURL resolves a latitude/longitude pair to the
// provider's hourly-forecast endpoint URL via the points lookup.
func (c *Client) ResolveHourlyForecastURL(ctx context.Context, lat, lon float64) (string, error) {
	url := fmt.Sprintf("%s/points/%.4f,%.4f", c.baseURL, lat, lon)
	body, err := c.get(ctx, "points", url)
	if err != nil {
		return "", err
	}

	var pts pointsResponse
	if err := json.Unmarshal(body, &pts); err != nil {
		return "", fmt.Errorf("%w: parse points response: %v", ErrFetch, err)
	}
	if pts.Properties.ForecastHourly == "" {
		return "", fmt.Errorf("%w: points response missing forecastHourly", ErrFetch)
	}
	return pts.Properties.ForecastHourly, nil
}

// CurrentPeriod fetches the hourly forecast at url and returns its first
// period.
func (c *Client) CurrentPeriod(ctx context.Context, url string) (Period, error) {
	body, err := c.get(ctx, "hourly", url)
	if err != nil {
		return Period{}, err
	}

	var hr hourlyResponse
	if err := json.Unmarshal(body, &hr); err != nil {
		return Period{}, fmt.Errorf("%w: parse hourly response: %v", ErrFetch, err)
	}
	if len(hr.Properties.Periods) == 0 {
		return Period{}, fmt.Errorf("%w: hourly response has no periods", ErrFetch)
	}

	p := hr.Properties.Periods[0]
	return Period{
		IsDaytime:     p.IsDaytime,
		Temperature:   p.Temperature,
		WindSpeed:     p.WindSpeed,
		ShortForecast: p.ShortForecast,
	}, nil
}

func (c *Client) get(ctx context.Context, operation, url string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		observability.NWSFetchesTotal.WithLabelValues(operation, "error").Inc()
		return nil, fmt.Errorf("%w: build request: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.client.Do(req)
	if err != nil {
		observability.NWSFetchesTotal.WithLabelValues(operation, "error").Inc()
		observability.NWSFetchDuration.WithLabelValues(operation, "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	status := statusLabel(resp.StatusCode)
	observability.NWSFetchesTotal.WithLabelValues(operation, status).Inc()
	observability.NWSFetchDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d from %s", ErrFetch, resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", ErrFetch, err)
	}
	return body, nil
}

func statusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode == http.StatusTooManyRequests:
		return "rate_limited"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	default:
		return "error"
	}
}
