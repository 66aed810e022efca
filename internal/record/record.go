// Package record holds the single current weather observation. The record is
// created once at startup and mutated in place by every refresh; readers get
// consistent copies via Snapshot.
package record

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/tbaldwin/weather-widget/internal/nws"
)

// Fetcher fetches the current hourly period from a forecast URL.
// *nws.Client satisfies it; tests substitute a mock.
type Fetcher interface {
	CurrentPeriod(ctx context.Context, url string) (nws.Period, error)
}

// Record is the one current observation. The source URL is immutable after
// creation; all other fields are overwritten together on each successful
// refresh. A Record starts unpopulated and stays that way until the first
// refresh succeeds; a failed refresh leaves previous values untouched.
type Record struct {
	fetcher   Fetcher
	sourceURL string

	mu            sync.RWMutex
	populated     bool
	lastErr       error
	updatedAt     time.Time
	isDaytime     bool
	temperatureF  int
	windSpeed     string
	shortForecast string
}

// View is an immutable copy of the record's observation fields.
// TemperatureF is always Fahrenheit; Celsius is derived, never stored.
type View struct {
	UpdatedAt     time.Time
	IsDaytime     bool
	TemperatureF  int
	WindSpeed     string
	ShortForecast string
}

// New creates an unpopulated Record bound to its hourly-forecast source URL.
// Call Refresh to perform the first fetch.
func New(fetcher Fetcher, sourceURL string) *Record {
	return &Record{
		fetcher:   fetcher,
		sourceURL: sourceURL,
	}
}

// SourceURL returns the record's immutable forecast source.
func (r *Record) SourceURL() string {
	return r.sourceURL
}

// Refresh re-fetches from the source URL and overwrites all observation
// fields plus the timestamp. On failure the previous values are kept and the
// error is remembered for state reporting.
func (r *Record) Refresh(ctx context.Context) error {
	period, err := r.fetcher.CurrentPeriod(ctx, r.sourceURL)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		r.lastErr = err
		return err
	}

	r.populated = true
	r.lastErr = nil
	r.updatedAt = time.Now()
	r.isDaytime = period.IsDaytime
	r.temperatureF = period.Temperature
	r.windSpeed = period.WindSpeed
	r.shortForecast = period.ShortForecast
	return nil
}

// Snapshot returns a copy of the observation and whether the record has ever
// been populated.
func (r *Record) Snapshot() (View, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.populated {
		return View{}, false
	}
	return View{
		UpdatedAt:     r.updatedAt,
		IsDaytime:     r.isDaytime,
		TemperatureF:  r.temperatureF,
		WindSpeed:     r.windSpeed,
		ShortForecast: r.shortForecast,
	}, true
}

// LastError returns the error from the most recent refresh, or nil if it
// succeeded or no refresh has run yet.
func (r *Record) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

// Describe returns a multi-line human-readable summary for diagnostic
// logging. Nothing parses this output.
func (r *Record) Describe() string {
	view, ok := r.Snapshot()
	if !ok {
		return "weather record: not yet populated"
	}
	return fmt.Sprintf(
		"weather as of %s:\n  forecast: %s\n  temperature: %d°F\n  wind: %s\n  daytime: %t",
		view.UpdatedAt.Format(time.RFC3339),
		view.ShortForecast,
		view.TemperatureF,
		view.WindSpeed,
		view.IsDaytime,
	)
}

// CelsiusFromFahrenheit converts with the exact 5/9 ratio, rounding to the
// nearest degree. The well-known approximation of multiplying by 0.55 drifts
// a full degree by the boiling point, so we use the exact ratio.
func CelsiusFromFahrenheit(f float64) int {
	return int(math.Round((f - 32) * 5.0 / 9.0))
}

// TemperatureC derives the Celsius temperature from the stored Fahrenheit
// value.
func (v View) TemperatureC() int {
	return CelsiusFromFahrenheit(float64(v.TemperatureF))
}
