// Package render builds the widget HTML. The renderer owns the
// weather-display container exclusively: every state change replaces the
// container's content wholesale, except the unit toggle which rewrites only
// the temperature text.
package render

import (
	"fmt"
	"html/template"
	"io"

	"github.com/tbaldwin/weather-widget/internal/record"
)

// State is the widget display state.
type State string

const (
	// StateLoading shows the fixed placeholder before the first successful
	// fetch. Clicks have nothing to target in this state.
	StateLoading State = "loading"
	// StateUnavailable shows when no fetch has ever succeeded and the last
	// attempt failed. Errors are never surfaced beyond this fixed message.
	StateUnavailable State = "unavailable"
	// StateReady shows the full observation layout.
	StateReady State = "ready"
)

// WidgetData drives the widget fragment template.
type WidgetData struct {
	State       State
	Greeting    string
	Temperature string
	Condition   string
	WindSpeed   string
	Location    string
	Unit        string
}

// PageData drives the full page template.
type PageData struct {
	Location        string
	PollIntervalSec int
}

const widgetTemplate = `{{if eq .State "loading"}}<p class="loading">Loading weather&hellip;</p>
{{else if eq .State "unavailable"}}<p class="unavailable">Weather is currently unavailable.</p>
{{else}}<div class="weather" data-unit="{{.Unit}}">
  <p class="greeting">{{.Greeting}}</p>
  <p class="conditions"><span id="temp-text">{{.Temperature}}</span> and {{.Condition}}</p>
  <p class="wind">Wind: {{.WindSpeed}}</p>
  <p class="location">{{.Location}}</p>
</div>
{{end}}`

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Weather</title>
  <style>
    body { font-family: sans-serif; max-width: 24rem; margin: 4rem auto; }
    #weather-display .loading, #weather-display .unavailable { color: #888; }
    #temp-text { cursor: pointer; text-decoration: underline dotted; }
  </style>
</head>
<body>
  <div id="weather-display"><p class="loading">Loading weather&hellip;</p></div>
  <script>
    const display = document.getElementById('weather-display');
    async function refresh() {
      const resp = await fetch('/widget');
      if (resp.ok) { display.innerHTML = await resp.text(); }
    }
    display.addEventListener('click', async (ev) => {
      if (ev.target.id !== 'temp-text') { return; }
      const resp = await fetch('/widget/toggle', {method: 'POST'});
      if (resp.ok) { ev.target.textContent = await resp.text(); }
    });
    refresh();
    setInterval(refresh, {{.PollIntervalSec}} * 1000);
  </script>
</body>
</html>
`

// Renderer renders widget HTML from parsed templates.
type Renderer struct {
	widget *template.Template
	page   *template.Template
}

// New parses the templates. Panics on a malformed template, which is a
// programming error.
func New() *Renderer {
	return &Renderer{
		widget: template.Must(template.New("widget").Parse(widgetTemplate)),
		page:   template.Must(template.New("page").Parse(pageTemplate)),
	}
}

// Widget writes the container's current HTML for the given state.
func (r *Renderer) Widget(w io.Writer, d WidgetData) error {
	return r.widget.Execute(w, d)
}

// Page writes the full page embedding the weather-display container.
func (r *Renderer) Page(w io.Writer, d PageData) error {
	return r.page.Execute(w, d)
}

// BuildWidget maps the record's state onto WidgetData. ok reports whether
// the record has ever been populated; failed whether the last fetch errored.
// An unpopulated record renders Loading until a fetch has actually failed.
func BuildWidget(view record.View, ok, failed, fahrenheit bool, location string) WidgetData {
	if !ok {
		if failed {
			return WidgetData{State: StateUnavailable}
		}
		return WidgetData{State: StateLoading}
	}
	unit := "C"
	if fahrenheit {
		unit = "F"
	}
	return WidgetData{
		State:       StateReady,
		Greeting:    Greeting(view.IsDaytime),
		Temperature: TemperatureText(view, fahrenheit),
		Condition:   view.ShortForecast,
		WindSpeed:   view.WindSpeed,
		Location:    location,
		Unit:        unit,
	}
}

// TemperatureText formats the temperature for the selected unit. This is the
// only text the toggle rewrites in place.
func TemperatureText(view record.View, fahrenheit bool) string {
	if fahrenheit {
		return fmt.Sprintf("%d°F", view.TemperatureF)
	}
	return fmt.Sprintf("%d°C", view.TemperatureC())
}

// Greeting picks the greeting line from the daytime flag.
func Greeting(isDaytime bool) string {
	if isDaytime {
		return "Good day!"
	}
	return "Good evening!"
}
