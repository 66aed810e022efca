package render

import (
	"strings"
	"testing"
	"time"

	"github.com/tbaldwin/weather-widget/internal/record"
)

func testView() record.View {
	return record.View{
		UpdatedAt:     time.Now(),
		IsDaytime:     true,
		TemperatureF:  57,
		WindSpeed:     "10 mph",
		ShortForecast: "Partly Cloudy",
	}
}

func renderWidget(t *testing.T, d WidgetData) string {
	t.Helper()
	var sb strings.Builder
	if err := New().Widget(&sb, d); err != nil {
		t.Fatalf("Widget() error = %v", err)
	}
	return sb.String()
}

// TestWidget_Loading verifies the loading state shows the fixed placeholder
// and no toggle target.
func TestWidget_Loading(t *testing.T) {
	out := renderWidget(t, WidgetData{State: StateLoading})
	if !strings.Contains(out, "Loading weather") {
		t.Errorf("loading output = %q, want placeholder text", out)
	}
	if strings.Contains(out, "temp-text") {
		t.Error("loading output contains a toggle target; clicks must have nothing to hit")
	}
}

// TestWidget_Unavailable verifies the unavailable state shows its fixed
// message without leaking error detail.
func TestWidget_Unavailable(t *testing.T) {
	out := renderWidget(t, WidgetData{State: StateUnavailable})
	if !strings.Contains(out, "currently unavailable") {
		t.Errorf("unavailable output = %q, want fixed message", out)
	}
	if strings.Contains(out, "temp-text") {
		t.Error("unavailable output contains a toggle target")
	}
}

// TestWidget_Ready verifies the rendered layout: greeting, temperature plus
// condition, wind, location, and no residual loading text.
func TestWidget_Ready(t *testing.T) {
	d := BuildWidget(testView(), true, false, true, "Washington, DC")
	out := renderWidget(t, d)

	for _, want := range []string{"Good day!", `id="temp-text"`, "57°F", "Partly Cloudy", "Wind: 10 mph", "Washington, DC", `data-unit="F"`} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Loading weather") {
		t.Error("rendered output contains residual loading text")
	}
	if strings.Count(out, "temp-text") != 1 {
		t.Errorf("rendered output has %d toggle targets, want exactly 1", strings.Count(out, "temp-text"))
	}
}

// TestWidget_ReadyCelsius verifies the Celsius rendering derives from the
// stored Fahrenheit value.
func TestWidget_ReadyCelsius(t *testing.T) {
	d := BuildWidget(testView(), true, false, false, "Washington, DC")
	out := renderWidget(t, d)
	if !strings.Contains(out, "14°C") {
		t.Errorf("rendered output = %q, want 14°C", out)
	}
	if !strings.Contains(out, `data-unit="C"`) {
		t.Error("rendered output missing data-unit=\"C\"")
	}
}

// TestBuildWidget_StateMapping verifies the record state maps onto display
// states: never populated renders loading until a fetch has failed.
func TestBuildWidget_StateMapping(t *testing.T) {
	tests := []struct {
		name   string
		ok     bool
		failed bool
		want   State
	}{
		{"no data, no failure yet", false, false, StateLoading},
		{"no data, fetch failed", false, true, StateUnavailable},
		{"data present", true, false, StateReady},
		{"data present, last refresh failed", true, true, StateReady},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := BuildWidget(testView(), tt.ok, tt.failed, true, "loc")
			if d.State != tt.want {
				t.Errorf("BuildWidget() state = %q, want %q", d.State, tt.want)
			}
		})
	}
}

// TestTemperatureText_ToggleTwiceRestoresOriginal verifies the spec property
// that toggling the unit twice returns the displayed text to its original
// value and unit.
func TestTemperatureText_ToggleTwiceRestoresOriginal(t *testing.T) {
	view := testView()
	original := TemperatureText(view, true)

	toggled := TemperatureText(view, false)
	if toggled == original {
		t.Fatalf("toggle produced identical text %q", toggled)
	}
	if back := TemperatureText(view, true); back != original {
		t.Errorf("toggle twice = %q, want original %q", back, original)
	}
}

// TestGreeting verifies the greeting follows the daytime flag.
func TestGreeting(t *testing.T) {
	if got := Greeting(true); got != "Good day!" {
		t.Errorf("Greeting(true) = %q", got)
	}
	if got := Greeting(false); got != "Good evening!" {
		t.Errorf("Greeting(false) = %q", got)
	}
}

// TestPage verifies the full page embeds the container the fragment endpoint
// owns.
func TestPage(t *testing.T) {
	var sb strings.Builder
	if err := New().Page(&sb, PageData{Location: "Washington, DC", PollIntervalSec: 300}); err != nil {
		t.Fatalf("Page() error = %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, `id="weather-display"`) {
		t.Error("page missing weather-display container")
	}
	if !strings.Contains(out, "/widget/toggle") {
		t.Error("page missing toggle endpoint wiring")
	}
	if !strings.Contains(out, "300") {
		t.Error("page missing poll interval")
	}
}
