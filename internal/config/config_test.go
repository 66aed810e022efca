package config

import (
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
location:
  latitude: 38.8894
  longitude: -77.0352
`

// TestParse_Defaults verifies defaults apply when the file only carries the
// required location.
func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.RefreshInterval != 5*time.Minute {
		t.Errorf("RefreshInterval = %v, want 5m", cfg.RefreshInterval)
	}
	if cfg.NWSTimeout != 10*time.Second {
		t.Errorf("NWSTimeout = %v, want 10s", cfg.NWSTimeout)
	}
	if cfg.PrefsBackend != "file" {
		t.Errorf("PrefsBackend = %q, want file", cfg.PrefsBackend)
	}
	if cfg.LocationName != "38.8894, -77.0352" {
		t.Errorf("LocationName = %q, want formatted coordinates", cfg.LocationName)
	}
	if cfg.NWSUserAgent == "" {
		t.Error("NWSUserAgent is empty, want default")
	}
}

// TestParse_FullFile verifies explicit values win over defaults.
func TestParse_FullFile(t *testing.T) {
	yaml := `
server:
  port: "9090"
location:
  latitude: 47.6062
  longitude: -122.3321
  name: "Seattle, WA"
nws:
  base_url: "https://nws.example.test"
  user_agent: "widget-test/1.0"
  timeout: 3s
refresh:
  interval: 2m
prefs:
  backend: memcached
  memcached:
    addrs: "cache1:11211,cache2:11211"
    timeout: 250ms
    max_idle_conns: 4
reliability:
  rate_limit_rps: 5
  rate_limit_burst: 10
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.ServerPort != "9090" || cfg.LocationName != "Seattle, WA" {
		t.Errorf("server/location = %q/%q", cfg.ServerPort, cfg.LocationName)
	}
	if cfg.NWSBaseURL != "https://nws.example.test" || cfg.NWSTimeout != 3*time.Second {
		t.Errorf("nws = %q/%v", cfg.NWSBaseURL, cfg.NWSTimeout)
	}
	if cfg.RefreshInterval != 2*time.Minute {
		t.Errorf("RefreshInterval = %v, want 2m", cfg.RefreshInterval)
	}
	if cfg.PrefsBackend != "memcached" || cfg.MemcachedAddrs != "cache1:11211,cache2:11211" {
		t.Errorf("prefs = %q/%q", cfg.PrefsBackend, cfg.MemcachedAddrs)
	}
	if cfg.RateLimitRPS != 5 || cfg.RateLimitBurst != 10 {
		t.Errorf("rate limit = %d/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

// TestParse_MissingLocation verifies the location is required.
func TestParse_MissingLocation(t *testing.T) {
	_, err := Parse([]byte(`server: {port: "8080"}`))
	if err == nil || !strings.Contains(err.Error(), "location") {
		t.Fatalf("Parse() error = %v, want missing-location error", err)
	}
}

// TestParse_InvalidCoordinates verifies out-of-range coordinates are
// rejected.
func TestParse_InvalidCoordinates(t *testing.T) {
	tests := []string{
		"location: {latitude: 91, longitude: 0}",
		"location: {latitude: 0, longitude: 181}",
		"location: {latitude: -91, longitude: 0}",
	}
	for _, yaml := range tests {
		if _, err := Parse([]byte(yaml)); err == nil {
			t.Errorf("Parse(%q) error = nil, want range error", yaml)
		}
	}
}

// TestParse_InvalidPrefsBackend verifies unknown backends are rejected.
func TestParse_InvalidPrefsBackend(t *testing.T) {
	yaml := minimalYAML + "prefs: {backend: redis}\n"
	if _, err := Parse([]byte(yaml)); err == nil || !strings.Contains(err.Error(), "prefs.backend") {
		t.Fatalf("Parse() error = %v, want backend error", err)
	}
}

// TestParse_EnvOverrides verifies env variables override the file.
func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("PREFS_BACKEND", "in_memory")
	t.Setenv("NWS_USER_AGENT", "env-agent/1.0")

	cfg, err := Parse([]byte(minimalYAML + "server: {port: \"8080\"}\nprefs: {backend: file}\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.ServerPort != "7070" {
		t.Errorf("ServerPort = %q, want env override 7070", cfg.ServerPort)
	}
	if cfg.PrefsBackend != "in_memory" {
		t.Errorf("PrefsBackend = %q, want env override in_memory", cfg.PrefsBackend)
	}
	if cfg.NWSUserAgent != "env-agent/1.0" {
		t.Errorf("NWSUserAgent = %q, want env override", cfg.NWSUserAgent)
	}
}

// TestParse_BadDurationFallsBack verifies malformed durations fall back to
// defaults rather than failing startup.
func TestParse_BadDurationFallsBack(t *testing.T) {
	yaml := minimalYAML + "refresh: {interval: nonsense}\n"
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.RefreshInterval != 5*time.Minute {
		t.Errorf("RefreshInterval = %v, want default 5m", cfg.RefreshInterval)
	}
}
