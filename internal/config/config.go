package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	// The one fixed location the widget tracks.
	Latitude     float64
	Longitude    float64
	LocationName string

	NWSBaseURL   string
	NWSUserAgent string
	NWSTimeout   time.Duration

	RefreshInterval time.Duration
	RequestTimeout  time.Duration

	PrefsBackend          string // "in_memory", "file", or "memcached"
	PrefsFilePath         string
	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Location struct {
		Latitude  *float64 `yaml:"latitude"`
		Longitude *float64 `yaml:"longitude"`
		Name      string   `yaml:"name"`
	} `yaml:"location"`

	NWS struct {
		BaseURL   string `yaml:"base_url"`
		UserAgent string `yaml:"user_agent"`
		Timeout   string `yaml:"timeout"`
	} `yaml:"nws"`

	Refresh struct {
		Interval string `yaml:"interval"`
	} `yaml:"refresh"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Prefs struct {
		Backend   string `yaml:"backend"`
		FilePath  string `yaml:"file_path"`
		Memcached struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"prefs"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev), after
// loading a .env file if one exists. A handful of env variables override the
// file (PORT, NWS_USER_AGENT, PREFS_BACKEND, MEMCACHED_ADDRS). Call from
// project root.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

// Parse builds a Config from raw YAML, applying env overrides, defaults, and
// validation.
func Parse(data []byte) (*Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = os.Getenv("PORT")
	if cfg.ServerPort == "" {
		cfg.ServerPort = fc.Server.Port
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	if fc.Location.Latitude == nil || fc.Location.Longitude == nil {
		return nil, fmt.Errorf("location.latitude and location.longitude are required")
	}
	cfg.Latitude = *fc.Location.Latitude
	cfg.Longitude = *fc.Location.Longitude
	cfg.LocationName = fc.Location.Name
	if cfg.LocationName == "" {
		cfg.LocationName = fmt.Sprintf("%.4f, %.4f", cfg.Latitude, cfg.Longitude)
	}

	cfg.NWSBaseURL = fc.NWS.BaseURL
	cfg.NWSUserAgent = os.Getenv("NWS_USER_AGENT")
	if cfg.NWSUserAgent == "" {
		cfg.NWSUserAgent = fc.NWS.UserAgent
	}
	if cfg.NWSUserAgent == "" {
		cfg.NWSUserAgent = "weather-widget/1.0"
	}
	cfg.NWSTimeout = parseDuration(fc.NWS.Timeout, 10*time.Second)

	cfg.RefreshInterval = parseDuration(fc.Refresh.Interval, 5*time.Minute)
	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 5*time.Second)

	cfg.PrefsBackend = strings.TrimSpace(strings.ToLower(os.Getenv("PREFS_BACKEND")))
	if cfg.PrefsBackend == "" {
		cfg.PrefsBackend = strings.TrimSpace(strings.ToLower(fc.Prefs.Backend))
	}
	if cfg.PrefsBackend == "" {
		cfg.PrefsBackend = "file"
	}
	cfg.PrefsFilePath = fc.Prefs.FilePath
	if cfg.PrefsFilePath == "" {
		cfg.PrefsFilePath = "data/unit-preference"
	}
	cfg.MemcachedAddrs = strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS"))
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = strings.TrimSpace(fc.Prefs.Memcached.Addrs)
	}
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = "localhost:11211"
	}
	cfg.MemcachedTimeout = parseDuration(fc.Prefs.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Prefs.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 20
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 40
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDuration parses a duration string, returning defaultVal on empty
// string, parse error, or a non-positive result.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
func validate(cfg *Config) error {
	if cfg.Latitude < -90 || cfg.Latitude > 90 {
		return fmt.Errorf("location.latitude must be in [-90, 90], got %v", cfg.Latitude)
	}
	if cfg.Longitude < -180 || cfg.Longitude > 180 {
		return fmt.Errorf("location.longitude must be in [-180, 180], got %v", cfg.Longitude)
	}
	switch cfg.PrefsBackend {
	case "in_memory", "file", "memcached":
		// valid
	default:
		return fmt.Errorf("prefs.backend must be in_memory, file, or memcached, got %q", cfg.PrefsBackend)
	}
	return nil
}
