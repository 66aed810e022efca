package prefs

import (
	"context"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

const keyPrefix = "weather-widget:"

// MemcachedStore implements Store on memcached. Useful when several widget
// instances should share one preference; note memcached does not survive a
// server restart the way FileStore does.
type MemcachedStore struct {
	client *memcache.Client
}

// NewMemcachedStore creates a MemcachedStore. addrs is a comma-separated
// list (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and
// maxIdleConns use package defaults when zero.
func NewMemcachedStore(addrs string, timeout time.Duration, maxIdleConns int) (*MemcachedStore, error) {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return &MemcachedStore{client: client}, nil
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// Get implements Store.Get. A cache miss reports ok=false, nil.
func (s *MemcachedStore) Get(ctx context.Context) (bool, bool, error) {
	if ctx.Err() != nil {
		return false, false, ctx.Err()
	}
	item, err := s.client.Get(keyPrefix + key)
	if err != nil {
		if err == memcache.ErrCacheMiss {
			return false, false, nil
		}
		return false, false, err
	}
	value, ok := decode(string(item.Value))
	return value, ok, nil
}

// Set implements Store.Set. The preference never expires.
func (s *MemcachedStore) Set(ctx context.Context, fahrenheit bool) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return s.client.Set(&memcache.Item{
		Key:   keyPrefix + key,
		Value: []byte(encode(fahrenheit)),
	})
}

// Ping checks if memcached is reachable. Used for health checks.
func (s *MemcachedStore) Ping() error {
	return s.client.Ping()
}

// Close closes the memcached client connections. Call during shutdown.
func (s *MemcachedStore) Close() error {
	return s.client.Close()
}
