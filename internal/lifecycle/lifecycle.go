package lifecycle

import (
	"sync/atomic"
	"time"
)

var (
	shuttingDown atomic.Bool
	startTime    atomic.Int64
)

func init() {
	startTime.Store(time.Now().UnixNano())
}

// SetShuttingDown sets the shutdown flag. Call when SIGTERM/SIGINT received.
// The health handler returns 503 with status shutting-down while true.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown returns true if the process is draining and should not
// receive new traffic.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}

// Uptime returns how long the process has been running.
func Uptime() time.Duration {
	return time.Since(time.Unix(0, startTime.Load()))
}
