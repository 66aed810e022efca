package http

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tbaldwin/weather-widget/internal/lifecycle"
	"github.com/tbaldwin/weather-widget/internal/observability"
	"github.com/tbaldwin/weather-widget/internal/prefs"
	"github.com/tbaldwin/weather-widget/internal/record"
	"github.com/tbaldwin/weather-widget/internal/render"
)

// Handler serves the widget page, the weather-display fragment, and the unit
// toggle. It owns the in-memory unit preference: read once at startup,
// flipped on each toggle, written back to the store synchronously.
type Handler struct {
	rec      *record.Record // nil when the startup points lookup failed
	store    prefs.Store
	renderer *render.Renderer
	logger   *zap.Logger
	location string
	pollSec  int

	// PrefsPing, when set, is called by the health handler to check
	// preference-store reachability. Used when the backend is memcached.
	PrefsPing func() error

	mu         sync.Mutex
	fahrenheit bool
}

// NewHandler returns a Handler. fahrenheit is the preference loaded at
// startup (the default applies when the store had no value). rec may be nil;
// the widget then stays in the loading state.
func NewHandler(rec *record.Record, store prefs.Store, renderer *render.Renderer, logger *zap.Logger, location string, pollInterval time.Duration, fahrenheit bool) *Handler {
	pollSec := int(pollInterval.Seconds())
	if pollSec <= 0 {
		pollSec = 60
	}
	return &Handler{
		rec:        rec,
		store:      store,
		renderer:   renderer,
		logger:     logger,
		location:   location,
		pollSec:    pollSec,
		fahrenheit: fahrenheit,
	}
}

// GetIndex handles GET /.
func (h *Handler) GetIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := render.PageData{
		Location:        h.location,
		PollIntervalSec: h.pollSec,
	}
	if err := h.renderer.Page(w, data); err != nil {
		h.logger.Error("render page", zap.Error(err))
	}
}

// GetWidget handles GET /widget: the weather-display container's current
// HTML. Upstream failures never surface here as errors; the fragment shows
// loading or unavailable instead.
func (h *Handler) GetWidget(w http.ResponseWriter, r *http.Request) {
	view, ok, failed := h.snapshot()

	h.mu.Lock()
	fahrenheit := h.fahrenheit
	h.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := render.BuildWidget(view, ok, failed, fahrenheit, h.location)
	if err := h.renderer.Widget(w, data); err != nil {
		h.logger.Error("render widget", zap.Error(err))
	}
}

// PostToggle handles POST /widget/toggle. It flips the unit preference,
// persists it, and returns only the new temperature text. Toggling is
// rejected while no record is rendered so a click can never target absent
// data.
func (h *Handler) PostToggle(w http.ResponseWriter, r *http.Request) {
	view, ok, _ := h.snapshot()
	if !ok {
		writeError(w, http.StatusConflict, "NO_RECORD", "no weather record is rendered")
		return
	}

	h.mu.Lock()
	before := h.fahrenheit
	h.fahrenheit = !h.fahrenheit
	after := h.fahrenheit
	h.mu.Unlock()

	if err := h.store.Set(r.Context(), after); err != nil {
		// Persistence failure keeps the in-memory flip; the preference just
		// won't survive a restart.
		observability.PrefStoreErrorsTotal.WithLabelValues("set").Inc()
		h.logger.Warn("persist unit preference", zap.Error(err))
	}

	unit := "C"
	if after {
		unit = "F"
	}
	observability.UnitTogglesTotal.WithLabelValues(unit).Inc()
	h.logger.Info("unit preference toggled",
		zap.Bool("fahrenheit_before", before),
		zap.Bool("fahrenheit_after", after))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(render.TemperatureText(view, after)))
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	statusCode := http.StatusOK
	if lifecycle.IsShuttingDown() {
		status = "shutting-down"
		statusCode = http.StatusServiceUnavailable
	}

	checks := make(map[string]string)
	_, ok, failed := h.snapshot()
	switch {
	case ok:
		checks["record"] = "ready"
	case failed:
		checks["record"] = "unavailable"
	default:
		checks["record"] = "loading"
	}
	if h.PrefsPing != nil {
		if h.PrefsPing() == nil {
			checks["prefs"] = "healthy"
		} else {
			checks["prefs"] = "unhealthy"
		}
	}

	resp := map[string]interface{}{
		"status":    status,
		"service":   "weather-widget",
		"checks":    checks,
		"uptime":    lifecycle.Uptime().Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// snapshot reads the record state, tolerating the nil record left behind by
// a failed startup lookup.
func (h *Handler) snapshot() (record.View, bool, bool) {
	if h.rec == nil {
		return record.View{}, false, false
	}
	view, ok := h.rec.Snapshot()
	return view, ok, h.rec.LastError() != nil
}

// writeError writes a JSON error body with a stable code.
func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}
