package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tbaldwin/weather-widget/internal/config"
	httphandler "github.com/tbaldwin/weather-widget/internal/http"
	"github.com/tbaldwin/weather-widget/internal/lifecycle"
	"github.com/tbaldwin/weather-widget/internal/nws"
	"github.com/tbaldwin/weather-widget/internal/observability"
	"github.com/tbaldwin/weather-widget/internal/prefs"
	"github.com/tbaldwin/weather-widget/internal/record"
	"github.com/tbaldwin/weather-widget/internal/render"
	"github.com/tbaldwin/weather-widget/internal/scheduler"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	client := nws.NewClient(cfg.NWSBaseURL, cfg.NWSUserAgent, cfg.NWSTimeout)

	// Resolve the fixed location to its hourly-forecast URL and take the
	// first observation. Either step may fail; the widget then serves its
	// loading state and the scheduler keeps trying (once a record exists).
	var rec *record.Record
	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	hourlyURL, err := client.ResolveHourlyForecastURL(startCtx, cfg.Latitude, cfg.Longitude)
	if err != nil {
		logger.Error("resolve hourly forecast url", zap.Error(err),
			zap.Float64("latitude", cfg.Latitude), zap.Float64("longitude", cfg.Longitude))
	} else {
		rec = record.New(client, hourlyURL)
		if err := rec.Refresh(startCtx); err != nil {
			observability.RefreshTotal.WithLabelValues("error").Inc()
			logger.Error("initial weather fetch", zap.Error(err))
		} else {
			observability.RefreshTotal.WithLabelValues("success").Inc()
			logger.Info("initial weather fetched", zap.String("source", hourlyURL))
			logger.Debug(rec.Describe())
		}
	}
	startCancel()

	var store prefs.Store
	var memcacheCloser *prefs.MemcachedStore
	switch cfg.PrefsBackend {
	case "memcached":
		mc, err := prefs.NewMemcachedStore(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached prefs store", zap.Error(err))
		}
		memcacheCloser = mc
		store = mc
		logger.Info("prefs backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	case "file":
		fs, err := prefs.NewFileStore(cfg.PrefsFilePath)
		if err != nil {
			logger.Fatal("file prefs store", zap.Error(err))
		}
		store = fs
		logger.Info("prefs backend: file", zap.String("path", cfg.PrefsFilePath))
	default:
		store = prefs.NewInMemoryStore()
		logger.Info("prefs backend: in_memory")
	}

	// Read the persisted unit preference once; absent means Fahrenheit.
	fahrenheit := true
	prefCtx, prefCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if v, ok, err := store.Get(prefCtx); err != nil {
		observability.PrefStoreErrorsTotal.WithLabelValues("get").Inc()
		logger.Warn("read unit preference", zap.Error(err))
	} else if ok {
		fahrenheit = v
	}
	prefCancel()

	handler := httphandler.NewHandler(rec, store, render.New(), logger, cfg.LocationName, cfg.RefreshInterval, fahrenheit)
	if memcacheCloser != nil {
		handler.PrefsPing = memcacheCloser.Ping
	}

	var sched *scheduler.Scheduler
	if rec != nil {
		sched = scheduler.New(rec, cfg.RefreshInterval, cfg.NWSTimeout, logger)
		if err := sched.Start(); err != nil {
			logger.Fatal("scheduler", zap.Error(err))
		}
	} else {
		logger.Warn("no weather record; scheduler not started, widget stays in loading state")
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	router := mux.NewRouter()
	router.Use(httphandler.CorrelationIDMiddleware(logger))
	router.Use(httphandler.MetricsMiddleware)
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())
	widgetRouter := router.PathPrefix("/").Subrouter()
	widgetRouter.Use(httphandler.RateLimitMiddleware(limiter))
	widgetRouter.Use(httphandler.TimeoutMiddleware(cfg.RequestTimeout))
	widgetRouter.HandleFunc("/", handler.GetIndex).Methods("GET")
	widgetRouter.HandleFunc("/widget", handler.GetWidget).Methods("GET")
	widgetRouter.HandleFunc("/widget/toggle", handler.PostToggle).Methods("POST")

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
