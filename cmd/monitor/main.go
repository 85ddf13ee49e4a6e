package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"scamshield/internal/analyzer"
	"scamshield/internal/capture"
	"scamshield/internal/config"
	"scamshield/internal/engine"
	"scamshield/internal/logger"
	"scamshield/internal/metrics"
	"scamshield/internal/risk"
	"scamshield/internal/scenario"
	"scamshield/internal/types"
	"scamshield/internal/ws"
)

func main() {
	cfg := config.FromEnv()

	log := logger.New()
	log.WithField("service", "scamshield").Info("starting service")

	settings := config.DefaultSettings()
	if cfg.SettingsFile != "" {
		loaded, err := config.LoadSettings(cfg.SettingsFile)
		if err != nil {
			log.WithError(err).Warn("loading settings failed, using defaults")
		} else {
			settings = loaded
		}
	}

	catalog := scenario.BuiltIn()
	if cfg.ScenarioFile != "" {
		log.WithField("scenario_file", cfg.ScenarioFile).Info("loading scenario catalog")
		loaded, err := scenario.Load(cfg.ScenarioFile)
		if err != nil {
			log.WithError(err).Fatal("failed to load scenario catalog")
		}
		catalog = loaded
	}
	log.WithField("scenarios", len(catalog)).Info("scenario catalog ready")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := analyzer.NewClient(cfg.AnalyzerURL)
	m := metrics.New()
	hub := ws.NewHub()
	go hub.Run(ctx)

	monitor := engine.NewMonitor(engine.Config{
		Analyzer:      client,
		Catalog:       catalog,
		Device:        &capture.StreamDevice{Path: cfg.CaptureStreamPath},
		ChunkDuration: time.Duration(settings.ChunkDurationMs) * time.Millisecond,
		Thresholds:    settings.Thresholds,
		Language:      settings.Language,
		Listener:      hub,
		Metrics:       m,
	})

	if cfg.SettingsFile != "" {
		err := config.WatchSettings(ctx, cfg.SettingsFile, func(s config.Settings) {
			if err := monitor.SetThresholds(s.Thresholds); err != nil {
				log.WithError(err).Warn("ignoring reloaded thresholds")
			}
			monitor.SetLanguage(s.Language)
		})
		if err != nil {
			log.WithError(err).Warn("settings hot reload unavailable")
		}
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		logger.New().WithRequest(r).Info("health check")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		reqCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		writeJSON(w, http.StatusOK, struct {
			engine.Status
			AnalyzerUp bool `json:"analyzer_up"`
		}{monitor.Status(), client.CheckHealth(reqCtx)})
	})

	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "start")
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		mode := r.URL.Query().Get("mode")
		var err error
		switch types.MonitoringMode(mode) {
		case types.ModeScripted:
			err = monitor.StartScripted(r.Context())
		case types.ModeLive:
			err = monitor.StartLive(r.Context())
		default:
			http.Error(w, "mode must be scripted or live", http.StatusBadRequest)
			return
		}
		if err != nil {
			reqLog.WithError(err).Warn("start rejected")
			writeJSON(w, startErrorStatus(err), map[string]string{"error": err.Error()})
			return
		}
		reqLog.WithField("mode", mode).Info("monitoring started")
		writeJSON(w, http.StatusOK, map[string]string{"mode": mode})
	})

	mux.HandleFunc("/stop", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		logger.New().WithRequest(r).Info("monitoring stopped via api")
		monitor.Stop()
		writeJSON(w, http.StatusOK, map[string]string{"mode": string(types.ModeIdle)})
	})

	mux.HandleFunc("/thresholds", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var t risk.Thresholds
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		if err := monitor.SetThresholds(t); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, t)
	})

	mux.Handle("/ws", hub)
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server terminated")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	monitor.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown incomplete")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// startErrorStatus maps start failures onto HTTP codes the UI can act on.
func startErrorStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, capture.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, capture.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, capture.ErrDeviceUnavailable):
		return http.StatusFailedDependency
	case errors.Is(err, analyzer.ErrServiceUnavailable), errors.Is(err, analyzer.ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
