package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ValentinKolb/mKV/lib/db"
	"github.com/ValentinKolb/mKV/lib/db/engines/bolt"
	"github.com/ValentinKolb/mKV/lib/db/engines/memory"
	"github.com/ValentinKolb/mKV/lib/store"
	"github.com/ValentinKolb/mKV/lib/store/lstore"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("rpc/server")

const (
	settingsFile    = "settings.db"
	shutdownTimeout = 5 * time.Second
)

// NewStore creates the store.IStore selected by config.Engine.
func NewStore(config common.ServerConfig) (store.IStore, error) {
	var factory store.DBFactory

	switch config.Engine {
	case common.EngineMemory, "":
		factory = func() (db.KVDB, error) { return memory.NewMemoryDB(), nil }
	case common.EngineBolt:
		if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		path := filepath.Join(config.DataDir, settingsFile)
		factory = func() (db.KVDB, error) { return bolt.NewBoltDB(path, bolt.DefaultOptions()) }
	default:
		return nil, fmt.Errorf("invalid engine: %s. must be one of %s, %s", config.Engine, common.EngineMemory, common.EngineBolt)
	}

	return lstore.NewLocalStore(factory)
}

// SettingsServer serves the settings HTTP contract on top of a store.IStore.
//
// Usage:
//
//	s, err := server.NewSettingsServer(config, nil)
//	if err != nil {
//		return err
//	}
//	return s.Serve(ctx)
type SettingsServer struct {
	config  common.ServerConfig
	store   store.IStore
	adapter *settingsAdapter
}

// NewSettingsServer creates a server for config. If settings is nil the store
// is created with NewStore and closed by Serve.
func NewSettingsServer(config common.ServerConfig, settings store.IStore) (*SettingsServer, error) {
	if settings == nil {
		var err error
		if settings, err = NewStore(config); err != nil {
			return nil, err
		}
	}

	Logger.Infof("Created settings server")
	Logger.Infof(config.String())

	return &SettingsServer{
		config:  config,
		store:   settings,
		adapter: &settingsAdapter{store: settings},
	}, nil
}

// Handler returns the routes of the server:
//
//	GET  /settings?keys=<key>[&keys=<key>...]
//	POST /settings {"key": "...", "value": ...}
//	GET  /metrics
func (s *SettingsServer) Handler() http.Handler {
	auth := newAuthenticator(s.config.AuthSecret)

	var wrap func(http.HandlerFunc) http.HandlerFunc
	if s.config.LogLevel == "debug" {
		wrap = func(h http.HandlerFunc) http.HandlerFunc { return loggerMiddleware(auth.middleware(h)) }
	} else {
		wrap = auth.middleware
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /settings", wrap(s.adapter.handleGet))
	mux.HandleFunc("POST /settings", wrap(s.adapter.handlePost))
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	return mux
}

// Serve listens on config.Endpoint until ctx is done, then shuts down
// gracefully and closes the store.
func (s *SettingsServer) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Endpoint,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		Logger.Infof("Starting HTTP server on %s", s.config.Endpoint)
		errCh <- srv.ListenAndServe()
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		Logger.Infof("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err = srv.Shutdown(shutdownCtx)
		cancel()
	}

	if closeErr := s.store.Close(); closeErr != nil {
		Logger.Errorf("failed to close settings store: %v", closeErr)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// --------------------------------------------------------------------------
// Middleware (logging)
// --------------------------------------------------------------------------

// responseWriter is a custom ResponseWriter that captures status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// loggerMiddleware is a middleware that logs HTTP requests
func loggerMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		Logger.Debugf("%s %s => %d took %s", r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	}
}
