package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jacobreesgit/musicmemory/internal/charts"
	"github.com/jacobreesgit/musicmemory/internal/config"
	"github.com/jacobreesgit/musicmemory/internal/constants"
	"github.com/jacobreesgit/musicmemory/internal/httpapi"
	"github.com/jacobreesgit/musicmemory/internal/library"
	"github.com/jacobreesgit/musicmemory/internal/logger"
	"github.com/jacobreesgit/musicmemory/internal/player"
	"github.com/jacobreesgit/musicmemory/internal/store"
	"github.com/jacobreesgit/musicmemory/internal/watcher"
	"github.com/jacobreesgit/musicmemory/internal/worker"
)

func main() {
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize Logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// Initialize DB
	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to init DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	settingsRepo := store.NewSettingsRepo(db)

	// Close sessions a previous run left open.
	if stale, err := db.OpenSessions(); err == nil {
		for _, s := range stale {
			if err := db.CloseSession(s.ID, time.Now()); err != nil {
				appLogger.Error("Failed to close stale session", "session_id", s.ID, "error", err)
			}
		}
		if len(stale) > 0 {
			appLogger.Info("Closed stale sessions", "count", len(stale))
		}
	}

	// Playback tracking
	sessions := watcher.NewSessionContext(db, cfg.SessionIdleGap, appLogger)
	clock := player.NewRemoteClock()
	playWatcher := watcher.New(clock, db, sessions, cfg.PollInterval, appLogger)
	playWatcher.OnPlayLogged(func(trackID string, completion float64, naturalEnd bool) {
		appLogger.WithComponent("plays").Info("Play logged",
			"track_id", trackID,
			"completion", completion,
			"natural_end", naturalEnd)
	})

	watcherCtx, stopWatcher := context.WithCancel(context.Background())
	defer stopWatcher()
	go playWatcher.Run(watcherCtx)

	// Charts
	chartService := charts.NewService(db, cfg.ChartCacheTTL, cfg.MaxRangeDays, appLogger)

	// Library scanner
	scanner := library.NewScanner(cfg.LibraryDir, cfg.ArtworkDir, db, appLogger)

	// Initialize Worker
	w := worker.New(db, sessions, settingsRepo, constants.DefaultRollupInterval, appLogger)
	w.Start()
	defer w.Stop()

	// Initialize Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Routes
	h := httpapi.NewHandler(clock, playWatcher, sessions, chartService, db, scanner, settingsRepo)
	h.RegisterRoutes(r)

	// Start Server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stopWatcher()
	sessions.Close(time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
