package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tokengate/tokengate/internal/auth"
	"github.com/tokengate/tokengate/internal/codec"
	"github.com/tokengate/tokengate/internal/config"
	"github.com/tokengate/tokengate/internal/database"
	"github.com/tokengate/tokengate/internal/handler"
	"github.com/tokengate/tokengate/internal/logger"
	"github.com/tokengate/tokengate/internal/middleware"
	"github.com/tokengate/tokengate/internal/router"
	"github.com/tokengate/tokengate/internal/service"
	"github.com/tokengate/tokengate/internal/slot"
	"github.com/tokengate/tokengate/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("version", "0.1.0").Msg("starting tokengate server")

	// Connect backends for the configured slot
	var (
		rdb *database.Redis
		db  *database.Postgres
		sl  slot.Slot
	)

	switch cfg.Store.Backend {
	case "redis":
		rdb, err = database.NewRedis(cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer rdb.Close()
		log.Info().Msg("connected to Redis")
		sl = slot.NewRedis(rdb, cfg.Store.RedisKey)
	case "postgres":
		db, err = database.NewPostgres(cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()
		log.Info().Msg("connected to PostgreSQL")
		sl = slot.NewPostgres(db)
	case "file":
		sl = slot.NewFile(cfg.Store.FilePath)
	default:
		log.Fatal().Str("backend", cfg.Store.Backend).Msg("unknown store backend")
	}

	// Rate limiting rides on Redis even when the slot lives elsewhere
	if rdb == nil && cfg.Security.RateLimiting.Enabled {
		rdb, err = database.NewRedis(cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, rate limiting disabled")
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	// Initialize the token store
	st := store.New(codec.Default(), sl, log)
	st.Load(context.Background())
	log.Info().Int("tokens", st.Count()).Msg("token store loaded")

	// Initialize services
	tokenSvc := service.NewTokenService(st, cfg.Store, log)
	backupSvc := service.NewBackupService(tokenSvc, st, codec.Default(), cfg.Backup, log)

	// Initialize admin sessions
	sessions, err := auth.NewAdminSessions(cfg.Security.Admin)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize admin sessions")
	}
	if cfg.Security.Admin.PasswordHash == "" {
		log.Warn().Msg("no admin password configured, admin API disabled")
	}

	// Initialize handlers and middleware
	h := handler.New(log, cfg, tokenSvc, backupSvc, sessions, rdb, db)
	mw := middleware.New(rdb, log, cfg)

	// Set up router
	r := router.New(h, mw, sessions)

	// Create HTTP server
	addr := cfg.Server.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("server stopped")
}
