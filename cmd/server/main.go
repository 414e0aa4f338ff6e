/*
main.go - Application entry point

STARTUP SEQUENCE:
  1. Load configuration from the environment (.env honored)
  2. Initialize the structured logger
  3. Open the configured store (memory, sqlite, or postgres)
  4. Build the auth service, allocation engine, and router
  5. Serve with graceful shutdown on SIGINT/SIGTERM

CONFIGURATION (environment):
  APP_ADDR      listen address (default :8080)
  STORE_DRIVER  memory | sqlite | postgres (default sqlite)
  SQLITE_PATH   database file for the sqlite driver
  DATABASE_URL  DSN for the postgres driver
  JWT_SECRET    session signing secret (required)
  CYCLE_DAYS, SICK_QUOTA, CASUAL_QUOTA, PUBLIC_QUOTA
                quota-cycle tuning

SEE ALSO:
  - config/config.go: Full variable list and defaults
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bybuy30/leave-tracker/api"
	"github.com/bybuy30/leave-tracker/auth"
	"github.com/bybuy30/leave-tracker/config"
	"github.com/bybuy30/leave-tracker/engine"
	"github.com/bybuy30/leave-tracker/ledger"
	"github.com/bybuy30/leave-tracker/logger"
	"github.com/bybuy30/leave-tracker/store/memory"
	"github.com/bybuy30/leave-tracker/store/postgres"
	"github.com/bybuy30/leave-tracker/store/sqlite"
)

func main() {
	cfg := config.Load()
	log := logger.Init(cfg.LogFile, cfg.LogLevel)

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	var (
		empStore   ledger.EmployeeStore
		adminStore auth.AdminStore
		closeStore func()
	)
	switch cfg.StoreDriver {
	case "memory":
		s := memory.New()
		empStore, adminStore = s, s
		closeStore = func() {}
	case "sqlite":
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open sqlite store")
		}
		empStore, adminStore = s, s
		closeStore = func() { s.Close() }
	case "postgres":
		s, err := postgres.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open postgres store")
		}
		empStore, adminStore = s, s
		closeStore = func() { s.Close() }
	default:
		log.Fatal().Str("driver", cfg.StoreDriver).Msg("unknown store driver")
	}
	defer closeStore()

	authSvc := auth.NewService(adminStore, cfg.JWTSecret, cfg.TokenTTL)
	eng := engine.New(empStore, cfg.Quotas(), cfg.CyclePolicy(), engine.WithLogger(log))
	handler := api.NewHandler(empStore, authSvc, eng, cfg.Quotas(), log)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("store", cfg.StoreDriver).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
