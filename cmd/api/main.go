package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"orderdesk/internal/config"
	"orderdesk/internal/db"
	"orderdesk/internal/httpserver"
	"orderdesk/internal/metrics"
	"orderdesk/internal/migrate"
	submissionrepo "orderdesk/internal/repository/submission"
	"orderdesk/internal/service/sessions"
	"orderdesk/internal/service/workflow"
	"orderdesk/internal/tablecrm"
)

func main() {
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var (
		dbpool  *pgxpool.Pool
		journal submissionrepo.Repository
	)
	if cfg.DBConnString != "" {
		dbpool, err = db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			logger.Fatalf("connect to db: %v", err)
		}
		defer dbpool.Close()
		if err := migrate.Apply(ctx, dbpool); err != nil {
			logger.Fatalf("apply migrations: %v", err)
		}
		journal = submissionrepo.NewPostgres(dbpool, logger)
	} else {
		logger.Printf("DB_DSN not set, submission journal disabled")
	}

	m := metrics.New("orderdesk")
	client := tablecrm.NewClient(cfg.BaseURL, tablecrm.Options{Timeout: cfg.RemoteTimeout}, logger)
	registry := sessions.NewRegistry(func(id string, creds *tablecrm.Credentials) *workflow.Session {
		deps := workflow.Deps{Metrics: m, Logger: logger, DefaultUnit: cfg.DefaultUnit}
		if journal != nil {
			deps.Journal = journal
		}
		return workflow.New(id, tablecrm.NewCatalog(client.Bind(creds), cfg.PageLimit), creds, deps)
	}, cfg.SessionTTL, m, logger)
	go registry.Run(ctx, time.Minute)

	deps := httpserver.Deps{Sessions: registry, Metrics: m, CORSOrigins: cfg.CORSOrigins}
	if journal != nil {
		deps.Journal = journal
	}
	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, deps)
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
