/*
serve.go - HTTP server command

STARTUP SEQUENCE:
  1. Validate serve-only settings (JWT_SECRET)
  2. Open SQLite store and ledger
  3. Connect the backup remote, when configured, and start the scheduler
  4. Configure HTTP router
  5. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the backup scheduler
  4. Close database connections
*/
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/absence-ledger/api"
	"github.com/warp/absence-ledger/auth"
	"github.com/warp/absence-ledger/backup"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	if err := a.cfg.ValidateServe(); err != nil {
		return err
	}

	ledger, err := a.openLedger()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var backupSvc *backup.Service
	if a.cfg.BackupEnabled() {
		svc, closeRemote, err := a.openBackup(ctx, ledger)
		if err != nil {
			return err
		}
		defer closeRemote()
		backupSvc = svc

		scheduler := backup.NewScheduler(backupSvc, a.cfg.BackupInterval, a.log)
		scheduler.Start()
		defer scheduler.Stop()
	} else {
		a.log.Info("backup disabled: BACKUP_DATABASE_URL not set")
	}

	gate := auth.NewGate(a.store, a.cfg.JWTSecret, a.cfg.SessionTTL, a.log)
	handler := api.NewHandler(ledger, gate, backupSvc, a.log)
	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins: a.cfg.CORSOrigins,
		StaticDir:   a.cfg.StaticDir,
	})

	server := &http.Server{
		Addr:         a.cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.log.Info("server stopped")
	return nil
}
