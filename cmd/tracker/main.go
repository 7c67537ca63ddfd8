/*
main.go - Application entry point

PURPOSE:
  Command-line front end of the absence ledger. The same binary serves the
  HTTP API and answers one-off questions (stats, reports, holidays) against
  the local ledger.

COMMANDS:
  serve                         Start the HTTP API
  stats [--view DATE]           Per-type statistics
  report YEAR MONTH [--xlsx F]  Monthly report, optionally as a spreadsheet
  holidays YEAR                 Italian public holidays
  backup save|load              Remote backup

CONFIGURATION:
  Settings come from the environment and an optional .env file
  (see config/config.go). --db overrides DB_PATH.

EXAMPLES:
  # Serve on a different port
  PORT=3000 JWT_SECRET=change-me ./tracker serve

  # March report as xlsx
  ./tracker report 2025 3 --xlsx marzo.xlsx

SEE ALSO:
  - serve.go: HTTP server and graceful shutdown
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/warp/absence-ledger/backup"
	"github.com/warp/absence-ledger/config"
	"github.com/warp/absence-ledger/store/sqlite"
	"github.com/warp/absence-ledger/timeoff"
)

// app holds what the subcommands share. Config and logger are ready after
// the root PersistentPreRunE; the store is opened on demand.
type app struct {
	envFile string
	dbPath  string

	cfg    *config.Config
	log    *logrus.Logger
	store  *sqlite.Store
	ledger *timeoff.Ledger
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "tracker",
		Short:         "Personal absence ledger: hours, balances, meal tickets",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	cmd.PersistentFlags().StringVar(&a.envFile, "env", ".env", "Env file to load (missing file is ignored)")
	cmd.PersistentFlags().StringVar(&a.dbPath, "db", "", `SQLite database path, overrides DB_PATH (":memory:" for in-memory)`)

	cmd.AddCommand(
		newServeCmd(a),
		newStatsCmd(a),
		newReportCmd(a),
		newHolidaysCmd(a),
		newBackupCmd(a),
	)
	return cmd
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	a.cfg = cfg
	a.log = cfg.NewLogger()
	return nil
}

// openLedger opens the SQLite store and the ledger on top of it.
func (a *app) openLedger() (*timeoff.Ledger, error) {
	if a.ledger != nil {
		return a.ledger, nil
	}
	store, err := sqlite.New(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", a.cfg.DBPath, err)
	}
	a.store = store
	a.ledger = timeoff.NewLedger(store, a.log)
	a.log.WithField("db", a.cfg.DBPath).Debug("database opened")
	return a.ledger, nil
}

// openBackup connects to the configured remote. The returned close func
// releases the connection pool.
func (a *app) openBackup(ctx context.Context, ledger *timeoff.Ledger) (*backup.Service, func(), error) {
	if !a.cfg.BackupEnabled() {
		return nil, nil, fmt.Errorf("backup: BACKUP_DATABASE_URL is not set")
	}
	remote, err := backup.NewPostgres(ctx, a.cfg.BackupDatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return backup.NewService(ledger, remote, a.log), remote.Close, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.WithError(err).Warn("closing database")
		}
		a.store = nil
		a.ledger = nil
	}
}
