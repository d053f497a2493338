// Package cli implements the polydb command tree. Each command opens a
// fresh connection for its one logical operation and closes it on every
// exit path.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/polydb-io/polydb/internal/cli/config"
	"github.com/polydb-io/polydb/pkg/provider"

	_ "github.com/polydb-io/polydb/internal/database/libsql"
	_ "github.com/polydb-io/polydb/internal/database/mongodb"
	_ "github.com/polydb-io/polydb/internal/database/mysql"
	_ "github.com/polydb-io/polydb/internal/database/postgres"
	_ "github.com/polydb-io/polydb/internal/database/redis"
	_ "github.com/polydb-io/polydb/internal/database/sqlite"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "polydb",
		Short:         "Browse, query and edit any database through one interface",
		Long: `polydb speaks SQLite, LibSQL, PostgreSQL, MySQL, MongoDB and Redis
through a single set of commands. Connections come from named profiles in
polydb.yaml or directly from --engine and --dsn.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "config file (default polydb.yaml)")
	root.PersistentFlags().String("conn", "", "connection profile name")
	root.PersistentFlags().String("engine", "", "database engine (sqlite, libsql, postgres, mysql, mongodb, redis)")
	root.PersistentFlags().String("dsn", "", "connection descriptor: file path or URL")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().String("format", "table", "output format: table, json, csv")

	root.AddCommand(
		newTablesCmd(),
		newRowsCmd(),
		newCountCmd(),
		newQueryCmd(),
		newUpdateCmd(),
		newExportCmd(),
		newImportCmd(),
		newEnginesCmd(),
	)
	return root
}

// Execute runs the command tree.
func Execute() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig merges file, environment and flag configuration and wires the
// logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	setupLogger(cfg.LogLevel)
	return cfg, nil
}

func setupLogger(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

// withConnection resolves the selected profile, opens a connection, runs fn
// and closes the connection on every path.
func withConnection(cmd *cobra.Command, fn func(ctx context.Context, conn provider.Connection) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	connName, _ := cmd.Flags().GetString("conn")
	engineName, profile, err := cfg.Resolve(connName)
	if err != nil {
		return err
	}

	engine, ok := provider.ParseEngine(engineName)
	if !ok {
		return fmt.Errorf("unknown engine %q", engineName)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	slog.Debug("opening connection", "engine", engine, "profile", connName)
	return provider.WithConnection(ctx, string(engine), profile.Provider(), func(conn provider.Connection) error {
		return fn(ctx, conn)
	})
}
