// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alanz0209/KisCoutureApp/couturelite"
)

var rootCmd = &cobra.Command{
	Use:   "atelier",
	Short: "KisCouture atelier management",
	Long: `Manage clients, orders and body measurements for the atelier.
All commands work offline against the local replica; changes made while the
server is unreachable are queued and reconciled automatically.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "server base URL")
	rootCmd.PersistentFlags().String("db", defaultDBPath(), "local replica database file")
	rootCmd.PersistentFlags().String("token", "", "API bearer token")
	rootCmd.PersistentFlags().Bool("verbose", false, "debug logging")

	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.SetEnvPrefix("ATELIER")
	viper.AutomaticEnv()

	viper.SetConfigName("atelier")
	viper.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "kiscouture"))
	}
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig()

	rootCmd.AddCommand(clientsCmd, ordersCmd, measurementsCmd, statsCmd, syncCmd, watchCmd)
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "atelier.db"
	}
	return filepath.Join(home, ".local", "share", "kiscouture", "atelier.db")
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openReplica() (couturelite.Store, *sql.DB, error) {
	dbPath := viper.GetString("db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open local replica: %w", err)
	}
	store, err := couturelite.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

func newRemote() *couturelite.RemoteAPI {
	remote := couturelite.NewRemoteAPI(viper.GetString("server"))
	if token := viper.GetString("token"); token != "" {
		remote.Token = func(context.Context) (string, error) { return token, nil }
	}
	return remote
}

// newEngine wires an engine for single-shot commands: connectivity comes
// from one up-front probe instead of a monitor loop. The caller owns closing
// the returned database handle.
func newEngine(ctx context.Context) (*couturelite.Engine, *sql.DB, error) {
	logger := newLogger()
	store, db, err := openReplica()
	if err != nil {
		return nil, nil, err
	}
	remote := newRemote()

	// One probe up front so single-shot commands see the real state without
	// waiting for a monitor loop.
	net := couturelite.NewStaticConnectivity(false)
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	net.SetOnline(remote.Health(probeCtx) == nil)

	engine := couturelite.NewEngine(store, remote, net, nil, logger)
	return engine, db, nil
}
