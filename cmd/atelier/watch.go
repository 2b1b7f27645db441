// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/alanz0209/KisCoutureApp/couturelite"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the auto-sync loop until interrupted",
	Long: `Keep the local replica reconciled in the background: probe the server
periodically, sync when connectivity returns and on a regular schedule.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := newLogger()
		store, db, err := openReplica()
		if err != nil {
			return err
		}
		defer db.Close()

		remote := newRemote()
		config := couturelite.DefaultConfig()
		monitor := couturelite.NewMonitor(remote.Health, config.ProbeInterval, logger)
		engine := couturelite.NewEngine(store, remote, monitor, config, logger)

		color.Green("Watching; syncing every %s while online. Ctrl+C to stop.",
			config.SyncMinInterval)
		go monitor.Run(ctx)
		couturelite.NewScheduler(engine, logger).Run(ctx)
		return nil
	},
}
