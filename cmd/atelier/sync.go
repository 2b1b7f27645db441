// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/alanz0209/KisCoutureApp/couturelite"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the local replica with the server now",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, db, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		pending, err := engine.Queue().All(cmd.Context())
		if err != nil {
			return err
		}
		if len(pending) > 0 {
			fmt.Printf("%d pending change(s) to push\n", len(pending))
		}

		if err := engine.Reconcile(cmd.Context()); err != nil {
			if errors.Is(err, couturelite.ErrOffline) || couturelite.IsNetworkError(err) {
				color.Yellow("Server unreachable; local changes stay queued.")
				return nil
			}
			return err
		}

		remaining, err := engine.Queue().All(cmd.Context())
		if err != nil {
			return err
		}
		if len(remaining) > 0 {
			color.Yellow("Sync finished with %d change(s) still pending.", len(remaining))
		} else {
			color.Green("Sync complete.")
		}
		return nil
	},
}
