// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/alanz0209/KisCoutureApp/couturesync"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Manage tailoring orders",
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List orders, optionally by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")

		engine, db, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		orders, err := engine.Orders.List(cmd.Context(), status)
		if err != nil {
			return err
		}
		printConnectivity(engine)
		for _, o := range orders {
			statusStr := o.Status
			if o.Status == couturesync.OrderStatusTermine {
				statusStr = color.GreenString(o.Status)
			}
			line := fmt.Sprintf("%-38s client=%s  total=%.0f  avance=%.0f  restant=%.0f  %s",
				o.ID, o.ClientID, o.MontantTotal, o.MontantAvance, o.MontantRestant, statusStr)
			if o.SyncSource == couturesync.SyncSourceOffline {
				line += color.YellowString("  (unsynced)")
			}
			fmt.Println(line)
		}
		fmt.Printf("%d order(s)\n", len(orders))
		return nil
	},
}

var ordersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a new order",
	RunE: func(cmd *cobra.Command, args []string) error {
		clientID, _ := cmd.Flags().GetString("client")
		if clientID == "" {
			return fmt.Errorf("--client is required")
		}
		total, _ := cmd.Flags().GetFloat64("total")
		avance, _ := cmd.Flags().GetFloat64("avance")

		engine, db, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		created, err := engine.Orders.Create(cmd.Context(), couturesync.Order{
			ClientID:      clientID,
			MontantTotal:  total,
			MontantAvance: avance,
		})
		if err != nil {
			return err
		}
		if created.SyncSource == couturesync.SyncSourceOffline {
			color.Yellow("Saved locally (offline); will sync when the server is reachable.")
		}
		fmt.Printf("Order %s created (restant %.0f, %s)\n",
			created.ID, created.MontantRestant, created.Status)
		return nil
	},
}

var ordersPayCmd = &cobra.Command{
	Use:   "pay <id> <amount>",
	Short: "Record an additional advance payment on an order",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var amount float64
		if _, err := fmt.Sscanf(args[1], "%f", &amount); err != nil {
			return fmt.Errorf("invalid amount %q", args[1])
		}

		engine, db, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		current, err := engine.Orders.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		avance := current.MontantAvance + amount
		updated, err := engine.Orders.Update(cmd.Context(), args[0], couturesync.OrderPatch{
			MontantAvance: &avance,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Order %s: avance %.0f, restant %.0f (%s)\n",
			updated.ID, updated.MontantAvance, updated.MontantRestant, updated.Status)
		return nil
	},
}

var ordersRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete an order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, db, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := engine.Orders.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Order deleted.")
		return nil
	},
}

func init() {
	ordersListCmd.Flags().String("status", "", "filter by status (en_cours|termine)")
	ordersAddCmd.Flags().String("client", "", "client id")
	ordersAddCmd.Flags().Float64("total", 0, "total amount")
	ordersAddCmd.Flags().Float64("avance", 0, "advance paid")
	ordersCmd.AddCommand(ordersListCmd, ordersAddCmd, ordersPayCmd, ordersRemoveCmd)
}
