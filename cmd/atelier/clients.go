// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/alanz0209/KisCoutureApp/couturelite"
	"github.com/alanz0209/KisCoutureApp/couturesync"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Manage atelier clients",
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, db, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		clients, err := engine.Clients.List(cmd.Context())
		if err != nil {
			return err
		}
		printConnectivity(engine)
		for _, c := range clients {
			line := fmt.Sprintf("%-38s %s %s", c.ID, c.Nom, c.Prenoms)
			if c.Telephone != "" {
				line += "  " + c.Telephone
			}
			if c.SyncSource == couturesync.SyncSourceOffline {
				line += color.YellowString("  (unsynced)")
			}
			fmt.Println(line)
		}
		fmt.Printf("%d client(s)\n", len(clients))
		return nil
	},
}

var clientsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new client",
	RunE: func(cmd *cobra.Command, args []string) error {
		nom, _ := cmd.Flags().GetString("nom")
		prenoms, _ := cmd.Flags().GetString("prenoms")
		if nom == "" || prenoms == "" {
			return fmt.Errorf("--nom and --prenoms are required")
		}
		email, _ := cmd.Flags().GetString("email")
		telephone, _ := cmd.Flags().GetString("telephone")

		engine, db, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		created, err := engine.Clients.Create(cmd.Context(), couturesync.Client{
			Nom:       nom,
			Prenoms:   prenoms,
			Email:     email,
			Telephone: telephone,
		})
		if err != nil {
			return err
		}
		if created.SyncSource == couturesync.SyncSourceOffline {
			color.Yellow("Saved locally (offline); will sync when the server is reachable.")
		}
		fmt.Printf("Client %s created: %s %s\n", created.ID, created.Nom, created.Prenoms)
		return nil
	},
}

var clientsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete a client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, db, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := engine.Clients.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Client deleted.")
		return nil
	},
}

func init() {
	clientsAddCmd.Flags().String("nom", "", "family name")
	clientsAddCmd.Flags().String("prenoms", "", "given names")
	clientsAddCmd.Flags().String("email", "", "email address")
	clientsAddCmd.Flags().String("telephone", "", "phone number")
	clientsCmd.AddCommand(clientsListCmd, clientsAddCmd, clientsRemoveCmd)
}

func printConnectivity(engine *couturelite.Engine) {
	if engine.Online() {
		color.Green("online")
	} else {
		color.Yellow("offline (showing local replica)")
	}
}
