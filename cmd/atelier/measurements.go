// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/alanz0209/KisCoutureApp/couturelite"
	"github.com/alanz0209/KisCoutureApp/couturesync"
)

var measurementsCmd = &cobra.Command{
	Use:     "measurements",
	Aliases: []string{"mesures"},
	Short:   "Manage client body measurements",
}

var measurementsListCmd = &cobra.Command{
	Use:   "list <client-id>",
	Short: "List a client's measurements",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, db, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		measurements, err := engine.Measurements.ListByClient(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printConnectivity(engine)
		for _, m := range measurements {
			line := fmt.Sprintf("%-38s %s", m.ID, formatMeasures(m))
			if m.SyncSource == couturesync.SyncSourceOffline {
				line += color.YellowString("  (unsynced)")
			}
			fmt.Println(line)
		}
		fmt.Printf("%d measurement record(s)\n", len(measurements))
		return nil
	},
}

var measurementsAddCmd = &cobra.Command{
	Use:   "add <client-id>",
	Short: "Record a measurement sheet for a client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := couturesync.Measurement{ClientID: args[0]}
		m.Do = floatFlag(cmd, "do")
		m.Poitrine = floatFlag(cmd, "poitrine")
		m.Taille = floatFlag(cmd, "taille")
		m.Longueur = floatFlag(cmd, "longueur")
		m.Manche = floatFlag(cmd, "manche")
		m.TourManche = floatFlag(cmd, "tour-manche")
		m.Ceinture = floatFlag(cmd, "ceinture")
		m.Bassin = floatFlag(cmd, "bassin")
		m.Cuisse = floatFlag(cmd, "cuisse")
		m.LongueurPantalon = floatFlag(cmd, "longueur-pantalon")
		m.Bas = floatFlag(cmd, "bas")
		m.LongueurGenou = floatFlag(cmd, "longueur-genou")
		m.TourMollet = floatFlag(cmd, "tour-mollet")
		m.Description, _ = cmd.Flags().GetString("description")

		var img *couturelite.ImageAttachment
		if path, _ := cmd.Flags().GetString("image"); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			img = &couturelite.ImageAttachment{Name: filepath.Base(path), Data: data}
		}

		engine, db, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		created, err := engine.Measurements.Create(cmd.Context(), m, img)
		if err != nil {
			return err
		}
		if created.SyncSource == couturesync.SyncSourceOffline {
			color.Yellow("Saved locally (offline); will sync when the server is reachable.")
		}
		fmt.Printf("Measurement sheet %s recorded for client %s\n", created.ID, created.ClientID)
		return nil
	},
}

var measurementsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete a measurement sheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, db, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := engine.Measurements.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Measurement sheet deleted.")
		return nil
	},
}

func init() {
	for _, name := range []string{
		"do", "poitrine", "taille", "longueur", "manche", "tour-manche",
		"ceinture", "bassin", "cuisse", "longueur-pantalon", "bas",
		"longueur-genou", "tour-mollet",
	} {
		measurementsAddCmd.Flags().Float64(name, 0, name+" (cm)")
	}
	measurementsAddCmd.Flags().String("description", "", "free-form notes")
	measurementsAddCmd.Flags().String("image", "", "reference photo file")
	measurementsCmd.AddCommand(measurementsListCmd, measurementsAddCmd, measurementsRemoveCmd)
}

func floatFlag(cmd *cobra.Command, name string) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetFloat64(name)
	return &v
}

func formatMeasures(m couturesync.Measurement) string {
	out := ""
	add := func(label string, v *float64) {
		if v != nil {
			out += fmt.Sprintf("%s=%.1f ", label, *v)
		}
	}
	add("do", m.Do)
	add("poitrine", m.Poitrine)
	add("taille", m.Taille)
	add("longueur", m.Longueur)
	add("manche", m.Manche)
	add("ceinture", m.Ceinture)
	add("bassin", m.Bassin)
	if m.Description != "" {
		out += "- " + m.Description
	}
	return out
}
