// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the atelier dashboard numbers",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, db, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		st, err := engine.Stats.Get(cmd.Context())
		if err != nil {
			return err
		}
		printConnectivity(engine)
		fmt.Printf("Clients:           %d\n", st.TotalClients)
		fmt.Printf("Orders:            %d (%d en cours, %d terminées)\n",
			st.TotalOrders, st.OrdersEnCours, st.OrdersTermine)
		fmt.Printf("Revenue:           %.0f\n", st.TotalRevenue)
		fmt.Printf("Advances received: %.0f\n", st.TotalAvance)
		if st.TotalRestant > 0 {
			color.Yellow("Outstanding:       %.0f", st.TotalRestant)
		} else {
			fmt.Printf("Outstanding:       %.0f\n", st.TotalRestant)
		}
		return nil
	},
}
