// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
)

func main() {
	fmt.Println("KisCouture - Offline-First Atelier Management")
	fmt.Println("=============================================")
	fmt.Println()
	fmt.Println("KisCouture keeps a small couture atelier running with or without a")
	fmt.Println("network connection: clients, orders and body measurements live in a")
	fmt.Println("local replica and reconcile with the server whenever it is reachable.")
	fmt.Println()

	fmt.Println("Binaries:")
	fmt.Println()
	fmt.Println("1. Server (cmd/atelier-server/)")
	fmt.Println("   The REST API and bulk sync endpoint, backed by PostgreSQL")
	fmt.Println("   Features: JWT auth, id remapping, last-write-wins reconciliation")
	fmt.Println("   Run: go run ./cmd/atelier-server")
	fmt.Println()

	fmt.Println("2. CLI client (cmd/atelier/)")
	fmt.Println("   Offline-capable operator CLI backed by a SQLite replica")
	fmt.Println("   Features: pending change queue, throttled auto-sync, offline stats")
	fmt.Println("   Run: go run ./cmd/atelier --help")
	fmt.Println()

	fmt.Println("Library packages: couturesync (shared models + server), couturelite")
	fmt.Println("(client engine: repositories, pending queue, sync orchestrator).")
}
