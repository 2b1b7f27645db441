// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

// atelier is the operator CLI for KisCouture. It works against the local
// offline replica and reconciles with the server whenever it can reach it.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
