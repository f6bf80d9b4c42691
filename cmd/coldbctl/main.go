/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */
package main

import (
	"os"
)

func main() {
	commandInit()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
