// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package main

import "os"

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	rootCommand := RootCommand()
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
