// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package main

import "github.com/spf13/cobra"

var rootUser string

// RootCommand builds the command tree. Running godshot with no
// subcommand starts the interactive shell.
func RootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:   "godshot",
		Short: "Espresso brewing personalization engine",
		Long: `Godshot learns your espresso taste one shot at a time. It suggests
grind size, brew volume and coffee dose for the beans you are dialing
in, then updates its policy from the ratings you give each brew.

Run with no arguments for the interactive shell, or use the
subcommands for scripted one-shot operations and the HTTP server.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(rootUser)
		},
	}

	rootCommand.PersistentFlags().StringVarP(&rootUser, "user", "u", "", "user profile to act on (default: last active user)")

	// adding the subcommands here
	rootCommand.AddCommand(SuggestCommand())
	rootCommand.AddCommand(EvaluateCommand())
	rootCommand.AddCommand(StatsCommand())
	rootCommand.AddCommand(UsersCommand())
	rootCommand.AddCommand(ExportCommand())
	rootCommand.AddCommand(ServeCommand())

	return rootCommand
}
