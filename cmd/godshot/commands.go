// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/godshot/godshot/internal/brew"
	"github.com/godshot/godshot/internal/engine"
	"github.com/godshot/godshot/internal/export"
)

// SuggestCommand suggests brewing parameters and exits. Unlike the
// shell it never prompts, so the first-brew flag replaces the
// interactive question.
func SuggestCommand() *cobra.Command {
	var firstBrew bool

	suggestCommand := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest brewing parameters for the current beans",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(true)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if err := app.selectUser(ctx, rootUser); err != nil {
				return err
			}

			record, _, err := app.engine.Suggest(ctx, firstBrew)
			if errors.Is(err, engine.ErrNoRoastDate) {
				return errors.New("no roast date set (use 'set_roast_date' in the shell first)")
			}
			if err != nil {
				return err
			}

			printSuggestion(cmd.OutOrStdout(), record)
			return nil
		},
	}

	suggestCommand.Flags().BoolVar(&firstBrew, "first-brew", false, "this is the first brew after starting the machine")

	return suggestCommand
}

// EvaluateCommand rates the last suggested brew from flags. The core
// ratings always submit, defaulting to the same values the shell
// offers; channeling is only included when the flag is set.
func EvaluateCommand() *cobra.Command {
	var (
		bitterness int
		acidity    int
		strength   int
		overall    int
		channeling int
		brewTime   float64
	)

	evaluateCommand := &cobra.Command{
		Use:   "evaluate",
		Short: "Rate the last suggested brew",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(true)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if err := app.selectUser(ctx, rootUser); err != nil {
				return err
			}

			eval := brew.Evaluation{
				Bitterness:    brew.IntPtr(bitterness),
				Acidity:       brew.IntPtr(acidity),
				TasteStrength: brew.IntPtr(strength),
				Overall:       brew.IntPtr(overall),
				BrewTime:      brew.FloatPtr(brewTime),
			}
			if cmd.Flags().Changed("channeling") {
				eval.Channeling = brew.IntPtr(channeling)
			}

			reward, err := app.engine.Evaluate(ctx, eval)
			switch {
			case errors.Is(err, engine.ErrNoRecord):
				return errors.New("no brew to evaluate (run 'godshot suggest' first)")
			case errors.Is(err, engine.ErrAlreadyEvaluated):
				return errors.New("last brew has already been evaluated")
			case err != nil:
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Evaluation recorded. Calculated reward: %.2f (range: -1.0 to 1.0)\n", reward)
			return nil
		},
	}

	evaluateCommand.Flags().IntVar(&bitterness, "bitterness", 5, "bitterness rating (1=none, 10=very bitter)")
	evaluateCommand.Flags().IntVar(&acidity, "acidity", 5, "acidity rating (1=none, 10=very acidic)")
	evaluateCommand.Flags().IntVar(&strength, "strength", 6, "taste strength rating (1=weak, 10=very strong)")
	evaluateCommand.Flags().IntVar(&overall, "overall", 7, "overall experience rating (1=poor, 10=excellent)")
	evaluateCommand.Flags().IntVar(&channeling, "channeling", 0, "channeling severity (1=none, 10=severe)")
	evaluateCommand.Flags().Float64Var(&brewTime, "brew-time", defaultBrewTime, "brew time in seconds")

	return evaluateCommand
}

// StatsCommand prints the learning statistics for one user.
func StatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show learning statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(true)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if err := app.selectUser(ctx, rootUser); err != nil {
				return err
			}

			st, err := app.engine.Stats(ctx)
			if err != nil {
				return err
			}

			printStats(cmd.OutOrStdout(), st)
			return nil
		},
	}
}

// UsersCommand lists every user with stored data.
func UsersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List all users with stored data",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(true)
			if err != nil {
				return err
			}
			defer app.Close()

			users, err := app.engine.Users(cmd.Context())
			if err != nil {
				return err
			}

			printUsers(cmd.OutOrStdout(), users, "")
			return nil
		},
	}
}

// ExportCommand writes one user's brew history to a file.
func ExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <format> <file>",
		Short: "Export brew history to a file",
		Long:  "Export the active user's brew history to a file. Formats: csv, json, txt.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(args[0])
			if err != nil {
				return err
			}

			app, err := openApp(true)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if err := app.selectUser(ctx, rootUser); err != nil {
				return err
			}

			records, err := app.engine.Records(ctx, 0)
			if err != nil {
				return err
			}
			if err := export.ToFile(args[1], format, app.engine.CurrentUser(), records); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s (%s format)\n",
				len(records), args[1], exportDisplayName(format))
			return nil
		},
	}
}
