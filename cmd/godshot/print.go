// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package main

import (
	"fmt"
	"io"

	"github.com/godshot/godshot/internal/brew"
	"github.com/godshot/godshot/internal/engine"
	"github.com/godshot/godshot/internal/export"
)

// printSuggestion renders a suggested brew the way the shell displays
// it. One-shot commands reuse it so both frontends look the same.
func printSuggestion(w io.Writer, rec *brew.Record) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "📊 Brew Suggestion:")
	fmt.Fprintf(w, "  Grind Size: %d (1=very fine, 30=very coarse)\n", rec.Action.GrindSize)
	fmt.Fprintf(w, "  Brew Volume: %.1f ml\n", rec.Action.BrewVolume)
	fmt.Fprintf(w, "  Coffee Dose: %.1f g\n", rec.Action.CoffeeDose)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "State Context:")
	fmt.Fprintf(w, "  First brew after startup: %s\n", yesNo(rec.State.IsFirstBrew))
	fmt.Fprintf(w, "  Days since roast: %d\n", rec.State.DaysSinceRoast)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Brew your coffee and use 'evaluate' to provide feedback!")
}

func printStats(w io.Writer, st *engine.Stats) {
	var totalBrews, evaluated int64
	var avgOverall *float64
	if st.History != nil {
		totalBrews = st.History.TotalBrews
		evaluated = st.History.Evaluated
		avgOverall = st.History.AvgOverall
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "📈 Learning Statistics:")
	fmt.Fprintf(w, "  Total brews: %d\n", totalBrews)
	fmt.Fprintf(w, "  Evaluated brews: %d\n", evaluated)
	fmt.Fprintf(w, "  Q-table states: %d\n", st.TableStates)
	fmt.Fprintf(w, "  Current epsilon: %.3f\n", st.Epsilon)
	if avgOverall != nil {
		fmt.Fprintf(w, "  Average overall rating: %.1f/10\n", *avgOverall)
	}
}

func printUsers(w io.Writer, users []string, current string) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users found.")
		return
	}

	fmt.Fprintln(w, "Users with stored data:")
	for _, user := range users {
		marker := ""
		if user == current {
			marker = " (current)"
		}
		fmt.Fprintf(w, "  - %s%s\n", user, marker)
	}
}

func exportDisplayName(f export.Format) string {
	switch f {
	case export.FormatCSV:
		return "CSV"
	case export.FormatJSON:
		return "JSON"
	default:
		return "Text"
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
