// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/godshot/godshot/internal/brew"
	"github.com/godshot/godshot/internal/engine"
	"github.com/godshot/godshot/internal/export"
	"github.com/godshot/godshot/internal/logging"
)

const (
	// maxShortDateLen bounds the inputs eligible for year correction.
	// Anything longer is assumed to carry a deliberate, fully spelled
	// out year.
	maxShortDateLen = 10

	// defaultBrewTime substitutes for a skipped or invalid brew time
	// answer, in seconds.
	defaultBrewTime = 30.0
)

// shell is the interactive frontend. It reads commands from in and
// writes prompts and results to out; all session state lives in the
// engine.
type shell struct {
	eng *engine.Engine
	in  *bufio.Scanner
	out io.Writer
}

func newShell(eng *engine.Engine, in io.Reader, out io.Writer) *shell {
	return &shell{
		eng: eng,
		in:  bufio.NewScanner(in),
		out: out,
	}
}

// runShell opens the application and hands the terminal to the
// interactive shell. Interrupts are treated like 'exit' so the stores
// close cleanly.
func runShell(username string) error {
	app, err := openApp(true)
	if err != nil {
		return err
	}
	defer app.Close()

	sh := newShell(app.engine, os.Stdin, os.Stdout)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stdout)
		sh.farewell()
		app.Close()
		os.Exit(0)
	}()

	return sh.run(context.Background(), username)
}

// run greets the user, establishes a session and then loops over
// commands until exit or end of input.
func (s *shell) run(ctx context.Context, username string) error {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Type 'help' for commands.")
	s.setupUser(ctx, username)

	for {
		fmt.Fprint(s.out, "(godshot) ")
		line, ok := s.readLine()
		if !ok {
			fmt.Fprintln(s.out)
			s.farewell()
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if s.dispatch(ctx, line) {
			return nil
		}
	}
}

// dispatch runs one command line and reports whether the shell should
// exit.
func (s *shell) dispatch(ctx context.Context, line string) (exit bool) {
	name, args := splitCommand(line)

	switch name {
	case "switch_user":
		s.switchUser(ctx, args)
	case "suggest":
		s.suggest(ctx)
	case "evaluate":
		s.evaluate(ctx)
	case "set_roast_date":
		s.setRoastDate(ctx, args)
	case "get_roast_date":
		s.getRoastDate(ctx)
	case "save":
		s.save(ctx)
	case "stats":
		s.stats(ctx)
	case "users":
		s.users(ctx)
	case "export":
		s.export(ctx, args)
	case "help":
		s.help()
	case "exit", "quit":
		s.farewell()
		return true
	default:
		fmt.Fprintf(s.out, "Unknown command: %s. Type 'help' for available commands.\n", line)
	}
	return false
}

func splitCommand(line string) (name, args string) {
	name, args, _ = strings.Cut(line, " ")
	return name, strings.TrimSpace(args)
}

// setupUser establishes the session at startup: an explicit username
// wins, then the last active user, then an interactive prompt.
func (s *shell) setupUser(ctx context.Context, username string) {
	if username != "" {
		s.switchUser(ctx, username)
		return
	}

	if resumed, ok, err := s.eng.AutoLoadLastUser(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to resume last user session")
	} else if ok {
		fmt.Fprintln(s.out)
		fmt.Fprintf(s.out, "👋 Hello %s!\n", resumed)
		fmt.Fprintln(s.out, "If this isn't you, use 'switch_user <name>' to change.")
		return
	}

	users, err := s.eng.Users(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to list users")
	}

	fmt.Fprintln(s.out)
	var entered string
	if len(users) > 0 {
		fmt.Fprintln(s.out, "👋 Welcome back to Godshot!")
		fmt.Fprintf(s.out, "Existing users: %s\n", strings.Join(users, ", "))
		entered = s.promptLine("Enter your username (or a new one): ")
	} else {
		fmt.Fprintln(s.out, "👋 Welcome to Godshot!")
		entered = s.promptLine("Enter your username: ")
	}

	entered = strings.TrimSpace(entered)
	if entered == "" {
		fmt.Fprintln(s.out, "No username provided. You can use 'switch_user <name>' later.")
		return
	}

	if err := s.eng.SwitchUser(ctx, entered); err != nil {
		fmt.Fprintf(s.out, "Could not switch user: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Hello %s!\n", entered)
}

func (s *shell) switchUser(ctx context.Context, username string) {
	if username == "" {
		fmt.Fprintln(s.out, "Usage: switch_user <username>")
		return
	}

	if err := s.eng.SwitchUser(ctx, username); err != nil {
		fmt.Fprintf(s.out, "Could not switch user: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Switched to user: %s\n", s.eng.CurrentUser())

	s.showRoastDate(ctx, "No roast date set. Use 'set_roast_date' to set it.")
}

func (s *shell) suggest(ctx context.Context) {
	if !s.checkUser() {
		return
	}

	if _, ok, err := s.eng.RoastDate(ctx); err != nil {
		fmt.Fprintf(s.out, "Could not load roast date: %v\n", err)
		return
	} else if !ok {
		fmt.Fprintln(s.out, "Please set roast date first using 'set_roast_date YYYY-MM-DD'")
		return
	}

	firstBrew := s.promptYesNo("Is this the first brew after starting the machine? (y/n, default: n): ")

	record, _, err := s.eng.Suggest(ctx, firstBrew)
	if err != nil {
		fmt.Fprintf(s.out, "Could not suggest brew parameters: %v\n", err)
		return
	}

	printSuggestion(s.out, record)
}

func (s *shell) evaluate(ctx context.Context) {
	if !s.checkUser() {
		return
	}

	last, err := s.eng.LastRecord(ctx)
	if errors.Is(err, engine.ErrNoRecord) {
		fmt.Fprintln(s.out, "No brew to evaluate. Use 'suggest' first.")
		return
	}
	if err != nil {
		fmt.Fprintf(s.out, "Could not load last brew: %v\n", err)
		return
	}
	if last.Evaluated() {
		fmt.Fprintln(s.out, "Last brew has already been evaluated.")
		return
	}

	fmt.Fprintln(s.out, "Please rate your brew (1-10 scale, press Enter for defaults):")

	var eval brew.Evaluation
	eval.Bitterness = s.promptRating("Bitterness (1=none, 10=very bitter)", brew.IntPtr(5))
	eval.Acidity = s.promptRating("Acidity (1=none, 10=very acidic)", brew.IntPtr(5))
	eval.TasteStrength = s.promptRating("Taste Strength (1=weak, 10=very strong)", brew.IntPtr(6))
	eval.Overall = s.promptRating("Overall Experience (1=poor, 10=excellent)", brew.IntPtr(7))
	eval.Channeling = s.promptRating("Channeling (1=none, 10=severe) [optional]", nil)
	eval.BrewTime = brew.FloatPtr(s.promptBrewTime())

	reward, err := s.eng.Evaluate(ctx, eval)
	if err != nil {
		fmt.Fprintf(s.out, "Could not record evaluation: %v\n", err)
		return
	}

	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "✅ Evaluation recorded! The agent will learn from your feedback.")
	fmt.Fprintf(s.out, "Calculated reward: %.2f (range: -1.0 to 1.0)\n", reward)
}

func (s *shell) setRoastDate(ctx context.Context, args string) {
	if !s.checkUser() {
		return
	}

	if args == "" {
		fmt.Fprintln(s.out, "Usage: set_roast_date <date>")
		fmt.Fprintln(s.out, "Examples: '2026-01-15', 'Jan 15', '15/01', 'yesterday'")
		return
	}

	date, err := parseRoastDate(args, time.Now())
	if err != nil {
		fmt.Fprintf(s.out, "Could not parse date '%s'. Try formats like:\n", args)
		fmt.Fprintln(s.out, "  '2026-01-15', 'Jan 15', '15/01/2026', 'yesterday'")
		return
	}

	if err := s.eng.SetRoastDate(ctx, date); err != nil {
		fmt.Fprintf(s.out, "Could not set roast date: %v\n", err)
		return
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	fmt.Fprintf(s.out, "Roast date set to %s (%d days ago)\n",
		day.Format("2006-01-02"), brew.DaysSince(day, time.Now()))
}

func (s *shell) getRoastDate(ctx context.Context) {
	if !s.checkUser() {
		return
	}
	s.showRoastDate(ctx, "No roast date set.")
}

func (s *shell) showRoastDate(ctx context.Context, missing string) {
	date, ok, err := s.eng.RoastDate(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Could not load roast date: %v\n", err)
		return
	}
	if !ok {
		fmt.Fprintln(s.out, missing)
		return
	}
	fmt.Fprintf(s.out, "Current roast date: %s (%d days ago)\n",
		date.Format("2006-01-02"), brew.DaysSince(date, time.Now()))
}

func (s *shell) save(ctx context.Context) {
	if !s.checkUser() {
		return
	}
	if err := s.eng.Save(ctx); err != nil {
		fmt.Fprintf(s.out, "Could not save: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "✅ State saved.")
}

func (s *shell) stats(ctx context.Context) {
	if !s.checkUser() {
		return
	}
	st, err := s.eng.Stats(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Could not compute statistics: %v\n", err)
		return
	}
	printStats(s.out, st)
}

func (s *shell) users(ctx context.Context) {
	users, err := s.eng.Users(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Could not list users: %v\n", err)
		return
	}
	printUsers(s.out, users, s.eng.CurrentUser())
}

func (s *shell) export(ctx context.Context, args string) {
	if !s.checkUser() {
		return
	}

	parts := strings.Fields(args)
	if len(parts) != 2 {
		fmt.Fprintln(s.out, "Usage: export <format> <filename>")
		fmt.Fprintln(s.out, "Formats: csv, json, txt")
		fmt.Fprintln(s.out, "Examples:")
		fmt.Fprintln(s.out, "  export csv my_brews.csv")
		fmt.Fprintln(s.out, "  export json backup.json")
		fmt.Fprintln(s.out, "  export txt brew_log.txt")
		return
	}

	format, err := export.ParseFormat(parts[0])
	if err != nil {
		fmt.Fprintln(s.out, "Invalid format. Use: csv, json, or txt")
		return
	}

	records, err := s.eng.Records(ctx, 0)
	if err != nil {
		fmt.Fprintf(s.out, "Export failed: %v\n", err)
		return
	}
	if err := export.ToFile(parts[1], format, s.eng.CurrentUser(), records); err != nil {
		fmt.Fprintf(s.out, "Export failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "✅ Exported to %s (%s format)\n", parts[1], exportDisplayName(format))
}

func (s *shell) help() {
	fmt.Fprintln(s.out, "Available commands:")
	fmt.Fprintln(s.out, "  switch_user <name>     Switch to a different user profile")
	fmt.Fprintln(s.out, "  suggest                Suggest brewing parameters for the current beans")
	fmt.Fprintln(s.out, "  evaluate               Rate the last suggested brew")
	fmt.Fprintln(s.out, "  set_roast_date <date>  Set the roast date for the current beans")
	fmt.Fprintln(s.out, "  get_roast_date         Show the current roast date")
	fmt.Fprintln(s.out, "  stats                  Show learning statistics")
	fmt.Fprintln(s.out, "  users                  List all users with stored data")
	fmt.Fprintln(s.out, "  export <fmt> <file>    Export brew history (csv, json, txt)")
	fmt.Fprintln(s.out, "  save                   Persist the learning state")
	fmt.Fprintln(s.out, "  help                   Show this help")
	fmt.Fprintln(s.out, "  exit                   Leave the shell")
}

func (s *shell) farewell() {
	fmt.Fprintln(s.out, "Thanks for using Godshot! ☕")
}

// checkUser is the guard every session command runs first.
func (s *shell) checkUser() bool {
	if s.eng.CurrentUser() == "" {
		fmt.Fprintln(s.out, "No user selected. Use 'switch_user <username>' first.")
		return false
	}
	return true
}

func (s *shell) readLine() (string, bool) {
	if !s.in.Scan() {
		return "", false
	}
	return s.in.Text(), true
}

func (s *shell) promptLine(prompt string) string {
	fmt.Fprint(s.out, prompt)
	line, _ := s.readLine()
	return line
}

// promptRating reads one rating, re-asking until the answer is a number
// in range or empty. Empty input returns the default, which is nil for
// the optional channeling rating.
func (s *shell) promptRating(label string, def *int) *int {
	for {
		if def != nil {
			fmt.Fprintf(s.out, "%s (default: %d): ", label, *def)
		} else {
			fmt.Fprintf(s.out, "%s: ", label)
		}

		line, ok := s.readLine()
		if !ok {
			return def
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return def
		}

		rating, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(s.out, "Please enter a valid number or press Enter to skip.")
			continue
		}
		if rating < brew.RatingMin || rating > brew.RatingMax {
			fmt.Fprintf(s.out, "Please enter a number between %d and %d.\n", brew.RatingMin, brew.RatingMax)
			continue
		}
		return &rating
	}
}

func (s *shell) promptBrewTime() float64 {
	fmt.Fprint(s.out, "Brew time in seconds [optional, default: 30]: ")
	line, _ := s.readLine()
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultBrewTime
	}

	seconds, err := strconv.ParseFloat(line, 64)
	if err != nil || seconds <= 0 {
		fmt.Fprintln(s.out, "Invalid brew time, using default of 30 seconds.")
		return defaultBrewTime
	}
	return seconds
}

func (s *shell) promptYesNo(prompt string) bool {
	fmt.Fprint(s.out, prompt)
	line, _ := s.readLine()
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "1", "true":
		return true
	default:
		return false
	}
}

// parseRoastDate turns free-form input into a roast date. It accepts
// the keywords "today" and "yesterday", then any layout dateparse
// recognizes. Inputs without a year get the current year appended and
// parsed again; short inputs whose parsed year lands more than a year
// away from now are pinned to the current year, since fresh beans do
// not predate the machine by years.
func parseRoastDate(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)

	switch strings.ToLower(input) {
	case "today":
		return now, nil
	case "yesterday":
		return now.AddDate(0, 0, -1), nil
	}

	parsed, err := dateparse.ParseAny(input)
	if err != nil {
		retry := fmt.Sprintf("%s, %d", input, now.Year())
		if strings.Contains(input, "/") && !strings.Contains(input, " ") {
			retry = fmt.Sprintf("%s/%d", input, now.Year())
		}
		parsed, err = dateparse.ParseAny(retry)
		if err != nil {
			return time.Time{}, fmt.Errorf("unrecognized date %q", input)
		}
	}

	if len(input) <= maxShortDateLen && absInt(parsed.Year()-now.Year()) > 1 {
		parsed = time.Date(now.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
	}
	return parsed, nil
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
