// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

// Package export renders a user's brew history as CSV, JSON, or
// human-readable text. Writers work on any io.Writer; ToFile is the
// convenience wrapper the CLI uses.
package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/godshot/godshot/internal/brew"
)

// Format selects an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatText Format = "txt"
)

// now is replaced in tests for deterministic export timestamps.
var now = time.Now

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv, json, or txt)", s)
	}
}

// Envelope is the JSON export document.
type Envelope struct {
	User         string        `json:"user"`
	ExportedAt   time.Time     `json:"exported_at"`
	TotalRecords int           `json:"total_records"`
	Records      []brew.Record `json:"records"`
}

// csvHeader is the exact column order of the CSV export.
var csvHeader = []string{
	"timestamp", "grind_size", "brew_volume", "coffee_dose",
	"is_first_brew", "days_since_roast", "bitterness", "acidity",
	"taste_strength", "overall_experience", "brew_time", "channeling",
}

// Write renders records for user in the given format.
func Write(w io.Writer, format Format, user string, records []brew.Record) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatJSON:
		return WriteJSON(w, user, records)
	case FormatText:
		return WriteText(w, user, records)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// ToFile writes the export to path, creating parent directories as
// needed.
func ToFile(path string, format Format, user string, records []brew.Record) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("export path is required")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := Write(f, format, user, records); err != nil {
		closeQuietly(f)
		return err
	}
	return f.Close()
}

// WriteCSV writes the history as CSV. The header row is always present;
// evaluation cells of unrated brews stay empty.
func WriteCSV(w io.Writer, records []brew.Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range records {
		if err := writer.Write(csvRow(&records[i])); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func csvRow(rec *brew.Record) []string {
	row := make([]string, len(csvHeader))
	row[0] = rec.Timestamp.UTC().Format(time.RFC3339)
	row[1] = strconv.Itoa(rec.Action.GrindSize)
	row[2] = strconv.FormatFloat(rec.Action.BrewVolume, 'f', -1, 64)
	row[3] = strconv.FormatFloat(rec.Action.CoffeeDose, 'f', -1, 64)
	row[4] = strconv.FormatBool(rec.State.IsFirstBrew)
	row[5] = strconv.Itoa(rec.State.DaysSinceRoast)
	if rec.Evaluation != nil {
		row[6] = formatIntPtr(rec.Evaluation.Bitterness)
		row[7] = formatIntPtr(rec.Evaluation.Acidity)
		row[8] = formatIntPtr(rec.Evaluation.TasteStrength)
		row[9] = formatIntPtr(rec.Evaluation.Overall)
		row[10] = formatFloatPtr(rec.Evaluation.BrewTime)
		row[11] = formatIntPtr(rec.Evaluation.Channeling)
	}
	return row
}

// WriteJSON writes the history inside the export envelope, indented for
// readability.
func WriteJSON(w io.Writer, user string, records []brew.Record) error {
	if records == nil {
		records = []brew.Record{}
	}
	env := Envelope{
		User:         user,
		ExportedAt:   now().UTC(),
		TotalRecords: len(records),
		Records:      records,
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// WriteText writes one human-readable block per record. Rating lines
// the user skipped are omitted from the block.
func WriteText(w io.Writer, user string, records []brew.Record) error {
	bw := bufio.NewWriter(w)

	_, _ = fmt.Fprintln(bw, "Godshot Brew Records Export")
	_, _ = fmt.Fprintf(bw, "User: %s\n", user)
	_, _ = fmt.Fprintf(bw, "Exported: %s\n", now().UTC().Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(bw, "Total Records: %d\n", len(records))
	_, _ = fmt.Fprintln(bw, strings.Repeat("=", 60))
	_, _ = fmt.Fprintln(bw)

	if len(records) == 0 {
		_, _ = fmt.Fprintln(bw, "No brew records found.")
		return bw.Flush()
	}

	for i := range records {
		rec := &records[i]
		_, _ = fmt.Fprintf(bw, "Brew #%d\n", i+1)
		_, _ = fmt.Fprintf(bw, "Date: %s\n", rec.Timestamp.UTC().Format(time.RFC3339))
		_, _ = fmt.Fprintln(bw, "Action:")
		_, _ = fmt.Fprintf(bw, "  Grind Size: %d\n", rec.Action.GrindSize)
		_, _ = fmt.Fprintf(bw, "  Brew Volume: %.1f ml\n", rec.Action.BrewVolume)
		_, _ = fmt.Fprintf(bw, "  Coffee Dose: %.1f g\n", rec.Action.CoffeeDose)
		_, _ = fmt.Fprintln(bw, "State:")
		_, _ = fmt.Fprintf(bw, "  First Brew: %t\n", rec.State.IsFirstBrew)
		_, _ = fmt.Fprintf(bw, "  Days Since Roast: %d\n", rec.State.DaysSinceRoast)

		if rec.Evaluation != nil {
			_, _ = fmt.Fprintln(bw, "Evaluation:")
			writeRatingLine(bw, "Bitterness", rec.Evaluation.Bitterness)
			writeRatingLine(bw, "Acidity", rec.Evaluation.Acidity)
			writeRatingLine(bw, "Taste Strength", rec.Evaluation.TasteStrength)
			writeRatingLine(bw, "Overall Experience", rec.Evaluation.Overall)
			if rec.Evaluation.BrewTime != nil {
				_, _ = fmt.Fprintf(bw, "  Brew Time: %g seconds\n", *rec.Evaluation.BrewTime)
			}
			writeRatingLine(bw, "Channeling", rec.Evaluation.Channeling)
		} else {
			_, _ = fmt.Fprintln(bw, "Evaluation: Not evaluated")
		}

		_, _ = fmt.Fprintln(bw, strings.Repeat("-", 40))
		_, _ = fmt.Fprintln(bw)
	}

	return bw.Flush()
}

func writeRatingLine(w io.Writer, label string, v *int) {
	if v != nil {
		_, _ = fmt.Fprintf(w, "  %s: %d/10\n", label, *v)
	}
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}
