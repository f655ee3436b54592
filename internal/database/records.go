// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/godshot/godshot/internal/brew"
	"github.com/godshot/godshot/internal/metrics"
)

// ErrRecordNotFound is returned when no brew record matches the query.
var ErrRecordNotFound = errors.New("brew record not found")

// observeQuery reports statement timing for the brew_records table.
// Deferred with a pointer so the final error is captured.
func observeQuery(operation string, start time.Time, err *error) {
	metrics.RecordDBQuery(operation, "brew_records", time.Since(start), *err)
}

// recordColumns is the column list shared by every record statement so
// the scan order has a single definition.
const recordColumns = `id, username, ts, grind_size, brew_volume, coffee_dose,
	is_first_brew, days_since_roast,
	bitterness, acidity, taste_strength, overall_experience, channeling, brew_time,
	evaluated_at`

// InsertRecord stores one brew attempt. A missing ID or timestamp is
// filled in. Evaluation columns are written when the record already
// carries an evaluation (import paths); otherwise they stay NULL until
// AttachEvaluation.
func (db *DB) InsertRecord(ctx context.Context, rec *brew.Record) (err error) {
	if rec == nil {
		return errors.New("record is nil")
	}
	if rec.Username == "" {
		return errors.New("record username is empty")
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	defer observeQuery("insert", time.Now(), &err)

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var (
		bitterness, acidity, tasteStrength *int
		overall, channeling                *int
		brewTime                           *float64
		evaluatedAt                        *time.Time
	)
	if rec.Evaluation != nil {
		bitterness = rec.Evaluation.Bitterness
		acidity = rec.Evaluation.Acidity
		tasteStrength = rec.Evaluation.TasteStrength
		overall = rec.Evaluation.Overall
		channeling = rec.Evaluation.Channeling
		brewTime = rec.Evaluation.BrewTime
		evaluatedAt = &rec.Timestamp
	}

	stmt, err := db.prepared(ctx, `INSERT INTO brew_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}

	_, err = stmt.ExecContext(ctx,
		rec.ID, rec.Username, rec.Timestamp,
		rec.Action.GrindSize, rec.Action.BrewVolume, rec.Action.CoffeeDose,
		rec.State.IsFirstBrew, rec.State.DaysSinceRoast,
		bitterness, acidity, tasteStrength, overall, channeling, brewTime,
		evaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert brew record: %w", err)
	}
	return nil
}

// AttachEvaluation records the user's feedback on an existing brew
// record and stamps evaluated_at. Returns ErrRecordNotFound when no
// record has the given id.
func (db *DB) AttachEvaluation(ctx context.Context, id string, eval *brew.Evaluation) (err error) {
	if id == "" {
		return errors.New("record id is empty")
	}
	if eval == nil {
		return errors.New("evaluation is nil")
	}
	defer observeQuery("update", time.Now(), &err)

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	stmt, err := db.prepared(ctx, `UPDATE brew_records
		SET bitterness = ?, acidity = ?, taste_strength = ?,
			overall_experience = ?, channeling = ?, brew_time = ?,
			evaluated_at = ?
		WHERE id = ?`)
	if err != nil {
		return err
	}

	result, err := stmt.ExecContext(ctx,
		eval.Bitterness, eval.Acidity, eval.TasteStrength,
		eval.Overall, eval.Channeling, eval.BrewTime,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to attach evaluation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return nil
}

// LastRecord returns the user's most recent brew record, or
// ErrRecordNotFound when they have none.
func (db *DB) LastRecord(ctx context.Context, username string) (_ *brew.Record, err error) {
	defer observeQuery("select", time.Now(), &err)

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	stmt, err := db.prepared(ctx, `SELECT `+recordColumns+`
		FROM brew_records
		WHERE username = ?
		ORDER BY ts DESC, id DESC
		LIMIT 1`)
	if err != nil {
		return nil, err
	}

	rec, err := scanRecord(stmt.QueryRowContext(ctx, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w for user %s", ErrRecordNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last brew record: %w", err)
	}
	return rec, nil
}

// ListRecords returns the user's brew history ordered oldest first.
// A limit <= 0 returns the full history.
func (db *DB) ListRecords(ctx context.Context, username string, limit int) (_ []brew.Record, err error) {
	defer observeQuery("select", time.Now(), &err)

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + recordColumns + `
		FROM brew_records
		WHERE username = ?
		ORDER BY ts, id`
	args := []interface{}{username}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	stmt, err := db.prepared(ctx, query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query brew records: %w", err)
	}
	defer rows.Close()

	var records []brew.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan brew record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating brew records: %w", err)
	}
	return records, nil
}

// CountRecords returns the number of brew records for the user.
func (db *DB) CountRecords(ctx context.Context, username string) (_ int64, err error) {
	defer observeQuery("select", time.Now(), &err)

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	stmt, err := db.prepared(ctx, `SELECT COUNT(*) FROM brew_records WHERE username = ?`)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := stmt.QueryRowContext(ctx, username).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count brew records: %w", err)
	}
	return count, nil
}

// Stats summarizes a user's brew history. Aggregates over ratings are
// computed from evaluated records only and stay nil while the history
// has no ratings.
type Stats struct {
	TotalBrews  int64      `json:"total_brews"`
	Evaluated   int64      `json:"evaluated"`
	AvgOverall  *float64   `json:"avg_overall,omitempty"`
	BestOverall *int       `json:"best_overall,omitempty"`
	AvgBrewTime *float64   `json:"avg_brew_time,omitempty"`
	FirstBrewAt *time.Time `json:"first_brew_at,omitempty"`
	LastBrewAt  *time.Time `json:"last_brew_at,omitempty"`
}

// Stats computes history statistics for the user in a single aggregate
// query. A user with no records gets zero counts and nil aggregates.
func (db *DB) Stats(ctx context.Context, username string) (_ *Stats, err error) {
	defer observeQuery("select", time.Now(), &err)

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	stmt, err := db.prepared(ctx, `SELECT
			COUNT(*),
			COUNT(evaluated_at),
			AVG(overall_experience),
			MAX(overall_experience),
			AVG(brew_time),
			MIN(ts),
			MAX(ts)
		FROM brew_records
		WHERE username = ?`)
	if err != nil {
		return nil, err
	}

	var (
		stats       Stats
		avgOverall  sql.NullFloat64
		bestOverall sql.NullInt64
		avgBrewTime sql.NullFloat64
		firstBrew   sql.NullTime
		lastBrew    sql.NullTime
	)
	err = stmt.QueryRowContext(ctx, username).Scan(
		&stats.TotalBrews, &stats.Evaluated,
		&avgOverall, &bestOverall, &avgBrewTime,
		&firstBrew, &lastBrew,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute brew stats: %w", err)
	}

	if avgOverall.Valid {
		stats.AvgOverall = brew.FloatPtr(avgOverall.Float64)
	}
	if bestOverall.Valid {
		stats.BestOverall = brew.IntPtr(int(bestOverall.Int64))
	}
	if avgBrewTime.Valid {
		stats.AvgBrewTime = brew.FloatPtr(avgBrewTime.Float64)
	}
	if firstBrew.Valid {
		t := firstBrew.Time
		stats.FirstBrewAt = &t
	}
	if lastBrew.Valid {
		t := lastBrew.Time
		stats.LastBrewAt = &t
	}

	return &stats, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord reads one brew_records row in recordColumns order. The
// evaluation is reconstructed only when evaluated_at is set; unrated
// rows come back with a nil Evaluation.
func scanRecord(row rowScanner) (*brew.Record, error) {
	var (
		rec                                brew.Record
		bitterness, acidity, tasteStrength sql.NullInt64
		overall, channeling                sql.NullInt64
		brewTime                           sql.NullFloat64
		evaluatedAt                        sql.NullTime
	)

	err := row.Scan(
		&rec.ID, &rec.Username, &rec.Timestamp,
		&rec.Action.GrindSize, &rec.Action.BrewVolume, &rec.Action.CoffeeDose,
		&rec.State.IsFirstBrew, &rec.State.DaysSinceRoast,
		&bitterness, &acidity, &tasteStrength, &overall, &channeling, &brewTime,
		&evaluatedAt,
	)
	if err != nil {
		return nil, err
	}

	if evaluatedAt.Valid {
		eval := &brew.Evaluation{}
		if bitterness.Valid {
			eval.Bitterness = brew.IntPtr(int(bitterness.Int64))
		}
		if acidity.Valid {
			eval.Acidity = brew.IntPtr(int(acidity.Int64))
		}
		if tasteStrength.Valid {
			eval.TasteStrength = brew.IntPtr(int(tasteStrength.Int64))
		}
		if overall.Valid {
			eval.Overall = brew.IntPtr(int(overall.Int64))
		}
		if channeling.Valid {
			eval.Channeling = brew.IntPtr(int(channeling.Int64))
		}
		if brewTime.Valid {
			eval.BrewTime = brew.FloatPtr(brewTime.Float64)
		}
		rec.Evaluation = eval
	}

	return &rec, nil
}
