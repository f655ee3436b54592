// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

// Package engine orchestrates one brewing session: the active user, their
// learning agent, the brew history, and the persisted Q-table snapshots.
//
// Both frontends (the interactive shell and the HTTP API) drive the same
// Engine, so the suggest/evaluate lifecycle, its guards, and its side
// effects (history row, snapshot persist, event publish, metrics) live
// here and nowhere else. All session operations are serialized by a
// single mutex; the underlying stores are safe for concurrent use but a
// session is a strictly ordered conversation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/godshot/godshot/internal/brew"
	"github.com/godshot/godshot/internal/database"
	"github.com/godshot/godshot/internal/events"
	"github.com/godshot/godshot/internal/learn"
	"github.com/godshot/godshot/internal/logging"
	"github.com/godshot/godshot/internal/metrics"
	"github.com/godshot/godshot/internal/storage"
)

// Session guard errors. Frontends match these with errors.Is to produce
// their own wording.
var (
	// ErrNoUser is returned by session operations before any user has
	// been selected.
	ErrNoUser = errors.New("no user selected")

	// ErrNoRoastDate is returned by Suggest when the active user has not
	// set a roast date yet. The brewing context cannot be built without
	// one.
	ErrNoRoastDate = errors.New("no roast date set")

	// ErrNoRecord is returned by Evaluate when the user has no brew to
	// evaluate.
	ErrNoRecord = errors.New("no brew to evaluate")

	// ErrAlreadyEvaluated is returned by Evaluate when the most recent
	// brew already carries feedback.
	ErrAlreadyEvaluated = errors.New("last brew has already been evaluated")
)

// Stats combines history aggregates with the live learning state of the
// active session.
type Stats struct {
	Username     string          `json:"username"`
	History      *database.Stats `json:"history"`
	TableStates  int             `json:"qtable_states"`
	TableEntries int             `json:"qtable_entries"`
	Epsilon      float64         `json:"epsilon"`
}

// Engine coordinates the suggest/evaluate lifecycle for the active user.
//
// Switching users persists the outgoing user's Q-table and loads the
// incoming one into a fresh agent, so an evaluation can never be
// attributed to another user's table.
type Engine struct {
	store    *storage.Store
	db       *database.DB
	agentCfg learn.Config

	// publisher is optional; a nil publisher disables event emission.
	publisher *events.Publisher

	mu       sync.Mutex
	username string
	agent    *learn.Agent
}

// New creates an engine over the given snapshot store and brew history.
// No user is active until SwitchUser or AutoLoadLastUser succeeds.
func New(store *storage.Store, db *database.DB, agentCfg learn.Config) *Engine {
	return &Engine{
		store:    store,
		db:       db,
		agentCfg: agentCfg,
	}
}

// SetPublisher wires the event publisher. Must be called before the
// engine starts serving requests; a nil publisher keeps events disabled.
func (e *Engine) SetPublisher(p *events.Publisher) {
	e.publisher = p
}

// CurrentUser returns the active username, or "" when no user is
// selected.
func (e *Engine) CurrentUser() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.username
}

// Epsilon returns the active session's exploration rate, or 0 when no
// user is selected.
func (e *Engine) Epsilon() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.agent == nil {
		return 0
	}
	return e.agent.Epsilon()
}

// SwitchUser makes username the active user: the outgoing user's
// snapshot is persisted, the incoming user's snapshot is loaded into a
// fresh agent, and the user is registered as known and as the last
// active user for the next startup.
func (e *Engine) SwitchUser(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return storage.ErrEmptyUsername
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Persist the outgoing user before their agent is replaced. Failing
	// here aborts the switch; replacing the agent anyway would drop
	// everything learned since the last save.
	if err := e.saveSnapshotLocked(ctx); err != nil {
		return fmt.Errorf("persist snapshot for %s: %w", e.username, err)
	}

	agent := learn.New(e.agentCfg)

	snapshot, err := e.store.LoadQTable(ctx, username)
	if err != nil {
		return fmt.Errorf("load snapshot for %s: %w", username, err)
	}
	if dropped := agent.RestoreTable(snapshot); dropped > 0 {
		logging.Warn().
			Str("component", "engine").
			Str("username", username).
			Int("dropped", dropped).
			Msg("Dropped malformed Q-table entries while loading snapshot")
	}

	if err := e.store.RegisterUser(ctx, username); err != nil {
		return fmt.Errorf("register user %s: %w", username, err)
	}
	if err := e.store.SetLastUser(ctx, username); err != nil {
		return fmt.Errorf("set last user %s: %w", username, err)
	}

	e.username = username
	e.agent = agent

	metrics.SetEpsilon(agent.Epsilon())
	metrics.SetQTableSize(agent.TableStates(), agent.TableEntries())

	logging.Info().
		Str("component", "engine").
		Str("username", username).
		Int("qtable_states", agent.TableStates()).
		Int("qtable_entries", agent.TableEntries()).
		Msg("Switched user")

	return nil
}

// AutoLoadLastUser resumes the most recently active user, if any. It
// reports ok=false when no user has been active before, which is not an
// error.
func (e *Engine) AutoLoadLastUser(ctx context.Context) (username string, ok bool, err error) {
	username, ok, err = e.store.LastUser(ctx)
	if err != nil {
		return "", false, fmt.Errorf("load last user: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	if err := e.SwitchUser(ctx, username); err != nil {
		return "", false, err
	}
	return username, true, nil
}

// Suggest asks the agent for the next brewing parameters, records the
// attempt as an unevaluated history row, and publishes a suggestion
// event. It requires an active user with a roast date, since the
// brewing context is derived from bean age.
func (e *Engine) Suggest(ctx context.Context, firstBrew bool) (*brew.Record, learn.Mode, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.agent == nil {
		return nil, "", ErrNoUser
	}

	roastDate, ok, err := e.store.RoastDate(ctx, e.username)
	if err != nil {
		return nil, "", fmt.Errorf("load roast date: %w", err)
	}
	if !ok {
		return nil, "", ErrNoRoastDate
	}

	state := brew.NewState(firstBrew, roastDate, time.Now())
	action, mode := e.agent.Suggest(state)

	record := brew.NewRecord(e.username, action, state)
	if err := e.db.InsertRecord(ctx, record); err != nil {
		// The suggestion never reached the history, so the next reward
		// must not be attributed to it.
		e.agent.ResetCursor()
		return nil, "", fmt.Errorf("insert brew record: %w", err)
	}

	metrics.RecordSuggestion(string(mode))
	e.publishSuggested(ctx, state, action, mode)

	logging.Info().
		Str("component", "engine").
		Str("username", e.username).
		Str("mode", string(mode)).
		Int("grind_size", action.GrindSize).
		Float64("brew_volume", action.BrewVolume).
		Float64("coffee_dose", action.CoffeeDose).
		Bool("is_first_brew", state.IsFirstBrew).
		Int("days_since_roast", state.DaysSinceRoast).
		Msg("Suggested brew parameters")

	return record, mode, nil
}

// Evaluate attaches feedback to the most recent brew, lets the agent
// learn from it, persists the updated snapshot, and publishes an
// evaluation event. The computed reward is returned for display.
//
// Each brew accepts exactly one evaluation: a second call without a new
// suggestion returns ErrAlreadyEvaluated.
func (e *Engine) Evaluate(ctx context.Context, eval brew.Evaluation) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.agent == nil {
		return 0, ErrNoUser
	}

	validated, err := brew.NewEvaluation(eval)
	if err != nil {
		return 0, err
	}

	last, err := e.db.LastRecord(ctx, e.username)
	if errors.Is(err, database.ErrRecordNotFound) {
		return 0, ErrNoRecord
	}
	if err != nil {
		return 0, fmt.Errorf("load last brew record: %w", err)
	}
	if last.Evaluated() {
		return 0, ErrAlreadyEvaluated
	}

	if err := e.db.AttachEvaluation(ctx, last.ID, validated); err != nil {
		return 0, fmt.Errorf("attach evaluation: %w", err)
	}

	// With no pending suggestion (user switched since suggesting, or the
	// process restarted) the feedback is kept in the history but cannot
	// be attributed to a table cell.
	reward, updated := e.agent.Learn(*validated)
	if !updated {
		reward = e.agent.Reward(*validated)
		logging.Warn().
			Str("component", "engine").
			Str("username", e.username).
			Str("record_id", last.ID).
			Msg("Evaluation recorded without a pending suggestion, no table update applied")
	}

	if err := e.saveSnapshotLocked(ctx); err != nil {
		// The evaluation and the in-memory update are intact; the next
		// successful save persists them.
		logging.Error().
			Str("component", "engine").
			Str("username", e.username).
			Err(err).
			Msg("Failed to persist Q-table snapshot after evaluation")
	}

	metrics.RecordEvaluation(reward)
	metrics.SetEpsilon(e.agent.Epsilon())
	metrics.SetQTableSize(e.agent.TableStates(), e.agent.TableEntries())
	e.publishEvaluated(ctx, last.State, last.Action, *validated, reward)

	logging.Info().
		Str("component", "engine").
		Str("username", e.username).
		Str("record_id", last.ID).
		Float64("reward", reward).
		Bool("table_updated", updated).
		Float64("epsilon", e.agent.Epsilon()).
		Msg("Evaluation recorded")

	return reward, nil
}

// SetRoastDate stores the roast date of the active user's current beans.
// Only the calendar day matters, so the date is normalized to midnight
// UTC.
func (e *Engine) SetRoastDate(ctx context.Context, date time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.agent == nil {
		return ErrNoUser
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if err := e.store.SetRoastDate(ctx, e.username, day); err != nil {
		return fmt.Errorf("set roast date: %w", err)
	}

	logging.Info().
		Str("component", "engine").
		Str("username", e.username).
		Str("roast_date", day.Format("2006-01-02")).
		Msg("Roast date updated")

	return nil
}

// RoastDate returns the active user's roast date. ok is false when none
// has been set.
func (e *Engine) RoastDate(ctx context.Context) (date time.Time, ok bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.agent == nil {
		return time.Time{}, false, ErrNoUser
	}
	return e.store.RoastDate(ctx, e.username)
}

// LastRecord returns the active user's most recent brew attempt. The
// shell uses it to check the evaluation guards before prompting for
// ratings. Returns ErrNoRecord when the user has no history.
func (e *Engine) LastRecord(ctx context.Context) (*brew.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.agent == nil {
		return nil, ErrNoUser
	}

	last, err := e.db.LastRecord(ctx, e.username)
	if errors.Is(err, database.ErrRecordNotFound) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("load last brew record: %w", err)
	}
	return last, nil
}

// Stats returns history aggregates and the live learning state for the
// active user.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.agent == nil {
		return nil, ErrNoUser
	}

	history, err := e.db.Stats(ctx, e.username)
	if err != nil {
		return nil, fmt.Errorf("compute history stats: %w", err)
	}

	return &Stats{
		Username:     e.username,
		History:      history,
		TableStates:  e.agent.TableStates(),
		TableEntries: e.agent.TableEntries(),
		Epsilon:      e.agent.Epsilon(),
	}, nil
}

// Records returns the active user's brew history, oldest first. A limit
// <= 0 returns the full history.
func (e *Engine) Records(ctx context.Context, limit int) ([]brew.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.agent == nil {
		return nil, ErrNoUser
	}
	return e.db.ListRecords(ctx, e.username, limit)
}

// Users lists all known usernames. Available without an active session
// so the startup prompt can offer existing profiles.
func (e *Engine) Users(ctx context.Context) ([]string, error) {
	return e.store.ListUsers(ctx)
}

// BestActions returns up to k learned actions for the current brewing
// context, best first. Like Suggest it needs a roast date to build the
// context; unlike Suggest it records nothing and never explores.
func (e *Engine) BestActions(ctx context.Context, firstBrew bool, k int) ([]learn.ScoredAction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.agent == nil {
		return nil, ErrNoUser
	}

	roastDate, ok, err := e.store.RoastDate(ctx, e.username)
	if err != nil {
		return nil, fmt.Errorf("load roast date: %w", err)
	}
	if !ok {
		return nil, ErrNoRoastDate
	}

	state := brew.NewState(firstBrew, roastDate, time.Now())
	return e.agent.BestActions(state, k), nil
}

// Save persists the active user's Q-table snapshot. Evaluations already
// save automatically; this exists for explicit saves before shutdown.
func (e *Engine) Save(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.agent == nil {
		return ErrNoUser
	}
	return e.saveSnapshotLocked(ctx)
}

// saveSnapshotLocked persists the current agent's table under the active
// username. Callers must hold e.mu. With no active session it is a
// no-op.
func (e *Engine) saveSnapshotLocked(ctx context.Context) error {
	if e.agent == nil {
		return nil
	}

	err := e.store.SaveQTable(ctx, e.username, e.agent.SnapshotTable())
	metrics.RecordSnapshotSave(err)
	return err
}

// publishSuggested emits a suggestion event. Publish failures are logged
// and swallowed; a brew suggestion must not fail because the event bus
// is unavailable.
func (e *Engine) publishSuggested(ctx context.Context, state brew.State, action brew.Action, mode learn.Mode) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishSuggested(ctx, e.username, state, action, string(mode)); err != nil {
		logging.Warn().
			Str("component", "engine").
			Str("username", e.username).
			Err(err).
			Msg("Failed to publish suggestion event")
	}
}

// publishEvaluated emits an evaluation event, with the same
// fire-and-forget error handling as publishSuggested.
func (e *Engine) publishEvaluated(ctx context.Context, state brew.State, action brew.Action, eval brew.Evaluation, reward float64) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishEvaluated(ctx, e.username, state, action, eval, reward); err != nil {
		logging.Warn().
			Str("component", "engine").
			Str("username", e.username).
			Err(err).
			Msg("Failed to publish evaluation event")
	}
}
