// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package learn

import (
	"math"
	"sync"

	"github.com/godshot/godshot/internal/brew"
)

// Config contains the agent's learning parameters.
type Config struct {
	// LearningRate is the step size toward each observed reward.
	// Typical range: 0.05-0.3.
	LearningRate float64

	// DiscountFactor is accepted for API symmetry with multi-step
	// formulations. Each brew is a single-shot episode with no
	// successor state, so it never enters the update.
	DiscountFactor float64

	// Epsilon is the initial exploration rate: the probability of
	// suggesting a random action instead of the best known one.
	Epsilon float64

	// EpsilonDecay is the multiplicative decay applied to epsilon
	// after every learning update.
	EpsilonDecay float64

	// MinEpsilon is the exploration floor; epsilon never decays
	// below it.
	MinEpsilon float64
}

// DefaultConfig returns the standard agent parameters.
func DefaultConfig() Config {
	return Config{
		LearningRate:   0.1,
		DiscountFactor: 0.95,
		Epsilon:        0.1,
		EpsilonDecay:   0.995,
		MinEpsilon:     0.01,
	}
}

// ScoredAction pairs an action with its learned value, for
// recommendation display.
type ScoredAction struct {
	Action brew.Action `json:"action"`
	Value  float64     `json:"value"`
}

// Mode classifies how a suggestion was chosen.
type Mode string

const (
	// ModeExplore marks a uniform random suggestion.
	ModeExplore Mode = "explore"
	// ModeExploit marks the best known action for the context.
	ModeExploit Mode = "exploit"
	// ModeBaseline marks the fallback for a context with no learned
	// values yet.
	ModeBaseline Mode = "baseline"
)

// cursor is the pending suggestion awaiting an evaluation.
type cursor struct {
	state  StateKey
	action ActionKey
}

// Agent is an epsilon-greedy learner over the discretized espresso
// parameter space. It suggests actions for a brewing context, then
// attributes the next evaluation's reward to the suggested cell.
//
// All methods are safe for concurrent use.
type Agent struct {
	cfg   Config
	env   *Environment
	table *QTable

	epsilon float64
	pending *cursor

	mu sync.RWMutex
}

// New creates an agent with a time-seeded environment. Out-of-range
// config values fall back to the defaults.
func New(cfg Config) *Agent {
	return NewWithEnvironment(cfg, NewEnvironment())
}

// NewWithEnvironment creates an agent using the given environment, for
// reproducible behavior in tests.
func NewWithEnvironment(cfg Config, env *Environment) *Agent {
	def := DefaultConfig()
	if cfg.LearningRate <= 0 || cfg.LearningRate > 1 {
		cfg.LearningRate = def.LearningRate
	}
	if cfg.DiscountFactor < 0 || cfg.DiscountFactor > 1 {
		cfg.DiscountFactor = def.DiscountFactor
	}
	if cfg.Epsilon < 0 || cfg.Epsilon > 1 {
		cfg.Epsilon = def.Epsilon
	}
	if cfg.EpsilonDecay <= 0 || cfg.EpsilonDecay > 1 {
		cfg.EpsilonDecay = def.EpsilonDecay
	}
	if cfg.MinEpsilon < 0 || cfg.MinEpsilon > cfg.Epsilon {
		cfg.MinEpsilon = def.MinEpsilon
	}

	return &Agent{
		cfg:     cfg,
		env:     env,
		table:   NewQTable(),
		epsilon: cfg.Epsilon,
	}
}

// Suggest returns the next action to brew with for the given context,
// along with how it was chosen: a uniform random action with
// probability epsilon, otherwise the best known action for the
// context's table row, or the baseline when the row is empty.
//
// The suggestion is recorded as the pending cursor so the next Learn
// call can attribute its reward to this cell.
func (a *Agent) Suggest(state brew.State) (brew.Action, Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()

	stateKey := a.env.StateKey(state)

	var (
		action brew.Action
		mode   Mode
	)
	if a.env.rand01() < a.epsilon {
		action = a.env.RandomAction()
		mode = ModeExplore
	} else if best, _, ok := a.table.Best(stateKey); ok {
		action = a.env.Undiscretize(best)
		mode = ModeExploit
	} else {
		action = a.env.BaselineAction(state)
		mode = ModeBaseline
	}

	a.pending = &cursor{state: stateKey, action: a.env.Discretize(action)}
	return action, mode
}

// SuggestAction is Suggest without the mode, for callers that only
// need the action.
func (a *Agent) SuggestAction(state brew.State) brew.Action {
	action, _ := a.Suggest(state)
	return action
}

// Learn applies the evaluation's reward to the pending suggestion and
// decays the exploration rate. With no pending suggestion it is a
// no-op and reports updated=false.
//
// The cursor is left in place, so evaluating again before the next
// suggestion re-applies to the same cell. Callers switching users must
// call ResetCursor first.
func (a *Agent) Learn(eval brew.Evaluation) (reward float64, updated bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pending == nil {
		return 0, false
	}

	reward = a.env.Reward(eval)

	current := a.table.Get(a.pending.state, a.pending.action)
	a.table.Set(a.pending.state, a.pending.action, current+a.cfg.LearningRate*(reward-current))

	a.epsilon = math.Max(a.cfg.MinEpsilon, a.epsilon*a.cfg.EpsilonDecay)

	return reward, true
}

// BestActions returns up to k learned actions for the context sorted
// by value descending. An empty row yields exactly one entry: the
// baseline action with value zero.
func (a *Agent) BestActions(state brew.State, k int) []ScoredAction {
	a.mu.RLock()
	defer a.mu.RUnlock()

	entries := a.table.TopK(a.env.StateKey(state), k)
	if len(entries) == 0 {
		return []ScoredAction{{Action: a.env.BaselineAction(state), Value: 0.0}}
	}

	out := make([]ScoredAction, len(entries))
	for i, entry := range entries {
		out[i] = ScoredAction{Action: a.env.Undiscretize(entry.Key), Value: entry.Value}
	}
	return out
}

// ResetCursor clears the pending suggestion without applying any
// update. Callers must invoke this when switching users so one user's
// evaluation is never attributed to another's table.
func (a *Agent) ResetCursor() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = nil
}

// Pending reports whether a suggestion is awaiting evaluation.
func (a *Agent) Pending() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pending != nil
}

// Epsilon returns the current exploration rate.
func (a *Agent) Epsilon() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.epsilon
}

// SetEpsilon overrides the current exploration rate, clamped into
// [0, 1]. Used when restoring persisted agent state.
func (a *Agent) SetEpsilon(epsilon float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.epsilon = math.Max(0, math.Min(1, epsilon))
}

// Reward exposes the environment's reward model without learning.
func (a *Agent) Reward(eval brew.Evaluation) float64 {
	return a.env.Reward(eval)
}

// TableStates returns the number of contexts with learned values.
func (a *Agent) TableStates() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.table.States()
}

// TableEntries returns the total number of learned cells.
func (a *Agent) TableEntries() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.table.Entries()
}

// SnapshotTable returns the table in its string-keyed persistence form.
func (a *Agent) SnapshotTable() map[string]map[string]float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.table.Snapshot()
}

// RestoreTable replaces the table from its persistence form, dropping
// malformed entries rather than failing. Returns the number of entries
// dropped. The pending cursor is left untouched; callers switching
// users combine this with ResetCursor.
func (a *Agent) RestoreTable(data map[string]map[string]float64) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.table.Restore(data)
}
