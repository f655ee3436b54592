// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

// Package learn implements the tabular reinforcement learning core:
// a discretizing environment over the espresso parameter space, a
// value table keyed by (state, action), and an epsilon-greedy agent
// that learns from single-shot brew evaluations.
//
// Each brew is one complete episode. There is no successor state, so
// the value update is a single-step exponential moving average toward
// the observed reward rather than a bootstrapped Q-learning target.
package learn

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/godshot/godshot/internal/brew"
)

// Bucket counts per action dimension. Grind uses one bucket per grinder
// setting, so discretization is the identity for it.
const (
	GrindSteps  = 30
	VolumeSteps = 10
	DoseSteps   = 10
)

// ActionSpaceSize is the total number of discrete actions.
const ActionSpaceSize = GrindSteps * VolumeSteps * DoseSteps

// Taste metric scoring bands. Ratings use a 1-10 scale where the
// midpoint represents balance.
const (
	idealMetricMin = 5
	idealMetricMax = 6

	acceptableMetricMin = 4
	acceptableMetricMax = 7
)

// Channeling thresholds on the 1-10 scale.
const (
	lowChannelingThreshold  = 3
	highChannelingThreshold = 7
)

// Brew time thresholds in seconds.
const (
	idealBrewTimeMin = 25.0
	idealBrewTimeMax = 35.0

	minBrewTime = 20.0
	maxBrewTime = 45.0
)

// bucketEpsilon absorbs floating point error in the bucket computation
// so that exact bucket boundary values land in their own bucket and the
// discretize/undiscretize round trip holds for every index.
const bucketEpsilon = 1e-9

// Environment defines the action space, converts between continuous
// actions and discrete table keys, and turns human evaluations into
// scalar rewards in [-1, 1].
//
// All methods are safe for concurrent use.
type Environment struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewEnvironment creates an environment with a time-seeded random source.
func NewEnvironment() *Environment {
	return NewEnvironmentWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewEnvironmentWithRand creates an environment with the given random
// source, for reproducible behavior in tests and simulations.
func NewEnvironmentWithRand(rng *rand.Rand) *Environment {
	return &Environment{rng: rng}
}

// StateKey maps a brewing context to its table row key. Roast age is
// clamped to the learning horizon: beans past it are all "maximally
// stale" and share one key.
func (e *Environment) StateKey(state brew.State) StateKey {
	return StateKey{
		FirstBrew: state.IsFirstBrew,
		RoastAge:  clampInt(state.DaysSinceRoast, 0, brew.RoastAgeHorizon),
	}
}

// Discretize maps an action to its bucket indices. Each dimension is
// divided into equal-width buckets over its bound range.
func (e *Environment) Discretize(action brew.Action) ActionKey {
	return ActionKey{
		Grind:  bucketIndex(float64(action.GrindSize), brew.GrindMin, brew.GrindMax, GrindSteps),
		Volume: bucketIndex(action.BrewVolume, brew.VolumeMin, brew.VolumeMax, VolumeSteps),
		Dose:   bucketIndex(action.CoffeeDose, brew.DoseMin, brew.DoseMax, DoseSteps),
	}
}

// Undiscretize maps bucket indices back to a concrete action. Grind is
// rounded to the nearest integer setting; volume and dose stay real.
func (e *Environment) Undiscretize(key ActionKey) brew.Action {
	return brew.Action{
		GrindSize:  int(math.Round(bucketValue(key.Grind, brew.GrindMin, brew.GrindMax, GrindSteps))),
		BrewVolume: bucketValue(key.Volume, brew.VolumeMin, brew.VolumeMax, VolumeSteps),
		CoffeeDose: bucketValue(key.Dose, brew.DoseMin, brew.DoseMax, DoseSteps),
	}
}

// RandomAction returns an action drawn uniformly from the bound ranges,
// used for exploration.
func (e *Environment) RandomAction() brew.Action {
	e.mu.Lock()
	defer e.mu.Unlock()

	return brew.Action{
		GrindSize:  brew.GrindMin + e.rng.Intn(brew.GrindMax-brew.GrindMin+1),
		BrewVolume: brew.VolumeMin + e.rng.Float64()*(brew.VolumeMax-brew.VolumeMin),
		CoffeeDose: brew.DoseMin + e.rng.Float64()*(brew.DoseMax-brew.DoseMin),
	}
}

// BaselineAction returns the neutral cold-start action: standard
// espresso values, independent of context.
func (e *Environment) BaselineAction(_ brew.State) brew.Action {
	return brew.Action{
		GrindSize:  15,
		BrewVolume: 40.0,
		CoffeeDose: 18.0,
	}
}

// Reward converts an evaluation into a scalar in [-1, 1].
//
// The primary term comes from the overall experience rating when
// present, otherwise from averaging the per-metric scores of whichever
// taste metrics were rated. Channeling and brew time each contribute a
// small additive adjustment, then the sum is clamped. The additive,
// clamped composition means a single bad signal can offset a good
// overall score only partially, never dominate it.
func (e *Environment) Reward(eval brew.Evaluation) float64 {
	var reward float64
	if eval.Overall != nil {
		reward = (float64(*eval.Overall) - 5.5) / 4.5
	} else {
		reward = metricsReward(eval)
	}

	reward += channelingAdjustment(eval)
	reward += brewTimeAdjustment(eval)

	return math.Max(-1.0, math.Min(1.0, reward))
}

// metricsReward averages the scores of the present taste metrics, or
// returns 0 if none were rated.
func metricsReward(eval brew.Evaluation) float64 {
	var sum float64
	var n int

	for _, value := range []*int{eval.Bitterness, eval.Acidity, eval.TasteStrength} {
		if value == nil {
			continue
		}
		switch {
		case *value >= idealMetricMin && *value <= idealMetricMax:
			sum += 0.5
		case *value >= acceptableMetricMin && *value <= acceptableMetricMax:
			sum += 0.2
		default:
			sum -= 0.2
		}
		n++
	}

	if n == 0 {
		return 0.0
	}
	return sum / float64(n)
}

// channelingAdjustment rewards even extraction and penalizes severe
// channeling.
func channelingAdjustment(eval brew.Evaluation) float64 {
	if eval.Channeling == nil {
		return 0.0
	}
	if *eval.Channeling <= lowChannelingThreshold {
		return 0.1
	}
	if *eval.Channeling >= highChannelingThreshold {
		return -0.2
	}
	return 0.0
}

// brewTimeAdjustment rewards shots pulled in the ideal window and
// penalizes far-off extraction times.
func brewTimeAdjustment(eval brew.Evaluation) float64 {
	if eval.BrewTime == nil {
		return 0.0
	}
	if *eval.BrewTime >= idealBrewTimeMin && *eval.BrewTime <= idealBrewTimeMax {
		return 0.1
	}
	if *eval.BrewTime < minBrewTime || *eval.BrewTime > maxBrewTime {
		return -0.1
	}
	return 0.0
}

// rand01 returns a uniform value in [0, 1) from the environment's
// random source.
func (e *Environment) rand01() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64()
}

// bucketIndex maps a value to its equal-width bucket index, clamped
// into [0, steps-1].
func bucketIndex(value, minVal, maxVal float64, steps int) int {
	if steps <= 1 {
		return 0
	}

	ratio := (value - minVal) / (maxVal - minVal)
	idx := int(math.Floor(ratio*float64(steps-1) + bucketEpsilon))

	return clampInt(idx, 0, steps-1)
}

// bucketValue maps a bucket index back to its representative value.
func bucketValue(idx int, minVal, maxVal float64, steps int) float64 {
	if steps <= 1 {
		return minVal
	}
	return minVal + float64(idx)/float64(steps-1)*(maxVal-minVal)
}
