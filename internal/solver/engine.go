package solver

import (
	"context"
	"sort"
	"time"
)

// ResultState is the terminal state of a solve run.
type ResultState string

const (
	// StateFeasible means search completed and the returned assignment is
	// optimal for the pinned branching order.
	StateFeasible ResultState = "FEASIBLE"
	// StateInfeasible means propagation or exhaustive search proved no
	// assignment satisfies the hard constraints.
	StateInfeasible ResultState = "INFEASIBLE"
	// StateTimedOut means the budget expired after at least one feasible
	// assignment was found; the best one found so far is returned.
	StateTimedOut ResultState = "TIMED_OUT"
	// StateInfeasibleUnknown means the budget expired before any feasible
	// assignment was found; feasibility is undetermined.
	StateInfeasibleUnknown ResultState = "INFEASIBLE_UNKNOWN"
)

// Time budget bounds. Requests outside the range are clamped.
const (
	DefaultTimeLimit = 60 * time.Second
	MinTimeLimit     = 10 * time.Second
	MaxTimeLimit     = 300 * time.Second
)

// ClampTimeLimit normalises a requested budget into the supported range.
func ClampTimeLimit(limit time.Duration) time.Duration {
	if limit <= 0 {
		return DefaultTimeLimit
	}
	if limit < MinTimeLimit {
		return MinTimeLimit
	}
	if limit > MaxTimeLimit {
		return MaxTimeLimit
	}
	return limit
}

// Config tunes a solve run.
type Config struct {
	TimeLimit time.Duration
	Weights   Weights
}

// Stats summarises the search effort.
type Stats struct {
	Branches     int64         `json:"branches"`
	Propagations int64         `json:"propagations"`
	Solutions    int           `json:"solutions"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Result carries the outcome of a solve run. Chosen is nil unless State is
// FEASIBLE or TIMED_OUT.
type Result struct {
	State     ResultState
	Chosen    []int
	Objective Breakdown
	Stats     Stats
}

// HasSolution reports whether the result carries a usable assignment.
func (r *Result) HasSolution() bool {
	return r.State == StateFeasible || r.State == StateTimedOut
}

// Solve runs constraint propagation followed by branch-and-bound over the
// model. The branching order is a pinned contract, not a tunable: the
// requirement with the fewest live candidates branches first (ties by
// requirement index), and candidates are tried in ascending early-difficult
// penalty (ties by variable id). Given identical inputs, weights, and an
// unexpired budget, the engine is deterministic.
//
// The engine never mutates the snapshot; cancellation is cooperative and
// checked at bounded intervals, so the wall-clock overshoot past the budget
// stays small.
func Solve(ctx context.Context, m *Model, cfg Config) *Result {
	start := time.Now()
	s := newSearch(m, cfg, start)

	result := &Result{State: StateInfeasible}
	defer func() {
		result.Stats = s.stats
		result.Stats.Elapsed = time.Since(start)
	}()

	// Propagation phase: a requirement can already be short of candidates
	// when availability masks leave fewer open slots than periods required.
	if !s.propagateInitial() {
		return result
	}

	s.branch(ctx)

	switch {
	case s.best != nil && !s.timedOut:
		result.State = StateFeasible
	case s.best != nil:
		result.State = StateTimedOut
	case s.timedOut:
		result.State = StateInfeasibleUnknown
	default:
		result.State = StateInfeasible
	}
	if s.best != nil {
		result.Chosen = s.best
		result.Objective = s.bestObjective
	}
	return result
}

type varPair struct {
	first  int
	second int
	delta  float64
}

type search struct {
	m        *Model
	weights  Weights
	deadline time.Time

	alive     []bool
	liveCount []int
	need      []int
	chosen    []int
	bound     float64

	ordered []int       // candidate order per requirement, flattened
	offsets []int       // requirement -> start index into ordered
	pairs   [][]varPair // per requirement, adjacent-period pairs (consecutive only)

	// Period instances of one requirement are interchangeable, so choices
	// within a requirement are explored in increasing candidate position
	// only. picks stacks the last position taken per requirement.
	picks     [][]int
	pairPicks [][]int

	best          []int
	bestObjective Breakdown
	timedOut      bool
	stats         Stats
}

func newSearch(m *Model, cfg Config, start time.Time) *search {
	s := &search{
		m:         m,
		weights:   cfg.Weights,
		deadline:  start.Add(ClampTimeLimit(cfg.TimeLimit)),
		alive:     make([]bool, len(m.Variables)),
		liveCount: make([]int, len(m.Requirements)),
		need:      make([]int, len(m.Requirements)),
		offsets:   make([]int, len(m.Requirements)+1),
		pairs:     make([][]varPair, len(m.Requirements)),
		picks:     make([][]int, len(m.Requirements)),
		pairPicks: make([][]int, len(m.Requirements)),
	}
	if !s.weights.Valid() {
		s.weights = DefaultWeights()
	}
	for i := range s.alive {
		s.alive[i] = true
	}
	for _, req := range m.Requirements {
		s.liveCount[req.Index] = len(req.Candidates)
		s.need[req.Index] = req.Periods

		order := append([]int(nil), req.Candidates...)
		sort.Slice(order, func(i, j int) bool {
			di := earlyDifficultDelta(m, m.Variables[order[i]], s.weights)
			dj := earlyDifficultDelta(m, m.Variables[order[j]], s.weights)
			if di != dj {
				return di < dj
			}
			return order[i] < order[j]
		})
		s.offsets[req.Index+1] = s.offsets[req.Index] + len(order)
		s.ordered = append(s.ordered, order...)

		if req.Consecutive {
			s.pairs[req.Index] = buildPairs(m, order, s.weights)
		}
	}
	return s
}

// buildPairs enumerates adjacent-period candidate pairs for a consecutive
// requirement, cheapest first.
func buildPairs(m *Model, candidates []int, w Weights) []varPair {
	bySlot := make(map[Slot][]int)
	for _, id := range candidates {
		bySlot[m.Variables[id].Slot] = append(bySlot[m.Variables[id].Slot], id)
	}
	var pairs []varPair
	for _, first := range candidates {
		v := m.Variables[first]
		next := Slot{Day: v.Slot.Day, Period: v.Slot.Period + 1}
		for _, second := range bySlot[next] {
			// A teacher cannot occupy two rooms at once, so the pair must
			// share its room.
			if m.Variables[second].RoomID != v.RoomID {
				continue
			}
			pairs = append(pairs, varPair{
				first:  first,
				second: second,
				delta:  earlyDifficultDelta(m, v, w) + earlyDifficultDelta(m, m.Variables[second], w),
			})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].delta != pairs[j].delta {
			return pairs[i].delta < pairs[j].delta
		}
		if pairs[i].first != pairs[j].first {
			return pairs[i].first < pairs[j].first
		}
		return pairs[i].second < pairs[j].second
	})
	return pairs
}

func (s *search) propagateInitial() bool {
	for i := range s.need {
		if s.liveCount[i] < s.need[i] {
			return false
		}
	}
	return true
}

// expired checks the cooperative budget. Called once per branching decision.
func (s *search) expired(ctx context.Context) bool {
	if s.timedOut {
		return true
	}
	if s.stats.Branches&0x3f == 1 {
		if ctx.Err() != nil || time.Now().After(s.deadline) {
			s.timedOut = true
		}
	}
	return s.timedOut
}

// pickRequirement returns the unsatisfied requirement with the fewest live
// candidates, or -1 when the assignment is complete.
func (s *search) pickRequirement() int {
	picked, pickedLive := -1, 0
	for i := range s.need {
		if s.need[i] == 0 {
			continue
		}
		if picked == -1 || s.liveCount[i] < pickedLive {
			picked, pickedLive = i, s.liveCount[i]
		}
	}
	return picked
}

func (s *search) branch(ctx context.Context) {
	s.stats.Branches++
	if s.expired(ctx) {
		return
	}
	if s.best != nil && s.bound >= s.bestObjective.Total {
		return
	}

	reqIdx := s.pickRequirement()
	if reqIdx == -1 {
		s.recordSolution()
		return
	}
	req := s.m.Requirements[reqIdx]

	if req.Consecutive && s.need[reqIdx] >= 2 {
		floor := -1
		if stack := s.pairPicks[reqIdx]; len(stack) > 0 {
			floor = stack[len(stack)-1]
		}
		for pos, pair := range s.pairs[reqIdx] {
			if pos <= floor || !s.alive[pair.first] || !s.alive[pair.second] {
				continue
			}
			trail := s.place(pair.first)
			if s.alive[pair.second] {
				trail = append(trail, s.place(pair.second)...)
				if s.consistent() {
					s.pairPicks[reqIdx] = append(s.pairPicks[reqIdx], pos)
					s.branch(ctx)
					s.pairPicks[reqIdx] = s.pairPicks[reqIdx][:len(s.pairPicks[reqIdx])-1]
				}
			}
			s.undo(trail)
			if s.timedOut {
				return
			}
		}
		return
	}

	floor := -1
	if stack := s.picks[reqIdx]; len(stack) > 0 {
		floor = stack[len(stack)-1]
	}
	for pos, id := range s.ordered[s.offsets[reqIdx]:s.offsets[reqIdx+1]] {
		if pos <= floor || !s.alive[id] {
			continue
		}
		trail := s.place(id)
		if s.consistent() {
			s.picks[reqIdx] = append(s.picks[reqIdx], pos)
			s.branch(ctx)
			s.picks[reqIdx] = s.picks[reqIdx][:len(s.picks[reqIdx])-1]
		}
		s.undo(trail)
		if s.timedOut {
			return
		}
	}
}

// place commits a variable: records it in the partial assignment and forces
// false every live variable sharing one of its exclusive resources. The
// returned trail undoes the decision.
func (s *search) place(id int) []int {
	v := s.m.Variables[id]
	s.chosen = append(s.chosen, id)
	s.need[v.Req]--
	s.bound += earlyDifficultDelta(s.m, v, s.weights)

	trail := []int{-1} // sentinel marking one chosen entry
	kill := func(other int) {
		if !s.alive[other] {
			return
		}
		s.alive[other] = false
		s.liveCount[s.m.Variables[other].Req]--
		trail = append(trail, other)
		s.stats.Propagations++
	}
	for _, other := range s.m.VarsForTeacherSlot(v.TeacherID, v.Slot) {
		kill(other)
	}
	for _, other := range s.m.VarsForClassSlot(v.ClassID, v.Slot) {
		kill(other)
	}
	for _, other := range s.m.VarsForRoomSlot(v.RoomID, v.Slot) {
		kill(other)
	}
	return trail
}

func (s *search) undo(trail []int) {
	for i := len(trail) - 1; i >= 0; i-- {
		id := trail[i]
		if id == -1 {
			last := s.chosen[len(s.chosen)-1]
			v := s.m.Variables[last]
			s.chosen = s.chosen[:len(s.chosen)-1]
			s.need[v.Req]++
			s.bound -= earlyDifficultDelta(s.m, v, s.weights)
			continue
		}
		s.alive[id] = true
		s.liveCount[s.m.Variables[id].Req]++
	}
}

// consistent verifies that every unsatisfied requirement still has enough
// live candidates to be completed.
func (s *search) consistent() bool {
	for i := range s.need {
		if s.liveCount[i] < s.need[i] {
			return false
		}
	}
	return true
}

// recordSolution keeps the assignment when it strictly improves on the best
// found so far. Equal objectives keep the earlier solution, which pins the
// tie-break to earliest-found.
func (s *search) recordSolution() {
	s.stats.Solutions++
	objective := Evaluate(s.m, s.chosen, s.weights)
	if s.best != nil && objective.Total >= s.bestObjective.Total {
		return
	}
	s.best = append([]int(nil), s.chosen...)
	sort.Ints(s.best)
	s.bestObjective = objective
}
