package solver

// Weights scales the soft penalty terms. All weights must be non-negative so
// the objective stays monotonic: lowering the total never worsens any single
// component.
type Weights struct {
	IdleGap         float64 `json:"idle_gap"`
	EarlyDifficult  float64 `json:"early_difficult"`
	WorkloadBalance float64 `json:"workload_balance"`
}

// DefaultWeights mirrors the tuning the generator shipped with: gaps are the
// dominant annoyance, early placement of difficult subjects matters, daily
// load spread is a tiebreaker.
func DefaultWeights() Weights {
	return Weights{IdleGap: 5, EarlyDifficult: 2, WorkloadBalance: 1}
}

// Valid reports whether all weights are non-negative.
func (w Weights) Valid() bool {
	return w.IdleGap >= 0 && w.EarlyDifficult >= 0 && w.WorkloadBalance >= 0
}

// Breakdown itemises the soft objective of a complete assignment.
type Breakdown struct {
	IdleGapPeriods int     `json:"idle_gap_periods"`
	EarlyDifficult int     `json:"early_difficult"`
	WorkloadSpread int     `json:"workload_spread"`
	Total          float64 `json:"total"`
}

// Evaluate computes the weighted objective for the chosen variable set.
// Lower is better.
func Evaluate(m *Model, chosen []int, w Weights) Breakdown {
	var b Breakdown

	type teacherDay struct {
		teacher string
		day     int
	}
	periodsByTeacherDay := make(map[teacherDay][]bool)
	dailyLoad := make(map[teacherDay]int)
	teachers := make(map[string]bool)

	for _, id := range chosen {
		v := m.Variables[id]
		td := teacherDay{v.TeacherID, v.Slot.Day}
		row := periodsByTeacherDay[td]
		if row == nil {
			row = make([]bool, m.Snapshot.Grid.PeriodsPerDay)
			periodsByTeacherDay[td] = row
		}
		row[v.Slot.Period] = true
		dailyLoad[td]++
		teachers[v.TeacherID] = true

		if subject := m.Snapshot.SubjectByID(v.SubjectID); subject != nil && subject.Difficulty == DifficultyDifficult {
			b.EarlyDifficult += v.Slot.Period
		}
	}

	for _, row := range periodsByTeacherDay {
		first, last := -1, -1
		for p, taught := range row {
			if !taught {
				continue
			}
			if first == -1 {
				first = p
			}
			last = p
		}
		for p := first + 1; p < last; p++ {
			if !row[p] {
				b.IdleGapPeriods++
			}
		}
	}

	for teacher := range teachers {
		minLoad, maxLoad := -1, 0
		for day := 0; day < m.Snapshot.Grid.Days; day++ {
			load := dailyLoad[teacherDay{teacher, day}]
			if load > maxLoad {
				maxLoad = load
			}
			if minLoad == -1 || load < minLoad {
				minLoad = load
			}
		}
		if minLoad > 0 || maxLoad > 0 {
			b.WorkloadSpread += maxLoad - minLoad
		}
	}

	b.Total = w.IdleGap*float64(b.IdleGapPeriods) +
		w.EarlyDifficult*float64(b.EarlyDifficult) +
		w.WorkloadBalance*float64(b.WorkloadSpread)
	return b
}

// earlyDifficultDelta is the admissible per-placement lower-bound
// contribution used for branch-and-bound pruning: every other term is
// non-negative, so the accumulated early-difficult cost of placed variables
// never exceeds the final objective.
func earlyDifficultDelta(m *Model, v Variable, w Weights) float64 {
	subject := m.Snapshot.SubjectByID(v.SubjectID)
	if subject == nil || subject.Difficulty != DifficultyDifficult {
		return 0
	}
	return w.EarlyDifficult * float64(v.Slot.Period)
}
