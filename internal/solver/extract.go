package solver

import (
	"fmt"
	"sort"
)

// Entry is one concrete schedule cell produced from a true decision variable.
type Entry struct {
	ClassID   string `json:"class_id"`
	SubjectID string `json:"subject_id"`
	TeacherID string `json:"teacher_id"`
	RoomID    string `json:"room_id"`
	Slot      Slot   `json:"slot"`
}

// Extract converts a solved result into schedule entries, one per true
// variable, ordered by (day, period, class). Before returning it re-verifies
// the fulfillment and exclusivity invariants; a violation here means the
// builder or engine is defective and surfaces as a *ConsistencyError.
func Extract(m *Model, res *Result) ([]Entry, error) {
	if res == nil || !res.HasSolution() {
		return nil, fmt.Errorf("no solution to extract from state %q", stateOf(res))
	}
	if violations := CheckAssignment(m, res.Chosen); len(violations) > 0 {
		return nil, &ConsistencyError{
			Family: violations[0].Family,
			Detail: violations[0].Message,
		}
	}

	entries := make([]Entry, 0, len(res.Chosen))
	for _, id := range res.Chosen {
		v := m.Variables[id]
		entries = append(entries, Entry{
			ClassID:   v.ClassID,
			SubjectID: v.SubjectID,
			TeacherID: v.TeacherID,
			RoomID:    v.RoomID,
			Slot:      v.Slot,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Slot.Day != b.Slot.Day {
			return a.Slot.Day < b.Slot.Day
		}
		if a.Slot.Period != b.Slot.Period {
			return a.Slot.Period < b.Slot.Period
		}
		return a.ClassID < b.ClassID
	})
	return entries, nil
}

func stateOf(res *Result) ResultState {
	if res == nil {
		return ""
	}
	return res.State
}
