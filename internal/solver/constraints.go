package solver

import (
	"fmt"
	"sort"
)

// CheckAssignment verifies every hard constraint against a complete variable
// selection. The engine maintains these rules during search; this closed-form
// check backs the extractor's safety re-verification and the test suite.
// Availability and capacity are structural (no variable exists that violates
// them) so they are not re-checked here.
func CheckAssignment(m *Model, chosen []int) []Violation {
	var violations []Violation

	perReq := make(map[int][]Slot, len(m.Requirements))
	teacherSlot := make(map[resKey]int)
	classSlot := make(map[resKey]int)
	roomSlot := make(map[resKey]int)

	for _, id := range chosen {
		if id < 0 || id >= len(m.Variables) {
			violations = append(violations, Violation{
				Family:  FamilyFulfillment,
				Message: fmt.Sprintf("unknown variable id %d", id),
			})
			continue
		}
		v := m.Variables[id]
		perReq[v.Req] = append(perReq[v.Req], v.Slot)
		teacherSlot[resKey{v.TeacherID, v.Slot}]++
		classSlot[resKey{v.ClassID, v.Slot}]++
		roomSlot[resKey{v.RoomID, v.Slot}]++
	}

	for _, req := range m.Requirements {
		got := len(perReq[req.Index])
		if got != req.Periods {
			violations = append(violations, Violation{
				Family:  FamilyFulfillment,
				Message: fmt.Sprintf("%s: %d of %d required periods scheduled", req.Key(), got, req.Periods),
			})
		}
		if req.Consecutive {
			if v := checkConsecutive(req, perReq[req.Index], m.AllowOddConsecutive); v != nil {
				violations = append(violations, *v)
			}
		}
	}

	violations = append(violations, exclusivityViolations(teacherSlot, FamilyTeacherConflict, "teacher")...)
	violations = append(violations, exclusivityViolations(classSlot, FamilyClassConflict, "class")...)
	violations = append(violations, exclusivityViolations(roomSlot, FamilyRoomConflict, "room")...)
	return violations
}

func exclusivityViolations(counts map[resKey]int, family RuleFamily, kind string) []Violation {
	var out []Violation
	for key, count := range counts {
		if count > 1 {
			out = append(out, Violation{
				Family:  family,
				Message: fmt.Sprintf("%s %s booked %d times at %s", kind, key.id, count, key.slot),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Message < out[j].Message })
	return out
}

// checkConsecutive verifies that the requirement's slots form adjacent-period
// pairs on single days. At most one unpaired period is tolerated, and only
// when the odd leftover is explicitly permitted.
func checkConsecutive(req Requirement, slots []Slot, allowOdd bool) *Violation {
	byDay := make(map[int][]int)
	for _, slot := range slots {
		byDay[slot.Day] = append(byDay[slot.Day], slot.Period)
	}
	unpaired := 0
	for _, periods := range byDay {
		sort.Ints(periods)
		for i := 0; i < len(periods); {
			if i+1 < len(periods) && periods[i+1] == periods[i]+1 {
				i += 2
				continue
			}
			unpaired++
			i++
		}
	}
	if unpaired == 0 {
		return nil
	}
	if allowOdd && unpaired == 1 && req.Periods%2 != 0 {
		return nil
	}
	return &Violation{
		Family:  FamilyConsecutive,
		Message: fmt.Sprintf("%s: %d period(s) not part of an adjacent pair", req.Key(), unpaired),
	}
}
