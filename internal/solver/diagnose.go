package solver

import (
	"fmt"
	"sort"
)

// Diagnose isolates which hard-constraint families are responsible for an
// infeasible (or undetermined) solve. Each relaxable family is lifted in
// isolation and a cheap greedy feasibility probe re-run; families whose
// relaxation restores feasibility are reported as probable root causes,
// ranked by how few violations their relaxation needed. Structural shortages
// (room categories, overallocated teachers or classes) are reported directly.
func Diagnose(m *Model) []ConflictReport {
	reports := structuralReports(m)

	type probeResult struct {
		family     RuleFamily
		violations int
	}
	var causes []probeResult
	for _, family := range []RuleFamily{FamilyTeacherConflict, FamilyClassConflict, FamilyRoomConflict, FamilyConsecutive} {
		if violations, ok := greedyProbe(m, family); ok {
			causes = append(causes, probeResult{family: family, violations: violations})
		}
	}
	sort.Slice(causes, func(i, j int) bool {
		if causes[i].violations != causes[j].violations {
			return causes[i].violations < causes[j].violations
		}
		return causes[i].family < causes[j].family
	})
	for _, cause := range causes {
		reports = append(reports, ConflictReport{
			Severity: SeverityError,
			Family:   cause.family,
			Message:  fmt.Sprintf("relaxing %s restores feasibility with %d violation(s); this family is a probable root cause", cause.family, cause.violations),
			Details:  map[string]any{"violations_required": cause.violations},
		})
	}

	if len(reports) == 0 {
		reports = append(reports, ConflictReport{
			Severity: SeverityWarning,
			Family:   FamilyFulfillment,
			Message:  "no timetable was produced but no single constraint family could be isolated; consider a longer time limit or fewer requirements",
		})
	}
	return reports
}

func structuralReports(m *Model) []ConflictReport {
	snap := m.Snapshot
	var reports []ConflictReport
	totalSlots := snap.Grid.Days * snap.Grid.PeriodsPerDay

	// Aggregate demand per room category against category capacity.
	demandByCategory := make(map[string]int)
	for _, req := range m.Requirements {
		subject := snap.SubjectByID(req.SubjectID)
		if subject == nil || subject.RoomCategory == "" {
			continue
		}
		demandByCategory[subject.RoomCategory] += req.Periods
	}
	categories := make([]string, 0, len(demandByCategory))
	for category := range demandByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		rooms := snap.RoomsByCategory(category)
		capacity := 0
		for _, room := range rooms {
			for _, slot := range snap.Grid.Slots() {
				if room.Availability.Allows(slot) {
					capacity++
				}
			}
		}
		if demand := demandByCategory[category]; demand > capacity {
			reports = append(reports, ConflictReport{
				Severity: SeverityError,
				Family:   FamilyRoomConflict,
				Message:  fmt.Sprintf("insufficient rooms of category %q: %d periods required, %d room-slots available", category, demand, capacity),
				Entities: []string{category},
				Details:  map[string]any{"required": demand, "available": capacity, "rooms": len(rooms)},
			})
		}
	}

	// Teachers whose demanded periods exceed the slots their mask leaves open.
	demandByTeacher := make(map[string]int)
	for _, req := range m.Requirements {
		demandByTeacher[req.TeacherID] += req.Periods
	}
	for _, teacher := range snap.Teachers {
		demand := demandByTeacher[teacher.ID]
		if demand == 0 {
			continue
		}
		open := 0
		for _, slot := range snap.Grid.Slots() {
			if teacher.Availability.Allows(slot) {
				open++
			}
		}
		if demand > open {
			reports = append(reports, ConflictReport{
				Severity: SeverityError,
				Family:   FamilyAvailability,
				Message:  fmt.Sprintf("teacher %s needs %d periods but is available for only %d slots", teacher.ID, demand, open),
				Entities: []string{teacher.ID},
				Details:  map[string]any{"required": demand, "available": open},
			})
		}
		if teacher.MaxPeriodsWeek > 0 && demand > teacher.MaxPeriodsWeek {
			reports = append(reports, ConflictReport{
				Severity: SeverityWarning,
				Family:   FamilyAvailability,
				Message:  fmt.Sprintf("teacher %s is allocated %d periods against a weekly maximum of %d", teacher.ID, demand, teacher.MaxPeriodsWeek),
				Entities: []string{teacher.ID},
			})
		}
	}

	// Classes demanding more periods than the grid holds.
	demandByClass := make(map[string]int)
	for _, req := range m.Requirements {
		demandByClass[req.ClassID] += req.Periods
	}
	for _, class := range snap.Classes {
		if demand := demandByClass[class.ID]; demand > totalSlots {
			reports = append(reports, ConflictReport{
				Severity: SeverityError,
				Family:   FamilyClassConflict,
				Message:  fmt.Sprintf("class %s requires %d periods but the grid has only %d slots", class.ID, demand, totalSlots),
				Entities: []string{class.ID},
				Details:  map[string]any{"required": demand, "available": totalSlots},
			})
		}
	}
	return reports
}

// greedyProbe attempts a first-fit assignment with one family relaxed,
// counting the violations of that family the fit required. It returns false
// when even the relaxed model cannot be completed greedily.
func greedyProbe(m *Model, relaxed RuleFamily) (int, bool) {
	order := make([]int, len(m.Requirements))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := m.Requirements[order[i]], m.Requirements[order[j]]
		if len(a.Candidates) != len(b.Candidates) {
			return len(a.Candidates) < len(b.Candidates)
		}
		return a.Index < b.Index
	})

	teacherBusy := make(map[resKey]bool)
	classBusy := make(map[resKey]bool)
	roomBusy := make(map[resKey]bool)
	violations := 0

	usable := func(v Variable) (bool, int) {
		cost := 0
		if teacherBusy[resKey{v.TeacherID, v.Slot}] {
			if relaxed != FamilyTeacherConflict {
				return false, 0
			}
			cost++
		}
		if classBusy[resKey{v.ClassID, v.Slot}] {
			if relaxed != FamilyClassConflict {
				return false, 0
			}
			cost++
		}
		if roomBusy[resKey{v.RoomID, v.Slot}] {
			if relaxed != FamilyRoomConflict {
				return false, 0
			}
			cost++
		}
		return true, cost
	}
	take := func(v Variable) {
		teacherBusy[resKey{v.TeacherID, v.Slot}] = true
		classBusy[resKey{v.ClassID, v.Slot}] = true
		roomBusy[resKey{v.RoomID, v.Slot}] = true
	}

	for _, reqIdx := range order {
		req := m.Requirements[reqIdx]
		var placed []Slot
		taken := make(map[int]bool)

		if req.Consecutive && relaxed != FamilyConsecutive {
			pairs := buildPairs(m, req.Candidates, DefaultWeights())
			for len(placed)+1 < req.Periods {
				found := false
				for _, pair := range pairs {
					if taken[pair.first] || taken[pair.second] {
						continue
					}
					a, b := m.Variables[pair.first], m.Variables[pair.second]
					okA, costA := usable(a)
					okB, costB := usable(b)
					if !okA || !okB {
						continue
					}
					take(a)
					take(b)
					taken[pair.first], taken[pair.second] = true, true
					placed = append(placed, a.Slot, b.Slot)
					violations += costA + costB
					found = true
					break
				}
				if !found {
					return 0, false
				}
			}
		}

		for len(placed) < req.Periods {
			found := false
			for _, id := range req.Candidates {
				if taken[id] {
					continue
				}
				v := m.Variables[id]
				ok, cost := usable(v)
				if !ok {
					continue
				}
				take(v)
				taken[id] = true
				placed = append(placed, v.Slot)
				violations += cost
				found = true
				break
			}
			if !found {
				return 0, false
			}
		}

		if req.Consecutive && relaxed == FamilyConsecutive {
			if v := checkConsecutive(req, placed, m.AllowOddConsecutive); v != nil {
				violations++
			}
		}
	}

	if relaxed == FamilyConsecutive && violations == 0 {
		// Relaxation was never exercised; consecutive blocks are not the
		// blocking family.
		return 0, false
	}
	return violations, violations > 0
}
