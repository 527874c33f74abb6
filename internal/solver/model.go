package solver

import "fmt"

// Variable is one boolean decision: schedule this requirement's class and
// subject with this teacher, in this room, at this slot. Variables exist only
// for combinations that pass static eligibility, so availability and capacity
// never need runtime checks.
type Variable struct {
	ID        int
	Req       int
	ClassID   string
	SubjectID string
	TeacherID string
	RoomID    string
	Slot      Slot
}

// Requirement is one (class, subject) demand of N weekly periods, covered by
// its allocated teacher. Candidates lists the variable ids competing to fill
// those periods.
type Requirement struct {
	Index       int
	ClassID     string
	SubjectID   string
	TeacherID   string
	Periods     int
	Consecutive bool
	Candidates  []int
}

// Key identifies the requirement in reports and logs.
func (r Requirement) Key() string {
	return r.ClassID + "/" + r.SubjectID
}

type resKey struct {
	id   string
	slot Slot
}

// Model is the variable table plus the per-resource indices the search and
// the diagnoser operate on. A model is built once per solve attempt and owns
// no state beyond it.
type Model struct {
	Snapshot            *Snapshot
	Variables           []Variable
	Requirements        []Requirement
	AllowOddConsecutive bool

	byTeacherSlot map[resKey][]int
	byClassSlot   map[resKey][]int
	byRoomSlot    map[resKey][]int
}

// BuildOptions tunes model construction.
type BuildOptions struct {
	// AllowOddConsecutive permits one unpaired period for subjects that
	// require consecutive blocks but have an odd weekly count.
	AllowOddConsecutive bool
	// Pinned entries stay fixed across regeneration. Each pin reduces the
	// remaining period count of its requirement and removes every candidate
	// that would double-book the pinned teacher, class, or room at that slot.
	Pinned []Entry
}

// Build enumerates feasible (class, subject, teacher, room, slot)
// combinations for every allocation in the snapshot. It fails with a
// *ConfigError when any required period instance has no candidate variable,
// so unsatisfiable inputs are reported before search starts.
func Build(snap *Snapshot, opts BuildOptions) (*Model, error) {
	m := &Model{
		Snapshot:            snap,
		AllowOddConsecutive: opts.AllowOddConsecutive,
		byTeacherSlot:       make(map[resKey][]int),
		byClassSlot:         make(map[resKey][]int),
		byRoomSlot:          make(map[resKey][]int),
	}
	var reports []ConflictReport

	pinnedPeriods := make(map[string]int, len(opts.Pinned))
	pinnedTeacher := make(map[resKey]bool, len(opts.Pinned))
	pinnedClass := make(map[resKey]bool, len(opts.Pinned))
	pinnedRoom := make(map[resKey]bool, len(opts.Pinned))
	for _, pin := range opts.Pinned {
		pinnedPeriods[pin.ClassID+"/"+pin.SubjectID]++
		pinnedTeacher[resKey{pin.TeacherID, pin.Slot}] = true
		pinnedClass[resKey{pin.ClassID, pin.Slot}] = true
		pinnedRoom[resKey{pin.RoomID, pin.Slot}] = true
	}

	allocated := make(map[string]bool, len(snap.Allocations))
	for _, alloc := range snap.Allocations {
		allocated[alloc.ClassID+"/"+alloc.SubjectID] = true
	}
	for _, class := range snap.Classes {
		for _, subjectID := range class.Subjects {
			if allocated[class.ID+"/"+subjectID] {
				continue
			}
			reports = append(reports, ConflictReport{
				Severity: SeverityError,
				Family:   FamilyFulfillment,
				Message:  fmt.Sprintf("class %s requires subject %s but no teacher is allocated", class.ID, subjectID),
				Entities: []string{class.ID, subjectID},
			})
		}
	}

	slots := snap.Grid.Slots()
	for _, alloc := range snap.Allocations {
		subject := snap.SubjectByID(alloc.SubjectID)
		teacher := snap.TeacherByID(alloc.TeacherID)
		class := snap.ClassByID(alloc.ClassID)

		remaining := subject.WeeklyPeriods - pinnedPeriods[class.ID+"/"+subject.ID]
		if remaining <= 0 {
			// Fully covered by pinned entries.
			continue
		}
		req := Requirement{
			Index:       len(m.Requirements),
			ClassID:     class.ID,
			SubjectID:   subject.ID,
			TeacherID:   teacher.ID,
			Periods:     remaining,
			Consecutive: subject.Consecutive,
		}

		if len(teacher.Subjects) > 0 && !teacher.Qualified(subject.ID) {
			reports = append(reports, ConflictReport{
				Severity: SeverityError,
				Family:   FamilyFulfillment,
				Message:  fmt.Sprintf("teacher %s is not qualified for subject %s allocated to class %s", teacher.ID, subject.ID, class.ID),
				Entities: []string{teacher.ID, subject.ID, class.ID},
			})
			continue
		}
		if subject.Consecutive && remaining%2 != 0 && !opts.AllowOddConsecutive {
			reports = append(reports, ConflictReport{
				Severity: SeverityError,
				Family:   FamilyConsecutive,
				Message:  fmt.Sprintf("subject %s needs consecutive blocks but has an odd weekly count of %d", subject.ID, subject.WeeklyPeriods),
				Entities: []string{subject.ID, class.ID},
				Details:  map[string]any{"weekly_periods": subject.WeeklyPeriods},
			})
			continue
		}

		rooms := candidateRooms(snap, subject, class)
		for _, room := range rooms {
			for _, slot := range slots {
				if !teacher.Availability.Allows(slot) || !room.Availability.Allows(slot) {
					continue
				}
				if pinnedTeacher[resKey{teacher.ID, slot}] || pinnedClass[resKey{class.ID, slot}] || pinnedRoom[resKey{room.ID, slot}] {
					continue
				}
				v := Variable{
					ID:        len(m.Variables),
					Req:       req.Index,
					ClassID:   class.ID,
					SubjectID: subject.ID,
					TeacherID: teacher.ID,
					RoomID:    room.ID,
					Slot:      slot,
				}
				m.Variables = append(m.Variables, v)
				req.Candidates = append(req.Candidates, v.ID)
				m.byTeacherSlot[resKey{teacher.ID, slot}] = append(m.byTeacherSlot[resKey{teacher.ID, slot}], v.ID)
				m.byClassSlot[resKey{class.ID, slot}] = append(m.byClassSlot[resKey{class.ID, slot}], v.ID)
				m.byRoomSlot[resKey{room.ID, slot}] = append(m.byRoomSlot[resKey{room.ID, slot}], v.ID)
			}
		}

		if len(req.Candidates) == 0 {
			reports = append(reports, ConflictReport{
				Severity: SeverityError,
				Family:   FamilyFulfillment,
				Message:  fmt.Sprintf("no candidate slots for class %s subject %s with teacher %s", class.ID, subject.ID, teacher.ID),
				Entities: []string{class.ID, subject.ID, teacher.ID},
				Details: map[string]any{
					"required_room_category": subject.RoomCategory,
					"matching_rooms":         len(rooms),
				},
			})
			continue
		}
		m.Requirements = append(m.Requirements, req)
	}

	if len(reports) > 0 {
		return nil, &ConfigError{Reports: reports}
	}
	if len(m.Requirements) == 0 && len(opts.Pinned) == 0 {
		return nil, &ConfigError{Reports: []ConflictReport{{
			Severity: SeverityError,
			Family:   FamilyFulfillment,
			Message:  "no teacher-subject allocations to schedule",
		}}}
	}
	return m, nil
}

// candidateRooms filters rooms by required category and class size. An empty
// category on the subject accepts any room.
func candidateRooms(snap *Snapshot, subject *Subject, class *ClassGroup) []Room {
	var out []Room
	for _, room := range snap.Rooms {
		if subject.RoomCategory != "" && room.Category != subject.RoomCategory {
			continue
		}
		if room.Capacity > 0 && class.StudentCount > room.Capacity {
			continue
		}
		out = append(out, room)
	}
	return out
}

// VarsForTeacherSlot returns variable ids competing for the teacher at the slot.
func (m *Model) VarsForTeacherSlot(teacherID string, slot Slot) []int {
	return m.byTeacherSlot[resKey{teacherID, slot}]
}

// VarsForClassSlot returns variable ids competing for the class at the slot.
func (m *Model) VarsForClassSlot(classID string, slot Slot) []int {
	return m.byClassSlot[resKey{classID, slot}]
}

// VarsForRoomSlot returns variable ids competing for the room at the slot.
func (m *Model) VarsForRoomSlot(roomID string, slot Slot) []int {
	return m.byRoomSlot[resKey{roomID, slot}]
}
