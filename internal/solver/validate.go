package solver

import "fmt"

// Move proposes relocating one existing schedule entry to a different slot
// and, optionally, a different room.
type Move struct {
	Entry     Entry
	NewSlot   Slot
	NewRoomID string // empty keeps the entry's room
}

// Decision is the validator's verdict. It always carries every violated rule
// so the caller can show the full picture, not just the first failure.
type Decision struct {
	Allowed    bool        `json:"allowed"`
	Violations []Violation `json:"violations,omitempty"`
}

// ValidateOptions tunes edit validation.
type ValidateOptions struct {
	AllowOddConsecutive bool
}

// ValidateMove re-checks only the hard constraints touched by one proposed
// manual change against an existing assignment. It never errors: invalid
// input is just another rejection reason. Work is bounded by the entries
// sharing the affected slots and the moved subject's own entries, never the
// whole schedule, and the search engine is never invoked.
func ValidateMove(snap *Snapshot, entries []Entry, move Move, opts ValidateOptions) Decision {
	var violations []Violation
	add := func(family RuleFamily, format string, args ...any) {
		violations = append(violations, Violation{Family: family, Message: fmt.Sprintf(format, args...)})
	}

	roomID := move.NewRoomID
	if roomID == "" {
		roomID = move.Entry.RoomID
	}

	if !snap.Grid.Contains(move.NewSlot) {
		add(FamilyAvailability, "slot %s is outside the weekly grid", move.NewSlot)
		return Decision{Allowed: false, Violations: violations}
	}

	teacher := snap.TeacherByID(move.Entry.TeacherID)
	class := snap.ClassByID(move.Entry.ClassID)
	subject := snap.SubjectByID(move.Entry.SubjectID)
	room := snap.RoomByID(roomID)
	if teacher == nil || class == nil || subject == nil || room == nil {
		add(FamilyFulfillment, "entry references entities missing from the snapshot")
		return Decision{Allowed: false, Violations: violations}
	}

	if !teacher.Availability.Allows(move.NewSlot) {
		add(FamilyAvailability, "teacher %s is not available at %s", teacher.ID, move.NewSlot)
	}
	if !room.Availability.Allows(move.NewSlot) {
		add(FamilyAvailability, "room %s is not available at %s", room.ID, move.NewSlot)
	}
	if room.Capacity > 0 && class.StudentCount > room.Capacity {
		add(FamilyCapacity, "room %s holds %d but class %s has %d students", room.ID, room.Capacity, class.ID, class.StudentCount)
	}
	if subject.RoomCategory != "" && room.Category != subject.RoomCategory {
		add(FamilyRoomCategory, "subject %s requires a %s room, %s is %s", subject.ID, subject.RoomCategory, room.ID, room.Category)
	}

	moved := false
	for _, other := range entries {
		if !moved && other == move.Entry {
			// The entry being moved does not conflict with itself.
			moved = true
			continue
		}
		if other.Slot != move.NewSlot {
			continue
		}
		if other.TeacherID == teacher.ID {
			add(FamilyTeacherConflict, "teacher %s already teaches %s for class %s at %s", teacher.ID, other.SubjectID, other.ClassID, move.NewSlot)
		}
		if other.ClassID == class.ID {
			add(FamilyClassConflict, "class %s already has %s at %s", class.ID, other.SubjectID, move.NewSlot)
		}
		if other.RoomID == roomID {
			add(FamilyRoomConflict, "room %s is already occupied by class %s at %s", roomID, other.ClassID, move.NewSlot)
		}
	}

	if subject.Consecutive {
		slots := subjectSlotsAfterMove(entries, move)
		req := Requirement{
			ClassID:   class.ID,
			SubjectID: subject.ID,
			Periods:   subject.WeeklyPeriods,
		}
		if v := checkConsecutive(req, slots, opts.AllowOddConsecutive); v != nil {
			violations = append(violations, *v)
		}
	}

	return Decision{Allowed: len(violations) == 0, Violations: violations}
}

// subjectSlotsAfterMove projects the moved subject's slots for the class as
// they would look if the move were applied.
func subjectSlotsAfterMove(entries []Entry, move Move) []Slot {
	var slots []Slot
	skipped := false
	for _, entry := range entries {
		if entry.ClassID != move.Entry.ClassID || entry.SubjectID != move.Entry.SubjectID {
			continue
		}
		if !skipped && entry == move.Entry {
			skipped = true
			continue
		}
		slots = append(slots, entry.Slot)
	}
	return append(slots, move.NewSlot)
}
