// Package solver implements the timetable constraint engine: a boolean
// decision-variable model over (class, subject, teacher, room, slot)
// combinations, a propagation + branch-and-bound search, conflict diagnosis
// for infeasible inputs, and bounded validation of manual edits.
package solver

import (
	"fmt"
	"sort"
)

// Difficulty orders subjects from easy to difficult.
type Difficulty int

const (
	DifficultyEasy Difficulty = iota
	DifficultyFair
	DifficultyDifficult
)

// ParseDifficulty maps the stored string value onto the ordered enum.
func ParseDifficulty(raw string) Difficulty {
	switch raw {
	case "difficult":
		return DifficultyDifficult
	case "fair":
		return DifficultyFair
	default:
		return DifficultyEasy
	}
}

func (d Difficulty) String() string {
	switch d {
	case DifficultyDifficult:
		return "difficult"
	case DifficultyFair:
		return "fair"
	default:
		return "easy"
	}
}

// Slot addresses one cell of the weekly grid.
type Slot struct {
	Day    int
	Period int
}

func (s Slot) String() string {
	return fmt.Sprintf("d%d/p%d", s.Day, s.Period)
}

// MarshalText lets slots serve as JSON map keys, which availability masks
// rely on when snapshots are hashed or logged.
func (s Slot) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AvailabilityMask marks blocked slots. Slots absent from the mask are
// available, matching the stored availability JSON where only explicit
// entries override the default.
type AvailabilityMask map[Slot]bool

// Allows reports whether the slot is open.
func (m AvailabilityMask) Allows(slot Slot) bool {
	if m == nil {
		return true
	}
	if blocked, ok := m[slot]; ok {
		return !blocked
	}
	return true
}

// Block marks a slot unavailable.
func (m AvailabilityMask) Block(slot Slot) {
	m[slot] = true
}

// Subject describes a curricular subject and its scheduling demands.
type Subject struct {
	ID            string
	Name          string
	WeeklyPeriods int
	Difficulty    Difficulty
	RoomCategory  string
	Consecutive   bool
}

// Teacher describes an instructor and the slots they may teach.
type Teacher struct {
	ID             string
	Name           string
	MaxPeriodsWeek int
	Availability   AvailabilityMask
	Subjects       map[string]bool
}

// Qualified reports whether the teacher may teach the subject.
func (t Teacher) Qualified(subjectID string) bool {
	return t.Subjects[subjectID]
}

// ClassGroup describes a group of students taught together.
type ClassGroup struct {
	ID           string
	Name         string
	StudentCount int
	Subjects     []string
}

// Room describes a physical room.
type Room struct {
	ID           string
	Name         string
	Category     string
	Capacity     int
	Availability AvailabilityMask
}

// Allocation fixes which teacher covers a class-subject pair. Allocations are
// inputs, not decisions; a pair without one is unschedulable.
type Allocation struct {
	ClassID   string
	SubjectID string
	TeacherID string
}

// Grid is the weekly slot grid, the Cartesian product of days and periods.
type Grid struct {
	Days          int
	PeriodsPerDay int
}

// Slots enumerates grid slots in day-major, period-minor order.
func (g Grid) Slots() []Slot {
	slots := make([]Slot, 0, g.Days*g.PeriodsPerDay)
	for day := 0; day < g.Days; day++ {
		for period := 0; period < g.PeriodsPerDay; period++ {
			slots = append(slots, Slot{Day: day, Period: period})
		}
	}
	return slots
}

// Contains reports whether the slot lies inside the grid.
func (g Grid) Contains(slot Slot) bool {
	return slot.Day >= 0 && slot.Day < g.Days && slot.Period >= 0 && slot.Period < g.PeriodsPerDay
}

// Snapshot is the immutable, validated entity view the solver operates on.
// Entity order is normalised on construction so that identical inputs always
// produce the same variable numbering.
type Snapshot struct {
	Grid        Grid
	Subjects    []Subject
	Teachers    []Teacher
	Classes     []ClassGroup
	Rooms       []Room
	Allocations []Allocation

	subjectsByID map[string]*Subject
	teachersByID map[string]*Teacher
	classesByID  map[string]*ClassGroup
	roomsByID    map[string]*Room
}

// NewSnapshot validates and indexes the entity sets. Slices are copied and
// sorted by id; the caller's data is never mutated afterwards.
func NewSnapshot(grid Grid, subjects []Subject, teachers []Teacher, classes []ClassGroup, rooms []Room, allocations []Allocation) (*Snapshot, error) {
	if grid.Days <= 0 || grid.PeriodsPerDay <= 0 {
		return nil, fmt.Errorf("grid must define at least one day and one period")
	}
	snap := &Snapshot{
		Grid:        grid,
		Subjects:    append([]Subject(nil), subjects...),
		Teachers:    append([]Teacher(nil), teachers...),
		Classes:     append([]ClassGroup(nil), classes...),
		Rooms:       append([]Room(nil), rooms...),
		Allocations: append([]Allocation(nil), allocations...),
	}
	sort.Slice(snap.Subjects, func(i, j int) bool { return snap.Subjects[i].ID < snap.Subjects[j].ID })
	sort.Slice(snap.Teachers, func(i, j int) bool { return snap.Teachers[i].ID < snap.Teachers[j].ID })
	sort.Slice(snap.Classes, func(i, j int) bool { return snap.Classes[i].ID < snap.Classes[j].ID })
	sort.Slice(snap.Rooms, func(i, j int) bool { return snap.Rooms[i].ID < snap.Rooms[j].ID })
	sort.Slice(snap.Allocations, func(i, j int) bool {
		a, b := snap.Allocations[i], snap.Allocations[j]
		if a.ClassID != b.ClassID {
			return a.ClassID < b.ClassID
		}
		if a.SubjectID != b.SubjectID {
			return a.SubjectID < b.SubjectID
		}
		return a.TeacherID < b.TeacherID
	})

	snap.subjectsByID = make(map[string]*Subject, len(snap.Subjects))
	for i := range snap.Subjects {
		s := &snap.Subjects[i]
		if s.ID == "" {
			return nil, fmt.Errorf("subject without id")
		}
		if s.WeeklyPeriods <= 0 {
			return nil, fmt.Errorf("subject %s: weekly periods must be positive", s.ID)
		}
		if _, dup := snap.subjectsByID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate subject id %s", s.ID)
		}
		snap.subjectsByID[s.ID] = s
	}
	snap.teachersByID = make(map[string]*Teacher, len(snap.Teachers))
	for i := range snap.Teachers {
		t := &snap.Teachers[i]
		if t.ID == "" {
			return nil, fmt.Errorf("teacher without id")
		}
		if _, dup := snap.teachersByID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate teacher id %s", t.ID)
		}
		snap.teachersByID[t.ID] = t
	}
	snap.classesByID = make(map[string]*ClassGroup, len(snap.Classes))
	for i := range snap.Classes {
		c := &snap.Classes[i]
		if c.ID == "" {
			return nil, fmt.Errorf("class without id")
		}
		if _, dup := snap.classesByID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate class id %s", c.ID)
		}
		snap.classesByID[c.ID] = c
	}
	snap.roomsByID = make(map[string]*Room, len(snap.Rooms))
	for i := range snap.Rooms {
		r := &snap.Rooms[i]
		if r.ID == "" {
			return nil, fmt.Errorf("room without id")
		}
		if _, dup := snap.roomsByID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate room id %s", r.ID)
		}
		snap.roomsByID[r.ID] = r
	}

	for _, alloc := range snap.Allocations {
		if snap.classesByID[alloc.ClassID] == nil {
			return nil, fmt.Errorf("allocation references unknown class %s", alloc.ClassID)
		}
		if snap.subjectsByID[alloc.SubjectID] == nil {
			return nil, fmt.Errorf("allocation references unknown subject %s", alloc.SubjectID)
		}
		if snap.teachersByID[alloc.TeacherID] == nil {
			return nil, fmt.Errorf("allocation references unknown teacher %s", alloc.TeacherID)
		}
	}
	return snap, nil
}

// SubjectByID returns the subject or nil.
func (s *Snapshot) SubjectByID(id string) *Subject { return s.subjectsByID[id] }

// TeacherByID returns the teacher or nil.
func (s *Snapshot) TeacherByID(id string) *Teacher { return s.teachersByID[id] }

// ClassByID returns the class group or nil.
func (s *Snapshot) ClassByID(id string) *ClassGroup { return s.classesByID[id] }

// RoomByID returns the room or nil.
func (s *Snapshot) RoomByID(id string) *Room { return s.roomsByID[id] }

// RoomsByCategory returns rooms of the category in id order.
func (s *Snapshot) RoomsByCategory(category string) []Room {
	var out []Room
	for _, room := range s.Rooms {
		if room.Category == category {
			out = append(out, room)
		}
	}
	return out
}
