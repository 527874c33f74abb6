package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// TimetableEntry is one scheduled period: class, subject, teacher, room,
// slot. Locked entries survive regeneration.
type TimetableEntry struct {
	ID          string    `db:"id" json:"id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	RoomID      string    `db:"room_id" json:"room_id"`
	DayIndex    int       `db:"day_index" json:"day_index"`
	PeriodIndex int       `db:"period_index" json:"period_index"`
	IsLocked    bool      `db:"is_locked" json:"is_locked"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// TimetableFilter captures filters for listing timetable entries.
type TimetableFilter struct {
	ClassID   string
	TeacherID string
	RoomID    string
	DayIndex  *int
}

// ConflictReport explains why a solve produced no timetable, naming the
// hard-constraint family held responsible.
type ConflictReport struct {
	ID        string         `db:"id" json:"id"`
	Severity  string         `db:"severity" json:"severity"`
	Family    string         `db:"family" json:"family"`
	Message   string         `db:"message" json:"message"`
	Entities  pq.StringArray `db:"entities" json:"entities,omitempty"`
	Details   types.JSONText `db:"details" json:"details,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// SolveRecord tracks the best objective achieved for a configuration, used
// to guarantee re-runs never regress below a previously found solution.
type SolveRecord struct {
	Fingerprint string           `json:"fingerprint"`
	Objective   float64          `json:"objective"`
	State       string           `json:"state"`
	SolvedAt    time.Time        `json:"solved_at"`
	Entries     []TimetableEntry `json:"entries"`
}
