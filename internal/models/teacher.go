package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// Teacher represents an instructor record. Availability holds the weekly
// mask as {"day":{"period":bool}}; slots absent from the JSON are available.
type Teacher struct {
	ID             string         `db:"id" json:"id"`
	Email          string         `db:"email" json:"email"`
	FullName       string         `db:"full_name" json:"full_name"`
	MaxPeriodsWeek int            `db:"max_periods_week" json:"max_periods_week"`
	Availability   types.JSONText `db:"availability" json:"availability,omitempty"`
	SubjectIDs     pq.StringArray `db:"subject_ids" json:"subject_ids"`
	Active         bool           `db:"active" json:"active"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Active    *bool
	SubjectID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
