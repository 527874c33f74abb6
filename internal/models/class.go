package models

import (
	"time"

	"github.com/lib/pq"
)

// ClassGroup represents a group of students taught together.
type ClassGroup struct {
	ID           string         `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	Grade        string         `db:"grade" json:"grade"`
	StudentCount int            `db:"student_count" json:"student_count"`
	SubjectIDs   pq.StringArray `db:"subject_ids" json:"subject_ids"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// ClassFilter captures filtering options for listing class groups.
type ClassFilter struct {
	Grade     string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
