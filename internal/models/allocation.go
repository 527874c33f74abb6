package models

import "time"

// Allocation fixes which teacher covers a class-subject pair. A pair without
// an allocation is not schedulable; the solver treats allocations as input,
// never as decisions.
type Allocation struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AllocationFilter captures filters for listing allocations.
type AllocationFilter struct {
	ClassID   string
	SubjectID string
	TeacherID string
	Page      int
	PageSize  int
}
