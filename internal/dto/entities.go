package dto

import "encoding/json"

// AvailabilityPayload is the wire shape of weekly availability masks:
// {"0": {"1": false}} blocks day 0 period 1. Absent slots are available.
type AvailabilityPayload map[string]map[string]bool

// SubjectRequest creates or updates a subject.
type SubjectRequest struct {
	Code                string `json:"code" validate:"required"`
	Name                string `json:"name" validate:"required"`
	WeeklyPeriods       int    `json:"weekly_periods" validate:"required,gt=0"`
	Difficulty          string `json:"difficulty" validate:"omitempty,oneof=easy fair difficult"`
	RequiresRoomType    string `json:"requires_room_type"`
	RequiresConsecutive bool   `json:"requires_consecutive"`
}

// TeacherRequest creates or updates a teacher.
type TeacherRequest struct {
	Email          string              `json:"email" validate:"required,email"`
	FullName       string              `json:"full_name" validate:"required"`
	MaxPeriodsWeek int                 `json:"max_periods_week" validate:"omitempty,gte=0"`
	Availability   AvailabilityPayload `json:"availability"`
	SubjectIDs     []string            `json:"subject_ids"`
	Active         *bool               `json:"active"`
}

// ClassRequest creates or updates a class group.
type ClassRequest struct {
	Name         string   `json:"name" validate:"required"`
	Grade        string   `json:"grade"`
	StudentCount int      `json:"student_count" validate:"required,gt=0"`
	SubjectIDs   []string `json:"subject_ids"`
}

// RoomRequest creates or updates a room.
type RoomRequest struct {
	Name         string              `json:"name" validate:"required"`
	RoomType     string              `json:"room_type"`
	Capacity     int                 `json:"capacity" validate:"omitempty,gte=0"`
	Availability AvailabilityPayload `json:"availability"`
}

// AllocationRequest pairs a teacher with a class-subject combination.
type AllocationRequest struct {
	ClassID   string `json:"class_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
}

// SettingsRequest updates the school configuration the slot grid derives
// from.
type SettingsRequest struct {
	DaysPerWeek        int    `json:"days_per_week" validate:"required,gte=1,lte=7"`
	PeriodsBeforeBreak int    `json:"periods_before_break" validate:"required,gte=1"`
	PeriodsAfterBreak  int    `json:"periods_after_break" validate:"gte=0"`
	LessonStartTime    string `json:"lesson_start_time" validate:"required"`
	LessonDurationMin  int    `json:"lesson_duration_min" validate:"required,gt=0"`
	BreakDurationMin   int    `json:"break_duration_min" validate:"gte=0"`
}

// Encode renders the payload as availability JSON, nil-safe.
func (p AvailabilityPayload) Encode() ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}
