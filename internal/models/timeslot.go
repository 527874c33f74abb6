package models

import "time"

// TimeSlot is one cell of the weekly grid, generated from school settings.
type TimeSlot struct {
	ID          string    `db:"id" json:"id"`
	DayIndex    int       `db:"day_index" json:"day_index"`
	PeriodIndex int       `db:"period_index" json:"period_index"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SchoolSettings drives time-slot generation: the grid is the Cartesian
// product of days and the periods before and after the morning break.
type SchoolSettings struct {
	ID                 string    `db:"id" json:"id"`
	DaysPerWeek        int       `db:"days_per_week" json:"days_per_week"`
	PeriodsBeforeBreak int       `db:"periods_before_break" json:"periods_before_break"`
	PeriodsAfterBreak  int       `db:"periods_after_break" json:"periods_after_break"`
	LessonStartTime    string    `db:"lesson_start_time" json:"lesson_start_time"`
	LessonDurationMin  int       `db:"lesson_duration_min" json:"lesson_duration_min"`
	BreakDurationMin   int       `db:"break_duration_min" json:"break_duration_min"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// PeriodsPerDay is the total period count per day.
func (s SchoolSettings) PeriodsPerDay() int {
	return s.PeriodsBeforeBreak + s.PeriodsAfterBreak
}
