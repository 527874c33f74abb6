package models

import "time"

// Subject difficulty tiers, ordered easy to difficult.
const (
	DifficultyEasy      = "easy"
	DifficultyFair      = "fair"
	DifficultyDifficult = "difficult"
)

// Subject represents an academic subject and its scheduling demands.
type Subject struct {
	ID                  string    `db:"id" json:"id"`
	Code                string    `db:"code" json:"code"`
	Name                string    `db:"name" json:"name"`
	WeeklyPeriods       int       `db:"weekly_periods" json:"weekly_periods"`
	Difficulty          string    `db:"difficulty" json:"difficulty"`
	RequiresRoomType    string    `db:"requires_room_type" json:"requires_room_type"`
	RequiresConsecutive bool      `db:"requires_consecutive" json:"requires_consecutive"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Difficulty string
	RoomType   string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
