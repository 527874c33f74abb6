package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Room represents a physical room. Availability follows the same JSON shape
// as Teacher.Availability.
type Room struct {
	ID           string         `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	RoomType     string         `db:"room_type" json:"room_type"`
	Capacity     int            `db:"capacity" json:"capacity"`
	Availability types.JSONText `db:"availability" json:"availability,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// RoomFilter captures filtering options for listing rooms.
type RoomFilter struct {
	RoomType  string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
