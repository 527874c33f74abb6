package dto

import "github.com/noah-isme/sma-timetable-api/internal/models"

// ObjectiveWeights overrides the configured soft-penalty weights.
type ObjectiveWeights struct {
	IdleGap         *float64 `json:"idle_gap" validate:"omitempty,gte=0"`
	EarlyDifficult  *float64 `json:"early_difficult" validate:"omitempty,gte=0"`
	WorkloadBalance *float64 `json:"workload_balance" validate:"omitempty,gte=0"`
}

// SolveRequest starts a timetable solve run. Zero values fall back to the
// configured defaults.
type SolveRequest struct {
	TimeLimitSeconds    int               `json:"time_limit_seconds" validate:"omitempty,gte=0,lte=300"`
	Weights             *ObjectiveWeights `json:"weights"`
	AllowOddConsecutive bool              `json:"allow_odd_consecutive"`
	Async               bool              `json:"async"`
}

// SolveStats summarises search effort for observability.
type SolveStats struct {
	Branches      int64   `json:"branches"`
	Propagations  int64   `json:"propagations"`
	Solutions     int     `json:"solutions"`
	ElapsedMillis int64   `json:"elapsed_ms"`
	Objective     float64 `json:"objective"`
}

// SolveResponse is the outcome of a solve run: either persisted entries or
// conflict reports, never both.
type SolveResponse struct {
	State     string                  `json:"state"`
	JobID     string                  `json:"job_id,omitempty"`
	Entries   []models.TimetableEntry `json:"entries,omitempty"`
	Conflicts []models.ConflictReport `json:"conflicts,omitempty"`
	Stats     *SolveStats             `json:"stats,omitempty"`
}

// SolveJobStatus reports an asynchronous solve run.
type SolveJobStatus struct {
	JobID    string         `json:"job_id"`
	Status   string         `json:"status"`
	Response *SolveResponse `json:"response,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// MoveRequest proposes relocating one timetable entry.
type MoveRequest struct {
	DayIndex    int    `json:"day_index" validate:"gte=0"`
	PeriodIndex int    `json:"period_index" validate:"gte=0"`
	RoomID      string `json:"room_id"`
}

// MoveViolation names one broken rule blocking a move.
type MoveViolation struct {
	Family  string `json:"family"`
	Message string `json:"message"`
}

// MoveResponse is the edit validator's verdict.
type MoveResponse struct {
	Allowed    bool            `json:"allowed"`
	Violations []MoveViolation `json:"violations,omitempty"`
}
