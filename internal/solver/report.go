package solver

import (
	"fmt"
	"strings"
)

// RuleFamily names a hard-constraint family for reporting and edit
// validation.
type RuleFamily string

const (
	FamilyFulfillment     RuleFamily = "PERIOD_FULFILLMENT"
	FamilyTeacherConflict RuleFamily = "TEACHER_DOUBLE_BOOKING"
	FamilyClassConflict   RuleFamily = "CLASS_DOUBLE_BOOKING"
	FamilyRoomConflict    RuleFamily = "ROOM_DOUBLE_BOOKING"
	FamilyAvailability    RuleFamily = "AVAILABILITY"
	FamilyCapacity        RuleFamily = "ROOM_CAPACITY"
	FamilyRoomCategory    RuleFamily = "ROOM_CATEGORY"
	FamilyConsecutive     RuleFamily = "CONSECUTIVE_BLOCK"
)

// Severity grades a conflict report.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ConflictReport explains why a timetable could not be produced, naming the
// responsible constraint family and the entities involved.
type ConflictReport struct {
	Severity Severity       `json:"severity"`
	Family   RuleFamily     `json:"family"`
	Message  string         `json:"message"`
	Entities []string       `json:"entities,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

// ConfigError aborts a solve before search: the input data cannot yield any
// candidate variable for at least one required period instance.
type ConfigError struct {
	Reports []ConflictReport
}

func (e *ConfigError) Error() string {
	if e == nil || len(e.Reports) == 0 {
		return "unsolvable configuration"
	}
	msgs := make([]string, 0, len(e.Reports))
	for _, r := range e.Reports {
		msgs = append(msgs, r.Message)
	}
	return "unsolvable configuration: " + strings.Join(msgs, "; ")
}

// ConsistencyError signals that the extractor found a solved assignment
// violating an invariant the engine guarantees. It indicates a defect in the
// builder or engine, never bad user data.
type ConsistencyError struct {
	Family RuleFamily
	Detail string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("internal consistency violation (%s): %s", e.Family, e.Detail)
}

// Violation records one broken hard rule, used by the full assignment check
// and the edit validator.
type Violation struct {
	Family  RuleFamily `json:"family"`
	Message string     `json:"message"`
}
