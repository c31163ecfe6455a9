package domain

import "time"

// ActionItem is a to-do attached to one handover (handover_action_items).
type ActionItem struct {
	ID          string     `db:"id"`
	HandoverID  string     `db:"handover_id"`
	Description string     `db:"description"`
	IsCompleted bool       `db:"is_completed"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	CompletedAt *time.Time `db:"completed_at"`
}

// ActionItemPatch is a partial update; nil fields are left untouched.
type ActionItemPatch struct {
	Description *string
	IsCompleted *bool
	At          time.Time
}

// Contingency plan priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Contingency plan statuses.
const (
	PlanStatusActive    = "active"
	PlanStatusPlanned   = "planned"
	PlanStatusCompleted = "completed"
)

// ValidPriority reports whether p is low, medium or high.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// ValidPlanStatus reports whether s is active, planned or completed.
func ValidPlanStatus(s string) bool {
	return s == PlanStatusActive || s == PlanStatusPlanned || s == PlanStatusCompleted
}

// ContingencyPlan is an "if condition then action" entry (handover_contingency_plans).
type ContingencyPlan struct {
	ID            string    `db:"id"`
	HandoverID    string    `db:"handover_id"`
	ConditionText string    `db:"condition_text"`
	ActionText    string    `db:"action_text"`
	Priority      string    `db:"priority"`
	Status        string    `db:"status"`
	CreatedBy     string    `db:"created_by"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// ContingencyPlanPatch is a partial update of status and/or priority.
type ContingencyPlanPatch struct {
	Priority *string
	Status   *string
	At       time.Time
}

// Assignment binds a physician to a patient for a shift. (UserID, ShiftID, PatientID) is unique.
type Assignment struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	ShiftID    string    `db:"shift_id"`
	PatientID  string    `db:"patient_id"`
	AssignedAt time.Time `db:"assigned_at"`
}

// Participant roles.
const (
	RoleHandingOff = "handing_off"
	RoleReceiving  = "receiving"
)

// ParticipantStatusActive is the status given to participants at creation.
const ParticipantStatusActive = "active"

// Participant is a physician taking part in a handover (handover_participants).
type Participant struct {
	ID          string    `db:"id"`
	HandoverID  string    `db:"handover_id"`
	UserID      string    `db:"user_id"`
	DisplayName string    `db:"display_name"`
	Role        string    `db:"role"`
	Status      string    `db:"status"`
	JoinedAt    time.Time `db:"joined_at"`
}

// NewHandoverBundle is everything CreateHandover writes as one unit of work.
// Assignment.ID is a candidate; when the natural key already exists the stored
// id wins and is copied onto Handover.AssignmentID.
type NewHandoverBundle struct {
	Assignment   Assignment
	Handover     Handover
	Participants []Participant
	Sections     []ContentSection
}
