package service

import (
	"time"

	"wisefido-handover/internal/domain"
)

// HandoverResponse is the wire form of a handover, including its derived state.
type HandoverResponse struct {
	ID                     string     `json:"id"`
	PatientID              string     `json:"patient_id"`
	AssignmentID           string     `json:"assignment_id"`
	FromShiftID            string     `json:"from_shift_id"`
	ToShiftID              string     `json:"to_shift_id"`
	FromPhysicianID        string     `json:"from_physician_id"`
	ToPhysicianID          string     `json:"to_physician_id"`
	ResponsiblePhysicianID string     `json:"responsible_physician_id"`
	HandoverType           string     `json:"handover_type"`
	WindowDate             string     `json:"window_date"`
	State                  string     `json:"state"`
	Version                int64      `json:"version"`
	CreatedBy              string     `json:"created_by"`
	ReadyAt                *time.Time `json:"ready_at,omitempty"`
	StartedAt              *time.Time `json:"started_at,omitempty"`
	AcceptedAt             *time.Time `json:"accepted_at,omitempty"`
	CompletedAt            *time.Time `json:"completed_at,omitempty"`
	CancelledAt            *time.Time `json:"cancelled_at,omitempty"`
	RejectedAt             *time.Time `json:"rejected_at,omitempty"`
	ExpiredAt              *time.Time `json:"expired_at,omitempty"`
	CompletedBy            string     `json:"completed_by,omitempty"`
	CancelledBy            string     `json:"cancelled_by,omitempty"`
	CancellationReason     string     `json:"cancellation_reason,omitempty"`
	RejectedBy             string     `json:"rejected_by,omitempty"`
	RejectionReason        string     `json:"rejection_reason,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

func NewHandoverResponse(h *domain.Handover) HandoverResponse {
	return HandoverResponse{
		ID:                     h.ID,
		PatientID:              h.PatientID,
		AssignmentID:           h.AssignmentID,
		FromShiftID:            h.FromShiftID,
		ToShiftID:              h.ToShiftID,
		FromPhysicianID:        h.FromPhysicianID,
		ToPhysicianID:          h.ToPhysicianID,
		ResponsiblePhysicianID: h.ResponsiblePhysicianID,
		HandoverType:           h.HandoverType,
		WindowDate:             h.WindowDate.Format(domain.DateLayout),
		State:                  string(domain.DeriveState(h)),
		Version:                h.Version,
		CreatedBy:              h.CreatedBy,
		ReadyAt:                h.ReadyAt,
		StartedAt:              h.StartedAt,
		AcceptedAt:             h.AcceptedAt,
		CompletedAt:            h.CompletedAt,
		CancelledAt:            h.CancelledAt,
		RejectedAt:             h.RejectedAt,
		ExpiredAt:              h.ExpiredAt,
		CompletedBy:            h.CompletedBy,
		CancelledBy:            h.CancelledBy,
		CancellationReason:     h.CancellationReason,
		RejectedBy:             h.RejectedBy,
		RejectionReason:        h.RejectionReason,
		CreatedAt:              h.CreatedAt,
		UpdatedAt:              h.UpdatedAt,
	}
}

// SectionResponse is the wire form of a content section.
type SectionResponse struct {
	HandoverID      string    `json:"handover_id"`
	Kind            string    `json:"kind"`
	IllnessSeverity string    `json:"illness_severity,omitempty"`
	Content         string    `json:"content"`
	Status          string    `json:"status"`
	LastEditedBy    string    `json:"last_edited_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func NewSectionResponse(s *domain.ContentSection) SectionResponse {
	return SectionResponse{
		HandoverID:      s.HandoverID,
		Kind:            string(s.Kind),
		IllnessSeverity: s.IllnessSeverity,
		Content:         s.Content,
		Status:          s.Status,
		LastEditedBy:    s.LastEditedBy,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

type ActionItemResponse struct {
	ID          string     `json:"id"`
	HandoverID  string     `json:"handover_id"`
	Description string     `json:"description"`
	IsCompleted bool       `json:"is_completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func NewActionItemResponse(a *domain.ActionItem) ActionItemResponse {
	return ActionItemResponse{
		ID:          a.ID,
		HandoverID:  a.HandoverID,
		Description: a.Description,
		IsCompleted: a.IsCompleted,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		CompletedAt: a.CompletedAt,
	}
}

type ContingencyPlanResponse struct {
	ID            string    `json:"id"`
	HandoverID    string    `json:"handover_id"`
	ConditionText string    `json:"condition_text"`
	ActionText    string    `json:"action_text"`
	Priority      string    `json:"priority"`
	Status        string    `json:"status"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewContingencyPlanResponse(p *domain.ContingencyPlan) ContingencyPlanResponse {
	return ContingencyPlanResponse{
		ID:            p.ID,
		HandoverID:    p.HandoverID,
		ConditionText: p.ConditionText,
		ActionText:    p.ActionText,
		Priority:      p.Priority,
		Status:        p.Status,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

type ParticipantResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	JoinedAt    time.Time `json:"joined_at"`
}

type AssignmentResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ShiftID    string    `json:"shift_id"`
	PatientID  string    `json:"patient_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

func NewAssignmentResponse(a *domain.Assignment) AssignmentResponse {
	return AssignmentResponse{ID: a.ID, UserID: a.UserID, ShiftID: a.ShiftID, PatientID: a.PatientID, AssignedAt: a.AssignedAt}
}

// HandoverView is the composed read model served by GET handovers/{id}.
type HandoverView struct {
	Handover         HandoverResponse          `json:"handover"`
	Sections         []SectionResponse         `json:"sections"`
	ActionItems      []ActionItemResponse      `json:"action_items"`
	ContingencyPlans []ContingencyPlanResponse `json:"contingency_plans"`
	Participants     []ParticipantResponse     `json:"participants"`
}
