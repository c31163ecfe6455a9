package service

import (
	"context"
	"fmt"

	"wisefido-handover/internal/domain"
)

// AssignmentService is the assignment coordinator.
type AssignmentService interface {
	// EnsureAssignment is create-if-absent by (userID, shiftID, patientID).
	EnsureAssignment(ctx context.Context, userID, shiftID, patientID string) (*domain.Assignment, error)
}

type assignmentService struct {
	Deps
}

func NewAssignmentService(d Deps) AssignmentService {
	return &assignmentService{Deps: d.withDefaults()}
}

func (s *assignmentService) EnsureAssignment(ctx context.Context, userID, shiftID, patientID string) (*domain.Assignment, error) {
	if err := requireFields("user_id", userID, "shift_id", shiftID, "patient_id", patientID); err != nil {
		return nil, err
	}
	a, err := s.Assignments.EnsureAssignment(ctx, domain.Assignment{
		ID:         s.NewID(),
		UserID:     userID,
		ShiftID:    shiftID,
		PatientID:  patientID,
		AssignedAt: s.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("ensure assignment: %w", err)
	}
	return a, nil
}
