package service

import (
	"context"
	"fmt"
	"strings"

	"wisefido-handover/internal/domain"
)

// ContingencyPlanService is the contingency-plan child registry.
type ContingencyPlanService interface {
	CreateContingencyPlan(ctx context.Context, req CreateContingencyPlanRequest) (*domain.ContingencyPlan, error)
	ListContingencyPlans(ctx context.Context, handoverID string) ([]domain.ContingencyPlan, error)
	UpdateContingencyPlan(ctx context.Context, req UpdateContingencyPlanRequest) (*domain.ContingencyPlan, error)
	DeleteContingencyPlan(ctx context.Context, handoverID, planID string) error
}

type contingencyPlanService struct {
	Deps
}

func NewContingencyPlanService(d Deps) ContingencyPlanService {
	return &contingencyPlanService{Deps: d.withDefaults()}
}

type CreateContingencyPlanRequest struct {
	HandoverID    string
	ConditionText string
	ActionText    string
	Priority      string // default medium
	Status        string // default active
	CreatedBy     string
}

type UpdateContingencyPlanRequest struct {
	HandoverID string
	PlanID     string
	Priority   *string
	Status     *string
}

func (s *contingencyPlanService) CreateContingencyPlan(ctx context.Context, req CreateContingencyPlanRequest) (*domain.ContingencyPlan, error) {
	if err := requireFields(
		"condition_text", req.ConditionText,
		"action_text", req.ActionText,
		"created_by", req.CreatedBy,
	); err != nil {
		return nil, err
	}
	priority := orDefault(req.Priority, domain.PriorityMedium)
	if !domain.ValidPriority(priority) {
		return nil, domain.Validationf("priority %q must be low, medium or high", priority)
	}
	status := orDefault(req.Status, domain.PlanStatusActive)
	if !domain.ValidPlanStatus(status) {
		return nil, domain.Validationf("status %q must be active, planned or completed", status)
	}

	now := s.Now()
	plan, err := s.Plans.CreateContingencyPlan(ctx, domain.ContingencyPlan{
		ID:            s.NewID(),
		HandoverID:    req.HandoverID,
		ConditionText: strings.TrimSpace(req.ConditionText),
		ActionText:    strings.TrimSpace(req.ActionText),
		Priority:      priority,
		Status:        status,
		CreatedBy:     req.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("create contingency plan: %w", err)
	}
	s.invalidate(ctx, req.HandoverID)
	return plan, nil
}

func (s *contingencyPlanService) ListContingencyPlans(ctx context.Context, handoverID string) ([]domain.ContingencyPlan, error) {
	if _, err := s.Handovers.GetHandover(ctx, handoverID); err != nil {
		return nil, err
	}
	return s.Plans.ListContingencyPlans(ctx, handoverID)
}

func (s *contingencyPlanService) UpdateContingencyPlan(ctx context.Context, req UpdateContingencyPlanRequest) (*domain.ContingencyPlan, error) {
	if req.Priority == nil && req.Status == nil {
		return nil, domain.Validationf("nothing to update")
	}
	if req.Priority != nil && !domain.ValidPriority(*req.Priority) {
		return nil, domain.Validationf("priority %q must be low, medium or high", *req.Priority)
	}
	if req.Status != nil && !domain.ValidPlanStatus(*req.Status) {
		return nil, domain.Validationf("status %q must be active, planned or completed", *req.Status)
	}
	plan, err := s.Plans.UpdateContingencyPlan(ctx, req.HandoverID, req.PlanID, domain.ContingencyPlanPatch{
		Priority: req.Priority,
		Status:   req.Status,
		At:       s.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("update contingency plan: %w", err)
	}
	s.invalidate(ctx, req.HandoverID)
	return plan, nil
}

func (s *contingencyPlanService) DeleteContingencyPlan(ctx context.Context, handoverID, planID string) error {
	found, err := s.Plans.DeleteContingencyPlan(ctx, handoverID, planID)
	if err != nil {
		return fmt.Errorf("delete contingency plan: %w", err)
	}
	if !found {
		return fmt.Errorf("contingency plan %s of handover %s: %w", planID, handoverID, domain.ErrNotFound)
	}
	s.invalidate(ctx, handoverID)
	return nil
}
