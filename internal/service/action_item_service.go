package service

import (
	"context"
	"fmt"
	"strings"

	"wisefido-handover/internal/domain"
)

// ActionItemService is the action-item child registry.
type ActionItemService interface {
	CreateActionItem(ctx context.Context, req CreateActionItemRequest) (*domain.ActionItem, error)
	ListActionItems(ctx context.Context, handoverID string) ([]domain.ActionItem, error)
	UpdateActionItem(ctx context.Context, req UpdateActionItemRequest) (*domain.ActionItem, error)
	// DeleteActionItem returns ErrNotFound when the pair does not exist.
	DeleteActionItem(ctx context.Context, handoverID, itemID string) error
}

type actionItemService struct {
	Deps
}

func NewActionItemService(d Deps) ActionItemService {
	return &actionItemService{Deps: d.withDefaults()}
}

type CreateActionItemRequest struct {
	HandoverID  string
	Description string
}

// UpdateActionItemRequest is partial; nil fields are untouched.
type UpdateActionItemRequest struct {
	HandoverID  string
	ItemID      string
	Description *string
	IsCompleted *bool
}

func (s *actionItemService) CreateActionItem(ctx context.Context, req CreateActionItemRequest) (*domain.ActionItem, error) {
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		return nil, domain.Validationf("description is required")
	}
	now := s.Now()
	item, err := s.ActionItems.CreateActionItem(ctx, domain.ActionItem{
		ID:          s.NewID(),
		HandoverID:  req.HandoverID,
		Description: desc,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("create action item: %w", err)
	}
	s.invalidate(ctx, req.HandoverID)
	return item, nil
}

func (s *actionItemService) ListActionItems(ctx context.Context, handoverID string) ([]domain.ActionItem, error) {
	if _, err := s.Handovers.GetHandover(ctx, handoverID); err != nil {
		return nil, err
	}
	return s.ActionItems.ListActionItems(ctx, handoverID)
}

func (s *actionItemService) UpdateActionItem(ctx context.Context, req UpdateActionItemRequest) (*domain.ActionItem, error) {
	if req.Description == nil && req.IsCompleted == nil {
		return nil, domain.Validationf("nothing to update")
	}
	if req.Description != nil {
		d := strings.TrimSpace(*req.Description)
		if d == "" {
			return nil, domain.Validationf("description must not be empty")
		}
		req.Description = &d
	}
	item, err := s.ActionItems.UpdateActionItem(ctx, req.HandoverID, req.ItemID, domain.ActionItemPatch{
		Description: req.Description,
		IsCompleted: req.IsCompleted,
		At:          s.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("update action item: %w", err)
	}
	s.invalidate(ctx, req.HandoverID)
	return item, nil
}

func (s *actionItemService) DeleteActionItem(ctx context.Context, handoverID, itemID string) error {
	found, err := s.ActionItems.DeleteActionItem(ctx, handoverID, itemID)
	if err != nil {
		return fmt.Errorf("delete action item: %w", err)
	}
	if !found {
		return fmt.Errorf("action item %s of handover %s: %w", itemID, handoverID, domain.ErrNotFound)
	}
	s.invalidate(ctx, handoverID)
	return nil
}
