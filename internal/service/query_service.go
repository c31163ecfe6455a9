package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wisefido-handover/internal/domain"
	"wisefido-handover/internal/store"
)

// HandoverQueryService composes the read model for one handover.
type HandoverQueryService interface {
	// GetView returns ErrNotFound when the handover (or any required part) is missing.
	GetView(ctx context.Context, handoverID string) (*HandoverView, error)
}

type handoverQueryService struct {
	Deps
	content ContentService
}

func NewHandoverQueryService(d Deps, content ContentService) HandoverQueryService {
	d = d.withDefaults()
	if content == nil {
		content = NewContentService(d)
	}
	return &handoverQueryService{Deps: d, content: content}
}

func (s *handoverQueryService) GetView(ctx context.Context, handoverID string) (*HandoverView, error) {
	defer s.Metrics.Since("get_view", time.Now())

	// The generation is read before building; a write during the build bumps
	// it, so the Put below lands under a key later reads never look at.
	gen, genErr := s.Cache.Generation(ctx, handoverID)
	if genErr != nil {
		s.Logger.Warn("Handover view cache generation read failed", zap.String("handover_id", handoverID), zap.Error(genErr))
	} else {
		var cached HandoverView
		switch err := s.Cache.Get(ctx, handoverID, gen, &cached); {
		case err == nil:
			s.Metrics.ObserveCache(true)
			return &cached, nil
		case !errors.Is(err, store.ErrMiss):
			s.Logger.Warn("Handover view cache read failed", zap.String("handover_id", handoverID), zap.Error(err))
		}
		if s.Cache != nil {
			s.Metrics.ObserveCache(false)
		}
	}

	view, err := s.compose(ctx, handoverID)
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		if err := s.Cache.Put(ctx, handoverID, gen, view); err != nil {
			s.Logger.Warn("Handover view cache write failed", zap.String("handover_id", handoverID), zap.Error(err))
		}
	}
	return view, nil
}

func (s *handoverQueryService) compose(ctx context.Context, handoverID string) (*HandoverView, error) {
	h, err := s.Handovers.GetHandover(ctx, handoverID)
	if err != nil {
		return nil, err
	}
	view := &HandoverView{
		Handover:         NewHandoverResponse(h),
		Sections:         make([]SectionResponse, 0, len(domain.SectionKinds)),
		ActionItems:      []ActionItemResponse{},
		ContingencyPlans: []ContingencyPlanResponse{},
		Participants:     []ParticipantResponse{},
	}

	stored, err := s.Sections.ListSections(ctx, handoverID)
	if err != nil {
		return nil, err
	}
	byKind := make(map[domain.SectionKind]*domain.ContentSection, len(stored))
	for i := range stored {
		byKind[stored[i].Kind] = &stored[i]
	}
	for _, kind := range domain.SectionKinds {
		sec, ok := byKind[kind]
		if !ok {
			// Only kinds without a row go through lazy materialization.
			if sec, err = s.content.GetSection(ctx, handoverID, kind); err != nil {
				return nil, fmt.Errorf("compose %s section: %w", kind, err)
			}
		}
		view.Sections = append(view.Sections, NewSectionResponse(sec))
	}

	items, err := s.ActionItems.ListActionItems(ctx, handoverID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		view.ActionItems = append(view.ActionItems, NewActionItemResponse(&items[i]))
	}

	plans, err := s.Plans.ListContingencyPlans(ctx, handoverID)
	if err != nil {
		return nil, err
	}
	for i := range plans {
		view.ContingencyPlans = append(view.ContingencyPlans, NewContingencyPlanResponse(&plans[i]))
	}

	participants, err := s.Handovers.ListParticipants(ctx, handoverID)
	if err != nil {
		return nil, err
	}
	for _, p := range participants {
		view.Participants = append(view.Participants, ParticipantResponse{
			ID: p.ID, UserID: p.UserID, DisplayName: p.DisplayName, Role: p.Role, Status: p.Status, JoinedAt: p.JoinedAt,
		})
	}
	return view, nil
}
