package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"wisefido-handover/internal/domain"
)

// ContentService is the content store for the three singleton sections.
type ContentService interface {
	// GetSection returns the section, materializing the default row on first
	// read. NotFound when the handover does not exist; no row is created then.
	GetSection(ctx context.Context, handoverID string, kind domain.SectionKind) (*domain.ContentSection, error)

	// UpdateSection upserts the section. false means the handover does not exist.
	UpdateSection(ctx context.Context, req UpdateSectionRequest) (bool, error)
}

type contentService struct {
	Deps
}

func NewContentService(d Deps) ContentService {
	return &contentService{Deps: d.withDefaults()}
}

type UpdateSectionRequest struct {
	HandoverID      string
	Kind            domain.SectionKind
	Content         string
	Status          string  // draft|final; empty means draft
	IllnessSeverity *string // patient data only
	EditorID        string
}

func (s *contentService) GetSection(ctx context.Context, handoverID string, kind domain.SectionKind) (*domain.ContentSection, error) {
	if !kind.Valid() {
		return nil, domain.Validationf("unknown section kind %q", kind)
	}
	sec, err := s.Sections.GetSection(ctx, handoverID, kind)
	if err == nil || !errors.Is(err, domain.ErrNotFound) {
		return sec, err
	}

	// First read: insert-or-ignore then re-read, so concurrent readers converge.
	exists, err := s.Sections.MaterializeDefaultSection(ctx, handoverID, kind, s.Now())
	if err != nil {
		return nil, fmt.Errorf("materialize %s section: %w", kind, err)
	}
	if !exists {
		return nil, fmt.Errorf("handover %s: %w", handoverID, domain.ErrNotFound)
	}
	s.Logger.Debug("Materialized default section",
		zap.String("handover_id", handoverID),
		zap.String("kind", string(kind)),
	)
	return s.Sections.GetSection(ctx, handoverID, kind)
}

func (s *contentService) UpdateSection(ctx context.Context, req UpdateSectionRequest) (bool, error) {
	defer s.Metrics.Since("update_section", time.Now())

	if !req.Kind.Valid() {
		return false, domain.Validationf("unknown section kind %q", req.Kind)
	}
	if strings.TrimSpace(req.EditorID) == "" {
		return false, domain.Validationf("editor id is required")
	}
	status := orDefault(req.Status, domain.SectionStatusDraft)
	if !domain.ValidSectionStatus(status) {
		return false, domain.Validationf("status %q must be draft or final", req.Status)
	}
	if req.IllnessSeverity != nil {
		if req.Kind != domain.SectionPatientData {
			return false, domain.Validationf("illness_severity only applies to %s", domain.SectionPatientData)
		}
		if !domain.ValidSeverity(*req.IllnessSeverity) {
			return false, domain.Validationf("illness_severity %q must be stable, watcher or unstable", *req.IllnessSeverity)
		}
	}

	ok, err := s.Sections.UpsertSection(ctx, domain.SectionUpdate{
		HandoverID:      req.HandoverID,
		Kind:            req.Kind,
		Content:         req.Content,
		Status:          status,
		IllnessSeverity: req.IllnessSeverity,
		EditorID:        req.EditorID,
		At:              s.Now(),
	})
	if err != nil {
		s.Logger.Error("Failed to update section",
			zap.String("handover_id", req.HandoverID),
			zap.String("kind", string(req.Kind)),
			zap.Error(err),
		)
		return false, fmt.Errorf("update %s section: %w", req.Kind, err)
	}
	if ok {
		s.invalidate(ctx, req.HandoverID)
	}
	return ok, nil
}
