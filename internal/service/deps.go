package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wisefido-handover/internal/metrics"
	"wisefido-handover/internal/notify"
	"wisefido-handover/internal/repository"
	"wisefido-handover/internal/store"
)

// Deps wires the services to their stores and side channels. Cache, Metrics
// and Events may be nil; Now and NewID default to UTC wall time and uuid v4.
type Deps struct {
	Handovers   repository.HandoversRepository
	Sections    repository.SectionsRepository
	Assignments repository.AssignmentsRepository
	ActionItems repository.ActionItemsRepository
	Plans       repository.ContingencyPlansRepository

	Cache   *store.ViewCache
	Events  notify.Publisher
	Metrics *metrics.Metrics
	Logger  *zap.Logger

	Now   func() time.Time
	NewID func() string
}

// MemoryDeps points every repository at one MemoryStore.
func MemoryDeps(s *repository.MemoryStore) Deps {
	return Deps{Handovers: s, Sections: s, Assignments: s, ActionItems: s, Plans: s}
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Events == nil {
		d.Events = notify.Nop{}
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return d
}

// invalidate drops the cached composed view; failures only cost freshness until TTL.
func (d Deps) invalidate(ctx context.Context, handoverID string) {
	if err := d.Cache.Invalidate(ctx, handoverID); err != nil {
		d.Logger.Warn("Failed to invalidate handover view cache",
			zap.String("handover_id", handoverID),
			zap.Error(err),
		)
	}
}

// Services bundles every service built from the same Deps.
type Services struct {
	Handovers        HandoverService
	Content          ContentService
	Assignments      AssignmentService
	ActionItems      ActionItemService
	ContingencyPlans ContingencyPlanService
	Query            HandoverQueryService
}

func New(d Deps) *Services {
	d = d.withDefaults()
	content := NewContentService(d)
	return &Services{
		Handovers:        NewHandoverService(d),
		Content:          content,
		Assignments:      NewAssignmentService(d),
		ActionItems:      NewActionItemService(d),
		ContingencyPlans: NewContingencyPlanService(d),
		Query:            NewHandoverQueryService(d, content),
	}
}
