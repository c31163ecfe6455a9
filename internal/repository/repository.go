package repository

import (
	"context"
	"database/sql"
	"time"

	"wisefido-handover/internal/domain"
)

// Querier is satisfied by *sql.DB and *sql.Tx so statements can run inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// HandoversRepository owns handover rows and their participants.
type HandoversRepository interface {
	// CreateHandover writes the assignment upsert, handover, participants and
	// default sections as one transaction. Returns ErrNotFound when the patient
	// is unknown and ErrConflict when an active handover already holds the window.
	CreateHandover(ctx context.Context, bundle *domain.NewHandoverBundle) (*domain.Handover, error)

	// GetHandover returns ErrNotFound when id is unknown.
	GetHandover(ctx context.Context, handoverID string) (*domain.Handover, error)

	// ApplyTransition runs the guarded conditional update. false means zero rows
	// matched (missing, guard failed, or version mismatch); callers classify.
	ApplyTransition(ctx context.Context, tr domain.Transition, cmd domain.TransitionCommand, at time.Time) (bool, error)

	// ListParticipants returns participants ordered by joined_at.
	ListParticipants(ctx context.Context, handoverID string) ([]domain.Participant, error)
}

// SectionsRepository owns the (handover_id, kind) singleton rows.
type SectionsRepository interface {
	// GetSection returns ErrNotFound when the row does not exist (it never creates one).
	GetSection(ctx context.Context, handoverID string, kind domain.SectionKind) (*domain.ContentSection, error)

	// MaterializeDefaultSection inserts the default row authored by the handover's
	// creator if absent. Concurrent callers converge on one row. Returns false
	// when the parent handover does not exist; nothing is inserted then.
	MaterializeDefaultSection(ctx context.Context, handoverID string, kind domain.SectionKind, at time.Time) (bool, error)

	// UpsertSection inserts or updates the row. Returns false when the parent handover does not exist.
	UpsertSection(ctx context.Context, u domain.SectionUpdate) (bool, error)

	// ListSections returns the stored rows for a handover (possibly fewer than three).
	ListSections(ctx context.Context, handoverID string) ([]domain.ContentSection, error)
}

// AssignmentsRepository resolves physician/shift/patient assignments.
type AssignmentsRepository interface {
	// EnsureAssignment inserts a or returns the existing row with the same natural key, unchanged.
	EnsureAssignment(ctx context.Context, a domain.Assignment) (*domain.Assignment, error)
}

// ActionItemsRepository is the action-item child registry.
type ActionItemsRepository interface {
	// CreateActionItem returns ErrNotFound when the handover does not exist.
	CreateActionItem(ctx context.Context, item domain.ActionItem) (*domain.ActionItem, error)
	// ListActionItems orders by created_at ascending.
	ListActionItems(ctx context.Context, handoverID string) ([]domain.ActionItem, error)
	// UpdateActionItem returns ErrNotFound when the (handover, item) pair does not exist.
	UpdateActionItem(ctx context.Context, handoverID, itemID string, patch domain.ActionItemPatch) (*domain.ActionItem, error)
	// DeleteActionItem reports whether a row was removed.
	DeleteActionItem(ctx context.Context, handoverID, itemID string) (bool, error)
}

// ContingencyPlansRepository is the contingency-plan child registry.
type ContingencyPlansRepository interface {
	CreateContingencyPlan(ctx context.Context, plan domain.ContingencyPlan) (*domain.ContingencyPlan, error)
	ListContingencyPlans(ctx context.Context, handoverID string) ([]domain.ContingencyPlan, error)
	UpdateContingencyPlan(ctx context.Context, handoverID, planID string, patch domain.ContingencyPlanPatch) (*domain.ContingencyPlan, error)
	DeleteContingencyPlan(ctx context.Context, handoverID, planID string) (bool, error)
}
