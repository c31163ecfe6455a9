package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"wisefido-handover/internal/domain"
)

// MemoryStore implements every repository in one process-local store.
// Used when the database is disabled or unreachable, and in tests. A single
// mutex guards all maps so CreateHandover stays all-or-nothing.
type MemoryStore struct {
	mu sync.RWMutex

	patients     map[string]string // id -> full name
	assignments  map[assignmentKey]domain.Assignment
	handovers    map[string]*domain.Handover
	participants map[string][]domain.Participant
	sections     map[sectionKey]domain.ContentSection
	actionItems  map[string][]domain.ActionItem
	plans        map[string][]domain.ContingencyPlan
}

type assignmentKey struct{ userID, shiftID, patientID string }

type sectionKey struct {
	handoverID string
	kind       domain.SectionKind
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		patients:     make(map[string]string),
		assignments:  make(map[assignmentKey]domain.Assignment),
		handovers:    make(map[string]*domain.Handover),
		participants: make(map[string][]domain.Participant),
		sections:     make(map[sectionKey]domain.ContentSection),
		actionItems:  make(map[string][]domain.ActionItem),
		plans:        make(map[string][]domain.ContingencyPlan),
	}
}

// AddPatient registers a patient; the roster owns patients in production.
func (s *MemoryStore) AddPatient(id, fullName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patients[id] = fullName
}

func (s *MemoryStore) ensureAssignmentLocked(a domain.Assignment) (domain.Assignment, error) {
	if _, ok := s.patients[a.PatientID]; !ok {
		return domain.Assignment{}, notFoundf("patient %s", a.PatientID)
	}
	k := assignmentKey{a.UserID, a.ShiftID, a.PatientID}
	if existing, ok := s.assignments[k]; ok {
		return existing, nil
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.assignments[k] = a
	return a, nil
}

func (s *MemoryStore) EnsureAssignment(_ context.Context, a domain.Assignment) (*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := s.ensureAssignmentLocked(a)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MemoryStore) CreateHandover(_ context.Context, bundle *domain.NewHandoverBundle) (*domain.Handover, error) {
	if bundle == nil {
		return nil, domain.Validationf("bundle is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	h := bundle.Handover.Clone()
	if _, ok := s.patients[h.PatientID]; !ok {
		return nil, notFoundf("patient %s", h.PatientID)
	}
	if _, dup := s.handovers[h.ID]; dup {
		return nil, domain.Datastore("insert handover", fmt.Errorf("duplicate id %s", h.ID))
	}
	window := h.Window()
	for _, other := range s.handovers {
		if !other.IsTerminal() && other.Window() == window {
			return nil, fmt.Errorf("patient %s window %s: %w", h.PatientID, window.WindowDate, domain.ErrConflict)
		}
	}

	// All checks are done before the first write, so nothing needs undoing.
	a, err := s.ensureAssignmentLocked(bundle.Assignment)
	if err != nil {
		return nil, err
	}
	h.AssignmentID = a.ID
	s.handovers[h.ID] = h

	for _, p := range bundle.Participants {
		p.HandoverID = h.ID
		s.participants[h.ID] = append(s.participants[h.ID], p)
	}
	for _, sec := range bundle.Sections {
		sec.HandoverID = h.ID
		s.sections[sectionKey{h.ID, sec.Kind}] = sec
	}
	return h.Clone(), nil
}

func (s *MemoryStore) GetHandover(_ context.Context, handoverID string) (*domain.Handover, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handovers[handoverID]
	if !ok {
		return nil, notFoundf("handover %s", handoverID)
	}
	return h.Clone(), nil
}

func (s *MemoryStore) ApplyTransition(_ context.Context, tr domain.Transition, cmd domain.TransitionCommand, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.handovers[cmd.HandoverID]
	if !ok || !tr.Allowed(h) {
		return false, nil
	}
	if cmd.ExpectedVersion != nil && *cmd.ExpectedVersion != h.Version {
		return false, nil
	}

	h.SetTimestamp(tr.Sets, at)
	if cmd.ActorID != "" {
		switch tr.ActorColumn {
		case "completed_by":
			h.CompletedBy = cmd.ActorID
		case "cancelled_by":
			h.CancelledBy = cmd.ActorID
		case "rejected_by":
			h.RejectedBy = cmd.ActorID
		}
	}
	if cmd.Reason != "" {
		switch tr.ReasonColumn {
		case "cancellation_reason":
			h.CancellationReason = cmd.Reason
		case "rejection_reason":
			h.RejectionReason = cmd.Reason
		}
	}
	h.Version++
	h.UpdatedAt = at
	return true, nil
}

func (s *MemoryStore) ListParticipants(_ context.Context, handoverID string) ([]domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Participant(nil), s.participants[handoverID]...), nil
}

func (s *MemoryStore) GetSection(_ context.Context, handoverID string, kind domain.SectionKind) (*domain.ContentSection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.sections[sectionKey{handoverID, kind}]
	if !ok {
		return nil, notFoundf("section %s of handover %s", kind, handoverID)
	}
	return &sec, nil
}

func (s *MemoryStore) MaterializeDefaultSection(_ context.Context, handoverID string, kind domain.SectionKind, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handovers[handoverID]
	if !ok {
		return false, nil
	}
	k := sectionKey{handoverID, kind}
	if _, exists := s.sections[k]; !exists {
		s.sections[k] = domain.DefaultSection(handoverID, kind, h.CreatedBy, at)
	}
	return true, nil
}

func (s *MemoryStore) UpsertSection(_ context.Context, u domain.SectionUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handovers[u.HandoverID]
	if !ok {
		return false, nil
	}
	k := sectionKey{u.HandoverID, u.Kind}
	sec, exists := s.sections[k]
	if !exists {
		sec = domain.DefaultSection(u.HandoverID, u.Kind, h.CreatedBy, u.At)
	}
	sec.Content = u.Content
	sec.Status = u.Status
	if u.IllnessSeverity != nil {
		sec.IllnessSeverity = *u.IllnessSeverity
	}
	sec.LastEditedBy = u.EditorID
	sec.UpdatedAt = u.At
	s.sections[k] = sec
	return true, nil
}

func (s *MemoryStore) ListSections(_ context.Context, handoverID string) ([]domain.ContentSection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ContentSection
	for _, kind := range domain.SectionKinds {
		if sec, ok := s.sections[sectionKey{handoverID, kind}]; ok {
			out = append(out, sec)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateActionItem(_ context.Context, item domain.ActionItem) (*domain.ActionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.handovers[item.HandoverID]; !ok {
		return nil, notFoundf("handover %s", item.HandoverID)
	}
	s.actionItems[item.HandoverID] = append(s.actionItems[item.HandoverID], item)
	return &item, nil
}

func (s *MemoryStore) ListActionItems(_ context.Context, handoverID string) ([]domain.ActionItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ActionItem{}, s.actionItems[handoverID]...), nil
}

func (s *MemoryStore) UpdateActionItem(_ context.Context, handoverID, itemID string, patch domain.ActionItemPatch) (*domain.ActionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.actionItems[handoverID]
	for i := range items {
		if items[i].ID != itemID {
			continue
		}
		it := &items[i]
		if patch.Description != nil {
			it.Description = *patch.Description
		}
		if patch.IsCompleted != nil {
			it.IsCompleted = *patch.IsCompleted
			switch {
			case !it.IsCompleted:
				it.CompletedAt = nil
			case it.CompletedAt == nil:
				at := patch.At
				it.CompletedAt = &at
			}
		}
		it.UpdatedAt = patch.At
		out := *it
		return &out, nil
	}
	return nil, notFoundf("action item %s of handover %s", itemID, handoverID)
}

func (s *MemoryStore) DeleteActionItem(_ context.Context, handoverID, itemID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.actionItems[handoverID]
	for i := range items {
		if items[i].ID == itemID {
			s.actionItems[handoverID] = append(items[:i:i], items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) CreateContingencyPlan(_ context.Context, plan domain.ContingencyPlan) (*domain.ContingencyPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.handovers[plan.HandoverID]; !ok {
		return nil, notFoundf("handover %s", plan.HandoverID)
	}
	s.plans[plan.HandoverID] = append(s.plans[plan.HandoverID], plan)
	return &plan, nil
}

func (s *MemoryStore) ListContingencyPlans(_ context.Context, handoverID string) ([]domain.ContingencyPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ContingencyPlan{}, s.plans[handoverID]...), nil
}

func (s *MemoryStore) UpdateContingencyPlan(_ context.Context, handoverID, planID string, patch domain.ContingencyPlanPatch) (*domain.ContingencyPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plans := s.plans[handoverID]
	for i := range plans {
		if plans[i].ID != planID {
			continue
		}
		p := &plans[i]
		if patch.Priority != nil {
			p.Priority = *patch.Priority
		}
		if patch.Status != nil {
			p.Status = *patch.Status
		}
		p.UpdatedAt = patch.At
		out := *p
		return &out, nil
	}
	return nil, notFoundf("contingency plan %s of handover %s", planID, handoverID)
}

func (s *MemoryStore) DeleteContingencyPlan(_ context.Context, handoverID, planID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plans := s.plans[handoverID]
	for i := range plans {
		if plans[i].ID == planID {
			s.plans[handoverID] = append(plans[:i:i], plans[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

var (
	_ HandoversRepository        = (*MemoryStore)(nil)
	_ SectionsRepository         = (*MemoryStore)(nil)
	_ AssignmentsRepository      = (*MemoryStore)(nil)
	_ ActionItemsRepository      = (*MemoryStore)(nil)
	_ ContingencyPlansRepository = (*MemoryStore)(nil)

	_ HandoversRepository        = (*PostgresHandoversRepository)(nil)
	_ SectionsRepository         = (*PostgresSectionsRepository)(nil)
	_ AssignmentsRepository      = (*PostgresAssignmentsRepository)(nil)
	_ ActionItemsRepository      = (*PostgresActionItemsRepository)(nil)
	_ ContingencyPlansRepository = (*PostgresContingencyPlansRepository)(nil)
)
