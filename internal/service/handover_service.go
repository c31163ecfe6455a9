package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"wisefido-handover/internal/domain"
	"wisefido-handover/internal/metrics"
	"wisefido-handover/internal/notify"
)

// HandoverService is the lifecycle manager: creation plus the guarded transitions.
type HandoverService interface {
	CreateHandover(ctx context.Context, req CreateHandoverRequest) (*domain.Handover, error)
	GetHandover(ctx context.Context, handoverID string) (*domain.Handover, error)

	MarkReady(ctx context.Context, req TransitionRequest) (*domain.Handover, error)
	Start(ctx context.Context, req TransitionRequest) (*domain.Handover, error)
	Accept(ctx context.Context, req TransitionRequest) (*domain.Handover, error)
	Complete(ctx context.Context, req TransitionRequest) (*domain.Handover, error)
	Cancel(ctx context.Context, req TransitionRequest) (*domain.Handover, error)
	Reject(ctx context.Context, req TransitionRequest) (*domain.Handover, error)

	// Transition applies any transition by name; the named methods delegate here.
	Transition(ctx context.Context, name domain.TransitionName, req TransitionRequest) (*domain.Handover, error)
}

type handoverService struct {
	Deps
}

func NewHandoverService(d Deps) HandoverService {
	return &handoverService{Deps: d.withDefaults()}
}

// CreateHandoverRequest promotes the (FromDoctorID, FromShiftID, PatientID) assignment to a handover.
type CreateHandoverRequest struct {
	PatientID    string
	FromShiftID  string
	ToShiftID    string
	FromDoctorID string
	ToDoctorID   string
	InitiatedBy  string

	FromDoctorName         string // optional; defaults to the user id
	ToDoctorName           string // optional; defaults to the user id
	ResponsiblePhysicianID string // optional; defaults to FromDoctorID
	HandoverType           string // optional; defaults to shift_change
	WindowDate             string // optional YYYY-MM-DD; defaults to today (UTC)
}

// TransitionRequest carries the acting user and the optional optimistic-concurrency version.
type TransitionRequest struct {
	HandoverID      string
	ActorID         string
	ExpectedVersion *int64
	Reason          string // cancel (optional) and reject (required)
}

func (r CreateHandoverRequest) validate() error {
	return requireFields(
		"patient_id", r.PatientID,
		"from_shift_id", r.FromShiftID,
		"to_shift_id", r.ToShiftID,
		"from_doctor_id", r.FromDoctorID,
		"to_doctor_id", r.ToDoctorID,
		"initiated_by", r.InitiatedBy,
	)
}

// requireFields takes name/value pairs and fails on the first blank value.
func requireFields(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return domain.Validationf("%s is required", pairs[i])
		}
	}
	return nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func (s *handoverService) CreateHandover(ctx context.Context, req CreateHandoverRequest) (*domain.Handover, error) {
	defer s.Metrics.Since("create_handover", time.Now())

	if err := req.validate(); err != nil {
		return nil, err
	}
	now := s.Now()

	windowDate := now.Truncate(24 * time.Hour)
	if req.WindowDate != "" {
		d, err := time.Parse(domain.DateLayout, req.WindowDate)
		if err != nil {
			return nil, domain.Validationf("window_date %q must be YYYY-MM-DD", req.WindowDate)
		}
		windowDate = d
	}

	hid := s.NewID()
	bundle := &domain.NewHandoverBundle{
		Assignment: domain.Assignment{
			ID:         s.NewID(),
			UserID:     req.FromDoctorID,
			ShiftID:    req.FromShiftID,
			PatientID:  req.PatientID,
			AssignedAt: now,
		},
		Handover: domain.Handover{
			ID:                     hid,
			PatientID:              req.PatientID,
			FromShiftID:            req.FromShiftID,
			ToShiftID:              req.ToShiftID,
			FromPhysicianID:        req.FromDoctorID,
			ToPhysicianID:          req.ToDoctorID,
			ResponsiblePhysicianID: orDefault(req.ResponsiblePhysicianID, req.FromDoctorID),
			HandoverType:           orDefault(req.HandoverType, domain.HandoverTypeShiftChange),
			WindowDate:             windowDate,
			CreatedBy:              req.InitiatedBy,
			Version:                1,
			CreatedAt:              now,
			UpdatedAt:              now,
		},
		Participants: []domain.Participant{
			{
				ID: s.NewID(), HandoverID: hid, UserID: req.FromDoctorID,
				DisplayName: orDefault(req.FromDoctorName, req.FromDoctorID),
				Role:        domain.RoleHandingOff, Status: domain.ParticipantStatusActive, JoinedAt: now,
			},
			{
				ID: s.NewID(), HandoverID: hid, UserID: req.ToDoctorID,
				DisplayName: orDefault(req.ToDoctorName, req.ToDoctorID),
				Role:        domain.RoleReceiving, Status: domain.ParticipantStatusActive, JoinedAt: now,
			},
		},
	}
	for _, kind := range domain.SectionKinds {
		bundle.Sections = append(bundle.Sections, domain.DefaultSection(hid, kind, req.InitiatedBy, now))
	}

	h, err := s.Handovers.CreateHandover(ctx, bundle)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrNotFound):
			s.Logger.Warn("Handover not created",
				zap.String("patient_id", req.PatientID),
				zap.String("from_shift_id", req.FromShiftID),
				zap.String("to_shift_id", req.ToShiftID),
				zap.Error(err),
			)
		default:
			s.Logger.Error("Failed to create handover", zap.String("patient_id", req.PatientID), zap.Error(err))
		}
		return nil, fmt.Errorf("create handover: %w", err)
	}

	s.Logger.Info("Handover created",
		zap.String("handover_id", h.ID),
		zap.String("patient_id", h.PatientID),
		zap.String("assignment_id", h.AssignmentID),
		zap.String("window_date", h.Window().WindowDate),
	)
	s.publish(ctx, notify.EventCreated, h, req.InitiatedBy, "")
	return h, nil
}

func (s *handoverService) GetHandover(ctx context.Context, handoverID string) (*domain.Handover, error) {
	if handoverID == "" {
		return nil, domain.Validationf("handover id is required")
	}
	return s.Handovers.GetHandover(ctx, handoverID)
}

func (s *handoverService) MarkReady(ctx context.Context, req TransitionRequest) (*domain.Handover, error) {
	return s.Transition(ctx, domain.TransitionReady, req)
}

func (s *handoverService) Start(ctx context.Context, req TransitionRequest) (*domain.Handover, error) {
	return s.Transition(ctx, domain.TransitionStart, req)
}

func (s *handoverService) Accept(ctx context.Context, req TransitionRequest) (*domain.Handover, error) {
	return s.Transition(ctx, domain.TransitionAccept, req)
}

func (s *handoverService) Complete(ctx context.Context, req TransitionRequest) (*domain.Handover, error) {
	return s.Transition(ctx, domain.TransitionComplete, req)
}

func (s *handoverService) Cancel(ctx context.Context, req TransitionRequest) (*domain.Handover, error) {
	return s.Transition(ctx, domain.TransitionCancel, req)
}

func (s *handoverService) Reject(ctx context.Context, req TransitionRequest) (*domain.Handover, error) {
	return s.Transition(ctx, domain.TransitionReject, req)
}

var transitionEvents = map[domain.TransitionName]string{
	domain.TransitionReady:    notify.EventReady,
	domain.TransitionStart:    notify.EventStarted,
	domain.TransitionAccept:   notify.EventAccepted,
	domain.TransitionComplete: notify.EventCompleted,
	domain.TransitionCancel:   notify.EventCancelled,
	domain.TransitionReject:   notify.EventRejected,
}

func (s *handoverService) Transition(ctx context.Context, name domain.TransitionName, req TransitionRequest) (*domain.Handover, error) {
	defer s.Metrics.Since("transition_"+string(name), time.Now())

	tr, ok := domain.LookupTransition(name)
	if !ok {
		return nil, domain.Validationf("unknown transition %q", name)
	}
	if req.HandoverID == "" {
		return nil, domain.Validationf("handover id is required")
	}
	if req.ActorID == "" {
		return nil, domain.Validationf("acting user id is required")
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if tr.ReasonRequired && req.Reason == "" {
		return nil, domain.Validationf("reason is required to %s a handover", name)
	}

	cmd := domain.TransitionCommand{
		HandoverID:      req.HandoverID,
		ActorID:         req.ActorID,
		ExpectedVersion: req.ExpectedVersion,
		Reason:          req.Reason,
	}
	applied, err := s.Handovers.ApplyTransition(ctx, tr, cmd, s.Now())
	if err != nil {
		s.Metrics.ObserveTransition(string(name), metrics.OutcomeError)
		s.Logger.Error("Handover transition failed",
			zap.String("handover_id", req.HandoverID),
			zap.String("transition", string(name)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s handover: %w", name, err)
	}

	h, err := s.Handovers.GetHandover(ctx, req.HandoverID)
	if !applied {
		return nil, s.classifyMiss(name, req, h, err)
	}
	if err != nil {
		return nil, fmt.Errorf("reload handover after %s: %w", name, err)
	}

	s.Metrics.ObserveTransition(string(name), metrics.OutcomeApplied)
	s.Logger.Info("Handover transition applied",
		zap.String("handover_id", h.ID),
		zap.String("transition", string(name)),
		zap.String("state", string(domain.DeriveState(h))),
		zap.Int64("version", h.Version),
		zap.String("actor_id", req.ActorID),
	)
	s.invalidate(ctx, h.ID)
	s.publish(ctx, transitionEvents[name], h, req.ActorID, req.Reason)
	return h, nil
}

// classifyMiss explains a zero-row conditional update from the row as it is now.
func (s *handoverService) classifyMiss(name domain.TransitionName, req TransitionRequest, h *domain.Handover, getErr error) error {
	outcome, err := metrics.OutcomeInvalidTransition, error(nil)
	switch {
	case errors.Is(getErr, domain.ErrNotFound):
		outcome, err = metrics.OutcomeNotFound, fmt.Errorf("handover %s: %w", req.HandoverID, domain.ErrNotFound)
	case getErr != nil:
		outcome, err = metrics.OutcomeError, fmt.Errorf("reload handover after %s: %w", name, getErr)
	case req.ExpectedVersion != nil && *req.ExpectedVersion != h.Version:
		outcome = metrics.OutcomeVersionConflict
		err = fmt.Errorf("handover %s is at version %d, expected %d: %w", h.ID, h.Version, *req.ExpectedVersion, domain.ErrVersionConflict)
	default:
		err = fmt.Errorf("cannot %s handover %s in state %s: %w", name, h.ID, domain.DeriveState(h), domain.ErrInvalidTransition)
	}

	s.Metrics.ObserveTransition(string(name), outcome)
	s.Logger.Warn("Handover transition rejected",
		zap.String("handover_id", req.HandoverID),
		zap.String("transition", string(name)),
		zap.String("outcome", outcome),
		zap.Error(err),
	)
	return err
}

func (s *handoverService) publish(ctx context.Context, eventType string, h *domain.Handover, actorID, reason string) {
	ev := notify.Event{
		Type:       eventType,
		HandoverID: h.ID,
		PatientID:  h.PatientID,
		State:      string(domain.DeriveState(h)),
		Version:    h.Version,
		ActorID:    actorID,
		Reason:     reason,
		OccurredAt: h.UpdatedAt,
	}
	if err := s.Events.Publish(ctx, ev); err != nil {
		s.Logger.Warn("Failed to publish handover event",
			zap.String("handover_id", h.ID),
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}
