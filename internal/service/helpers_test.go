package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wisefido-handover/internal/domain"
	"wisefido-handover/internal/notify"
	"wisefido-handover/internal/repository"
)

// stepClock advances one second per call so every write gets a later timestamp.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingPublisher) Publish(_ context.Context, ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type testEnv struct {
	svc    *Services
	store  *repository.MemoryStore
	events *recordingPublisher
	deps   Deps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := repository.NewMemoryStore()
	st.AddPatient("P1", "Jane Roe")
	st.AddPatient("P2", "John Doe")

	events := &recordingPublisher{}
	d := MemoryDeps(st)
	d.Events = events
	d.Logger = zap.NewNop()
	d.Now = newStepClock().Now

	return &testEnv{svc: New(d), store: st, events: events, deps: d}
}

func dayToNight(patientID string) CreateHandoverRequest {
	return CreateHandoverRequest{
		PatientID:    patientID,
		FromShiftID:  "day",
		ToShiftID:    "night",
		FromDoctorID: "dr-a",
		ToDoctorID:   "dr-b",
		InitiatedBy:  "dr-a",
		WindowDate:   "2026-03-01",
	}
}

func (e *testEnv) createHandover(t *testing.T, patientID string) *domain.Handover {
	t.Helper()
	h, err := e.svc.Handovers.CreateHandover(context.Background(), dayToNight(patientID))
	require.NoError(t, err)
	return h
}

func as(handoverID, actor string) TransitionRequest {
	return TransitionRequest{HandoverID: handoverID, ActorID: actor}
}
