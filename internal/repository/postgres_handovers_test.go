package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisefido-handover/internal/domain"
)

func setupMockHandoversDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresHandoversRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresHandoversRepository(db)
}

func testBundle(now time.Time) *domain.NewHandoverBundle {
	hid := uuid.New().String()
	return &domain.NewHandoverBundle{
		Assignment: domain.Assignment{ID: uuid.New().String(), UserID: "dr-a", ShiftID: "day", PatientID: "p1", AssignedAt: now},
		Handover: domain.Handover{
			ID: hid, PatientID: "p1", FromShiftID: "day", ToShiftID: "night",
			FromPhysicianID: "dr-a", ToPhysicianID: "dr-b", ResponsiblePhysicianID: "dr-a",
			HandoverType: domain.HandoverTypeShiftChange, WindowDate: now.Truncate(24 * time.Hour),
			CreatedBy: "dr-a", Version: 1, CreatedAt: now, UpdatedAt: now,
		},
		Participants: []domain.Participant{
			{ID: uuid.New().String(), UserID: "dr-a", DisplayName: "Dr A", Role: domain.RoleHandingOff, Status: domain.ParticipantStatusActive, JoinedAt: now},
			{ID: uuid.New().String(), UserID: "dr-b", DisplayName: "Dr B", Role: domain.RoleReceiving, Status: domain.ParticipantStatusActive, JoinedAt: now},
		},
		Sections: []domain.ContentSection{
			domain.DefaultSection(hid, domain.SectionPatientData, "dr-a", now),
			domain.DefaultSection(hid, domain.SectionSituationAwareness, "dr-a", now),
			domain.DefaultSection(hid, domain.SectionSynthesis, "dr-a", now),
		},
	}
}

func TestCreateHandover_Success(t *testing.T) {
	db, mock, repo := setupMockHandoversDB(t)
	defer db.Close()

	now := time.Now().UTC()
	bundle := testBundle(now)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM patients`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO assignments`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "assigned_at"}).AddRow("existing-assignment", now))
	mock.ExpectExec(`INSERT INTO handovers`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO handover_participants`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO handover_participants`).WillReturnResult(sqlmock.NewResult(0, 1))
	for range domain.SectionKinds {
		mock.ExpectExec(`INSERT INTO handover_sections`).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	h, err := repo.CreateHandover(context.Background(), bundle)
	require.NoError(t, err)
	assert.Equal(t, "existing-assignment", h.AssignmentID, "stored assignment id wins")
	assert.Equal(t, int64(1), h.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateHandover_PatientMissing(t *testing.T) {
	db, mock, repo := setupMockHandoversDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM patients`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"one"}))
	mock.ExpectRollback()

	_, err := repo.CreateHandover(context.Background(), testBundle(time.Now()))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateHandover_ActiveWindowConflict(t *testing.T) {
	db, mock, repo := setupMockHandoversDB(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM patients`).
		WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO assignments`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "assigned_at"}).AddRow("a1", now))
	mock.ExpectExec(`INSERT INTO handovers`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_handovers_active_window"})
	mock.ExpectRollback()

	_, err := repo.CreateHandover(context.Background(), testBundle(now))
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.False(t, errors.Is(err, domain.ErrDatastore))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateHandover_SectionInsertFailsRollsBack(t *testing.T) {
	db, mock, repo := setupMockHandoversDB(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM patients`).
		WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO assignments`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "assigned_at"}).AddRow("a1", now))
	mock.ExpectExec(`INSERT INTO handovers`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO handover_participants`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO handover_participants`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO handover_sections`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.CreateHandover(context.Background(), testBundle(now))
	assert.True(t, errors.Is(err, domain.ErrDatastore))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func handoverRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "patient_id", "assignment_id", "from_shift_id", "to_shift_id",
		"from_physician_id", "to_physician_id", "responsible_physician_id", "handover_type", "window_date",
		"created_by", "version", "ready_at", "started_at", "accepted_at", "completed_at", "cancelled_at",
		"rejected_at", "expired_at", "completed_by", "cancelled_by", "cancellation_reason", "rejected_by",
		"rejection_reason", "created_at", "updated_at",
	})
}

func TestGetHandover_Success(t *testing.T) {
	db, mock, repo := setupMockHandoversDB(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT`).
		WithArgs("h1").
		WillReturnRows(handoverRows().AddRow(
			"h1", "p1", "a1", "day", "night",
			"dr-a", "dr-b", "dr-a", "shift_change", now,
			"dr-a", int64(3), now, now, nil, nil, nil,
			nil, nil, nil, nil, nil, nil,
			nil, now, now,
		))

	h, err := repo.GetHandover(context.Background(), "h1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), h.Version)
	assert.Equal(t, domain.StateInProgress, domain.DeriveState(h))
	assert.Nil(t, h.AcceptedAt)
	assert.Empty(t, h.RejectionReason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHandover_NotFound(t *testing.T) {
	db, mock, repo := setupMockHandoversDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WithArgs("missing").WillReturnRows(handoverRows())

	_, err := repo.GetHandover(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestBuildTransitionUpdate(t *testing.T) {
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	t.Run("accept with expected version", func(t *testing.T) {
		tr, _ := domain.LookupTransition(domain.TransitionAccept)
		v := int64(3)
		q, args := buildTransitionUpdate(tr, domain.TransitionCommand{HandoverID: "h1", ActorID: "dr-b", ExpectedVersion: &v}, at)

		assert.Equal(t, "UPDATE handovers SET accepted_at = $2, version = version + 1, updated_at = $3"+
			" WHERE id = $1 AND started_at IS NOT NULL AND accepted_at IS NULL AND completed_at IS NULL"+
			" AND cancelled_at IS NULL AND rejected_at IS NULL AND expired_at IS NULL AND version = $4", q)
		assert.Equal(t, []any{"h1", at, at, int64(3)}, args)
	})

	t.Run("reject records actor and reason", func(t *testing.T) {
		tr, _ := domain.LookupTransition(domain.TransitionReject)
		q, args := buildTransitionUpdate(tr, domain.TransitionCommand{HandoverID: "h1", ActorID: "dr-b", Reason: "not my patient"}, at)

		assert.Equal(t, "UPDATE handovers SET rejected_at = $2, rejected_by = $3, rejection_reason = $4,"+
			" version = version + 1, updated_at = $5"+
			" WHERE id = $1 AND completed_at IS NULL AND cancelled_at IS NULL AND rejected_at IS NULL AND expired_at IS NULL", q)
		assert.Equal(t, []any{"h1", at, "dr-b", "not my patient", at}, args)
	})

	t.Run("cancel without reason leaves the column alone", func(t *testing.T) {
		tr, _ := domain.LookupTransition(domain.TransitionCancel)
		q, _ := buildTransitionUpdate(tr, domain.TransitionCommand{HandoverID: "h1", ActorID: "dr-a"}, at)
		assert.NotContains(t, q, "cancellation_reason")
		assert.Contains(t, q, "cancelled_by = $3")
	})
}

func TestApplyTransition_RowsAffected(t *testing.T) {
	db, mock, repo := setupMockHandoversDB(t)
	defer db.Close()

	tr, _ := domain.LookupTransition(domain.TransitionStart)
	cmd := domain.TransitionCommand{HandoverID: "h1"}

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE handovers SET started_at = $2`)).
		WithArgs("h1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE handovers SET started_at = $2`)).
		WithArgs("h1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.ApplyTransition(context.Background(), tr, cmd, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ApplyTransition(context.Background(), tr, cmd, time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "guard miss is not an error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyTransition_DriverError(t *testing.T) {
	db, mock, repo := setupMockHandoversDB(t)
	defer db.Close()

	tr, _ := domain.LookupTransition(domain.TransitionReady)
	mock.ExpectExec(`UPDATE handovers`).WillReturnError(errors.New("connection reset"))

	_, err := repo.ApplyTransition(context.Background(), tr, domain.TransitionCommand{HandoverID: "h1"}, time.Now())
	assert.True(t, errors.Is(err, domain.ErrDatastore))
}

func TestListParticipants(t *testing.T) {
	db, mock, repo := setupMockHandoversDB(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, handover_id, user_id`).
		WithArgs("h1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "handover_id", "user_id", "display_name", "role", "status", "joined_at"}).
			AddRow("pa", "h1", "dr-a", "Dr A", domain.RoleHandingOff, "active", now).
			AddRow("pb", "h1", "dr-b", "Dr B", domain.RoleReceiving, "active", now))

	ps, err := repo.ListParticipants(context.Background(), "h1")
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, domain.RoleReceiving, ps[1].Role)
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("-- header\nCREATE TABLE a (id INT);\n\n-- only a comment\n;\nCREATE INDEX i ON a(id);")
	assert.Equal(t, []string{"CREATE TABLE a (id INT)", "CREATE INDEX i ON a(id)"}, stmts)

	assert.Len(t, splitStatements(Schema), 12)
}
