package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisefido-handover/internal/domain"
)

var sectionRowColumns = []string{"handover_id", "kind", "illness_severity", "content", "status", "last_edited_by", "created_at", "updated_at"}

func TestGetSection_NotFoundDoesNotInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresSectionsRepository(db)

	mock.ExpectQuery(`SELECT handover_id, kind`).
		WithArgs("h1", "synthesis").
		WillReturnRows(sqlmock.NewRows(sectionRowColumns))

	_, err = repo.GetSection(context.Background(), "h1", domain.SectionSynthesis)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet(), "no INSERT may be issued by a plain read")
}

func TestMaterializeDefaultSection(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresSectionsRepository(db)
	ctx := context.Background()
	at := time.Now()

	t.Run("inserted", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO handover_sections`).
			WithArgs("h1", "patient_data", "stable", "draft", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.MaterializeDefaultSection(ctx, "h1", domain.SectionPatientData, at)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("lost the race", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO handover_sections`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM handovers`)).
			WithArgs("h1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		ok, err := repo.MaterializeDefaultSection(ctx, "h1", domain.SectionSynthesis, at)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("parent missing", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO handover_sections`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM handovers`)).
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		ok, err := repo.MaterializeDefaultSection(ctx, "ghost", domain.SectionSynthesis, at)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSection(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresSectionsRepository(db)
	ctx := context.Background()

	sev := domain.SeverityWatcher
	u := domain.SectionUpdate{
		HandoverID: "h1", Kind: domain.SectionPatientData, Content: "Patient improving",
		Status: domain.SectionStatusDraft, IllnessSeverity: &sev, EditorID: "dr-a", At: time.Now(),
	}

	mock.ExpectExec(`INSERT INTO handover_sections`).
		WithArgs("h1", "patient_data", "watcher", "Patient improving", "draft", "dr-a", sqlmock.AnyArg(), true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.UpsertSection(ctx, u)
	require.NoError(t, err)
	assert.True(t, ok)

	u.HandoverID = "ghost"
	u.IllnessSeverity = nil
	mock.ExpectExec(`INSERT INTO handover_sections`).
		WithArgs("ghost", "patient_data", "stable", "Patient improving", "draft", "dr-a", sqlmock.AnyArg(), false).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.UpsertSection(ctx, u)
	require.NoError(t, err)
	assert.False(t, ok, "missing parent inserts nothing")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSections_DisplayOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresSectionsRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT handover_id, kind`).
		WithArgs("h1").
		WillReturnRows(sqlmock.NewRows(sectionRowColumns).
			AddRow("h1", "synthesis", "", "", "draft", "dr-a", now, now).
			AddRow("h1", "patient_data", "stable", "", "draft", "dr-a", now, now))

	secs, err := repo.ListSections(context.Background(), "h1")
	require.NoError(t, err)
	require.Len(t, secs, 2)
	assert.Equal(t, domain.SectionPatientData, secs[0].Kind)
	assert.Equal(t, domain.SectionSynthesis, secs[1].Kind)
}

func TestEnsureAssignment_ReturnsStoredRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresAssignmentsRepository(db)

	first := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO assignments`).
		WithArgs("candidate", "dr-a", "day", "p1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "assigned_at"}).AddRow("a1", first))

	a, err := repo.EnsureAssignment(context.Background(), domain.Assignment{
		ID: "candidate", UserID: "dr-a", ShiftID: "day", PatientID: "p1", AssignedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "a1", a.ID)
	assert.Equal(t, first, a.AssignedAt)
}

func TestEnsureAssignment_UnknownPatient(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresAssignmentsRepository(db)

	mock.ExpectQuery(`INSERT INTO assignments`).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "assignments_patient_id_fkey"})

	_, err = repo.EnsureAssignment(context.Background(), domain.Assignment{ID: "x", UserID: "dr-a", ShiftID: "day", PatientID: "ghost"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
