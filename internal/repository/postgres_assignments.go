package repository

import (
	"context"
	"database/sql"

	"wisefido-handover/internal/domain"
)

// PostgresAssignmentsRepository implements AssignmentsRepository on Postgres.
type PostgresAssignmentsRepository struct {
	db *sql.DB
}

func NewPostgresAssignmentsRepository(db *sql.DB) *PostgresAssignmentsRepository {
	return &PostgresAssignmentsRepository{db: db}
}

func (r *PostgresAssignmentsRepository) EnsureAssignment(ctx context.Context, a domain.Assignment) (*domain.Assignment, error) {
	return ensureAssignment(ctx, r.db, a)
}

// ensureAssignment is the idempotent upsert shared with CreateHandover. The
// no-op DO UPDATE makes RETURNING yield the existing row on conflict.
func ensureAssignment(ctx context.Context, q Querier, a domain.Assignment) (*domain.Assignment, error) {
	out := a
	err := q.QueryRowContext(ctx, `
		INSERT INTO assignments (id, user_id, shift_id, patient_id, assigned_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, shift_id, patient_id) DO UPDATE SET user_id = assignments.user_id
		RETURNING id, assigned_at`,
		a.ID, a.UserID, a.ShiftID, a.PatientID, a.AssignedAt,
	).Scan(&out.ID, &out.AssignedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, notFoundf("patient %s", a.PatientID)
		}
		return nil, domain.Datastore("ensure assignment", err)
	}
	return &out, nil
}
