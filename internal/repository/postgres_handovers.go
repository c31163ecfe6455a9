package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"wisefido-handover/internal/domain"
)

// PostgresHandoversRepository implements HandoversRepository on Postgres.
type PostgresHandoversRepository struct {
	db *sql.DB
}

func NewPostgresHandoversRepository(db *sql.DB) *PostgresHandoversRepository {
	return &PostgresHandoversRepository{db: db}
}

const handoverColumns = `id, patient_id, assignment_id, from_shift_id, to_shift_id,
	from_physician_id, to_physician_id, responsible_physician_id, handover_type, window_date,
	created_by, version, ready_at, started_at, accepted_at, completed_at, cancelled_at,
	rejected_at, expired_at, completed_by, cancelled_by, cancellation_reason, rejected_by,
	rejection_reason, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHandover(s rowScanner) (*domain.Handover, error) {
	var (
		h                                                             domain.Handover
		ready, started, accepted, completed, cancelled, rejected, exp sql.NullTime
		completedBy, cancelledBy, cancelReason, rejectedBy, rejReason sql.NullString
	)
	if err := s.Scan(
		&h.ID, &h.PatientID, &h.AssignmentID, &h.FromShiftID, &h.ToShiftID,
		&h.FromPhysicianID, &h.ToPhysicianID, &h.ResponsiblePhysicianID, &h.HandoverType, &h.WindowDate,
		&h.CreatedBy, &h.Version, &ready, &started, &accepted, &completed, &cancelled,
		&rejected, &exp, &completedBy, &cancelledBy, &cancelReason, &rejectedBy,
		&rejReason, &h.CreatedAt, &h.UpdatedAt,
	); err != nil {
		return nil, err
	}
	h.ReadyAt = nullTime(ready)
	h.StartedAt = nullTime(started)
	h.AcceptedAt = nullTime(accepted)
	h.CompletedAt = nullTime(completed)
	h.CancelledAt = nullTime(cancelled)
	h.RejectedAt = nullTime(rejected)
	h.ExpiredAt = nullTime(exp)
	h.CompletedBy = completedBy.String
	h.CancelledBy = cancelledBy.String
	h.CancellationReason = cancelReason.String
	h.RejectedBy = rejectedBy.String
	h.RejectionReason = rejReason.String
	return &h, nil
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *PostgresHandoversRepository) CreateHandover(ctx context.Context, bundle *domain.NewHandoverBundle) (*domain.Handover, error) {
	if bundle == nil {
		return nil, domain.Validationf("bundle is required")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.Datastore("begin create handover", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	h := bundle.Handover

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM patients WHERE id = $1`, h.PatientID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("patient %s: %w", h.PatientID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, domain.Datastore("check patient", err)
	}

	a, err := ensureAssignment(ctx, tx, bundle.Assignment)
	if err != nil {
		return nil, err
	}
	h.AssignmentID = a.ID

	_, err = tx.ExecContext(ctx, `
		INSERT INTO handovers (
			id, patient_id, assignment_id, from_shift_id, to_shift_id,
			from_physician_id, to_physician_id, responsible_physician_id, handover_type, window_date,
			created_by, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		h.ID, h.PatientID, h.AssignmentID, h.FromShiftID, h.ToShiftID,
		h.FromPhysicianID, h.ToPhysicianID, h.ResponsiblePhysicianID, h.HandoverType, h.WindowDate.Format(domain.DateLayout),
		h.CreatedBy, h.Version, h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		if isActiveWindowViolation(err) {
			return nil, fmt.Errorf("patient %s window %s: %w", h.PatientID, h.Window().WindowDate, domain.ErrConflict)
		}
		return nil, domain.Datastore("insert handover", err)
	}

	for _, p := range bundle.Participants {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO handover_participants (id, handover_id, user_id, display_name, role, status, joined_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			p.ID, h.ID, p.UserID, p.DisplayName, p.Role, p.Status, p.JoinedAt,
		)
		if err != nil {
			return nil, domain.Datastore("insert participant", err)
		}
	}

	for _, s := range bundle.Sections {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO handover_sections (handover_id, kind, illness_severity, content, status, last_edited_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			h.ID, string(s.Kind), toNullString(s.IllnessSeverity), s.Content, s.Status, s.LastEditedBy, s.CreatedAt, s.UpdatedAt,
		)
		if err != nil {
			return nil, domain.Datastore("insert section", err)
		}
	}

	if err := tx.Commit(); err != nil {
		if isActiveWindowViolation(err) {
			return nil, fmt.Errorf("patient %s: %w", h.PatientID, domain.ErrConflict)
		}
		return nil, domain.Datastore("commit create handover", err)
	}
	return h.Clone(), nil
}

func (r *PostgresHandoversRepository) GetHandover(ctx context.Context, handoverID string) (*domain.Handover, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+handoverColumns+` FROM handovers WHERE id = $1`, handoverID)
	h, err := scanHandover(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("handover %s: %w", handoverID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, domain.Datastore("get handover", err)
	}
	return h, nil
}

// buildTransitionUpdate renders the guard row as one conditional UPDATE.
// $1 is always the handover id.
func buildTransitionUpdate(tr domain.Transition, cmd domain.TransitionCommand, at time.Time) (string, []any) {
	args := []any{cmd.HandoverID}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sets := []string{fmt.Sprintf("%s = %s", tr.Sets, next(at))}
	if tr.ActorColumn != "" && cmd.ActorID != "" {
		sets = append(sets, fmt.Sprintf("%s = %s", tr.ActorColumn, next(cmd.ActorID)))
	}
	if tr.ReasonColumn != "" && cmd.Reason != "" {
		sets = append(sets, fmt.Sprintf("%s = %s", tr.ReasonColumn, next(cmd.Reason)))
	}
	sets = append(sets, "version = version + 1", fmt.Sprintf("updated_at = %s", next(at)))

	where := []string{"id = $1"}
	for _, f := range tr.Requires {
		where = append(where, fmt.Sprintf("%s IS NOT NULL", f))
	}
	for _, f := range tr.Forbids {
		where = append(where, fmt.Sprintf("%s IS NULL", f))
	}
	if cmd.ExpectedVersion != nil {
		where = append(where, fmt.Sprintf("version = %s", next(*cmd.ExpectedVersion)))
	}

	q := "UPDATE handovers SET " + strings.Join(sets, ", ") + " WHERE " + strings.Join(where, " AND ")
	return q, args
}

func (r *PostgresHandoversRepository) ApplyTransition(ctx context.Context, tr domain.Transition, cmd domain.TransitionCommand, at time.Time) (bool, error) {
	q, args := buildTransitionUpdate(tr, cmd, at)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, domain.Datastore(fmt.Sprintf("apply %s", tr.Name), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.Datastore("rows affected", err)
	}
	return n == 1, nil
}

func (r *PostgresHandoversRepository) ListParticipants(ctx context.Context, handoverID string) ([]domain.Participant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, handover_id, user_id, display_name, role, status, joined_at
		FROM handover_participants
		WHERE handover_id = $1
		ORDER BY joined_at ASC, role ASC`, handoverID)
	if err != nil {
		return nil, domain.Datastore("list participants", err)
	}
	defer rows.Close()

	var out []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.ID, &p.HandoverID, &p.UserID, &p.DisplayName, &p.Role, &p.Status, &p.JoinedAt); err != nil {
			return nil, domain.Datastore("scan participant", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Datastore("list participants", err)
	}
	return out, nil
}
