package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"wisefido-handover/internal/domain"
)

// PostgresContingencyPlansRepository implements ContingencyPlansRepository on Postgres.
type PostgresContingencyPlansRepository struct {
	db *sql.DB
}

func NewPostgresContingencyPlansRepository(db *sql.DB) *PostgresContingencyPlansRepository {
	return &PostgresContingencyPlansRepository{db: db}
}

const planColumns = `id, handover_id, condition_text, action_text, priority, status, created_by, created_at, updated_at`

func scanPlan(s rowScanner) (*domain.ContingencyPlan, error) {
	var p domain.ContingencyPlan
	if err := s.Scan(&p.ID, &p.HandoverID, &p.ConditionText, &p.ActionText, &p.Priority, &p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresContingencyPlansRepository) CreateContingencyPlan(ctx context.Context, plan domain.ContingencyPlan) (*domain.ContingencyPlan, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO handover_contingency_plans (id, handover_id, condition_text, action_text, priority, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		plan.ID, plan.HandoverID, plan.ConditionText, plan.ActionText, plan.Priority, plan.Status, plan.CreatedBy, plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, notFoundf("handover %s", plan.HandoverID)
		}
		return nil, domain.Datastore("insert contingency plan", err)
	}
	return &plan, nil
}

func (r *PostgresContingencyPlansRepository) ListContingencyPlans(ctx context.Context, handoverID string) ([]domain.ContingencyPlan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+planColumns+`
		FROM handover_contingency_plans
		WHERE handover_id = $1
		ORDER BY created_at ASC, id ASC`, handoverID)
	if err != nil {
		return nil, domain.Datastore("list contingency plans", err)
	}
	defer rows.Close()

	plans := []domain.ContingencyPlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, domain.Datastore("scan contingency plan", err)
		}
		plans = append(plans, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Datastore("list contingency plans", err)
	}
	return plans, nil
}

func (r *PostgresContingencyPlansRepository) UpdateContingencyPlan(ctx context.Context, handoverID, planID string, patch domain.ContingencyPlanPatch) (*domain.ContingencyPlan, error) {
	args := []any{planID, handoverID, patch.At}
	sets := []string{"updated_at = $3"}
	if patch.Priority != nil {
		args = append(args, *patch.Priority)
		sets = append(sets, fmt.Sprintf("priority = $%d", len(args)))
	}
	if patch.Status != nil {
		args = append(args, *patch.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}

	row := r.db.QueryRowContext(ctx,
		`UPDATE handover_contingency_plans SET `+strings.Join(sets, ", ")+
			` WHERE id = $1 AND handover_id = $2 RETURNING `+planColumns,
		args...)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFoundf("contingency plan %s of handover %s", planID, handoverID)
	}
	if err != nil {
		return nil, domain.Datastore("update contingency plan", err)
	}
	return p, nil
}

func (r *PostgresContingencyPlansRepository) DeleteContingencyPlan(ctx context.Context, handoverID, planID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM handover_contingency_plans WHERE id = $1 AND handover_id = $2`, planID, handoverID)
	if err != nil {
		return false, domain.Datastore("delete contingency plan", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.Datastore("rows affected", err)
	}
	return n > 0, nil
}
