package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"wisefido-handover/internal/domain"
)

// PostgresActionItemsRepository implements ActionItemsRepository on Postgres.
type PostgresActionItemsRepository struct {
	db *sql.DB
}

func NewPostgresActionItemsRepository(db *sql.DB) *PostgresActionItemsRepository {
	return &PostgresActionItemsRepository{db: db}
}

const actionItemColumns = `id, handover_id, description, is_completed, created_at, updated_at, completed_at`

func scanActionItem(s rowScanner) (*domain.ActionItem, error) {
	var (
		item        domain.ActionItem
		completedAt sql.NullTime
	)
	if err := s.Scan(&item.ID, &item.HandoverID, &item.Description, &item.IsCompleted, &item.CreatedAt, &item.UpdatedAt, &completedAt); err != nil {
		return nil, err
	}
	item.CompletedAt = nullTime(completedAt)
	return &item, nil
}

func (r *PostgresActionItemsRepository) CreateActionItem(ctx context.Context, item domain.ActionItem) (*domain.ActionItem, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO handover_action_items (id, handover_id, description, is_completed, created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		item.ID, item.HandoverID, item.Description, item.IsCompleted, item.CreatedAt, item.UpdatedAt, toNullTime(item.CompletedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, notFoundf("handover %s", item.HandoverID)
		}
		return nil, domain.Datastore("insert action item", err)
	}
	return &item, nil
}

func (r *PostgresActionItemsRepository) ListActionItems(ctx context.Context, handoverID string) ([]domain.ActionItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+actionItemColumns+`
		FROM handover_action_items
		WHERE handover_id = $1
		ORDER BY created_at ASC, id ASC`, handoverID)
	if err != nil {
		return nil, domain.Datastore("list action items", err)
	}
	defer rows.Close()

	items := []domain.ActionItem{}
	for rows.Next() {
		item, err := scanActionItem(rows)
		if err != nil {
			return nil, domain.Datastore("scan action item", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Datastore("list action items", err)
	}
	return items, nil
}

func (r *PostgresActionItemsRepository) UpdateActionItem(ctx context.Context, handoverID, itemID string, patch domain.ActionItemPatch) (*domain.ActionItem, error) {
	args := []any{itemID, handoverID, patch.At}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sets := []string{"updated_at = $3"}
	if patch.Description != nil {
		sets = append(sets, "description = "+next(*patch.Description))
	}
	if patch.IsCompleted != nil {
		p := next(*patch.IsCompleted)
		sets = append(sets,
			"is_completed = "+p,
			// completed_at keeps its first value while the item stays completed.
			fmt.Sprintf("completed_at = CASE WHEN %s::boolean THEN COALESCE(completed_at, $3) ELSE NULL END", p))
	}

	row := r.db.QueryRowContext(ctx,
		`UPDATE handover_action_items SET `+strings.Join(sets, ", ")+
			` WHERE id = $1 AND handover_id = $2 RETURNING `+actionItemColumns,
		args...)
	item, err := scanActionItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFoundf("action item %s of handover %s", itemID, handoverID)
	}
	if err != nil {
		return nil, domain.Datastore("update action item", err)
	}
	return item, nil
}

func (r *PostgresActionItemsRepository) DeleteActionItem(ctx context.Context, handoverID, itemID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM handover_action_items WHERE id = $1 AND handover_id = $2`, itemID, handoverID)
	if err != nil {
		return false, domain.Datastore("delete action item", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.Datastore("rows affected", err)
	}
	return n > 0, nil
}
