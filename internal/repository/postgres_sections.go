package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"wisefido-handover/internal/domain"
)

// PostgresSectionsRepository implements SectionsRepository on Postgres.
type PostgresSectionsRepository struct {
	db *sql.DB
}

func NewPostgresSectionsRepository(db *sql.DB) *PostgresSectionsRepository {
	return &PostgresSectionsRepository{db: db}
}

const sectionColumns = `handover_id, kind, COALESCE(illness_severity, ''), content, status, last_edited_by, created_at, updated_at`

func scanSection(s rowScanner) (*domain.ContentSection, error) {
	var (
		sec  domain.ContentSection
		kind string
	)
	if err := s.Scan(&sec.HandoverID, &kind, &sec.IllnessSeverity, &sec.Content, &sec.Status, &sec.LastEditedBy, &sec.CreatedAt, &sec.UpdatedAt); err != nil {
		return nil, err
	}
	sec.Kind = domain.SectionKind(kind)
	return &sec, nil
}

func (r *PostgresSectionsRepository) GetSection(ctx context.Context, handoverID string, kind domain.SectionKind) (*domain.ContentSection, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sectionColumns+` FROM handover_sections WHERE handover_id = $1 AND kind = $2`,
		handoverID, string(kind))
	sec, err := scanSection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFoundf("section %s of handover %s", kind, handoverID)
	}
	if err != nil {
		return nil, domain.Datastore("get section", err)
	}
	return sec, nil
}

// defaultSeverity is what a freshly inserted row carries for kind.
func defaultSeverity(kind domain.SectionKind) sql.NullString {
	return toNullString(domain.DefaultSection("", kind, "", time.Time{}).IllnessSeverity)
}

func (r *PostgresSectionsRepository) MaterializeDefaultSection(ctx context.Context, handoverID string, kind domain.SectionKind, at time.Time) (bool, error) {
	// INSERT ... SELECT FROM handovers inserts nothing when the parent is gone.
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO handover_sections (handover_id, kind, illness_severity, content, status, last_edited_by, created_at, updated_at)
		SELECT h.id, $2::text, $3::text, '', $4::text, h.created_by, $5::timestamptz, $5::timestamptz
		FROM handovers h
		WHERE h.id = $1
		ON CONFLICT (handover_id, kind) DO NOTHING`,
		handoverID, string(kind), defaultSeverity(kind), domain.SectionStatusDraft, at,
	)
	if err != nil {
		return false, domain.Datastore("materialize section", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return true, nil
	}
	// Zero rows: either another caller won the insert or the handover is missing.
	return r.handoverExists(ctx, handoverID)
}

func (r *PostgresSectionsRepository) handoverExists(ctx context.Context, handoverID string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM handovers WHERE id = $1)`, handoverID).Scan(&exists); err != nil {
		return false, domain.Datastore("check handover", err)
	}
	return exists, nil
}

func (r *PostgresSectionsRepository) UpsertSection(ctx context.Context, u domain.SectionUpdate) (bool, error) {
	severity := defaultSeverity(u.Kind)
	if u.IllnessSeverity != nil {
		severity = toNullString(*u.IllnessSeverity)
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO handover_sections (handover_id, kind, illness_severity, content, status, last_edited_by, created_at, updated_at)
		SELECT h.id, $2::text, $3::text, $4::text, $5::text, $6::text, $7::timestamptz, $7::timestamptz
		FROM handovers h
		WHERE h.id = $1
		ON CONFLICT (handover_id, kind) DO UPDATE SET
			content = EXCLUDED.content,
			status = EXCLUDED.status,
			illness_severity = CASE WHEN $8::boolean THEN EXCLUDED.illness_severity ELSE handover_sections.illness_severity END,
			last_edited_by = EXCLUDED.last_edited_by,
			updated_at = EXCLUDED.updated_at`,
		u.HandoverID, string(u.Kind), severity, u.Content, u.Status, u.EditorID, u.At, u.IllnessSeverity != nil,
	)
	if err != nil {
		return false, domain.Datastore("upsert section", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.Datastore("rows affected", err)
	}
	return n > 0, nil
}

func (r *PostgresSectionsRepository) ListSections(ctx context.Context, handoverID string) ([]domain.ContentSection, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sectionColumns+` FROM handover_sections WHERE handover_id = $1`, handoverID)
	if err != nil {
		return nil, domain.Datastore("list sections", err)
	}
	defer rows.Close()

	var out []domain.ContentSection
	for rows.Next() {
		sec, err := scanSection(rows)
		if err != nil {
			return nil, domain.Datastore("scan section", err)
		}
		out = append(out, *sec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Datastore("list sections", err)
	}
	sortSections(out)
	return out, nil
}

func sortSections(secs []domain.ContentSection) {
	rank := make(map[domain.SectionKind]int, len(domain.SectionKinds))
	for i, k := range domain.SectionKinds {
		rank[k] = i
	}
	sort.SliceStable(secs, func(i, j int) bool { return rank[secs[i].Kind] < rank[secs[j].Kind] })
}
