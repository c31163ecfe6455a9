package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ApplySchema executes Schema statement by statement. Safe to re-run (IF NOT EXISTS everywhere).
func ApplySchema(ctx context.Context, db *sql.DB) error {
	return ApplySQL(ctx, db, Schema)
}

// ApplySQL executes a semicolon-separated script, skipping blank and comment-only statements.
func ApplySQL(ctx context.Context, db *sql.DB, script string) error {
	for i, stmt := range splitStatements(script) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute statement %d: %w", i+1, err)
		}
	}
	return nil
}

func splitStatements(script string) []string {
	var out []string
	for _, raw := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			lines = append(lines, line)
		}
		stmt := strings.TrimSpace(strings.Join(lines, "\n"))
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// activeWindowIndex is reported as the constraint name on unique violations.
const activeWindowIndex = "uq_handovers_active_window"

// Schema is the handover DDL. Patients are owned by the roster system; only
// the id is needed here to check existence.
const Schema = `
-- Patients (roster-owned)
CREATE TABLE IF NOT EXISTS patients (
    id TEXT PRIMARY KEY,
    full_name TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Assignments
CREATE TABLE IF NOT EXISTS assignments (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    shift_id TEXT NOT NULL,
    patient_id TEXT NOT NULL REFERENCES patients(id),
    assigned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT uq_assignments_natural_key UNIQUE (user_id, shift_id, patient_id)
);

-- Handovers (never deleted; terminal rows are kept for audit)
CREATE TABLE IF NOT EXISTS handovers (
    id TEXT PRIMARY KEY,
    patient_id TEXT NOT NULL REFERENCES patients(id),
    assignment_id TEXT NOT NULL REFERENCES assignments(id),
    from_shift_id TEXT NOT NULL,
    to_shift_id TEXT NOT NULL,
    from_physician_id TEXT NOT NULL,
    to_physician_id TEXT NOT NULL,
    responsible_physician_id TEXT NOT NULL,
    handover_type TEXT NOT NULL DEFAULT 'shift_change',
    window_date DATE NOT NULL,
    created_by TEXT NOT NULL,
    version BIGINT NOT NULL DEFAULT 1,
    ready_at TIMESTAMPTZ,
    started_at TIMESTAMPTZ,
    accepted_at TIMESTAMPTZ,
    completed_at TIMESTAMPTZ,
    cancelled_at TIMESTAMPTZ,
    rejected_at TIMESTAMPTZ,
    expired_at TIMESTAMPTZ,
    completed_by TEXT,
    cancelled_by TEXT,
    cancellation_reason TEXT,
    rejected_by TEXT,
    rejection_reason TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT ck_handovers_single_terminal CHECK (num_nonnulls(completed_at, cancelled_at, rejected_at, expired_at) <= 1),
    CONSTRAINT ck_handovers_nested CHECK (
        (started_at IS NULL OR ready_at IS NOT NULL) AND
        (accepted_at IS NULL OR started_at IS NOT NULL) AND
        (completed_at IS NULL OR accepted_at IS NOT NULL)
    ),
    CONSTRAINT ck_handovers_rejection_reason CHECK (rejection_reason IS NULL OR rejected_at IS NOT NULL)
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_handovers_active_window
    ON handovers (patient_id, from_shift_id, to_shift_id, window_date)
    WHERE completed_at IS NULL AND cancelled_at IS NULL AND rejected_at IS NULL AND expired_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_handovers_patient ON handovers(patient_id);

-- Participants
CREATE TABLE IF NOT EXISTS handover_participants (
    id TEXT PRIMARY KEY,
    handover_id TEXT NOT NULL REFERENCES handovers(id),
    user_id TEXT NOT NULL,
    display_name TEXT NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('handing_off', 'receiving')),
    status TEXT NOT NULL DEFAULT 'active',
    joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_handover_participants_handover ON handover_participants(handover_id);

-- Content sections: one row per (handover_id, kind)
CREATE TABLE IF NOT EXISTS handover_sections (
    handover_id TEXT NOT NULL REFERENCES handovers(id),
    kind TEXT NOT NULL CHECK (kind IN ('patient_data', 'situation_awareness', 'synthesis')),
    illness_severity TEXT,
    content TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'final')),
    last_edited_by TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (handover_id, kind)
);

-- Action items
CREATE TABLE IF NOT EXISTS handover_action_items (
    id TEXT PRIMARY KEY,
    handover_id TEXT NOT NULL REFERENCES handovers(id),
    description TEXT NOT NULL,
    is_completed BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_handover_action_items_handover ON handover_action_items(handover_id, created_at);

-- Contingency plans
CREATE TABLE IF NOT EXISTS handover_contingency_plans (
    id TEXT PRIMARY KEY,
    handover_id TEXT NOT NULL REFERENCES handovers(id),
    condition_text TEXT NOT NULL,
    action_text TEXT NOT NULL,
    priority TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high')),
    status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'planned', 'completed')),
    created_by TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_handover_contingency_plans_handover ON handover_contingency_plans(handover_id, created_at);
`
