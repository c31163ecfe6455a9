package domain

import "time"

// SectionKind names one of the three per-handover singleton sections.
type SectionKind string

const (
	SectionPatientData        SectionKind = "patient_data"
	SectionSituationAwareness SectionKind = "situation_awareness"
	SectionSynthesis          SectionKind = "synthesis"
)

// SectionKinds lists every kind in display order.
var SectionKinds = []SectionKind{SectionPatientData, SectionSituationAwareness, SectionSynthesis}

// Valid reports whether k is a known kind.
func (k SectionKind) Valid() bool {
	switch k {
	case SectionPatientData, SectionSituationAwareness, SectionSynthesis:
		return true
	}
	return false
}

// Section statuses.
const (
	SectionStatusDraft = "draft"
	SectionStatusFinal = "final"
)

// Illness severities carried by the patient-data section.
const (
	SeverityStable   = "stable"
	SeverityWatcher  = "watcher"
	SeverityUnstable = "unstable"
)

// ValidSectionStatus reports whether s is draft or final.
func ValidSectionStatus(s string) bool {
	return s == SectionStatusDraft || s == SectionStatusFinal
}

// ValidSeverity reports whether s is a known illness severity.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityStable, SeverityWatcher, SeverityUnstable:
		return true
	}
	return false
}

// ContentSection is the row keyed by (handover_id, kind) in handover_sections.
// IllnessSeverity is only meaningful for SectionPatientData; Content holds the
// summary for patient data and the free text for the other kinds.
type ContentSection struct {
	HandoverID      string      `db:"handover_id"`
	Kind            SectionKind `db:"kind"`
	IllnessSeverity string      `db:"illness_severity"`
	Content         string      `db:"content"`
	Status          string      `db:"status"`
	LastEditedBy    string      `db:"last_edited_by"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

// DefaultSection is the empty draft row seeded at creation or materialized on first read.
func DefaultSection(handoverID string, kind SectionKind, author string, at time.Time) ContentSection {
	s := ContentSection{
		HandoverID:   handoverID,
		Kind:         kind,
		Status:       SectionStatusDraft,
		LastEditedBy: author,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	if kind == SectionPatientData {
		s.IllnessSeverity = SeverityStable
	}
	return s
}

// SectionUpdate is an upsert of one section's editable fields.
type SectionUpdate struct {
	HandoverID      string
	Kind            SectionKind
	Content         string
	Status          string
	IllnessSeverity *string // patient data only; nil keeps the stored value
	EditorID        string
	At              time.Time
}
