package domain

import "time"

// HandoverTypeShiftChange is the default handover_type.
const HandoverTypeShiftChange = "shift_change"

// Handover is a patient's care responsibility moving between physicians/shifts (handovers table).
// The lifecycle position is carried only by the nullable timestamps; see DeriveState.
type Handover struct {
	ID                     string    `db:"id"`
	PatientID              string    `db:"patient_id"`
	AssignmentID           string    `db:"assignment_id"`
	FromShiftID            string    `db:"from_shift_id"`
	ToShiftID              string    `db:"to_shift_id"`
	FromPhysicianID        string    `db:"from_physician_id"`
	ToPhysicianID          string    `db:"to_physician_id"`
	ResponsiblePhysicianID string    `db:"responsible_physician_id"`
	HandoverType           string    `db:"handover_type"`
	WindowDate             time.Time `db:"window_date"` // DATE
	CreatedBy              string    `db:"created_by"`
	Version                int64     `db:"version"`

	ReadyAt     *time.Time `db:"ready_at"`
	StartedAt   *time.Time `db:"started_at"`
	AcceptedAt  *time.Time `db:"accepted_at"`
	CompletedAt *time.Time `db:"completed_at"`
	CancelledAt *time.Time `db:"cancelled_at"`
	RejectedAt  *time.Time `db:"rejected_at"`
	ExpiredAt   *time.Time `db:"expired_at"`

	CompletedBy        string `db:"completed_by"`
	CancelledBy        string `db:"cancelled_by"`
	CancellationReason string `db:"cancellation_reason"`
	RejectedBy         string `db:"rejected_by"`
	RejectionReason    string `db:"rejection_reason"` // only set together with RejectedAt

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// TimestampField names a nullable lifecycle column.
type TimestampField string

const (
	FieldReadyAt     TimestampField = "ready_at"
	FieldStartedAt   TimestampField = "started_at"
	FieldAcceptedAt  TimestampField = "accepted_at"
	FieldCompletedAt TimestampField = "completed_at"
	FieldCancelledAt TimestampField = "cancelled_at"
	FieldRejectedAt  TimestampField = "rejected_at"
	FieldExpiredAt   TimestampField = "expired_at"
)

// TerminalFields are mutually exclusive; at most one is ever set.
var TerminalFields = []TimestampField{FieldCompletedAt, FieldCancelledAt, FieldRejectedAt, FieldExpiredAt}

// Timestamp returns the value of f, or nil when unset or unknown.
func (h *Handover) Timestamp(f TimestampField) *time.Time {
	switch f {
	case FieldReadyAt:
		return h.ReadyAt
	case FieldStartedAt:
		return h.StartedAt
	case FieldAcceptedAt:
		return h.AcceptedAt
	case FieldCompletedAt:
		return h.CompletedAt
	case FieldCancelledAt:
		return h.CancelledAt
	case FieldRejectedAt:
		return h.RejectedAt
	case FieldExpiredAt:
		return h.ExpiredAt
	}
	return nil
}

// SetTimestamp assigns f. Unknown fields are ignored.
func (h *Handover) SetTimestamp(f TimestampField, at time.Time) {
	t := at
	switch f {
	case FieldReadyAt:
		h.ReadyAt = &t
	case FieldStartedAt:
		h.StartedAt = &t
	case FieldAcceptedAt:
		h.AcceptedAt = &t
	case FieldCompletedAt:
		h.CompletedAt = &t
	case FieldCancelledAt:
		h.CancelledAt = &t
	case FieldRejectedAt:
		h.RejectedAt = &t
	case FieldExpiredAt:
		h.ExpiredAt = &t
	}
}

// IsTerminal reports whether any terminal timestamp is set.
func (h *Handover) IsTerminal() bool {
	for _, f := range TerminalFields {
		if h.Timestamp(f) != nil {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can't mutate stored timestamps.
func (h *Handover) Clone() *Handover {
	if h == nil {
		return nil
	}
	c := *h
	for _, f := range []TimestampField{FieldReadyAt, FieldStartedAt, FieldAcceptedAt, FieldCompletedAt, FieldCancelledAt, FieldRejectedAt, FieldExpiredAt} {
		if ts := h.Timestamp(f); ts != nil {
			c.SetTimestamp(f, *ts)
		}
	}
	return &c
}

// WindowKey identifies the active-handover uniqueness window.
type WindowKey struct {
	PatientID   string
	FromShiftID string
	ToShiftID   string
	WindowDate  string // YYYY-MM-DD
}

// Window returns the uniqueness key for h.
func (h *Handover) Window() WindowKey {
	return WindowKey{
		PatientID:   h.PatientID,
		FromShiftID: h.FromShiftID,
		ToShiftID:   h.ToShiftID,
		WindowDate:  h.WindowDate.Format(DateLayout),
	}
}

// DateLayout is the wire and storage format of window dates.
const DateLayout = "2006-01-02"
