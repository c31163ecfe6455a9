package domain

// TransitionName identifies a guarded lifecycle operation.
type TransitionName string

const (
	TransitionReady    TransitionName = "ready"
	TransitionStart    TransitionName = "start"
	TransitionAccept   TransitionName = "accept"
	TransitionComplete TransitionName = "complete"
	TransitionCancel   TransitionName = "cancel"
	TransitionReject   TransitionName = "reject"
)

// Transition is one row of the guard table. Requires must all be set, Forbids
// must all be unset; on success Sets is stamped and the version bumped.
// Repositories render the same guard into a single conditional UPDATE.
type Transition struct {
	Name     TransitionName
	Requires []TimestampField
	Forbids  []TimestampField
	Sets     TimestampField

	// ActorColumn/ReasonColumn record who moved the handover and why ("" = not recorded).
	ActorColumn    string
	ReasonColumn   string
	ReasonRequired bool
}

func withTerminals(fields ...TimestampField) []TimestampField {
	out := make([]TimestampField, 0, len(fields)+len(TerminalFields))
	out = append(out, fields...)
	for _, t := range TerminalFields {
		dup := false
		for _, f := range fields {
			if f == t {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, t)
		}
	}
	return out
}

var transitions = map[TransitionName]Transition{
	TransitionReady: {
		Name:    TransitionReady,
		Forbids: withTerminals(FieldReadyAt),
		Sets:    FieldReadyAt,
	},
	TransitionStart: {
		Name:     TransitionStart,
		Requires: []TimestampField{FieldReadyAt},
		Forbids:  withTerminals(FieldStartedAt),
		Sets:     FieldStartedAt,
	},
	TransitionAccept: {
		Name:     TransitionAccept,
		Requires: []TimestampField{FieldStartedAt},
		Forbids:  withTerminals(FieldAcceptedAt),
		Sets:     FieldAcceptedAt,
	},
	TransitionComplete: {
		Name:        TransitionComplete,
		Requires:    []TimestampField{FieldAcceptedAt},
		Forbids:     withTerminals(),
		Sets:        FieldCompletedAt,
		ActorColumn: "completed_by",
	},
	TransitionCancel: {
		Name:         TransitionCancel,
		Forbids:      withTerminals(),
		Sets:         FieldCancelledAt,
		ActorColumn:  "cancelled_by",
		ReasonColumn: "cancellation_reason",
	},
	TransitionReject: {
		Name:           TransitionReject,
		Forbids:        withTerminals(),
		Sets:           FieldRejectedAt,
		ActorColumn:    "rejected_by",
		ReasonColumn:   "rejection_reason",
		ReasonRequired: true,
	},
}

// LookupTransition returns the guard row for name.
func LookupTransition(name TransitionName) (Transition, bool) {
	t, ok := transitions[name]
	return t, ok
}

// Transitions lists every guard row in lifecycle order.
func Transitions() []Transition {
	order := []TransitionName{TransitionReady, TransitionStart, TransitionAccept, TransitionComplete, TransitionCancel, TransitionReject}
	out := make([]Transition, 0, len(order))
	for _, n := range order {
		out = append(out, transitions[n])
	}
	return out
}

// Allowed evaluates the guard against h.
func (t Transition) Allowed(h *Handover) bool {
	for _, f := range t.Requires {
		if h.Timestamp(f) == nil {
			return false
		}
	}
	for _, f := range t.Forbids {
		if h.Timestamp(f) != nil {
			return false
		}
	}
	return true
}

// TransitionCommand is one request to move a handover.
type TransitionCommand struct {
	HandoverID      string
	ActorID         string
	ExpectedVersion *int64 // nil: the guard alone serializes the update
	Reason          string
}
