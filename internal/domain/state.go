package domain

// State is the display tag derived from a handover's timestamps.
type State string

const (
	StateDraft      State = "Draft"
	StateReady      State = "Ready"
	StateInProgress State = "InProgress"
	StateAccepted   State = "Accepted"
	StateCompleted  State = "Completed"
	StateCancelled  State = "Cancelled"
	StateRejected   State = "Rejected"
	StateExpired    State = "Expired"
)

// DeriveState computes the current state. Terminal timestamps are checked first
// (cancelled > rejected > expired > completed), then the most advanced
// non-terminal one (accepted > started > ready), so the furthest state wins
// even if inconsistent fields are set.
func DeriveState(h *Handover) State {
	switch {
	case h.CancelledAt != nil:
		return StateCancelled
	case h.RejectedAt != nil:
		return StateRejected
	case h.ExpiredAt != nil:
		return StateExpired
	case h.CompletedAt != nil:
		return StateCompleted
	case h.AcceptedAt != nil:
		return StateAccepted
	case h.StartedAt != nil:
		return StateInProgress
	case h.ReadyAt != nil:
		return StateReady
	default:
		return StateDraft
	}
}

// IsTerminal reports whether s is an end state.
func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateCancelled, StateRejected, StateExpired:
		return true
	}
	return false
}
