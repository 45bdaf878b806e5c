package event

// Status is the lifecycle state of an event.
type Status string

const (
	StatusPendingApproval  Status = "PENDING_APPROVAL"
	StatusChangesRequested Status = "CHANGES_REQUESTED"
	StatusRejected         Status = "REJECTED"
	StatusConfirmed        Status = "CONFIRMED"
	StatusInProgress       Status = "IN_PROGRESS"
	StatusCompleted        Status = "COMPLETED"
	StatusCancelled        Status = "CANCELLED"
	StatusExpired          Status = "EXPIRED"
	// StatusOpen is the legacy state of user-created events. Its only exit is
	// the expiry sweep.
	StatusOpen Status = "OPEN"
)

// AllStatuses lists every known status.
var AllStatuses = []Status{
	StatusPendingApproval,
	StatusChangesRequested,
	StatusRejected,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
	StatusExpired,
	StatusOpen,
}

// transitions is the only place legal status changes are defined.
var transitions = map[Status]map[Status]struct{}{
	StatusPendingApproval: {
		StatusConfirmed:        {},
		StatusRejected:         {},
		StatusChangesRequested: {},
		StatusCancelled:        {},
	},
	StatusChangesRequested: {
		StatusPendingApproval: {},
		StatusRejected:        {},
	},
	StatusConfirmed: {
		StatusInProgress: {},
		StatusCancelled:  {},
	},
	StatusInProgress: {
		StatusCompleted: {},
	},
	StatusOpen: {
		StatusExpired: {},
	},
	StatusRejected:  {},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusExpired:   {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether s has no outgoing transitions.
func (s Status) Terminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// CanTransition reports whether from -> to is in the transition table.
// Unknown statuses and unlisted pairs, including from == to, are rejected.
func CanTransition(from, to Status) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// TransitionTo moves e to status to, or returns a *TransitionError when the
// table does not allow it. e is left unchanged on error.
func (e *Event) TransitionTo(to Status) error {
	if !CanTransition(e.Status, to) {
		return &TransitionError{EventID: e.ID, From: e.Status, To: to}
	}
	e.Status = to
	return nil
}
