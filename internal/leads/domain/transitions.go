package domain

// allowedTransitions is the lead lifecycle. new -> assigned is reserved for
// distribution and is not reachable through CanTransition.
var allowedTransitions = map[Status][]Status{
	StatusAssigned:   {StatusInProgress, StatusWon, StatusLost},
	StatusInProgress: {StatusWon, StatusLost, StatusCompleted},
}

var terminalStatuses = map[Status]bool{
	StatusWon:       true,
	StatusLost:      true,
	StatusCompleted: true,
}

// IsTerminalStatus returns true when no further transitions are possible.
func IsTerminalStatus(s Status) bool {
	return terminalStatuses[s]
}

// CanTransition reports whether a user-driven change from -> to is allowed.
// Re-applying the current status is handled by callers as a no-op.
func CanTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanDistribute reports whether distribution may assign a lead in status s.
func CanDistribute(s Status) bool {
	return s == StatusNew
}

// NextStatuses lists the statuses reachable from s by a user.
func NextStatuses(s Status) []Status {
	next := allowedTransitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}
