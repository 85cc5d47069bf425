package orderlifecycle

// allowedTransitions is the only place where the order state machine is defined.
var allowedTransitions = map[State][]State{
	StateCreated:         {StateQuoted, StateAwaitingPayment, StateFailed},
	StateQuoted:          {StateAwaitingPayment, StateExpired, StateFailed},
	StateAwaitingPayment: {StateSigning, StateExpired, StateFailed},
	StateSigning:         {StateProcessing, StateAwaitingPayment, StateFailed},
	StateProcessing:      {StateCompleted, StateFailed, StateExpired},
}

func IsTransitionAllowed(from State, to State) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func validateTransition(from State, to State) error {
	if !IsTransitionAllowed(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}
