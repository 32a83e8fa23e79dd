package domain

// Phase is the workflow state of one register session. It replaces the
// pile of independent UI flags with a single value so that illegal
// combinations (a resolved product together with a lookup error, say)
// cannot be represented.
type Phase string

const (
	PhaseIdle              Phase = "IDLE"
	PhaseCodeEntered       Phase = "CODE_ENTERED"
	PhaseProductResolved   Phase = "PRODUCT_RESOLVED"
	PhaseProductUnresolved Phase = "PRODUCT_UNRESOLVED"
	PhasePurchaseCompleted Phase = "PURCHASE_COMPLETED"
)

// String representation (for logging)
func (p Phase) String() string {
	return string(p)
}

var phaseTransitions = map[Phase][]Phase{
	PhaseIdle:        {PhaseCodeEntered, PhasePurchaseCompleted},
	PhaseCodeEntered: {PhaseCodeEntered, PhaseProductResolved, PhaseProductUnresolved, PhasePurchaseCompleted},
	// A resolved product stays current across adds; a new code restarts
	// the lookup cycle.
	PhaseProductResolved:   {PhaseProductResolved, PhaseCodeEntered, PhaseProductUnresolved, PhasePurchaseCompleted},
	PhaseProductUnresolved: {PhaseCodeEntered, PhaseProductResolved, PhaseProductUnresolved, PhasePurchaseCompleted},
	// Only an explicit reset leaves the completion presentation.
	PhasePurchaseCompleted: {},
}

// CanTransitionTo reports whether the workflow may move from one phase
// to another. Reset (any phase back to Idle) is always allowed.
func CanTransitionTo(from, to Phase) bool {
	if to == PhaseIdle {
		return true
	}
	for _, next := range phaseTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
