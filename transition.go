package formo

// Transition represents a transition between states
type Transition struct {
	SourceState string
	TargetState string
	EventName   string
	Guard       GuardFunc
	Action      ActionFunc
}

// NewTransition creates a new transition
func NewTransition(source, target, event string) *Transition {
	return &Transition{
		SourceState: source,
		TargetState: target,
		EventName:   event,
	}
}

// WithGuard sets the guard condition for the transition
func (t *Transition) WithGuard(guard GuardFunc) *Transition {
	t.Guard = guard
	return t
}

// WithAction sets the action for the transition
func (t *Transition) WithAction(action ActionFunc) *Transition {
	t.Action = action
	return t
}

// IsSelf reports whether the transition stays in its source state
func (t *Transition) IsSelf() bool {
	return t.SourceState == t.TargetState
}

// IsCompletion reports whether the transition is triggered by an internal
// invocation-completion event
func (t *Transition) IsCompletion() bool {
	return IsCompletionEventName(t.EventName)
}
