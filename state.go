package formo

// State represents a state in the state machine
type State interface {
	ID() string
	Enter(ctx Context)
	Exit(ctx Context)
	Invoke() InvokeFunc
	IsFinal() bool
}

// ActionFunc represents an action function with error support
type ActionFunc func(ctx Context) error

// GuardFunc represents a guard condition function
type GuardFunc func(ctx Context) bool

// InvokeFunc represents an asynchronous task started when its state is
// entered. Its settlement re-enters the machine as an internal completion
// event carrying the returned value or the error.
type InvokeFunc func(ctx Context) (any, error)

// StateImpl implements the State interface
type StateImpl struct {
	id          string
	entryAction ActionFunc
	exitAction  ActionFunc
	invoke      InvokeFunc
	final       bool
}

// NewState creates a new state
func NewState(id string) *StateImpl {
	return &StateImpl{
		id:    id,
		final: false,
	}
}

// NewFinalState creates a new final state
func NewFinalState(id string) *StateImpl {
	return &StateImpl{
		id:    id,
		final: true,
	}
}

// ID returns the state identifier
func (s *StateImpl) ID() string {
	return s.id
}

// Enter executes the entry action
func (s *StateImpl) Enter(ctx Context) {
	if s.entryAction != nil {
		_ = safeExecuteAction(s.entryAction, ctx)
	}
}

// Exit executes the exit action
func (s *StateImpl) Exit(ctx Context) {
	if s.exitAction != nil {
		_ = safeExecuteAction(s.exitAction, ctx)
	}
}

// Invoke returns the invoked task of this state, nil when it has none
func (s *StateImpl) Invoke() InvokeFunc {
	return s.invoke
}

// IsFinal returns whether this is a final state
func (s *StateImpl) IsFinal() bool {
	return s.final
}

// WithEntryAction sets the entry action for the state
func (s *StateImpl) WithEntryAction(action ActionFunc) *StateImpl {
	s.entryAction = action
	return s
}

// WithExitAction sets the exit action for the state
func (s *StateImpl) WithExitAction(action ActionFunc) *StateImpl {
	s.exitAction = action
	return s
}

// WithInvoke sets the invoked task started on state entry
func (s *StateImpl) WithInvoke(task InvokeFunc) *StateImpl {
	s.invoke = task
	return s
}

// WithFinal marks the state as final
func (s *StateImpl) WithFinal() *StateImpl {
	s.final = true
	return s
}
