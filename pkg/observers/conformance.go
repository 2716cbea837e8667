package observers

import (
	"fmt"
	"sync"

	"github.com/anggasct/formo"
)

// ConformanceObserver checks a running machine against an expected shape:
// which states should be reached and which from->to pairs are allowed.
// Deviations accumulate as violations instead of failing the machine, so
// a whole scenario can run before the report is read.
type ConformanceObserver struct {
	formo.BaseObserver

	mutex              sync.RWMutex
	expectedStates     map[string]bool
	visitedStates      map[string]bool
	allowedTransitions map[string]map[string]bool
	violations         []string
}

// NewConformanceObserver creates an observer with no expectations; add
// them with ExpectState and AllowTransition before the scenario runs.
func NewConformanceObserver() *ConformanceObserver {
	return &ConformanceObserver{
		expectedStates:     make(map[string]bool),
		visitedStates:      make(map[string]bool),
		allowedTransitions: make(map[string]map[string]bool),
		violations:         make([]string, 0),
	}
}

// ExpectState marks a state that the scenario should reach.
func (o *ConformanceObserver) ExpectState(state string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.expectedStates[state] = true
}

// AllowTransition permits a from->to pair. Once any pair is allowed for a
// source state, every other pair from that state is a violation.
func (o *ConformanceObserver) AllowTransition(from, to string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if _, exists := o.allowedTransitions[from]; !exists {
		o.allowedTransitions[from] = make(map[string]bool)
	}
	o.allowedTransitions[from][to] = true
}

func (o *ConformanceObserver) addViolation(message string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.violations = append(o.violations, message)
}

// OnStateEnter marks the state visited.
func (o *ConformanceObserver) OnStateEnter(state string, ctx formo.Context) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.visitedStates[state] = true
}

// OnTransition checks the pair against the allowed set.
func (o *ConformanceObserver) OnTransition(from, to string, event formo.Event, ctx formo.Context) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if allowed, exists := o.allowedTransitions[from]; exists && !allowed[to] {
		o.violations = append(o.violations, fmt.Sprintf(
			"unexpected transition from '%s' to '%s' on event '%s'",
			from, to, event.GetName()))
	}
}

// OnError records machine errors as violations.
func (o *ConformanceObserver) OnError(err error, ctx formo.Context) {
	o.addViolation(fmt.Sprintf("machine error: %v", err))
}

// GetViolations returns a copy of the accumulated violations.
func (o *ConformanceObserver) GetViolations() []string {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make([]string, len(o.violations))
	copy(result, o.violations)
	return result
}

// GetUnvisitedStates returns expected states the scenario never reached.
func (o *ConformanceObserver) GetUnvisitedStates() []string {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	var unvisited []string
	for state := range o.expectedStates {
		if !o.visitedStates[state] {
			unvisited = append(unvisited, state)
		}
	}
	return unvisited
}

// HasViolations reports whether anything deviated.
func (o *ConformanceObserver) HasViolations() bool {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.violations) > 0
}

// Reset clears visits and violations but keeps the expectations.
func (o *ConformanceObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.visitedStates = make(map[string]bool)
	o.violations = make([]string, 0)
}
