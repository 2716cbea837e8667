package observers

import (
	"sync"
	"time"

	"github.com/anggasct/formo"
)

// MetricsObserver collects counters and timings from a running machine:
// state visits, time spent per state, event and transition counts, and
// rejection, error and validation-run tallies.
type MetricsObserver struct {
	formo.BaseObserver

	mutex            sync.RWMutex
	stateVisits      map[string]int
	stateTimeSpent   map[string]time.Duration
	eventCounts      map[string]int
	transitionCounts map[string]int
	rejectionCount   int
	errorCount       int
	invocationCount  int
	invocationFails  int
	lastStateEntry   map[string]time.Time
}

// NewMetricsObserver creates an empty metrics collector.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		stateVisits:      make(map[string]int),
		stateTimeSpent:   make(map[string]time.Duration),
		eventCounts:      make(map[string]int),
		transitionCounts: make(map[string]int),
		lastStateEntry:   make(map[string]time.Time),
	}
}

// OnStateEnter records a visit and stamps the entry time.
func (o *MetricsObserver) OnStateEnter(state string, ctx formo.Context) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.stateVisits[state]++
	o.lastStateEntry[state] = time.Now()
}

// OnStateExit accumulates the time spent since entry.
func (o *MetricsObserver) OnStateExit(state string, ctx formo.Context) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if entryTime, ok := o.lastStateEntry[state]; ok {
		o.stateTimeSpent[state] += time.Since(entryTime)
		delete(o.lastStateEntry, state)
	}
}

// OnTransition records the event and the from->to pair.
func (o *MetricsObserver) OnTransition(from, to string, event formo.Event, ctx formo.Context) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.eventCounts[event.GetName()]++
	o.transitionCounts[from+"->"+to]++
}

// OnEventRejected counts rejections.
func (o *MetricsObserver) OnEventRejected(event formo.Event, reason string, ctx formo.Context) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.rejectionCount++
}

// OnError counts errors.
func (o *MetricsObserver) OnError(err error, ctx formo.Context) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.errorCount++
}

// OnInvocationStarted counts validation runs.
func (o *MetricsObserver) OnInvocationStarted(state string, ctx formo.Context) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.invocationCount++
}

// OnInvocationSettled counts failed runs.
func (o *MetricsObserver) OnInvocationSettled(state string, err error, ctx formo.Context) {
	if err == nil {
		return
	}
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.invocationFails++
}

// GetStateVisitCounts returns the number of times each state was entered.
func (o *MetricsObserver) GetStateVisitCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make(map[string]int, len(o.stateVisits))
	for state, count := range o.stateVisits {
		result[state] = count
	}
	return result
}

// GetStateTimeSpent returns the accumulated time per state.
func (o *MetricsObserver) GetStateTimeSpent() map[string]time.Duration {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make(map[string]time.Duration, len(o.stateTimeSpent))
	for state, duration := range o.stateTimeSpent {
		result[state] = duration
	}
	return result
}

// GetEventCounts returns the number of processed events by name.
func (o *MetricsObserver) GetEventCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make(map[string]int, len(o.eventCounts))
	for event, count := range o.eventCounts {
		result[event] = count
	}
	return result
}

// GetTransitionCounts returns occurrences of each from->to pair.
func (o *MetricsObserver) GetTransitionCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make(map[string]int, len(o.transitionCounts))
	for transition, count := range o.transitionCounts {
		result[transition] = count
	}
	return result
}

// GetRejectionCount returns the number of rejected events.
func (o *MetricsObserver) GetRejectionCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	return o.rejectionCount
}

// GetErrorCount returns the number of observed errors.
func (o *MetricsObserver) GetErrorCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	return o.errorCount
}

// GetInvocationCounts returns started and failed validation runs.
func (o *MetricsObserver) GetInvocationCounts() (started, failed int) {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	return o.invocationCount, o.invocationFails
}

// Reset clears all collected metrics.
func (o *MetricsObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.stateVisits = make(map[string]int)
	o.stateTimeSpent = make(map[string]time.Duration)
	o.eventCounts = make(map[string]int)
	o.transitionCounts = make(map[string]int)
	o.rejectionCount = 0
	o.errorCount = 0
	o.invocationCount = 0
	o.invocationFails = 0
	o.lastStateEntry = make(map[string]time.Time)
}
