package formo

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Invocation tracks one invoked task from start to settlement. It doubles as
// a future: Wait blocks until the machine has processed the task's completion
// event, so callers observe the post-settlement state rather than racing a
// timer against the task.
type Invocation struct {
	id      string
	stateID string
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
	result  *EventResult
	err     error
}

func newInvocation(stateID string, cancel context.CancelFunc) *Invocation {
	return &Invocation{
		id:      uuid.New().String(),
		stateID: stateID,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// ID returns the unique invocation identifier
func (inv *Invocation) ID() string {
	return inv.id
}

// StateID returns the state whose entry started the task
func (inv *Invocation) StateID() string {
	return inv.stateID
}

// Done returns a channel closed once the settlement has been applied or the
// invocation was interrupted
func (inv *Invocation) Done() <-chan struct{} {
	return inv.done
}

// Wait blocks until the invocation resolves or ctx is done. On success it
// returns the EventResult of processing the completion event; it returns an
// InvocationError when the task was canceled or superseded before settling.
func (inv *Invocation) Wait(ctx context.Context) (*EventResult, error) {
	select {
	case <-inv.done:
		return inv.result, inv.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolve publishes the settlement outcome; the first call wins
func (inv *Invocation) resolve(result *EventResult, err error) {
	inv.once.Do(func() {
		inv.result = result
		inv.err = err
		close(inv.done)
	})
}

// interrupt cancels the running task and resolves the future with an
// interruption error so waiters are not left hanging
func (inv *Invocation) interrupt(reason string) {
	if inv.cancel != nil {
		inv.cancel()
	}
	inv.resolve(nil, NewInvocationInterruptedError(inv.stateID, reason))
}
