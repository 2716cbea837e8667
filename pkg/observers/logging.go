// Package observers provides ready-made observers for form machines:
// structured logging, metrics collection and conformance checking.
package observers

import (
	"log/slog"

	"github.com/anggasct/formo"
)

// LoggingObserver writes machine activity to a structured logger.
// Transitions and lifecycle changes log at Info, the chattier signals
// (state enter/exit, guards, actions) at Debug, rejections at Warn and
// failures at Error.
type LoggingObserver struct {
	formo.BaseObserver
	logger *slog.Logger
}

// NewLoggingObserver builds an observer over the given logger. A nil
// logger falls back to slog.Default().
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{logger: logger}
}

func (o *LoggingObserver) OnTransition(from, to string, event formo.Event, ctx formo.Context) {
	o.logger.Info("transition",
		"from", from,
		"to", to,
		"event", event.GetName(),
	)
}

func (o *LoggingObserver) OnStateEnter(state string, ctx formo.Context) {
	o.logger.Debug("state entered", "state", state)
}

func (o *LoggingObserver) OnStateExit(state string, ctx formo.Context) {
	o.logger.Debug("state exited", "state", state)
}

func (o *LoggingObserver) OnGuardEvaluation(from, to string, event formo.Event, result bool, ctx formo.Context) {
	o.logger.Debug("guard evaluated",
		"from", from,
		"to", to,
		"event", event.GetName(),
		"passed", result,
	)
}

func (o *LoggingObserver) OnEventRejected(event formo.Event, reason string, ctx formo.Context) {
	o.logger.Warn("event rejected",
		"event", event.GetName(),
		"reason", reason,
	)
}

func (o *LoggingObserver) OnError(err error, ctx formo.Context) {
	o.logger.Error("machine error", "error", err)
}

func (o *LoggingObserver) OnActionExecution(actionType, state string, event formo.Event, ctx formo.Context) {
	o.logger.Debug("action executed",
		"action", actionType,
		"state", state,
		"event", event.GetName(),
	)
}

func (o *LoggingObserver) OnMachineStarted(ctx formo.Context) {
	o.logger.Info("machine started")
}

func (o *LoggingObserver) OnMachineStopped(ctx formo.Context) {
	o.logger.Info("machine stopped")
}

func (o *LoggingObserver) OnInvocationStarted(state string, ctx formo.Context) {
	o.logger.Debug("invocation started", "state", state)
}

func (o *LoggingObserver) OnInvocationSettled(state string, err error, ctx formo.Context) {
	if err != nil {
		o.logger.Warn("invocation failed", "state", state, "error", err)
		return
	}
	o.logger.Debug("invocation settled", "state", state)
}
