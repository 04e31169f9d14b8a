package simulation

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/sarchlab/tankersim/hooking"
	"github.com/sarchlab/tankersim/timing"
)

// LogHookBase provides the common logic for all hooks that write to a logger.
type LogHookBase struct {
	*log.Logger
}

// EventLogger is a hook that writes log events at info level, and applied
// events and step ends at debug level.
type EventLogger struct {
	LogHookBase
}

// NewEventLogger returns a new EventLogger which will write into the logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	h := new(EventLogger)
	h.Logger = logger

	return h
}

// Positions lists where the logger writes.
func (h *EventLogger) Positions() []*hooking.HookPos {
	return []*hooking.HookPos{
		HookPosLogEvent, HookPosBeforeEvent, HookPosStepEnd, HookPosRunEnd,
	}
}

// Func writes the hook item into the logger.
func (h *EventLogger) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case HookPosLogEvent:
		evt := ctx.Item.(LogEvent)
		kv := []any{"time", float64(evt.Time), "kind", string(evt.Kind)}

		if evt.Amount != nil {
			kv = append(kv, "amount", *evt.Amount)
		}

		h.Info(evt.Message, kv...)
	case HookPosBeforeEvent:
		evt := ctx.Item.(timing.ScheduledEvent)
		h.Debug("applying event",
			"id", evt.ID.String(),
			"time", float64(evt.Time),
			"type", fmt.Sprintf("%T", evt.Event))
	case HookPosStepEnd:
		s := ctx.Item.(StepSnapshot)
		h.Debug("step done",
			"step", s.Index,
			"time", float64(s.Time),
			"events", len(s.Events))
	case HookPosRunEnd:
		sum := ctx.Item.(Summary)
		h.Info("simulation finished",
			"steps", sum.TotalSteps,
			"events", sum.TotalEvents)
	}
}
