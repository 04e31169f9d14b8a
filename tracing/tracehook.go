package tracing

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/tankersim/fleet"
	"github.com/sarchlab/tankersim/hooking"
	"github.com/sarchlab/tankersim/idgen"
	"github.com/sarchlab/tankersim/simulation"
	"github.com/sarchlab/tankersim/timing"
)

// TaskKindTrip is the kind of the tasks created for trips.
const TaskKindTrip = "trip"

// CollectTrace lets the tracer collect the trips of a simulation engine.
func CollectTrace(domain hooking.Hookable, tracer Tracer) {
	for _, hook := range domain.Hooks() {
		hook, ok := hook.(*traceHook)
		if ok && hook.t == tracer {
			panic(fmt.Sprintf("domain already has tracer %s",
				reflect.TypeOf(tracer)))
		}
	}

	h := &traceHook{t: tracer, trips: idgen.NewSequences[fleet.ID]()}
	domain.AcceptHook(h)
}

// A traceHook turns trip hooks into tracer calls.
type traceHook struct {
	t     Tracer
	trips *idgen.Sequences[fleet.ID]
}

// Positions lists the run and trip positions.
func (h *traceHook) Positions() []*hooking.HookPos {
	return []*hooking.HookPos{
		simulation.HookPosRunStart,
		simulation.HookPosTripStart,
		simulation.HookPosTripArrive,
		simulation.HookPosTripReturn,
		simulation.HookPosRunEnd,
	}
}

// Func calls the tracer interfaces when the hook is triggered
func (h *traceHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case simulation.HookPosRunStart:
		h.trips.Reset()
	case simulation.HookPosTripStart:
		trip := ctx.Item.(fleet.Trip)
		h.trips.Next(trip.TruckID)
		h.t.StartTask(Task{
			ID:        h.taskID(trip),
			Kind:      TaskKindTrip,
			What:      "tank " + string(trip.TankID),
			Where:     "truck " + string(trip.TruckID),
			StartTime: trip.DepartTime,
			Detail:    trip,
		})
	case simulation.HookPosTripArrive:
		trip := ctx.Item.(fleet.Trip)
		h.t.StepTask(Task{
			ID:    h.taskID(trip),
			Steps: []TaskStep{{Time: trip.ArrivalTime, What: "deliver"}},
		})
	case simulation.HookPosTripReturn:
		trip := ctx.Item.(fleet.Trip)
		if trip.ReturnTime == nil {
			return
		}

		h.t.EndTask(Task{ID: h.taskID(trip), EndTime: *trip.ReturnTime})
	case simulation.HookPosRunEnd:
		summary := ctx.Item.(simulation.Summary)
		h.t.Terminate(timing.VTimeInHour(summary.TotalTime))
	}
}

func (h *traceHook) taskID(trip fleet.Trip) string {
	return fmt.Sprintf("truck-%s-trip-%s", trip.TruckID, h.trips.Current(trip.TruckID))
}
