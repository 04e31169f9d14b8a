package simulation

import "github.com/sarchlab/tankersim/hooking"

var (
	// HookPosRunStart fires before the first step. Item is a Summary with the
	// planned step count and fleet sizes; TotalEvents is zero.
	HookPosRunStart = &hooking.HookPos{Name: "RunStart"}

	// HookPosBeforeEvent fires before a scheduled event is applied. Item is a
	// timing.ScheduledEvent.
	HookPosBeforeEvent = &hooking.HookPos{Name: "BeforeEvent"}

	// HookPosAfterEvent fires after a scheduled event is applied. Item is a
	// timing.ScheduledEvent.
	HookPosAfterEvent = &hooking.HookPos{Name: "AfterEvent"}

	// HookPosLogEvent fires for every log event. Item is a LogEvent.
	HookPosLogEvent = &hooking.HookPos{Name: "LogEvent"}

	// HookPosTripStart fires when a truck is dispatched. Item is a fleet.Trip.
	HookPosTripStart = &hooking.HookPos{Name: "TripStart"}

	// HookPosTripArrive fires when a truck arrives and its trip gets a return
	// time. Item is a fleet.Trip.
	HookPosTripArrive = &hooking.HookPos{Name: "TripArrive"}

	// HookPosTripReturn fires when a truck is back at the depot. Item is the
	// truck's last fleet.Trip.
	HookPosTripReturn = &hooking.HookPos{Name: "TripReturn"}

	// HookPosStepEnd fires after each step. Item is a StepSnapshot.
	HookPosStepEnd = &hooking.HookPos{Name: "StepEnd"}

	// HookPosRunEnd fires once the run is over. Item is the Summary and Detail
	// the *Result.
	HookPosRunEnd = &hooking.HookPos{Name: "RunEnd"}
)
