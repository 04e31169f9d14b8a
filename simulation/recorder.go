package simulation

import (
	"github.com/sarchlab/tankersim/datarecording"
	"github.com/sarchlab/tankersim/hooking"
)

// Table names used by the data recorder hook.
const (
	LogEventTable    = "log_events"
	TankSampleTable  = "tank_samples"
	TruckSampleTable = "truck_samples"
)

// LogEventEntry is a row of the log event table.
type LogEventEntry struct {
	Seq     uint64   `db:"seq"`
	Time    float64  `db:"time"`
	Kind    string   `db:"kind"`
	Message string   `db:"message"`
	TruckID string   `db:"truck_id"`
	TankID  string   `db:"tank_id"`
	Amount  *float64 `db:"amount"`
}

// TankSampleEntry is a row of the tank sample table, one per tank and step.
type TankSampleEntry struct {
	Step          int     `db:"step"`
	Time          float64 `db:"time"`
	TankID        string  `db:"tank_id"`
	CurrentWater  float64 `db:"current_water"`
	Percentage    float64 `db:"percentage"`
	NeedsWater    bool    `db:"needs_water"`
	TruckAssigned bool    `db:"truck_assigned"`
}

// TruckSampleEntry is a row of the truck sample table, one per truck and step.
// TargetTank is NULL while the truck is at the depot.
type TruckSampleEntry struct {
	Step         int     `db:"step"`
	Time         float64 `db:"time"`
	TruckID      string  `db:"truck_id"`
	Available    bool    `db:"available"`
	CurrentWater float64 `db:"current_water"`
	TargetTank   *string `db:"target_tank"`
}

// DataRecorderHook writes log events and per-step samples into a data
// recorder. The recorder is flushed when the run ends.
type DataRecorderHook struct {
	recorder datarecording.DataRecorder
}

// NewDataRecorderHook creates the recording tables and returns the hook.
func NewDataRecorderHook(r datarecording.DataRecorder) *DataRecorderHook {
	r.CreateTable(LogEventTable, LogEventEntry{})
	r.CreateTable(TankSampleTable, TankSampleEntry{})
	r.CreateTable(TruckSampleTable, TruckSampleEntry{})

	return &DataRecorderHook{recorder: r}
}

// Positions lists where the hook records.
func (h *DataRecorderHook) Positions() []*hooking.HookPos {
	return []*hooking.HookPos{HookPosLogEvent, HookPosStepEnd, HookPosRunEnd}
}

// Func records the hook item.
func (h *DataRecorderHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case HookPosLogEvent:
		h.recordLogEvent(ctx.Item.(LogEvent))
	case HookPosStepEnd:
		h.recordStep(ctx.Item.(StepSnapshot))
	case HookPosRunEnd:
		h.recorder.Flush()
	}
}

func (h *DataRecorderHook) recordLogEvent(evt LogEvent) {
	entry := LogEventEntry{
		Seq:     uint64(evt.Seq),
		Time:    float64(evt.Time),
		Kind:    string(evt.Kind),
		Message: evt.Message,
		TruckID: string(evt.TruckID),
		TankID:  string(evt.TankID),
	}

	if evt.Amount != nil {
		amount := *evt.Amount
		entry.Amount = &amount
	}

	h.recorder.InsertData(LogEventTable, entry)
}

func (h *DataRecorderHook) recordStep(s StepSnapshot) {
	for _, t := range s.Tanks {
		h.recorder.InsertData(TankSampleTable, TankSampleEntry{
			Step:          s.Index,
			Time:          float64(s.Time),
			TankID:        string(t.ID),
			CurrentWater:  t.CurrentWater,
			Percentage:    t.Percentage,
			NeedsWater:    t.NeedsWater,
			TruckAssigned: t.TruckAssigned,
		})
	}

	for _, t := range s.Trucks {
		entry := TruckSampleEntry{
			Step:         s.Index,
			Time:         float64(s.Time),
			TruckID:      string(t.ID),
			Available:    t.Available,
			CurrentWater: t.CurrentWater,
		}

		if t.TargetTank != nil {
			target := string(*t.TargetTank)
			entry.TargetTank = &target
		}

		h.recorder.InsertData(TruckSampleTable, entry)
	}
}
