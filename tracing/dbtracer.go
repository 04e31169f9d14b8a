package tracing

import "github.com/sarchlab/tankersim/datarecording"

// TripTable is the table the DBTracer writes to.
const TripTable = "trips"

// TaskEntry is a row of the trip table.
// ArrivalTime is NULL for trips that never reached their tank.
type TaskEntry struct {
	ID          string   `db:"id"`
	Kind        string   `db:"kind"`
	What        string   `db:"what"`
	Location    string   `db:"location"`
	StartTime   float64  `db:"start_time"`
	ArrivalTime *float64 `db:"arrival_time"`
	EndTime     float64  `db:"end_time"`
	Completed   bool     `db:"completed"`
}

// DBTracer is a tracer that stores tasks into a data recorder.
type DBTracer struct {
	*BufferedTracer

	backend datarecording.DataRecorder
}

// NewDBTracer creates a new DBTracer and the trip table.
func NewDBTracer(dataRecorder datarecording.DataRecorder) *DBTracer {
	dataRecorder.CreateTable(TripTable, TaskEntry{})

	t := &DBTracer{backend: dataRecorder}
	t.BufferedTracer = NewBufferedTracer(t, nil)

	return t
}

// Write inserts a task into the trip table.
func (t *DBTracer) Write(task Task) {
	entry := TaskEntry{
		ID:        task.ID,
		Kind:      task.Kind,
		What:      task.What,
		Location:  task.Where,
		StartTime: float64(task.StartTime),
		EndTime:   float64(task.EndTime),
		Completed: task.Completed,
	}

	if len(task.Steps) > 0 {
		arrival := float64(task.Steps[0].Time)
		entry.ArrivalTime = &arrival
	}

	t.backend.InsertData(TripTable, entry)
}

// Flush flushes the data recorder.
func (t *DBTracer) Flush() {
	t.backend.Flush()
}
