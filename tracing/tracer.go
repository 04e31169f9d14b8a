package tracing

import (
	"io"

	"github.com/sarchlab/tankersim/timing"
)

// A Tracer can collect task traces
type Tracer interface {
	StartTask(task Task)
	StepTask(task Task)
	EndTask(task Task)

	// Terminate is called once the run is over. Tasks still in flight are
	// reported as not completed, ending at now.
	Terminate(now timing.VTimeInHour)
}

// A TraceWriter persists finished tasks.
type TraceWriter interface {
	Write(task Task)
	Flush()
}

// BufferedTracer keeps tasks in flight in memory and hands them to a
// TraceWriter when they end.
type BufferedTracer struct {
	writer        TraceWriter
	filter        TaskFilter
	inflightTasks map[string]Task
	order         []string
	err           error
}

// NewBufferedTracer creates a tracer that writes to w every task accepted by
// filter. A nil filter accepts every task.
func NewBufferedTracer(w TraceWriter, filter TaskFilter) *BufferedTracer {
	if filter == nil {
		filter = func(Task) bool { return true }
	}

	return &BufferedTracer{
		writer:        w,
		filter:        filter,
		inflightTasks: make(map[string]Task),
	}
}

// StartTask records the start of a task.
func (t *BufferedTracer) StartTask(task Task) {
	if !t.filter(task) {
		return
	}

	t.inflightTasks[task.ID] = task
	t.order = append(t.order, task.ID)
}

// StepTask appends the steps of the given task to the task in flight.
func (t *BufferedTracer) StepTask(task Task) {
	original, ok := t.inflightTasks[task.ID]
	if !ok {
		return
	}

	original.Steps = append(original.Steps, task.Steps...)
	t.inflightTasks[task.ID] = original
}

// EndTask writes the task.
func (t *BufferedTracer) EndTask(task Task) {
	original, ok := t.inflightTasks[task.ID]
	if !ok {
		return
	}

	original.EndTime = task.EndTime
	original.Completed = true
	delete(t.inflightTasks, task.ID)

	t.writer.Write(original)
}

// Terminate writes the unfinished tasks in start order and flushes the
// writer. Writers that are also io.Closer are closed.
func (t *BufferedTracer) Terminate(now timing.VTimeInHour) {
	for _, id := range t.order {
		task, ok := t.inflightTasks[id]
		if !ok {
			continue
		}

		task.EndTime = now
		t.writer.Write(task)
	}

	t.inflightTasks = make(map[string]Task)
	t.order = nil

	t.writer.Flush()

	if c, ok := t.writer.(io.Closer); ok {
		if err := c.Close(); err != nil {
			t.err = err
		}
	}
}

// Err returns the error met while closing the writer, if any.
func (t *BufferedTracer) Err() error {
	return t.err
}
