package tracing

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/xid"
	"github.com/sarchlab/tankersim/timing"
	"github.com/tebeka/atexit"
)

var csvHeader = []string{
	"id", "kind", "what", "where",
	"start", "arrival", "end", "hours", "completed",
}

// CSVTraceWriter is a task writer that can store the tasks into a CSV file.
// Tasks without steps leave the arrival column empty.
type CSVTraceWriter struct {
	path string
	file *os.File
	csv  *csv.Writer

	tasks      []Task
	bufferSize int
	closed     bool
}

// NewCSVTraceWriter creates a new CSVTraceWriter. The file is path plus the
// ".csv" extension; an empty path picks a unique name.
func NewCSVTraceWriter(path string) *CSVTraceWriter {
	return &CSVTraceWriter{
		path:       path,
		bufferSize: 1000,
	}
}

// Init creates the tracing csv file. It fails if the file already exists.
func (t *CSVTraceWriter) Init() error {
	if t.path == "" {
		t.path = "tankersim_trace_" + xid.New().String()
	}

	file, err := os.OpenFile(t.Filename(),
		os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if os.IsExist(err) {
		return fmt.Errorf("file %s already exists", t.Filename())
	}

	if err != nil {
		return err
	}

	t.file = file
	t.csv = csv.NewWriter(file)

	if err := t.csv.Write(csvHeader); err != nil {
		return err
	}

	atexit.Register(func() { t.Close() })

	return nil
}

// Filename returns the CSV file name.
func (t *CSVTraceWriter) Filename() string {
	return t.path + ".csv"
}

// Write buffers a task.
func (t *CSVTraceWriter) Write(task Task) {
	t.tasks = append(t.tasks, task)
	if len(t.tasks) >= t.bufferSize {
		t.Flush()
	}
}

// Flush flushes the tasks to the CSV file.
func (t *CSVTraceWriter) Flush() {
	if t.closed {
		return
	}

	for _, task := range t.tasks {
		arrival := ""
		if len(task.Steps) > 0 {
			arrival = hours(task.Steps[0].Time)
		}

		// Write errors surface through csv.Error on Close.
		_ = t.csv.Write([]string{
			task.ID,
			task.Kind,
			task.What,
			task.Where,
			hours(task.StartTime),
			arrival,
			hours(task.EndTime),
			hours(task.EndTime - task.StartTime),
			strconv.FormatBool(task.Completed),
		})
	}

	t.tasks = nil
	t.csv.Flush()
}

// Close flushes and closes the file.
func (t *CSVTraceWriter) Close() error {
	if t.closed || t.csv == nil {
		return nil
	}

	t.Flush()
	t.closed = true

	if err := t.csv.Error(); err != nil {
		t.file.Close()
		return err
	}

	return t.file.Close()
}

func hours(v timing.VTimeInHour) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 64)
}
