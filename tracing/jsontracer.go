package tracing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// JSONTraceWriter writes tasks as the elements of a JSON array. The array is
// closed by Close.
type JSONTraceWriter struct {
	lock    sync.Mutex
	w       io.Writer
	pending bytes.Buffer
	count   int
	closed  bool
	err     error
}

// NewJSONTraceWriter creates a writer that writes into w. If w is also an
// io.Closer, it is closed with the writer.
func NewJSONTraceWriter(w io.Writer) *JSONTraceWriter {
	t := &JSONTraceWriter{w: w}
	t.pending.WriteString("[\n")

	atexit.Register(func() { t.Close() })

	return t
}

// Write buffers a task.
func (t *JSONTraceWriter) Write(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.closed {
		return
	}

	b, err := json.Marshal(task)
	if err != nil {
		t.fail(err)
		return
	}

	if t.count > 0 {
		t.pending.WriteString(",\n")
	}

	t.pending.Write(b)
	t.count++
}

// Flush writes the buffered tasks.
func (t *JSONTraceWriter) Flush() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.flush()
}

func (t *JSONTraceWriter) flush() {
	if t.pending.Len() == 0 {
		return
	}

	_, err := t.pending.WriteTo(t.w)
	t.fail(err)
}

// Close ends the array and returns the first write error.
func (t *JSONTraceWriter) Close() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.closed {
		return t.err
	}

	t.closed = true
	t.pending.WriteString("\n]\n")
	t.flush()

	if c, ok := t.w.(io.Closer); ok {
		t.fail(c.Close())
	}

	return t.err
}

func (t *JSONTraceWriter) fail(err error) {
	if t.err == nil {
		t.err = err
	}
}

// NewJSONTracer creates a tracer that writes tasks into w as a JSON array.
// The array is complete once the tracer terminates.
func NewJSONTracer(w io.Writer) *BufferedTracer {
	return NewBufferedTracer(NewJSONTraceWriter(w), nil)
}

// NewJSONFileTracer creates a JSON tracer that writes into path plus the
// ".json" extension. An empty path picks a unique name. It returns the file
// name.
func NewJSONFileTracer(path string) (*BufferedTracer, string, error) {
	if path == "" {
		path = "tankersim_trace_" + xid.New().String()
	}

	filename := path + ".json"

	f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if os.IsExist(err) {
		return nil, "", fmt.Errorf("file %s already exists", filename)
	}

	if err != nil {
		return nil, "", err
	}

	return NewJSONTracer(f), filename, nil
}
