package timing

import (
	"cmp"
	"fmt"

	"github.com/addrummond/heap"
	"github.com/gammazero/deque"
	"github.com/sarchlab/tankersim/idgen"
)

// insertionQueue applies due events in the order they were scheduled. Each
// search restarts from the oldest event that may still be unprocessed.
type insertionQueue struct {
	ids     idgen.Generator
	events  deque.Deque[*ScheduledEvent]
	head    int
	pending int
}

// NewInsertionQueue creates an EventQueue that applies the events of a window
// in insertion order, regardless of their times inside the window.
func NewInsertionQueue() EventQueue {
	return &insertionQueue{ids: idgen.New()}
}

func (q *insertionQueue) Schedule(t VTimeInHour, event any) *ScheduledEvent {
	evt := &ScheduledEvent{
		ID:    q.ids.Generate(),
		Time:  t,
		Event: event,
	}

	q.events.PushBack(evt)
	q.pending++

	return evt
}

func (q *insertionQueue) Drain(w Window, h Handler) error {
	for {
		evt := q.nextDue(w)
		if evt == nil {
			return nil
		}

		evt.Processed = true
		q.pending--

		if err := h.Handle(evt); err != nil {
			return handleError(evt, err)
		}
	}
}

func (q *insertionQueue) nextDue(w Window) *ScheduledEvent {
	for q.head < q.events.Len() && q.events.At(q.head).Processed {
		q.head++
	}

	for i := q.head; i < q.events.Len(); i++ {
		evt := q.events.At(i)
		if !evt.Processed && w.Contains(evt.Time) {
			return evt
		}
	}

	return nil
}

func (q *insertionQueue) Len() int {
	return q.events.Len()
}

func (q *insertionQueue) Pending() int {
	return q.pending
}

func (q *insertionQueue) Events() []ScheduledEvent {
	return copyEvents(&q.events)
}

// timeOrderedQueue applies due events ordered by time, then by insertion. The
// full log is retained in a deque; a min-heap indexes the events that have
// not been applied or skipped yet.
type timeOrderedQueue struct {
	ids     idgen.Generator
	events  deque.Deque[*ScheduledEvent]
	index   heap.Heap[pendingEvent, heap.Min]
	pending int
}

type pendingEvent struct {
	evt *ScheduledEvent
}

func (a *pendingEvent) Cmp(b *pendingEvent) int {
	if c := cmp.Compare(a.evt.Time, b.evt.Time); c != 0 {
		return c
	}

	return cmp.Compare(a.evt.ID, b.evt.ID)
}

// NewTimeOrderedQueue creates an EventQueue that applies the events of a
// window sorted by time, breaking ties by insertion order.
func NewTimeOrderedQueue() EventQueue {
	return &timeOrderedQueue{ids: idgen.New()}
}

func (q *timeOrderedQueue) Schedule(t VTimeInHour, event any) *ScheduledEvent {
	evt := &ScheduledEvent{
		ID:    q.ids.Generate(),
		Time:  t,
		Event: event,
	}

	q.events.PushBack(evt)
	heap.PushOrderable(&q.index, pendingEvent{evt: evt})
	q.pending++

	return evt
}

func (q *timeOrderedQueue) Drain(w Window, h Handler) error {
	for {
		next, ok := heap.Peek(&q.index)
		if !ok || next.evt.Time >= w.End {
			return nil
		}

		_, _ = heap.PopOrderable(&q.index)

		// Missed its window; it stays unprocessed like in insertion order.
		if next.evt.Time < w.Start {
			continue
		}

		next.evt.Processed = true
		q.pending--

		if err := h.Handle(next.evt); err != nil {
			return handleError(next.evt, err)
		}
	}
}

func (q *timeOrderedQueue) Len() int {
	return q.events.Len()
}

func (q *timeOrderedQueue) Pending() int {
	return q.pending
}

func (q *timeOrderedQueue) Events() []ScheduledEvent {
	return copyEvents(&q.events)
}

func copyEvents(events *deque.Deque[*ScheduledEvent]) []ScheduledEvent {
	out := make([]ScheduledEvent, events.Len())
	for i := range out {
		out[i] = *events.At(i)
	}

	return out
}

func handleError(evt *ScheduledEvent, err error) error {
	return fmt.Errorf("timing: handling event %s (%T) @ %.4f: %w",
		evt.ID, evt.Event, float64(evt.Time), err)
}
