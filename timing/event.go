package timing

import "github.com/sarchlab/tankersim/idgen"

// Handler applies due events. Events are plain data structs; handlers use a
// type switch to tell them apart:
//
//	func (h *MyHandler) Handle(evt *timing.ScheduledEvent) error {
//	    switch e := evt.Event.(type) {
//	    case *MyEvent:
//	        // apply MyEvent
//	    default:
//	        return fmt.Errorf("unknown event type: %T", e)
//	    }
//	    return nil
//	}
type Handler interface {
	Handle(evt *ScheduledEvent) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(evt *ScheduledEvent) error

// Handle calls f(evt).
func (f HandlerFunc) Handle(evt *ScheduledEvent) error {
	return f(evt)
}

// ScheduledEvent is a future state transition tagged with an absolute time.
// Once Processed is set the event is never applied again, and the event stays
// in the queue for the rest of the run.
type ScheduledEvent struct {
	ID        idgen.ID
	Time      VTimeInHour
	Event     any
	Processed bool
}

// An EventQueue holds the scheduled events of one run.
type EventQueue interface {
	// Schedule appends a new event that happens at t.
	Schedule(t VTimeInHour, event any) *ScheduledEvent

	// Drain applies every unprocessed event whose time lies in w, including
	// events the handler schedules into w while draining. Events earlier than
	// w.Start are never applied. The first handler error stops the drain.
	Drain(w Window, h Handler) error

	// Len returns the number of events ever scheduled.
	Len() int

	// Pending returns the number of events not processed yet.
	Pending() int

	// Events returns copies of all events in insertion order.
	Events() []ScheduledEvent
}
