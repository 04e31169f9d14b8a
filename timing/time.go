// Package timing provides the stepped simulation clock and the deferred event
// queue of a run.
package timing

import "math"

// VTimeInHour defines the time in the simulated space in the unit of hour.
type VTimeInHour float64

// A Window is the half-open interval [Start, End) covered by one step.
type Window struct {
	Index int
	Start VTimeInHour
	End   VTimeInHour
}

// Contains tells if t lies inside the window.
func (w Window) Contains(t VTimeInHour) bool {
	return t >= w.Start && t < w.End
}

// StepWindow returns the window of step k for the given step length.
func StepWindow(k int, step VTimeInHour) Window {
	start := VTimeInHour(float64(k) * float64(step))

	return Window{Index: k, Start: start, End: start + step}
}

// NumSteps returns ceil(total / step). Both arguments must be positive.
func NumSteps(total, step VTimeInHour) int {
	return int(math.Ceil(float64(total) / float64(step)))
}

// A Clock walks through the windows of a run, one step at a time.
type Clock struct {
	step  VTimeInHour
	total int
	next  int
}

// NewClock creates a clock that covers totalHours with windows of length
// step.
func NewClock(step, totalHours VTimeInHour) *Clock {
	return &Clock{
		step:  step,
		total: NumSteps(totalHours, step),
	}
}

// NumSteps returns the number of windows the clock produces.
func (c *Clock) NumSteps() int {
	return c.total
}

// Next returns the next window. The second return value is false once all
// windows have been produced.
func (c *Clock) Next() (Window, bool) {
	if c.next >= c.total {
		return Window{}, false
	}

	w := StepWindow(c.next, c.step)
	c.next++

	return w, true
}
