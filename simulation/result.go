package simulation

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/sarchlab/tankersim/fleet"
)

// Summary describes a finished run.
type Summary struct {
	TotalSteps  int     `json:"totalSteps"`
	TotalTime   float64 `json:"totalTime"`
	Tanks       int     `json:"tanks"`
	Trucks      int     `json:"trucks"`
	TotalEvents int     `json:"totalEvents"`
}

// Result is everything a run produces.
type Result struct {
	Steps   []StepSnapshot `json:"steps"`
	Summary Summary        `json:"summary"`
	Plan    fleet.Plan     `json:"plan"`
}

// StepEvent is a log event tagged with the step that reported it.
type StepEvent struct {
	StepIndex int `json:"stepIndex"`
	LogEvent
}

// Step returns the snapshot of step i.
func (r *Result) Step(i int) (StepSnapshot, error) {
	if i < 0 || i >= len(r.Steps) {
		return StepSnapshot{}, fmt.Errorf(
			"step %d out of range [0, %d)", i, len(r.Steps))
	}

	return r.Steps[i], nil
}

// EventsUpTo collects the events of steps 0 to upTo, both included. When
// kinds are given only events of those kinds are kept. A negative upTo selects
// every step.
func (r *Result) EventsUpTo(upTo int, kinds ...LogKind) []StepEvent {
	if upTo < 0 || upTo >= len(r.Steps) {
		upTo = len(r.Steps) - 1
	}

	events := make([]StepEvent, 0)
	for i := 0; i <= upTo; i++ {
		for _, e := range r.Steps[i].Events {
			if len(kinds) > 0 && !slices.Contains(kinds, e.Kind) {
				continue
			}

			events = append(events, StepEvent{StepIndex: i, LogEvent: e})
		}
	}

	return events
}

// WriteJSON encodes the result as indented JSON.
func (r *Result) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(r)
}

// ReadResult decodes a result written by WriteJSON.
func ReadResult(rd io.Reader) (*Result, error) {
	r := new(Result)
	if err := json.NewDecoder(rd).Decode(r); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}

	return r, nil
}
