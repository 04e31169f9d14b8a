package monitoring

import (
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/sarchlab/tankersim/hooking"
	"github.com/sarchlab/tankersim/simulation"
)

// A ProgressBar tracks how many steps of a run are done.
type ProgressBar struct {
	sync.Mutex `json:"-"`
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

func (b *ProgressBar) snapshot() ProgressBar {
	b.Lock()
	defer b.Unlock()

	return ProgressBar{
		ID:        b.ID,
		Name:      b.Name,
		StartTime: b.StartTime,
		Total:     b.Total,
		Finished:  b.Finished,
	}
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bar := &ProgressBar{
		ID:        m.barIDs.Generate().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the list.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = slices.DeleteFunc(m.progressBars,
		func(b *ProgressBar) bool { return b == pb })
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bars := make([]ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}

	m.writeJSON(w, bars)
}

// ProgressBarHook shows the step progress of a run as a progress bar. The
// bar is removed when the run ends.
type ProgressBarHook struct {
	monitor *Monitor
	name    string
	bar     *ProgressBar
}

// NewProgressBarHook creates a hook that reports to the monitor.
func NewProgressBarHook(m *Monitor, name string) *ProgressBarHook {
	return &ProgressBarHook{monitor: m, name: name}
}

// Positions lists the run and step end positions.
func (h *ProgressBarHook) Positions() []*hooking.HookPos {
	return []*hooking.HookPos{
		simulation.HookPosRunStart,
		simulation.HookPosStepEnd,
		simulation.HookPosRunEnd,
	}
}

// Func updates the progress bar.
func (h *ProgressBarHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case simulation.HookPosRunStart:
		summary := ctx.Item.(simulation.Summary)
		h.bar = h.monitor.CreateProgressBar(h.name, uint64(summary.TotalSteps))
	case simulation.HookPosStepEnd:
		if h.bar != nil {
			h.bar.IncrementFinished(1)
		}
	case simulation.HookPosRunEnd:
		if h.bar != nil {
			h.monitor.CompleteProgressBar(h.bar)
			h.bar = nil
		}
	}
}

// Bar returns the bar of the run in progress, if any.
func (h *ProgressBarHook) Bar() *ProgressBar {
	return h.bar
}
