package monitoring

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sarchlab/tankersim/hooking"
	"github.com/sarchlab/tankersim/simulation"
)

// Metrics is a hook that exports run statistics to Prometheus.
type Metrics struct {
	LogEvents       *prometheus.CounterVec
	DeliveredLiters prometheus.Counter
	Steps           prometheus.Counter
	TrucksAvailable prometheus.Gauge
	TanksInNeed     prometheus.Gauge
	TotalWater      prometheus.Gauge
}

// NewMetrics registers the run metrics against reg, defaulting to the global
// Prometheus registry when nil. Registering twice on the same registry reuses
// the existing collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	events, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tankersim_log_events_total",
		Help: "Number of log events emitted, labeled by kind.",
	}, []string{"kind"}))
	if err != nil {
		return nil, err
	}

	delivered, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tankersim_delivered_liters_total",
		Help: "Liters of water delivered to tanks.",
	}))
	if err != nil {
		return nil, err
	}

	steps, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tankersim_steps_total",
		Help: "Number of simulated steps.",
	}))
	if err != nil {
		return nil, err
	}

	trucks, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tankersim_trucks_available",
		Help: "Trucks at the depot at the end of the last step.",
	}))
	if err != nil {
		return nil, err
	}

	tanks, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tankersim_tanks_in_need",
		Help: "Tanks needing water at the end of the last step.",
	}))
	if err != nil {
		return nil, err
	}

	water, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tankersim_stored_liters",
		Help: "Water stored in all tanks at the end of the last step.",
	}))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		LogEvents:       events,
		DeliveredLiters: delivered,
		Steps:           steps,
		TrucksAvailable: trucks,
		TanksInNeed:     tanks,
		TotalWater:      water,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}

	var zero C

	return zero, fmt.Errorf("registering metric: %w", err)
}

// Positions lists the log event and step end positions.
func (m *Metrics) Positions() []*hooking.HookPos {
	return []*hooking.HookPos{
		simulation.HookPosLogEvent,
		simulation.HookPosStepEnd,
	}
}

// Func updates the metrics.
func (m *Metrics) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case simulation.HookPosLogEvent:
		evt := ctx.Item.(simulation.LogEvent)
		m.LogEvents.WithLabelValues(string(evt.Kind)).Inc()

		if evt.Kind == simulation.LogDelivery && evt.Amount != nil {
			m.DeliveredLiters.Add(*evt.Amount)
		}
	case simulation.HookPosStepEnd:
		s := ctx.Item.(simulation.StepSnapshot)
		m.Steps.Inc()
		m.observe(s)
	}
}

func (m *Metrics) observe(s simulation.StepSnapshot) {
	available, inNeed, water := 0, 0, 0.0

	for _, t := range s.Trucks {
		if t.Available {
			available++
		}
	}

	for _, t := range s.Tanks {
		water += t.CurrentWater
		if t.NeedsWater {
			inNeed++
		}
	}

	m.TrucksAvailable.Set(float64(available))
	m.TanksInNeed.Set(float64(inNeed))
	m.TotalWater.Set(water)
}
