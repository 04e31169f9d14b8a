package simulation

import (
	"fmt"

	"github.com/sarchlab/tankersim/fleet"
	"github.com/sarchlab/tankersim/hooking"
	"github.com/sarchlab/tankersim/idgen"
	"github.com/sarchlab/tankersim/timing"
)

// An Engine runs a scenario. Every call to Run starts from the configuration,
// so the same engine produces the same result each time.
type Engine struct {
	*hooking.HookableBase

	config     Config
	dispatcher fleet.Dispatcher
	newQueue   func() timing.EventQueue
}

// Config returns the scenario the engine runs.
func (e *Engine) Config() Config {
	return e.config
}

// Run simulates the whole horizon and returns one snapshot per step.
func (e *Engine) Run() (*Result, error) {
	r, err := e.newRun()
	if err != nil {
		return nil, err
	}

	e.InvokeHook(hooking.HookCtx{
		Domain: e,
		Pos:    HookPosRunStart,
		Item: Summary{
			TotalSteps: r.clock.NumSteps(),
			TotalTime:  e.config.SimulationHours,
			Tanks:      r.tanks.Len(),
			Trucks:     r.trucks.Len(),
		},
	})

	for {
		w, ok := r.clock.Next()
		if !ok {
			break
		}

		if err := r.step(w); err != nil {
			return nil, fmt.Errorf("step %d: %w", w.Index, err)
		}
	}

	result := r.result()

	e.InvokeHook(hooking.HookCtx{
		Domain: e,
		Pos:    HookPosRunEnd,
		Item:   result.Summary,
		Detail: result,
	})

	return result, nil
}

func (e *Engine) newRun() (*run, error) {
	tanks, err := fleet.NewTankRegistry(e.config.Tanks)
	if err != nil {
		return nil, err
	}

	trucks, err := fleet.NewTruckRegistry(e.config.Trucks)
	if err != nil {
		return nil, err
	}

	truckIDs := make([]fleet.ID, 0, trucks.Len())
	for _, t := range trucks.All() {
		truckIDs = append(truckIDs, t.ID)
	}

	r := &run{
		engine:     e,
		clock:      timing.NewClock(timing.VTimeInHour(e.config.TimeStep), timing.VTimeInHour(e.config.SimulationHours)),
		tanks:      tanks,
		trucks:     trucks,
		queue:      e.newQueue(),
		ledger:     fleet.NewLedger(truckIDs...),
		dispatcher: e.dispatcher,
		logIDs:     idgen.New(),
	}

	return r, nil
}

// run holds the mutable state of one Engine.Run call.
type run struct {
	engine     *Engine
	clock      *timing.Clock
	tanks      *fleet.Registry[*fleet.Tank]
	trucks     *fleet.Registry[*fleet.Truck]
	queue      timing.EventQueue
	ledger     *fleet.Ledger
	dispatcher fleet.Dispatcher
	logIDs     idgen.Generator

	log []LogEvent
	// Index into log of the first event emitted by the previous step.
	prevStepLog int
	steps       []StepSnapshot
}

func (r *run) step(w timing.Window) error {
	stepLog := len(r.log)

	if err := r.queue.Drain(w, r); err != nil {
		return err
	}

	r.consume(w.Start)

	if err := r.dispatch(w.Start); err != nil {
		return err
	}

	snapshot := r.snapshot(w)
	r.steps = append(r.steps, snapshot)
	r.prevStepLog = stepLog

	if r.engine.Listens(HookPosStepEnd) {
		r.invoke(HookPosStepEnd, snapshot.Clone())
	}

	return nil
}

// Handle applies one due event.
func (r *run) Handle(evt *timing.ScheduledEvent) error {
	r.invoke(HookPosBeforeEvent, *evt)

	var err error

	switch e := evt.Event.(type) {
	case *ArriveAtTank:
		err = r.arrive(evt.Time, e)
	case *ReturnToDepot:
		err = r.returnToDepot(evt.Time, e)
	default:
		return fmt.Errorf("unknown event type: %T", e)
	}

	if err != nil {
		return err
	}

	r.invoke(HookPosAfterEvent, *evt)

	return nil
}

func (r *run) arrive(now timing.VTimeInHour, e *ArriveAtTank) error {
	truck, err := r.truck(e.TruckID)
	if err != nil {
		return err
	}

	tank, err := r.tank(e.TankID)
	if err != nil {
		return err
	}

	delivered := truck.Unload(tank)
	r.emit(LogEvent{
		Time:    now,
		Kind:    LogDelivery,
		Message: deliveryMessage(truck, tank, delivered),
		TruckID: truck.ID,
		TankID:  tank.ID,
		Amount:  &delivered,
	})

	if trip, ok := r.ledger.Close(truck.ID, now, tank.TravelTime); ok {
		r.invoke(HookPosTripArrive, trip)
	}

	r.queue.Schedule(
		now+timing.VTimeInHour(tank.TravelTime),
		&ReturnToDepot{TruckID: truck.ID},
	)

	return nil
}

func (r *run) returnToDepot(now timing.VTimeInHour, e *ReturnToDepot) error {
	truck, err := r.truck(e.TruckID)
	if err != nil {
		return err
	}

	truck.Release()
	r.emit(LogEvent{
		Time:    now,
		Kind:    LogReturn,
		Message: returnMessage(truck),
		TruckID: truck.ID,
	})

	if trip, ok := r.ledger.Last(truck.ID); ok {
		r.invoke(HookPosTripReturn, trip)
	}

	return nil
}

func (r *run) consume(now timing.VTimeInHour) {
	for _, tank := range r.tanks.All() {
		tank.Consume()

		if tank.DetectNeed(now) {
			r.emit(LogEvent{
				Time:    now,
				Kind:    LogRequest,
				Message: requestMessage(tank),
				TankID:  tank.ID,
			})
		}
	}
}

func (r *run) dispatch(now timing.VTimeInHour) error {
	for _, a := range r.dispatcher.Dispatch(r.tanks, r.trucks) {
		// Trucks leave at the window start. A travel time shorter than the
		// step puts the arrival inside the window that has already been
		// drained, so that truck never arrives.
		arrival := now + timing.VTimeInHour(a.Tank.TravelTime)

		trip, err := r.ledger.Open(a.Truck.ID, a.Tank.ID, now, arrival)
		if err != nil {
			return err
		}

		r.queue.Schedule(arrival, &ArriveAtTank{
			TruckID: a.Truck.ID,
			TankID:  a.Tank.ID,
		})

		r.emit(LogEvent{
			Time:    now,
			Kind:    LogDispatch,
			Message: dispatchMessage(a.Truck, a.Tank),
			TruckID: a.Truck.ID,
			TankID:  a.Tank.ID,
		})

		r.invoke(HookPosTripStart, trip)
	}

	return nil
}

func (r *run) emit(evt LogEvent) {
	evt.Seq = r.logIDs.Generate()
	r.log = append(r.log, evt)

	if r.engine.Listens(HookPosLogEvent) {
		r.invoke(HookPosLogEvent, evt.Clone())
	}
}

func (r *run) snapshot(w timing.Window) StepSnapshot {
	s := StepSnapshot{
		Index:  w.Index,
		Time:   w.Start,
		Tanks:  make([]TankState, 0, r.tanks.Len()),
		Trucks: make([]TruckState, 0, r.trucks.Len()),
		Events: make([]LogEvent, 0),
	}

	for _, t := range r.tanks.All() {
		s.Tanks = append(s.Tanks, tankState(t))
	}

	for _, t := range r.trucks.All() {
		s.Trucks = append(s.Trucks, truckState(t))
	}

	// Events logged before the previous step lie before its window, so they
	// cannot fall in this one.
	for _, e := range r.log[r.prevStepLog:] {
		if w.Contains(e.Time) {
			s.Events = append(s.Events, e.Clone())
		}
	}

	return s
}

func (r *run) result() *Result {
	return &Result{
		Steps: r.steps,
		Summary: Summary{
			TotalSteps:  len(r.steps),
			TotalTime:   r.engine.config.SimulationHours,
			Tanks:       r.tanks.Len(),
			Trucks:      r.trucks.Len(),
			TotalEvents: len(r.log),
		},
		Plan: r.ledger.Plan(),
	}
}

func (r *run) truck(id fleet.ID) (*fleet.Truck, error) {
	truck, ok := r.trucks.Get(id)
	if !ok {
		return nil, fmt.Errorf("unknown truck %q", id)
	}

	return truck, nil
}

func (r *run) tank(id fleet.ID) (*fleet.Tank, error) {
	tank, ok := r.tanks.Get(id)
	if !ok {
		return nil, fmt.Errorf("unknown tank %q", id)
	}

	return tank, nil
}

func (r *run) invoke(pos *hooking.HookPos, item any) {
	if !r.engine.Listens(pos) {
		return
	}

	r.engine.InvokeHook(hooking.HookCtx{
		Domain: r.engine,
		Pos:    pos,
		Item:   item,
	})
}
