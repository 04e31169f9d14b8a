package simulation

import (
	"slices"

	"github.com/sarchlab/tankersim/fleet"
	"github.com/sarchlab/tankersim/timing"
)

// TankState is the state of a tank at the end of a step.
type TankState struct {
	ID               fleet.ID            `json:"id"`
	Capacity         float64             `json:"capacity"`
	CurrentWater     float64             `json:"currentWater"`
	Consumption      float64             `json:"consumption"`
	TravelTime       float64             `json:"travelTime"`
	MaintenanceLevel float64             `json:"maintenanceLevel"`
	NeedsWater       bool                `json:"needsWater"`
	TruckAssigned    bool                `json:"truckAssigned"`
	RequestedTime    *timing.VTimeInHour `json:"requestedTime"`
	Percentage       float64             `json:"percentage"`
}

func tankState(t *fleet.Tank) TankState {
	s := TankState{
		ID:               t.ID,
		Capacity:         t.Capacity,
		CurrentWater:     t.CurrentWater,
		Consumption:      t.Consumption,
		TravelTime:       t.TravelTime,
		MaintenanceLevel: t.MaintenanceLevel,
		NeedsWater:       t.NeedsWater,
		TruckAssigned:    t.TruckAssigned,
		Percentage:       t.Percentage(),
	}

	if t.RequestedTime != nil {
		rt := *t.RequestedTime
		s.RequestedTime = &rt
	}

	return s
}

// TruckState is the state of a truck at the end of a step.
type TruckState struct {
	ID           fleet.ID  `json:"id"`
	Capacity     float64   `json:"capacity"`
	Available    bool      `json:"available"`
	CurrentWater float64   `json:"currentWater"`
	TargetTank   *fleet.ID `json:"targetTank"`
	Status       string    `json:"status"`
}

func truckState(t *fleet.Truck) TruckState {
	s := TruckState{
		ID:           t.ID,
		Capacity:     t.Capacity,
		Available:    t.Available,
		CurrentWater: t.CurrentWater,
		Status:       t.Status(),
	}

	if t.TargetTank != nil {
		s.TargetTank = fleet.IDPtr(*t.TargetTank)
	}

	return s
}

// A StepSnapshot captures the fleet after a step and the log events whose
// time lies in the step window.
type StepSnapshot struct {
	Index  int                `json:"index"`
	Time   timing.VTimeInHour `json:"time"`
	Tanks  []TankState        `json:"tanks"`
	Trucks []TruckState       `json:"trucks"`
	Events []LogEvent         `json:"events"`
}

// Clone returns a deep copy of the snapshot.
func (s StepSnapshot) Clone() StepSnapshot {
	c := s
	c.Tanks = slices.Clone(s.Tanks)
	c.Trucks = slices.Clone(s.Trucks)
	c.Events = make([]LogEvent, len(s.Events))

	for i := range c.Tanks {
		if rt := c.Tanks[i].RequestedTime; rt != nil {
			v := *rt
			c.Tanks[i].RequestedTime = &v
		}
	}

	for i := range c.Trucks {
		if tt := c.Trucks[i].TargetTank; tt != nil {
			c.Trucks[i].TargetTank = fleet.IDPtr(*tt)
		}
	}

	for i, e := range s.Events {
		c.Events[i] = e.Clone()
	}

	return c
}

// Tank finds the state of a tank by ID.
func (s StepSnapshot) Tank(id fleet.ID) (TankState, bool) {
	for _, t := range s.Tanks {
		if t.ID == id {
			return t, true
		}
	}

	return TankState{}, false
}

// Truck finds the state of a truck by ID.
func (s StepSnapshot) Truck(id fleet.ID) (TruckState, bool) {
	for _, t := range s.Trucks {
		if t.ID == id {
			return t, true
		}
	}

	return TruckState{}, false
}
