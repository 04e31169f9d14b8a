package fleet

import "github.com/sarchlab/tankersim/timing"

// TankSpec is the configuration of a tank.
type TankSpec struct {
	ID               ID      `json:"id" yaml:"id"`
	Capacity         float64 `json:"capacity" yaml:"capacity"`
	CurrentWater     float64 `json:"currentWater" yaml:"currentWater"`
	Consumption      float64 `json:"consumption" yaml:"consumption"`
	TravelTime       float64 `json:"travelTime" yaml:"travelTime"`
	MaintenanceLevel float64 `json:"maintenanceLevel" yaml:"maintenanceLevel"`
}

// A Tank is a consumer tank. Water levels are in liters, consumption is in
// liters per step, and travel time is in hours for a single leg between the
// depot and the tank.
type Tank struct {
	TankSpec

	NeedsWater    bool
	RequestedTime *timing.VTimeInHour
	TruckAssigned bool
}

// NewTank creates a tank from its configuration. The initial level is clamped
// to [0, Capacity].
func NewTank(spec TankSpec) *Tank {
	t := &Tank{TankSpec: spec}
	t.CurrentWater = min(max(t.CurrentWater, 0), t.Capacity)

	return t
}

// Key returns the tank ID.
func (t *Tank) Key() ID {
	return t.ID
}

// Consume removes one step worth of water. The level never drops below zero
// and the shortfall is dropped silently.
func (t *Tank) Consume() {
	t.CurrentWater = max(0, t.CurrentWater-t.Consumption)
}

// ProjectedWater is the level after one more step of consumption from the
// current level. It may be negative.
func (t *Tank) ProjectedWater() float64 {
	return t.CurrentWater - t.Consumption
}

// DetectNeed raises the need flag when the current or the projected level is
// below the maintenance level and the flag is not raised yet. It reports
// whether the flag was raised by this call. Lookahead alone never clears the
// flag; only a delivery does.
func (t *Tank) DetectNeed(now timing.VTimeInHour) bool {
	if t.NeedsWater {
		return false
	}

	willBeBelow := t.ProjectedWater() < t.MaintenanceLevel
	alreadyBelow := t.CurrentWater < t.MaintenanceLevel

	if !willBeBelow && !alreadyBelow {
		return false
	}

	t.NeedsWater = true
	t.RequestedTime = &now
	t.TruckAssigned = false

	return true
}

// Receive adds at most amount liters, limited by the free space of the tank,
// and returns how much was taken. Reaching the maintenance level clears the
// need flag; the assignment flag is always cleared.
func (t *Tank) Receive(amount float64) float64 {
	taken := min(amount, t.Capacity-t.CurrentWater)
	t.CurrentWater += taken

	if t.CurrentWater >= t.MaintenanceLevel {
		t.NeedsWater = false
	}
	t.TruckAssigned = false

	return taken
}

// Percentage returns the fill level in percent of the capacity.
func (t *Tank) Percentage() float64 {
	return t.CurrentWater / t.Capacity * 100
}

// Eligible tells if the tank needs water and no truck is committed to it.
func (t *Tank) Eligible() bool {
	return t.NeedsWater && !t.TruckAssigned
}
