package fleet

// TruckSpec is the configuration of a truck.
type TruckSpec struct {
	ID       ID      `json:"id" yaml:"id"`
	Capacity float64 `json:"capacity" yaml:"capacity"`
}

// A Truck carries water from the depot to one tank at a time.
type Truck struct {
	TruckSpec

	Available    bool
	CurrentWater float64
	TargetTank   *ID
}

// NewTruck creates an idle, empty truck at the depot.
func NewTruck(spec TruckSpec) *Truck {
	return &Truck{
		TruckSpec: spec,
		Available: true,
	}
}

// Key returns the truck ID.
func (t *Truck) Key() ID {
	return t.ID
}

// Load fills the truck to its capacity and commits it to the tank.
func (t *Truck) Load(tank ID) {
	t.Available = false
	t.CurrentWater = t.Capacity
	t.TargetTank = &tank
}

// Unload hands the carried water to the tank and returns the delivered
// amount.
func (t *Truck) Unload(tank *Tank) float64 {
	delivered := tank.Receive(t.CurrentWater)
	t.CurrentWater -= delivered

	return delivered
}

// Release puts the truck back at the depot, empty and available.
func (t *Truck) Release() {
	t.Available = true
	t.CurrentWater = 0
	t.TargetTank = nil
}

// Status names the state of the truck for presentation.
func (t *Truck) Status() string {
	if t.Available {
		return "available"
	}

	return "transporting"
}
