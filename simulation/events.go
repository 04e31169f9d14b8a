package simulation

import "github.com/sarchlab/tankersim/fleet"

// ArriveAtTank is scheduled at dispatch for the provisional arrival time of a
// truck at its target tank.
type ArriveAtTank struct {
	TruckID fleet.ID
	TankID  fleet.ID
}

// ReturnToDepot is scheduled when a truck has delivered, for the time it gets
// back to the depot.
type ReturnToDepot struct {
	TruckID fleet.ID
}
