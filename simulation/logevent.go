package simulation

import (
	"fmt"

	"github.com/sarchlab/tankersim/fleet"
	"github.com/sarchlab/tankersim/idgen"
	"github.com/sarchlab/tankersim/timing"
)

// LogKind tells what a log event is about.
type LogKind string

// The kinds of log events a run emits.
const (
	LogRequest  LogKind = "request"
	LogDispatch LogKind = "dispatch"
	LogDelivery LogKind = "delivery"
	LogReturn   LogKind = "return"
)

// LogKinds lists every kind in the order they occur within one trip.
var LogKinds = []LogKind{LogRequest, LogDispatch, LogDelivery, LogReturn}

// ParseLogKind converts a kind name into a LogKind.
func ParseLogKind(s string) (LogKind, error) {
	for _, k := range LogKinds {
		if string(k) == s {
			return k, nil
		}
	}

	return "", fmt.Errorf("unknown log kind %q", s)
}

// A LogEvent is a human-readable record of something that happened in the
// run. Seq follows emission order.
type LogEvent struct {
	Seq     idgen.ID           `json:"seq"`
	Time    timing.VTimeInHour `json:"time"`
	Kind    LogKind            `json:"type"`
	Message string             `json:"message"`
	TruckID fleet.ID           `json:"truckId,omitempty"`
	TankID  fleet.ID           `json:"tankId,omitempty"`
	Amount  *float64           `json:"amount,omitempty"`
}

// Clone returns a copy that shares no memory with e.
func (e LogEvent) Clone() LogEvent {
	if e.Amount != nil {
		amount := *e.Amount
		e.Amount = &amount
	}

	return e
}

func requestMessage(tank *fleet.Tank) string {
	level := max(tank.ProjectedWater(), tank.CurrentWater)

	return fmt.Sprintf("Tank #%s requested water (%.1fL < %gL)",
		tank.ID, level, tank.MaintenanceLevel)
}

func dispatchMessage(truck *fleet.Truck, tank *fleet.Tank) string {
	return fmt.Sprintf("Truck #%s dispatched to Tank #%s (travel time %gh)",
		truck.ID, tank.ID, tank.TravelTime)
}

func deliveryMessage(truck *fleet.Truck, tank *fleet.Tank, amount float64) string {
	return fmt.Sprintf("Truck #%s delivered %.1fL to Tank #%s",
		truck.ID, amount, tank.ID)
}

func returnMessage(truck *fleet.Truck) string {
	return fmt.Sprintf("Truck #%s returned to the depot", truck.ID)
}
