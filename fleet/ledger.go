package fleet

import (
	"fmt"

	"github.com/sarchlab/tankersim/timing"
)

// A Trip is one round trip of a truck: depart from the depot, arrive and
// deliver at the tank, return to the depot.
type Trip struct {
	TruckID     ID                  `json:"truckId"`
	TankID      ID                  `json:"tankId"`
	DepartTime  timing.VTimeInHour  `json:"departTime"`
	ArrivalTime timing.VTimeInHour  `json:"arrivalTime"`
	ReturnTime  *timing.VTimeInHour `json:"returnTime"`
}

// IsOpen tells if the return leg has not been scheduled yet.
func (t Trip) IsOpen() bool {
	return t.ReturnTime == nil
}

func (t Trip) clone() Trip {
	if t.ReturnTime != nil {
		rt := *t.ReturnTime
		t.ReturnTime = &rt
	}

	return t
}

// A Plan maps every truck to its trips in the order they were made.
type Plan map[ID][]Trip

// A Ledger records the trips of every truck. Trips are only appended, and a
// truck has at most one open trip at a time.
type Ledger struct {
	trips map[ID][]*Trip
}

// NewLedger creates a ledger with an empty trip list for each truck.
func NewLedger(trucks ...ID) *Ledger {
	l := &Ledger{trips: make(map[ID][]*Trip, len(trucks))}
	for _, id := range trucks {
		l.trips[id] = nil
	}

	return l
}

// Open starts a new trip. The arrival time is provisional until Close.
func (l *Ledger) Open(
	truck, tank ID,
	depart, arrival timing.VTimeInHour,
) (Trip, error) {
	if _, open := l.OpenTrip(truck); open {
		return Trip{}, fmt.Errorf("fleet: truck %q already has an open trip", truck)
	}

	trip := &Trip{
		TruckID:     truck,
		TankID:      tank,
		DepartTime:  depart,
		ArrivalTime: arrival,
	}
	l.trips[truck] = append(l.trips[truck], trip)

	return *trip, nil
}

// Close confirms the arrival of the truck's open trip and sets its return
// time to arrival plus the tank's travel time. It reports false when the
// truck has no open trip.
func (l *Ledger) Close(
	truck ID,
	arrival timing.VTimeInHour,
	travelTime float64,
) (Trip, bool) {
	trip := l.last(truck)
	if trip == nil || !trip.IsOpen() {
		return Trip{}, false
	}

	returnTime := arrival + timing.VTimeInHour(travelTime)
	trip.ArrivalTime = arrival
	trip.ReturnTime = &returnTime

	return trip.clone(), true
}

// OpenTrip returns the open trip of the truck, if any.
func (l *Ledger) OpenTrip(truck ID) (Trip, bool) {
	trip := l.last(truck)
	if trip == nil || !trip.IsOpen() {
		return Trip{}, false
	}

	return trip.clone(), true
}

// Trips returns copies of the truck's trips.
func (l *Ledger) Trips(truck ID) []Trip {
	trips := l.trips[truck]
	out := make([]Trip, len(trips))

	for i, trip := range trips {
		out[i] = trip.clone()
	}

	return out
}

// Plan returns a copy of the whole ledger.
func (l *Ledger) Plan() Plan {
	plan := make(Plan, len(l.trips))
	for truck := range l.trips {
		plan[truck] = l.Trips(truck)
	}

	return plan
}

func (l *Ledger) last(truck ID) *Trip {
	trips := l.trips[truck]
	if len(trips) == 0 {
		return nil
	}

	return trips[len(trips)-1]
}

// Last returns the most recent trip of the truck, open or not.
func (l *Ledger) Last(truck ID) (Trip, bool) {
	trip := l.last(truck)
	if trip == nil {
		return Trip{}, false
	}

	return trip.clone(), true
}
