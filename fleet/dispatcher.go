package fleet

// An Assignment commits a truck to a tank.
type Assignment struct {
	Truck *Truck
	Tank  *Tank
}

// A Dispatcher pairs available trucks with tanks in need. It updates the
// trucks and tanks it pairs and returns the assignments in the order they were
// made.
type Dispatcher interface {
	Dispatch(tanks *Registry[*Tank], trucks *Registry[*Truck]) []Assignment
}

// GreedyDispatcher walks the trucks in configuration order and gives each
// available truck the first eligible tank in configuration order. Trucks
// always leave fully loaded, whatever the tank's deficit.
type GreedyDispatcher struct{}

// Dispatch runs one greedy pass.
func (GreedyDispatcher) Dispatch(
	tanks *Registry[*Tank],
	trucks *Registry[*Truck],
) []Assignment {
	var assignments []Assignment

	for _, truck := range trucks.All() {
		if !truck.Available {
			continue
		}

		tank := firstEligible(tanks)
		if tank == nil {
			continue
		}

		truck.Load(tank.ID)
		tank.TruckAssigned = true

		assignments = append(assignments, Assignment{Truck: truck, Tank: tank})
	}

	return assignments
}

func firstEligible(tanks *Registry[*Tank]) *Tank {
	for _, tank := range tanks.All() {
		if tank.Eligible() {
			return tank
		}
	}

	return nil
}
