package fleet

import "fmt"

// Keyed is anything that can be stored in a Registry.
type Keyed interface {
	Key() ID
}

// A Registry keeps items in configuration order and indexes them by ID.
type Registry[T Keyed] struct {
	items []T
	index map[ID]int
}

// NewRegistry creates a registry holding items in the given order. Duplicated
// IDs are rejected.
func NewRegistry[T Keyed](items ...T) (*Registry[T], error) {
	r := &Registry[T]{
		items: make([]T, 0, len(items)),
		index: make(map[ID]int, len(items)),
	}

	for _, item := range items {
		if _, exists := r.index[item.Key()]; exists {
			return nil, fmt.Errorf("fleet: duplicated id %q", item.Key())
		}

		r.index[item.Key()] = len(r.items)
		r.items = append(r.items, item)
	}

	return r, nil
}

// Len returns the number of items.
func (r *Registry[T]) Len() int {
	return len(r.items)
}

// At returns the i-th item in configuration order.
func (r *Registry[T]) At(i int) T {
	return r.items[i]
}

// Get returns the item with the given ID.
func (r *Registry[T]) Get(id ID) (T, bool) {
	i, ok := r.index[id]
	if !ok {
		var zero T
		return zero, false
	}

	return r.items[i], true
}

// All returns the items in configuration order. The slice must not be
// modified.
func (r *Registry[T]) All() []T {
	return r.items
}

// NewTankRegistry creates the tanks of a run from their configuration.
func NewTankRegistry(specs []TankSpec) (*Registry[*Tank], error) {
	tanks := make([]*Tank, 0, len(specs))
	for _, spec := range specs {
		tanks = append(tanks, NewTank(spec))
	}

	return NewRegistry(tanks...)
}

// NewTruckRegistry creates the trucks of a run from their configuration.
func NewTruckRegistry(specs []TruckSpec) (*Registry[*Truck], error) {
	trucks := make([]*Truck, 0, len(specs))
	for _, spec := range specs {
		trucks = append(trucks, NewTruck(spec))
	}

	return NewRegistry(trucks...)
}
