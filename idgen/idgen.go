// Package idgen provides deterministic ID generators for simulation runs.
// Each run owns its generators, so two runs over the same configuration emit
// the same IDs.
package idgen

import (
	"strconv"
	"sync"
	"sync/atomic"
)

// ID is a unique identifier represented as a uint64.
type ID uint64

// String renders the ID in decimal.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Generator produces unique identifiers.
type Generator interface {
	Generate() ID
}

// New returns a sequential generator whose first emitted ID is 1.
func New() Generator {
	return &sequentialGenerator{}
}

type sequentialGenerator struct {
	last uint64
}

func (g *sequentialGenerator) Generate() ID {
	return ID(atomic.AddUint64(&g.last, 1))
}

// Sequences numbers things per key, such as the trips of each truck. Every
// key starts at 1.
type Sequences[K comparable] struct {
	mu   sync.Mutex
	last map[K]ID
}

// NewSequences returns an empty set of sequences.
func NewSequences[K comparable]() *Sequences[K] {
	return &Sequences[K]{last: make(map[K]ID)}
}

// Next advances the sequence of key and returns its new value.
func (s *Sequences[K]) Next(key K) ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last[key]++

	return s.last[key]
}

// Current returns the last value handed out for key, or 0 if none was.
func (s *Sequences[K]) Current(key K) ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.last[key]
}

// Reset forgets every key.
func (s *Sequences[K]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.last)
}
