// Package simulation runs the water supply simulation: it steps the clock,
// applies due events, lets the tanks consume water, dispatches trucks, and
// assembles one snapshot per step.
package simulation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/sarchlab/tankersim/fleet"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every configuration validation error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the input of a run. Times are in hours and water amounts in
// liters; tank consumption is in liters per step.
type Config struct {
	TimeStep        float64           `json:"timeStep" yaml:"timeStep"`
	SimulationHours float64           `json:"simulationHours" yaml:"simulationHours"`
	Tanks           []fleet.TankSpec  `json:"tanks" yaml:"tanks"`
	Trucks          []fleet.TruckSpec `json:"trucks" yaml:"trucks"`
}

// DefaultConfig returns a one-tank, one-truck scenario over a day.
func DefaultConfig() Config {
	return Config{
		TimeStep:        1,
		SimulationHours: 24,
		Tanks: []fleet.TankSpec{{
			ID:               "1",
			Capacity:         1000,
			CurrentWater:     800,
			Consumption:      50,
			TravelTime:       2,
			MaintenanceLevel: 200,
		}},
		Trucks: []fleet.TruckSpec{{ID: "1", Capacity: 500}},
	}
}

// Validate checks the preconditions the engine relies on. All problems are
// reported together.
func (c Config) Validate() error {
	var problems []error

	if !positive(c.TimeStep) {
		problems = append(problems, fmt.Errorf("timeStep must be positive, got %v", c.TimeStep))
	}

	if !positive(c.SimulationHours) {
		problems = append(problems,
			fmt.Errorf("simulationHours must be positive, got %v", c.SimulationHours))
	}

	problems = append(problems, validateTanks(c.Tanks)...)
	problems = append(problems, validateTrucks(c.Trucks)...)

	if len(problems) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(problems...))
}

func validateTanks(tanks []fleet.TankSpec) []error {
	var problems []error

	seen := make(map[fleet.ID]bool, len(tanks))
	for i, t := range tanks {
		where := fmt.Sprintf("tanks[%d]", i)

		if t.ID == "" {
			problems = append(problems, fmt.Errorf("%s: id must not be empty", where))
		} else if seen[t.ID] {
			problems = append(problems, fmt.Errorf("%s: duplicated id %q", where, t.ID))
		}
		seen[t.ID] = true

		if !positive(t.Capacity) {
			problems = append(problems,
				fmt.Errorf("%s: capacity must be positive, got %v", where, t.Capacity))
		}

		fields := []struct {
			name  string
			value float64
		}{
			{"currentWater", t.CurrentWater},
			{"consumption", t.Consumption},
			{"travelTime", t.TravelTime},
			{"maintenanceLevel", t.MaintenanceLevel},
		}
		for _, f := range fields {
			if !nonNegative(f.value) {
				problems = append(problems,
					fmt.Errorf("%s: %s must not be negative, got %v", where, f.name, f.value))
			}
		}
	}

	return problems
}

func validateTrucks(trucks []fleet.TruckSpec) []error {
	var problems []error

	seen := make(map[fleet.ID]bool, len(trucks))
	for i, t := range trucks {
		where := fmt.Sprintf("trucks[%d]", i)

		if t.ID == "" {
			problems = append(problems, fmt.Errorf("%s: id must not be empty", where))
		} else if seen[t.ID] {
			problems = append(problems, fmt.Errorf("%s: duplicated id %q", where, t.ID))
		}
		seen[t.ID] = true

		if !positive(t.Capacity) {
			problems = append(problems,
				fmt.Errorf("%s: capacity must be positive, got %v", where, t.Capacity))
		}
	}

	return problems
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

// LoadConfig reads a scenario file. Files ending in .yaml or .yml are read as
// YAML, everything else as JSON.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("opening scenario: %w", err)
	}
	defer f.Close()

	cfg, err := ReadConfig(f, formatOf(path))
	if err != nil {
		return Config{}, fmt.Errorf("reading scenario %s: %w", path, err)
	}

	return cfg, nil
}

// ReadConfig decodes a scenario in the given format, "json" or "yaml".
func ReadConfig(r io.Reader, format string) (Config, error) {
	var cfg Config

	switch format {
	case "json":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, err
		}
	case "yaml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("unknown scenario format %q", format)
	}

	return cfg, nil
}

// WriteConfig encodes a scenario in the given format, "json" or "yaml".
func WriteConfig(w io.Writer, cfg Config, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown scenario format %q", format)
	}
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}
