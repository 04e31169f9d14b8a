package cmd

import (
	"fmt"

	"github.com/sarchlab/tankersim/simulation"
	"github.com/sarchlab/tankersim/timing"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <scenario>",
	Short: "Check a scenario file without running it.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := simulation.LoadConfig(args[0])
		if err != nil {
			return err
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(),
			"%s: %d tanks, %d trucks, %d steps\n",
			args[0], len(cfg.Tanks), len(cfg.Trucks),
			timing.NumSteps(
				timing.VTimeInHour(cfg.SimulationHours),
				timing.VTimeInHour(cfg.TimeStep)))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
