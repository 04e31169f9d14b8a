package cmd

import (
	"github.com/sarchlab/tankersim/simulation"
	"github.com/spf13/cobra"
)

var exampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print the built-in example scenario.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("format")

		return simulation.WriteConfig(cmd.OutOrStdout(),
			simulation.DefaultConfig(), format)
	},
}

func init() {
	rootCmd.AddCommand(exampleCmd)

	exampleCmd.Flags().String("format", "json", "Output format: json or yaml.")
}
