package cmd

import (
	"os"

	"github.com/sarchlab/tankersim/monitoring"
	"github.com/sarchlab/tankersim/simulation"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve <result.json>",
	Short: "Serve a saved result on the web monitor.",
	Long: "`serve <result.json>` loads a result written by `run --output` " +
		"and serves it on the web monitor until interrupted.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		result, err := simulation.ReadResult(f)
		if err != nil {
			return err
		}

		m := monitoring.NewMonitor().
			WithLogger(logger).
			WithPortNumber(portFlag(cmd))
		m.SetResult(result)

		return serveUntilInterrupted(cmd, m)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port of the web monitor; 0 picks a free port.")
	serveCmd.Flags().Bool("open", false, "Open the web monitor in a browser.")
}
