// Package cmd provides the command-line interface of tankersim.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// Environment variables that provide flag defaults. They can also be set in a
// .env file in the working directory.
const (
	envLogLevel    = "TANKERSIM_LOG_LEVEL"
	envLogFormat   = "TANKERSIM_LOG_FORMAT"
	envMonitorPort = "TANKERSIM_MONITOR_PORT"
	envRecord      = "TANKERSIM_RECORD"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "tankersim",
})

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tankersim",
	Short: "Tankersim simulates water trucks refilling consumer tanks.",
	Long: `Tankersim runs a stepped simulation of a fleet of water trucks ` +
		`that serve consumer tanks from a single depot. It reports the ` +
		`state of every tank and truck at each step, a log of requests, ` +
		`dispatches, deliveries and returns, and the trips of each truck.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadEnv(".env"); err != nil {
			return err
		}

		applyEnvDefaults(cmd)

		return configureLogger(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info",
		"Log level: debug, info, warn or error.")
	rootCmd.PersistentFlags().String("log-format", "text",
		"Log format: text, logfmt or json.")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func loadEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("loading %s: %w", path, err)
}

func applyEnvDefaults(cmd *cobra.Command) {
	defaults := map[string]string{
		"log-level":  envLogLevel,
		"log-format": envLogFormat,
		"port":       envMonitorPort,
		"record":     envRecord,
	}

	for flagName, envName := range defaults {
		flag := cmd.Flags().Lookup(flagName)
		if flag == nil || flag.Changed {
			continue
		}

		if value, ok := os.LookupEnv(envName); ok {
			if err := flag.Value.Set(value); err != nil {
				logger.Warn("ignoring environment variable",
					"name", envName, "err", err)
			}
		}
	}
}

func configureLogger(cmd *cobra.Command) error {
	levelName, _ := cmd.Flags().GetString("log-level")

	level, err := log.ParseLevel(levelName)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("log-format")

	formatter, err := parseFormatter(format)
	if err != nil {
		return err
	}

	logger.SetLevel(level)
	logger.SetFormatter(formatter)
	logger.SetOutput(cmd.ErrOrStderr())

	return nil
}

func parseFormatter(name string) (log.Formatter, error) {
	switch name {
	case "text":
		return log.TextFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	default:
		return 0, fmt.Errorf("unknown log format %q", name)
	}
}

func outputOrFile(w io.Writer, path string) (io.Writer, func() error, error) {
	if path == "-" {
		return w, func() error { return nil }, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}

	return f, f.Close, nil
}

func portFlag(cmd *cobra.Command) int {
	port, _ := cmd.Flags().GetInt("port")
	return port
}
