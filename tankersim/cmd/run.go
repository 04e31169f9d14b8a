package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sarchlab/tankersim/datarecording"
	"github.com/sarchlab/tankersim/monitoring"
	"github.com/sarchlab/tankersim/simulation"
	"github.com/sarchlab/tankersim/tracing"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [scenario]",
	Short: "Run a scenario.",
	Long: "`run [scenario]` runs the scenario in the given JSON or YAML " +
		"file, or the built-in example when no file is given.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadScenario(args)
		if err != nil {
			return err
		}

		return runScenario(cmd, cfg)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.StringP("output", "o", "",
		"Write the result as JSON to this file, or to stdout with -.")
	flags.String("record", "",
		"Record events, samples and trips into this SQLite database "+
			"(without the .sqlite3 extension).")
	flags.String("trace-csv", "",
		"Write the trips into this CSV file (without the .csv extension).")
	flags.String("trace-json", "",
		"Write the trips into this JSON file (without the .json extension).")
	flags.Bool("time-ordered", false,
		"Apply due events in time order instead of insertion order.")
	flags.Bool("monitor", false,
		"Serve the result on a web monitor until interrupted.")
	flags.Int("port", 0, "Port of the web monitor; 0 picks a free port.")
	flags.Bool("open", false, "Open the web monitor in a browser.")
}

func loadScenario(args []string) (simulation.Config, error) {
	if len(args) == 0 {
		return simulation.DefaultConfig(), nil
	}

	return simulation.LoadConfig(args[0])
}

// runner holds what a run writes to besides the result.
type runner struct {
	builder simulation.Builder
	tracers []tracing.Tracer
	closers []func() error
	monitor *monitoring.Monitor
}

func (r *runner) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			logger.Error("closing output", "err", err)
		}
	}
}

func runScenario(cmd *cobra.Command, cfg simulation.Config) error {
	r := &runner{
		builder: simulation.MakeBuilder().
			WithConfig(cfg).
			WithHook(simulation.NewEventLogger(logger)),
	}
	defer r.close()

	if timeOrdered, _ := cmd.Flags().GetBool("time-ordered"); timeOrdered {
		r.builder = r.builder.WithTimeOrderedEvents()
	}

	if err := r.setupRecording(cmd); err != nil {
		return err
	}

	if err := r.setupTracing(cmd); err != nil {
		return err
	}

	if err := r.setupMonitor(cmd); err != nil {
		return err
	}

	engine, err := r.builder.Build()
	if err != nil {
		return err
	}

	for _, t := range r.tracers {
		tracing.CollectTrace(engine, t)
	}

	result, err := engine.Run()
	if err != nil {
		return err
	}

	if err := writeResult(cmd, result); err != nil {
		return err
	}

	if r.monitor == nil {
		return nil
	}

	r.monitor.SetResult(result)

	return serveUntilInterrupted(cmd, r.monitor)
}

func (r *runner) setupRecording(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("record")
	if path == "" {
		return nil
	}

	recorder, err := datarecording.New(path)
	if err != nil {
		return err
	}

	r.builder = r.builder.WithDataRecorder(recorder)
	r.tracers = append(r.tracers, tracing.NewDBTracer(recorder))
	r.closers = append(r.closers, recorder.Close)

	logger.Info("recording run", "database", path+".sqlite3")

	return nil
}

func (r *runner) setupTracing(cmd *cobra.Command) error {
	if path, _ := cmd.Flags().GetString("trace-csv"); path != "" {
		w := tracing.NewCSVTraceWriter(path)
		if err := w.Init(); err != nil {
			return err
		}

		r.tracers = append(r.tracers, tracing.NewBufferedTracer(w, nil))
		r.closers = append(r.closers, w.Close)

		logger.Info("tracing trips", "file", w.Filename())
	}

	if path, _ := cmd.Flags().GetString("trace-json"); path != "" {
		t, filename, err := tracing.NewJSONFileTracer(path)
		if err != nil {
			return err
		}

		r.tracers = append(r.tracers, t)

		logger.Info("tracing trips", "file", filename)
	}

	return nil
}

func (r *runner) setupMonitor(cmd *cobra.Command) error {
	if enabled, _ := cmd.Flags().GetBool("monitor"); !enabled {
		return nil
	}

	reg := prometheus.NewRegistry()

	metrics, err := monitoring.NewMetrics(reg)
	if err != nil {
		return err
	}

	r.monitor = monitoring.NewMonitor().
		WithLogger(logger).
		WithPortNumber(portFlag(cmd)).
		WithGatherer(reg)

	r.builder = r.builder.
		WithHook(metrics).
		WithHook(monitoring.NewProgressBarHook(r.monitor, "tankersim"))

	return nil
}

func writeResult(cmd *cobra.Command, result *simulation.Result) error {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		printSummary(cmd, result.Summary)
		return nil
	}

	w, closeFn, err := outputOrFile(cmd.OutOrStdout(), path)
	if err != nil {
		return err
	}

	if err := result.WriteJSON(w); err != nil {
		closeFn()
		return err
	}

	return closeFn()
}

func printSummary(cmd *cobra.Command, s simulation.Summary) {
	fmt.Fprintf(cmd.OutOrStdout(),
		"steps: %d\nhours: %g\ntanks: %d\ntrucks: %d\nevents: %d\n",
		s.TotalSteps, s.TotalTime, s.Tanks, s.Trucks, s.TotalEvents)
}

func serveUntilInterrupted(cmd *cobra.Command, m *monitoring.Monitor) error {
	url, err := m.StartServer()
	if err != nil {
		return err
	}

	if open, _ := cmd.Flags().GetBool("open"); open {
		if err := browser.OpenURL(url); err != nil {
			logger.Warn("cannot open browser", "url", url, "err", err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("serving monitor, press Ctrl+C to stop", "url", url)
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return m.StopServer(shutdownCtx)
}
