package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/pidlab/internal/automation"
	"github.com/san-kum/pidlab/internal/chart"
	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/export"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/optim"
	"github.com/san-kum/pidlab/internal/session"
	"github.com/san-kum/pidlab/internal/storage"
)

var (
	scriptFile string
	runName    string
	pngFile    string
	noSave     bool

	sweepKind  string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	trials       int
	perturbation float64
	seed         int64

	tuneParams []string
	tuneMetric string
)

func headlessCommands() []*cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate without a clock and save the run",
		RunE:  runHeadless,
	}
	addSessionFlags(runCmd)
	runCmd.Flags().StringVar(&scriptFile, "script", "", "YAML event script to replay")
	runCmd.Flags().StringVar(&runName, "name", "", "run name")
	runCmd.Flags().StringVar(&pngFile, "png", "", "also save the chart as a PNG")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run once per value of a gain or setpoint",
		RunE:  runSweep,
	}
	addSessionFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepKind, "param", "kp", "event kind to sweep (kp, ki, kd, setpoint, bias)")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 200, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 11, "number of values")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "count stable runs under perturbed initial conditions",
		RunE:  runMonteCarlo,
	}
	addSessionFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturbation, "perturb", 5, "max perturbation of position and velocity")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search gains against a metric",
		Example: "  pidlab tune --grid kp=0:200:10 --grid kd=0:100:5\n" +
			"  pidlab tune --preset biased --grid ki=0:50:5 --metric iae",
		RunE: runTune,
	}
	addSessionFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&tuneParams, "grid", []string{"kp=0:200:20", "kd=0:100:10"}, "kind=min:max:step axis")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "iae", "metric to optimise ("+strings.Join(metrics.Names(), ", ")+")")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSCENARIO\tKP\tKI\tKD\tBIAS")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\t%g\n",
					name, p.Scenario, p.Gains.Kp, p.Gains.Ki, p.Gains.Kd, p.Initial.Bias)
			}
			return w.Flush()
		},
	}

	return []*cobra.Command{runCmd, sweepCmd, monteCarloCmd, tuneCmd, presetsCmd}
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var plan session.Plan
	n := cfg.Ticks
	name := runName
	if scriptFile != "" {
		script, err := automation.LoadScript(scriptFile)
		if err != nil {
			return err
		}
		if plan, err = script.Plan(); err != nil {
			return err
		}
		if !cmd.Flags().Changed("ticks") {
			n = script.Ticks
		}
		if name == "" {
			name = script.Name
		}
	}

	observers, stop, err := startTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer stop()

	initial := cfg.InitialState()
	rec := storage.NewRecorder(n)
	ms := metrics.Defaults()
	observers = append(observers, rec.Observe, func(e session.Event, s control.State) {
		if _, ok := e.(session.Tick); !ok {
			return
		}
		for _, m := range ms {
			m.Observe(s)
		}
	})

	final, err := session.Simulate(ctx, initial, n, plan, observers...)
	if err != nil {
		return err
	}

	values := metrics.Collect(ms)
	fmt.Printf("scenario %s, %d ticks (%.2fs)\n", initial.Scenario, n, float64(n)*control.Dt)
	fmt.Printf("final position: %s  target: %.2f\n", formatValue(final.Position), final.Target())
	for _, m := range metrics.Names() {
		fmt.Printf("  %-15s %s\n", m, formatValue(values[m]))
	}

	points := chart.Compose(final.History, final.SetpointHistory)
	if plot := chart.Render(points, chartOptions(cfg)); plot != "" {
		fmt.Println()
		fmt.Println(plot)
	}

	if pngFile != "" {
		title := fmt.Sprintf("%s kp=%g ki=%g kd=%g", initial.Scenario, initial.Kp, initial.Ki, initial.Kd)
		if err := export.SavePNG(storage.ChartPoints(rec.Samples()), title, pngFile, 8, 4); err != nil {
			return err
		}
		fmt.Printf("chart saved to %s\n", pngFile)
	}

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	id, err := st.Save(storage.NewMetadata(name, initial, n, values), rec.Samples())
	if err != nil {
		return err
	}
	fmt.Printf("saved run %s\n", id)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	results, err := automation.RunSweep(cmd.Context(), &automation.ParameterSweep{
		Kind:     sweepKind,
		Min:      sweepMin,
		Max:      sweepMax,
		NumSteps: sweepSteps,
		Ticks:    cfg.Ticks,
		Initial:  cfg.InitialState(),
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFINAL\tIAE\tOVERSHOOT\tSTABILITY\tEFFORT\tSTABLE\n", strings.ToUpper(sweepKind))
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%s\t%s\t%s\t%s\t%s\t%v\n",
			r.Value,
			formatValue(r.Final.Position),
			formatValue(r.Metrics["iae"]),
			formatValue(r.Metrics["overshoot"]),
			formatValue(r.Metrics["stability"]),
			formatValue(r.Metrics["control_effort"]),
			r.Stable,
		)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Base:         cfg.InitialState(),
		Perturbation: perturbation,
		NumTrials:    trials,
		Ticks:        cfg.Ticks,
		Seed:         seed,
	})
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("trials: %d\n", len(results))
	fmt.Printf("stable: %d\n", stable)
	fmt.Printf("unstable: %d\n", unstable)
	if len(results) > 0 {
		fmt.Printf("stable fraction: %.2f\n", float64(stable)/float64(len(results)))
	}
	return nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(tuneParams))
	ranges := make([][]float64, 0, len(tuneParams))
	for _, spec := range tuneParams {
		name, values, err := parseAxis(spec)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	evaluate, err := optim.ScoreRun(cfg.InitialState(), cfg.Ticks, tuneMetric)
	if err != nil {
		return err
	}

	gs := optim.NewGridSearch(names, ranges)
	fmt.Printf("searching %d candidates on %s\n", gs.Size(), tuneMetric)
	best, score, err := gs.Search(cmd.Context(), evaluate)
	if err != nil {
		return err
	}
	if metrics.HigherIsBetter(tuneMetric) {
		score = -score
	}

	keys := make([]string, 0, len(best))
	for k := range best {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("best %s: %s\n", tuneMetric, formatValue(score))
	for _, k := range keys {
		fmt.Printf("  %s = %g\n", k, best[k])
	}
	return nil
}

// parseAxis reads "kind=min:max:step".
func parseAxis(spec string) (string, []float64, error) {
	name, rng, ok := strings.Cut(spec, "=")
	if !ok {
		return "", nil, fmt.Errorf("grid axis %q: want kind=min:max:step", spec)
	}
	parts := strings.Split(rng, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("grid axis %q: want kind=min:max:step", spec)
	}

	var bounds [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return "", nil, fmt.Errorf("grid axis %q: %w", spec, err)
		}
		bounds[i] = v
	}
	lo, hi, step := bounds[0], bounds[1], bounds[2]
	if step <= 0 || hi < lo {
		return "", nil, fmt.Errorf("grid axis %q: need step > 0 and max >= min", spec)
	}

	var values []float64
	for i := 0; ; i++ {
		v := lo + float64(i)*step
		if v > hi+step*1e-9 {
			break
		}
		values = append(values, v)
	}
	return strings.TrimSpace(name), values, nil
}

func formatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "diverged"
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}
