package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/pidlab/internal/analysis"
	"github.com/san-kum/pidlab/internal/chart"
	"github.com/san-kum/pidlab/internal/export"
	"github.com/san-kum/pidlab/internal/storage"
)

var (
	plotPNG  string
	plotSVG  string
	outFile  string
	spectrum bool
)

func runCommands() []*cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotPNG, "png", "", "save the plot as a PNG")
	plotCmd.Flags().StringVar(&plotSVG, "svg", "", "save the plot as an SVG")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and samples as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "report metrics and the dominant oscillation frequency",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().BoolVar(&spectrum, "spectrum", false, "plot the power spectrum")

	return []*cobra.Command{listCmd, plotCmd, exportCSVCmd, exportJSONCmd, analyzeCmd}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tTICKS\tKP\tKI\tKD\tIAE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%g\t%g\t%g\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.Kp,
			run.Ki,
			run.Kd,
			formatValue(float64(run.Metrics["iae"])),
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	points := storage.ChartPoints(samples)
	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s  kp=%g ki=%g kd=%g\n\n", meta.Scenario, meta.Kp, meta.Ki, meta.Kd)

	opts := chart.DefaultOptions()
	opts.Width = 80
	opts.Height = 15
	fmt.Println(chart.Render(points, opts))

	if plotPNG != "" {
		if err := export.SavePNG(points, meta.ID, plotPNG, 8, 4); err != nil {
			return err
		}
		fmt.Printf("png saved to %s\n", plotPNG)
	}
	if plotSVG != "" {
		svg := export.SeriesToSVG(points, 800, 300)
		if svg == "" {
			return fmt.Errorf("nothing finite to draw")
		}
		if err := os.WriteFile(plotSVG, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("svg saved to %s\n", plotSVG)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to export")
	}

	w, done, err := output()
	if err != nil {
		return err
	}
	defer done()
	return storage.ExportCSV(w, samples)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	w, done, err := output()
	if err != nil {
		return err
	}
	defer done()
	return storage.ExportJSON(w, *meta, samples)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return fmt.Errorf("need at least 2 samples for analysis")
	}

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("scenario: %s  ticks: %d  dt: %gs\n\n", meta.Scenario, meta.Ticks, meta.Dt)

	names := make([]string, 0, len(meta.Metrics))
	for name := range meta.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-15s %s\n", name, formatValue(float64(meta.Metrics[name])))
	}
	fmt.Println()

	positions := make([]float64, len(samples))
	for i, s := range samples {
		positions[i] = s.Position
	}

	freq, ok := analysis.DominantFrequency(positions, meta.Dt)
	if !ok {
		fmt.Println("dominant frequency: none (flat or diverged)")
		return nil
	}

	if spectrum {
		ps := analysis.PowerSpectrum(positions)
		if len(ps) >= 8 {
			fmt.Println(asciigraph.Plot(ps[:len(ps)/4],
				asciigraph.Height(15),
				asciigraph.Width(80),
				asciigraph.Caption("power spectrum (position)"),
			))
			fmt.Println()
		}
	}

	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	fmt.Printf("period: %.3f s\n", 1.0/freq)
	return nil
}

// output returns the --out file, or stdout.
func output() (*os.File, func(), error) {
	if outFile == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
