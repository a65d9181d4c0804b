package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/san-kum/pidlab/internal/chart"
	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/console"
	"github.com/san-kum/pidlab/internal/session"
	"github.com/san-kum/pidlab/internal/telemetry"
	"github.com/san-kum/pidlab/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	logFile    string

	scenario string
	position float64
	velocity float64
	setpoint float64
	bias     float64
	kp       float64
	ki       float64
	kd       float64
	ticks    int
	interval time.Duration

	broker string
	topic  string

	theme string
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: failed to read .env: %v", err)
	}

	rootCmd := &cobra.Command{
		Use:   "pidlab",
		Short: "interactive PID controller playground",
		Long: "pidlab steers a simulated plant toward a setpoint with a PID controller.\n" +
			"Run without a subcommand to open the live view.",
		SilenceUsage: true,
		RunE:         runLive,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", envOr("PIDLAB_DATA", ".pidlab"), "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", os.Getenv("PIDLAB_CONFIG"), "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log", "", "write log output to this file")
	addSessionFlags(rootCmd)
	rootCmd.Flags().StringVar(&theme, "theme", "", "color theme (cyberpunk, retro, ocean, sunset)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "open the interactive terminal view",
		RunE:  runLive,
	}
	addSessionFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "", "color theme (cyberpunk, retro, ocean, sunset)")

	consoleCmd := &cobra.Command{
		Use:   "console",
		Short: "drive a session from a command prompt",
		RunE:  runConsole,
	}
	addSessionFlags(consoleCmd)

	rootCmd.AddCommand(liveCmd, consoleCmd)
	rootCmd.AddCommand(headlessCommands()...)
	rootCmd.AddCommand(runCommands()...)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSessionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&preset, "preset", "", "start from a named preset (see 'pidlab presets')")
	f.StringVar(&scenario, "scenario", "linear", "physical model: linear or ball")
	f.Float64Var(&position, "pos", 0, "initial position")
	f.Float64Var(&velocity, "vel", 0, "initial velocity")
	f.Float64Var(&setpoint, "setpoint", 0, "setpoint")
	f.Float64Var(&bias, "bias", 0, "systematic bias")
	f.Float64Var(&kp, "kp", 0, "proportional gain")
	f.Float64Var(&ki, "ki", 0, "integral gain")
	f.Float64Var(&kd, "kd", 0, "derivative gain")
	f.IntVar(&ticks, "ticks", 0, "ticks to simulate in headless runs")
	f.DurationVar(&interval, "interval", 0, "wall-clock time between ticks")
	f.StringVar(&broker, "mqtt", os.Getenv("PIDLAB_MQTT_BROKER"), "publish state to this MQTT broker")
	f.StringVar(&topic, "topic", "", "MQTT topic for state updates")
}

// resolveConfig layers defaults, the preset, the config file and explicitly
// set flags, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", preset)
		}
	}

	if configFile != "" {
		if err := config.LoadInto(cfg, configFile); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("scenario") {
		cfg.Scenario = scenario
	}
	if flags.Changed("pos") {
		cfg.Initial.Position = position
	}
	if flags.Changed("vel") {
		cfg.Initial.Velocity = velocity
	}
	if flags.Changed("setpoint") {
		cfg.Initial.Setpoint = setpoint
	}
	if flags.Changed("bias") {
		cfg.Initial.Bias = bias
	}
	if flags.Changed("kp") {
		cfg.Gains.Kp = kp
	}
	if flags.Changed("ki") {
		cfg.Gains.Ki = ki
	}
	if flags.Changed("kd") {
		cfg.Gains.Kd = kd
	}
	if flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if flags.Changed("interval") {
		cfg.TickInterval = interval
	}
	if broker != "" {
		cfg.Telemetry.Broker = broker
	}
	if flags.Changed("topic") {
		cfg.Telemetry.Topic = topic
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func chartOptions(cfg *config.Config) chart.Options {
	opts := chart.DefaultOptions()
	opts.Width = cfg.Chart.Width
	opts.Height = cfg.Chart.Height
	return opts
}

// startTelemetry connects to the configured broker and returns the observer
// that feeds it, plus a cleanup func. Without a broker both are no-ops.
func startTelemetry(ctx context.Context, cfg *config.Config) ([]session.Observer, func(), error) {
	if cfg.Telemetry.Broker == "" {
		return nil, func() {}, nil
	}

	client, err := telemetry.Connect(cfg.Telemetry.Broker, cfg.Telemetry.ClientID)
	if err != nil {
		return nil, nil, err
	}
	sender := telemetry.NewSender(cfg.Telemetry.Topic, cfg.Telemetry.Every, 0)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		sender.Run(ctx, client)
	}()

	cleanup := func() {
		cancel()
		<-done
		client.Disconnect(250)
		log.Printf("telemetry: sent %d, dropped %d", sender.Sent(), sender.Dropped())
	}
	return []session.Observer{sender.Observe}, cleanup, nil
}

// setupLogging sends log output to --log, or nowhere when quiet is set and
// no file was given.
func setupLogging(quiet bool) (func(), error) {
	if logFile != "" {
		f, err := tea.LogToFile(logFile, "pidlab")
		if err != nil {
			return nil, err
		}
		return func() { f.Close() }, nil
	}
	if quiet {
		log.SetOutput(io.Discard)
	}
	return func() {}, nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	closeLog, err := setupLogging(true)
	if err != nil {
		return err
	}
	defer closeLog()

	observers, stop, err := startTelemetry(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer stop()

	opts := viz.DefaultOptions()
	opts.TickInterval = cfg.TickInterval
	opts.Chart = chartOptions(cfg)
	opts.ExportDir = dataDir
	opts.Theme = theme
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}

	return viz.Run(viz.NewModel(cfg.InitialState(), opts, observers...))
}

func runConsole(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	closeLog, err := setupLogging(false)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	observers, stop, err := startTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer stop()

	loop := session.NewLoop(cfg.InitialState(), cfg.TickInterval, observers...)
	loop.SetTicking(false)

	loopErr := make(chan error, 1)
	go func() { loopErr <- loop.Run(ctx) }()

	err = console.New(loop, os.Stdout, chartOptions(cfg)).Run(ctx)
	cancel()
	if lerr := <-loopErr; lerr != nil && !errors.Is(lerr, context.Canceled) {
		log.Printf("session loop: %v", lerr)
	}
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
