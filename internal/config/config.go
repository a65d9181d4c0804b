package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/pidlab/internal/control"
)

const (
	DefaultTickInterval = 10 * time.Millisecond
	DefaultTicks        = 3000
	DefaultChartWidth   = 60
	DefaultChartHeight  = 10
	DefaultTopic        = "pidlab/state"
	DefaultClientID     = "pidlab"
	DefaultPublishEvery = 10
)

type Config struct {
	Scenario     string          `yaml:"scenario"`
	TickInterval time.Duration   `yaml:"tick_interval"`
	Ticks        int             `yaml:"ticks"`
	Initial      InitialConfig   `yaml:"initial"`
	Gains        GainsConfig     `yaml:"gains"`
	Chart        ChartConfig     `yaml:"chart"`
	Telemetry    TelemetryConfig `yaml:"telemetry"`
}

type InitialConfig struct {
	Position float64 `yaml:"position"`
	Velocity float64 `yaml:"velocity"`
	Setpoint float64 `yaml:"setpoint"`
	Bias     float64 `yaml:"bias"`
}

type GainsConfig struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
}

type ChartConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// TelemetryConfig enables MQTT publishing when Broker is set.
type TelemetryConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	// Every publishes one tick in Every; non-tick events always publish.
	Every int `yaml:"every"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario:     control.Linear.String(),
		TickInterval: DefaultTickInterval,
		Ticks:        DefaultTicks,
		Initial: InitialConfig{
			Position: control.DefaultPosition,
			Setpoint: control.DefaultSetpoint,
		},
		Chart: ChartConfig{
			Width:  DefaultChartWidth,
			Height: DefaultChartHeight,
		},
		Telemetry: TelemetryConfig{
			Topic:    DefaultTopic,
			ClientID: DefaultClientID,
			Every:    DefaultPublishEvery,
		},
	}
}

// Load overlays the YAML file at path on DefaultConfig and validates the
// result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto overlays the YAML file at path on cfg, so keys the file leaves
// out keep their current values, then validates the result.
func LoadInto(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg.Validate()
}

func (c *Config) Validate() error {
	if _, err := control.ParseScenario(c.Scenario); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick_interval must be positive, got %s", ErrInvalidConfig, c.TickInterval)
	}
	if c.Ticks < 0 {
		return fmt.Errorf("%w: ticks must not be negative, got %d", ErrInvalidConfig, c.Ticks)
	}
	if c.Chart.Width < 0 || c.Chart.Height < 0 {
		return fmt.Errorf("%w: chart size must not be negative", ErrInvalidConfig)
	}
	if c.Telemetry.Every < 1 {
		return fmt.Errorf("%w: telemetry.every must be at least 1, got %d", ErrInvalidConfig, c.Telemetry.Every)
	}
	for name, v := range map[string]float64{
		"initial.position": c.Initial.Position,
		"initial.velocity": c.Initial.Velocity,
		"initial.setpoint": c.Initial.Setpoint,
		"initial.bias":     c.Initial.Bias,
		"gains.kp":         c.Gains.Kp,
		"gains.ki":         c.Gains.Ki,
		"gains.kd":         c.Gains.Kd,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidConfig, name)
		}
	}
	return nil
}

// InitialState builds the first snapshot of a session. An unparsable
// scenario falls back to linear; call Validate first to reject it.
func (c *Config) InitialState() control.State {
	sc, _ := control.ParseScenario(c.Scenario)
	s := control.DefaultState()
	s.Scenario = sc
	s.Position = c.Initial.Position
	s.Velocity = c.Initial.Velocity
	s.Setpoint = c.Initial.Setpoint
	s.SystematicBias = c.Initial.Bias
	s.Kp = c.Gains.Kp
	s.Ki = c.Gains.Ki
	s.Kd = c.Gains.Kd
	return s
}
