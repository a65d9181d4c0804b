package config

import "sort"

var Presets = map[string]*Config{
	"p-only": {
		Scenario: "linear",
		Initial:  InitialConfig{Position: 10, Setpoint: 20},
		Gains:    GainsConfig{Kp: 50},
	},
	"pd": {
		Scenario: "linear",
		Initial:  InitialConfig{Position: 10, Setpoint: 20},
		Gains:    GainsConfig{Kp: 50, Kd: 45},
	},
	"pid": {
		Scenario: "linear",
		Initial:  InitialConfig{Position: 10, Setpoint: 20, Bias: 500},
		Gains:    GainsConfig{Kp: 50, Ki: 20, Kd: 45},
	},
	"biased": {
		Scenario: "linear",
		Initial:  InitialConfig{Position: 10, Setpoint: 20, Bias: 500},
		Gains:    GainsConfig{Kp: 50, Kd: 45},
	},
	"ball": {
		Scenario: "ball",
		Initial:  InitialConfig{Position: 10, Setpoint: 20},
		Gains:    GainsConfig{Kp: 100, Kd: 90},
	},
	"unstable": {
		Scenario: "linear",
		Initial:  InitialConfig{Position: 10, Setpoint: 20},
		Gains:    GainsConfig{Kp: 1000, Kd: 3000},
	},
}

// GetPreset returns a fresh config with the named preset applied over the
// defaults, or nil if there is no such preset.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Scenario = p.Scenario
	cfg.Initial = p.Initial
	cfg.Gains = p.Gains
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
