package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version    int              `yaml:"version"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Canvas     CanvasConfig     `yaml:"canvas"`
	Simulation SimulationConfig `yaml:"simulation"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Watch      WatchConfig      `yaml:"watch"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// CanvasConfig sets the nominal drawing surface. The layout gravitates
// toward its midpoint, so a fresh diagram lands in the middle of the
// page instead of the top-left corner.
type CanvasConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// SimulationConfig tunes the force layout
type SimulationConfig struct {
	LinkDistance  float64  `yaml:"link_distance"`
	Charge        float64  `yaml:"charge"`
	CollideRadius float64  `yaml:"collide_radius"`
	VelocityDecay float64  `yaml:"velocity_decay"`
	AlphaMin      float64  `yaml:"alpha_min"`
	TickRate      Duration `yaml:"tick_rate"`
	DragAlpha     float64  `yaml:"drag_alpha"`
}

// GeneratorConfig selects and tunes the graph generator backend
type GeneratorConfig struct {
	Backend string     `yaml:"backend"` // local, llm, netscan
	LLM     LLMConfig  `yaml:"llm"`
	Scan    ScanConfig `yaml:"scan"`
}

// LLMConfig holds settings for the language-model backend. The API key
// is referenced by environment variable name, never stored in the file.
type LLMConfig struct {
	BaseURL   string   `yaml:"base_url"`
	Model     string   `yaml:"model"`
	APIKeyEnv string   `yaml:"api_key_env,omitempty"`
	Timeout   Duration `yaml:"timeout"`
}

// ScanConfig holds settings for the network-scan backend
type ScanConfig struct {
	Ports            string   `yaml:"ports"`
	Timeout          Duration `yaml:"timeout"`
	ServiceDetection bool     `yaml:"service_detection"`
}

// WatchConfig enables live reload of a graph file. An empty path
// disables the watcher.
type WatchConfig struct {
	Path     string   `yaml:"path,omitempty"`
	Debounce Duration `yaml:"debounce"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
