// Package config provides configuration management for Ontolarium.
//
// Everything has a workable default: a server started with no config
// file listens on :8080, stores graphs next to the binary, and uses the
// offline generator. A config file only needs the sections it changes.
//
// Config file locations (priority order):
//  1. $ONTOLARIUM_CONFIG
//  2. ./ontolarium.yaml
//  3. ~/.config/ontolarium/config.yaml
//  4. /etc/ontolarium/config.yaml
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "./ontolarium.db"},
		Canvas:   CanvasConfig{Width: 1200, Height: 800},
		Simulation: SimulationConfig{
			LinkDistance:  150,
			Charge:        -400,
			CollideRadius: 40,
			VelocityDecay: 0.4,
			AlphaMin:      0.001,
			TickRate:      Duration(33 * time.Millisecond),
			DragAlpha:     0.3,
		},
		Generator: GeneratorConfig{
			Backend: "local",
			LLM: LLMConfig{
				BaseURL: "http://localhost:11434",
				Model:   "llama3.2",
				Timeout: Duration(2 * time.Minute),
			},
			Scan: ScanConfig{
				Ports:            "22,25,53,80,443,445,3389,5432,5900,8080,8443",
				Timeout:          Duration(5 * time.Minute),
				ServiceDetection: true,
			},
		},
		Watch: WatchConfig{Debounce: Duration(300 * time.Millisecond)},
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	def := DefaultConfig()

	if c.Version == 0 {
		c.Version = def.Version
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Database.Path == "" {
		c.Database.Path = def.Database.Path
	}
	if c.Canvas.Width == 0 {
		c.Canvas.Width = def.Canvas.Width
	}
	if c.Canvas.Height == 0 {
		c.Canvas.Height = def.Canvas.Height
	}

	if c.Simulation.LinkDistance == 0 {
		c.Simulation.LinkDistance = def.Simulation.LinkDistance
	}
	if c.Simulation.Charge == 0 {
		c.Simulation.Charge = def.Simulation.Charge
	}
	if c.Simulation.CollideRadius == 0 {
		c.Simulation.CollideRadius = def.Simulation.CollideRadius
	}
	if c.Simulation.VelocityDecay == 0 {
		c.Simulation.VelocityDecay = def.Simulation.VelocityDecay
	}
	if c.Simulation.AlphaMin == 0 {
		c.Simulation.AlphaMin = def.Simulation.AlphaMin
	}
	if c.Simulation.TickRate == 0 {
		c.Simulation.TickRate = def.Simulation.TickRate
	}
	if c.Simulation.DragAlpha == 0 {
		c.Simulation.DragAlpha = def.Simulation.DragAlpha
	}

	if c.Generator.Backend == "" {
		c.Generator.Backend = def.Generator.Backend
	}
	if c.Generator.LLM.BaseURL == "" {
		c.Generator.LLM.BaseURL = def.Generator.LLM.BaseURL
	}
	if c.Generator.LLM.Model == "" {
		c.Generator.LLM.Model = def.Generator.LLM.Model
	}
	if c.Generator.LLM.Timeout == 0 {
		c.Generator.LLM.Timeout = def.Generator.LLM.Timeout
	}
	if c.Generator.Scan.Ports == "" {
		c.Generator.Scan.Ports = def.Generator.Scan.Ports
	}
	if c.Generator.Scan.Timeout == 0 {
		c.Generator.Scan.Timeout = def.Generator.Scan.Timeout
	}

	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = def.Watch.Debounce
	}
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Listen: %s, Database: %s\n", c.Server.Addr, c.Database.Path)
	summary += fmt.Sprintf("Canvas: %.0fx%.0f, Tick: %s\n",
		c.Canvas.Width, c.Canvas.Height, c.Simulation.TickRate.Duration())
	summary += fmt.Sprintf("Generator: %s", c.Generator.Backend)
	if c.Watch.Path != "" {
		summary += fmt.Sprintf(", Watch: %s", c.Watch.Path)
	}
	return summary
}
