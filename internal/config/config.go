package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/epicycle"
	"github.com/gogpu/epicycle/backend"
)

const (
	DefaultWidth      = 1000
	DefaultHeight     = 1000
	DefaultTitle      = "Fractal Spirograph"
	DefaultColor      = "#000000"
	DefaultBackground = "#e6e6e6"
	DefaultPolicy     = "wrap"
	DefaultBackend    = ""
	DefaultFrames     = 4000
	DefaultJointColor = "#ff0000"
	DefaultHubColor   = "#0000ff"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Window     WindowConfig  `yaml:"window"`
	Trail      TrailConfig   `yaml:"trail"`
	Color      string        `yaml:"color"`
	Background string        `yaml:"background"`
	Extent     float64       `yaml:"extent,omitempty"`
	VSync      bool          `yaml:"vsync"`
	Arms       []ArmConfig   `yaml:"arms"`
	Overlay    OverlayConfig `yaml:"overlay"`
	Backend    string        `yaml:"backend,omitempty"`
	Frames     int           `yaml:"frames"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type TrailConfig struct {
	Capacity int    `yaml:"capacity"`
	Policy   string `yaml:"policy"`
	Interval int    `yaml:"interval"`
}

// OverlayConfig selects the circles drawn around the arm joints and the
// origin. Zero radii draw nothing.
type OverlayConfig struct {
	Joints   []float64 `yaml:"joints,omitempty"`
	Hub      float64   `yaml:"hub,omitempty"`
	Color    string    `yaml:"color"`
	HubColor string    `yaml:"hub_color"`
}

type ArmConfig struct {
	Radius   float64 `yaml:"radius"`
	Velocity float64 `yaml:"velocity"`
	Phase    float64 `yaml:"phase,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  DefaultWidth,
			Height: DefaultHeight,
			Title:  DefaultTitle,
		},
		Trail: TrailConfig{
			Capacity: epicycle.DefaultCapacity,
			Policy:   DefaultPolicy,
			Interval: epicycle.DefaultInterval,
		},
		Color:      DefaultColor,
		Background: DefaultBackground,
		VSync:      true,
		Arms: []ArmConfig{
			{Radius: 200, Velocity: 0.05},
			{Radius: 110, Velocity: 0.1},
			{Radius: 50, Velocity: 0.6},
		},
		Overlay: OverlayConfig{
			Joints:   []float64{75, 35, 15},
			Hub:      125,
			Color:    DefaultJointColor,
			HubColor: DefaultHubColor,
		},
		Backend: DefaultBackend,
		Frames:  DefaultFrames,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Encode writes cfg as YAML to w.
func (c *Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

// Validate reports the first field that cannot be turned into a scheduler.
func (c *Config) Validate() error {
	if c.Window.Width < 0 || c.Window.Height < 0 {
		return fmt.Errorf("%w: window %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if c.Trail.Capacity <= 0 {
		return fmt.Errorf("%w: trail capacity %d", ErrInvalid, c.Trail.Capacity)
	}
	if c.Trail.Interval <= 0 {
		return fmt.Errorf("%w: trail interval %d", ErrInvalid, c.Trail.Interval)
	}
	if _, err := epicycle.ParsePolicy(c.Trail.Policy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := epicycle.ParseHex(c.Color); err != nil {
		return fmt.Errorf("%w: color: %w", ErrInvalid, err)
	}
	if _, err := epicycle.ParseHex(c.Background); err != nil {
		return fmt.Errorf("%w: background: %w", ErrInvalid, err)
	}
	if c.Extent < 0 || math.IsNaN(c.Extent) {
		return fmt.Errorf("%w: extent %v", ErrInvalid, c.Extent)
	}
	if err := c.Chain().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	for _, r := range append([]float64{c.Overlay.Hub}, c.Overlay.Joints...) {
		if r < 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			return fmt.Errorf("%w: overlay radius %v", ErrInvalid, r)
		}
	}
	if _, err := epicycle.ParseHex(c.Overlay.Color); err != nil {
		return fmt.Errorf("%w: overlay color: %w", ErrInvalid, err)
	}
	if _, err := epicycle.ParseHex(c.Overlay.HubColor); err != nil {
		return fmt.Errorf("%w: overlay hub color: %w", ErrInvalid, err)
	}
	return nil
}

func (c *Config) Chain() epicycle.Chain {
	chain := make(epicycle.Chain, len(c.Arms))
	for i, a := range c.Arms {
		chain[i] = epicycle.Arm{Radius: a.Radius, Velocity: a.Velocity, Phase: a.Phase}
	}
	return chain
}

// Options returns the scheduler options. The config must be valid.
func (c *Config) Options() []epicycle.Option {
	policy, _ := epicycle.ParsePolicy(c.Trail.Policy)
	return []epicycle.Option{
		epicycle.WithInterval(c.Trail.Interval),
		epicycle.WithCapacity(c.Trail.Capacity),
		epicycle.WithPolicy(policy),
		epicycle.WithColor(epicycle.Hex(c.Color)),
		epicycle.WithBaseColor(epicycle.Hex(c.Background)),
		epicycle.WithJoints(c.Overlay.Joints...),
		epicycle.WithJointColor(epicycle.Hex(c.Overlay.Color)),
		epicycle.WithHub(c.Overlay.Hub, epicycle.Hex(c.Overlay.HubColor)),
	}
}

// BackendConfig returns the presentation settings. A zero Extent fits the
// reach of the chain with a 10% margin.
func (c *Config) BackendConfig() backend.Config {
	bg := epicycle.Hex(c.Background)
	extent := c.Extent
	if extent == 0 {
		extent = max(c.Chain().Reach()*1.1, 1)
	}
	return backend.Config{
		Background: bg.GPU(),
		Extent:     extent,
		VSync:      c.VSync,
	}
}
