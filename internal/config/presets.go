package config

import (
	"slices"
)

var Presets = map[string]*Config{
	"classic": DefaultConfig(),
	"rose": preset(func(c *Config) {
		c.Window.Title = "Rose"
		c.Arms = []ArmConfig{
			{Radius: 180, Velocity: 0.02},
			{Radius: 180, Velocity: -0.1},
		}
		c.Trail.Interval = 2
		c.Color = "#b3205a"
		c.Overlay.Joints = []float64{40, 12}
		c.Overlay.Hub = 0
	}),
	"trefoil": preset(func(c *Config) {
		c.Window.Title = "Trefoil"
		c.Arms = []ArmConfig{
			{Radius: 160, Velocity: 0.03},
			{Radius: 90, Velocity: -0.06},
			{Radius: 25, Velocity: 0.12, Phase: 1.5707963267948966},
		}
		c.Trail.Interval = 4
		c.Trail.Capacity = 4000
		c.Color = "#1f4e9c"
		c.Overlay.Joints = []float64{45, 25, 8}
		c.Overlay.Hub = 0
	}),
	"scenario": preset(func(c *Config) {
		c.Window = WindowConfig{Width: 320, Height: 320, Title: "Scenario"}
		c.Arms = []ArmConfig{
			{Radius: 1.0, Velocity: 0.1},
			{Radius: 0.5, Velocity: -0.05},
		}
		c.Trail = TrailConfig{Capacity: 4, Policy: "freeze", Interval: 1}
		c.Frames = 4
		c.Overlay.Joints = nil
		c.Overlay.Hub = 0
	}),
}

func preset(mutate func(*Config)) *Config {
	c := DefaultConfig()
	mutate(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Arms = slices.Clone(c.Arms)
	out.Overlay.Joints = slices.Clone(c.Overlay.Joints)
	return &out
}
