package config

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/gogpu/epicycle"
	"github.com/gogpu/epicycle/backend"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Window.Width != 1000 || cfg.Window.Height != 1000 {
		t.Errorf("window = %dx%d, want 1000x1000", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Window.Title != "Fractal Spirograph" {
		t.Errorf("title = %q", cfg.Window.Title)
	}
	if cfg.Trail.Interval != 8 || cfg.Trail.Capacity != 10000 {
		t.Errorf("trail = %+v, want interval 8 capacity 10000", cfg.Trail)
	}
	if len(cfg.Arms) != 3 || cfg.Arms[0].Radius != 200 || cfg.Arms[2].Velocity != 0.6 {
		t.Errorf("arms = %+v", cfg.Arms)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative width", func(c *Config) { c.Window.Width = -1 }},
		{"zero capacity", func(c *Config) { c.Trail.Capacity = 0 }},
		{"zero interval", func(c *Config) { c.Trail.Interval = 0 }},
		{"unknown policy", func(c *Config) { c.Trail.Policy = "drop" }},
		{"bad color", func(c *Config) { c.Color = "red" }},
		{"bad background", func(c *Config) { c.Background = "#12" }},
		{"negative extent", func(c *Config) { c.Extent = -5 }},
		{"no arms", func(c *Config) { c.Arms = nil }},
		{"negative joint radius", func(c *Config) { c.Overlay.Joints = []float64{10, -1} }},
		{"nan hub", func(c *Config) { c.Overlay.Hub = math.NaN() }},
		{"bad joint color", func(c *Config) { c.Overlay.Color = "blue" }},
		{"bad hub color", func(c *Config) { c.Overlay.HubColor = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "epicycle.yaml")
	cfg := GetPreset("trefoil")
	cfg.Trail.Policy = "freeze"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Trail != cfg.Trail || got.Color != cfg.Color || len(got.Arms) != len(cfg.Arms) {
		t.Errorf("Load() = %+v, want %+v", got, cfg)
	}
	for i := range cfg.Arms {
		if got.Arms[i] != cfg.Arms[i] {
			t.Errorf("arm %d = %+v, want %+v", i, got.Arms[i], cfg.Arms[i])
		}
	}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := GetPreset("scenario").Encode(&buf); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(encoded) error = %v", err)
	}
	if cfg.Trail.Capacity != 4 || cfg.Trail.Policy != "freeze" || len(cfg.Arms) != 2 {
		t.Errorf("decoded config = %+v", cfg)
	}
	if !bytes.Contains(buf.Bytes(), []byte("  capacity: 4")) {
		t.Errorf("Encode() output not indented by two spaces:\n%s", buf.String())
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	cfg := DefaultConfig()
	cfg.Trail.Capacity = -3
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalid) {
		t.Errorf("Load() error = %v, want ErrInvalid", err)
	}
}

func TestChainAndOptions(t *testing.T) {
	cfg := GetPreset("scenario")
	chain := cfg.Chain()
	if len(chain) != 2 || chain[0] != (epicycle.Arm{Radius: 1, Velocity: 0.1}) {
		t.Errorf("Chain() = %+v", chain)
	}
	if got := len(cfg.Options()); got != 8 {
		t.Errorf("Options() returned %d options, want 8", got)
	}
}

func TestClassicOverlay(t *testing.T) {
	cfg := DefaultConfig()
	if !slices.Equal(cfg.Overlay.Joints, []float64{75, 35, 15}) || cfg.Overlay.Hub != 125 {
		t.Fatalf("Overlay = %+v, want joints 75/35/15 and hub 125", cfg.Overlay)
	}

	sw := backend.NewSoftware(cfg.BackendConfig())
	s, err := epicycle.NewScheduler(sw, cfg.Chain(), cfg.Options()...)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background(), epicycle.NewHeadlessHost(100, 100, 0)); err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Tick(0); err != nil {
		t.Fatal(err)
	}

	circles := 0
	for _, d := range sw.LastDraws() {
		if d.Label == "epicycle joints" {
			circles++
		}
	}
	if circles != 4 {
		t.Errorf("drew %d overlay circles, want hub plus three joints", circles)
	}

	if sc := GetPreset("scenario"); len(sc.Overlay.Joints) != 0 || sc.Overlay.Hub != 0 {
		t.Error("scenario preset should draw no joints")
	}
}

func TestBackendConfig(t *testing.T) {
	cfg := DefaultConfig()
	bc := cfg.BackendConfig()
	if want := 360 * 1.1; bc.Extent < want-1e-9 || bc.Extent > want+1e-9 {
		t.Errorf("Extent = %v, want %v", bc.Extent, want)
	}
	if bc.Background.R != 230.0/255 {
		t.Errorf("Background = %+v", bc.Background)
	}

	cfg.Extent = 500
	if got := cfg.BackendConfig().Extent; got != 500 {
		t.Errorf("explicit Extent = %v, want 500", got)
	}

	if got := GetPreset("scenario").BackendConfig().Extent; math.Abs(got-1.65) > 1e-9 {
		t.Errorf("scenario Extent = %v, want 1.65", got)
	}
}
