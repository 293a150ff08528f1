// Command epicycle draws the trail of an epicyclic chain.
//
// Usage:
//
//	epicycle [run] [--preset classic] [--backend wgpu|terminal|software]
//	epicycle trace [--frames 4000] [--csv]
//	epicycle presets
//	epicycle config [--out epicycle.yaml]
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/epicycle"
	"github.com/gogpu/epicycle/internal/config"
)

func init() {
	// GLFW and most native surfaces must stay on the main thread.
	runtime.LockOSThread()
}

// flags holds every command-line flag. Values only override the loaded
// config when the flag was set explicitly.
type flags struct {
	configFile string
	preset     string
	backend    string
	policy     string
	capacity   int
	interval   int
	width      int
	height     int
	frames     int
	joints     bool
	logLevel   string
	verbose    bool
	csv        bool
	out        string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "render the trail in a window or terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd, f)
		},
	}

	rootCmd := &cobra.Command{
		Use:          "epicycle",
		Short:        "epicyclic chain trail renderer",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runCmd.RunE,
	}
	rootCmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		return setupLogging(f.logLevel, f.verbose)
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&f.preset, "preset", "", "use preset configuration")
	pf.IntVar(&f.capacity, "capacity", epicycle.DefaultCapacity, "trail capacity in records")
	pf.IntVar(&f.interval, "interval", epicycle.DefaultInterval, "frames between samples")
	pf.StringVar(&f.policy, "policy", config.DefaultPolicy, "capacity policy (wrap|freeze)")
	pf.BoolVar(&f.joints, "joints", true, "draw circles around the arm joints")
	pf.StringVar(&f.logLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "log at debug level")

	for _, cmd := range []*cobra.Command{rootCmd, runCmd} {
		cmd.Flags().StringVar(&f.backend, "backend", config.DefaultBackend, "backend (wgpu|terminal|software), empty for auto")
		cmd.Flags().IntVar(&f.width, "width", config.DefaultWidth, "window width")
		cmd.Flags().IntVar(&f.height, "height", config.DefaultHeight, "window height")
		cmd.Flags().IntVar(&f.frames, "frames", 0, "stop after n frames (software backend)")
	}

	traceCmd := &cobra.Command{
		Use:   "trace",
		Short: "sample the chain headlessly and plot or export the trail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTrace(cmd, f)
		},
	}
	traceCmd.Flags().IntVar(&f.frames, "frames", config.DefaultFrames, "frames to run")
	traceCmd.Flags().BoolVar(&f.csv, "csv", false, "write index,x,y,z,r,g,b rows instead of plots")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listPresets(cmd.OutOrStdout())
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "write the effective configuration as yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			if f.out == "" {
				return cfg.Encode(cmd.OutOrStdout())
			}
			if err := config.Save(f.out, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", f.out)
			return nil
		},
	}
	configCmd.Flags().StringVar(&f.out, "out", "", "output file (default stdout)")

	rootCmd.AddCommand(runCmd, traceCmd, presetsCmd, configCmd)
	return rootCmd
}

// setupLogging installs a text handler on stderr for epicycle and its
// backends.
func setupLogging(level string, verbose bool) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	epicycle.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// loadConfig builds the effective config: defaults, then the preset, then
// the config file, then every flag the user set.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if f.preset != "" {
		cfg = config.GetPreset(f.preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", f.preset, config.ListPresets())
		}
	}
	if f.configFile != "" {
		loaded, err := config.Load(f.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("capacity") {
		cfg.Trail.Capacity = f.capacity
	}
	if changed("interval") {
		cfg.Trail.Interval = f.interval
	}
	if changed("policy") {
		cfg.Trail.Policy = f.policy
	}
	if changed("backend") {
		cfg.Backend = f.backend
	}
	if changed("width") {
		cfg.Window.Width = f.width
	}
	if changed("height") {
		cfg.Window.Height = f.height
	}
	if changed("frames") {
		cfg.Frames = f.frames
	}
	if changed("joints") && !f.joints {
		cfg.Overlay.Joints = nil
		cfg.Overlay.Hub = 0
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
