package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gogpu/epicycle"
	"github.com/gogpu/epicycle/backend"
	"github.com/gogpu/epicycle/backend/terminal"
	_ "github.com/gogpu/epicycle/backend/wgpu"
	"github.com/gogpu/epicycle/internal/config"
	"github.com/gogpu/epicycle/internal/window"

	// Register the Vulkan HAL via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// terminalFrameInterval paces the terminal backend at roughly 30 frames per
// second.
const terminalFrameInterval = 33 * time.Millisecond

func runRender(cmd *cobra.Command, f *flags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	host, b, done, err := openTarget(cfg)
	if err != nil {
		return err
	}
	defer done()

	s, err := epicycle.NewScheduler(b, cfg.Chain(), cfg.Options()...)
	if err != nil {
		return err
	}
	return epicycle.Run(ctx, host, s)
}

// openTarget opens the host for the configured backend and returns the
// backend bound to it. An empty backend name tries a native window and falls
// back to the terminal.
func openTarget(cfg *config.Config) (epicycle.Host, backend.Backend, func(), error) {
	bcfg := cfg.BackendConfig()

	switch cfg.Backend {
	case "", backend.BackendWGPU:
		win, err := window.Open(cfg.Window.Title, cfg.Window.Width, cfg.Window.Height)
		if err == nil {
			return win, backend.Get(backend.BackendWGPU, bcfg), win.Destroy, nil
		}
		if cfg.Backend != "" || !windowUnavailable(err) {
			return nil, nil, nil, err
		}
		epicycle.Logger().Warn("no native window, using the terminal", "err", err)
		fallthrough
	case backend.BackendTerminal:
		host, err := terminal.Open(terminalFrameInterval)
		if err != nil {
			return nil, nil, nil, err
		}
		return host, terminal.New(bcfg), host.Close, nil
	case backend.BackendSoftware:
		host := epicycle.NewHeadlessHost(cfg.Window.Width, cfg.Window.Height, cfg.Frames)
		return host, backend.NewSoftware(bcfg), func() {}, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown backend: %s (available: %v)", cfg.Backend, backend.Available())
	}
}

// windowUnavailable reports whether err means no native window can be
// opened here, so the terminal can be used instead.
func windowUnavailable(err error) bool {
	return errors.Is(err, window.ErrUnsupportedPlatform) || errors.Is(err, window.ErrNoDisplay)
}

// runHeadless runs cfg against the software backend for cfg.Frames frames
// and returns the finished scheduler.
func runHeadless(ctx context.Context, cfg *config.Config) (*epicycle.Scheduler, error) {
	b := backend.NewSoftware(cfg.BackendConfig())
	s, err := epicycle.NewScheduler(b, cfg.Chain(), cfg.Options()...)
	if err != nil {
		return nil, err
	}
	host := epicycle.NewHeadlessHost(cfg.Window.Width, cfg.Window.Height, cfg.Frames)
	if err := epicycle.Run(ctx, host, s); err != nil {
		return nil, err
	}
	return s, nil
}
