package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu"

	"github.com/gogpu/epicycle/backend"
)

// Package errors for the wgpu backend.
var (
	// ErrNoAdapter is returned when no adapter can present to the surface.
	ErrNoAdapter = errors.New("wgpu: no compatible GPU adapter")

	// ErrShaderInvalid is returned when the trail shader fails validation.
	ErrShaderInvalid = errors.New("wgpu: invalid trail shader")
)

// frameStatus maps wgpu frame errors onto the backend status sentinels. The
// wgpu error stays in the chain for logging. A lost device is reported as
// out of memory: neither can be recovered by reconfiguring the surface.
func frameStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, wgpu.ErrSurfaceLost):
		return fmt.Errorf("%w: %w", backend.ErrSurfaceLost, err)
	case errors.Is(err, wgpu.ErrSurfaceOutdated):
		return fmt.Errorf("%w: %w", backend.ErrSurfaceOutdated, err)
	case errors.Is(err, wgpu.ErrTimeout):
		return fmt.Errorf("%w: %w", backend.ErrTimeout, err)
	case errors.Is(err, wgpu.ErrOutOfMemory), errors.Is(err, wgpu.ErrDeviceLost):
		return fmt.Errorf("%w: %w", backend.ErrOutOfMemory, err)
	default:
		return err
	}
}
