package epicycle

import (
	"errors"

	"github.com/gogpu/epicycle/backend"
)

// recovery is what the scheduler does about a frame error.
type recovery int

const (
	// recoverAbort fails the scheduler and releases its resources.
	recoverAbort recovery = iota
	// recoverReconfigure reconfigures the surface at the last size and
	// retries on the next frame.
	recoverReconfigure
	// recoverSkip logs the error and drops the frame.
	recoverSkip
)

func (r recovery) String() string {
	switch r {
	case recoverReconfigure:
		return "reconfigure"
	case recoverSkip:
		return "skip"
	default:
		return "abort"
	}
}

// recoveryTable maps frame errors to actions. The first matching row wins;
// unmatched errors abort.
var recoveryTable = []struct {
	err    error
	action recovery
}{
	{backend.ErrSurfaceLost, recoverReconfigure},
	{backend.ErrSurfaceOutdated, recoverReconfigure},
	{backend.ErrOutOfMemory, recoverAbort},
	{backend.ErrTimeout, recoverSkip},
}

func classify(err error) recovery {
	for _, row := range recoveryTable {
		if errors.Is(err, row.err) {
			return row.action
		}
	}
	return recoverAbort
}
