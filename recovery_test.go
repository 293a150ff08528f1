package epicycle

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gogpu/epicycle/backend"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want recovery
	}{
		{"lost", backend.ErrSurfaceLost, recoverReconfigure},
		{"outdated", backend.ErrSurfaceOutdated, recoverReconfigure},
		{"out of memory", backend.ErrOutOfMemory, recoverAbort},
		{"timeout", backend.ErrTimeout, recoverSkip},
		{"wrapped lost", fmt.Errorf("wgpu: acquire: %w", backend.ErrSurfaceLost), recoverReconfigure},
		{"wrapped timeout", fmt.Errorf("present: %w", backend.ErrTimeout), recoverSkip},
		{"unknown", errors.New("device exploded"), recoverAbort},
		{"closed", backend.ErrClosed, recoverAbort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); got != tt.want {
				t.Errorf("classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRecoveryString(t *testing.T) {
	for r, want := range map[recovery]string{
		recoverAbort:       "abort",
		recoverReconfigure: "reconfigure",
		recoverSkip:        "skip",
	} {
		if got := r.String(); got != want {
			t.Errorf("recovery(%d).String() = %q, want %q", int(r), got, want)
		}
	}
}
