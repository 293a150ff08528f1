// Package epicycle renders the curve traced by a chain of nested rotating arms.
//
// # Overview
//
// An epicyclic chain is an ordered list of arms. Each arm is anchored at the tip
// of the previous one and rotates at its own angular velocity. The tip of the
// last arm traces a periodic curve. epicycle samples that tip at a fixed frame
// cadence into a fixed-capacity trail and draws the trail as a line strip every
// frame, uploading only the record that changed.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/epicycle"
//	    "github.com/gogpu/epicycle/backend"
//	)
//
//	chain := epicycle.Chain{
//	    {Radius: 200, Velocity: 0.05},
//	    {Radius: 110, Velocity: 0.1},
//	    {Radius: 50, Velocity: 0.6},
//	}
//	sched, err := epicycle.NewScheduler(backend.NewSoftware(backend.Config{}), chain,
//	    epicycle.WithInterval(8),
//	    epicycle.WithCapacity(10000),
//	)
//	if err != nil {
//	    return err
//	}
//	host := epicycle.NewHeadlessHost(1000, 1000, 800)
//	return epicycle.Run(ctx, host, sched)
//
// # Architecture
//
// The package is organized into:
//   - Integrator: compute-then-advance recurrence over the arm phases
//   - Trail: fixed-capacity record store with a CPU mirror of the vertex buffer
//   - Scheduler: per-frame sampling, partial upload, draw and recovery
//   - Run: single-threaded event loop driving a Host and a Scheduler
//
// Rendering is delegated to a [backend.Backend]. The backend package ships a
// software backend; GPU and terminal backends live in backend/wgpu and
// backend/terminal.
//
// # Coordinate System
//
// Arms contribute radius*(sin φ, cos φ), so phase 0 points along +Y and
// positive velocities turn clockwise. World units are arbitrary; backends map
// [-Extent, Extent] onto the shorter side of the viewport.
//
// # Capacity
//
// A full trail either freezes ([PolicyFreeze]) or overwrites its oldest records
// ([PolicyWrap], the default). Both keep the cursor within [0, capacity].
package epicycle
