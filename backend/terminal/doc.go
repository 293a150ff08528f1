// Package terminal renders trails into a terminal through tcell.
//
// The backend keeps vertex buffers in memory and, on Present, rasterizes
// every recorded line strip into screen cells with Bresenham's algorithm.
// World coordinates are mapped through backend.Config.Scale with cells
// treated as twice as tall as they are wide.
//
// Host owns the tcell screen and feeds the render loop with resize and
// close events. The backend binds to a Host (or any target exposing a
// screen) in Init:
//
//	host, err := terminal.Open(30 * time.Millisecond)
//	if err != nil {
//		return err
//	}
//	defer host.Close()
//
//	b := terminal.New(backend.Config{Extent: 400})
//	s, _ := epicycle.NewScheduler(b, chain)
//	return epicycle.Run(ctx, host, s)
package terminal
