package epicycle

// Scheduler defaults.
const (
	// DefaultInterval is the number of frames between samples.
	DefaultInterval = 8
	// DefaultCapacity is the number of trail records.
	DefaultCapacity = 10000
)

// Option configures a Scheduler during creation.
//
// Example:
//
//	s, err := epicycle.NewScheduler(b, chain,
//	    epicycle.WithInterval(4),
//	    epicycle.WithPolicy(epicycle.PolicyFreeze),
//	)
type Option func(*options)

type options struct {
	interval uint64
	capacity int
	policy   Policy
	color    RGBA
	base     RGBA

	joints     []float64
	jointColor RGBA
	hub        float64
	hubColor   RGBA
}

func defaultOptions() options {
	return options{
		interval: DefaultInterval,
		capacity: DefaultCapacity,
		policy:   PolicyWrap,
		color:    RGB(0, 0, 0),
		base:     RGB(0, 0, 0),

		jointColor: RGB(1, 0, 0),
		hubColor:   RGB(0, 0, 1),
	}
}

// WithInterval samples the chain every k frames. Values below 1 are
// treated as 1.
func WithInterval(k int) Option {
	return func(o *options) {
		if k < 1 {
			k = 1
		}
		o.interval = uint64(k)
	}
}

// WithCapacity sets the number of trail records.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithPolicy sets what happens when the trail is full.
func WithPolicy(p Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithColor sets the color of sampled records.
func WithColor(c RGBA) Option {
	return func(o *options) {
		o.color = c
	}
}

// WithBaseColor sets the color of unwritten trail slots.
func WithBaseColor(c RGBA) Option {
	return func(o *options) {
		o.base = c
	}
}

// WithJoints draws a circle of radii[i] around the end of arm i every frame.
// A non-positive radius leaves that joint undecorated.
//
// Example:
//
//	epicycle.WithJoints(75, 35, 15)
func WithJoints(radii ...float64) Option {
	return func(o *options) {
		o.joints = append([]float64(nil), radii...)
	}
}

// WithJointColor sets the color of the joint circles.
func WithJointColor(c RGBA) Option {
	return func(o *options) {
		o.jointColor = c
	}
}

// WithHub draws a fixed circle of the given radius around the origin.
func WithHub(radius float64, c RGBA) Option {
	return func(o *options) {
		o.hub = radius
		o.hubColor = c
	}
}
