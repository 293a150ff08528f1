package epicycle

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmptyChain is returned when a chain has no arms.
var ErrEmptyChain = errors.New("epicycle: chain has no arms")

// Arm is one link of an epicyclic chain.
type Arm struct {
	// Radius is the arm length in world units.
	Radius float64
	// Velocity is the phase advance per step in radians.
	Velocity float64
	// Phase is the initial phase in radians.
	Phase float64
}

// Chain is an ordered list of arms, outer arm first.
// Each arm is anchored at the tip of the previous one.
type Chain []Arm

// Validate reports whether the chain can be integrated.
func (c Chain) Validate() error {
	if len(c) == 0 {
		return ErrEmptyChain
	}
	for i, a := range c {
		for _, v := range []float64{a.Radius, a.Velocity, a.Phase} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("epicycle: arm %d: non-finite value %v", i, v)
			}
		}
	}
	return nil
}

// Reach returns the largest distance the tip can get from the origin.
func (c Chain) Reach() float64 {
	var r float64
	for _, a := range c {
		r += math.Abs(a.Radius)
	}
	return r
}

// Integrator advances the phases of a chain and computes its tip.
//
// Phases accumulate without wrapping. sin and cos take raw radians, so
// precision only degrades after a very large number of steps.
type Integrator struct {
	radii      []float64
	velocities []float64
	phases     []float64
	steps      uint64
}

// NewIntegrator creates an integrator starting at the chain's initial phases.
// The chain is copied; later changes to it have no effect.
func NewIntegrator(c Chain) *Integrator {
	in := &Integrator{
		radii:      make([]float64, len(c)),
		velocities: make([]float64, len(c)),
		phases:     make([]float64, len(c)),
	}
	for i, a := range c {
		in.radii[i] = a.Radius
		in.velocities[i] = a.Velocity
		in.phases[i] = a.Phase
	}
	return in
}

// Step returns the tip position for the current phases and then advances
// every phase by its velocity. The first call therefore reports the tip at
// the initial phases.
func (in *Integrator) Step() Vec3 {
	pos := in.Position()
	for i, v := range in.velocities {
		in.phases[i] += v
	}
	in.steps++
	return pos
}

// Position returns the tip for the current phases without advancing them.
func (in *Integrator) Position() Vec3 {
	var pos Vec3
	for i, r := range in.radii {
		sin, cos := math.Sincos(in.phases[i])
		pos = pos.Add(Vec3{X: sin, Y: cos}.Mul(r))
	}
	return pos
}

// Joints returns the end of every arm for the current phases. Joint i is the
// sum of arms 0 through i, so the last joint is the tip that the next Step
// reports.
func (in *Integrator) Joints() []Vec3 {
	joints := make([]Vec3, len(in.radii))
	var pos Vec3
	for i, r := range in.radii {
		sin, cos := math.Sincos(in.phases[i])
		pos = pos.Add(V3(sin, cos, 0).Mul(r))
		joints[i] = pos
	}
	return joints
}

// phaseVector returns a copy of the current phases.
func (in *Integrator) phaseVector() []float64 {
	out := make([]float64, len(in.phases))
	copy(out, in.phases)
	return out
}

// Steps returns the number of Step calls so far.
func (in *Integrator) Steps() uint64 {
	return in.steps
}
