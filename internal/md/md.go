// Package md defines the host-engine contract this plugin binds against:
// the restraint interface the engine calls into, the shared work
// specification that modules are registered with, and the session that
// wires ensemble resources to registered modules at launch.
package md

import "math"

// Vector is a Cartesian position or force.
type Vector [3]float64

func (v Vector) Sub(other Vector) Vector {
	return Vector{v[0] - other[0], v[1] - other[1], v[2] - other[2]}
}

func (v Vector) Scale(s float64) Vector {
	return Vector{v[0] * s, v[1] * s, v[2] * s}
}

func (v Vector) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// PotentialPointData carries one force evaluation's contribution back to
// the host. The force applies to the site at v; the host applies the
// opposite force to the reference site.
type PotentialPointData struct {
	Force  Vector
	Energy float64
}

// RestraintPotential is the interface the host engine drives.
//
// Evaluate may be called zero, one, or many times per step, from any
// worker the host chooses; implementations must not mutate shared state
// there. Update is called at most once per step and only on the lead
// process of a replica, so it may mutate the potential's own state without
// locking. BindSession is called once at session launch.
type RestraintPotential interface {
	Name() string
	Sites() []int
	Evaluate(v, v0 Vector, t float64) PotentialPointData
	Update(v, v0 Vector, t float64) error
	BindSession(session *Session) error
}
