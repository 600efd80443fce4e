// Package restraint adapts bias potentials to the host engine's restraint
// interface and builds configured instances from declared parameters.
package restraint

import (
	"fmt"

	"rebias/internal/ensemble"
	"rebias/internal/md"
)

// Potential is the shape a bias implementation must expose: a pure force
// evaluation and a stateful update hook taking injected ensemble
// resources.
type Potential interface {
	Calculate(v, v0 md.Vector, t float64) md.PotentialPointData
	Update(v, v0 md.Vector, t float64, resources *ensemble.Resources) error
}

// Restraint wraps a Potential into md.RestraintPotential. It stores a
// non-owning reference to the session's ensemble resources at bind time;
// the session's execution context keeps the underlying facility alive.
type Restraint struct {
	name      string
	sites     []int
	potential Potential
	resources *ensemble.Resources
}

func NewRestraint(name string, sites []int, potential Potential) (*Restraint, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: restraint requires a name", md.ErrProtocol)
	}
	if potential == nil {
		return nil, fmt.Errorf("%w: restraint %s requires a potential", md.ErrProtocol, name)
	}
	if len(sites) != 2 {
		return nil, fmt.Errorf("restraint %s: expected a site pair, got %d sites", name, len(sites))
	}
	r := &Restraint{
		name:      name,
		potential: potential,
		sites:     make([]int, len(sites)),
	}
	copy(r.sites, sites)
	return r, nil
}

func (r *Restraint) Name() string { return r.name }

func (r *Restraint) Sites() []int {
	out := make([]int, len(r.sites))
	copy(out, r.sites)
	return out
}

// Evaluate delegates to the pure force path. Safe under concurrent,
// multiplicity-unknown invocation.
func (r *Restraint) Evaluate(v, v0 md.Vector, t float64) md.PotentialPointData {
	return r.potential.Calculate(v, v0, t)
}

// Update delegates to the stateful hook, handing it the bound resources.
func (r *Restraint) Update(v, v0 md.Vector, t float64) error {
	if r.resources == nil {
		return fmt.Errorf("%w: restraint %s updated before session bind", md.ErrProtocol, r.name)
	}
	return r.potential.Update(v, v0, t, r.resources)
}

// BindSession acquires the ensemble reduction capability from the session.
// Binding an already-bound restraint to a second session is refused:
// swapping capabilities mid-run is never intended.
func (r *Restraint) BindSession(session *md.Session) error {
	if session == nil {
		return fmt.Errorf("%w: bind requires a session", md.ErrProtocol)
	}
	if r.resources != nil {
		return fmt.Errorf("%w: restraint %s is already bound", md.ErrProtocol, r.name)
	}
	r.resources = session.Resources()
	return nil
}
