package md

import (
	"context"
	"fmt"
)

// Trajectory supplies the pair positions for a step. The real host engine
// integrates equations of motion; this synthetic runner exists so tests
// and the local driver can exercise the evaluate/update contract.
type Trajectory func(step int, t float64) (v, v0 Vector)

// Runner drives registered modules through a fixed-step loop the way the
// host engine would: Evaluate possibly several times per step from the
// force path, Update exactly once per step when this replica path is the
// lead process.
type Runner struct {
	Spec *WorkSpec
	// DT is the step size in simulation time units.
	DT float64
	// EvaluationsPerStep models the host calling the force path more than
	// once per step (domain decomposition, virtual sites). Zero means one.
	EvaluationsPerStep int
	// Lead marks this replica path as the lead process. Only the lead
	// invokes the update hook; every replica's lead must do so in the same
	// step or the collective inside the hook deadlocks.
	Lead bool
}

// Run advances steps time steps. Simulation time for step i is (i+1)·DT.
func (r *Runner) Run(ctx context.Context, steps int, traj Trajectory) error {
	if r.Spec == nil {
		return fmt.Errorf("%w: runner requires a work specification", ErrProtocol)
	}
	if r.DT <= 0 {
		return fmt.Errorf("md: step size must be positive, got %f", r.DT)
	}
	evals := r.EvaluationsPerStep
	if evals < 1 {
		evals = 1
	}

	modules := r.Spec.Modules()
	for step := 0; step < steps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := float64(step+1) * r.DT
		v, v0 := traj(step, t)

		for _, module := range modules {
			for i := 0; i < evals; i++ {
				module.Evaluate(v, v0, t)
			}
			if r.Lead {
				if err := module.Update(v, v0, t); err != nil {
					return fmt.Errorf("update %s at t=%f: %w", module.Name(), t, err)
				}
			}
		}
	}
	return nil
}
