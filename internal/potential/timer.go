package potential

import (
	"fmt"
	"time"

	"rebias/internal/ensemble"
	"rebias/internal/mat"
	"rebias/internal/md"
)

// TimerPotential is a minimal potential that applies no force and whose
// update hook does nothing but enter the ensemble reduction with a 1×1
// buffer, recording the wall-clock cost of each collective. It profiles
// the reduction facility with as little overhead as a potential can have.
type TimerPotential struct {
	timings []time.Duration
}

func NewTimer() *TimerPotential {
	return &TimerPotential{}
}

func (p *TimerPotential) Calculate(v, v0 md.Vector, t float64) md.PotentialPointData {
	return md.PotentialPointData{}
}

func (p *TimerPotential) Update(v, v0 md.Vector, t float64, resources *ensemble.Resources) error {
	send := mat.New(1, 1)
	recv := mat.New(1, 1)

	start := time.Now()
	handle := resources.Handle()
	if err := handle.Reduce(send, recv); err != nil {
		return fmt.Errorf("timer reduce: %w", err)
	}
	p.timings = append(p.timings, time.Since(start))
	return nil
}

// Timings returns the recorded per-reduction durations in call order.
func (p *TimerPotential) Timings() []time.Duration {
	out := make([]time.Duration, len(p.timings))
	copy(out, p.timings)
	return out
}
