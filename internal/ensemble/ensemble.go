// Package ensemble provides the cross-replica reduction capability used by
// restrained-ensemble potentials. The capability is injected at session
// bind time; potentials never reach into global state to find it.
package ensemble

import (
	"errors"
	"fmt"

	"rebias/internal/mat"
)

// ErrNoReducer is returned when a reduction is requested through resources
// that were never wired to a reducer.
var ErrNoReducer = errors.New("ensemble: no reducer configured")

// ReduceFunc performs a blocking all-reduce SUM of send across the
// cooperating replica set and writes the combined result into recv. It does
// not normalize: the combined histogram is an element-wise sum, so the
// effective force constant of a potential built on it scales with ensemble
// size. Every replica must enter the reduction in the same step or the run
// deadlocks; that scheduling is the host's responsibility.
type ReduceFunc func(send, recv *mat.Matrix) error

// Resources wraps the reduction facility owned by the execution context.
// The potential holds a non-owning reference; the context must keep the
// underlying facility alive for the lifetime of the session.
type Resources struct {
	reduce ReduceFunc
}

func NewResources(reduce ReduceFunc) *Resources {
	return &Resources{reduce: reduce}
}

// Handle returns a fresh per-use handle. Requesting a handle each time a
// reduction is needed keeps failure handling local to the update that
// triggered it.
func (r *Resources) Handle() Handle {
	return Handle{reduce: r.reduce}
}

// Handle is a short-lived view over the reduction capability.
type Handle struct {
	reduce ReduceFunc
}

// Reduce runs the collective. A failure is fatal to the run: there is no
// retry and no partial-result path.
func (h Handle) Reduce(send, recv *mat.Matrix) error {
	if h.reduce == nil {
		return ErrNoReducer
	}
	if send == nil || recv == nil {
		return errors.New("ensemble: reduce requires non-nil buffers")
	}
	if !send.SameShape(recv) {
		return fmt.Errorf("ensemble: send %dx%d and recv %dx%d differ in shape",
			send.Rows(), send.Cols(), recv.Rows(), recv.Cols())
	}
	return h.reduce(send, recv)
}
