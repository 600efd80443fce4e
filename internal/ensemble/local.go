package ensemble

import (
	"fmt"
	"sync"

	"rebias/internal/mat"
)

// Local is an in-process replica set performing the blocking sum
// all-reduce. Each of the n replicas calls its ReduceFunc once per round;
// all calls rendezvous, the element-wise sum is computed, and every caller
// receives the combined buffer. It exists for tests and the local driver;
// a real multi-process host supplies its own collective.
//
// Like the real collective there is no timeout: a replica that stops
// calling its reducer leaves the remaining participants blocked.
type Local struct {
	replicas int

	mu       sync.Mutex
	cond     *sync.Cond
	arrived  int
	departed int
	sum      *mat.Matrix
	failed   error
}

func NewLocal(replicas int) (*Local, error) {
	if replicas <= 0 {
		return nil, fmt.Errorf("ensemble: replica count must be positive, got %d", replicas)
	}
	l := &Local{replicas: replicas}
	l.cond = sync.NewCond(&l.mu)
	return l, nil
}

func (l *Local) Replicas() int { return l.replicas }

// Reducer returns the ReduceFunc for one replica slot. Each slot must be
// used by exactly one caller per round.
func (l *Local) Reducer() ReduceFunc {
	return l.reduce
}

func (l *Local) reduce(send, recv *mat.Matrix) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.failed != nil {
		return l.failed
	}

	// Hold newcomers back while the previous round drains.
	for l.departed > 0 {
		l.cond.Wait()
		if l.failed != nil {
			return l.failed
		}
	}

	if l.sum == nil {
		l.sum = send.Clone()
	} else if err := l.sum.AddInPlace(send); err != nil {
		// A shape disagreement between replicas poisons the collective:
		// there is no partial-result path, every participant fails.
		l.failed = fmt.Errorf("ensemble: replica buffers disagree: %w", err)
		l.cond.Broadcast()
		return l.failed
	}
	l.arrived++

	if l.arrived == l.replicas {
		l.cond.Broadcast()
	} else {
		for l.arrived < l.replicas && l.failed == nil {
			l.cond.Wait()
		}
		if l.failed != nil {
			return l.failed
		}
	}

	if err := recv.CopyFrom(l.sum); err != nil {
		l.failed = fmt.Errorf("ensemble: receive buffer mismatch: %w", err)
		l.cond.Broadcast()
		return l.failed
	}

	l.departed++
	if l.departed == l.replicas {
		l.arrived = 0
		l.departed = 0
		l.sum = nil
		l.cond.Broadcast()
	}
	return nil
}
