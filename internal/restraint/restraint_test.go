package restraint

import (
	"errors"
	"testing"

	"rebias/internal/ensemble"
	"rebias/internal/mat"
	"rebias/internal/md"
)

type recordingPotential struct {
	evaluations int
	updates     int
	resources   *ensemble.Resources
}

func (p *recordingPotential) Calculate(v, v0 md.Vector, t float64) md.PotentialPointData {
	p.evaluations++
	return md.PotentialPointData{Force: md.Vector{1, 0, 0}}
}

func (p *recordingPotential) Update(v, v0 md.Vector, t float64, resources *ensemble.Resources) error {
	p.updates++
	p.resources = resources
	return nil
}

func identityReduce(send, recv *mat.Matrix) error {
	return recv.CopyFrom(send)
}

func TestRestraintDelegates(t *testing.T) {
	pot := &recordingPotential{}
	r, err := NewRestraint("pair-1", []int{3, 7}, pot)
	if err != nil {
		t.Fatalf("new restraint: %v", err)
	}

	if got := r.Sites(); got[0] != 3 || got[1] != 7 {
		t.Fatalf("unexpected sites %v", got)
	}

	out := r.Evaluate(md.Vector{1, 0, 0}, md.Vector{}, 0.5)
	if pot.evaluations != 1 || out.Force[0] != 1 {
		t.Fatalf("evaluate did not delegate: %d calls, force %+v", pot.evaluations, out.Force)
	}
}

func TestRestraintUpdateRequiresBind(t *testing.T) {
	r, err := NewRestraint("pair-1", []int{0, 1}, &recordingPotential{})
	if err != nil {
		t.Fatalf("new restraint: %v", err)
	}
	err = r.Update(md.Vector{1, 0, 0}, md.Vector{}, 1.0)
	if !errors.Is(err, md.ErrProtocol) {
		t.Fatalf("expected protocol error before bind, got %v", err)
	}
}

func TestRestraintBindAndUpdate(t *testing.T) {
	pot := &recordingPotential{}
	r, err := NewRestraint("pair-1", []int{0, 1}, pot)
	if err != nil {
		t.Fatalf("new restraint: %v", err)
	}

	spec := md.NewWorkSpec()
	if err := spec.AddModule(r); err != nil {
		t.Fatalf("add module: %v", err)
	}
	res := ensemble.NewResources(identityReduce)
	session, err := md.LaunchSession(spec, res)
	if err != nil {
		t.Fatalf("launch session: %v", err)
	}

	if err := r.Update(md.Vector{1, 0, 0}, md.Vector{}, 1.0); err != nil {
		t.Fatalf("update: %v", err)
	}
	if pot.updates != 1 || pot.resources != res {
		t.Fatalf("update did not receive bound resources")
	}

	// Re-binding a bound instance to a second session is a protocol
	// error.
	if err := r.BindSession(session); !errors.Is(err, md.ErrProtocol) {
		t.Fatalf("expected protocol error on re-bind, got %v", err)
	}
}

func TestNewRestraintRejectsBadDeclarations(t *testing.T) {
	if _, err := NewRestraint("", []int{0, 1}, &recordingPotential{}); err == nil {
		t.Fatal("expected error for missing name")
	}
	if _, err := NewRestraint("r", []int{0, 1}, nil); err == nil {
		t.Fatal("expected error for nil potential")
	}
	if _, err := NewRestraint("r", []int{0, 1, 2}, &recordingPotential{}); err == nil {
		t.Fatal("expected error for non-pair sites")
	}
}
