package md

import (
	"errors"
	"testing"

	"rebias/internal/ensemble"
	"rebias/internal/mat"
)

type stubModule struct {
	name     string
	binds    int
	bindErr  error
	sessions []*Session
}

func (m *stubModule) Name() string { return m.name }

func (m *stubModule) Sites() []int { return []int{0, 1} }

func (m *stubModule) Evaluate(v, v0 Vector, t float64) PotentialPointData {
	return PotentialPointData{}
}

func (m *stubModule) Update(v, v0 Vector, t float64) error { return nil }

func (m *stubModule) BindSession(session *Session) error {
	if m.bindErr != nil {
		return m.bindErr
	}
	m.binds++
	m.sessions = append(m.sessions, session)
	return nil
}

func testResources() *ensemble.Resources {
	return ensemble.NewResources(func(send, recv *mat.Matrix) error {
		return recv.CopyFrom(send)
	})
}

func TestWorkSpecRegistersModules(t *testing.T) {
	spec := NewWorkSpec()
	a := &stubModule{name: "a"}
	b := &stubModule{name: "b"}
	if err := spec.AddModule(a); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if err := spec.AddModule(b); err != nil {
		t.Fatalf("add b: %v", err)
	}
	if got := spec.Modules(); len(got) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(got))
	}
	if err := spec.AddModule(nil); !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected protocol error for nil module, got %v", err)
	}
}

func TestLaunchSessionBindsAllModules(t *testing.T) {
	spec := NewWorkSpec()
	a := &stubModule{name: "a"}
	b := &stubModule{name: "b"}
	_ = spec.AddModule(a)
	_ = spec.AddModule(b)

	res := testResources()
	session, err := LaunchSession(spec, res)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if session.ID() == "" {
		t.Fatal("expected a session identity")
	}
	if a.binds != 1 || b.binds != 1 {
		t.Fatalf("expected every module bound once, got a=%d b=%d", a.binds, b.binds)
	}
	if a.sessions[0].Resources() != res {
		t.Fatal("bound session does not expose the supplied resources")
	}
}

func TestLaunchSessionProtocolErrors(t *testing.T) {
	if _, err := LaunchSession(nil, testResources()); !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected protocol error for nil spec, got %v", err)
	}
	if _, err := LaunchSession(NewWorkSpec(), nil); !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected protocol error for nil resources, got %v", err)
	}

	spec := NewWorkSpec()
	bindFailed := errors.New("incompatible handle")
	_ = spec.AddModule(&stubModule{name: "bad", bindErr: bindFailed})
	if _, err := LaunchSession(spec, testResources()); !errors.Is(err, bindFailed) {
		t.Fatalf("expected bind failure to abort launch, got %v", err)
	}
}

func TestSessionCloseIsSingleShot(t *testing.T) {
	session, err := LaunchSession(NewWorkSpec(), testResources())
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := session.Close(); !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected protocol error on double close, got %v", err)
	}
}
