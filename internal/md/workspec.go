package md

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"rebias/internal/ensemble"
)

// ErrProtocol marks a violation of the binding protocol: a malformed
// handle, a double launch, a module bound twice. Protocol errors abort
// session construction before any step runs.
var ErrProtocol = errors.New("md: protocol error")

// WorkSpec is the shared registry of modules participating in a session.
// Callers pass the same *WorkSpec to module builders and to LaunchSession;
// it must outlive every potential registered into it.
type WorkSpec struct {
	mu      sync.RWMutex
	modules []RestraintPotential
}

func NewWorkSpec() *WorkSpec {
	return &WorkSpec{}
}

func (w *WorkSpec) AddModule(module RestraintPotential) error {
	if module == nil {
		return fmt.Errorf("%w: nil module", ErrProtocol)
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.modules = append(w.modules, module)
	return nil
}

// Modules returns a snapshot of the registered modules.
func (w *WorkSpec) Modules() []RestraintPotential {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]RestraintPotential, len(w.modules))
	copy(out, w.modules)
	return out
}

// Session represents one launched simulation on one replica. Launching
// binds every registered module to the session, handing each a non-owning
// reference to the ensemble resources. The session does not own the work
// spec; releasing the session leaves the spec reusable only for
// inspection, not for a second launch of the same bound modules.
type Session struct {
	id        string
	spec      *WorkSpec
	resources *ensemble.Resources

	mu     sync.Mutex
	closed bool
}

// LaunchSession binds all modules in spec. A nil spec or nil resources is
// a protocol error; a module that fails to bind aborts the launch.
func LaunchSession(spec *WorkSpec, resources *ensemble.Resources) (*Session, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w: launch requires a work specification", ErrProtocol)
	}
	if resources == nil {
		return nil, fmt.Errorf("%w: launch requires ensemble resources", ErrProtocol)
	}

	s := &Session{
		id:        uuid.NewString(),
		spec:      spec,
		resources: resources,
	}
	for _, module := range spec.Modules() {
		if err := module.BindSession(s); err != nil {
			return nil, fmt.Errorf("bind module %s: %w", module.Name(), err)
		}
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

// Resources exposes the ensemble reduction capability for bound modules.
func (s *Session) Resources() *ensemble.Resources { return s.resources }

func (s *Session) Spec() *WorkSpec { return s.spec }

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("%w: session %s already closed", ErrProtocol, s.id)
	}
	s.closed = true
	return nil
}
