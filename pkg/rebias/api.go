// Package rebias is the public entry point for driving a restrained
// ensemble of in-process replicas. A real deployment registers restraints
// with the host engine's work specification and lets the engine integrate;
// this facade wires the same building blocks to the synthetic runner so
// workflows and tests can exercise the full sampling/reduction cycle
// without an engine.
package rebias

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"rebias/internal/ensemble"
	"rebias/internal/md"
	"rebias/internal/model"
	"rebias/internal/potential"
	"rebias/internal/restraint"
	"rebias/internal/storage"
)

// Trajectory supplies the pair positions per replica and step.
type Trajectory func(replica, step int, t float64) (v, v0 md.Vector)

// RunRequest configures one local ensemble run. Params is the
// named-parameter mapping the builder validates; Store, when non-nil,
// receives a bias checkpoint from the lead replica after the run.
type RunRequest struct {
	RunID              string
	Name               string
	Sites              []int
	Params             map[string]any
	Replicas           int
	Steps              int
	DT                 float64
	EvaluationsPerStep int
	Trajectory         Trajectory
	Store              storage.Store
}

type ReplicaSummary struct {
	SessionID           string
	WindowCount         int
	WorkingDistribution []float64
}

type RunSummary struct {
	RunID    string
	Replicas []ReplicaSummary
}

// RunLocalEnsemble builds one restraint per replica, launches a session
// per replica over a shared in-process sum reduction, and drives every
// replica through the synthetic step loop. All replicas enter each window
// reduction together; any failure aborts the whole run.
func RunLocalEnsemble(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Replicas <= 0 {
		return RunSummary{}, fmt.Errorf("rebias: replica count must be positive, got %d", req.Replicas)
	}
	if req.Steps <= 0 {
		return RunSummary{}, fmt.Errorf("rebias: step count must be positive, got %d", req.Steps)
	}
	if req.Trajectory == nil {
		return RunSummary{}, fmt.Errorf("rebias: run requires a trajectory")
	}
	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	// Fail configuration problems before spawning any replica.
	if _, err := restraint.ParamsFromMap(req.Params); err != nil {
		return RunSummary{}, fmt.Errorf("restraint %s: %w", req.Name, err)
	}

	local, err := ensemble.NewLocal(req.Replicas)
	if err != nil {
		return RunSummary{}, err
	}

	summaries := make([]ReplicaSummary, req.Replicas)
	potentials := make([]*potential.EnsemblePotential, req.Replicas)
	errs := make([]error, req.Replicas)

	var wg sync.WaitGroup
	for rank := 0; rank < req.Replicas; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			summary, pot, err := runReplica(ctx, req, local, rank)
			summaries[rank] = summary
			potentials[rank] = pot
			errs[rank] = err
		}(rank)
	}
	wg.Wait()

	for rank, err := range errs {
		if err != nil {
			return RunSummary{}, fmt.Errorf("replica %d: %w", rank, err)
		}
	}

	if req.Store != nil {
		if err := saveCheckpoint(ctx, req, runID, potentials[0]); err != nil {
			return RunSummary{}, err
		}
	}

	return RunSummary{RunID: runID, Replicas: summaries}, nil
}

func runReplica(ctx context.Context, req RunRequest, local *ensemble.Local, rank int) (ReplicaSummary, *potential.EnsemblePotential, error) {
	params, err := restraint.ParamsFromMap(req.Params)
	if err != nil {
		return ReplicaSummary{}, nil, err
	}
	pot, err := potential.New(params)
	if err != nil {
		return ReplicaSummary{}, nil, err
	}
	r, err := restraint.NewRestraint(req.Name, req.Sites, pot)
	if err != nil {
		return ReplicaSummary{}, nil, err
	}

	spec := md.NewWorkSpec()
	if err := spec.AddModule(r); err != nil {
		return ReplicaSummary{}, nil, err
	}

	session, err := md.LaunchSession(spec, ensemble.NewResources(local.Reducer()))
	if err != nil {
		return ReplicaSummary{}, nil, err
	}
	defer func() { _ = session.Close() }()

	runner := &md.Runner{
		Spec:               spec,
		DT:                 req.DT,
		EvaluationsPerStep: req.EvaluationsPerStep,
		Lead:               true,
	}
	traj := func(step int, t float64) (md.Vector, md.Vector) {
		return req.Trajectory(rank, step, t)
	}
	if err := runner.Run(ctx, req.Steps, traj); err != nil {
		return ReplicaSummary{}, nil, err
	}

	return ReplicaSummary{
		SessionID:           session.ID(),
		WindowCount:         pot.WindowCount(),
		WorkingDistribution: pot.WorkingDistribution(),
	}, pot, nil
}

func saveCheckpoint(ctx context.Context, req RunRequest, runID string, pot *potential.EnsemblePotential) error {
	checkpoint := model.BiasCheckpoint{
		RunID:               runID,
		Restraint:           req.Name,
		WindowIndex:         pot.WindowCount(),
		SimulationTime:      float64(req.Steps) * req.DT,
		WorkingDistribution: pot.WorkingDistribution(),
		Windows:             pot.WindowHistory(),
		SampleFill:          pot.SampleFill(),
	}
	storage.StampVersions(&checkpoint)
	if err := req.Store.SaveCheckpoint(ctx, checkpoint); err != nil {
		return fmt.Errorf("save checkpoint for run %s: %w", runID, err)
	}
	return nil
}
