// Package potential implements the restrained-ensemble pair potential: a
// bias that nudges a cooperating set of replicas toward an experimentally
// observed pairwise-distance distribution.
package potential

import (
	"fmt"
	"math"

	"rebias/internal/blur"
	"rebias/internal/ensemble"
	"rebias/internal/mat"
	"rebias/internal/md"
)

// Params is the immutable per-session configuration of an
// EnsemblePotential.
type Params struct {
	// Distance histogram geometry: NBins grid points spaced BinWidth
	// apart, covering [0, NBins·BinWidth).
	NBins    int
	BinWidth float64

	// Flat-bottom boundaries. Outside [MinDist, MaxDist] the bias is a
	// plain harmonic restoring force.
	MinDist float64
	MaxDist float64

	// Experimental reference distribution, one value per bin.
	Experimental []float64

	// NSamples distances are collected per window, one every SamplePeriod
	// of simulation time.
	NSamples     int
	SamplePeriod float64

	// NWindows completed windows are retained for the working distribution.
	NWindows int

	// K is the force constant. Note the ensemble reduction sums without
	// normalizing, so the effective strength of the histogram term scales
	// with the number of replicas.
	K float64

	// Sigma is the Gaussian width used both to smooth samples onto the
	// grid and to convolve the working distribution in the force law.
	Sigma float64
}

func (p Params) Validate() error {
	if p.NBins <= 0 {
		return fmt.Errorf("potential: nbins must be positive, got %d", p.NBins)
	}
	if p.BinWidth <= 0 {
		return fmt.Errorf("potential: binwidth must be positive, got %f", p.BinWidth)
	}
	if p.MaxDist < p.MinDist {
		return fmt.Errorf("potential: max_dist %f below min_dist %f", p.MaxDist, p.MinDist)
	}
	if len(p.Experimental) != p.NBins {
		return fmt.Errorf("potential: experimental has %d values, expected %d", len(p.Experimental), p.NBins)
	}
	if p.NSamples <= 0 {
		return fmt.Errorf("potential: nsamples must be positive, got %d", p.NSamples)
	}
	if p.SamplePeriod <= 0 {
		return fmt.Errorf("potential: sample_period must be positive, got %f", p.SamplePeriod)
	}
	if p.NWindows <= 0 {
		return fmt.Errorf("potential: nwindows must be positive, got %d", p.NWindows)
	}
	if p.Sigma <= 0 {
		return fmt.Errorf("potential: sigma must be positive, got %f", p.Sigma)
	}
	return nil
}

// EnsemblePotential owns the windowed histogram state for one bound
// restraint instance.
//
// Calculate is pure: it reads only the working distribution and may be
// invoked any number of times per step from any worker. Update mutates
// state and must be invoked at most once per step, on the lead process
// only. The split is the concurrency contract; there is no internal
// locking.
type EnsemblePotential struct {
	params Params

	// Working distribution: per-bin mean of retained windows minus the
	// experimental reference. This is the only state Calculate reads.
	histogram []float64

	samples       []float64
	currentSample int

	windows       []*mat.Matrix
	currentWindow int

	windowStart      float64
	nextSampleTime   float64
	nextWindowUpdate float64
}

func New(params Params) (*EnsemblePotential, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	p := &EnsemblePotential{
		params:    params,
		histogram: make([]float64, params.NBins),
		samples:   make([]float64, 0, params.NSamples),
	}
	p.nextSampleTime = params.SamplePeriod
	p.nextWindowUpdate = float64(params.NSamples) * params.SamplePeriod
	return p, nil
}

func (p *EnsemblePotential) Params() Params { return p.params }

// Calculate evaluates the bias force for the site at v relative to the
// reference site at v0. Zero separation yields zero force: the direction
// is undefined there. This path never fails and never mutates state.
func (p *EnsemblePotential) Calculate(v, v0 md.Vector, t float64) md.PotentialPointData {
	rdiff := v.Sub(v0)
	r := rdiff.Norm()

	var out md.PotentialPointData
	if r == 0 {
		return out
	}

	var f float64
	switch {
	case r > p.params.MaxDist:
		f = p.params.K * (p.params.MaxDist - r)
	case r < p.params.MinDist:
		f = p.params.K * (p.params.MinDist - r)
	default:
		// Derivative of the Gaussian-kernel convolution of the working
		// distribution, evaluated at r.
		sigma := p.params.Sigma
		normConst := math.Sqrt(2*math.Pi) * sigma * sigma * sigma
		fScal := 0.0
		for n, h := range p.histogram {
			x := float64(n)*p.params.BinWidth - r
			fScal += h * math.Exp(-0.5*x*x/(sigma*sigma)) * x / normConst
		}
		f = -p.params.K * fScal
	}

	out.Force = rdiff.Scale(f / r)
	return out
}

// Update advances the sampling state machine. It appends a distance sample
// once the sample bound is reached and, at a window boundary, smooths the
// completed sample buffer, runs the ensemble reduction, pushes the
// combined histogram into the window history, and rebuilds the working
// distribution. A reduction failure propagates; the caller must treat it
// as fatal to the run.
//
// Both scheduling bounds are computed multiplicatively from the window
// start rather than by accumulating increments, so floating-point error
// does not compound across a window. The bounds are still simulation-time
// comparisons: the host contract does not expose integer step counts, so
// SamplePeriod should be cleanly representable in binary.
func (p *EnsemblePotential) Update(v, v0 md.Vector, t float64, resources *ensemble.Resources) error {
	r := v.Sub(v0).Norm()

	if t >= p.nextSampleTime && len(p.samples) < p.params.NSamples {
		p.samples = append(p.samples, r)
		p.currentSample = len(p.samples)
		p.nextSampleTime = p.windowStart + float64(p.currentSample+1)*p.params.SamplePeriod
	}

	if t >= p.nextWindowUpdate {
		local := mat.New(1, p.params.NBins)
		combined := mat.New(1, p.params.NBins)

		b := blur.GridBlur{Low: 0, BinWidth: p.params.BinWidth, Sigma: p.params.Sigma}
		b.Apply(p.samples, local.Row(0))

		handle := resources.Handle()
		if err := handle.Reduce(local, combined); err != nil {
			return fmt.Errorf("window %d ensemble reduce: %w", p.currentWindow, err)
		}

		if len(p.windows) == p.params.NWindows {
			p.windows = p.windows[1:]
		}
		p.windows = append(p.windows, combined)
		p.rebuildWorkingDistribution()

		p.currentWindow++
		p.windowStart = t
		p.nextWindowUpdate = p.windowStart + float64(p.params.NSamples)*p.params.SamplePeriod
		p.samples = p.samples[:0]
		p.currentSample = 0
		p.nextSampleTime = t + p.params.SamplePeriod
	}
	return nil
}

func (p *EnsemblePotential) rebuildWorkingDistribution() {
	for i := range p.histogram {
		p.histogram[i] = 0
	}
	n := float64(len(p.windows))
	for _, window := range p.windows {
		row := window.Row(0)
		for i := range p.histogram {
			p.histogram[i] += (row[i] - p.params.Experimental[i]) / n
		}
	}
}

// WorkingDistribution returns a copy of the current bias input.
func (p *EnsemblePotential) WorkingDistribution() []float64 {
	out := make([]float64, len(p.histogram))
	copy(out, p.histogram)
	return out
}

// WindowHistory returns copies of the retained combined windows, oldest
// first.
func (p *EnsemblePotential) WindowHistory() [][]float64 {
	out := make([][]float64, len(p.windows))
	for i, w := range p.windows {
		row := make([]float64, w.Cols())
		copy(row, w.Row(0))
		out[i] = row
	}
	return out
}

// WindowCount reports how many window boundaries have completed.
func (p *EnsemblePotential) WindowCount() int { return p.currentWindow }

// SampleFill reports how many samples the current window has collected.
func (p *EnsemblePotential) SampleFill() int { return len(p.samples) }
