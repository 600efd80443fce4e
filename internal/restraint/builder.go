package restraint

import (
	"fmt"

	"rebias/internal/md"
	"rebias/internal/potential"
)

// Builder translates a declared work element (name, site-index pair,
// named-parameter mapping) into a configured restraint registered with a
// work specification. Missing or malformed parameters fail here, before
// any step runs.
type Builder struct {
	Name   string
	Sites  []int
	Params map[string]any
}

// Build validates the declaration, constructs the potential, and registers
// the restraint into spec. One bound instance is produced per session
// launch.
func (b Builder) Build(spec *md.WorkSpec) (*Restraint, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w: build requires a work specification", md.ErrProtocol)
	}

	params, err := ParamsFromMap(b.Params)
	if err != nil {
		return nil, fmt.Errorf("restraint %s: %w", b.Name, err)
	}

	pot, err := potential.New(params)
	if err != nil {
		return nil, fmt.Errorf("restraint %s: %w", b.Name, err)
	}

	r, err := NewRestraint(b.Name, b.Sites, pot)
	if err != nil {
		return nil, err
	}
	if err := spec.AddModule(r); err != nil {
		return nil, err
	}
	return r, nil
}

var requiredKeys = []string{
	"nbins",
	"binwidth",
	"min_dist",
	"max_dist",
	"experimental",
	"nsamples",
	"sample_period",
	"nwindows",
	"k",
	"sigma",
}

// ParamsFromMap decodes the named-parameter mapping declared by the
// workflow layer. JSON-shaped values (float64 numbers, []any lists) are
// accepted alongside native Go values.
func ParamsFromMap(raw map[string]any) (potential.Params, error) {
	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			return potential.Params{}, fmt.Errorf("missing required parameter %q", key)
		}
	}

	var params potential.Params
	var ok bool
	if params.NBins, ok = asInt(raw["nbins"]); !ok {
		return potential.Params{}, fmt.Errorf("parameter %q must be an integer", "nbins")
	}
	if params.BinWidth, ok = asFloat64(raw["binwidth"]); !ok {
		return potential.Params{}, fmt.Errorf("parameter %q must be a number", "binwidth")
	}
	if params.MinDist, ok = asFloat64(raw["min_dist"]); !ok {
		return potential.Params{}, fmt.Errorf("parameter %q must be a number", "min_dist")
	}
	if params.MaxDist, ok = asFloat64(raw["max_dist"]); !ok {
		return potential.Params{}, fmt.Errorf("parameter %q must be a number", "max_dist")
	}
	if params.Experimental, ok = asFloatSlice(raw["experimental"]); !ok {
		return potential.Params{}, fmt.Errorf("parameter %q must be a list of numbers", "experimental")
	}
	if params.NSamples, ok = asInt(raw["nsamples"]); !ok {
		return potential.Params{}, fmt.Errorf("parameter %q must be an integer", "nsamples")
	}
	if params.SamplePeriod, ok = asFloat64(raw["sample_period"]); !ok {
		return potential.Params{}, fmt.Errorf("parameter %q must be a number", "sample_period")
	}
	if params.NWindows, ok = asInt(raw["nwindows"]); !ok {
		return potential.Params{}, fmt.Errorf("parameter %q must be an integer", "nwindows")
	}
	if params.K, ok = asFloat64(raw["k"]); !ok {
		return potential.Params{}, fmt.Errorf("parameter %q must be a number", "k")
	}
	if params.Sigma, ok = asFloat64(raw["sigma"]); !ok {
		return potential.Params{}, fmt.Errorf("parameter %q must be a number", "sigma")
	}
	return params, nil
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

func asFloatSlice(v any) ([]float64, bool) {
	switch x := v.(type) {
	case []float64:
		out := make([]float64, len(x))
		copy(out, x)
		return out, true
	case []any:
		out := make([]float64, len(x))
		for i, item := range x {
			f, ok := asFloat64(item)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	default:
		return nil, false
	}
}
