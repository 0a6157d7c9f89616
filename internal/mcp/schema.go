package mcp

import "github.com/nvandessel/bayesplot/internal/posterior"

// PosteriorUpdateInput defines the input for the posterior_update tool.
// Omitted parameters keep their previous values.
type PosteriorUpdateInput struct {
	Mu0           *float64  `json:"mu0,omitempty" jsonschema:"Prior mean, between -5 and 5"`
	Sigma0        *float64  `json:"sigma0,omitempty" jsonschema:"Prior standard deviation, between 0.01 and 5"`
	Sigma         *float64  `json:"sigma,omitempty" jsonschema:"Known standard deviation of the likelihood, between 0.01 and 5"`
	N             *int      `json:"n,omitempty" jsonschema:"Number of observations to use, between 0 and 10"`
	Seeds         []float64 `json:"seeds,omitempty" jsonschema:"Ten standard-normal seeds replacing the held ones, each between -10 and 10"`
	IncludeCurves bool      `json:"include_curves,omitempty" jsonschema:"Also return the prior, posterior and sampling densities on the plotting grid"`
}

// apply overlays the provided fields on p.
func (in PosteriorUpdateInput) apply(p posterior.Params) posterior.Params {
	if in.Mu0 != nil {
		p.Mu0 = *in.Mu0
	}
	if in.Sigma0 != nil {
		p.Sigma0 = *in.Sigma0
	}
	if in.Sigma != nil {
		p.Sigma = *in.Sigma
	}
	if in.N != nil {
		p.N = *in.N
	}
	return p
}

// PosteriorUpdateOutput defines the output for the posterior_update tool.
type PosteriorUpdateOutput struct {
	Params            posterior.Params `json:"params" jsonschema:"Parameters the posterior was computed with"`
	TrueMean          float64          `json:"true_mean" jsonschema:"Mean the observations are drawn around"`
	PosteriorMean     float64          `json:"posterior_mean" jsonschema:"Posterior mean of the unknown mean"`
	PosteriorVariance float64          `json:"posterior_variance" jsonschema:"Posterior variance of the unknown mean"`
	SampleMean        float64          `json:"sample_mean" jsonschema:"Mean of the n observations used, 0 when n is 0"`
	Observations      []float64        `json:"observations" jsonschema:"The n observations used"`
	Curves            *CurvesOutput    `json:"curves,omitempty" jsonschema:"Densities on the plotting grid, when requested"`
}

// CurvesOutput holds the three densities sharing one x grid.
type CurvesOutput struct {
	X         []float64 `json:"x"`
	Prior     []float64 `json:"prior"`
	Posterior []float64 `json:"posterior"`
	Sampling  []float64 `json:"sampling"`
}

// PosteriorRegenerateInput defines the input for the posterior_regenerate tool.
type PosteriorRegenerateInput struct {
	Seed *uint64 `json:"seed,omitempty" jsonschema:"Random seed for a reproducible draw; omit for a fresh one"`
}

// PosteriorRegenerateOutput defines the output for the posterior_regenerate tool.
type PosteriorRegenerateOutput struct {
	Seeds     []float64             `json:"seeds" jsonschema:"The ten new standard-normal seeds"`
	Posterior PosteriorUpdateOutput `json:"posterior" jsonschema:"Posterior under the current parameters and the new seeds"`
}

func summarize(snap posterior.Snapshot, includeCurves bool) PosteriorUpdateOutput {
	out := PosteriorUpdateOutput{
		Params:            snap.Params,
		TrueMean:          snap.TrueMean,
		PosteriorMean:     snap.PosteriorMean,
		PosteriorVariance: snap.PosteriorVariance,
		SampleMean:        snap.SampleMean,
		Observations:      []float64{},
	}
	for _, m := range snap.Observations {
		if m.Visible {
			out.Observations = append(out.Observations, m.X)
		}
	}
	if includeCurves {
		out.Curves = &CurvesOutput{
			X:         snap.Prior.X,
			Prior:     snap.Prior.Y,
			Posterior: snap.Posterior.Y,
			Sampling:  snap.Sampling.Y,
		}
	}
	return out
}
