package posterior

import (
	"errors"
	"fmt"
	"math"
)

// Slider bounds for the interactive controls.
const (
	MinMu0   = -5.0
	MaxMu0   = 5.0
	MinSigma = 0.01
	MaxSigma = 5.0
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("invalid parameters")

// Params are the user-controlled inputs of the model.
type Params struct {
	// Mu0 is the prior mean.
	Mu0 float64 `json:"mu0" yaml:"mu0"`

	// Sigma0 is the prior standard deviation; the prior variance is Sigma0².
	Sigma0 float64 `json:"sigma0" yaml:"sigma0"`

	// Sigma is the known standard deviation of the sampling distribution.
	Sigma float64 `json:"sigma" yaml:"sigma"`

	// N is how many of the observations are used, 0..MaxObservations.
	N int `json:"n" yaml:"n"`
}

// DefaultParams returns the initial slider positions.
func DefaultParams() Params {
	return Params{Mu0: 0, Sigma0: 1, Sigma: 1, N: 0}
}

// Validate checks that p lies within the slider ranges. Both standard
// deviations must be strictly positive for the densities to be defined.
func (p Params) Validate() error {
	if p.Mu0 < MinMu0 || p.Mu0 > MaxMu0 {
		return fmt.Errorf("%w: mu0 must be in [%g, %g], got %g", ErrInvalidParams, MinMu0, MaxMu0, p.Mu0)
	}
	if p.Sigma0 < MinSigma || p.Sigma0 > MaxSigma {
		return fmt.Errorf("%w: sigma0 must be in [%g, %g], got %g", ErrInvalidParams, MinSigma, MaxSigma, p.Sigma0)
	}
	if p.Sigma < MinSigma || p.Sigma > MaxSigma {
		return fmt.Errorf("%w: sigma must be in [%g, %g], got %g", ErrInvalidParams, MinSigma, MaxSigma, p.Sigma)
	}
	if p.N < 0 || p.N > MaxObservations {
		return fmt.Errorf("%w: n must be in [0, %d], got %d", ErrInvalidParams, MaxObservations, p.N)
	}
	return nil
}

// Seeds are standard-normal draws from which observations are derived.
type Seeds []float64

// MaxSeed bounds the magnitude of a seed so that z*sigma+TrueMean and the
// posterior built from it stay finite.
const MaxSeed = 10.0

// Validate checks that there is exactly one finite seed per observation slot
// and that no seed exceeds MaxSeed in magnitude.
func (s Seeds) Validate() error {
	if len(s) != MaxObservations {
		return fmt.Errorf("%w: expected %d seeds, got %d", ErrInvalidParams, MaxObservations, len(s))
	}
	for i, z := range s {
		if math.IsNaN(z) || math.Abs(z) > MaxSeed {
			return fmt.Errorf("%w: seed %d must be finite with |z| <= %g, got %g", ErrInvalidParams, i, MaxSeed, z)
		}
	}
	return nil
}

// Curve is a density evaluated over the grid.
type Curve struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// Marker is an observation drawn as a vertical segment at X.
type Marker struct {
	X       float64 `json:"x"`
	Visible bool    `json:"visible"`
}

// Range is a closed display interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Snapshot is everything the panel needs to draw one frame.
type Snapshot struct {
	Params            Params   `json:"params"`
	TrueMean          float64  `json:"true_mean"`
	PosteriorMean     float64  `json:"posterior_mean"`
	PosteriorVariance float64  `json:"posterior_variance"`
	SampleMean        float64  `json:"sample_mean"`
	Prior             Curve    `json:"prior"`
	Posterior         Curve    `json:"posterior"`
	Sampling          Curve    `json:"sampling"`
	Observations      []Marker `json:"observations"`
	XRange            Range    `json:"x_range"`
	YRange            Range    `json:"y_range"`
}

// Compute builds a snapshot from the current parameters and seeds. It never
// reuses earlier results: every curve is evaluated from scratch.
func Compute(p Params, seeds Seeds) Snapshot {
	xs := Grid()
	var0 := p.Sigma0 * p.Sigma0
	variance := p.Sigma * p.Sigma

	n := p.N
	if n > len(seeds) {
		n = len(seeds)
	}

	muPost, varPost := UpdatePosterior(p.Mu0, var0, p.Sigma, n, seeds)
	obs := Observations(seeds, p.Sigma, TrueMean)

	markers := make([]Marker, len(obs))
	for i, x := range obs {
		markers[i] = Marker{X: x, Visible: i < n}
	}

	return Snapshot{
		Params:            p,
		TrueMean:          TrueMean,
		PosteriorMean:     muPost,
		PosteriorVariance: varPost,
		SampleMean:        SampleMean(obs, n),
		Prior:             Curve{X: xs, Y: Density(xs, p.Mu0, var0)},
		Posterior:         Curve{X: xs, Y: Density(xs, muPost, varPost)},
		Sampling:          Curve{X: xs, Y: Density(xs, TrueMean, variance)},
		Observations:      markers,
		XRange:            Range{Min: GridMin, Max: GridMax},
		YRange:            Range{Min: 0, Max: YMax},
	}
}
