// Package posterior computes the prior, posterior and sampling densities for
// a Normal likelihood with known variance and unknown mean.
//
// Everything in this package is pure: the only randomness enters through an
// explicit rand.Source passed to RegenerateObservations, and session state
// (the observation seeds) is passed in and returned rather than held here.
package posterior

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// GridSize is the number of points each density curve is evaluated at.
	GridSize = 250

	// GridMin and GridMax bound the x-grid (inclusive).
	GridMin = -5.0
	GridMax = 5.0

	// MaxObservations is the size of the observation pool.
	MaxObservations = 10

	// TrueMean is the mean of the sampling distribution that generates
	// observations.
	TrueMean = 2.0

	// MarkerHeight is the y extent of an observation marker.
	MarkerHeight = 0.2

	// YMax is the upper bound of the displayed density axis.
	YMax = 1.1
)

// grid is built once; Grid hands out copies.
var grid = linspace(GridMin, GridMax, GridSize)

// Grid returns the fixed x-grid shared by every curve.
func Grid() []float64 {
	out := make([]float64, len(grid))
	copy(out, grid)
	return out
}

func linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}

// Density evaluates the Normal probability density with the given mean and
// variance at every point of xs. variance must be positive; otherwise the
// result is NaN.
func Density(xs []float64, mean, variance float64) []float64 {
	out := make([]float64, len(xs))
	if !(variance > 0) {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	n := distuv.Normal{Mu: mean, Sigma: math.Sqrt(variance)}
	for i, x := range xs {
		out[i] = n.Prob(x)
	}
	return out
}

// SampleMean returns the arithmetic mean of the first n observations.
// It is 0 when n is 0. n larger than len(observations) is clamped.
func SampleMean(observations []float64, n int) float64 {
	if n > len(observations) {
		n = len(observations)
	}
	if n <= 0 {
		return 0
	}
	var sum float64
	for _, v := range observations[:n] {
		sum += v
	}
	return sum / float64(n)
}

// Observations maps standard-normal seeds to draws from N(mu, sigma²).
func Observations(seeds []float64, sigma, mu float64) []float64 {
	out := make([]float64, len(seeds))
	for i, z := range seeds {
		out[i] = z*sigma + mu
	}
	return out
}

// UpdatePosterior performs the conjugate Normal-Normal update of a
// N(mu0, var0) prior given the first n observations generated from seeds
// with standard deviation sigma around TrueMean.
//
// With n == 0 the posterior equals the prior.
func UpdatePosterior(mu0, var0, sigma float64, n int, seeds []float64) (muPost, varPost float64) {
	if n > len(seeds) {
		n = len(seeds)
	}
	if n < 0 {
		n = 0
	}
	variance := sigma * sigma
	obsMean := SampleMean(Observations(seeds, sigma, TrueMean), n)
	nf := float64(n)

	muPost = (nf*var0*obsMean + variance*mu0) / (nf*var0 + variance)
	varPost = (var0 * variance) / (nf*var0 + variance)
	return muPost, varPost
}

// RegenerateObservations draws count independent standard-normal values.
func RegenerateObservations(src rand.Source, count int) Seeds {
	unit := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	out := make(Seeds, count)
	for i := range out {
		out[i] = unit.Rand()
	}
	return out
}
