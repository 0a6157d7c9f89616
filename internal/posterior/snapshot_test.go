package posterior

import (
	"math"
	"testing"
)

func TestCompute_NoObservationsPosteriorEqualsPrior(t *testing.T) {
	snap := Compute(Params{Mu0: 0, Sigma0: 1, Sigma: 1, N: 0}, RegenerateObservations(SeededSource(1), MaxObservations))

	if snap.PosteriorMean != 0 || snap.PosteriorVariance != 1 {
		t.Errorf("posterior = (%v, %v), want (0, 1)", snap.PosteriorMean, snap.PosteriorVariance)
	}
	for i := range snap.Prior.Y {
		if snap.Prior.Y[i] != snap.Posterior.Y[i] {
			t.Fatalf("posterior[%d] = %v, prior[%d] = %v; want identical curves", i, snap.Posterior.Y[i], i, snap.Prior.Y[i])
		}
	}
	for i, m := range snap.Observations {
		if m.Visible {
			t.Errorf("observation %d visible with n=0", i)
		}
	}
}

func TestCompute_SharedGrid(t *testing.T) {
	snap := Compute(Params{Mu0: 1, Sigma0: 0.5, Sigma: 2, N: 4}, zeroSeeds())
	xs := Grid()

	for _, c := range []Curve{snap.Prior, snap.Posterior, snap.Sampling} {
		if len(c.X) != GridSize || len(c.Y) != GridSize {
			t.Fatalf("curve lengths = (%d, %d), want %d", len(c.X), len(c.Y), GridSize)
		}
		for i := range xs {
			if c.X[i] != xs[i] {
				t.Fatalf("curve x[%d] = %v, want %v", i, c.X[i], xs[i])
			}
		}
	}
}

func TestCompute_SamplingIndependentOfN(t *testing.T) {
	seeds := RegenerateObservations(SeededSource(3), MaxObservations)
	want := Density(Grid(), TrueMean, 1.5*1.5)

	for n := 0; n <= MaxObservations; n++ {
		snap := Compute(Params{Mu0: -2, Sigma0: 1, Sigma: 1.5, N: n}, seeds)
		for i := range want {
			if snap.Sampling.Y[i] != want[i] {
				t.Fatalf("n=%d: sampling[%d] = %v, want %v", n, i, snap.Sampling.Y[i], want[i])
			}
		}
	}
}

func TestCompute_SamplingPeaksAtTrueMean(t *testing.T) {
	snap := Compute(DefaultParams(), zeroSeeds())

	peak := 0
	for i, y := range snap.Sampling.Y {
		if y > snap.Sampling.Y[peak] {
			peak = i
		}
	}
	step := (GridMax - GridMin) / float64(GridSize-1)
	if math.Abs(snap.Sampling.X[peak]-TrueMean) > step {
		t.Errorf("sampling curve peaks at %v, want within %v of %v", snap.Sampling.X[peak], step, TrueMean)
	}
}

func TestCompute_Markers(t *testing.T) {
	seeds := Seeds{-1, 0, 1, 2, 0, 0, 0, 0, 0, 0}
	snap := Compute(Params{Mu0: 0, Sigma0: 1, Sigma: 0.5, N: 3}, seeds)

	if len(snap.Observations) != MaxObservations {
		t.Fatalf("len(Observations) = %d, want %d", len(snap.Observations), MaxObservations)
	}

	wantX := []float64{1.5, 2, 2.5, 3}
	for i, x := range wantX {
		if !approxEqual(snap.Observations[i].X, x, tolerance) {
			t.Errorf("marker %d at %v, want %v", i, snap.Observations[i].X, x)
		}
	}
	for i, m := range snap.Observations {
		if want := i < 3; m.Visible != want {
			t.Errorf("marker %d visible = %v, want %v", i, m.Visible, want)
		}
	}
	if !approxEqual(snap.SampleMean, 2, tolerance) {
		t.Errorf("SampleMean = %v, want 2", snap.SampleMean)
	}
}

func TestCompute_Ranges(t *testing.T) {
	snap := Compute(DefaultParams(), zeroSeeds())
	if snap.XRange != (Range{Min: -5, Max: 5}) {
		t.Errorf("XRange = %+v", snap.XRange)
	}
	if snap.YRange != (Range{Min: 0, Max: 1.1}) {
		t.Errorf("YRange = %+v", snap.YRange)
	}
	if snap.TrueMean != 2 {
		t.Errorf("TrueMean = %v, want 2", snap.TrueMean)
	}
}
