package karst

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// kernelKey identifies one parameterization of the lag kernel.
type kernelKey struct {
	w, z   float64
	n      int
	legacy bool
}

// KernelCache holds the most recently computed lag kernel. The kernel
// is re-derived only when the parameters or the variant change, so the
// per-timestep cost with run-level-constant parameters is a key
// comparison. The cache is a single slot: callers stepping independent
// parameter sets concurrently should hold one cache each (a miss always
// recomputes, so contention thrashes but never corrupts).
type KernelCache struct {
	key   kernelKey
	y     []float64
	ncomp int
}

// Y returns the normalized Weibull lag distribution of length n sampled
// over [0,2]: y[0]=0 (no zero-lag diffuse contribution) and sum(y)=1.
// w is the scale (lambda) and z the shape (k) parameter. The legacy
// variant differences an exponentiated-Weibull CDF instead of sampling
// the density. Callers must not modify the returned slice.
func (kc *KernelCache) Y(w, z float64, n int, legacy bool) ([]float64, error) {
	if w <= 0 || z <= 0 {
		return nil, fmt.Errorf(" KernelCache.Y: non-positive Weibull parameters (w=%v, z=%v)", w, z)
	}
	if n < 2 {
		return nil, fmt.Errorf(" KernelCache.Y: kernel horizon %d too short", n)
	}
	k := kernelKey{w, z, n, legacy}
	if kc.y != nil && kc.key == k {
		return kc.y, nil
	}
	var y []float64
	if legacy {
		y = weibullLegacy(w, z, n)
	} else {
		y = weibullDensity(w, z, n)
	}
	kc.key, kc.y = k, y
	kc.ncomp++
	return y, nil
}

// weibullDensity samples the two-parameter Weibull density (location
// fixed at zero) at n points linearly spaced over [0,2]; non-finite
// samples are replaced with a small constant before renormalizing.
func weibullDensity(w, z float64, n int) []float64 {
	d := distuv.Weibull{K: z, Lambda: w}
	y := make([]float64, n)
	for i := 1; i < n; i++ {
		p := d.Prob(2. * float64(i) / float64(n-1))
		if math.IsNaN(p) || math.IsInf(p, 0) {
			p = 0.001
		}
		y[i] = p
	}
	floats.Scale(1./floats.Sum(y), y)
	return y
}

// weibullLegacy differences the exponentiated-Weibull CDF
// F(x) = (1-exp(-x^z))^w over the same abscissae, forcing the first bin
// to zero. The differenced mass totals F(2) < 1, so it is renormalized
// to keep the unit-sum contract shared by both variants.
func weibullLegacy(w, z float64, n int) []float64 {
	y := make([]float64, n)
	prev := 0.
	for i := 1; i < n; i++ {
		x := 2. * float64(i) / float64(n-1)
		c := math.Pow(1.-math.Exp(-math.Pow(x, z)), w)
		y[i] = c - prev
		prev = c
	}
	floats.Scale(1./floats.Sum(y), y)
	return y
}
