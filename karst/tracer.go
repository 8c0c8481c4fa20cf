package karst

import (
	"fmt"
	"math"
)

// Mix returns the conservative mixture of (volume, concentration)
// pairs: the volume-weighted mean over entries with strictly positive
// volume. Entries with volume <= 0 are ignored outright, so their
// concentrations may be non-finite without contaminating the result.
// When no positive volume is supplied, the unweighted mean of all
// concentrations is returned. A non-finite weighted sum is an error
// rather than a silent NaN: an undetected NaN here would be
// undiagnosable once routed through the reservoir network.
func Mix(vols, concs []float64) (float64, error) {
	if len(vols) != len(concs) {
		return 0., fmt.Errorf(" karst.Mix: %d volumes paired with %d concentrations", len(vols), len(concs))
	}
	if len(vols) == 0 {
		return 0., fmt.Errorf(" karst.Mix: nothing to mix")
	}
	vt := 0.
	for _, v := range vols {
		if v > 0 {
			vt += v
		}
	}
	if vt == 0 {
		m := 0.
		for _, c := range concs {
			m += c
		}
		return m / float64(len(concs)), nil
	}
	s := 0.
	for i, v := range vols {
		if v <= 0 {
			continue
		}
		s += v * concs[i]
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return 0., fmt.Errorf(" karst.Mix: weighted sum became non-finite at entry %d (v=%g, c=%g)", i, v, concs[i])
		}
	}
	return s / vt, nil
}

// tracerScheme sets the post-step δ18O of each store. A scheme is
// selected once at construction: conservativeMixing applies
// volume-weighted mixing over every inbound flux, while legacyMixing
// reproduces the earlier ad-hoc weighted averages together with their
// near-zero-denominator guards. The two regimes diverge numerically.
type tracerScheme interface {
	soil(c *Config, v *stepVals) (float64, error)
	epikarst(c *Config, v *stepVals) (float64, error)
	ks2(c *Config, v *stepVals) (float64, error)
	ks1(c *Config, v *stepVals) (float64, error)
}

type conservativeMixing struct{}

func (conservativeMixing) soil(c *Config, v *stepVals) (float64, error) {
	// inflow is precipitation less evaporation and implied runoff; a
	// drying surface leaves the stored signature untouched
	if v.fSurface < 0 {
		return v.prevSoil18O, nil
	}
	return Mix([]float64{v.fSurface, v.soil}, []float64{v.in.D18O, v.prevSoil18O})
}

func (conservativeMixing) epikarst(c *Config, v *stepVals) (float64, error) {
	return Mix([]float64{v.f1, v.prevEpik},
		[]float64{v.soil18o, v.prevEpik18O + v.eEvpt*c.KD18OEpi})
}

func (conservativeMixing) ks2(c *Config, v *stepVals) (float64, error) {
	if c.NewF8Routing {
		// bypass rain enters KS2 directly, carrying its own signature
		return Mix([]float64{v.f4, v.prevKS2, v.f8},
			[]float64{v.epik18o, v.prevKS218O, v.in.D18O})
	}
	return Mix([]float64{v.f4, v.prevKS2}, []float64{v.epik18o, v.prevKS218O})
}

func (conservativeMixing) ks1(c *Config, v *stepVals) (float64, error) {
	n := len(v.y)
	vols := make([]float64, 0, n+4)
	concs := make([]float64, 0, n+4)
	vols = append(vols, v.f3, v.prevKS1)
	concs = append(concs, v.epik18o, v.prevKS118O)
	for i := 0; i < n; i++ {
		vols = append(vols, v.y[i]*v.dpdf[i])
		concs = append(concs, v.epdf[i])
	}
	vols = append(vols, v.f7*c.AreaRatio)
	concs = append(concs, v.ks218o)
	if !c.NewF8Routing {
		vols = append(vols, v.f8)
		concs = append(concs, v.in.D18O)
	}
	return Mix(vols, concs)
}

type legacyMixing struct{}

func (legacyMixing) soil(c *Config, v *stepVals) (float64, error) {
	e := v.in.Prp + v.prevSoil
	if e < 0.01 {
		e = 0.001
	}
	// the soil fractionation coefficient enriches the rain signal
	// before it joins the store
	h := v.in.D18O + v.in.Evpt*c.KD18OSoil
	s := v.prevSoil/e*v.prevSoil18O + v.in.Prp/e*h
	if s > 0.0001 {
		s = v.prevSoil18O
	}
	return s, nil
}

func (legacyMixing) epikarst(c *Config, v *stepVals) (float64, error) {
	b := v.f1 + v.prevEpik
	if b <= 0.001 {
		b = 0.001
	}
	return v.prevEpik/b*(v.prevEpik18O+v.eEvpt*c.KD18OEpi) + v.f1/b*v.soil18o, nil
}

func (legacyMixing) ks2(c *Config, v *stepVals) (float64, error) {
	if v.f4 < 0.01 {
		return v.prevKS218O, nil
	}
	b := v.f4 + v.prevKS2
	return v.prevKS2/b*v.prevKS218O + v.f4/b*v.epik18o, nil
}

func (legacyMixing) ks1(c *Config, v *stepVals) (float64, error) {
	b := v.f3 + v.prevKS1 + v.wsum + v.f7*c.AreaRatio + v.f8
	e := 0.
	for i := range v.y {
		e += v.y[i] * v.dpdf[i] * v.epdf[i]
	}
	return v.prevKS1/b*v.prevKS118O + v.f3/b*v.epik18o + e/b +
		v.f7*c.AreaRatio/b*v.ks218o + v.f8/b*v.in.D18O, nil
}
