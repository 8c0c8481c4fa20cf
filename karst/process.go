// Package karst simulates monthly water and δ18O balance through a
// cascade of subsurface reservoirs: a soil store draining to an
// epikarst, which feeds two deeper fracture/conduit stores (KS1, KS2)
// through gravity drainage, Weibull-delayed diffuse flow and
// conditional overflows. Each step derives drip intervals and
// drip-water tracer signatures for five stalagmite sites and hands them
// to a downstream fractionation model.
package karst

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// rainfall depth above which bypass flow activates
const bypassPrpThreshold = 7.

// floor applied to sanitized non-positive pCO2 values
const pco2Floor = 1e-16

// CalciteFn is the downstream drip-water/calcite fractionation model,
// treated as opaque: given a drip interval and cave conditions it
// returns the calcite δ18O and growth rate at one drip site.
type CalciteFn func(dripInterval, caveTemp, dripPCO2, cavePCO2, h, v, phi, d18o float64, step int) (float64, float64)

// Input is one month of forcing.
type Input struct {
	Step     int     // simulation timestep index
	Month    int     // calendar month in [1,12]
	Prp      float64 // precipitation depth
	Evpt     float64 // evapotranspiration depth
	SurfTemp float64 // surface temperature [°C]
	CaveTemp float64 // cave temperature [°C]
	D18O     float64 // precipitation δ18O [‰]
}

// Result is the fixed-order per-timestep output record.
type Result struct {
	Step, Month int

	F1, F3, F4, F5, F6, F7 float64

	Soil, Epik, KS1, KS2 float64 // updated store levels

	Soil18O, Epik18O, KS118O, KS218O float64 // updated store δ18O

	Diffuse float64 // diffuse flux generated this step

	Stal1, Stal2, Stal3, Stal4, Stal5 float64 // calcite δ18O per site

	IntKS2, IntEpi, IntStal3, IntStal2, IntKS1 float64 // drip intervals

	CaveTemp float64 // echoed

	Growth1, Growth2, Growth3, Growth4, Growth5 float64
}

// stepVals carries the intermediate quantities of one Step between the
// routing and mixing stages.
type stepVals struct {
	in            Input
	y, dpdf, epdf []float64

	fSurface, f1, f3, f4, f7, f8 float64
	wsum, eEvpt                  float64
	soil                         float64 // post-routing soil level

	prevSoil, prevEpik, prevKS1, prevKS2             float64
	prevSoil18O, prevEpik18O, prevKS118O, prevKS218O float64

	soil18o, epik18o, ks218o float64
}

// Processor steps the karst reservoir network. Construct with New. A
// Processor is not safe for concurrent use: its kernel cache is a
// single slot. Hold one per execution context.
type Processor struct {
	cfg  Config
	kern *KernelCache
	trc  tracerScheme
	calc CalciteFn
}

// New validates cfg and returns a Processor with its mixing regime and
// kernel variant bound. calc may be nil when CalcCalcite is off.
func New(cfg Config, calc CalciteFn) (*Processor, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	if cfg.CalcCalcite && calc == nil {
		return nil, fmt.Errorf(" karst.New: calcite fractionation enabled but no CalciteFn supplied")
	}
	p := &Processor{cfg: cfg, kern: &KernelCache{}, calc: calc}
	if cfg.NewTracerMixing {
		p.trc = conservativeMixing{}
	} else {
		p.trc = legacyMixing{}
	}
	return p, nil
}

// Step advances the network one month, updating st in place and
// returning the full output record. The caller owns st and must age its
// lag histories (State.Shift) between calls. Store levels exceeding
// their capacity on entry are silently reduced; levels are clamped to
// [0,capacity] on exit, discarding any excess.
func (p *Processor) Step(in Input, st *State) (Result, error) {
	c := &p.cfg
	if in.Month < 1 || in.Month > 12 {
		return Result{}, fmt.Errorf(" Processor.Step: month %d outside [1,12]", in.Month)
	}
	if len(st.Diffuse) != c.DelayMonths || len(st.Epik18Os) != c.DelayMonths {
		return Result{}, fmt.Errorf(" Processor.Step: lag buffers sized %d/%d, kernel horizon is %d",
			len(st.Diffuse), len(st.Epik18Os), c.DelayMonths)
	}

	// initial levels may not exceed capacity
	if st.Soil > c.SoilSize {
		st.Soil = c.SoilSize - 1.
	}
	if st.Epik > c.EpiSize {
		st.Epik = c.EpiSize - 1.
	}
	if st.KS1 > c.KS1Size {
		st.KS1 = c.KS1Size - 1.
	}
	if st.KS2 > c.KS2Size {
		st.KS2 = c.KS2Size - 1.
	}

	// cave conditions for the month: silent correction, not error
	mi := in.Month - 1
	de, df := c.MF.DriprateEmpty[mi], c.MF.DriprateFull[mi]
	dripPCO2 := c.MF.DripPCO2[mi] / 1.e6
	cavePCO2 := c.MF.CavePCO2[mi] / 1.e6
	h, v, phi := c.MF.RelHumidity[mi], c.MF.Ventilation[mi], c.Phi
	if v < 0 {
		v = 0.
	}
	if dripPCO2 < 0 {
		dripPCO2 = pco2Floor
	}
	if cavePCO2 < 0 {
		cavePCO2 = pco2Floor
	}
	if h < 0 {
		h = 0.
	}
	if h >= 1 {
		h = 0.99
	}
	if phi < 0 {
		phi = 0.
	}
	if phi > 1 {
		phi = 1.
	}

	y, err := p.kern.Y(c.LambdaWeibull, c.KWeibull, c.DelayMonths, !c.NewWeibull)
	if err != nil {
		return Result{}, fmt.Errorf(" Processor.Step: %v", err)
	}

	sv := &stepVals{
		in: in, y: y, dpdf: st.Diffuse, epdf: st.Epik18Os,
		prevSoil: st.Soil, prevEpik: st.Epik, prevKS1: st.KS1, prevKS2: st.KS2,
		prevSoil18O: st.Soil18O, prevEpik18O: st.Epik18O,
		prevKS118O: st.KS118O, prevKS218O: st.KS218O,
	}

	// soil store: precipitation in, evapotranspiration out; demand
	// beyond the level empties the store exactly to zero
	soil := Store{Sto: st.Soil, Cap: c.SoilSize}
	sv.fSurface = in.Prp - in.Evpt
	if d := soil.Overflow(sv.fSurface); d < 0 {
		sv.fSurface -= d // diagnostic reports only what the store gave up
	}

	// no outflow from a near-frozen surface
	if in.SurfTemp > 0 {
		sv.f1 = CalcFlux(c.F1, soil.Sto)
	}
	soil.Sto -= sv.f1
	sv.soil = soil.Sto

	// epikarst: gravity drainage f3 leaves first, then the diffuse flux
	// that the lag kernel will spread into KS1; overflow f4 activates on
	// the level remaining above the threshold
	epik := Store{Sto: st.Epik + sv.f1, Cap: c.EpiSize}
	sv.f3 = CalcFlux(c.F3, epik.Sto)
	dif := CalcFlux(c.KDiffuse, epik.Sto-sv.f3)
	st.Diffuse[0] = dif
	if rem := epik.Sto - sv.f3 - dif; rem > c.EpiOv {
		sv.f4 = CalcFlux(c.F4, rem-c.EpiOv)
	}

	// epikarst evaporation engages in rainless months, or once the soil
	// store drops to 10% of capacity; the taper may go negative and is
	// preserved as-is
	if in.Prp == 0 {
		sv.eEvpt = c.KEEvap * in.Evpt
	} else if soil.Sto <= 0.1*c.SoilSize {
		sv.eEvpt = c.KEEvap * in.Evpt * (1. - 4.*soil.Sto/c.SoilSize)
	}
	epik.Overflow(-(sv.f3 + sv.f4 + dif + sv.eEvpt))

	// bypass flow: surface rain jumping the matrix once rainfall
	// exceeds the activation depth
	if in.Prp > bypassPrpThreshold {
		if c.NewF8Routing {
			sv.f8 = (in.Prp - in.Evpt) * c.F8 // net of transpiration
		} else {
			sv.f8 = in.Prp * c.F8
		}
	}

	// KS2: overflow f7 spills toward KS1 above the cap, drainage f6
	// feeds the stal1 drip
	ks2 := Store{Sto: st.KS2 + sv.f4, Cap: c.KS2Size}
	if c.NewF8Routing {
		ks2.Sto += sv.f8
	}
	if ks2.Sto > c.OvCap {
		sv.f7 = CalcFlux(c.F7, ks2.Sto-c.OvCap)
	}
	f6 := CalcFlux(c.F6, ks2.Sto-sv.f7)
	ks2.Overflow(-(f6 + sv.f7))

	// KS1: gravity drainage, kernel-lagged diffuse flow and the scaled
	// KS2 overflow
	sv.wsum = floats.Dot(y, st.Diffuse)
	ks1 := Store{Sto: st.KS1 + sv.f3 + sv.wsum + sv.f7*c.AreaRatio, Cap: c.KS1Size}
	if !c.NewF8Routing {
		ks1.Sto += sv.f8
	}
	f5 := CalcFlux(c.F5, ks1.Sto)
	ks1.Overflow(-f5)

	// isotope mixing, in routing order; the epikarst history slot must
	// be written before KS1 reads it
	if sv.soil18o, err = p.trc.soil(c, sv); err != nil {
		return Result{}, fmt.Errorf(" Processor.Step: soil mixing: %v", err)
	}
	if sv.epik18o, err = p.trc.epikarst(c, sv); err != nil {
		return Result{}, fmt.Errorf(" Processor.Step: epikarst mixing: %v", err)
	}
	st.Epik18Os[0] = sv.epik18o
	if sv.ks218o, err = p.trc.ks2(c, sv); err != nil {
		return Result{}, fmt.Errorf(" Processor.Step: KS2 mixing: %v", err)
	}
	ks118o, err := p.trc.ks1(c, sv)
	if err != nil {
		return Result{}, fmt.Errorf(" Processor.Step: KS1 mixing: %v", err)
	}

	// bypass drip waters: fixed blends of KS1 water with present and
	// previous rain
	drip118o := ks118o*c.I + in.D18O*c.J + st.D18OPrev*c.K
	drip218o := ks118o*c.M + in.D18O*c.N

	nan := math.NaN()
	res := Result{
		Step: in.Step, Month: in.Month,
		F1: sv.f1, F3: sv.f3, F4: sv.f4, F5: f5, F6: f6, F7: sv.f7,
		Soil: soil.Sto, Epik: epik.Sto, KS1: ks1.Sto, KS2: ks2.Sto,
		Soil18O: sv.soil18o, Epik18O: sv.epik18o, KS118O: ks118o, KS218O: sv.ks218o,
		Diffuse: dif,
		Stal1:   nan, Stal2: nan, Stal3: nan, Stal4: nan, Stal5: nan,
		CaveTemp: in.CaveTemp,
		Growth1:  nan, Growth2: nan, Growth3: nan, Growth4: nan, Growth5: nan,
	}

	// drip intervals: derived from store levels, or taken straight from
	// the monthly table
	tbl := c.MF.DripInterval[mi]
	intKS2, intEpi := tbl, tbl
	intKS1, intStal3, intStal2 := tbl, tbl, tbl
	if c.CalcDrip {
		var ok bool
		if intKS2, ok = DripInterval(ks2, de, df); !ok {
			res.Stal1 = DripIsotopeSentinel
		}
		if intEpi, ok = DripInterval(epik, de, df); !ok {
			res.Stal4 = DripIsotopeSentinel
		}
		// the bypass sites share KS1's rate check but see
		// precipitation-boosted levels
		if intKS1, ok = DripInterval(ks1, de, df); !ok {
			res.Stal2, res.Stal3, res.Stal5 = DripIsotopeSentinel, DripIsotopeSentinel, DripIsotopeSentinel
			intStal3, intStal2 = DripIntervalSentinel, DripIntervalSentinel
		} else {
			intStal3, _ = DripInterval(Store{Sto: ks1.Sto + in.Prp, Cap: c.KS1Size}, de, df)
			intStal2, _ = DripInterval(Store{Sto: ks1.Sto + in.Prp + st.PrpPrev, Cap: c.KS1Size}, de, df)
		}
	}
	res.IntKS2, res.IntEpi, res.IntStal3, res.IntStal2, res.IntKS1 = intKS2, intEpi, intStal3, intStal2, intKS1

	if c.CalcCalcite {
		res.Stal1, res.Growth1 = p.calc(intKS2, in.CaveTemp, dripPCO2, cavePCO2, h, v, phi, sv.ks218o, in.Step)
		res.Stal4, res.Growth4 = p.calc(intEpi, in.CaveTemp, dripPCO2, cavePCO2, h, v, phi, sv.epik18o, in.Step)
		res.Stal5, res.Growth5 = p.calc(intKS1, in.CaveTemp, dripPCO2, cavePCO2, h, v, phi, ks118o, in.Step)
		res.Stal3, res.Growth3 = p.calc(intStal3, in.CaveTemp, dripPCO2, cavePCO2, h, v, phi, drip218o, in.Step)
		res.Stal2, res.Growth2 = p.calc(intStal2, in.CaveTemp, dripPCO2, cavePCO2, h, v, phi, drip118o, in.Step)
	}

	st.Soil, st.Epik, st.KS1, st.KS2 = soil.Sto, epik.Sto, ks1.Sto, ks2.Sto
	st.Soil18O, st.Epik18O, st.KS118O, st.KS218O = sv.soil18o, sv.epik18o, ks118o, sv.ks218o
	st.PrpPrev, st.D18OPrev = in.Prp, in.D18O

	return res, nil
}
