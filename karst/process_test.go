package karst

import (
	"math"
	"math/rand"
	"testing"

	mrg63k3a "github.com/maseology/goRNG/MRG63k3a"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill12(v float64) [12]float64 {
	var a [12]float64
	for i := range a {
		a[i] = v
	}
	return a
}

func testConfig() Config {
	return Config{
		SoilSize: 100., EpiSize: 50., KS1Size: 80., KS2Size: 80.,
		EpiOv: 40., OvCap: 60.,
		F1: 0.1, F3: 0.1, F4: 0.1, F5: 0.1, F6: 0.1, F7: 0.1, F8: 0.1, KDiffuse: 0.1,
		KEEvap: 0.1,
		I:      0.5, J: 0.3, K: 0.2, M: 0.6, N: 0.4,
		AreaRatio:     1.,
		LambdaWeibull: 1., KWeibull: 1., DelayMonths: 12,
		Phi:             0.8,
		NewTracerMixing: true, NewF8Routing: true, NewWeibull: true,
		CalcDrip: true,
		MF: MonthlyForcing{
			DriprateFull:  fill12(1.),
			DriprateEmpty: fill12(0.1),
			DripInterval:  fill12(600.),
			DripPCO2:      fill12(1000.),
			CavePCO2:      fill12(400.),
			RelHumidity:   fill12(0.95),
			Ventilation:   fill12(0.1),
		},
	}
}

func testState(c *Config) *State {
	st := NewState(c)
	st.Soil18O, st.Epik18O, st.KS118O, st.KS218O = -5., -5., -5., -5.
	st.PrpPrev, st.D18OPrev = 5., -7.
	return st
}

func testInput() Input {
	return Input{Step: 0, Month: 1, Prp: 10., Evpt: 2., SurfTemp: 5., CaveTemp: 15., D18O: -6.}
}

func TestStepPinned(t *testing.T) {
	cfg := testConfig()
	p, err := New(cfg, nil)
	require.NoError(t, err)
	st := testState(&cfg)

	r, err := p.Step(testInput(), st)
	require.NoError(t, err)

	const tol = 1e-12
	assert.InDelta(t, 0.8, r.F1, tol)
	assert.InDelta(t, 0.08, r.F3, tol)
	assert.InDelta(t, 0., r.F4, tol)
	assert.InDelta(t, 0.008, r.F5, tol)
	assert.InDelta(t, 0.08, r.F6, tol)
	assert.InDelta(t, 0., r.F7, tol)
	assert.InDelta(t, 7.2, r.Soil, tol)
	assert.InDelta(t, 0.5056, r.Epik, tol)
	assert.InDelta(t, 0.072, r.KS1, tol)
	assert.InDelta(t, 0.72, r.KS2, tol)
	assert.InDelta(t, -5.526315789473684, r.Soil18O, tol)
	assert.InDelta(t, -5.526315789473684, r.Epik18O, tol)
	assert.InDelta(t, -5.526315789473684, r.KS118O, tol)
	assert.InDelta(t, -6., r.KS218O, tol)
	assert.InDelta(t, 0.072, r.Diffuse, tol)
	assert.InDelta(t, 9.25069380203515, r.IntKS2, 1e-10)
	assert.InDelta(t, 9.1658356309028, r.IntEpi, 1e-10)
	assert.InDelta(t, 9.91965082829084, r.IntKS1, 1e-10)
	assert.InDelta(t, 4.68801275139468, r.IntStal3, 1e-10)
	assert.InDelta(t, 3.70974922095266, r.IntStal2, 1e-10)
	assert.Equal(t, 15., r.CaveTemp)

	// fractionation is off: every site's calcite record is NaN
	for _, v := range []float64{r.Stal1, r.Stal2, r.Stal3, r.Stal4, r.Stal5,
		r.Growth1, r.Growth2, r.Growth3, r.Growth4, r.Growth5} {
		assert.True(t, math.IsNaN(v))
	}

	// state is written back and the carryover forcing rolls forward
	assert.InDelta(t, 7.2, st.Soil, tol)
	assert.InDelta(t, -6., st.KS218O, tol)
	assert.Equal(t, 10., st.PrpPrev)
	assert.Equal(t, -6., st.D18OPrev)
	assert.InDelta(t, 0.072, st.Diffuse[0], tol, "diffuse history slot 0 written in place")
	assert.InDelta(t, -5.526315789473684, st.Epik18Os[0], tol)
}

func TestStepFreezing(t *testing.T) {
	cfg := testConfig()
	p, err := New(cfg, nil)
	require.NoError(t, err)
	st := testState(&cfg)

	in := testInput()
	in.SurfTemp = -1.
	r, err := p.Step(in, st)
	require.NoError(t, err)

	const tol = 1e-12
	assert.Zero(t, r.F1, "no soil outflow below freezing")
	assert.Zero(t, r.F3)
	assert.Zero(t, r.F5)
	assert.InDelta(t, 0.08, r.F6, tol)
	assert.InDelta(t, 8., r.Soil, tol)
	assert.Zero(t, r.Epik, "epikarst evaporation still draws the store dry")
	assert.Zero(t, r.KS1)
	assert.InDelta(t, 0.72, r.KS2, tol)
	assert.InDelta(t, -5.5, r.Soil18O, tol)
	assert.InDelta(t, -5.25, r.Epik18O, tol)
	assert.InDelta(t, -1.43333333333333, r.KS118O, 1e-10, "no inflow: unweighted mean fallback")
	assert.InDelta(t, -6., r.KS218O, tol)
	assert.Zero(t, r.Diffuse)
	assert.InDelta(t, 10., r.IntEpi, 1e-10)
	assert.InDelta(t, 10., r.IntKS1, 1e-10)
	assert.InDelta(t, 9.25069380203515, r.IntKS2, 1e-10)
	assert.InDelta(t, 4.70588235294118, r.IntStal3, 1e-10)
	assert.InDelta(t, 3.72093023255814, r.IntStal2, 1e-10)
}

func TestStepLegacyRegime(t *testing.T) {
	cfg := testConfig()
	cfg.NewTracerMixing, cfg.NewF8Routing, cfg.NewWeibull = false, false, false
	p, err := New(cfg, nil)
	require.NoError(t, err)
	st := testState(&cfg)

	r, err := p.Step(testInput(), st)
	require.NoError(t, err)

	const tol = 1e-12
	assert.InDelta(t, 0.8, r.F1, tol)
	assert.InDelta(t, 0.08, r.F3, tol)
	assert.InDelta(t, 0., r.F4, tol)
	assert.InDelta(t, 0.108, r.F5, tol, "bypass routes to KS1 under the legacy regime")
	assert.InDelta(t, 0., r.F6, tol)
	assert.InDelta(t, 0., r.F7, tol)
	assert.InDelta(t, 7.2, r.Soil, tol)
	assert.InDelta(t, 0.5056, r.Epik, tol)
	assert.InDelta(t, 0.972, r.KS1, tol)
	assert.InDelta(t, 0., r.KS2, tol)
	assert.InDelta(t, -6., r.Soil18O, tol)
	assert.InDelta(t, -6., r.Epik18O, tol)
	assert.InDelta(t, -6., r.KS118O, tol)
	assert.InDelta(t, -5., r.KS218O, tol, "legacy KS2 carries over below the flux guard")
	assert.InDelta(t, 0.072, r.Diffuse, tol)
	assert.InDelta(t, 10., r.IntKS2, 1e-10)
	assert.InDelta(t, 9.1658356309028, r.IntEpi, 1e-10)
	assert.InDelta(t, 9.01428764591878, r.IntKS1, 1e-10)
	assert.InDelta(t, 4.4755745518831, r.IntStal3, 1e-10)
	assert.InDelta(t, 3.57545095375154, r.IntStal2, 1e-10)
}

type calciteCall struct {
	interval, caveTemp, dripPCO2, cavePCO2, h, v, phi, d18o float64
	step                                                    int
}

func TestStepCalciteCollaborator(t *testing.T) {
	cfg := testConfig()
	cfg.CalcCalcite = true

	var calls []calciteCall
	fake := func(iv, tc, dp, cp, h, v, phi, d18o float64, step int) (float64, float64) {
		calls = append(calls, calciteCall{iv, tc, dp, cp, h, v, phi, d18o, step})
		return float64(len(calls)), 0.1 * float64(len(calls))
	}

	p, err := New(cfg, fake)
	require.NoError(t, err)
	st := testState(&cfg)

	in := testInput()
	in.Step = 7
	r, err := p.Step(in, st)
	require.NoError(t, err)
	require.Len(t, calls, 5)

	// site order: KS2 drip, epikarst drip, KS1 drip, then the two
	// rain-blended bypass drips
	const tol = 1e-10
	ks118o := -5.526315789473684
	drip118o := ks118o*0.5 + -6.*0.3 + -7.*0.2
	drip218o := ks118o*0.6 + -6.*0.4
	assert.InDelta(t, -6., calls[0].d18o, tol)
	assert.InDelta(t, -5.526315789473684, calls[1].d18o, tol)
	assert.InDelta(t, -5.526315789473684, calls[2].d18o, tol)
	assert.InDelta(t, drip218o, calls[3].d18o, tol)
	assert.InDelta(t, drip118o, calls[4].d18o, tol)
	assert.InDelta(t, 9.25069380203515, calls[0].interval, tol)
	assert.InDelta(t, 9.1658356309028, calls[1].interval, tol)
	assert.InDelta(t, 9.91965082829084, calls[2].interval, tol)
	assert.InDelta(t, 4.68801275139468, calls[3].interval, tol)
	assert.InDelta(t, 3.70974922095266, calls[4].interval, tol)

	for i, c := range calls {
		assert.Equal(t, 15., c.caveTemp, "call %d", i)
		assert.InDelta(t, 1000./1e6, c.dripPCO2, 1e-15, "pCO2 handed over in atm, call %d", i)
		assert.InDelta(t, 400./1e6, c.cavePCO2, 1e-15, "call %d", i)
		assert.Equal(t, 0.95, c.h, "call %d", i)
		assert.Equal(t, 0.1, c.v, "call %d", i)
		assert.Equal(t, 0.8, c.phi, "call %d", i)
		assert.Equal(t, 7, c.step, "call %d", i)
	}

	assert.Equal(t, 1., r.Stal1)
	assert.Equal(t, 5., r.Stal2)
	assert.Equal(t, 4., r.Stal3)
	assert.Equal(t, 2., r.Stal4)
	assert.Equal(t, 3., r.Stal5)
	assert.InDelta(t, 0.1, r.Growth1, 1e-15)
	assert.InDelta(t, 0.5, r.Growth2, 1e-15)
}

func TestStepCalciteRequiresFn(t *testing.T) {
	cfg := testConfig()
	cfg.CalcCalcite = true
	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestStepDripTableFallback(t *testing.T) {
	cfg := testConfig()
	cfg.CalcDrip = false
	p, err := New(cfg, nil)
	require.NoError(t, err)
	st := testState(&cfg)

	r, err := p.Step(testInput(), st)
	require.NoError(t, err)
	for _, iv := range []float64{r.IntKS2, r.IntEpi, r.IntKS1, r.IntStal3, r.IntStal2} {
		assert.Equal(t, 600., iv)
	}
}

func TestStepMonthlyTableSelection(t *testing.T) {
	cfg := testConfig()
	cfg.CalcDrip = false
	for mi := 0; mi < 12; mi++ {
		cfg.MF.DripInterval[mi] = 100. * float64(mi+1)
	}
	p, err := New(cfg, nil)
	require.NoError(t, err)
	st := testState(&cfg)

	in := testInput()
	in.Month = 5
	r, err := p.Step(in, st)
	require.NoError(t, err)
	assert.Equal(t, 500., r.IntKS2)
	assert.Equal(t, 500., r.IntStal2)

	_, err = p.Step(Input{Month: 0}, st)
	assert.Error(t, err)
	_, err = p.Step(Input{Month: 13}, st)
	assert.Error(t, err)
}

func TestStepSanitizesOverfullStores(t *testing.T) {
	cfg := testConfig()
	p, err := New(cfg, nil)
	require.NoError(t, err)
	st := testState(&cfg)
	st.Soil = 150. // above capacity

	in := Input{Month: 1, Prp: 0., Evpt: 0., SurfTemp: -1., CaveTemp: 15., D18O: -6.}
	r, err := p.Step(in, st)
	require.NoError(t, err)
	assert.Equal(t, 99., r.Soil, "overfull store drops to capacity less one")
}

func TestStepLevelsStayBounded(t *testing.T) {
	cfg := testConfig()
	p, err := New(cfg, nil)
	require.NoError(t, err)
	st := testState(&cfg)

	rng := rand.New(mrg63k3a.New())
	rng.Seed(7)
	for j := 0; j < 1000; j++ {
		if j > 0 {
			st.Shift()
		}
		in := Input{
			Step: j, Month: j%12 + 1,
			Prp:      rng.Float64() * 300.,
			Evpt:     rng.Float64() * 50.,
			SurfTemp: rng.Float64()*40. - 10.,
			CaveTemp: 15.,
			D18O:     -8. + rng.Float64()*6.,
		}
		r, err := p.Step(in, st)
		require.NoError(t, err, "step %d", j)
		for _, lv := range []struct {
			v, cap float64
			n      string
		}{
			{r.Soil, cfg.SoilSize, "soil"},
			{r.Epik, cfg.EpiSize, "epikarst"},
			{r.KS1, cfg.KS1Size, "ks1"},
			{r.KS2, cfg.KS2Size, "ks2"},
		} {
			assert.GreaterOrEqual(t, lv.v, 0., "%s at step %d", lv.n, j)
			assert.LessOrEqual(t, lv.v, lv.cap, "%s at step %d", lv.n, j)
		}
		for _, f := range []float64{r.F1, r.F3, r.F4, r.F5, r.F6, r.F7} {
			assert.GreaterOrEqual(t, f, 0., "flux at step %d", j)
		}
	}
}

func TestConfigValidation(t *testing.T) {
	cfg := testConfig()
	cfg.I, cfg.J, cfg.K = 0.5, 0.5, 0.5
	_, err := New(cfg, nil)
	assert.Error(t, err, "bypass weights must sum to 1")

	cfg = testConfig()
	cfg.M = 1.5
	_, err = New(cfg, nil)
	assert.Error(t, err, "bypass weight outside [0,1]")

	cfg = testConfig()
	cfg.KS2Size = 0.
	_, err = New(cfg, nil)
	assert.Error(t, err, "capacities must be positive")

	cfg = testConfig()
	cfg.MF.DriprateEmpty[3] = 2. // above the full-store rate
	_, err = New(cfg, nil)
	assert.Error(t, err)
}
