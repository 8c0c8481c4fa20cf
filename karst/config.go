package karst

import (
	"fmt"
	"math"
)

// MonthlyForcing tabulates cave conditions by calendar month.
type MonthlyForcing struct {
	DriprateFull  [12]float64 // drip rate at a full store [1/s]
	DriprateEmpty [12]float64 // drip rate at an empty store [1/s]
	DripInterval  [12]float64 // fixed drip interval used when drip derivation is off [s]
	DripPCO2      [12]float64 // drip-water pCO2 [ppmv]
	CavePCO2      [12]float64 // cave-air pCO2 [ppmv]
	RelHumidity   [12]float64 // cave relative humidity [fraction]
	Ventilation   [12]float64 // cave air velocity [m/s]
}

// Config holds the run-level constants of the reservoir network.
type Config struct {
	SoilSize, EpiSize, KS1Size, KS2Size float64 // store capacities

	EpiOv float64 // epikarst level above which overflow f4 activates
	OvCap float64 // KS2 level above which overflow f7 activates

	// flow coefficients: f1 soil→epikarst, f3 epikarst→KS1, f4
	// epikarst→KS2 (overflow), f5 KS1→drip, f6 KS2→drip, f7 KS2→KS1
	// (overflow), f8 surface bypass, KDiffuse epikarst→KS1 (delayed)
	F1, F3, F4, F5, F6, F7, F8, KDiffuse float64

	KEEvap              float64 // epikarst evaporation as a fraction of evapotranspiration
	KD18OSoil, KD18OEpi float64 // evaporative fractionation coefficients

	I, J, K, M, N float64 // bypass mixing weights: i+j+k=1 (site A), m+n=1 (site B)

	AreaRatio float64 // KS2:KS1 plan-area ratio applied to overflow f7

	LambdaWeibull, KWeibull float64 // lag-kernel scale and shape
	DelayMonths             int     // lag-kernel horizon [months]

	Phi float64 // water-film mixing parameter handed to the fractionation model

	NewTracerMixing bool // conservative volume-weighted mixing instead of the legacy averages
	NewF8Routing    bool // bypass flow net of transpiration, routed to KS2 instead of KS1
	NewWeibull      bool // density-sampled kernel instead of the differenced CDF
	CalcDrip        bool // derive drip intervals from store levels instead of the monthly table
	CalcCalcite     bool // run the fractionation model at each drip site

	MF MonthlyForcing
}

// check sanitizes and validates the configuration. Overflow thresholds
// are forced below their store's capacity; zero-valued horizon and area
// ratio take their defaults; bypass weights must be unit-sum.
func (c *Config) check() error {
	if c.SoilSize <= 0 || c.EpiSize <= 0 || c.KS1Size <= 0 || c.KS2Size <= 0 {
		return fmt.Errorf(" Config.check: store capacities must be positive")
	}
	if c.DelayMonths == 0 {
		c.DelayMonths = 12
	}
	if c.DelayMonths < 2 {
		return fmt.Errorf(" Config.check: kernel horizon %d too short", c.DelayMonths)
	}
	if c.AreaRatio == 0 {
		c.AreaRatio = 1.
	}
	if c.EpiOv >= c.EpiSize {
		c.EpiOv = c.EpiSize - 1.
	}
	if c.OvCap >= c.KS2Size {
		c.OvCap = c.KS2Size - 1.
	}
	for _, w := range []float64{c.I, c.J, c.K, c.M, c.N} {
		if w < 0 || w > 1 {
			return fmt.Errorf(" Config.check: bypass mixing weight %v outside [0,1]", w)
		}
	}
	if s := c.I + c.J + c.K; math.Abs(s-1.) > 1e-9 {
		return fmt.Errorf(" Config.check: bypass weights i+j+k=%v, must sum to 1", s)
	}
	if s := c.M + c.N; math.Abs(s-1.) > 1e-9 {
		return fmt.Errorf(" Config.check: bypass weights m+n=%v, must sum to 1", s)
	}
	for mi := 0; mi < 12; mi++ {
		if c.MF.DriprateEmpty[mi] < 0 {
			return fmt.Errorf(" Config.check: month %d empty-store driprate is negative", mi+1)
		}
		if c.MF.DriprateFull[mi] < c.MF.DriprateEmpty[mi] {
			return fmt.Errorf(" Config.check: month %d full-store driprate below empty-store driprate", mi+1)
		}
	}
	return nil
}
