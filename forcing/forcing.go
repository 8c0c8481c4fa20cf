// Package forcing holds the monthly meteorological drivers of a
// simulation: surface climate, cave climate, the precipitation isotope
// record and an optional observed drip-water series for evaluation.
package forcing

import "time"

type Forcing struct {
	T     []time.Time // month stamps
	Prp   []float64   // precipitation depth
	Evpt  []float64   // evapotranspiration depth; NaN entries are estimated at runtime
	Tsfc  []float64   // surface temperature [°C]
	Tcave []float64   // cave temperature [°C]
	D18O  []float64   // precipitation δ18O [‰]
	Obs   []float64   // observed drip-water δ18O [‰], all-NaN when unavailable
}

// Nstep returns the simulation length in months.
func (frc *Forcing) Nstep() int { return len(frc.T) }

// HasObs reports whether any observed drip-water value is present.
func (frc *Forcing) HasObs() bool {
	for _, v := range frc.Obs {
		if v == v { // not NaN
			return true
		}
	}
	return false
}
