// Package evap estimates in-cave evaporation from the water film on a
// stalagmite cap, used to fill gaps in the forcing record.
package evap

import "math"

// radius of the stalagmite cap water film [m]
const filmRadius = 0.017841241

// Flux returns the evaporative water flux [mol/s] from the cap film
// given cave temperature tc [°C], relative humidity h [fraction] and
// cave air velocity v [m/s]. Saturation vapour pressure over the film
// follows the Hyland-Wexler correlation; the ventilation term is an
// empirical wind function.
func Flux(tc, h, v float64) float64 {
	t := 273.15 + tc
	e := math.Exp(-6094.4642/t + 21.1249952 - 2.724552e-2*t +
		1.6853396e-5*t*t + 2.4575506*math.Log(t))
	e /= 1.3332e2 // Pa to torr
	a := math.Pi * filmRadius * filmRadius
	return a * (0.002198 + 0.0398*math.Pow(v, 0.5756)) * e * (1. - h) * 1000. / 3600. / 18.
}
