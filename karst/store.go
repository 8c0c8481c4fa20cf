package karst

import "math"

// Store is a simple linear reservoir: a water level bounded by a
// capacity, both in depth units (volume per unit area).
type Store struct {
	Sto, Cap float64
}

// Overflow adds p to the store and clamps the level to [0,Cap]. The
// returned value is the amount discarded: negative when the store was
// drawn below empty, positive when it spilled past capacity. Spilled
// mass is lost, not routed elsewhere.
func (s *Store) Overflow(p float64) float64 {
	s.Sto += p
	if s.Sto < 0 {
		d := s.Sto
		s.Sto = 0.
		return d
	} else if s.Sto > s.Cap {
		d := s.Sto - s.Cap
		s.Sto = s.Cap
		return d
	}
	return 0.
}

// CalcFlux computes the outflow from a store level under the
// proportionality constant k; the flux never exceeds the level itself,
// so a store can at most drain dry in one timestep.
func CalcFlux(k, sto float64) float64 {
	return math.Min(k*sto, sto)
}
