package karst

// State carries the full between-step condition of the reservoir
// network: store levels, their δ18O signatures, the lag histories of
// diffuse flow and epikarst isotopes (newest first), and the previous
// month's rainfall. The engine retains nothing between calls; the
// caller owns the State and threads it through successive Steps.
type State struct {
	Soil, Epik, KS1, KS2 float64 // store levels

	Soil18O, Epik18O, KS118O, KS218O float64 // store δ18O [‰]

	Diffuse  []float64 // lagged diffuse-flux history, slot 0 = current step
	Epik18Os []float64 // lagged epikarst δ18O history, slot 0 = current step

	PrpPrev, D18OPrev float64 // previous month's precipitation and its δ18O
}

// NewState returns a zeroed state with lag buffers sized to the
// configured kernel horizon.
func NewState(c *Config) *State {
	n := c.DelayMonths
	if n == 0 {
		n = 12
	}
	return &State{
		Diffuse:  make([]float64, n),
		Epik18Os: make([]float64, n),
	}
}

// Copy returns a deep copy of the state.
func (s *State) Copy() *State {
	c := *s
	c.Diffuse = append([]float64(nil), s.Diffuse...)
	c.Epik18Os = append([]float64(nil), s.Epik18Os...)
	return &c
}

// Shift ages the lag histories by one month, freeing slot 0 for the
// coming step. Call once before each Step after the first.
func (s *State) Shift() {
	copy(s.Diffuse[1:], s.Diffuse)
	copy(s.Epik18Os[1:], s.Epik18Os)
	s.Diffuse[0], s.Epik18Os[0] = 0., 0.
}
