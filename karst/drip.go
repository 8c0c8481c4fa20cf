package karst

// Sentinels reported when a computed drip rate is non-positive: such a
// site cannot drip, so the interval and any isotope record tied to it
// are flagged rather than dividing by zero.
const (
	DripIntervalSentinel = 9001.
	DripIsotopeSentinel  = -99.9
)

// DripRate linearly interpolates the drip rate between its empty-store
// and full-store endpoints.
func (s Store) DripRate(de, df float64) float64 {
	return s.Sto/s.Cap*(df-de) + de
}

// DripInterval converts a store level into the time between successive
// drips. ok is false when the interpolated rate is non-positive, in
// which case the sentinel interval is returned and the call site flags
// the isotope record.
func DripInterval(s Store, de, df float64) (float64, bool) {
	r := s.DripRate(de, df)
	if r <= 0 {
		return DripIntervalSentinel, false
	}
	return 1. / r, true
}
