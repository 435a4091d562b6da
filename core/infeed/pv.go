// Package infeed computes the power delivered by PV systems and wind
// turbines. Infeed follows the grid convention: PV profile values are
// negative and reduce the net load of the connector.
package infeed

// PVResult holds the PV infeed of one tick.
type PVResult struct {
	Potential float64
	Actual    float64
}

// Output returns the PV series as [infeed potential, actual infeed], both
// reported as positive magnitudes.
func (r PVResult) Output() []float64 {
	return []float64{-r.Potential, -r.Actual}
}

// PV scales the profile value and caps the infeed at maxSetpoint when capped
// is set.
func PV(profileValue, scale, maxSetpoint float64, capped bool) PVResult {
	potential := profileValue * scale
	actual := potential
	if capped && -potential > maxSetpoint {
		actual = -maxSetpoint
	}
	return PVResult{Potential: potential, Actual: actual}
}
