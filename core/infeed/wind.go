package infeed

import "math"

// WindParams converts wind speed into power.
type WindParams struct {
	// ConversionFactor is the power in kW produced per m/s of wind speed
	// and unit of scale.
	ConversionFactor float64 `json:"conversion_factor"`
	MinSpeed         float64 `json:"min_speed"`
	MaxSpeed         float64 `json:"max_speed"`
}

// WindResult holds the wind infeed of one tick. Power values are positive.
type WindResult struct {
	Potential float64
	Actual    float64
	// Speed is the wind speed that would produce Actual.
	Speed float64
}

// Output returns the wind series as [potential, actual].
func (r WindResult) Output() []float64 {
	return []float64{r.Potential, r.Actual}
}

// Wind converts a wind speed profile value into power, caps it at
// maxSetpoint when capped is set and derives the equivalent wind speed,
// clamped to the configured band.
func Wind(speed, scale float64, p WindParams, maxSetpoint float64, capped bool) WindResult {
	k := scale * p.ConversionFactor
	potential := speed * k
	if math.IsNaN(potential) || potential < 0 {
		potential = 0
	}
	actual := potential
	if capped {
		actual = math.Min(actual, math.Max(maxSetpoint, 0))
	}
	eq := p.MinSpeed
	if k != 0 {
		eq = actual / k
	}
	if eq < p.MinSpeed {
		eq = p.MinSpeed
	}
	if p.MaxSpeed > 0 && eq > p.MaxSpeed {
		eq = p.MaxSpeed
	}
	return WindResult{Potential: potential, Actual: actual, Speed: eq}
}
