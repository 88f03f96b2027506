package series

import "github.com/snowlineapp/snowline/internal/models"

// Snow model constants. These reproduce documented simplifications, not
// meteorology: the real snow-to-liquid ratio varies roughly 5:1 to 20:1 and
// is intentionally not modeled.
const (
	// SnowTempThresholdC is the temperature at or below which forecast
	// precipitation is counted as snowfall.
	SnowTempThresholdC = 2.0
	// MeltRatePerDegC is the per-step melt in cm per degree above freezing,
	// capped at the current depth.
	MeltRatePerDegC = 0.1
	// SnowPerPrecipRatio converts precipitation (mm) to added depth at 1:1.
	SnowPerPrecipRatio = 1.0
)

// Params are the snow model tunables. Zero values are not meaningful; use
// DefaultParams as the starting point.
type Params struct {
	SnowTempThresholdC float64
	MeltRatePerDegC    float64
	SnowPerPrecipRatio float64
}

func DefaultParams() Params {
	return Params{
		SnowTempThresholdC: SnowTempThresholdC,
		MeltRatePerDegC:    MeltRatePerDegC,
		SnowPerPrecipRatio: SnowPerPrecipRatio,
	}
}

// baseline distinguishes a depth taken from a real observation from one this
// pass estimated. Only observed values may seed the projection; keeping the
// distinction in the type is what stops an estimate from ever being treated
// as a measurement.
type baselineKind int

const (
	baselineObserved baselineKind = iota
	baselineEstimated
)

type baseline struct {
	depthCM float64
	kind    baselineKind
	set     bool
}

// EstimateSnowDepth walks an already time-sorted unified series once, left
// to right, filling in SnowDepthCM for forecast points. See EstimateWith.
func EstimateSnowDepth(series []models.UnifiedDataPoint) {
	EstimateWith(DefaultParams(), series)
}

// EstimateWith mutates SnowDepthCM in place with explicit model parameters.
//
// Rules, per point in ascending order:
//   - A historical point with an observed depth resets the baseline to that
//     value verbatim.
//   - A historical point without one stays nil and leaves the baseline
//     alone: historical gaps stay gaps, only forecast gaps get the estimate.
//   - A forecast point before any baseline exists stays nil; there is no
//     physically grounded starting value and fabricating one would mislead.
//   - A forecast point with a baseline gets accumulation when it is cold
//     enough and precipitating, then melt when above freezing, never going
//     negative. The result becomes both the point's depth and the carried
//     value for the next step.
//
// The pass is a pure function of the series values and IsForecast tags, so
// rerunning it on its own output produces identical results.
func EstimateWith(p Params, series []models.UnifiedDataPoint) {
	var base baseline

	for i := range series {
		pt := &series[i]

		if !pt.IsForecast {
			if pt.SnowDepthCM != nil {
				base = baseline{depthCM: *pt.SnowDepthCM, kind: baselineObserved, set: true}
			}
			// A still-missing historical reading is never labeled with a
			// carried baseline, observed or estimated.
			continue
		}

		if !base.set {
			pt.SnowDepthCM = nil
			continue
		}

		depth := base.depthCM
		if pt.TemperatureC != nil {
			t := *pt.TemperatureC
			if t <= p.SnowTempThresholdC && pt.PrecipitationMM > 0 {
				depth += pt.PrecipitationMM * p.SnowPerPrecipRatio
			}
			if t > 0 && depth > 0 {
				melt := t * p.MeltRatePerDegC
				if melt > depth {
					melt = depth
				}
				depth -= melt
			}
		}

		v := depth
		pt.SnowDepthCM = &v
		base = baseline{depthCM: depth, kind: baselineEstimated, set: true}
	}
}
