package fittracker

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SmoothEMA applies an exponential moving average seeded at the first value.
func SmoothEMA(values []float64, alpha float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1.0-alpha)*out[i-1]
	}
	return out
}

// FitAR1 fits next = phi*prev through the origin by least squares.
func FitAR1(series []float64, epsilon float64) float64 {
	if len(series) < 2 {
		return 0
	}
	lag := series[:len(series)-1]
	now := series[1:]
	return floats.Dot(lag, now) / (floats.Dot(lag, lag) + epsilon)
}

// PredictNext projects a km/h speed series horizonSec ahead. The series is
// smoothed, an AR(1) coefficient is fitted, and the last smoothed value is
// iterated towards the mean of the recent tail. It returns NaN when there are
// fewer than MinSamples values or dtSec is not positive.
func PredictNext(speedsKmh []float64, dtSec, horizonSec float64, p ForecastParams) float64 {
	if len(speedsKmh) < p.MinSamples || !(dtSec > 0) {
		return math.NaN()
	}

	alpha := clamp(dtSec/p.AlphaDivisor, p.AlphaMin, p.AlphaMax)
	smooth := SmoothEMA(speedsKmh, alpha)
	phi := FitAR1(smooth, p.Epsilon)

	// Clamp in float64 so an infinite horizon cannot overflow the int conversion.
	n := math.RoundToEven(horizonSec / math.Max(p.MinDtSec, dtSec))
	steps := 1
	switch {
	case n >= float64(p.MaxSteps):
		steps = p.MaxSteps
	case n > 1:
		steps = int(n)
	}

	tail := smooth[max(0, len(smooth)-p.TailWindow):]
	meanTail := stat.Mean(tail, nil)

	s := smooth[len(smooth)-1]
	for i := 0; i < steps; i++ {
		s = phi*s + (1.0-phi)*meanTail
	}
	if !(s > 0) {
		return 0
	}
	return s
}
