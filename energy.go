package fittracker

import "math"

// MET returns the metabolic equivalent for an activity at the given average speed.
func MET(activity ActivityLabel, avgSpeedKmh float64, c METCoefficients) float64 {
	switch activity {
	case ActivityIdle:
		return c.Idle
	case ActivityWalking:
		return c.Walking.at(avgSpeedKmh)
	case ActivityRunning:
		return c.Running.at(avgSpeedKmh)
	case ActivityCycling:
		return c.Cycling.at(avgSpeedKmh)
	case ActivityStairs:
		return c.Stairs
	default:
		return c.Fallback
	}
}

func (r METRange) at(speedKmh float64) float64 {
	return clamp(r.Base+r.Slope*(speedKmh-r.SpeedRef), r.Min, r.Max)
}

// Calories uses kcal/min = MET * 3.5 * weight / 200. Negative durations count as zero.
func Calories(met, minutes, weightKg float64) float64 {
	return met * 3.5 * weightKg / 200.0 * math.Max(0, minutes)
}

// WeeklyMETMinutes projects the MET-minutes of one day onto a week.
func WeeklyMETMinutes(metMinutes float64, p Params) float64 {
	return metMinutes * p.WeeklyRepeat
}

// LifeExpectancyGain maps weekly MET-minutes to an illustrative number of
// years gained. Non-finite and non-positive inputs map to zero.
func LifeExpectancyGain(weeklyMETMin float64, curve LifeExpectancyCurve) float64 {
	w := weeklyMETMin
	if !isFinite(w) || w <= 0 {
		return 0
	}
	var seg *CurveSegment
	for i := range curve.Segments {
		if w >= curve.Segments[i].From {
			seg = &curve.Segments[i]
		}
	}
	if seg == nil {
		return 0
	}
	return seg.Base + math.Min(w-seg.From, seg.Span)/seg.Span*seg.Gain
}

// EstimateSteps derives a step count from distance, or from floors for stairs.
func EstimateSteps(distanceKm float64, activity ActivityLabel, floors float64, c StepCoefficients) int {
	var steps float64
	switch activity {
	case ActivityWalking:
		steps = distanceKm * c.WalkingPerKm
	case ActivityRunning:
		steps = distanceKm * c.RunningPerKm
	case ActivityStairs:
		steps = floors * c.StairsPerFl
	default:
		steps = distanceKm * c.OtherPerKm
	}
	if !isFinite(steps) {
		return 0
	}
	return int(math.RoundToEven(steps))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
