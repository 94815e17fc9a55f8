package fittracker

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/paulmach/orb"
)

const (
	secondsPerHour = 3600.0
)

// SessionSummary is the metric record of one session.
type SessionSummary struct {
	Key               string
	Samples           int
	DurationMin       float64
	DistanceKm        float64
	ElevationGainM    float64
	Floors            float64
	AvgSpeedKmh       float64 // NaN when the session has no positive duration
	Activity          ActivityLabel
	MET               float64
	METMinutes        float64
	CaloriesKcal      float64
	EstimatedSteps    int
	SampleIntervalS   float64
	HorizonSec        float64
	PredictedSpeedKmh float64 // NaN when there is not enough data to forecast
	Bounds            orb.Bound
}

// HasForecast reports whether PredictedSpeedKmh carries a value.
func (s SessionSummary) HasForecast() bool {
	return isFinite(s.PredictedSpeedKmh)
}

// Summarize validates a track and runs every metric stage over it.
func Summarize(key string, track Track, weightKg, horizonSec float64, p Params) (SessionSummary, KinematicSeries, error) {
	if err := track.Validate(); err != nil {
		return SessionSummary{}, nil, fmt.Errorf("session %s: %w", key, err)
	}
	if !isFinite(weightKg) || weightKg <= 0 {
		return SessionSummary{}, nil, fmt.Errorf("session %s: weight %v kg: %w", key, weightKg, ErrInvalidInput)
	}
	if !isFinite(horizonSec) || horizonSec <= 0 {
		return SessionSummary{}, nil, fmt.Errorf("session %s: horizon %v s: %w", key, horizonSec, ErrInvalidInput)
	}

	totalKm, series := ComputeKinematics(track, p.Geo)
	gain := ElevationGainM(track)
	floors := FloorsFromGain(gain, p.Geo)
	avgKmh := AverageSpeedKmh(totalKm, track)
	minutes := track.DurationMinutes()

	activity := Classify(avgKmh, FloorsPerMinute(floors, minutes), p.Bands)
	met := MET(activity, avgKmh, p.MET)
	dtSec := SampleIntervalS(track, p.Forecast)

	summary := SessionSummary{
		Key:               key,
		Samples:           len(track),
		DurationMin:       minutes,
		DistanceKm:        totalKm,
		ElevationGainM:    gain,
		Floors:            floors,
		AvgSpeedKmh:       avgKmh,
		Activity:          activity,
		MET:               met,
		METMinutes:        met * minutes,
		CaloriesKcal:      Calories(met, minutes, weightKg),
		EstimatedSteps:    EstimateSteps(totalKm, activity, floors, p.Steps),
		SampleIntervalS:   dtSec,
		HorizonSec:        horizonSec,
		PredictedSpeedKmh: PredictNext(series.SpeedsKmh(), dtSec, horizonSec, p.Forecast),
		Bounds:            TrackBounds(track),
	}
	return summary, series, nil
}

// SampleIntervalS is the median spacing between samples in seconds, floored at
// MinDtSec. Tracks shorter than two samples report the floor.
func SampleIntervalS(track Track, p ForecastParams) float64 {
	if len(track) < 2 {
		return p.MinDtSec
	}
	diffs := make(stats.Float64Data, 0, len(track)-1)
	for i := 1; i < len(track); i++ {
		diffs = append(diffs, float64(track[i].TimestampMs-track[i-1].TimestampMs)/1000.0)
	}
	median, err := diffs.Median()
	if err != nil {
		return p.MinDtSec
	}
	return math.Max(p.MinDtSec, median)
}

// TrackBounds is the lon/lat bounding box of a track.
func TrackBounds(track Track) orb.Bound {
	if len(track) == 0 {
		return orb.Bound{}
	}
	mp := make(orb.MultiPoint, 0, len(track))
	for _, s := range track {
		mp = append(mp, orb.Point{s.Longitude, s.Latitude})
	}
	return mp.Bound()
}

// ActivityTotals aggregates the sessions that share one activity label.
type ActivityTotals struct {
	Activity       ActivityLabel `json:"activity"`
	Sessions       int           `json:"sessions"`
	DistanceKm     float64       `json:"distance_km"`
	DurationMin    float64       `json:"duration_min"`
	CaloriesKcal   float64       `json:"calories_kcal"`
	ElevationGainM float64       `json:"elevation_gain_m"`
	Floors         float64       `json:"floors"`
	EstimatedSteps int           `json:"estimated_steps"`
	// MeanPredictedSpeedKmh averages the sessions that produced a forecast.
	MeanPredictedSpeedKmh *float64 `json:"mean_predicted_speed_kmh,omitempty"`
}

// Totals is the cross-session header: sums plus the weekly projection.
type Totals struct {
	Sessions              int              `json:"sessions"`
	DurationMin           float64          `json:"duration_min"`
	DistanceKm            float64          `json:"distance_km"`
	ElevationGainM        float64          `json:"elevation_gain_m"`
	Floors                float64          `json:"floors"`
	CaloriesKcal          float64          `json:"calories_kcal"`
	METMinutes            float64          `json:"met_minutes"`
	EstimatedSteps        int              `json:"estimated_steps"`
	WeeklyMETMinutes      float64          `json:"weekly_met_minutes"`
	LifeExpectancyGainYrs float64          `json:"life_expectancy_gain_years"`
	HorizonSec            float64          `json:"horizon_sec,omitempty"`
	Activities            []ActivityTotals `json:"activities,omitempty"`
}

// SummarizeTotals aggregates session summaries.
func SummarizeTotals(sessions []SessionSummary, p Params) Totals {
	t := Totals{Sessions: len(sessions)}
	byActivity := make(map[ActivityLabel]*ActivityTotals)
	forecastSum := make(map[ActivityLabel]float64)
	forecastCount := make(map[ActivityLabel]int)
	for _, s := range sessions {
		t.DurationMin += s.DurationMin
		t.DistanceKm += s.DistanceKm
		t.ElevationGainM += s.ElevationGainM
		t.Floors += s.Floors
		t.CaloriesKcal += s.CaloriesKcal
		t.METMinutes += s.METMinutes
		t.EstimatedSteps += s.EstimatedSteps
		t.HorizonSec = math.Max(t.HorizonSec, s.HorizonSec)

		at, ok := byActivity[s.Activity]
		if !ok {
			at = &ActivityTotals{Activity: s.Activity}
			byActivity[s.Activity] = at
		}
		at.Sessions++
		at.DistanceKm += s.DistanceKm
		at.DurationMin += s.DurationMin
		at.CaloriesKcal += s.CaloriesKcal
		at.ElevationGainM += s.ElevationGainM
		at.Floors += s.Floors
		at.EstimatedSteps += s.EstimatedSteps
		if s.HasForecast() {
			forecastSum[s.Activity] += s.PredictedSpeedKmh
			forecastCount[s.Activity]++
		}
	}

	t.WeeklyMETMinutes = WeeklyMETMinutes(t.METMinutes, p)
	t.LifeExpectancyGainYrs = LifeExpectancyGain(t.WeeklyMETMinutes, p.LifeExpectancy)

	for label, at := range byActivity {
		if n := forecastCount[label]; n > 0 {
			mean := forecastSum[label] / float64(n)
			at.MeanPredictedSpeedKmh = &mean
		}
		t.Activities = append(t.Activities, *at)
	}
	sort.Slice(t.Activities, func(i, j int) bool {
		return t.Activities[i].Activity < t.Activities[j].Activity
	})
	return t
}
