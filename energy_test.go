package fittracker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMET(t *testing.T) {
	c := DefaultParams().MET
	tests := []struct {
		name     string
		activity ActivityLabel
		speed    float64
		want     float64
	}{
		{name: "idle", activity: ActivityIdle, speed: 0.5, want: 1.5},
		{name: "walking mid", activity: ActivityWalking, speed: 5, want: 3.8},
		{name: "walking floor", activity: ActivityWalking, speed: 2, want: 3.0},
		{name: "walking ceiling", activity: ActivityWalking, speed: 10, want: 5.0},
		{name: "running mid", activity: ActivityRunning, speed: 10, want: 12.0},
		{name: "running floor", activity: ActivityRunning, speed: 1, want: 7.0},
		{name: "cycling mid", activity: ActivityCycling, speed: 16, want: 10.0},
		{name: "cycling floor", activity: ActivityCycling, speed: 12, want: 8.0},
		{name: "cycling ceiling", activity: ActivityCycling, speed: 40, want: 12.0},
		{name: "stairs", activity: ActivityStairs, speed: 1, want: 8.0},
		{name: "unknown label", activity: ActivityLabel(42), speed: 1, want: 3.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MET(tt.activity, tt.speed, c), 1e-12)
		})
	}
}

func TestCalories(t *testing.T) {
	assert.InDelta(t, 149.625, Calories(3.8, 30, 75), 1e-9)
	assert.Zero(t, Calories(3.8, -5, 75))
	assert.Zero(t, Calories(3.8, 0, 75))
}

func TestWeeklyMETMinutes(t *testing.T) {
	assert.InDelta(t, 700.0, WeeklyMETMinutes(100, DefaultParams()), 1e-12)
}

func TestLifeExpectancyGain(t *testing.T) {
	curve := DefaultParams().LifeExpectancy
	tests := []struct {
		weekly float64
		want   float64
	}{
		{weekly: -10, want: 0},
		{weekly: 0, want: 0},
		{weekly: 75, want: 0.25},
		{weekly: 150, want: 1.0},
		{weekly: 225, want: 2.0},
		{weekly: 300, want: 3.0},
		{weekly: 450, want: 3.6},
		{weekly: 600, want: 4.2},
		{weekly: 1050, want: 5.45},
		{weekly: 1500, want: 6.7},
		{weekly: 5000, want: 6.7},
		{weekly: math.NaN(), want: 0},
		{weekly: math.Inf(1), want: 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, LifeExpectancyGain(tt.weekly, curve), 1e-9, "weekly=%v", tt.weekly)
	}
}

func TestLifeExpectancyGainMonotonic(t *testing.T) {
	curve := DefaultParams().LifeExpectancy
	prev := 0.0
	for w := 0.0; w <= 1500; w += 0.5 {
		got := LifeExpectancyGain(w, curve)
		assert.GreaterOrEqual(t, got, prev, "weekly=%v", w)
		prev = got
	}
	assert.InDelta(t, 6.7, prev, 1e-9)
}

func TestEstimateSteps(t *testing.T) {
	c := DefaultParams().Steps
	assert.Equal(t, 1300, EstimateSteps(1, ActivityWalking, 0, c))
	assert.Equal(t, 5000, EstimateSteps(5, ActivityRunning, 0, c))
	assert.Equal(t, 96, EstimateSteps(0.1, ActivityStairs, 6, c))
	assert.Equal(t, 2400, EstimateSteps(2, ActivityCycling, 0, c))
	assert.Equal(t, 0, EstimateSteps(math.NaN(), ActivityWalking, 0, c))

	half := StepCoefficients{WalkingPerKm: 1}
	assert.Equal(t, 2, EstimateSteps(2.5, ActivityWalking, 0, half))
	assert.Equal(t, 4, EstimateSteps(3.5, ActivityWalking, 0, half))
}
