package fittracker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const earthRadiusKm = 6371.0

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{name: "same point", lat1: 51.5, lon1: -0.12, lat2: 51.5, lon2: -0.12, want: 0},
		{name: "north pole any longitude", lat1: 90, lon1: 0, lat2: 90, lon2: 120, want: 0},
		{name: "south pole any longitude", lat1: -90, lon1: 10, lat2: -90, lon2: -170, want: 0},
		{name: "across antimeridian", lat1: 0, lon1: 179.5, lat2: 0, lon2: -179.5, want: earthRadiusKm * math.Pi / 180},
		{name: "one degree of latitude", lat1: 10, lon1: 20, lat2: 11, lon2: 20, want: earthRadiusKm * math.Pi / 180},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2, earthRadiusKm)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestHaversineKmSymmetric(t *testing.T) {
	a := HaversineKm(48.85, 2.35, 40.71, -74.0, earthRadiusKm)
	b := HaversineKm(40.71, -74.0, 48.85, 2.35, earthRadiusKm)
	assert.InDelta(t, a, b, 1e-9)
	assert.InDelta(t, 5837, a, 5)
}

func TestComputeKinematicsShortTracks(t *testing.T) {
	geo := DefaultParams().Geo

	total, series := ComputeKinematics(nil, geo)
	assert.Zero(t, total)
	assert.Empty(t, series)

	total, series = ComputeKinematics(Track{{TimestampMs: 0, Latitude: 1, Longitude: 1}}, geo)
	assert.Zero(t, total)
	require.Len(t, series, 1)
	assert.Equal(t, KinematicStep{}, series[0])
}

func TestComputeKinematicsLeftPadsSpeed(t *testing.T) {
	track := Track{
		{TimestampMs: 0, Latitude: 10, Longitude: 20},
		{TimestampMs: 60_000, Latitude: 11, Longitude: 20},
		{TimestampMs: 120_000, Latitude: 11, Longitude: 20},
	}
	total, series := ComputeKinematics(track, DefaultParams().Geo)

	oneDegree := earthRadiusKm * math.Pi / 180
	require.Len(t, series, len(track))
	assert.Equal(t, KinematicStep{}, series[0])
	assert.InDelta(t, oneDegree, series[1].DistanceIncrementKm, 1e-9)
	assert.InDelta(t, oneDegree*1000/60, series[1].SpeedMS, 1e-6)
	assert.Zero(t, series[2].SpeedMS)
	assert.InDelta(t, oneDegree, total, 1e-9)

	kmh := series.SpeedsKmh()
	assert.InDelta(t, series[1].SpeedMS*3.6, kmh[1], 1e-9)
}

func TestComputeKinematicsDuplicateTimestamp(t *testing.T) {
	track := Track{
		{TimestampMs: 1000, Latitude: 0, Longitude: 0},
		{TimestampMs: 1000, Latitude: 0, Longitude: 0.001},
	}
	_, series := ComputeKinematics(track, DefaultParams().Geo)

	assert.False(t, math.IsInf(series[1].SpeedMS, 0))
	assert.Greater(t, series[1].SpeedMS, 1e6)
}

func TestAverageSpeedKmh(t *testing.T) {
	track := Track{{TimestampMs: 0}, {TimestampMs: 3_600_000}}
	assert.InDelta(t, 12.5, AverageSpeedKmh(12.5, track), 1e-12)

	assert.True(t, math.IsNaN(AverageSpeedKmh(1, Track{{TimestampMs: 5}})))
	assert.True(t, math.IsNaN(AverageSpeedKmh(1, Track{{TimestampMs: 5}, {TimestampMs: 5}})))
}
