package fittracker

import "math"

// HaversineKm returns the great-circle distance between two coordinates given
// in degrees, on a sphere of the given radius.
func HaversineKm(lat1, lon1, lat2, lon2, radiusKm float64) float64 {
	p1 := lat1 * math.Pi / 180
	p2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(p1)*math.Cos(p2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return radiusKm * c
}

// ComputeKinematics derives per-step distance and instantaneous speed from a
// track. The first element is always zero; tracks shorter than two samples
// yield a zero distance and an all-zero series.
func ComputeKinematics(track Track, geo GeoParams) (float64, KinematicSeries) {
	series := make(KinematicSeries, len(track))
	if len(track) < 2 {
		return 0, series
	}

	total := 0.0
	for i := 1; i < len(track); i++ {
		prev, cur := track[i-1], track[i]
		dKm := HaversineKm(prev.Latitude, prev.Longitude, cur.Latitude, cur.Longitude, geo.EarthRadiusKm)
		dtS := math.Max(geo.MinTimeDeltaS, float64(cur.TimestampMs-prev.TimestampMs)/1000.0)

		series[i] = KinematicStep{
			DistanceIncrementKm: dKm,
			SpeedMS:             dKm * 1000.0 / dtS,
		}
		if isFinite(dKm) {
			total += dKm
		}
	}
	return total, series
}

// AverageSpeedKmh is distance over the track's wall-clock span. It is NaN when
// the span is not positive.
func AverageSpeedKmh(totalKm float64, track Track) float64 {
	if len(track) < 2 {
		return math.NaN()
	}
	hours := float64(track[len(track)-1].TimestampMs-track[0].TimestampMs) / 1000.0 / secondsPerHour
	if hours <= 0 {
		return math.NaN()
	}
	return totalKm / hours
}
