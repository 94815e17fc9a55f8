package fittracker

// ElevationGainM sums positive altitude deltas. Descents contribute nothing,
// and a track without an altitude channel has no gain.
func ElevationGainM(track Track) float64 {
	if !track.HasAltitude() {
		return 0
	}
	gain := 0.0
	for i := 1; i < len(track); i++ {
		if d := *track[i].AltitudeM - *track[i-1].AltitudeM; d > 0 {
			gain += d
		}
	}
	return gain
}

// FloorsFromGain converts climbed meters into floors. The result is not rounded.
func FloorsFromGain(gainM float64, geo GeoParams) float64 {
	if gainM < 0 {
		gainM = 0
	}
	return gainM / geo.FloorHeightM
}
