package fittracker

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidInput marks malformed tracks or caller parameters. Degenerate but
// well-formed input (empty tracks, zero duration) never produces it.
var ErrInvalidInput = errors.New("invalid input")

// RawSample is one geolocated, timestamped position fix.
type RawSample struct {
	TimestampMs int64    `json:"timestamp"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	AltitudeM   *float64 `json:"altitude,omitempty"`
}

// Time returns the sample timestamp as UTC wall time.
func (s RawSample) Time() time.Time {
	return time.UnixMilli(s.TimestampMs).UTC()
}

// Track is the ordered sample sequence of one session.
type Track []RawSample

// HasAltitude reports whether the track carries an altitude channel.
func (t Track) HasAltitude() bool {
	if len(t) == 0 {
		return false
	}
	for _, s := range t {
		if s.AltitudeM == nil {
			return false
		}
	}
	return true
}

// Validate rejects tracks the metric pipeline cannot give a meaningful answer for.
func (t Track) Validate() error {
	withAltitude := 0
	for i, s := range t {
		if !isFinite(s.Latitude) || s.Latitude < -90 || s.Latitude > 90 {
			return fmt.Errorf("sample %d: latitude %v out of range: %w", i, s.Latitude, ErrInvalidInput)
		}
		if !isFinite(s.Longitude) || s.Longitude < -180 || s.Longitude > 180 {
			return fmt.Errorf("sample %d: longitude %v out of range: %w", i, s.Longitude, ErrInvalidInput)
		}
		if s.AltitudeM != nil {
			if !isFinite(*s.AltitudeM) {
				return fmt.Errorf("sample %d: altitude is not finite: %w", i, ErrInvalidInput)
			}
			withAltitude++
		}
		if i > 0 && s.TimestampMs < t[i-1].TimestampMs {
			return fmt.Errorf("sample %d: timestamp %d precedes %d: %w", i, s.TimestampMs, t[i-1].TimestampMs, ErrInvalidInput)
		}
	}
	if withAltitude != 0 && withAltitude != len(t) {
		return fmt.Errorf("altitude present on %d of %d samples: %w", withAltitude, len(t), ErrInvalidInput)
	}
	return nil
}

// DurationMinutes is the span between the first and last sample.
func (t Track) DurationMinutes() float64 {
	if len(t) < 2 {
		return 0
	}
	return float64(t[len(t)-1].TimestampMs-t[0].TimestampMs) / 1000.0 / 60.0
}

// Altitude returns a pointer to v for building samples.
func Altitude(v float64) *float64 {
	return &v
}

// KinematicStep is one element of a KinematicSeries.
type KinematicStep struct {
	DistanceIncrementKm float64 `json:"distance_increment_km"`
	SpeedMS             float64 `json:"speed_ms"`
}

// KinematicSeries is derived from a Track and always has the same length.
type KinematicSeries []KinematicStep

// SpeedsMS returns the instantaneous speed channel in m/s.
func (k KinematicSeries) SpeedsMS() []float64 {
	out := make([]float64, len(k))
	for i, step := range k {
		out[i] = step.SpeedMS
	}
	return out
}

// SpeedsKmh returns the instantaneous speed channel in km/h.
func (k KinematicSeries) SpeedsKmh() []float64 {
	out := make([]float64, len(k))
	for i, step := range k {
		out[i] = mpsToKmh(step.SpeedMS)
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func mpsToKmh(v float64) float64 {
	return v * 3.6
}
