package fittracker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// GeoParams configures distance and speed derivation.
type GeoParams struct {
	EarthRadiusKm float64 `json:"earth_radius_km"`
	// MinTimeDeltaS floors the per-step time delta so duplicate timestamps
	// do not divide by zero.
	MinTimeDeltaS float64 `json:"min_time_delta_s"`
	FloorHeightM  float64 `json:"floor_height_m"`
}

// SpeedBands holds the activity classification thresholds in km/h.
type SpeedBands struct {
	IdleBelowKmh          float64 `json:"idle_below_kmh"`
	WalkingBelowKmh       float64 `json:"walking_below_kmh"`
	RunningBelowKmh       float64 `json:"running_below_kmh"`
	StairsMinFloorsPerMin float64 `json:"stairs_min_floors_per_min"`
	StairsMaxKmh          float64 `json:"stairs_max_kmh"`
}

// METRange is a linear MET model clamped to [Min, Max].
type METRange struct {
	Base     float64 `json:"base"`
	Slope    float64 `json:"slope"`
	SpeedRef float64 `json:"speed_ref_kmh"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// METCoefficients maps each activity to its MET model.
type METCoefficients struct {
	Idle     float64  `json:"idle"`
	Walking  METRange `json:"walking"`
	Running  METRange `json:"running"`
	Cycling  METRange `json:"cycling"`
	Stairs   float64  `json:"stairs"`
	Fallback float64  `json:"fallback"`
}

// StepCoefficients converts distance (or floors, for stairs) to steps.
type StepCoefficients struct {
	WalkingPerKm float64 `json:"walking_per_km"`
	RunningPerKm float64 `json:"running_per_km"`
	StairsPerFl  float64 `json:"stairs_per_floor"`
	OtherPerKm   float64 `json:"other_per_km"`
}

// ForecastParams tunes the smoothed AR(1) speed forecaster.
type ForecastParams struct {
	HorizonSec   float64 `json:"horizon_sec"`
	MinSamples   int     `json:"min_samples"`
	AlphaDivisor float64 `json:"alpha_divisor_sec"`
	AlphaMin     float64 `json:"alpha_min"`
	AlphaMax     float64 `json:"alpha_max"`
	MinDtSec     float64 `json:"min_dt_sec"`
	TailWindow   int     `json:"tail_window"`
	Epsilon      float64 `json:"epsilon"`
	MaxSteps     int     `json:"max_steps"`
}

// CurveSegment contributes Base + min(w-From, Span)/Span*Gain for w >= From.
type CurveSegment struct {
	From float64 `json:"from"`
	Base float64 `json:"base"`
	Gain float64 `json:"gain"`
	Span float64 `json:"span"`
}

// LifeExpectancyCurve is a piecewise-linear map from weekly MET-minutes to
// years. Segments must be sorted by From.
type LifeExpectancyCurve struct {
	Segments []CurveSegment `json:"segments"`
}

// Params groups every tunable constant used by the metric pipeline.
type Params struct {
	Geo            GeoParams           `json:"geo"`
	Bands          SpeedBands          `json:"speed_bands"`
	MET            METCoefficients     `json:"met"`
	Steps          StepCoefficients    `json:"steps"`
	Forecast       ForecastParams      `json:"forecast"`
	LifeExpectancy LifeExpectancyCurve `json:"life_expectancy"`
	// WeeklyRepeat projects one day of MET-minutes onto a week.
	WeeklyRepeat float64 `json:"weekly_repeat"`
}

// DefaultParams returns the calibrated defaults.
func DefaultParams() Params {
	return Params{
		Geo: GeoParams{
			EarthRadiusKm: 6371.0,
			MinTimeDeltaS: 1e-6,
			FloorHeightM:  3.0,
		},
		Bands: SpeedBands{
			IdleBelowKmh:          1.5,
			WalkingBelowKmh:       6.0,
			RunningBelowKmh:       12.0,
			StairsMinFloorsPerMin: 1.0,
			StairsMaxKmh:          6.0,
		},
		MET: METCoefficients{
			Idle:     1.5,
			Walking:  METRange{Base: 3.0, Slope: 0.4, SpeedRef: 3.0, Min: 3.0, Max: 5.0},
			Running:  METRange{Base: 6.0, Slope: 0.6, Min: 7.0, Max: 12.0},
			Cycling:  METRange{Base: 2.0, Slope: 0.5, Min: 6.0, Max: 12.0},
			Stairs:   8.0,
			Fallback: 3.5,
		},
		Steps: StepCoefficients{
			WalkingPerKm: 1300,
			RunningPerKm: 1000,
			StairsPerFl:  16,
			OtherPerKm:   1200,
		},
		Forecast: ForecastParams{
			HorizonSec:   30,
			MinSamples:   6,
			AlphaDivisor: 5.0,
			AlphaMin:     0.05,
			AlphaMax:     0.5,
			MinDtSec:     0.1,
			TailWindow:   50,
			Epsilon:      1e-12,
			MaxSteps:     100000,
		},
		LifeExpectancy: LifeExpectancyCurve{
			Segments: []CurveSegment{
				{From: 0, Base: 0, Gain: 0.5, Span: 150},
				{From: 150, Base: 1.0, Gain: 2.0, Span: 150},
				{From: 300, Base: 3.0, Gain: 1.2, Span: 300},
				{From: 600, Base: 4.2, Gain: 2.5, Span: 900},
			},
		},
		WeeklyRepeat: 7.0,
	}
}

// Validate checks internal consistency of the parameter set.
func (p Params) Validate() error {
	if p.Geo.EarthRadiusKm <= 0 || p.Geo.MinTimeDeltaS <= 0 || p.Geo.FloorHeightM <= 0 {
		return fmt.Errorf("geo params must be positive: %w", ErrInvalidInput)
	}
	b := p.Bands
	if !(0 <= b.IdleBelowKmh && b.IdleBelowKmh <= b.WalkingBelowKmh && b.WalkingBelowKmh <= b.RunningBelowKmh) {
		return fmt.Errorf("speed bands must be ascending: %w", ErrInvalidInput)
	}
	if b.StairsMaxKmh > b.WalkingBelowKmh {
		return fmt.Errorf("stairs_max_kmh %.2f exceeds walking band %.2f: %w", b.StairsMaxKmh, b.WalkingBelowKmh, ErrInvalidInput)
	}
	for name, r := range map[string]METRange{"walking": p.MET.Walking, "running": p.MET.Running, "cycling": p.MET.Cycling} {
		if r.Min > r.Max {
			return fmt.Errorf("met %s: min %.2f > max %.2f: %w", name, r.Min, r.Max, ErrInvalidInput)
		}
	}
	f := p.Forecast
	if f.MinSamples < 2 || f.TailWindow < 1 || f.MaxSteps < 1 {
		return fmt.Errorf("forecast sample counts must be positive: %w", ErrInvalidInput)
	}
	if f.AlphaDivisor <= 0 || f.AlphaMin <= 0 || f.AlphaMax > 1 || f.AlphaMin > f.AlphaMax || f.MinDtSec <= 0 {
		return fmt.Errorf("forecast smoothing bounds invalid: %w", ErrInvalidInput)
	}
	segs := p.LifeExpectancy.Segments
	for i, s := range segs {
		if s.Span <= 0 {
			return fmt.Errorf("life expectancy segment %d: span must be positive: %w", i, ErrInvalidInput)
		}
		if i > 0 && s.From <= segs[i-1].From {
			return fmt.Errorf("life expectancy segments must be sorted by from: %w", ErrInvalidInput)
		}
	}
	if p.WeeklyRepeat <= 0 {
		return fmt.Errorf("weekly_repeat must be positive: %w", ErrInvalidInput)
	}
	return nil
}

// LoadParams reads a JSON tuning file. Fields omitted from the file keep their
// defaults, so partial files are fine.
func LoadParams(path string) (Params, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return Params{}, fmt.Errorf("params file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return Params{}, fmt.Errorf("stat params file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return Params{}, fmt.Errorf("params file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return Params{}, fmt.Errorf("read params file: %w", err)
	}

	p := DefaultParams()
	if err := json.Unmarshal(data, &p); err != nil {
		return Params{}, fmt.Errorf("parse params JSON: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Params{}, fmt.Errorf("invalid params: %w", err)
	}
	return p, nil
}
