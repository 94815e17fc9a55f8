package pipeline

import (
	"time"

	fittracker "github.com/lucasjlepore/fit-tracker"
)

// Options configures a batch run over session folders and/or one FIT file.
type Options struct {
	Folders    []string
	FitPath    string
	OutDir     string
	WeightKG   float64
	HorizonSec float64 // 0 uses Params.Forecast.HorizonSec
	Format     string  // parquet|csv
	Overwrite  bool
	Workers    int // 0 uses GOMAXPROCS
	Params     *fittracker.Params
}

// Result returns generated output paths.
type Result struct {
	RunID          string   `json:"run_id"`
	OutputDir      string   `json:"output_dir"`
	SummaryPath    string   `json:"summary_path"`
	KinematicsPath string   `json:"kinematics_path"`
	NotesPath      string   `json:"notes_path"`
	TrackPaths     []string `json:"track_paths,omitempty"`
	Sessions       int      `json:"sessions"`
	Warnings       []string `json:"warnings,omitempty"`
}

// SummaryFile is the JSON document written to summary.json.
type SummaryFile struct {
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	WeightKG    float64           `json:"weight_kg"`
	HorizonSec  float64           `json:"horizon_sec"`
	Sessions    []SessionRow      `json:"sessions"`
	Totals      fittracker.Totals `json:"totals"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// SessionRow is the JSON view of a SessionSummary. Values that are undefined
// for the session are omitted rather than encoded as NaN.
type SessionRow struct {
	Session           string    `json:"session"`
	Activity          string    `json:"activity"`
	Samples           int       `json:"samples"`
	DurationMin       float64   `json:"duration_min"`
	DistanceKm        float64   `json:"distance_km"`
	ElevationGainM    float64   `json:"elevation_gain_m"`
	Floors            float64   `json:"floors"`
	AvgSpeedKmh       *float64  `json:"avg_speed_kmh,omitempty"`
	MET               float64   `json:"met"`
	METMinutes        float64   `json:"met_minutes"`
	CaloriesKcal      float64   `json:"calories_kcal"`
	EstimatedSteps    int       `json:"estimated_steps"`
	SampleIntervalS   float64   `json:"sample_interval_s"`
	PredictedSpeedKmh *float64  `json:"pred_next_speed_kmh,omitempty"`
	BBox              []float64 `json:"bbox,omitempty"` // min_lon, min_lat, max_lon, max_lat
}

// KinematicSample is one row of the per-sample kinematics table.
type KinematicSample struct {
	Session             string   `json:"session"`
	SampleIndex         int      `json:"sample_index"`
	TSUTCISO            string   `json:"ts_utc_iso"`
	ElapsedS            float64  `json:"elapsed_s"`
	Latitude            float64  `json:"latitude"`
	Longitude           float64  `json:"longitude"`
	AltitudeM           *float64 `json:"altitude_m,omitempty"`
	DistanceIncrementKm float64  `json:"distance_increment_km"`
	CumulativeKm        float64  `json:"cumulative_km"`
	SpeedMPS            float64  `json:"speed_mps"`
	SpeedKmh            float64  `json:"speed_kmh"`
}

// sessionResult carries one summarised session through the writers.
type sessionResult struct {
	summary fittracker.SessionSummary
	series  fittracker.KinematicSeries
	track   fittracker.Track
}
