package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"

	fittracker "github.com/lucasjlepore/fit-tracker"
	"github.com/lucasjlepore/fit-tracker/internal/monitoring"
	"github.com/lucasjlepore/fit-tracker/loader"
)

// Run loads every session, summarises them concurrently and writes the report
// artifacts into opts.OutDir.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if len(opts.Folders) == 0 && strings.TrimSpace(opts.FitPath) == "" {
		return nil, fmt.Errorf("at least one input folder or fit path is required")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	format, err := normalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	params, horizon, err := resolveParams(opts.Params, opts.HorizonSec)
	if err != nil {
		return nil, err
	}
	if !(opts.WeightKG > 0) || math.IsInf(opts.WeightKG, 0) {
		return nil, fmt.Errorf("weight %v kg: %w", opts.WeightKG, fittracker.ErrInvalidInput)
	}

	sessions, err := loader.LoadSessions(opts.Folders)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	if strings.TrimSpace(opts.FitPath) != "" {
		track, err := loader.LoadFITFile(opts.FitPath)
		if err != nil {
			return nil, fmt.Errorf("load fit file: %w", err)
		}
		sessions = append(sessions, loader.Session{
			Key:    strings.TrimSuffix(filepath.Base(opts.FitPath), filepath.Ext(opts.FitPath)),
			Folder: filepath.Dir(opts.FitPath),
			Files:  []string{opts.FitPath},
			Track:  track,
		})
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("no sessions found; check folder paths and contents")
	}

	results, warnings, err := summarizeAll(ctx, sessions, opts.WeightKG, horizon, params, opts.Workers)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no position logs found in sessions")
	}

	if err := ensureOutputDir(opts.OutDir, opts.Overwrite); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	summary := buildSummaryFile(runID, results, opts.WeightKG, horizon, params, warnings)
	summaryPath := filepath.Join(opts.OutDir, "summary.json")
	if err := writeJSON(summaryPath, summary); err != nil {
		return nil, fmt.Errorf("write summary.json: %w", err)
	}

	samples := buildKinematicSamples(results)
	kinematicsPath := filepath.Join(opts.OutDir, "kinematics."+format)
	switch format {
	case "csv":
		if err := writeKinematicsCSV(kinematicsPath, samples); err != nil {
			return nil, fmt.Errorf("write kinematics csv: %w", err)
		}
	case "parquet":
		if err := writeKinematicsParquet(kinematicsPath, samples); err != nil {
			return nil, fmt.Errorf("write kinematics parquet: %w", err)
		}
	}

	trackDir := filepath.Join(opts.OutDir, "tracks")
	if err := os.MkdirAll(trackDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tracks directory: %w", err)
	}
	trackPaths := make([]string, 0, len(results))
	for _, r := range results {
		data, err := marshalTrackGeoJSON(r)
		if err != nil {
			return nil, fmt.Errorf("encode geojson for %s: %w", r.summary.Key, err)
		}
		if data == nil {
			continue
		}
		path := filepath.Join(trackDir, fileSafe(r.summary.Key)+".geojson")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", filepath.Base(path), err)
		}
		trackPaths = append(trackPaths, path)
	}

	notesPath := filepath.Join(opts.OutDir, "session_notes.md")
	if err := os.WriteFile(notesPath, []byte(buildNotes(results, summary.Totals)), 0o644); err != nil {
		return nil, fmt.Errorf("write session_notes.md: %w", err)
	}

	monitoring.Logf("pipeline: run %s summarised %d sessions into %s", runID, len(results), opts.OutDir)
	return &Result{
		RunID:          runID,
		OutputDir:      opts.OutDir,
		SummaryPath:    summaryPath,
		KinematicsPath: kinematicsPath,
		NotesPath:      notesPath,
		TrackPaths:     trackPaths,
		Sessions:       len(results),
		Warnings:       warnings,
	}, nil
}

// summarizeAll runs Summarize for each session on a bounded set of workers.
// Sessions with empty or malformed tracks are skipped with a warning; any
// other failure aborts the run. Output order follows input order.
func summarizeAll(ctx context.Context, sessions []loader.Session, weightKG, horizon float64, params fittracker.Params, workers int) ([]sessionResult, []string, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	slots := make([]*sessionResult, len(sessions))
	skipped := make([]string, len(sessions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, sess := range sessions {
		i, sess := i, sess
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if len(sess.Track) == 0 {
				skipped[i] = fmt.Sprintf("session %s: empty position log", sess.Key)
				return nil
			}
			summary, series, err := fittracker.Summarize(sess.Key, sess.Track, weightKG, horizon, params)
			if errors.Is(err, fittracker.ErrInvalidInput) {
				skipped[i] = err.Error()
				return nil
			}
			if err != nil {
				return err
			}
			slots[i] = &sessionResult{summary: summary, series: series, track: sess.Track}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("summarize sessions: %w", err)
	}

	results := make([]sessionResult, 0, len(sessions))
	var warnings []string
	for i := range sessions {
		if skipped[i] != "" {
			monitoring.Logf("pipeline: skipped %s", skipped[i])
			warnings = append(warnings, skipped[i])
		}
		if slots[i] != nil {
			results = append(results, *slots[i])
		}
	}
	return results, warnings, nil
}

func resolveParams(p *fittracker.Params, horizon float64) (fittracker.Params, float64, error) {
	params := fittracker.DefaultParams()
	if p != nil {
		params = *p
	}
	if err := params.Validate(); err != nil {
		return params, 0, err
	}
	if horizon == 0 {
		horizon = params.Forecast.HorizonSec
	}
	if !(horizon > 0) || math.IsInf(horizon, 0) {
		return params, 0, fmt.Errorf("horizon %v s: %w", horizon, fittracker.ErrInvalidInput)
	}
	return params, horizon, nil
}

func normalizeFormat(format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "parquet"
	}
	if format != "parquet" && format != "csv" {
		return "", fmt.Errorf("unsupported format %q (expected parquet|csv)", format)
	}
	return format, nil
}

func buildSummaryFile(runID string, results []sessionResult, weightKG, horizon float64, params fittracker.Params, warnings []string) SummaryFile {
	rows := make([]SessionRow, 0, len(results))
	summaries := make([]fittracker.SessionSummary, 0, len(results))
	for _, r := range results {
		rows = append(rows, sessionRow(r.summary))
		summaries = append(summaries, r.summary)
	}
	return SummaryFile{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		WeightKG:    weightKG,
		HorizonSec:  horizon,
		Sessions:    rows,
		Totals:      fittracker.SummarizeTotals(summaries, params),
		Warnings:    warnings,
	}
}

func sessionRow(s fittracker.SessionSummary) SessionRow {
	row := SessionRow{
		Session:           s.Key,
		Activity:          s.Activity.String(),
		Samples:           s.Samples,
		DurationMin:       s.DurationMin,
		DistanceKm:        s.DistanceKm,
		ElevationGainM:    s.ElevationGainM,
		Floors:            s.Floors,
		AvgSpeedKmh:       finitePtr(s.AvgSpeedKmh),
		MET:               s.MET,
		METMinutes:        s.METMinutes,
		CaloriesKcal:      s.CaloriesKcal,
		EstimatedSteps:    s.EstimatedSteps,
		SampleIntervalS:   s.SampleIntervalS,
		PredictedSpeedKmh: finitePtr(s.PredictedSpeedKmh),
	}
	if s.Samples > 0 {
		row.BBox = []float64{s.Bounds.Min.Lon(), s.Bounds.Min.Lat(), s.Bounds.Max.Lon(), s.Bounds.Max.Lat()}
	}
	return row
}

func buildKinematicSamples(results []sessionResult) []KinematicSample {
	n := 0
	for _, r := range results {
		n += len(r.track)
	}
	out := make([]KinematicSample, 0, n)
	for _, r := range results {
		if len(r.track) == 0 {
			continue
		}
		start := r.track[0].TimestampMs
		cumulative := 0.0
		for i, s := range r.track {
			step := r.series[i]
			if !math.IsNaN(step.DistanceIncrementKm) && !math.IsInf(step.DistanceIncrementKm, 0) {
				cumulative += step.DistanceIncrementKm
			}
			out = append(out, KinematicSample{
				Session:             r.summary.Key,
				SampleIndex:         i,
				TSUTCISO:            s.Time().Format(time.RFC3339Nano),
				ElapsedS:            float64(s.TimestampMs-start) / 1000.0,
				Latitude:            s.Latitude,
				Longitude:           s.Longitude,
				AltitudeM:           s.AltitudeM,
				DistanceIncrementKm: step.DistanceIncrementKm,
				CumulativeKm:        cumulative,
				SpeedMPS:            step.SpeedMS,
				SpeedKmh:            step.SpeedMS * 3.6,
			})
		}
	}
	return out
}

// marshalTrackGeoJSON returns a FeatureCollection holding the session path,
// or nil for a session without samples.
func marshalTrackGeoJSON(r sessionResult) ([]byte, error) {
	if len(r.track) == 0 {
		return nil, nil
	}
	var geom orb.Geometry
	if len(r.track) == 1 {
		geom = orb.Point{r.track[0].Longitude, r.track[0].Latitude}
	} else {
		ls := make(orb.LineString, 0, len(r.track))
		for _, s := range r.track {
			ls = append(ls, orb.Point{s.Longitude, s.Latitude})
		}
		geom = ls
	}

	f := geojson.NewFeature(geom)
	f.BBox = geojson.NewBBox(r.summary.Bounds)
	f.Properties["session"] = r.summary.Key
	f.Properties["activity"] = r.summary.Activity.String()
	f.Properties["distance_km"] = r.summary.DistanceKm
	f.Properties["elevation_gain_m"] = r.summary.ElevationGainM
	f.Properties["start_ts_utc"] = r.track[0].Time().Format(time.RFC3339)

	fc := geojson.NewFeatureCollection()
	fc.Append(f)
	return fc.MarshalJSON()
}

func buildNotes(results []sessionResult, totals fittracker.Totals) string {
	var b strings.Builder
	b.WriteString("# Session Notes\n\n## Totals\n\n")
	b.WriteString(fittracker.BuildTotalsNotes(totals))
	b.WriteString("\n")
	for _, r := range results {
		b.WriteString("\n## ")
		b.WriteString(r.summary.Key)
		b.WriteString("\n\n")
		b.WriteString(fittracker.BuildSessionNotes(r.summary))
		b.WriteString("\n")
	}
	return b.String()
}

func ensureOutputDir(path string, overwrite bool) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	if len(entries) > 0 && !overwrite {
		return fmt.Errorf("output directory is not empty: %s (set overwrite=true to allow)", path)
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var kinematicsHeader = []string{
	"session", "sample_index", "ts_utc_iso", "elapsed_s", "latitude", "longitude", "altitude_m",
	"distance_increment_km", "cumulative_km", "speed_mps", "speed_kmh",
}

func writeKinematicsCSV(path string, samples []KinematicSample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := encodeKinematicsCSV(f, samples); err != nil {
		return err
	}
	return f.Close()
}

func encodeKinematicsCSV(w io.Writer, samples []KinematicSample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(kinematicsHeader); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			s.Session,
			strconv.Itoa(s.SampleIndex),
			s.TSUTCISO,
			formatFloat(s.ElapsedS),
			formatFloat(s.Latitude),
			formatFloat(s.Longitude),
			formatFloatPtr(s.AltitudeM),
			formatFloat(s.DistanceIncrementKm),
			formatFloat(s.CumulativeKm),
			formatFloat(s.SpeedMPS),
			formatFloat(s.SpeedKmh),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func fileSafe(key string) string {
	s := strings.Trim(unsafeFileChars.ReplaceAllString(key, "_"), "_")
	if s == "" {
		return "session"
	}
	return s
}

func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
