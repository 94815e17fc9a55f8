package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fittracker "github.com/lucasjlepore/fit-tracker"
	"github.com/lucasjlepore/fit-tracker/loader"
)

func positionLog(n int, stepDeg float64) string {
	var b strings.Builder
	b.WriteString("timestamp,latitude,longitude,altitude\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d,%.6f,%.6f,%.1f\n", 1700000000000+int64(i)*2000, 45.0, 7.0+float64(i)*stepDeg, 300.0)
	}
	return b.String()
}

func writeSessionFolder(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"sensorlog_pos_20240101_070000.csv": positionLog(12, 0.00004),
		"sensorlog_pos_20240101_180000.csv": positionLog(12, 0.00007),
		"sensorlog_pos_20240102_090000.csv": "timestamp,latitude,longitude\n1000,95,7\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestRunWritesArtifacts(t *testing.T) {
	in := writeSessionFolder(t)
	outDir := filepath.Join(t.TempDir(), "out")

	res, err := Run(context.Background(), Options{
		Folders:  []string{in},
		OutDir:   outDir,
		WeightKG: 70,
		Format:   "csv",
		Workers:  2,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 2, res.Sessions)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "latitude")

	var summary SummaryFile
	data, err := os.ReadFile(res.SummaryPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &summary))
	require.Len(t, summary.Sessions, 2)
	assert.Equal(t, res.RunID, summary.RunID)
	assert.Equal(t, in+" | 20240101_070000", summary.Sessions[0].Session)
	assert.Equal(t, in+" | 20240101_180000", summary.Sessions[1].Session)
	assert.Equal(t, 30.0, summary.HorizonSec)
	assert.Equal(t, 2, summary.Totals.Sessions)
	for _, s := range summary.Sessions {
		require.NotNil(t, s.PredictedSpeedKmh)
		require.NotNil(t, s.AvgSpeedKmh)
		assert.Len(t, s.BBox, 4)
	}
	assert.Equal(t, "walking", summary.Sessions[0].Activity)
	assert.Equal(t, "running", summary.Sessions[1].Activity)

	f, err := os.Open(res.KinematicsPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, kinematicsHeader, rows[0])
	assert.Len(t, rows, 1+24)

	require.Len(t, res.TrackPaths, 2)
	raw, err := os.ReadFile(res.TrackPaths[0])
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "LineString", fc.Features[0].Geometry.GeoJSONType())
	assert.Equal(t, "walking", fc.Features[0].Properties.MustString("activity"))

	notes, err := os.ReadFile(res.NotesPath)
	require.NoError(t, err)
	assert.Contains(t, string(notes), "## Totals")
	assert.Contains(t, string(notes), "Health Insights")
}

func TestRunParquet(t *testing.T) {
	in := writeSessionFolder(t)
	outDir := filepath.Join(t.TempDir(), "out")

	res, err := Run(context.Background(), Options{Folders: []string{in}, OutDir: outDir, WeightKG: 70})
	require.NoError(t, err)
	assert.Equal(t, "kinematics.parquet", filepath.Base(res.KinematicsPath))

	info, err := os.Stat(res.KinematicsPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRunValidatesOptions(t *testing.T) {
	in := writeSessionFolder(t)
	out := t.TempDir()

	_, err := Run(context.Background(), Options{OutDir: out, WeightKG: 70})
	assert.ErrorContains(t, err, "input folder")

	_, err = Run(context.Background(), Options{Folders: []string{in}, WeightKG: 70})
	assert.ErrorContains(t, err, "output directory")

	_, err = Run(context.Background(), Options{Folders: []string{in}, OutDir: out, WeightKG: 70, Format: "xlsx"})
	assert.ErrorContains(t, err, "unsupported format")

	_, err = Run(context.Background(), Options{Folders: []string{in}, OutDir: out, WeightKG: -1})
	assert.ErrorIs(t, err, fittracker.ErrInvalidInput)

	_, err = Run(context.Background(), Options{Folders: []string{in}, OutDir: out, WeightKG: 70, HorizonSec: -5})
	assert.ErrorIs(t, err, fittracker.ErrInvalidInput)

	bad := fittracker.DefaultParams()
	bad.Bands.StairsMaxKmh = 10
	_, err = Run(context.Background(), Options{Folders: []string{in}, OutDir: out, WeightKG: 70, Params: &bad})
	assert.ErrorIs(t, err, fittracker.ErrInvalidInput)
}

func TestRunRefusesNonEmptyOutput(t *testing.T) {
	in := writeSessionFolder(t)
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "keep.txt"), []byte("x"), 0o644))

	_, err := Run(context.Background(), Options{Folders: []string{in}, OutDir: out, WeightKG: 70, Format: "csv"})
	assert.ErrorContains(t, err, "not empty")

	_, err = Run(context.Background(), Options{Folders: []string{in}, OutDir: out, WeightKG: 70, Format: "csv", Overwrite: true})
	assert.NoError(t, err)
}

func TestSummarizeAllKeepsInputOrder(t *testing.T) {
	var sessions []loader.Session
	for i := 0; i < 20; i++ {
		track := make(fittracker.Track, 8)
		for j := range track {
			track[j] = fittracker.RawSample{
				TimestampMs: int64(j) * 1000,
				Latitude:    10,
				Longitude:   20 + float64(j*(i+1))*0.00001,
			}
		}
		sessions = append(sessions, loader.Session{Key: fmt.Sprintf("s%02d", i), Track: track})
	}
	sessions = append(sessions, loader.Session{Key: "empty"})

	results, warnings, err := summarizeAll(context.Background(), sessions, 70, 30, fittracker.DefaultParams(), 4)
	require.NoError(t, err)
	require.Len(t, results, 20)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("s%02d", i), r.summary.Key)
	}
	assert.Equal(t, []string{"session empty: empty position log"}, warnings)
}

func TestSummarizeAllHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sessions := []loader.Session{{Key: "a", Track: fittracker.Track{{TimestampMs: 0}}}}
	_, _, err := summarizeAll(ctx, sessions, 70, 30, fittracker.DefaultParams(), 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileSafe(t *testing.T) {
	assert.Equal(t, "tmp_data_20240101_070000", fileSafe("/tmp/data | 20240101_070000"))
	assert.Equal(t, "session", fileSafe(" | "))
}
