package fittracker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParamsValid(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Params)
	}{
		{name: "zero radius", mutate: func(p *Params) { p.Geo.EarthRadiusKm = 0 }},
		{name: "zero floor height", mutate: func(p *Params) { p.Geo.FloorHeightM = 0 }},
		{name: "bands out of order", mutate: func(p *Params) { p.Bands.RunningBelowKmh = 4 }},
		{name: "stairs ceiling above walking band", mutate: func(p *Params) { p.Bands.StairsMaxKmh = 7 }},
		{name: "met range inverted", mutate: func(p *Params) { p.MET.Running.Min = 20 }},
		{name: "min samples too small", mutate: func(p *Params) { p.Forecast.MinSamples = 1 }},
		{name: "alpha max above one", mutate: func(p *Params) { p.Forecast.AlphaMax = 1.5 }},
		{name: "zero span", mutate: func(p *Params) { p.LifeExpectancy.Segments[1].Span = 0 }},
		{name: "unsorted segments", mutate: func(p *Params) { p.LifeExpectancy.Segments[2].From = 100 }},
		{name: "zero weekly repeat", mutate: func(p *Params) { p.WeeklyRepeat = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidInput)
		})
	}
}

func TestLoadParamsPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.json")
	body := `{"weekly_repeat": 5, "speed_bands": {"running_below_kmh": 14}, "forecast": {"horizon_sec": 60}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	got, err := LoadParams(path)
	require.NoError(t, err)

	want := DefaultParams()
	want.WeeklyRepeat = 5
	want.Bands.RunningBelowKmh = 14
	want.Forecast.HorizonSec = 60
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("LoadParams mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadParamsErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadParams(filepath.Join(dir, "tuning.yaml"))
	assert.ErrorContains(t, err, ".json extension")

	_, err = LoadParams(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"weekly_repeat": `), 0o644))
	_, err = LoadParams(bad)
	assert.ErrorContains(t, err, "parse params JSON")

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"speed_bands": {"stairs_max_kmh": 9}}`), 0o644))
	_, err = LoadParams(invalid)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
