package pipeline

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	fittracker "github.com/lucasjlepore/fit-tracker"
	"github.com/lucasjlepore/fit-tracker/loader"
)

// BytesOptions configures an in-memory run over a single FIT or position CSV payload.
type BytesOptions struct {
	SourceFileName string
	Data           []byte
	WeightKG       float64
	HorizonSec     float64
	Format         string // parquet|csv
	Params         *fittracker.Params
}

// BytesResult holds the generated artifacts keyed by file name.
type BytesResult struct {
	RunID    string            `json:"run_id"`
	Summary  SummaryFile       `json:"summary"`
	Files    map[string][]byte `json:"-"`
	Warnings []string          `json:"warnings,omitempty"`
}

// RunBytes produces the same artifacts as Run for one session without
// touching the filesystem.
func RunBytes(opts BytesOptions) (*BytesResult, error) {
	if len(opts.Data) == 0 {
		return nil, fmt.Errorf("input bytes are required")
	}
	format, err := normalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	params, horizon, err := resolveParams(opts.Params, opts.HorizonSec)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(opts.SourceFileName)
	if name == "" {
		name = "input"
	}
	key := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))

	var track fittracker.Track
	if isFITPayload(opts.Data) {
		track, err = loader.DecodeFIT(bytes.NewReader(opts.Data))
	} else {
		track, err = loader.ReadPositionCSV(bytes.NewReader(opts.Data))
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(track) == 0 {
		return nil, fmt.Errorf("no position samples in %s", name)
	}

	summary, series, err := fittracker.Summarize(key, track, opts.WeightKG, horizon, params)
	if err != nil {
		return nil, err
	}
	results := []sessionResult{{summary: summary, series: series, track: track}}

	runID := uuid.NewString()
	summaryFile := buildSummaryFile(runID, results, opts.WeightKG, horizon, params, nil)
	files := make(map[string][]byte, 4)

	summaryJSON, err := json.MarshalIndent(summaryFile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode summary.json: %w", err)
	}
	files["summary.json"] = append(summaryJSON, '\n')

	samples := buildKinematicSamples(results)
	switch format {
	case "csv":
		var buf bytes.Buffer
		if err := encodeKinematicsCSV(&buf, samples); err != nil {
			return nil, fmt.Errorf("encode kinematics csv: %w", err)
		}
		files["kinematics.csv"] = buf.Bytes()
	case "parquet":
		data, err := marshalKinematicsParquet(samples)
		if err != nil {
			return nil, fmt.Errorf("encode kinematics parquet: %w", err)
		}
		files["kinematics.parquet"] = data
	}

	geo, err := marshalTrackGeoJSON(results[0])
	if err != nil {
		return nil, fmt.Errorf("encode geojson: %w", err)
	}
	files[fileSafe(key)+".geojson"] = geo
	files["session_notes.md"] = []byte(buildNotes(results, summaryFile.Totals))

	return &BytesResult{
		RunID:   runID,
		Summary: summaryFile,
		Files:   files,
	}, nil
}

// Archive zips the artifacts in name order with a fixed modification time, so
// identical input yields an identical archive. It also returns the names.
func (r *BytesResult) Archive() ([]byte, []string, error) {
	names := make([]string, 0, len(r.Files))
	for name := range r.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	epoch := time.Unix(0, 0).UTC()
	for _, name := range names {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: epoch})
		if err != nil {
			return nil, nil, err
		}
		if _, err := w.Write(r.Files[name]); err != nil {
			return nil, nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), names, nil
}

// isFITPayload checks for the ".FIT" signature at header offset 8.
func isFITPayload(data []byte) bool {
	return len(data) >= 12 && bytes.Equal(data[8:12], []byte(".FIT"))
}

// IsInvalidInput reports whether err was caused by malformed input rather
// than an I/O or encoding failure.
func IsInvalidInput(err error) bool {
	return errors.Is(err, fittracker.ErrInvalidInput)
}
