package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	fittracker "github.com/lucasjlepore/fit-tracker"
)

// Position CSV column names.
const (
	ColTimestamp = "timestamp"
	ColLatitude  = "latitude"
	ColLongitude = "longitude"
	ColAltitude  = "altitude"
)

// ReadPositionCSV reads a position log with a header row. timestamp, latitude
// and longitude are required; altitude is optional and, when the column is
// present, must be filled on every row.
func ReadPositionCSV(r io.Reader) (fittracker.Track, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("position csv is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, required := range []string{ColTimestamp, ColLatitude, ColLongitude} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("position csv missing %q column", required)
		}
	}
	altCol, hasAlt := cols[ColAltitude]

	track := make(fittracker.Track, 0, 1024)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}

		ts, err := parseTimestamp(field(rec, cols[ColTimestamp]))
		if err != nil {
			return nil, fmt.Errorf("line %d: timestamp: %w", line, err)
		}
		lat, err := strconv.ParseFloat(field(rec, cols[ColLatitude]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: latitude: %w", line, err)
		}
		lon, err := strconv.ParseFloat(field(rec, cols[ColLongitude]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: longitude: %w", line, err)
		}
		sample := fittracker.RawSample{TimestampMs: ts, Latitude: lat, Longitude: lon}
		if hasAlt {
			alt, err := strconv.ParseFloat(field(rec, altCol), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: altitude: %w", line, err)
			}
			sample.AltitudeM = fittracker.Altitude(alt)
		}
		track = append(track, sample)
	}
	return track, nil
}

func field(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

// parseTimestamp accepts integer milliseconds and tolerates exporters that
// write them in float notation.
func parseTimestamp(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not finite: %q", s)
	}
	return int64(math.Round(f)), nil
}
