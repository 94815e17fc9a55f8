package loader

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	fittracker "github.com/lucasjlepore/fit-tracker"
	"github.com/tormoder/fit"
)

// DecodeFIT reads a FIT activity file into a track. Records without a valid
// position or timestamp are dropped. The altitude channel is kept only if
// every retained record carries one.
func DecodeFIT(r io.Reader) (fittracker.Track, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}
	return trackFromRecords(activity.Records), nil
}

// LoadFITFile opens and decodes one FIT activity file.
func LoadFITFile(path string) (fittracker.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FIT file: %w", err)
	}
	defer f.Close()
	return DecodeFIT(f)
}

func trackFromRecords(records []*fit.RecordMsg) fittracker.Track {
	type row struct {
		sample fittracker.RawSample
		alt    float64
		hasAlt bool
	}

	rows := make([]row, 0, len(records))
	for _, rec := range records {
		if rec == nil || rec.Timestamp.IsZero() || fit.IsBaseTime(rec.Timestamp) {
			continue
		}
		if rec.PositionLat.Invalid() || rec.PositionLong.Invalid() {
			continue
		}
		alt, hasAlt := extractAltitude(rec)
		rows = append(rows, row{
			sample: fittracker.RawSample{
				TimestampMs: rec.Timestamp.UnixMilli(),
				Latitude:    rec.PositionLat.Degrees(),
				Longitude:   rec.PositionLong.Degrees(),
			},
			alt:    alt,
			hasAlt: hasAlt,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].sample.TimestampMs < rows[j].sample.TimestampMs
	})

	withAlt := len(rows) > 0
	for _, r := range rows {
		if !r.hasAlt {
			withAlt = false
			break
		}
	}

	track := make(fittracker.Track, len(rows))
	for i, r := range rows {
		track[i] = r.sample
		if withAlt {
			track[i].AltitudeM = fittracker.Altitude(r.alt)
		}
	}
	return track
}

func extractAltitude(rec *fit.RecordMsg) (float64, bool) {
	alt := rec.GetEnhancedAltitudeScaled()
	if isFinite(alt) {
		return alt, true
	}
	alt = rec.GetAltitudeScaled()
	if isFinite(alt) {
		return alt, true
	}
	return 0, false
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
