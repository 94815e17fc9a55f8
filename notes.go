package fittracker

import (
	"fmt"
	"math"
	"strings"
)

// BuildSessionNotes turns one session summary into a short plain-text report.
func BuildSessionNotes(s SessionSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Session: %s (%s)\n", s.Key, s.Activity)
	fmt.Fprintf(
		&b,
		"Duration %s | Distance %.2f km | Elevation +%.0f m (%.1f floors)\n",
		formatDuration(s.DurationMin*60.0),
		s.DistanceKm,
		s.ElevationGainM,
		s.Floors,
	)
	if isFinite(s.AvgSpeedKmh) {
		fmt.Fprintf(&b, "Speed %.1f avg km/h | Samples %d every %.1fs\n", s.AvgSpeedKmh, s.Samples, s.SampleIntervalS)
	} else {
		fmt.Fprintf(&b, "Speed unavailable (no elapsed time) | Samples %d\n", s.Samples)
	}
	fmt.Fprintf(
		&b,
		"Energy MET %.1f | %.0f MET-min | %.0f kcal | ~%s steps\n",
		s.MET,
		s.METMinutes,
		s.CaloriesKcal,
		formatThousands(s.EstimatedSteps),
	)
	if s.HasForecast() {
		fmt.Fprintf(&b, "Forecast: %.1f km/h in %.0fs\n", s.PredictedSpeedKmh, s.HorizonSec)
	} else {
		b.WriteString("Forecast: not enough samples\n")
	}

	return strings.TrimSpace(b.String())
}

// BuildTotalsNotes renders the cross-session header and per-activity table.
func BuildTotalsNotes(t Totals) string {
	var b strings.Builder

	fmt.Fprintf(
		&b,
		"Sessions %d | %.0f min | %.2f km | +%.0f m | %.0f floors | %.0f kcal\n",
		t.Sessions,
		t.DurationMin,
		t.DistanceKm,
		t.ElevationGainM,
		t.Floors,
		t.CaloriesKcal,
	)

	if len(t.Activities) > 0 {
		next := "next forecast"
		if t.HorizonSec > 0 {
			next = fmt.Sprintf("next %.0fs", t.HorizonSec)
		}
		b.WriteString("\nActivities\n")
		for _, a := range t.Activities {
			forecast := "-"
			if a.MeanPredictedSpeedKmh != nil {
				forecast = fmt.Sprintf("%.1f km/h", *a.MeanPredictedSpeedKmh)
			}
			fmt.Fprintf(
				&b,
				"- %-8s | %2d | %6.2f km | %s | %5.0f kcal | +%4.0f m | %s steps | %s %s\n",
				a.Activity,
				a.Sessions,
				a.DistanceKm,
				formatDuration(a.DurationMin*60.0),
				a.CaloriesKcal,
				a.ElevationGainM,
				formatThousands(a.EstimatedSteps),
				next,
				forecast,
			)
		}
	}

	b.WriteString("\nHealth Insights\n")
	fmt.Fprintf(&b, "- Weekly MET-min if repeated daily: %.0f.\n", t.WeeklyMETMinutes)
	fmt.Fprintf(&b, "- Estimated life expectancy impact: ~%.1f years (illustrative).\n", t.LifeExpectancyGainYrs)
	b.WriteString("- ")
	b.WriteString(activityGuidance(t.WeeklyMETMinutes))
	b.WriteByte('\n')

	return strings.TrimSpace(b.String())
}

func activityGuidance(weekly float64) string {
	switch {
	case weekly < 500:
		return "Below the 500-1000 MET-min/week range; adding walking or stairs on most days closes the gap."
	case weekly <= 1000:
		return "Within the 500-1000 MET-min/week range; mix walking, stairs and running for balanced cardio."
	default:
		return "Above 1000 MET-min/week; keep easy days easy so the volume stays sustainable."
	}
}

func formatDuration(seconds float64) string {
	if seconds <= 0 || !isFinite(seconds) {
		return "0s"
	}
	s := int(math.Round(seconds))
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}

func formatThousands(n int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	digits := fmt.Sprint(n)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
