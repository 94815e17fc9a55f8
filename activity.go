package fittracker

import (
	"encoding/json"
	"fmt"
	"math"
)

// ActivityLabel is the inferred activity type of a session.
type ActivityLabel int

const (
	ActivityIdle ActivityLabel = iota
	ActivityWalking
	ActivityRunning
	ActivityCycling
	ActivityStairs
)

var activityNames = [...]string{
	ActivityIdle:    "idle",
	ActivityWalking: "walking",
	ActivityRunning: "running",
	ActivityCycling: "cycling",
	ActivityStairs:  "stairs",
}

// Activities lists every label in declaration order.
var Activities = []ActivityLabel{ActivityIdle, ActivityWalking, ActivityRunning, ActivityCycling, ActivityStairs}

func (a ActivityLabel) String() string {
	if a < 0 || int(a) >= len(activityNames) {
		return fmt.Sprintf("activity(%d)", int(a))
	}
	return activityNames[a]
}

// ParseActivity maps a label name back to its value.
func ParseActivity(name string) (ActivityLabel, error) {
	for i, n := range activityNames {
		if n == name {
			return ActivityLabel(i), nil
		}
	}
	return 0, fmt.Errorf("unknown activity %q: %w", name, ErrInvalidInput)
}

func (a ActivityLabel) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *ActivityLabel) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseActivity(name)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Classify maps average horizontal speed and vertical rate to an activity.
// A sustained vertical rate at walking pace or below reads as stairs; it never
// overrides the running or cycling bands.
func Classify(avgSpeedKmh, floorsPerMinute float64, bands SpeedBands) ActivityLabel {
	band := speedBand(avgSpeedKmh, bands)
	if isFinite(floorsPerMinute) && floorsPerMinute >= bands.StairsMinFloorsPerMin &&
		(!isFinite(avgSpeedKmh) || avgSpeedKmh < bands.StairsMaxKmh) {
		return ActivityStairs
	}
	return band
}

func speedBand(avgSpeedKmh float64, bands SpeedBands) ActivityLabel {
	switch {
	case !isFinite(avgSpeedKmh) || avgSpeedKmh < bands.IdleBelowKmh:
		return ActivityIdle
	case avgSpeedKmh < bands.WalkingBelowKmh:
		return ActivityWalking
	case avgSpeedKmh < bands.RunningBelowKmh:
		return ActivityRunning
	default:
		return ActivityCycling
	}
}

// FloorsPerMinute is the vertical rate used by Classify; zero when the session
// has no positive duration.
func FloorsPerMinute(floors, minutes float64) float64 {
	if minutes <= 0 {
		return 0
	}
	rate := floors / minutes
	if math.IsNaN(rate) {
		return 0
	}
	return rate
}
