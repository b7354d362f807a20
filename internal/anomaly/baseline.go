package anomaly

import (
	"math"
	"time"
)

const (
	// DefaultBaselineDays is the trailing window length: the 14 days ending
	// the day before the selected date.
	DefaultBaselineDays = 14

	// MinReliableDays is the contributing-day threshold below which a
	// baseline is still computed but flagged as unreliable.
	MinReliableDays = 7
)

// Distribution summarizes one feature's historical samples. StdDev is
// floored to 1, which understates variability for near-constant features
// but keeps z-score division defined. A feature with no surviving samples
// gets no Distribution at all rather than a zero-filled one.
type Distribution struct {
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"stddev"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Samples int     `json:"samples"`
}

// Baseline is the full output of one estimation run. AverageHourlyPattern
// is nil when no historical day carried a complete 24-hour vector, in which
// case activity_regularity stays unscored on both sides.
type Baseline struct {
	PerFeature           map[FeatureKey]Distribution `json:"per_feature"`
	AverageHourlyPattern []float64                   `json:"average_hourly_pattern,omitempty"`
	SampleDays           int                         `json:"sample_days"`
	Reliable             bool                        `json:"reliable"`
}

// BaselineWindow returns the half-open [from, to) date range of the
// trailing baseline window for a selected date: `days` days ending the day
// before it.
func BaselineWindow(selected time.Time, days int) (time.Time, time.Time) {
	to := selected
	from := selected.AddDate(0, 0, -days)
	return from, to
}

// ComputeBaseline estimates per-feature distributions from a trailing
// window of historical records. Room rows are keyed by LocalDateKey of
// their date; a missing entry means that day simply had no room data.
// The caller hands in the active feature set so baseline and scoring
// always agree on it; nil derives the set from the window's room counts.
// A minReliableDays of zero or less falls back to MinReliableDays.
// An empty window yields an empty baseline, never fabricated statistics.
func ComputeBaseline(history []DailyRecord, roomsByDate map[string][]RoomHourlyRow, features []FeatureDefinition, minReliableDays int) *Baseline {
	baseline := &Baseline{PerFeature: make(map[FeatureKey]Distribution)}
	if len(history) == 0 {
		return baseline
	}
	if minReliableDays <= 0 {
		minReliableDays = MinReliableDays
	}

	baseline.AverageHourlyPattern = averageHourlyPattern(history)
	baseline.SampleDays = countDistinctDays(history)
	baseline.Reliable = baseline.SampleDays >= minReliableDays

	if features == nil {
		features = ActiveFeatures(historyRoomsAvailable(history))
	}
	for _, def := range features {
		samples := make([]float64, 0, len(history))
		for i := range history {
			day := &history[i]
			rooms := roomsByDate[LocalDateKey(day.Date)]
			value := Extract(def.Key, day, rooms, baseline.AverageHourlyPattern)
			if value == nil || math.IsNaN(*value) {
				continue
			}
			samples = append(samples, *value)
		}
		if len(samples) == 0 {
			continue
		}

		min, max := samples[0], samples[0]
		for _, v := range samples[1:] {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		sd := StdDev(samples)
		if sd < 1 {
			sd = 1
		}
		baseline.PerFeature[def.Key] = Distribution{
			Mean:    *Avg(samples),
			StdDev:  sd,
			Min:     min,
			Max:     max,
			Samples: len(samples),
		}
	}

	return baseline
}

// averageHourlyPattern is the elementwise mean over historical days with a
// complete hourly vector, or nil when none qualify.
func averageHourlyPattern(history []DailyRecord) []float64 {
	sums := make([]float64, HoursPerDay)
	days := 0
	for i := range history {
		if len(history[i].EventsPerHour) != HoursPerDay {
			continue
		}
		for hour, count := range history[i].EventsPerHour {
			sums[hour] += float64(count)
		}
		days++
	}
	if days == 0 {
		return nil
	}
	for hour := range sums {
		sums[hour] /= float64(days)
	}
	return sums
}

func countDistinctDays(history []DailyRecord) int {
	seen := make(map[string]struct{}, len(history))
	for i := range history {
		seen[LocalDateKey(history[i].Date)] = struct{}{}
	}
	return len(seen)
}

// historyRoomsAvailable picks the household's room count from the window:
// the largest value any day reported, nil when no day reported one.
func historyRoomsAvailable(history []DailyRecord) *float64 {
	var rooms *float64
	for i := range history {
		v := history[i].RoomsAvailable
		if v == nil {
			continue
		}
		if rooms == nil || *v > *rooms {
			rooms = v
		}
	}
	return rooms
}
