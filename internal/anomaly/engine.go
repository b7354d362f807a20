package anomaly

import (
	"time"

	"github.com/google/uuid"
	"github.com/sixdouglas/suncalc"
)

// Report is the immutable result of one analysis run for one household and
// date. Every selection change produces a fresh Report; nothing is mutated
// in place afterwards.
type Report struct {
	ID          uuid.UUID `json:"id"`
	HouseholdID string    `json:"household_id"`
	Date        string    `json:"date"`
	GeneratedAt time.Time `json:"generated_at"`

	Rows      []ScoreRow `json:"rows"`
	Aggregate float64    `json:"aggregate"`
	Label     string     `json:"label"`

	Features map[FeatureKey]*float64 `json:"features"`

	BaselineDays         int       `json:"baseline_days"`
	BaselineReliable     bool      `json:"baseline_reliable"`
	AverageHourlyPattern []float64 `json:"average_hourly_pattern,omitempty"`

	// Display metadata, never an input to scoring.
	Daylight *DaylightContext `json:"daylight,omitempty"`
}

// DaylightContext annotates a report with the household's sun times for the
// selected date.
type DaylightContext struct {
	Sunrise       time.Time `json:"sunrise"`
	Sunset        time.Time `json:"sunset"`
	DaylightHours float64   `json:"daylight_hours"`
}

// Analyze runs the full pipeline for one household-date selection: window
// the history, estimate the baseline, extract today's feature vector and
// score it. It is a pure function of its arguments; concurrent runs for
// different households share nothing. Today may be nil (no record for the
// selected date), which yields an empty feature vector and zero scored
// rows. The window length and reliability threshold are caller-tunable;
// zero or negative values fall back to the package defaults. The active
// feature set is derived once and shared by the baseline and the
// extraction so both sides score the same features.
func Analyze(householdID string, date time.Time, today *DailyRecord, history []DailyRecord, roomsByDate map[string][]RoomHourlyRow, baselineDays, minReliableDays int) *Report {
	if baselineDays <= 0 {
		baselineDays = DefaultBaselineDays
	}
	from, to := BaselineWindow(date, baselineDays)
	window := filterWindow(history, from, to)

	features := ActiveFeatures(roomsAvailableFor(today, window))
	baseline := ComputeBaseline(window, roomsByDate, features, minReliableDays)
	var vector map[FeatureKey]*float64
	if today != nil {
		vector = ExtractVector(features, today, roomsByDate[LocalDateKey(date)], baseline.AverageHourlyPattern)
	} else {
		vector = make(map[FeatureKey]*float64)
	}

	scored := ScoreAgainstBaseline(vector, baseline)

	return &Report{
		ID:                   uuid.New(),
		HouseholdID:          householdID,
		Date:                 LocalDateKey(date),
		GeneratedAt:          time.Now(),
		Rows:                 scored.Rows,
		Aggregate:            scored.Aggregate,
		Label:                scored.Label,
		Features:             vector,
		BaselineDays:         baseline.SampleDays,
		BaselineReliable:     baseline.Reliable,
		AverageHourlyPattern: baseline.AverageHourlyPattern,
	}
}

// DaylightFor computes the sun times at the household's coordinates for a
// date.
func DaylightFor(date time.Time, latitude, longitude float64) *DaylightContext {
	times := suncalc.GetTimes(date, latitude, longitude)
	sunrise := times[suncalc.Sunrise].Value
	sunset := times[suncalc.Sunset].Value
	return &DaylightContext{
		Sunrise:       sunrise,
		Sunset:        sunset,
		DaylightHours: sunset.Sub(sunrise).Hours(),
	}
}

// filterWindow keeps records with date in [from, to), compared on calendar
// date keys so that partial-day timestamps cannot leak the selected date
// into its own baseline.
func filterWindow(history []DailyRecord, from, to time.Time) []DailyRecord {
	fromKey := LocalDateKey(from)
	toKey := LocalDateKey(to)
	out := make([]DailyRecord, 0, len(history))
	for i := range history {
		key := LocalDateKey(history[i].Date)
		if key >= fromKey && key < toKey {
			out = append(out, history[i])
		}
	}
	return out
}

// roomsAvailableFor prefers the selected day's reported room count and
// falls back to the historical window.
func roomsAvailableFor(today *DailyRecord, window []DailyRecord) *float64 {
	if today != nil && today.RoomsAvailable != nil {
		return today.RoomsAvailable
	}
	return historyRoomsAvailable(window)
}
