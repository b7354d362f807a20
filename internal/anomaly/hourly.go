package anomaly

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Hour boundaries used by the day/night helpers. The feature bands in
// extract.go (morning/afternoon/evening) are analyst-chosen and deliberately
// independent of these constants.
const (
	dayStartHour   = 5  // daytime range is [05:00, 23:00)
	nightStartHour = 23 // night is [23:00, 06:00)
	nightEndHour   = 6

	dayStartScanFrom = 5
	dayStartScanTo   = 11
)

// CalculateDayStart estimates when the household's day began, in minutes
// since midnight. It scans hours 05-11 for the first hour with at least two
// events that is followed by activity in either of the next two hours, then
// falls back to the first hour >= 05:00 with any activity at all. Returns
// nil when the hourly vector is missing or incomplete.
func CalculateDayStart(eventsPerHour []int) *int {
	if len(eventsPerHour) < HoursPerDay {
		return nil
	}

	for hour := dayStartScanFrom; hour <= dayStartScanTo; hour++ {
		if eventsPerHour[hour] < 2 {
			continue
		}
		for next := hour + 1; next <= hour+2 && next < HoursPerDay; next++ {
			if eventsPerHour[next] > 0 {
				minutes := hour * 60
				return &minutes
			}
		}
	}

	// Fallback: first morning-or-later hour with any activity.
	for hour := dayStartScanFrom; hour < HoursPerDay; hour++ {
		if eventsPerHour[hour] > 0 {
			minutes := hour * 60
			return &minutes
		}
	}

	return nil
}

// SumEventsInRange sums event counts over the inclusive hour range
// [startHour, endHour]. Invalid input yields 0.
func SumEventsInRange(eventsPerHour []int, startHour, endHour int) int {
	if len(eventsPerHour) < HoursPerDay || startHour < 0 || endHour >= HoursPerDay || startHour > endHour {
		return 0
	}
	sum := 0
	for hour := startHour; hour <= endHour; hour++ {
		sum += eventsPerHour[hour]
	}
	return sum
}

// DayEvents sums events over the daytime range [05:00, 23:00).
func DayEvents(eventsPerHour []int) int {
	return SumEventsInRange(eventsPerHour, dayStartHour, nightStartHour-1)
}

// ActiveDayHours counts daytime hours with at least one event.
func ActiveDayHours(eventsPerHour []int) int {
	if len(eventsPerHour) < HoursPerDay {
		return 0
	}
	count := 0
	for hour := dayStartHour; hour < nightStartHour; hour++ {
		if eventsPerHour[hour] > 0 {
			count++
		}
	}
	return count
}

// DayEventsUntilHour sums daytime events for hours in [05:00, untilHour),
// capped at the end of the daytime range.
func DayEventsUntilHour(eventsPerHour []int, untilHour int) int {
	end := untilHour
	if end > nightStartHour {
		end = nightStartHour
	}
	if end <= dayStartHour {
		return 0
	}
	return SumEventsInRange(eventsPerHour, dayStartHour, end-1)
}

// ActiveDayHoursUntilHour counts active daytime hours in [05:00, untilHour).
func ActiveDayHoursUntilHour(eventsPerHour []int, untilHour int) int {
	if len(eventsPerHour) < HoursPerDay {
		return 0
	}
	end := untilHour
	if end > nightStartHour {
		end = nightStartHour
	}
	count := 0
	for hour := dayStartHour; hour < end; hour++ {
		if eventsPerHour[hour] > 0 {
			count++
		}
	}
	return count
}

// IsNightHour reports whether the hour falls in the night range
// [23:00, 06:00).
func IsNightHour(hour int) bool {
	return hour >= nightStartHour || hour < nightEndHour
}

// TimeToMinutes parses a HH:MM or HH:MM:SS clock string into minutes since
// midnight. Empty or malformed input yields 0; callers that need to tell a
// real midnight apart from "no data" must check the raw string themselves
// (see AwakeDuration).
func TimeToMinutes(clock string) int {
	if clock == "" {
		return 0
	}
	parts := strings.Split(clock, ":")
	if len(parts) < 2 {
		return 0
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	return hours*60 + minutes
}

// FormatMinutesToTime renders minutes since midnight as zero-padded HH:MM.
// Negative input yields the empty string.
func FormatMinutesToTime(minutes int) string {
	if minutes < 0 {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Avg returns the arithmetic mean, or nil for an empty slice.
func Avg(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	return &mean
}

// StdDev returns the population standard deviation with a hard floor of 1.
// Fewer than two samples, or a computed deviation of 0, both yield 1 so that
// downstream z-score division is always defined.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 1
	}
	mean := *Avg(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	sd := math.Sqrt(sumSq / float64(len(values)))
	if sd == 0 {
		return 1
	}
	return sd
}

// CosineSimilarity computes the cosine similarity of two equal-length
// vectors. Mismatched lengths, empty input, or a zero-norm vector yield 0.
// With non-negative event counts the result lands in [0, 1].
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// AwakeDuration returns the span in minutes between the first and last
// activity timestamps, floored at 0. Nil when either string is absent, or
// when both resolve to midnight: records default both fields to 00:00 when
// no activity was ever seen, and that must not read as a full awake day.
func AwakeDuration(first, last string) *float64 {
	if first == "" || last == "" {
		return nil
	}
	firstMin := TimeToMinutes(first)
	lastMin := TimeToMinutes(last)
	if firstMin == 0 && lastMin == 0 {
		return nil
	}
	duration := float64(lastMin - firstMin)
	if duration < 0 {
		duration = 0
	}
	return &duration
}

// LocalDateKey renders a timestamp's calendar date as YYYY-MM-DD using its
// local time fields, so that day boundaries follow the household's
// wall-clock day rather than UTC midnight.
func LocalDateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// hourlyToFloats widens an hourly count vector for the vector-math helpers.
func hourlyToFloats(eventsPerHour []int) []float64 {
	out := make([]float64, len(eventsPerHour))
	for i, v := range eventsPerHour {
		out[i] = float64(v)
	}
	return out
}
