package anomaly

import (
	"math"
	"testing"
	"time"
)

// f64 builds an optional value for test fixtures.
func f64(v float64) *float64 {
	return &v
}

func hourlyVector(counts map[int]int) []int {
	v := make([]int, HoursPerDay)
	for hour, count := range counts {
		v[hour] = count
	}
	return v
}

func TestCalculateDayStart(t *testing.T) {
	tests := []struct {
		name     string
		counts   map[int]int
		expected *int
	}{
		{
			name:     "morning activity with follow-up",
			counts:   map[int]int{5: 3, 6: 1},
			expected: intPtr(300),
		},
		{
			name:     "skips hour without follow-up",
			counts:   map[int]int{5: 2, 9: 4, 10: 1},
			expected: intPtr(540),
		},
		{
			name:     "follow-up two hours later",
			counts:   map[int]int{7: 2, 9: 3, 10: 1},
			expected: intPtr(420),
		},
		{
			name:     "fallback to first active hour",
			counts:   map[int]int{14: 1},
			expected: intPtr(840),
		},
		{
			name:     "single event mornings fall back",
			counts:   map[int]int{6: 1},
			expected: intPtr(360),
		},
		{
			name:     "no activity at all",
			counts:   map[int]int{},
			expected: nil,
		},
		{
			name:     "only pre-dawn activity",
			counts:   map[int]int{2: 5, 3: 2},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateDayStart(hourlyVector(tt.counts))
			if (got == nil) != (tt.expected == nil) {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
			if got != nil && *got != *tt.expected {
				t.Errorf("expected %d, got %d", *tt.expected, *got)
			}
		})
	}
}

func TestCalculateDayStartShortVector(t *testing.T) {
	if got := CalculateDayStart([]int{1, 2, 3}); got != nil {
		t.Errorf("expected nil for short vector, got %d", *got)
	}
	if got := CalculateDayStart(nil); got != nil {
		t.Errorf("expected nil for missing vector, got %d", *got)
	}
}

func TestSumEventsInRange(t *testing.T) {
	v := make([]int, HoursPerDay)
	for hour := range v {
		v[hour] = hour
	}

	// Single-hour ranges read the hour itself.
	for hour := 0; hour < HoursPerDay; hour++ {
		if got := SumEventsInRange(v, hour, hour); got != v[hour] {
			t.Errorf("hour %d: expected %d, got %d", hour, v[hour], got)
		}
	}

	// Summing the 24 single-hour ranges equals summing the whole array.
	whole := SumEventsInRange(v, 0, HoursPerDay-1)
	parts := 0
	for hour := 0; hour < HoursPerDay; hour++ {
		parts += SumEventsInRange(v, hour, hour)
	}
	if whole != parts {
		t.Errorf("whole %d != sum of parts %d", whole, parts)
	}

	// Invalid input is 0, never a panic.
	invalid := []struct {
		name       string
		v          []int
		start, end int
	}{
		{"nil vector", nil, 0, 5},
		{"short vector", []int{1, 2}, 0, 1},
		{"negative start", v, -1, 5},
		{"end past midnight", v, 5, 24},
		{"inverted range", v, 10, 5},
	}
	for _, tt := range invalid {
		if got := SumEventsInRange(tt.v, tt.start, tt.end); got != 0 {
			t.Errorf("%s: expected 0, got %d", tt.name, got)
		}
	}
}

func TestDayRangeHelpers(t *testing.T) {
	v := hourlyVector(map[int]int{3: 5, 5: 2, 10: 3, 22: 1, 23: 7})

	if got := DayEvents(v); got != 6 {
		t.Errorf("DayEvents: expected 6, got %d", got)
	}
	if got := ActiveDayHours(v); got != 3 {
		t.Errorf("ActiveDayHours: expected 3, got %d", got)
	}
	if got := DayEventsUntilHour(v, 10); got != 2 {
		t.Errorf("DayEventsUntilHour(10): expected 2, got %d", got)
	}
	if got := DayEventsUntilHour(v, 11); got != 5 {
		t.Errorf("DayEventsUntilHour(11): expected 5, got %d", got)
	}
	if got := DayEventsUntilHour(v, 30); got != 6 {
		t.Errorf("DayEventsUntilHour(30): expected capped sum 6, got %d", got)
	}
	if got := ActiveDayHoursUntilHour(v, 11); got != 2 {
		t.Errorf("ActiveDayHoursUntilHour(11): expected 2, got %d", got)
	}
}

func TestIsNightHour(t *testing.T) {
	tests := []struct {
		hour     int
		expected bool
	}{
		{23, true},
		{0, true},
		{3, true},
		{5, true},
		{6, false},
		{12, false},
		{22, false},
	}
	for _, tt := range tests {
		if got := IsNightHour(tt.hour); got != tt.expected {
			t.Errorf("hour %d: expected %v, got %v", tt.hour, tt.expected, got)
		}
	}
}

func TestTimeToMinutes(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"00:00", 0},
		{"05:00", 300},
		{"09:30", 570},
		{"23:59", 1439},
		{"07:45:30", 465},
		{"", 0},
		{"garbage", 0},
		{"12", 0},
	}
	for _, tt := range tests {
		if got := TimeToMinutes(tt.input); got != tt.expected {
			t.Errorf("%q: expected %d, got %d", tt.input, tt.expected, got)
		}
	}
}

func TestFormatMinutesToTimeRoundTrip(t *testing.T) {
	for m := 0; m < 1440; m++ {
		if got := TimeToMinutes(FormatMinutesToTime(m)); got != m {
			t.Fatalf("round trip failed for %d: got %d", m, got)
		}
	}
	if got := FormatMinutesToTime(-1); got != "" {
		t.Errorf("expected empty string for negative minutes, got %q", got)
	}
}

func TestAvg(t *testing.T) {
	if got := Avg(nil); got != nil {
		t.Errorf("expected nil for empty input, got %v", *got)
	}
	got := Avg([]float64{2, 4, 6})
	if got == nil || *got != 4 {
		t.Errorf("expected 4, got %v", got)
	}
}

func TestStdDevFloor(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"empty", nil, 1},
		{"single sample", []float64{42}, 1},
		{"zero variance", []float64{7, 7, 7}, 1},
		{"real spread", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StdDev(tt.values); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	v := []float64{1, 2, 3, 0, 5}

	if got := CosineSimilarity(v, v); math.Abs(got-1) > 1e-9 {
		t.Errorf("self-similarity: expected 1, got %v", got)
	}
	if got := CosineSimilarity(v, make([]float64, len(v))); got != 0 {
		t.Errorf("zero vector: expected 0, got %v", got)
	}
	if got := CosineSimilarity(v, []float64{1, 2}); got != 0 {
		t.Errorf("length mismatch: expected 0, got %v", got)
	}
	if got := CosineSimilarity(nil, nil); got != 0 {
		t.Errorf("missing input: expected 0, got %v", got)
	}

	// Orthogonal vectors.
	if got := CosineSimilarity([]float64{1, 0}, []float64{0, 1}); got != 0 {
		t.Errorf("orthogonal: expected 0, got %v", got)
	}
}

func TestAwakeDuration(t *testing.T) {
	tests := []struct {
		name     string
		first    string
		last     string
		expected *float64
	}{
		{"normal day", "07:30", "22:00", f64(870)},
		{"same time", "10:00", "10:00", f64(0)},
		{"missing first", "", "10:00", nil},
		{"missing last", "08:00", "", nil},
		{"both midnight means no data", "00:00", "00:00", nil},
		{"inverted clamps to zero", "20:00", "08:00", f64(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AwakeDuration(tt.first, tt.last)
			if (got == nil) != (tt.expected == nil) {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
			if got != nil && *got != *tt.expected {
				t.Errorf("expected %v, got %v", *tt.expected, *got)
			}
		})
	}
}

func TestLocalDateKey(t *testing.T) {
	loc := time.FixedZone("EET", 2*60*60)
	// Local wall-clock date, not the UTC date.
	ts := time.Date(2026, 3, 1, 0, 30, 0, 0, loc)
	if got := LocalDateKey(ts); got != "2026-03-01" {
		t.Errorf("expected 2026-03-01, got %s", got)
	}
	if got := LocalDateKey(ts.UTC()); got != "2026-02-28" {
		t.Errorf("expected 2026-02-28 for the UTC view, got %s", got)
	}
}

func intPtr(v int) *int {
	return &v
}
