package anomaly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyDay(daysAgo int, total float64, counts map[int]int) DailyRecord {
	return DailyRecord{
		Date:          testDay().AddDate(0, 0, -daysAgo),
		EventsPerHour: hourlyVector(counts),
		TotalEvents:   f64(total),
	}
}

func TestComputeBaselineEmptyWindow(t *testing.T) {
	baseline := ComputeBaseline(nil, nil, nil, 0)

	require.NotNil(t, baseline)
	assert.Empty(t, baseline.PerFeature)
	assert.Nil(t, baseline.AverageHourlyPattern)
	assert.Equal(t, 0, baseline.SampleDays)
	assert.False(t, baseline.Reliable)
}

func TestComputeBaselineDistribution(t *testing.T) {
	history := []DailyRecord{
		historyDay(1, 10, map[int]int{8: 10}),
		historyDay(2, 20, map[int]int{8: 20}),
		historyDay(3, 30, map[int]int{8: 30}),
	}

	baseline := ComputeBaseline(history, nil, nil, 0)

	dist, ok := baseline.PerFeature[FeatureTotalEvents]
	require.True(t, ok, "total_events should have a baseline entry")
	assert.InDelta(t, 20.0, dist.Mean, 1e-9)
	assert.InDelta(t, 8.164965, dist.StdDev, 1e-5)
	assert.Equal(t, 10.0, dist.Min)
	assert.Equal(t, 30.0, dist.Max)
	assert.Equal(t, 3, dist.Samples)

	assert.Equal(t, 3, baseline.SampleDays)
	assert.False(t, baseline.Reliable, "3 days is below the reliability threshold")
}

func TestComputeBaselineStdDevFloor(t *testing.T) {
	history := []DailyRecord{
		historyDay(1, 15, nil),
		historyDay(2, 15, nil),
		historyDay(3, 15, nil),
	}

	baseline := ComputeBaseline(history, nil, nil, 0)

	dist := baseline.PerFeature[FeatureTotalEvents]
	assert.Equal(t, 1.0, dist.StdDev, "zero variance must floor to 1")
}

func TestComputeBaselineSkipsMissingValues(t *testing.T) {
	history := []DailyRecord{
		historyDay(1, 10, nil),
		{Date: testDay().AddDate(0, 0, -2)}, // no data at all
		historyDay(3, 30, nil),
	}

	baseline := ComputeBaseline(history, nil, nil, 0)

	dist, ok := baseline.PerFeature[FeatureTotalEvents]
	require.True(t, ok)
	assert.Equal(t, 2, dist.Samples, "nil values are discarded, not zero-filled")
	assert.InDelta(t, 20.0, dist.Mean, 1e-9)

	// A feature with no surviving samples gets no entry at all.
	_, ok = baseline.PerFeature[FeatureMotionEvents]
	assert.False(t, ok, "motion_events never observed, no baseline entry")

	assert.Equal(t, 3, baseline.SampleDays, "day count includes days with partial data")
}

func TestComputeBaselineAverageHourlyPattern(t *testing.T) {
	history := []DailyRecord{
		historyDay(1, 10, map[int]int{8: 10, 20: 2}),
		historyDay(2, 20, map[int]int{8: 30, 20: 4}),
		{Date: testDay().AddDate(0, 0, -3), EventsPerHour: []int{1, 2, 3}, TotalEvents: f64(6)},
	}

	baseline := ComputeBaseline(history, nil, nil, 0)

	require.Len(t, baseline.AverageHourlyPattern, HoursPerDay)
	assert.InDelta(t, 20.0, baseline.AverageHourlyPattern[8], 1e-9)
	assert.InDelta(t, 3.0, baseline.AverageHourlyPattern[20], 1e-9)
	assert.Zero(t, baseline.AverageHourlyPattern[0], "short-vector day is excluded from the pattern")

	// Regularity gets a baseline once a pattern exists.
	_, ok := baseline.PerFeature[FeatureActivityRegularity]
	assert.True(t, ok)
}

func TestComputeBaselineNoPatternNoRegularity(t *testing.T) {
	history := []DailyRecord{
		{Date: testDay().AddDate(0, 0, -1), TotalEvents: f64(10)},
		{Date: testDay().AddDate(0, 0, -2), TotalEvents: f64(12)},
	}

	baseline := ComputeBaseline(history, nil, nil, 0)

	assert.Nil(t, baseline.AverageHourlyPattern)
	_, ok := baseline.PerFeature[FeatureActivityRegularity]
	assert.False(t, ok, "no complete hourly day, regularity stays unscored")
}

func TestComputeBaselineRoomFeatures(t *testing.T) {
	multi := []DailyRecord{
		{Date: testDay().AddDate(0, 0, -1), RoomsActive: f64(3), RoomsAvailable: f64(4)},
		{Date: testDay().AddDate(0, 0, -2), RoomsActive: f64(2), RoomsAvailable: f64(4)},
	}
	baseline := ComputeBaseline(multi, nil, nil, 0)
	_, ok := baseline.PerFeature[FeatureRoomRatio]
	assert.True(t, ok, "multi-room household scores room features")

	single := []DailyRecord{
		{Date: testDay().AddDate(0, 0, -1), RoomsActive: f64(1), RoomsAvailable: f64(1)},
		{Date: testDay().AddDate(0, 0, -2), RoomsActive: f64(1), RoomsAvailable: f64(1)},
	}
	baseline = ComputeBaseline(single, nil, nil, 0)
	for _, key := range []FeatureKey{FeatureRoomsActive, FeatureRoomRatio, FeatureMainRoomPct, FeatureTransitionCount} {
		_, ok := baseline.PerFeature[key]
		assert.False(t, ok, "single-room household must not score %s", key)
	}
}

func TestComputeBaselineReliability(t *testing.T) {
	var history []DailyRecord
	for day := 1; day <= MinReliableDays; day++ {
		history = append(history, historyDay(day, float64(10+day), nil))
	}

	baseline := ComputeBaseline(history, nil, nil, 0)
	assert.Equal(t, MinReliableDays, baseline.SampleDays)
	assert.True(t, baseline.Reliable)

	// The threshold is tunable; a stricter one flips the flag.
	baseline = ComputeBaseline(history, nil, nil, MinReliableDays+1)
	assert.False(t, baseline.Reliable)

	baseline = ComputeBaseline(history[:3], nil, nil, 3)
	assert.True(t, baseline.Reliable, "3 days meets a lowered threshold of 3")
}

func TestComputeBaselineExplicitFeatureSet(t *testing.T) {
	// History without room counts would derive the 14-feature set on its
	// own; a caller-supplied set wins so baseline and scoring stay aligned.
	history := []DailyRecord{
		{Date: testDay().AddDate(0, 0, -1), TotalEvents: f64(10), RoomsActive: f64(2)},
		{Date: testDay().AddDate(0, 0, -2), TotalEvents: f64(12), RoomsActive: f64(3)},
	}

	baseline := ComputeBaseline(history, nil, ActiveFeatures(f64(4)), 0)
	_, ok := baseline.PerFeature[FeatureRoomsActive]
	assert.True(t, ok, "explicit multi-room set must include room features")

	baseline = ComputeBaseline(history, nil, ActiveFeatures(f64(1)), 0)
	_, ok = baseline.PerFeature[FeatureRoomsActive]
	assert.False(t, ok, "explicit single-room set must exclude room features")
}

func TestBaselineWindow(t *testing.T) {
	selected := time.Date(2026, 8, 10, 0, 0, 0, 0, time.Local)
	from, to := BaselineWindow(selected, DefaultBaselineDays)

	assert.Equal(t, time.Date(2026, 7, 27, 0, 0, 0, 0, time.Local), from)
	assert.Equal(t, selected, to, "window end is exclusive of the selected date")
}
