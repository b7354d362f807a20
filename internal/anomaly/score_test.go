package anomaly

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baselineWith(entries map[FeatureKey]Distribution) *Baseline {
	return &Baseline{PerFeature: entries, SampleDays: 10, Reliable: true}
}

func TestScoreSingleExtremeFeature(t *testing.T) {
	// today 50 against baseline (20, 5): z = 6, and as the only scored
	// feature the aggregate saturates at full scale.
	baseline := baselineWith(map[FeatureKey]Distribution{
		FeatureTotalEvents: {Mean: 20, StdDev: 5, Min: 12, Max: 28, Samples: 10},
	})
	today := map[FeatureKey]*float64{FeatureTotalEvents: f64(50)}

	result := ScoreAgainstBaseline(today, baseline)

	require.Len(t, result.Rows, 1)
	row := result.Rows[0]
	assert.Equal(t, FeatureTotalEvents, row.Key)
	assert.InDelta(t, 6.0, row.ZScore, 1e-9)
	assert.Equal(t, SeverityHigh, row.Severity)

	assert.Equal(t, 1.0, result.Aggregate)
	assert.Equal(t, LabelAnomalous, result.Label)
}

func TestScoreAllWithinOneSigmaIsNormal(t *testing.T) {
	baseline := baselineWith(map[FeatureKey]Distribution{
		FeatureTotalEvents:  {Mean: 20, StdDev: 5, Samples: 10},
		FeatureActiveHours:  {Mean: 10, StdDev: 2, Samples: 10},
		FeatureMotionEvents: {Mean: 40, StdDev: 8, Samples: 10},
	})
	today := map[FeatureKey]*float64{
		FeatureTotalEvents:  f64(23),
		FeatureActiveHours:  f64(9),
		FeatureMotionEvents: f64(44),
	}

	result := ScoreAgainstBaseline(today, baseline)

	require.Len(t, result.Rows, 3)
	for _, row := range result.Rows {
		assert.LessOrEqual(t, math.Abs(row.ZScore), 1.0)
		assert.Equal(t, SeverityLow, row.Severity)
	}
	assert.Less(t, result.Aggregate, elevatedThreshold)
	assert.Equal(t, LabelNormal, result.Label)
}

func TestScoreEmptyBaseline(t *testing.T) {
	today := map[FeatureKey]*float64{FeatureTotalEvents: f64(50)}

	result := ScoreAgainstBaseline(today, &Baseline{PerFeature: map[FeatureKey]Distribution{}})

	assert.Empty(t, result.Rows)
	assert.Zero(t, result.Aggregate)
	assert.Equal(t, LabelNormal, result.Label)

	result = ScoreAgainstBaseline(today, nil)
	assert.Empty(t, result.Rows)
	assert.Zero(t, result.Aggregate)
}

func TestScoreOmitsUnmatchedFeatures(t *testing.T) {
	baseline := baselineWith(map[FeatureKey]Distribution{
		FeatureTotalEvents: {Mean: 20, StdDev: 5, Samples: 10},
		FeatureActiveHours: {Mean: 10, StdDev: 2, Samples: 10},
	})
	today := map[FeatureKey]*float64{
		FeatureTotalEvents:  f64(22),
		FeatureMotionEvents: f64(99), // present today, absent from history
		FeatureActiveHours:  nil,     // no data today
	}

	result := ScoreAgainstBaseline(today, baseline)

	require.Len(t, result.Rows, 1)
	assert.Equal(t, FeatureTotalEvents, result.Rows[0].Key)
}

func TestScoreSeverityBuckets(t *testing.T) {
	tests := []struct {
		name     string
		z        float64
		expected Severity
	}{
		{"well inside", 0.4, SeverityLow},
		{"exactly one sigma", 1.0, SeverityLow},
		{"between one and two", -1.5, SeverityMedium},
		{"exactly two sigma", 2.0, SeverityMedium},
		{"beyond two", 2.1, SeverityHigh},
		{"far negative", -4.0, SeverityHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, severityForZ(tt.z))
		})
	}
}

func TestScoreAggregateCombinesMaxAndWeightedAverage(t *testing.T) {
	// Two features, equal weights, z-scores 3 and 0:
	// maxAbsZ = 3, weightedAvgAbsZ = 1.5,
	// aggregate = (0.6*3 + 0.4*1.5)/3 = 0.8.
	baseline := baselineWith(map[FeatureKey]Distribution{
		FeatureMotionEvents: {Mean: 10, StdDev: 2, Samples: 10},
		FeatureDoorEvents:   {Mean: 6, StdDev: 2, Samples: 10},
	})
	today := map[FeatureKey]*float64{
		FeatureMotionEvents: f64(16),
		FeatureDoorEvents:   f64(6),
	}

	result := ScoreAgainstBaseline(today, baseline)

	require.Len(t, result.Rows, 2)
	assert.InDelta(t, 0.8, result.Aggregate, 1e-9)
	assert.Equal(t, LabelAnomalous, result.Label)
}

func TestScoreRowsFollowCatalogOrder(t *testing.T) {
	baseline := baselineWith(map[FeatureKey]Distribution{
		FeatureDoorEvents:  {Mean: 5, StdDev: 1, Samples: 10},
		FeatureTotalEvents: {Mean: 20, StdDev: 5, Samples: 10},
	})
	today := map[FeatureKey]*float64{
		FeatureDoorEvents:  f64(5),
		FeatureTotalEvents: f64(20),
	}

	result := ScoreAgainstBaseline(today, baseline)

	require.Len(t, result.Rows, 2)
	assert.Equal(t, FeatureTotalEvents, result.Rows[0].Key, "volume precedes device in the catalog")
	assert.Equal(t, FeatureDoorEvents, result.Rows[1].Key)
}

func TestLabelThresholds(t *testing.T) {
	assert.Equal(t, LabelNormal, labelForAggregate(0.32))
	assert.Equal(t, LabelElevated, labelForAggregate(0.33))
	assert.Equal(t, LabelElevated, labelForAggregate(0.65))
	assert.Equal(t, LabelAnomalous, labelForAggregate(0.66))
	assert.Equal(t, LabelAnomalous, labelForAggregate(1.0))
}
