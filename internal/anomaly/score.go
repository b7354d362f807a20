package anomaly

import "math"

// Severity buckets one feature's deviation for display. The buckets are
// independent of the aggregate-label thresholds.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Aggregate labels, fixed contract for every household.
const (
	LabelNormal    = "normal"
	LabelElevated  = "elevated"
	LabelAnomalous = "strongly anomalous"
)

const (
	elevatedThreshold  = 0.33
	anomalousThreshold = 0.66

	// Weighting of the two aggregate terms, and the fixed normalization so
	// that a combined deviation of 3 standard-deviation units maps to full
	// scale. Callers must not rescale.
	maxZWeight      = 0.6
	weightedZWeight = 0.4
	zFullScale      = 3.0
)

// ScoreRow is one scored feature: today's value against its baseline.
type ScoreRow struct {
	Key      FeatureKey `json:"key"`
	Value    float64    `json:"value"`
	Mean     float64    `json:"baseline_mean"`
	StdDev   float64    `json:"baseline_stddev"`
	ZScore   float64    `json:"z_score"`
	Severity Severity   `json:"severity"`
}

// ScoreResult is the outcome of one scoring run. Rows follow catalog
// order. Features missing either a today value or a baseline entry are
// omitted, not scored as zero.
type ScoreResult struct {
	Rows      []ScoreRow `json:"rows"`
	Aggregate float64    `json:"aggregate"`
	Label     string     `json:"label"`
}

// ScoreAgainstBaseline standardizes today's feature vector against the
// baseline distributions and combines the deviations into a single [0, 1]
// anomaly score.
func ScoreAgainstBaseline(today map[FeatureKey]*float64, baseline *Baseline) *ScoreResult {
	result := &ScoreResult{Rows: []ScoreRow{}, Label: LabelNormal}
	if baseline == nil || len(baseline.PerFeature) == 0 {
		return result
	}

	var maxAbsZ, weightedSum, weightTotal float64
	for _, def := range catalog {
		value, ok := today[def.Key]
		if !ok || value == nil || math.IsNaN(*value) {
			continue
		}
		dist, ok := baseline.PerFeature[def.Key]
		if !ok {
			continue
		}

		z := 0.0
		if dist.StdDev > 0 {
			z = (*value - dist.Mean) / dist.StdDev
		}
		absZ := math.Abs(z)

		result.Rows = append(result.Rows, ScoreRow{
			Key:      def.Key,
			Value:    *value,
			Mean:     dist.Mean,
			StdDev:   dist.StdDev,
			ZScore:   z,
			Severity: severityForZ(z),
		})

		if absZ > maxAbsZ {
			maxAbsZ = absZ
		}
		weightedSum += def.Weight * absZ
		weightTotal += def.Weight
	}

	if len(result.Rows) == 0 {
		return result
	}

	weightedAvgAbsZ := weightedSum / weightTotal
	aggregate := (maxZWeight*maxAbsZ + weightedZWeight*weightedAvgAbsZ) / zFullScale
	result.Aggregate = clamp01(aggregate)
	result.Label = labelForAggregate(result.Aggregate)
	return result
}

func severityForZ(z float64) Severity {
	switch abs := math.Abs(z); {
	case abs > 2:
		return SeverityHigh
	case abs > 1:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func labelForAggregate(aggregate float64) string {
	switch {
	case aggregate < elevatedThreshold:
		return LabelNormal
	case aggregate < anomalousThreshold:
		return LabelElevated
	default:
		return LabelAnomalous
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
