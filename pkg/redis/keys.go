package redis

import "fmt"

// AnalysisReportKey returns the cache key for the latest analysis report of
// one household and date.
// Pattern: analysis:report:{household}:{date}
func AnalysisReportKey(householdID, dateKey string) string {
	return fmt.Sprintf("analysis:report:%s:%s", householdID, dateKey)
}
