package mqtt

import "fmt"

// Topic layout:
//
//	vigil/raw/{sensor_type}/{room}       raw sensor events (input)
//	vigil/analysis/request               analysis requests from the dashboard
//	vigil/analysis/report/{household}    published analysis reports
const (
	TopicRawSensors = "vigil/raw/+/+"
	TopicRawMotion  = "vigil/raw/motion/+"
	TopicRawDoor    = "vigil/raw/door/+"

	TopicAnalysisRequest = "vigil/analysis/request"

	topicAnalysisReportBase = "vigil/analysis/report"
)

// RawSensorTopic constructs a raw sensor topic for a sensor type and room.
func RawSensorTopic(sensorType, room string) string {
	return fmt.Sprintf("vigil/raw/%s/%s", sensorType, room)
}

// AnalysisReportTopic constructs the report topic for a household.
func AnalysisReportTopic(householdID string) string {
	return fmt.Sprintf("%s/%s", topicAnalysisReportBase, householdID)
}
