package anomaly

// FeatureKey identifies one entry in the fixed feature catalog.
type FeatureKey string

const (
	// Timing
	FeatureFirstActivity FeatureKey = "first_activity"
	FeatureLastActivity  FeatureKey = "last_activity"
	FeatureAwakeDuration FeatureKey = "awake_duration"

	// Volume
	FeatureTotalEvents     FeatureKey = "total_events"
	FeatureActiveHours     FeatureKey = "active_hours"
	FeatureMorningEvents   FeatureKey = "morning_events"
	FeatureAfternoonEvents FeatureKey = "afternoon_events"
	FeatureEveningEvents   FeatureKey = "evening_events"

	// Rest & night
	FeatureLongestGap       FeatureKey = "longest_gap_minutes"
	FeatureNightEvents      FeatureKey = "night_events"
	FeatureNightActiveHours FeatureKey = "night_active_hours"

	// Room
	FeatureRoomsActive FeatureKey = "rooms_active"
	FeatureRoomRatio   FeatureKey = "room_ratio"
	FeatureMainRoomPct FeatureKey = "main_room_pct"

	// Device type
	FeatureMotionEvents FeatureKey = "motion_events"
	FeatureDoorEvents   FeatureKey = "door_events"

	// Pattern
	FeatureTransitionCount    FeatureKey = "transition_count"
	FeatureActivityRegularity FeatureKey = "activity_regularity"
)

// FeatureGroup is the display grouping of related features.
type FeatureGroup string

const (
	GroupTiming  FeatureGroup = "timing"
	GroupVolume  FeatureGroup = "volume"
	GroupNight   FeatureGroup = "rest_night"
	GroupRoom    FeatureGroup = "room"
	GroupDevice  FeatureGroup = "device"
	GroupPattern FeatureGroup = "pattern"
)

// FeatureDefinition is static catalog metadata for one feature. Weight is
// the feature's relative importance in the aggregate anomaly score. Room
// features are only meaningful for households with more than one room and
// are dropped from the active set otherwise.
type FeatureDefinition struct {
	Key           FeatureKey   `json:"key"`
	Label         string       `json:"label"`
	Unit          string       `json:"unit"`
	Group         FeatureGroup `json:"group"`
	Weight        float64      `json:"weight"`
	IsTime        bool         `json:"is_time"`
	IsDerived     bool         `json:"is_derived"`
	IsRoomFeature bool         `json:"is_room_feature"`
}

// catalog is the fixed, ordered feature set. Order here is presentation
// order everywhere downstream.
var catalog = []FeatureDefinition{
	{Key: FeatureFirstActivity, Label: "First activity", Unit: "min", Group: GroupTiming, Weight: 1.0, IsTime: true},
	{Key: FeatureLastActivity, Label: "Last activity", Unit: "min", Group: GroupTiming, Weight: 1.0, IsTime: true},
	{Key: FeatureAwakeDuration, Label: "Awake duration", Unit: "min", Group: GroupTiming, Weight: 1.0, IsDerived: true},

	{Key: FeatureTotalEvents, Label: "Total events", Unit: "events", Group: GroupVolume, Weight: 1.5},
	{Key: FeatureActiveHours, Label: "Active hours", Unit: "h", Group: GroupVolume, Weight: 1.2},
	{Key: FeatureMorningEvents, Label: "Morning events", Unit: "events", Group: GroupVolume, Weight: 0.8, IsDerived: true},
	{Key: FeatureAfternoonEvents, Label: "Afternoon events", Unit: "events", Group: GroupVolume, Weight: 0.8, IsDerived: true},
	{Key: FeatureEveningEvents, Label: "Evening events", Unit: "events", Group: GroupVolume, Weight: 0.8, IsDerived: true},

	{Key: FeatureLongestGap, Label: "Longest gap", Unit: "min", Group: GroupNight, Weight: 1.2},
	{Key: FeatureNightEvents, Label: "Night events", Unit: "events", Group: GroupNight, Weight: 1.3},
	{Key: FeatureNightActiveHours, Label: "Night active hours", Unit: "h", Group: GroupNight, Weight: 1.0},

	{Key: FeatureRoomsActive, Label: "Active rooms", Unit: "rooms", Group: GroupRoom, Weight: 1.0, IsRoomFeature: true},
	{Key: FeatureRoomRatio, Label: "Room usage ratio", Unit: "ratio", Group: GroupRoom, Weight: 0.8, IsDerived: true, IsRoomFeature: true},
	{Key: FeatureMainRoomPct, Label: "Dominant room share", Unit: "%", Group: GroupRoom, Weight: 0.8, IsDerived: true, IsRoomFeature: true},

	{Key: FeatureMotionEvents, Label: "Motion events", Unit: "events", Group: GroupDevice, Weight: 1.0},
	{Key: FeatureDoorEvents, Label: "Door events", Unit: "events", Group: GroupDevice, Weight: 1.0},

	{Key: FeatureTransitionCount, Label: "Room transitions", Unit: "transitions", Group: GroupPattern, Weight: 0.9, IsDerived: true, IsRoomFeature: true},
	{Key: FeatureActivityRegularity, Label: "Activity regularity", Unit: "similarity", Group: GroupPattern, Weight: 1.4, IsDerived: true},
}

// Catalog returns the full ordered feature catalog. Callers get a copy; the
// catalog itself is immutable.
func Catalog() []FeatureDefinition {
	out := make([]FeatureDefinition, len(catalog))
	copy(out, catalog)
	return out
}

// FeatureByKey looks up one catalog entry.
func FeatureByKey(key FeatureKey) (FeatureDefinition, bool) {
	for _, def := range catalog {
		if def.Key == key {
			return def, true
		}
	}
	return FeatureDefinition{}, false
}

// ActiveFeatures returns the features applicable to a household with the
// given room count. Room features require more than one available room; a
// nil room count means rooms were never observed and excludes them too.
func ActiveFeatures(roomsAvailable *float64) []FeatureDefinition {
	multiRoom := roomsAvailable != nil && *roomsAvailable > 1
	out := make([]FeatureDefinition, 0, len(catalog))
	for _, def := range catalog {
		if def.IsRoomFeature && !multiRoom {
			continue
		}
		out = append(out, def)
	}
	return out
}
