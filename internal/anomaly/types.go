package anomaly

import "time"

// HoursPerDay is the length of a complete hourly activity vector.
const HoursPerDay = 24

// DailyRecord is one household's sensor activity summary for a calendar
// date. Scalar fields are pointers: nil means the value was never observed,
// which is different from an observed zero. EventsPerHour is only usable
// when it has the full 24 entries; anything shorter is treated as missing.
type DailyRecord struct {
	Date          time.Time `json:"date"`
	EventsPerHour []int     `json:"events_per_hour,omitempty"`

	TotalEvents       *float64 `json:"total_events,omitempty"`
	ActiveHours       *float64 `json:"active_hours,omitempty"`
	LongestGapMinutes *float64 `json:"longest_gap_minutes,omitempty"`
	NightEvents       *float64 `json:"night_events,omitempty"`
	NightActiveHours  *float64 `json:"night_active_hours,omitempty"`
	RoomsActive       *float64 `json:"rooms_active,omitempty"`
	RoomsAvailable    *float64 `json:"rooms_available,omitempty"`
	MotionEvents      *float64 `json:"motion_events,omitempty"`
	DoorEvents        *float64 `json:"door_events,omitempty"`

	// Clock strings in HH:MM or HH:MM:SS, empty when unknown. Both parsing
	// to midnight means "no data", not a midnight-to-midnight day.
	FirstActivity string `json:"first_activity,omitempty"`
	LastActivity  string `json:"last_activity,omitempty"`
}

// HasHourlyData reports whether the record carries a usable hourly vector.
func (r *DailyRecord) HasHourlyData() bool {
	return r != nil && len(r.EventsPerHour) >= HoursPerDay
}

// RoomHourlyRow is one room's event counts within a single hour bucket.
// Many rows share an hour; grouping by date and hour is the caller's job.
type RoomHourlyRow struct {
	Room         string    `json:"room"`
	Hour         time.Time `json:"hour"`
	MotionEvents int       `json:"motion_events"`
	DoorEvents   int       `json:"door_events"`
	TotalEvents  int       `json:"total_events"`
}
