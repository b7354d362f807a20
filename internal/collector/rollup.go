package collector

import (
	"time"

	"github.com/mhalme/vigil-platform/internal/anomaly"
)

// BuildDailyRecord derives one day's rollup from that day's room-hourly
// rows. First/last activity clocks are carried by the caller (the
// aggregator tracks exact event times; hourly rows only have hour
// resolution). Pure so it can be tested without a database.
func BuildDailyRecord(date time.Time, rows []anomaly.RoomHourlyRow, roomsAvailable int, firstActivity, lastActivity string) *anomaly.DailyRecord {
	hourly := make([]int, anomaly.HoursPerDay)
	motion := 0
	door := 0
	roomsSeen := make(map[string]struct{})

	for _, row := range rows {
		hour := row.Hour.In(date.Location()).Hour()
		if hour < 0 || hour >= anomaly.HoursPerDay {
			continue
		}
		hourly[hour] += row.TotalEvents
		motion += row.MotionEvents
		door += row.DoorEvents
		if row.TotalEvents > 0 {
			roomsSeen[row.Room] = struct{}{}
		}
	}

	total := 0
	activeHours := 0
	nightEvents := 0
	nightActiveHours := 0
	for hour, count := range hourly {
		total += count
		if count == 0 {
			continue
		}
		activeHours++
		if anomaly.IsNightHour(hour) {
			nightEvents += count
			nightActiveHours++
		}
	}

	rec := &anomaly.DailyRecord{
		Date:              date,
		EventsPerHour:     hourly,
		TotalEvents:       intValue(total),
		ActiveHours:       intValue(activeHours),
		LongestGapMinutes: intValue(longestGapMinutes(hourly)),
		NightEvents:       intValue(nightEvents),
		NightActiveHours:  intValue(nightActiveHours),
		RoomsActive:       intValue(len(roomsSeen)),
		MotionEvents:      intValue(motion),
		DoorEvents:        intValue(door),
		FirstActivity:     firstActivity,
		LastActivity:      lastActivity,
	}
	if roomsAvailable > 0 {
		rec.RoomsAvailable = intValue(roomsAvailable)
	}
	return rec
}

// longestGapMinutes is the longest quiet stretch between two active hours,
// in minutes. Quiet time before the first or after the last activity is not
// a gap.
func longestGapMinutes(hourly []int) int {
	previousActive := -1
	longest := 0
	for hour, count := range hourly {
		if count == 0 {
			continue
		}
		if previousActive >= 0 {
			gap := (hour - previousActive - 1) * 60
			if gap > longest {
				longest = gap
			}
		}
		previousActive = hour
	}
	return longest
}

func intValue(v int) *float64 {
	f := float64(v)
	return &f
}
