package anomaly

import (
	"fmt"
	"math"
	"sort"
)

// Analyst-chosen feature bands, narrower than the day/night helper ranges
// on purpose.
const (
	morningStart   = 6
	morningEnd     = 11
	afternoonStart = 12
	afternoonEnd   = 17
	eveningStart   = 18
	eveningEnd     = 22
)

// extractorFunc derives one feature value for one day. The average hourly
// pattern is only consulted by activity_regularity; everything else ignores
// it. A nil result means the inputs did not carry enough data.
type extractorFunc func(rec *DailyRecord, rooms []RoomHourlyRow, pattern []float64) *float64

var extractors = map[FeatureKey]extractorFunc{
	FeatureFirstActivity: func(rec *DailyRecord, _ []RoomHourlyRow, _ []float64) *float64 {
		return clockMinutes(rec.FirstActivity)
	},
	FeatureLastActivity: func(rec *DailyRecord, _ []RoomHourlyRow, _ []float64) *float64 {
		return clockMinutes(rec.LastActivity)
	},
	FeatureAwakeDuration: func(rec *DailyRecord, _ []RoomHourlyRow, _ []float64) *float64 {
		return AwakeDuration(rec.FirstActivity, rec.LastActivity)
	},

	FeatureTotalEvents:     passthrough(func(rec *DailyRecord) *float64 { return rec.TotalEvents }),
	FeatureActiveHours:     passthrough(func(rec *DailyRecord) *float64 { return rec.ActiveHours }),
	FeatureMorningEvents:   hourBand(morningStart, morningEnd),
	FeatureAfternoonEvents: hourBand(afternoonStart, afternoonEnd),
	FeatureEveningEvents:   hourBand(eveningStart, eveningEnd),

	FeatureLongestGap:       passthrough(func(rec *DailyRecord) *float64 { return rec.LongestGapMinutes }),
	FeatureNightEvents:      passthrough(func(rec *DailyRecord) *float64 { return rec.NightEvents }),
	FeatureNightActiveHours: passthrough(func(rec *DailyRecord) *float64 { return rec.NightActiveHours }),

	FeatureRoomsActive: passthrough(func(rec *DailyRecord) *float64 { return rec.RoomsActive }),
	FeatureRoomRatio: func(rec *DailyRecord, _ []RoomHourlyRow, _ []float64) *float64 {
		if rec.RoomsActive == nil || rec.RoomsAvailable == nil || *rec.RoomsAvailable == 0 {
			return nil
		}
		ratio := *rec.RoomsActive / *rec.RoomsAvailable
		return &ratio
	},
	FeatureMainRoomPct: func(_ *DailyRecord, rooms []RoomHourlyRow, _ []float64) *float64 {
		return mainRoomPct(rooms)
	},

	FeatureMotionEvents: passthrough(func(rec *DailyRecord) *float64 { return rec.MotionEvents }),
	FeatureDoorEvents:   passthrough(func(rec *DailyRecord) *float64 { return rec.DoorEvents }),

	FeatureTransitionCount: func(_ *DailyRecord, rooms []RoomHourlyRow, _ []float64) *float64 {
		return transitionCount(rooms)
	},
	FeatureActivityRegularity: func(rec *DailyRecord, _ []RoomHourlyRow, pattern []float64) *float64 {
		if !rec.HasHourlyData() || len(pattern) != HoursPerDay {
			return nil
		}
		sim := CosineSimilarity(hourlyToFloats(rec.EventsPerHour[:HoursPerDay]), pattern)
		return &sim
	},
}

// The catalog is the closed set of keys; a catalog entry without an
// extractor is a programming error caught at package load, not at call
// time.
func init() {
	for _, def := range catalog {
		if _, ok := extractors[def.Key]; !ok {
			panic(fmt.Sprintf("anomaly: feature %q has no extractor", def.Key))
		}
	}
	if len(extractors) != len(catalog) {
		panic("anomaly: extractor map and catalog are out of sync")
	}
}

// Extract derives one feature value for one day. The same dispatch serves
// the selected day and every historical day; it depends on nothing beyond
// its arguments. Unknown keys panic: the catalog is closed.
func Extract(key FeatureKey, rec *DailyRecord, rooms []RoomHourlyRow, pattern []float64) *float64 {
	fn, ok := extractors[key]
	if !ok {
		panic(fmt.Sprintf("anomaly: unknown feature key %q", key))
	}
	if rec == nil {
		return nil
	}
	return fn(rec, rooms, pattern)
}

// ExtractVector derives every listed feature for one day.
func ExtractVector(features []FeatureDefinition, rec *DailyRecord, rooms []RoomHourlyRow, pattern []float64) map[FeatureKey]*float64 {
	out := make(map[FeatureKey]*float64, len(features))
	for _, def := range features {
		out[def.Key] = Extract(def.Key, rec, rooms, pattern)
	}
	return out
}

func passthrough(get func(rec *DailyRecord) *float64) extractorFunc {
	return func(rec *DailyRecord, _ []RoomHourlyRow, _ []float64) *float64 {
		return get(rec)
	}
}

func hourBand(start, end int) extractorFunc {
	return func(rec *DailyRecord, _ []RoomHourlyRow, _ []float64) *float64 {
		if !rec.HasHourlyData() {
			return nil
		}
		sum := float64(SumEventsInRange(rec.EventsPerHour, start, end))
		return &sum
	}
}

func clockMinutes(clock string) *float64 {
	if clock == "" {
		return nil
	}
	minutes := float64(TimeToMinutes(clock))
	return &minutes
}

// mainRoomPct is the dominant room's share of the day's room events,
// rounded to whole percent. Nil without room rows or with a zero total.
func mainRoomPct(rooms []RoomHourlyRow) *float64 {
	if len(rooms) == 0 {
		return nil
	}
	totals := make(map[string]int)
	sum := 0
	for _, row := range rooms {
		totals[row.Room] += row.TotalEvents
		sum += row.TotalEvents
	}
	if sum == 0 {
		return nil
	}
	maxTotal := 0
	for _, total := range totals {
		if total > maxTotal {
			maxTotal = total
		}
	}
	pct := math.Round(100 * float64(maxTotal) / float64(sum))
	return &pct
}

// transitionCount walks the day hour by hour, picks the dominant room per
// hour bucket, and counts changes between consecutive buckets that have any
// rows. Hours without rows contribute no bucket and no transition.
func transitionCount(rooms []RoomHourlyRow) *float64 {
	if len(rooms) == 0 {
		return nil
	}

	dominant := make(map[int64]string)
	best := make(map[int64]int)
	for _, row := range rooms {
		key := row.Hour.Unix()
		if current, ok := dominant[key]; !ok || row.TotalEvents > best[key] || (row.TotalEvents == best[key] && row.Room < current) {
			dominant[key] = row.Room
			best[key] = row.TotalEvents
		}
	}

	hours := make([]int64, 0, len(dominant))
	for key := range dominant {
		hours = append(hours, key)
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i] < hours[j] })

	transitions := 0.0
	for i := 1; i < len(hours); i++ {
		if dominant[hours[i]] != dominant[hours[i-1]] {
			transitions++
		}
	}
	return &transitions
}
