package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mhalme/vigil-platform/internal/activity"
	"github.com/mhalme/vigil-platform/internal/anomaly"
	"github.com/mhalme/vigil-platform/pkg/household"
)

type bucketKey struct {
	householdID string
	room        string
	hourUnix    int64
}

type bucketCounts struct {
	motion int
	door   int
	total  int
}

type dayKey struct {
	householdID string
	dateKey     string
}

type dayClocks struct {
	date  time.Time
	first string
	last  string
}

// Aggregator accumulates sensor events into per-room hour buckets in memory
// and flushes them to activity storage, recomputing the affected daily
// rollups as it goes.
type Aggregator struct {
	store    *activity.Storage
	registry *household.Registry
	logger   *slog.Logger

	mu      sync.Mutex
	buckets map[bucketKey]*bucketCounts
	days    map[dayKey]*dayClocks
}

// NewAggregator creates an aggregator over the given storage and registry.
func NewAggregator(store *activity.Storage, registry *household.Registry, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		store:    store,
		registry: registry,
		logger:   logger,
		buckets:  make(map[bucketKey]*bucketCounts),
		days:     make(map[dayKey]*dayClocks),
	}
}

// Add records one event into its hour bucket. Non-counting events (motion
// clear, door close) are ignored.
func (a *Aggregator) Add(event *SensorEvent) {
	if !event.CountsAsEvent() {
		return
	}

	local := event.Timestamp.Local()
	hour := local.Truncate(time.Hour)
	clock := local.Format("15:04")

	a.mu.Lock()
	defer a.mu.Unlock()

	key := bucketKey{householdID: event.HouseholdID, room: event.Room, hourUnix: hour.Unix()}
	counts, ok := a.buckets[key]
	if !ok {
		counts = &bucketCounts{}
		a.buckets[key] = counts
	}
	counts.total++
	switch event.SensorType {
	case "motion":
		counts.motion++
	case "door":
		counts.door++
	}

	dk := dayKey{householdID: event.HouseholdID, dateKey: anomaly.LocalDateKey(local)}
	clocks, ok := a.days[dk]
	if !ok {
		a.days[dk] = &dayClocks{date: local, first: clock, last: clock}
		return
	}
	if clock < clocks.first {
		clocks.first = clock
	}
	if clock > clocks.last {
		clocks.last = clock
	}
}

// Flush writes all pending buckets to storage and rebuilds the daily
// rollups for every touched household-day. Pending data is dropped from
// memory up front; a failed write loses that bucket rather than blocking
// the pipeline.
func (a *Aggregator) Flush(ctx context.Context) error {
	a.mu.Lock()
	buckets := a.buckets
	days := a.days
	a.buckets = make(map[bucketKey]*bucketCounts)
	a.days = make(map[dayKey]*dayClocks)
	a.mu.Unlock()

	if len(buckets) == 0 {
		return nil
	}

	var firstErr error
	for key, counts := range buckets {
		row := anomaly.RoomHourlyRow{
			Room:         key.room,
			Hour:         time.Unix(key.hourUnix, 0).Local(),
			MotionEvents: counts.motion,
			DoorEvents:   counts.door,
			TotalEvents:  counts.total,
		}
		if err := a.store.UpsertHourly(ctx, key.householdID, row); err != nil {
			a.logger.Error("Failed to flush hourly bucket",
				"household", key.householdID, "room", key.room, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	for dk, clocks := range days {
		if err := a.rebuildDay(ctx, dk.householdID, clocks); err != nil {
			a.logger.Error("Failed to rebuild daily rollup",
				"household", dk.householdID, "date", dk.dateKey, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// rebuildDay re-derives one day's rollup from the stored hourly rows and
// upserts it, then refreshes the day's activity-shape vector for completed
// days.
func (a *Aggregator) rebuildDay(ctx context.Context, householdID string, clocks *dayClocks) error {
	local := clocks.date.Local()
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	rows, err := a.store.GetRoomHourly(ctx, householdID, dayStart, dayEnd)
	if err != nil {
		return fmt.Errorf("failed to load hourly rows for rollup: %w", err)
	}

	roomsAvailable := 0
	if h, ok := a.registry.Get(householdID); ok {
		roomsAvailable = len(h.Rooms)
	}

	rec := BuildDailyRecord(dayStart, rows, roomsAvailable, clocks.first, clocks.last)
	if err := a.store.UpsertDaily(ctx, householdID, rec); err != nil {
		return fmt.Errorf("failed to upsert daily rollup: %w", err)
	}

	// Shape vectors only cover completed days; today's partial shape would
	// poison similarity lookups.
	if !dayEnd.After(time.Now()) {
		shape := make([]float32, anomaly.HoursPerDay)
		for hour, count := range rec.EventsPerHour {
			shape[hour] = float32(count)
		}
		if err := a.store.StoreDailyShape(ctx, householdID, dayStart, shape); err != nil {
			return fmt.Errorf("failed to store activity shape: %w", err)
		}
	}

	return nil
}
