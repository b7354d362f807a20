package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/mhalme/vigil-platform/internal/activity"
	"github.com/mhalme/vigil-platform/internal/anomaly"
	"github.com/mhalme/vigil-platform/pkg/config"
	"github.com/mhalme/vigil-platform/pkg/household"
)

// Runner loads a household-date selection from activity storage and runs
// the anomaly engine over it. The baseline window length and reliability
// threshold come from the service configuration. It holds no per-run
// state: every Run is an independent read-and-compute pass, safe to
// invoke concurrently for different households.
type Runner struct {
	store    *activity.Storage
	registry *household.Registry
	cfg      *config.Config
}

// NewRunner creates a runner over the given storage and registry.
func NewRunner(store *activity.Storage, registry *household.Registry, cfg *config.Config) *Runner {
	return &Runner{store: store, registry: registry, cfg: cfg}
}

// Run materializes the selected day, its room rows, and the trailing
// baseline window, then analyzes them. The report is annotated with the
// household's daylight context when the registry knows its coordinates.
func (r *Runner) Run(ctx context.Context, householdID string, date time.Time) (*anomaly.Report, error) {
	home, known := r.registry.Get(householdID)
	if !known {
		return nil, fmt.Errorf("unknown household %q", householdID)
	}

	from, _ := anomaly.BaselineWindow(date, r.cfg.BaselineDays)
	dayAfter := date.AddDate(0, 0, 1)

	today, err := r.store.GetDailyRecord(ctx, householdID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load selected day: %w", err)
	}

	history, err := r.store.GetDailyRecords(ctx, householdID, from, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline window: %w", err)
	}

	// One fetch covers the window and the selected day; the engine regroups
	// by date key.
	roomRows, err := r.store.GetRoomHourly(ctx, householdID, from, dayAfter)
	if err != nil {
		return nil, fmt.Errorf("failed to load room rows: %w", err)
	}
	roomsByDate := groupRoomRowsByDate(roomRows)

	report := anomaly.Analyze(householdID, date, today, history, roomsByDate,
		r.cfg.BaselineDays, r.cfg.MinReliableDays)
	if home.Latitude != 0 || home.Longitude != 0 {
		report.Daylight = anomaly.DaylightFor(date, home.Latitude, home.Longitude)
	}
	return report, nil
}

func groupRoomRowsByDate(rows []anomaly.RoomHourlyRow) map[string][]anomaly.RoomHourlyRow {
	grouped := make(map[string][]anomaly.RoomHourlyRow)
	for _, row := range rows {
		key := anomaly.LocalDateKey(row.Hour)
		grouped[key] = append(grouped[key], row)
	}
	return grouped
}
