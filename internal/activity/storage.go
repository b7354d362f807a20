package activity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/mhalme/vigil-platform/internal/anomaly"
)

// Storage is the Postgres data-access layer for daily activity records,
// per-room hourly counts, and daily activity-shape vectors. The anomaly
// engine never touches it directly: callers load inputs here and hand the
// engine plain values.
type Storage struct {
	db *sql.DB
}

// NewStorage creates a storage instance over an established pool.
func NewStorage(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// SimilarDay is one nearest-neighbour result from the shape index.
type SimilarDay struct {
	Date       string  `json:"date"`
	Similarity float64 `json:"similarity"`
}

const dailyColumns = `
	date, events_per_hour, total_events, active_hours, longest_gap_minutes,
	night_events, night_active_hours, rooms_active, rooms_available,
	motion_events, door_events, first_activity, last_activity`

// GetDailyRecord loads one household's record for a calendar date. Returns
// (nil, nil) when no record exists; a missing day is data, not an error.
func (s *Storage) GetDailyRecord(ctx context.Context, householdID string, date time.Time) (*anomaly.DailyRecord, error) {
	query := `SELECT` + dailyColumns + `
		FROM activity_daily
		WHERE household_id = $1 AND date = $2`

	rec, err := scanDailyRecord(s.db.QueryRowContext(ctx, query, householdID, anomaly.LocalDateKey(date)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query daily record: %w", err)
	}
	return rec, nil
}

// GetDailyRecords loads records with date in the half-open range [from, to),
// ordered by date.
func (s *Storage) GetDailyRecords(ctx context.Context, householdID string, from, to time.Time) ([]anomaly.DailyRecord, error) {
	query := `SELECT` + dailyColumns + `
		FROM activity_daily
		WHERE household_id = $1 AND date >= $2 AND date < $3
		ORDER BY date`

	rows, err := s.db.QueryContext(ctx, query, householdID, anomaly.LocalDateKey(from), anomaly.LocalDateKey(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily records: %w", err)
	}
	defer rows.Close()

	var records []anomaly.DailyRecord
	for rows.Next() {
		rec, err := scanDailyRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily records: %w", err)
	}
	return records, nil
}

// GetRoomHourly loads per-room hourly rows with hour in [from, to), ordered
// by hour then room.
func (s *Storage) GetRoomHourly(ctx context.Context, householdID string, from, to time.Time) ([]anomaly.RoomHourlyRow, error) {
	query := `
		SELECT room, hour, motion_events, door_events, total_events
		FROM activity_room_hourly
		WHERE household_id = $1 AND hour >= $2 AND hour < $3
		ORDER BY hour, room`

	rows, err := s.db.QueryContext(ctx, query, householdID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query room hourly rows: %w", err)
	}
	defer rows.Close()

	var out []anomaly.RoomHourlyRow
	for rows.Next() {
		var row anomaly.RoomHourlyRow
		if err := rows.Scan(&row.Room, &row.Hour, &row.MotionEvents, &row.DoorEvents, &row.TotalEvents); err != nil {
			return nil, fmt.Errorf("failed to scan room hourly row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate room hourly rows: %w", err)
	}
	return out, nil
}

// UpsertHourly writes one room-hour bucket, accumulating counts when the
// collector flushes the same bucket more than once.
func (s *Storage) UpsertHourly(ctx context.Context, householdID string, row anomaly.RoomHourlyRow) error {
	query := `
		INSERT INTO activity_room_hourly (household_id, room, hour, motion_events, door_events, total_events)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (household_id, room, hour) DO UPDATE SET
			motion_events = activity_room_hourly.motion_events + EXCLUDED.motion_events,
			door_events   = activity_room_hourly.door_events + EXCLUDED.door_events,
			total_events  = activity_room_hourly.total_events + EXCLUDED.total_events`

	if _, err := s.db.ExecContext(ctx, query, householdID, row.Room, row.Hour, row.MotionEvents, row.DoorEvents, row.TotalEvents); err != nil {
		return fmt.Errorf("failed to upsert hourly row: %w", err)
	}
	return nil
}

// UpsertDaily writes one day's rollup. First/last activity merge with any
// existing row so that earlier flushes of the same day are never lost:
// HH:MM strings order lexicographically.
func (s *Storage) UpsertDaily(ctx context.Context, householdID string, rec *anomaly.DailyRecord) error {
	query := `
		INSERT INTO activity_daily (
			household_id, date, events_per_hour, total_events, active_hours,
			longest_gap_minutes, night_events, night_active_hours, rooms_active,
			rooms_available, motion_events, door_events, first_activity, last_activity
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (household_id, date) DO UPDATE SET
			events_per_hour     = EXCLUDED.events_per_hour,
			total_events        = EXCLUDED.total_events,
			active_hours        = EXCLUDED.active_hours,
			longest_gap_minutes = EXCLUDED.longest_gap_minutes,
			night_events        = EXCLUDED.night_events,
			night_active_hours  = EXCLUDED.night_active_hours,
			rooms_active        = EXCLUDED.rooms_active,
			rooms_available     = EXCLUDED.rooms_available,
			motion_events       = EXCLUDED.motion_events,
			door_events         = EXCLUDED.door_events,
			first_activity      = LEAST(activity_daily.first_activity, EXCLUDED.first_activity),
			last_activity       = GREATEST(activity_daily.last_activity, EXCLUDED.last_activity)`

	_, err := s.db.ExecContext(ctx, query,
		householdID,
		anomaly.LocalDateKey(rec.Date),
		pq.Array(toInt64s(rec.EventsPerHour)),
		nullable(rec.TotalEvents),
		nullable(rec.ActiveHours),
		nullable(rec.LongestGapMinutes),
		nullable(rec.NightEvents),
		nullable(rec.NightActiveHours),
		nullable(rec.RoomsActive),
		nullable(rec.RoomsAvailable),
		nullable(rec.MotionEvents),
		nullable(rec.DoorEvents),
		nullString(rec.FirstActivity),
		nullString(rec.LastActivity),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily record: %w", err)
	}
	return nil
}

// StoreDailyShape persists one completed day's 24-dimension hourly vector
// for similarity lookups.
func (s *Storage) StoreDailyShape(ctx context.Context, householdID string, date time.Time, shape []float32) error {
	if len(shape) != anomaly.HoursPerDay {
		return fmt.Errorf("activity shape must have %d dimensions, got %d", anomaly.HoursPerDay, len(shape))
	}

	query := `
		INSERT INTO activity_shape (household_id, date, shape)
		VALUES ($1, $2, $3)
		ON CONFLICT (household_id, date) DO UPDATE SET shape = EXCLUDED.shape`

	if _, err := s.db.ExecContext(ctx, query, householdID, anomaly.LocalDateKey(date), pgvector.NewVector(shape)); err != nil {
		return fmt.Errorf("failed to store activity shape: %w", err)
	}
	return nil
}

// SimilarDays returns the historical days whose activity shape is closest
// to the given date's, most similar first. An absent shape for the date
// yields an empty result, not an error.
func (s *Storage) SimilarDays(ctx context.Context, householdID string, date time.Time, limit int) ([]SimilarDay, error) {
	var shape pgvector.Vector
	err := s.db.QueryRowContext(ctx,
		`SELECT shape FROM activity_shape WHERE household_id = $1 AND date = $2`,
		householdID, anomaly.LocalDateKey(date)).Scan(&shape)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query activity shape: %w", err)
	}

	query := `
		SELECT date, 1 - (shape <=> $1) AS similarity
		FROM activity_shape
		WHERE household_id = $2 AND date <> $3
		ORDER BY shape <=> $1
		LIMIT $4`

	rows, err := s.db.QueryContext(ctx, query, shape, householdID, anomaly.LocalDateKey(date), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar days: %w", err)
	}
	defer rows.Close()

	var out []SimilarDay
	for rows.Next() {
		var day SimilarDay
		if err := rows.Scan(&day.Date, &day.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan similar day: %w", err)
		}
		out = append(out, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate similar days: %w", err)
	}
	return out, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDailyRecord(scanner rowScanner) (*anomaly.DailyRecord, error) {
	var (
		rec        anomaly.DailyRecord
		date       time.Time
		hourly     pq.Int64Array
		total      sql.NullFloat64
		active     sql.NullFloat64
		longestGap sql.NullFloat64
		night      sql.NullFloat64
		nightHours sql.NullFloat64
		roomsAct   sql.NullFloat64
		roomsAvail sql.NullFloat64
		motion     sql.NullFloat64
		door       sql.NullFloat64
		first      sql.NullString
		last       sql.NullString
	)

	err := scanner.Scan(&date, &hourly, &total, &active, &longestGap,
		&night, &nightHours, &roomsAct, &roomsAvail, &motion, &door, &first, &last)
	if err != nil {
		return nil, err
	}

	rec.Date = date
	rec.EventsPerHour = toInts(hourly)
	rec.TotalEvents = fromNullable(total)
	rec.ActiveHours = fromNullable(active)
	rec.LongestGapMinutes = fromNullable(longestGap)
	rec.NightEvents = fromNullable(night)
	rec.NightActiveHours = fromNullable(nightHours)
	rec.RoomsActive = fromNullable(roomsAct)
	rec.RoomsAvailable = fromNullable(roomsAvail)
	rec.MotionEvents = fromNullable(motion)
	rec.DoorEvents = fromNullable(door)
	rec.FirstActivity = first.String
	rec.LastActivity = last.String
	return &rec, nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func toInt64s(values []int) []int64 {
	if values == nil {
		return nil
	}
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out
}

func toInts(values pq.Int64Array) []int {
	if values == nil {
		return nil
	}
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v)
	}
	return out
}
