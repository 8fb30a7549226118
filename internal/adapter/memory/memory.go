// Package memory implements the repository ports in memory for development
// and testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"healthsync/internal/domain"
)

type readingKey struct {
	userID       uuid.UUID
	deviceID     uuid.UUID
	metricTypeID uuid.UUID
	recordedAt   time.Time
}

type activityKey struct {
	userID uuid.UUID
	day    string
}

// DB implements all repository ports over in-memory maps and slices.
type DB struct {
	mu          sync.Mutex
	metricTypes []domain.MetricType
	devices     []domain.Device
	readings    map[readingKey]*domain.Reading
	sleep       []domain.SleepSession
	activity    map[activityKey]*domain.DailyActivity
}

// New creates an empty in-memory database.
func New() *DB {
	return &DB{
		readings: make(map[readingKey]*domain.Reading),
		activity: make(map[activityKey]*domain.DailyActivity),
	}
}

// Ensure interfaces are met.
var _ domain.MetricTypeRepository = (*DB)(nil)
var _ domain.DeviceRepository = (*DB)(nil)
var _ domain.ReadingRepository = (*DB)(nil)
var _ domain.SleepRepository = (*DB)(nil)
var _ domain.ActivityRepository = (*DB)(nil)

// --- MetricTypeRepository ---

// GetMetricTypeByName returns the catalog entry for name, or nil if none
// exists.
func (db *DB) GetMetricTypeByName(ctx context.Context, name string) (*domain.MetricType, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.metricTypes {
		if db.metricTypes[i].Name == name {
			mt := db.metricTypes[i]
			return &mt, nil
		}
	}
	return nil, nil
}

// ListMetricTypes returns all catalog entries ordered by name.
func (db *DB) ListMetricTypes(ctx context.Context) ([]domain.MetricType, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.MetricType, len(db.metricTypes))
	copy(out, db.metricTypes)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateMetricType inserts a new catalog entry.
func (db *DB) CreateMetricType(ctx context.Context, mt domain.MetricType) (*domain.MetricType, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if mt.ID == uuid.Nil {
		mt.ID = uuid.New()
	}
	if mt.CreatedAt.IsZero() {
		mt.CreatedAt = time.Now().UTC()
	}
	db.metricTypes = append(db.metricTypes, mt)
	return &mt, nil
}

// --- DeviceRepository ---

// ListDevices returns all devices registered for a user, newest first.
func (db *DB) ListDevices(ctx context.Context, userID uuid.UUID) ([]domain.Device, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.Device
	for _, d := range db.devices {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// GetDevice returns the device with the given ID, or nil if none exists.
func (db *DB) GetDevice(ctx context.Context, id uuid.UUID) (*domain.Device, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.devices {
		if db.devices[i].ID == id {
			d := db.devices[i]
			return &d, nil
		}
	}
	return nil, nil
}

// CreateDevice inserts a new device registration.
func (db *DB) CreateDevice(ctx context.Context, d domain.Device) (*domain.Device, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	db.devices = append(db.devices, d)
	return &d, nil
}

// UpdateDeviceLastSync sets a device's last-sync timestamp.
func (db *DB) UpdateDeviceLastSync(ctx context.Context, id uuid.UUID, t time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.devices {
		if db.devices[i].ID == id {
			ts := t.UTC()
			db.devices[i].LastSync = &ts
			return nil
		}
	}
	return domain.ErrDeviceNotFound
}

// --- ReadingRepository ---

// InsertReading stores one reading, returning the already stored row when the
// same observation was inserted before.
func (db *DB) InsertReading(ctx context.Context, r domain.Reading) (*domain.Reading, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := readingKey{r.UserID, r.DeviceID, r.MetricTypeID, r.RecordedAt.UTC()}
	if existing, ok := db.readings[key]; ok {
		ret := *existing
		return &ret, nil
	}

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	r.RecordedAt = r.RecordedAt.UTC()
	stored := r
	db.readings[key] = &stored
	return &r, nil
}

// ReadingsForRange returns a user's readings with recorded-at in [start, end),
// oldest first.
func (db *DB) ReadingsForRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.Reading, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.Reading
	for _, r := range db.readings {
		if r.UserID == userID && !r.RecordedAt.Before(start.UTC()) && r.RecordedAt.Before(end.UTC()) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}

// AvgReadingForRange returns the average value of one metric over [start,
// end), or nil when the range is empty.
func (db *DB) AvgReadingForRange(ctx context.Context, userID, metricTypeID uuid.UUID, start, end time.Time) (*float64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var (
		sum float64
		n   int
	)
	for _, r := range db.readings {
		if r.UserID == userID && r.MetricTypeID == metricTypeID &&
			!r.RecordedAt.Before(start.UTC()) && r.RecordedAt.Before(end.UTC()) {
			sum += r.Value
			n++
		}
	}
	if n == 0 {
		return nil, nil
	}
	avg := sum / float64(n)
	return &avg, nil
}

// CountReadingsSince counts one device's readings of a metric since a cutoff.
func (db *DB) CountReadingsSince(ctx context.Context, userID, deviceID, metricTypeID uuid.UUID, since time.Time) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	n := 0
	for _, r := range db.readings {
		if r.UserID == userID && r.DeviceID == deviceID && r.MetricTypeID == metricTypeID &&
			!r.RecordedAt.Before(since.UTC()) {
			n++
		}
	}
	return n, nil
}

// LastReadingAt returns the newest recorded-at for one device and metric, or
// nil if none exists.
func (db *DB) LastReadingAt(ctx context.Context, userID, deviceID, metricTypeID uuid.UUID) (*time.Time, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var last *time.Time
	for _, r := range db.readings {
		if r.UserID == userID && r.DeviceID == deviceID && r.MetricTypeID == metricTypeID {
			if last == nil || r.RecordedAt.After(*last) {
				t := r.RecordedAt
				last = &t
			}
		}
	}
	return last, nil
}

// --- SleepRepository ---

// InsertSleepSession stores one sleep session.
func (db *DB) InsertSleepSession(ctx context.Context, s domain.SleepSession) (*domain.SleepSession, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	s.Start = s.Start.UTC()
	s.End = s.End.UTC()
	db.sleep = append(db.sleep, s)
	return &s, nil
}

// SleepSessionsForRange returns a user's sleep sessions starting in [start,
// end), oldest first.
func (db *DB) SleepSessionsForRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.SleepSession, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.SleepSession
	for _, s := range db.sleep {
		if s.UserID == userID && !s.Start.Before(start.UTC()) && s.Start.Before(end.UTC()) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// SleepHistory returns a user's sleep sessions over the last N days, newest
// first.
func (db *DB) SleepHistory(ctx context.Context, userID uuid.UUID, days int) ([]domain.SleepSession, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	since := time.Now().UTC().AddDate(0, 0, -days)
	var out []domain.SleepSession
	for _, s := range db.sleep {
		if s.UserID == userID && !s.Start.Before(since) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.After(out[j].Start) })
	return out, nil
}

// CountSleepSessionsSince counts one device's sleep sessions since a cutoff.
func (db *DB) CountSleepSessionsSince(ctx context.Context, userID, deviceID uuid.UUID, since time.Time) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	n := 0
	for _, s := range db.sleep {
		if s.UserID == userID && s.DeviceID == deviceID && !s.Start.Before(since.UTC()) {
			n++
		}
	}
	return n, nil
}

// LastSleepAt returns the newest sleep-session start for one device, or nil
// if none exists.
func (db *DB) LastSleepAt(ctx context.Context, userID, deviceID uuid.UUID) (*time.Time, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var last *time.Time
	for _, s := range db.sleep {
		if s.UserID == userID && s.DeviceID == deviceID {
			if last == nil || s.Start.After(*last) {
				t := s.Start
				last = &t
			}
		}
	}
	return last, nil
}

// --- ActivityRepository ---

// GetDailyActivity returns the activity record for (user, day), or nil if
// none exists.
func (db *DB) GetDailyActivity(ctx context.Context, userID uuid.UUID, day string) (*domain.DailyActivity, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if a, ok := db.activity[activityKey{userID, day}]; ok {
		ret := *a
		return &ret, nil
	}
	return nil, nil
}

// UpsertDailyActivity writes the full record for (user, date), replacing
// field values on conflict.
func (db *DB) UpsertDailyActivity(ctx context.Context, a domain.DailyActivity) (*domain.DailyActivity, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := time.Now().UTC()
	key := activityKey{a.UserID, a.Date}
	if existing, ok := db.activity[key]; ok {
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
	} else {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
	}
	a.UpdatedAt = now
	stored := a
	db.activity[key] = &stored
	return &a, nil
}

// ActivityHistory returns a user's daily activity over the last N days,
// newest first.
func (db *DB) ActivityHistory(ctx context.Context, userID uuid.UUID, days int) ([]domain.DailyActivity, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	since := domain.DayOf(time.Now().UTC().AddDate(0, 0, -days))
	var out []domain.DailyActivity
	for _, a := range db.activity {
		if a.UserID == userID && a.Date >= since {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// CountActivitySince counts one device's activity records updated since a
// cutoff.
func (db *DB) CountActivitySince(ctx context.Context, userID, deviceID uuid.UUID, since time.Time) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	n := 0
	for _, a := range db.activity {
		if a.UserID == userID && a.DeviceID == deviceID && !a.UpdatedAt.Before(since.UTC()) {
			n++
		}
	}
	return n, nil
}

// LastActivityAt returns the newest update instant for one device's activity
// records, or nil if none exists.
func (db *DB) LastActivityAt(ctx context.Context, userID, deviceID uuid.UUID) (*time.Time, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var last *time.Time
	for _, a := range db.activity {
		if a.UserID == userID && a.DeviceID == deviceID {
			if last == nil || a.UpdatedAt.After(*last) {
				t := a.UpdatedAt
				last = &t
			}
		}
	}
	return last, nil
}
