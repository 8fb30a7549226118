package domain

import "time"

// HealthSummary is a derived per-day aggregate view over the canonical
// stores. Never persisted, always recomputed on read. Pointer fields are nil
// when no underlying data exists for the day.
type HealthSummary struct {
	Date               string   `json:"date"`
	Steps              int      `json:"steps"`
	DistanceMeters     float64  `json:"distanceMeters"`
	CaloriesBurned     int      `json:"caloriesBurned"`
	ScreenTimeMinutes  int      `json:"screenTimeMinutes"`
	SleepDurationHours *float64 `json:"sleepDurationHours"`
	SleepQuality       *int     `json:"sleepQuality"`
	AvgHeartRate       *float64 `json:"avgHeartRate"`
}

// SyncTimes holds the most recent data timestamp per data type for a device.
type SyncTimes struct {
	HeartRate *time.Time `json:"heartRate"`
	Sleep     *time.Time `json:"sleep"`
	Activity  *time.Time `json:"activity"`
}

// SyncCounts holds per-type record counts over the completeness window.
type SyncCounts struct {
	HeartRate int `json:"heartRate"`
	Sleep     int `json:"sleep"`
	Activity  int `json:"activity"`
	Total     int `json:"total"`
}

// Completeness scores how much of the expected data actually arrived over the
// last seven days, 0-100 per type and overall.
type Completeness struct {
	Overall   int `json:"overall"`
	HeartRate int `json:"heartRate"`
	Sleep     int `json:"sleep"`
	Activity  int `json:"activity"`
}

// DeviceStatus is the device-status view for sync consumers.
type DeviceStatus struct {
	Device       Device       `json:"device"`
	LastSync     SyncTimes    `json:"lastSync"`
	RecentCounts SyncCounts   `json:"recentCounts"`
	Completeness Completeness `json:"completeness"`
}
