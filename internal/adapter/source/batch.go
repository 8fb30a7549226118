package source

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"healthsync/internal/domain"
)

// MaxBatchItems caps one manual batch upload.
const MaxBatchItems = 1000

// Batch envelope data types. "mixed" envelopes tag each item with its kind.
const (
	BatchTypeHeartRate = "heartRate"
	BatchTypeSleep     = "sleep"
	BatchTypeSteps     = "steps"
	BatchTypeMixed     = "mixed"
)

// Item kinds inside a mixed envelope.
const (
	ItemKindReading  = "reading"
	ItemKindSleep    = "sleep"
	ItemKindActivity = "activity"
)

// BatchEnvelope is the wire shape of a manual batch upload.
type BatchEnvelope struct {
	UserID        string      `json:"userId"`
	DeviceID      string      `json:"deviceId"`
	DataType      string      `json:"dataType"`
	Data          []BatchItem `json:"data"`
	SyncTimestamp string      `json:"syncTimestamp,omitempty"`
}

// BatchItem carries one record of the envelope. Kind selects which field
// group applies; for typed envelopes the data type implies the kind.
type BatchItem struct {
	Kind string `json:"kind,omitempty"`

	// reading fields
	Metric    string   `json:"metricName,omitempty"`
	Value     *float64 `json:"value,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
	Accuracy  *int     `json:"accuracy,omitempty"`

	// sleep fields
	SleepStart   string              `json:"sleepStart,omitempty"`
	SleepEnd     string              `json:"sleepEnd,omitempty"`
	Stages       *domain.SleepStages `json:"stages,omitempty"`
	QualityScore *int                `json:"qualityScore,omitempty"`

	// activity fields
	Date              string   `json:"date,omitempty"`
	Steps             *int     `json:"steps,omitempty"`
	DistanceMeters    *float64 `json:"distanceMeters,omitempty"`
	CaloriesBurned    *int     `json:"caloriesBurned,omitempty"`
	ActiveMinutes     *int     `json:"activeMinutes,omitempty"`
	FloorsClimbed     *int     `json:"floorsClimbed,omitempty"`
	ScreenTimeMinutes *int     `json:"screenTimeMinutes,omitempty"`
}

// ParseBatchEnvelope validates the envelope and normalizes its items into a
// source batch. Envelope-level problems come back as the error and reject the
// whole upload; per-item problems land in the string slice and leave the
// remaining items intact.
func ParseBatchEnvelope(env BatchEnvelope) (domain.SourceBatch, []string, error) {
	userID, err := uuid.Parse(env.UserID)
	if err != nil {
		return domain.SourceBatch{}, nil, fmt.Errorf("%w: invalid userId", domain.ErrValidation)
	}
	deviceID, err := uuid.Parse(env.DeviceID)
	if err != nil {
		return domain.SourceBatch{}, nil, fmt.Errorf("%w: invalid deviceId", domain.ErrValidation)
	}
	switch env.DataType {
	case BatchTypeHeartRate, BatchTypeSleep, BatchTypeSteps, BatchTypeMixed:
	default:
		return domain.SourceBatch{}, nil, fmt.Errorf("%w: unknown data type %q", domain.ErrValidation, env.DataType)
	}
	if len(env.Data) == 0 {
		return domain.SourceBatch{}, nil, fmt.Errorf("%w: empty batch", domain.ErrValidation)
	}
	if len(env.Data) > MaxBatchItems {
		return domain.SourceBatch{}, nil, fmt.Errorf("%w: batch exceeds %d items", domain.ErrValidation, MaxBatchItems)
	}

	var (
		batch    domain.SourceBatch
		itemErrs []string
	)
	for i, item := range env.Data {
		kind, err := itemKind(env.DataType, item)
		if err != nil {
			itemErrs = append(itemErrs, fmt.Sprintf("item %d: %v", i, err))
			continue
		}
		switch kind {
		case ItemKindReading:
			r, err := parseReadingItem(userID, deviceID, item)
			if err != nil {
				itemErrs = append(itemErrs, fmt.Sprintf("item %d: %v", i, err))
				continue
			}
			batch.Readings = append(batch.Readings, r)
		case ItemKindSleep:
			ev, err := parseSleepItem(userID, deviceID, item)
			if err != nil {
				itemErrs = append(itemErrs, fmt.Sprintf("item %d: %v", i, err))
				continue
			}
			batch.Sleep = append(batch.Sleep, ev)
		case ItemKindActivity:
			d, err := parseActivityItem(userID, deviceID, item)
			if err != nil {
				itemErrs = append(itemErrs, fmt.Sprintf("item %d: %v", i, err))
				continue
			}
			batch.Activity = append(batch.Activity, d)
		}
	}
	return batch, itemErrs, nil
}

func itemKind(dataType string, item BatchItem) (string, error) {
	switch dataType {
	case BatchTypeHeartRate:
		return ItemKindReading, nil
	case BatchTypeSleep:
		return ItemKindSleep, nil
	case BatchTypeSteps:
		return ItemKindActivity, nil
	}
	switch item.Kind {
	case ItemKindReading, ItemKindSleep, ItemKindActivity:
		return item.Kind, nil
	case "":
		return "", fmt.Errorf("%w: mixed batch item missing kind", domain.ErrValidation)
	}
	return "", fmt.Errorf("%w: unknown item kind %q", domain.ErrValidation, item.Kind)
}

func parseReadingItem(userID, deviceID uuid.UUID, item BatchItem) (domain.Reading, error) {
	if item.Value == nil {
		return domain.Reading{}, fmt.Errorf("%w: value is required", domain.ErrValidation)
	}
	at, err := time.Parse(time.RFC3339, item.Timestamp)
	if err != nil {
		return domain.Reading{}, fmt.Errorf("%w: invalid timestamp %q", domain.ErrValidation, item.Timestamp)
	}
	metric := item.Metric
	if metric == "" {
		metric = domain.MetricHeartRate
	}
	meta := map[string]any{
		domain.MetaSource: SourceManualBatch,
		domain.MetaBatch:  true,
	}
	if item.Accuracy != nil {
		meta[domain.MetaAccuracy] = *item.Accuracy
	}
	return domain.Reading{
		UserID:     userID,
		DeviceID:   deviceID,
		Metric:     metric,
		Value:      *item.Value,
		RecordedAt: at.UTC(),
		Metadata:   meta,
	}, nil
}

func parseSleepItem(userID, deviceID uuid.UUID, item BatchItem) (domain.SleepEvent, error) {
	start, err := time.Parse(time.RFC3339, item.SleepStart)
	if err != nil {
		return domain.SleepEvent{}, fmt.Errorf("%w: invalid sleepStart %q", domain.ErrValidation, item.SleepStart)
	}
	end, err := time.Parse(time.RFC3339, item.SleepEnd)
	if err != nil {
		return domain.SleepEvent{}, fmt.Errorf("%w: invalid sleepEnd %q", domain.ErrValidation, item.SleepEnd)
	}
	ev := domain.SleepEvent{
		UserID:       userID,
		DeviceID:     deviceID,
		Start:        start.UTC(),
		End:          end.UTC(),
		QualityScore: item.QualityScore,
		Source:       SourceManualBatch,
	}
	if item.Stages != nil {
		ev.Stages = *item.Stages
	}
	return ev, nil
}

func parseActivityItem(userID, deviceID uuid.UUID, item BatchItem) (domain.ActivityDelta, error) {
	day, err := domain.NormalizeDay(item.Date)
	if err != nil {
		return domain.ActivityDelta{}, err
	}
	return domain.ActivityDelta{
		UserID:            userID,
		DeviceID:          deviceID,
		Date:              day,
		Steps:             item.Steps,
		DistanceMeters:    item.DistanceMeters,
		CaloriesBurned:    item.CaloriesBurned,
		ActiveMinutes:     item.ActiveMinutes,
		FloorsClimbed:     item.FloorsClimbed,
		ScreenTimeMinutes: item.ScreenTimeMinutes,
		Source:            SourceManualBatch,
	}, nil
}
