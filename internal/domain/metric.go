// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MetricType is one entry in the metric catalog: the canonical name sources
// report, its display metadata, and the valid numeric range for values.
type MetricType struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Unit        string    `json:"unit"`
	Description string    `json:"description,omitempty"`
	MinValue    float64   `json:"minValue"`
	MaxValue    float64   `json:"maxValue"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MetricHeartRate is the metric name daily summaries average over.
const MetricHeartRate = "heart_rate"

// DefaultMetricTypes returns the catalog seeded at setup. Immutable after
// seeding; readings referencing names outside this set are rejected.
func DefaultMetricTypes() []MetricType {
	return []MetricType{
		{Name: MetricHeartRate, DisplayName: "Heart Rate", Unit: "bpm", Description: "Heart rate measurement in beats per minute", MinValue: 30, MaxValue: 250},
		{Name: "blood_pressure_systolic", DisplayName: "Systolic Blood Pressure", Unit: "mmHg", Description: "Systolic blood pressure measurement", MinValue: 70, MaxValue: 250},
		{Name: "blood_pressure_diastolic", DisplayName: "Diastolic Blood Pressure", Unit: "mmHg", Description: "Diastolic blood pressure measurement", MinValue: 40, MaxValue: 150},
		{Name: "blood_oxygen", DisplayName: "Blood Oxygen Saturation", Unit: "%", Description: "Blood oxygen saturation percentage", MinValue: 70, MaxValue: 100},
		{Name: "body_temperature", DisplayName: "Body Temperature", Unit: "°C", Description: "Body temperature in Celsius", MinValue: 35, MaxValue: 42},
		{Name: "respiratory_rate", DisplayName: "Respiratory Rate", Unit: "breaths/min", Description: "Respiratory rate in breaths per minute", MinValue: 8, MaxValue: 40},
		{Name: "stress_level", DisplayName: "Stress Level", Unit: "level", Description: "Stress level measurement (0-100)", MinValue: 0, MaxValue: 100},
	}
}

// MetricTypeRepository is the port for metric catalog persistence.
type MetricTypeRepository interface {
	GetMetricTypeByName(ctx context.Context, name string) (*MetricType, error)
	ListMetricTypes(ctx context.Context) ([]MetricType, error)
	CreateMetricType(ctx context.Context, mt MetricType) (*MetricType, error)
}
