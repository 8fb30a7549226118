package domain

import "errors"

var (
	// ErrValidation indicates malformed or out-of-schema input at the
	// ingestion boundary.
	ErrValidation = errors.New("validation failed")
	// ErrUnknownMetric indicates a reading references a metric name absent
	// from the catalog.
	ErrUnknownMetric = errors.New("unknown metric type")
	// ErrDeviceNotFound indicates the requested device does not exist or
	// belongs to another user.
	ErrDeviceNotFound = errors.New("device not found")
)
