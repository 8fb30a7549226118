package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	adapthttp "healthsync/internal/adapter/http"
	"healthsync/internal/adapter/memory"
	"healthsync/internal/app"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	db := memory.New()
	catalog := app.NewCatalogService(db)
	if err := catalog.Seed(context.Background()); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	devices := app.NewDeviceService(db, db, db, db, catalog, nil)
	health := app.NewHealthService(catalog, db, db, db, nil)

	return adapthttp.New(catalog, devices, health, nil, nil).Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, out
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t)
	rec, out := doJSON(t, h, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if out["ok"] != true {
		t.Errorf("body = %v", out)
	}
}

func TestMetricTypesEndpoint(t *testing.T) {
	h := newTestServer(t)
	rec, out := doJSON(t, h, http.MethodGet, "/api/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	metrics, ok := out["metrics"].([]any)
	if !ok || len(metrics) != 7 {
		t.Errorf("got %d metric types, want 7", len(metrics))
	}
}

func TestSyncHeartRateCreatesDevice(t *testing.T) {
	h := newTestServer(t)
	userID := uuid.NewString()

	rec, out := doJSON(t, h, http.MethodPost, "/api/sync/heart-rate", map[string]any{
		"userId":    userID,
		"heartRate": 72,
		"timestamp": "2024-03-10T08:00:00Z",
		"accuracy":  3,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %v", rec.Code, out)
	}

	rec, out = doJSON(t, h, http.MethodGet, "/api/devices?userId="+userID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("devices status = %d, want 200", rec.Code)
	}
	devices, ok := out["devices"].([]any)
	if !ok || len(devices) != 1 {
		t.Fatalf("got %d devices, want 1 auto-registered", len(devices))
	}
	dev := devices[0].(map[string]any)
	if dev["deviceType"] != "wearable" {
		t.Errorf("deviceType = %v, want wearable", dev["deviceType"])
	}
}

func TestSyncHeartRateRejectsOutOfRange(t *testing.T) {
	h := newTestServer(t)

	rec, _ := doJSON(t, h, http.MethodPost, "/api/sync/heart-rate", map[string]any{
		"userId":    uuid.NewString(),
		"heartRate": 500,
		"timestamp": "2024-03-10T08:00:00Z",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSyncBatchMultiStatus(t *testing.T) {
	h := newTestServer(t)
	userID := uuid.NewString()

	// Register a device first so the batch has one to reference.
	rec, out := doJSON(t, h, http.MethodPost, "/api/sync/heart-rate", map[string]any{
		"userId":    userID,
		"heartRate": 70,
		"timestamp": "2024-03-09T08:00:00Z",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed reading status = %d: %v", rec.Code, out)
	}
	rec, out = doJSON(t, h, http.MethodGet, "/api/devices?userId="+userID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("devices status = %d", rec.Code)
	}
	deviceID := out["devices"].([]any)[0].(map[string]any)["id"].(string)

	items := make([]map[string]any, 0, 10)
	for i := 0; i < 10; i++ {
		metric := "heart_rate"
		if i == 4 {
			metric = "not_a_metric"
		}
		items = append(items, map[string]any{
			"kind":       "reading",
			"metricName": metric,
			"value":      70 + i,
			"timestamp":  fmt.Sprintf("2024-03-10T08:%02d:00Z", i),
		})
	}

	rec, out = doJSON(t, h, http.MethodPost, "/api/sync/batch", map[string]any{
		"userId":   userID,
		"deviceId": deviceID,
		"dataType": "mixed",
		"data":     items,
	})
	if rec.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want 207: %v", rec.Code, out)
	}
	if out["success"] != float64(9) || out["failed"] != float64(1) {
		t.Errorf("success/failed = %v/%v, want 9/1", out["success"], out["failed"])
	}
	errs, ok := out["errors"].([]any)
	if !ok || len(errs) != 1 {
		t.Errorf("errors = %v, want one entry", out["errors"])
	}
}

func TestSyncBatchRejectsBadEnvelope(t *testing.T) {
	h := newTestServer(t)

	rec, _ := doJSON(t, h, http.MethodPost, "/api/sync/batch", map[string]any{
		"userId":   "not-a-uuid",
		"deviceId": uuid.NewString(),
		"dataType": "heartRate",
		"data":     []map[string]any{{"value": 70, "timestamp": "2024-03-10T08:00:00Z"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestActivityMergeAndSummary(t *testing.T) {
	h := newTestServer(t)
	userID := uuid.NewString()

	rec, out := doJSON(t, h, http.MethodPost, "/api/sync/activity", map[string]any{
		"userId": userID,
		"date":   "2024-03-10",
		"steps":  100,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("first upsert status = %d: %v", rec.Code, out)
	}

	rec, out = doJSON(t, h, http.MethodPost, "/api/sync/activity", map[string]any{
		"userId":         userID,
		"date":           "2024-03-10",
		"caloriesBurned": 50,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("second upsert status = %d: %v", rec.Code, out)
	}

	rec, out = doJSON(t, h, http.MethodGet, "/api/summary/daily?userId="+userID+"&date=2024-03-10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d: %v", rec.Code, out)
	}
	if out["steps"] != float64(100) {
		t.Errorf("steps = %v, want 100 preserved across merge", out["steps"])
	}
	if out["caloriesBurned"] != float64(50) {
		t.Errorf("caloriesBurned = %v, want 50", out["caloriesBurned"])
	}
	if out["sleepDurationHours"] != nil {
		t.Errorf("sleepDurationHours = %v, want null", out["sleepDurationHours"])
	}
	if out["avgHeartRate"] != nil {
		t.Errorf("avgHeartRate = %v, want null", out["avgHeartRate"])
	}
}

func TestEndToEndDailyPicture(t *testing.T) {
	h := newTestServer(t)
	userID := uuid.NewString()

	rec, out := doJSON(t, h, http.MethodPost, "/api/sync/heart-rate", map[string]any{
		"userId":    userID,
		"heartRate": 72,
		"timestamp": "2024-03-10T12:00:00Z",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("heart rate status = %d: %v", rec.Code, out)
	}

	rec, out = doJSON(t, h, http.MethodPost, "/api/sync/sleep", map[string]any{
		"userId": userID,
		"start":  "2024-03-10T04:00:00Z",
		"end":    "2024-03-10T12:00:00Z",
		"stages": map[string]any{"deep": 120, "light": 300, "rem": 60, "awake": 0},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("sleep status = %d: %v", rec.Code, out)
	}

	rec, out = doJSON(t, h, http.MethodPost, "/api/sync/activity", map[string]any{
		"userId": userID,
		"date":   "2024-03-10",
		"steps":  8500,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("activity status = %d: %v", rec.Code, out)
	}

	rec, out = doJSON(t, h, http.MethodGet, "/api/summary/daily?userId="+userID+"&date=2024-03-10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d: %v", rec.Code, out)
	}
	if out["steps"] != float64(8500) {
		t.Errorf("steps = %v, want 8500", out["steps"])
	}
	if out["sleepDurationHours"] != float64(8) {
		t.Errorf("sleepDurationHours = %v, want 8", out["sleepDurationHours"])
	}
	if out["avgHeartRate"] != float64(72) {
		t.Errorf("avgHeartRate = %v, want 72", out["avgHeartRate"])
	}
}

func TestSummaryEmptyDayDefaults(t *testing.T) {
	h := newTestServer(t)

	rec, out := doJSON(t, h, http.MethodGet, "/api/summary/daily?userId="+uuid.NewString()+"&date=2024-03-10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %v", rec.Code, out)
	}
	if out["steps"] != float64(0) || out["distanceMeters"] != float64(0) {
		t.Errorf("zero-data day should default numeric fields to 0: %v", out)
	}
}

func TestDeviceStatusUnknownDevice(t *testing.T) {
	h := newTestServer(t)

	path := "/api/devices/status?userId=" + uuid.NewString() + "&deviceId=" + uuid.NewString()
	rec, _ := doJSON(t, h, http.MethodGet, path, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSyncRunRequiresUser(t *testing.T) {
	h := newTestServer(t)

	rec, _ := doJSON(t, h, http.MethodPost, "/api/sync/run", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSleepEndpoint(t *testing.T) {
	h := newTestServer(t)
	userID := uuid.NewString()

	end := time.Now().UTC().Truncate(time.Minute)
	start := end.Add(-450 * time.Minute)
	rec, out := doJSON(t, h, http.MethodPost, "/api/sync/sleep", map[string]any{
		"userId": userID,
		"start":  start.Format(time.RFC3339),
		"end":    end.Format(time.RFC3339),
		"stages": map[string]any{"deep": 90, "light": 240, "rem": 90, "awake": 30},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %v", rec.Code, out)
	}
	if out["totalDurationMinutes"] != float64(450) {
		t.Errorf("totalDurationMinutes = %v, want 450", out["totalDurationMinutes"])
	}

	rec, out = doJSON(t, h, http.MethodGet, "/api/history/sleep?userId="+userID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	sessions, ok := out["sessions"].([]any)
	if !ok || len(sessions) != 1 {
		t.Errorf("got %d sessions, want 1", len(sessions))
	}
}
