package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Balaji-1206/CareSync-sub000/internal/cache"
	httpapi "github.com/Balaji-1206/CareSync-sub000/internal/http"
	"github.com/Balaji-1206/CareSync-sub000/internal/models"
	"github.com/Balaji-1206/CareSync-sub000/internal/repository"
	"github.com/Balaji-1206/CareSync-sub000/internal/scheduler"
	"github.com/Balaji-1206/CareSync-sub000/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubEvaluator 空评分流水线（测试中调度周期为 1小时，不会触发 tick）
type stubEvaluator struct{}

func (stubEvaluator) Evaluate(_ context.Context, _ models.VitalValues, _ []models.HistoryEntry) models.Assessment {
	return models.Assessment{}
}

// stubRepo 可编程的仓库桩
type stubRepo struct {
	latest   *models.VitalReading
	readings []*models.VitalReading
	err      error
}

func (s *stubRepo) CreateReading(_ context.Context, _ *models.VitalReading) error {
	return nil
}

func (s *stubRepo) GetLatestReading(_ context.Context, patientID string) (*models.VitalReading, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.latest == nil {
		return nil, fmt.Errorf("%w: patient %s", repository.ErrReadingNotFound, patientID)
	}
	return s.latest, nil
}

func (s *stubRepo) ListReadings(_ context.Context, _ string, _ int) ([]*models.VitalReading, error) {
	return s.readings, s.err
}

func newTestRouter(t *testing.T, repo *stubRepo) *httpapi.Router {
	t.Helper()
	logger := zap.NewNop()
	c := cache.NewFreshnessCache(logger)
	sched := scheduler.NewPatientScheduler(c, stubEvaluator{}, repo, nil, nil, time.Hour, 30, logger)
	t.Cleanup(sched.StopAll)

	svc := service.NewVitalsService(c, sched, repo, nil, 200, logger)

	router := httpapi.NewRouter(logger)
	router.RegisterVitalsRoutes(httpapi.NewVitalsHandler(svc, logger))
	router.RegisterOpsRoutes()
	return router
}

func ingestBody() []byte {
	body := map[string]any{
		"patientId": "patient-1",
		"vitals": map[string]any{
			"HR":   map[string]any{"value": 75},
			"SpO2": map[string]any{"value": 98},
			"Temp": map[string]any{"value": 36.8},
			"RR":   map[string]any{"value": 16},
			"Fall": map[string]any{"value": 0},
		},
	}
	data, _ := json.Marshal(body)
	return data
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) httpapi.Result[json.RawMessage] {
	t.Helper()
	var result httpapi.Result[json.RawMessage]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func TestIngestEndpoint_Success(t *testing.T) {
	router := newTestRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodPost, "/engine/api/v1/vitals/data", bytes.NewReader(ingestBody()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	result := decodeResult(t, rec)
	assert.Equal(t, httpapi.ResultSuccess, result.Code)

	var resp httpapi.IngestResponse
	require.NoError(t, json.Unmarshal(result.Result, &resp))
	assert.Equal(t, "patient-1", resp.PatientID)
	assert.Len(t, resp.CachedState, 5)
}

func TestIngestEndpoint_InvalidJSON(t *testing.T) {
	router := newTestRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodPost, "/engine/api/v1/vitals/data", bytes.NewReader([]byte(`{not-json`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	result := decodeResult(t, rec)
	assert.Equal(t, httpapi.ResultError, result.Code)
}

func TestIngestEndpoint_ValidationFailure(t *testing.T) {
	router := newTestRouter(t, &stubRepo{})

	body, _ := json.Marshal(map[string]any{
		"patientId": "patient-1",
		"vitals": map[string]any{
			"HR": map[string]any{"value": 75},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/engine/api/v1/vitals/data", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	result := decodeResult(t, rec)
	assert.Contains(t, result.Message, "Invalid vital data for")
}

func TestIngestEndpoint_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/engine/api/v1/vitals/data", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestLatestEndpoint_Success(t *testing.T) {
	router := newTestRouter(t, &stubRepo{})

	// 先摄入一次
	ingest := httptest.NewRequest(http.MethodPost, "/engine/api/v1/vitals/data", bytes.NewReader(ingestBody()))
	router.ServeHTTP(httptest.NewRecorder(), ingest)

	req := httptest.NewRequest(http.MethodGet, "/engine/api/v1/vitals/latest/patient-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	result := decodeResult(t, rec)
	var snapshot models.PatientSnapshot
	require.NoError(t, json.Unmarshal(result.Result, &snapshot))
	assert.Equal(t, 75.0, snapshot[models.SignalHR].Value)
}

func TestLatestEndpoint_UnknownPatient(t *testing.T) {
	router := newTestRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/engine/api/v1/vitals/latest/no-such-patient", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	result := decodeResult(t, rec)
	assert.Equal(t, "No vital data for this patient yet", result.Message)
}

func TestEWSStatusEndpoint_Success(t *testing.T) {
	recordedAt := time.Now().Truncate(time.Second)
	repo := &stubRepo{latest: &models.VitalReading{
		PatientID:        "patient-1",
		EWSResult:        models.EWSWarning,
		AnomalyResult:    models.AnomalyNormal,
		TrendResult:      models.TrendDeclining,
		FinalStatus:      models.FinalMonitor,
		ProcessingStatus: models.ProcessingProcessed,
		RecordedAt:       recordedAt,
	}}
	router := newTestRouter(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/engine/api/v1/vitals/ews-status/patient-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	result := decodeResult(t, rec)
	var status httpapi.EWSStatusResponse
	require.NoError(t, json.Unmarshal(result.Result, &status))
	assert.Equal(t, models.EWSWarning, status.EWS)
	assert.Equal(t, models.TrendDeclining, status.Trend)
	assert.Equal(t, models.FinalMonitor, status.FinalStatus)
	assert.Equal(t, models.ProcessingProcessed, status.ProcessingStatus)
	// 无过期信号时序列化为空数组而不是 null
	assert.NotNil(t, status.StaleVitals)
	assert.Empty(t, status.StaleVitals)
}

func TestEWSStatusEndpoint_NoDataYet(t *testing.T) {
	router := newTestRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/engine/api/v1/vitals/ews-status/patient-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	result := decodeResult(t, rec)
	assert.Equal(t, "No EWS data available yet", result.Message)
}

func TestHistoryEndpoint_Success(t *testing.T) {
	repo := &stubRepo{readings: []*models.VitalReading{
		{PatientID: "patient-1", FinalStatus: models.FinalStable},
		{PatientID: "patient-1", FinalStatus: models.FinalMonitor},
	}}
	router := newTestRouter(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/engine/api/v1/vitals/history/patient-1?limit=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	result := decodeResult(t, rec)
	var resp httpapi.HistoryResponse
	require.NoError(t, json.Unmarshal(result.Result, &resp))
	assert.Equal(t, "patient-1", resp.PatientID)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Data, 2)
}

func TestHistoryEndpoint_EmptyHistory(t *testing.T) {
	router := newTestRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/engine/api/v1/vitals/history/patient-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	result := decodeResult(t, rec)
	var resp httpapi.HistoryResponse
	require.NoError(t, json.Unmarshal(result.Result, &resp))
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Data)
}

func TestStopMonitorEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubRepo{})

	// 摄入后任务在运行
	ingest := httptest.NewRequest(http.MethodPost, "/engine/api/v1/vitals/data", bytes.NewReader(ingestBody()))
	router.ServeHTTP(httptest.NewRecorder(), ingest)

	req := httptest.NewRequest(http.MethodPost, "/engine/api/v1/vitals/monitor/patient-1/stop", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	result := decodeResult(t, rec)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(result.Result, &resp))
	assert.Equal(t, "stopped", resp["status"])

	// 幂等：再次停止同样成功
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/engine/api/v1/vitals/monitor/patient-1/stop", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStopMonitorEndpoint_MalformedPath(t *testing.T) {
	router := newTestRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodPost, "/engine/api/v1/vitals/monitor/patient-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthzEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}
