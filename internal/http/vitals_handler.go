package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/Balaji-1206/CareSync-sub000/internal/cache"
	"github.com/Balaji-1206/CareSync-sub000/internal/models"
	"github.com/Balaji-1206/CareSync-sub000/internal/repository"
	"github.com/Balaji-1206/CareSync-sub000/internal/service"

	"go.uber.org/zap"
)

// VitalsHandler 生理数据 API
type VitalsHandler struct {
	svc    *service.VitalsService
	logger *zap.Logger
}

func NewVitalsHandler(svc *service.VitalsService, logger *zap.Logger) *VitalsHandler {
	return &VitalsHandler{svc: svc, logger: logger}
}

// EWSStatusResponse 最新评分结果响应（字段名与前端约定一致）
type EWSStatusResponse struct {
	EWS              string              `json:"EWS"`
	Anomaly          string              `json:"Anomaly"`
	Trend            string              `json:"Trend"`
	FinalStatus      string              `json:"Final_Status"`
	LastUpdate       time.Time           `json:"Last_Update"`
	ProcessingStatus string              `json:"Processing_Status"`
	StaleVitals      []models.SignalKind `json:"Stale_Vitals"`
}

// HistoryResponse 历史评分记录响应
type HistoryResponse struct {
	PatientID string                 `json:"patientId"`
	Count     int                    `json:"count"`
	Data      []*models.VitalReading `json:"data"`
}

// IngestResponse 摄入应答（反映摄入后的缓存状态，与评分异步）
type IngestResponse struct {
	PatientID   string                 `json:"patientId"`
	CachedState models.PatientSnapshot `json:"cachedState"`
}

// Ingest POST /engine/api/v1/vitals/data
func (h *VitalsHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req models.IngestRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid JSON payload"))
		return
	}

	snapshot, err := h.svc.Ingest(r.Context(), &req)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, Fail(verr.Message))
			return
		}
		h.logger.Error("Failed to ingest vital data", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to process vital data"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(IngestResponse{
		PatientID:   req.PatientID,
		CachedState: snapshot,
	}))
}

// GetLatest GET /engine/api/v1/vitals/latest/{patientId}
func (h *VitalsHandler) GetLatest(w http.ResponseWriter, r *http.Request, patientID string) {
	snapshot, err := h.svc.Latest(r.Context(), patientID)
	if err != nil {
		if errors.Is(err, cache.ErrPatientNotFound) {
			writeJSON(w, http.StatusNotFound, Fail("No vital data for this patient yet"))
			return
		}
		h.logger.Error("Failed to read latest vitals", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to retrieve vital data"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(snapshot))
}

// GetEWSStatus GET /engine/api/v1/vitals/ews-status/{patientId}
func (h *VitalsHandler) GetEWSStatus(w http.ResponseWriter, r *http.Request, patientID string) {
	reading, err := h.svc.LatestAssessment(r.Context(), patientID)
	if err != nil {
		if errors.Is(err, repository.ErrReadingNotFound) {
			writeJSON(w, http.StatusNotFound, Fail("No EWS data available yet"))
			return
		}
		h.logger.Error("Failed to read latest assessment", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to retrieve EWS status"))
		return
	}

	staleVitals := reading.StaleSignals
	if staleVitals == nil {
		staleVitals = []models.SignalKind{}
	}
	writeJSON(w, http.StatusOK, Ok(EWSStatusResponse{
		EWS:              reading.EWSResult,
		Anomaly:          reading.AnomalyResult,
		Trend:            reading.TrendResult,
		FinalStatus:      reading.FinalStatus,
		LastUpdate:       reading.RecordedAt,
		ProcessingStatus: reading.ProcessingStatus,
		StaleVitals:      staleVitals,
	}))
}

// GetHistory GET /engine/api/v1/vitals/history/{patientId}?limit=50
func (h *VitalsHandler) GetHistory(w http.ResponseWriter, r *http.Request, patientID string) {
	limit := parseInt(r.URL.Query().Get("limit"), 50)

	readings, err := h.svc.History(r.Context(), patientID, limit)
	if err != nil {
		h.logger.Error("Failed to read vital history", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to retrieve history"))
		return
	}
	if readings == nil {
		readings = []*models.VitalReading{}
	}

	writeJSON(w, http.StatusOK, Ok(HistoryResponse{
		PatientID: patientID,
		Count:     len(readings),
		Data:      readings,
	}))
}

// StopMonitor POST /engine/api/v1/vitals/monitor/{patientId}/stop
// 幂等：未启动或已停止时同样返回成功
func (h *VitalsHandler) StopMonitor(w http.ResponseWriter, _ *http.Request, patientID string) {
	h.svc.StopMonitoring(patientID)
	writeJSON(w, http.StatusOK, Ok(map[string]string{"patientId": patientID, "status": "stopped"}))
}
