package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Balaji-1206/CareSync-sub000/internal/cache"
	"github.com/Balaji-1206/CareSync-sub000/internal/models"
	"github.com/Balaji-1206/CareSync-sub000/internal/repository"
	"github.com/Balaji-1206/CareSync-sub000/internal/scheduler"

	"go.uber.org/zap"
)

// VitalsService 生理数据服务
//
// 摄入路径：校验 -> 更新内存缓存 -> 确保调度任务已启动 -> 立即应答。
// 摄入相对评分是 fire-and-forget 的：应答只反映缓存状态，不等待下一次评估。
type VitalsService struct {
	cache     *cache.FreshnessCache
	scheduler *scheduler.PatientScheduler
	repo      repository.VitalReadingsRepository
	mirror    *cache.MirrorManager // 可以为 nil
	maxLimit  int
	logger    *zap.Logger
}

// NewVitalsService 创建生理数据服务
func NewVitalsService(
	freshnessCache *cache.FreshnessCache,
	sched *scheduler.PatientScheduler,
	repo repository.VitalReadingsRepository,
	mirror *cache.MirrorManager,
	maxLimit int,
	logger *zap.Logger,
) *VitalsService {
	if maxLimit <= 0 {
		maxLimit = 200
	}
	return &VitalsService{
		cache:     freshnessCache,
		scheduler: sched,
		repo:      repo,
		mirror:    mirror,
		maxLimit:  maxLimit,
		logger:    logger,
	}
}

// validateIngest 校验摄入载荷并转换为标准读数
func validateIngest(req *models.IngestRequest, now time.Time) (map[models.SignalKind]models.SignalReading, error) {
	if req.PatientID == "" {
		return nil, &models.ValidationError{Message: "Missing required fields: patientId, vitals"}
	}
	if len(req.Vitals) == 0 {
		return nil, &models.ValidationError{Message: "Missing required fields: patientId, vitals"}
	}

	readings := make(map[models.SignalKind]models.SignalReading, len(models.CanonicalSignals))
	for _, kind := range models.CanonicalSignals {
		raw, ok := req.Vitals[string(kind)]
		if !ok || raw.Value == nil {
			return nil, &models.ValidationError{Message: fmt.Sprintf("Invalid vital data for %s", kind)}
		}

		observedAt := now
		if raw.Time != nil {
			observedAt = *raw.Time
		}
		readings[kind] = models.SignalReading{
			Value:      *raw.Value,
			ObservedAt: observedAt,
		}
	}
	return readings, nil
}

// Ingest 处理一次摄入，返回摄入后的缓存快照
func (s *VitalsService) Ingest(ctx context.Context, req *models.IngestRequest) (models.PatientSnapshot, error) {
	readings, err := validateIngest(req, time.Now())
	if err != nil {
		return nil, err
	}

	// 1. 更新内存缓存（权威数据源）
	s.cache.Update(req.PatientID, readings)

	// 2. 首次摄入时启动评估任务
	s.scheduler.EnsureStarted(req.PatientID)

	snapshot, err := s.cache.Latest(req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to read back snapshot: %w", err)
	}

	// 3. 尽力而为地更新 Redis 镜像（失败不影响摄入结果）
	if s.mirror != nil {
		if err := s.mirror.UpdateRealtime(ctx, req.PatientID, snapshot); err != nil {
			s.logger.Warn("Failed to update realtime mirror",
				zap.String("patient_id", req.PatientID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Vital data ingested",
		zap.String("patient_id", req.PatientID),
		zap.Float64("hr", readings[models.SignalHR].Value),
		zap.Float64("spo2", readings[models.SignalSpO2].Value),
		zap.Float64("temp", readings[models.SignalTemp].Value),
		zap.Float64("rr", readings[models.SignalRR].Value),
		zap.Float64("fall", readings[models.SignalFall].Value),
	)

	return snapshot, nil
}

// Latest 获取患者最新缓存快照
func (s *VitalsService) Latest(_ context.Context, patientID string) (models.PatientSnapshot, error) {
	return s.cache.Latest(patientID)
}

// LatestAssessment 获取患者最新持久化的评分记录
func (s *VitalsService) LatestAssessment(ctx context.Context, patientID string) (*models.VitalReading, error) {
	return s.repo.GetLatestReading(ctx, patientID)
}

// History 按时间倒序返回患者的评分记录，limit 超出上限时截断
func (s *VitalsService) History(ctx context.Context, patientID string, limit int) ([]*models.VitalReading, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	return s.repo.ListReadings(ctx, patientID, limit)
}

// StopMonitoring 停止患者的评估任务（管理操作，幂等）
func (s *VitalsService) StopMonitoring(patientID string) {
	s.scheduler.Stop(patientID)
}
