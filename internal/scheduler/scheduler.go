package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/Balaji-1206/CareSync-sub000/internal/cache"
	"github.com/Balaji-1206/CareSync-sub000/internal/history"
	"github.com/Balaji-1206/CareSync-sub000/internal/metrics"
	"github.com/Balaji-1206/CareSync-sub000/internal/models"
	"github.com/Balaji-1206/CareSync-sub000/internal/repository"

	"go.uber.org/zap"
)

// Evaluator 评分流水线接口（实现见 evaluator.ScoringPipeline）
type Evaluator interface {
	Evaluate(ctx context.Context, values models.VitalValues, entries []models.HistoryEntry) models.Assessment
}

// AssessmentMirror 评估结果镜像接口（实现见 cache.MirrorManager）
type AssessmentMirror interface {
	UpdateAssessment(ctx context.Context, patientID string, reading *models.VitalReading) error
}

// PatientScheduler 患者评估调度器
//
// 每个活跃上报的患者对应一个独立的周期评估任务：
// 首次摄入时创建，显式停止时销毁，患者之间互不影响。
// 同一患者的 tick 严格串行（单 goroutine + ticker），不同患者之间无顺序保证。
type PatientScheduler struct {
	mu      sync.Mutex
	handles map[string]*handle

	cache     *cache.FreshnessCache
	evaluator Evaluator
	repo      repository.VitalReadingsRepository
	mirror    AssessmentMirror // 可以为 nil
	metrics   *metrics.Metrics // 可以为 nil

	interval    time.Duration
	historySize int
	logger      *zap.Logger
	wg          sync.WaitGroup
}

// handle 患者活跃任务的所有权记录
type handle struct {
	patientID string
	cancel    context.CancelFunc
}

// NewPatientScheduler 创建调度器
func NewPatientScheduler(
	freshnessCache *cache.FreshnessCache,
	eval Evaluator,
	repo repository.VitalReadingsRepository,
	mirror AssessmentMirror,
	m *metrics.Metrics,
	interval time.Duration,
	historySize int,
	logger *zap.Logger,
) *PatientScheduler {
	return &PatientScheduler{
		handles:     make(map[string]*handle),
		cache:       freshnessCache,
		evaluator:   eval,
		repo:        repo,
		mirror:      mirror,
		metrics:     m,
		interval:    interval,
		historySize: historySize,
		logger:      logger,
	}
}

// EnsureStarted 确保患者的评估任务已启动（首次摄入时调用）
// 已在运行则为空操作；返回是否新启动了任务
func (s *PatientScheduler) EnsureStarted(patientID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.handles[patientID]; ok {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.handles[patientID] = &handle{patientID: patientID, cancel: cancel}

	s.wg.Add(1)
	go s.run(ctx, patientID)

	if s.metrics != nil {
		s.metrics.ActiveSchedulers.Inc()
	}
	s.logger.Info("Started evaluation scheduler",
		zap.String("patient_id", patientID),
		zap.Duration("interval", s.interval),
	)
	return true
}

// Stop 停止患者的评估任务（幂等：未启动或已停止时为空操作）
// 进行中的 tick 会正常完成，历史窗口随任务退出一起释放
func (s *PatientScheduler) Stop(patientID string) {
	s.mu.Lock()
	h, ok := s.handles[patientID]
	if ok {
		delete(s.handles, patientID)
	}
	s.mu.Unlock()

	if !ok {
		return
	}

	h.cancel()
	if s.metrics != nil {
		s.metrics.ActiveSchedulers.Dec()
	}
	s.logger.Info("Stopped evaluation scheduler",
		zap.String("patient_id", patientID),
	)
}

// StopAll 停止所有任务并等待退出（服务关闭时调用）
func (s *PatientScheduler) StopAll() {
	s.mu.Lock()
	for id, h := range s.handles {
		h.cancel()
		delete(s.handles, id)
		if s.metrics != nil {
			s.metrics.ActiveSchedulers.Dec()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("All evaluation schedulers stopped")
}

// IsRunning 患者的评估任务是否在运行
func (s *PatientScheduler) IsRunning(patientID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.handles[patientID]
	return ok
}

// Count 当前活跃任务数
func (s *PatientScheduler) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// run 患者评估循环
// 历史窗口由本 goroutine 独占，首次 tick 在第一个周期边界触发（不立即执行）
func (s *PatientScheduler) run(ctx context.Context, patientID string) {
	defer s.wg.Done()

	window := history.NewWindow(s.historySize)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			window.Clear()
			return
		case <-ticker.C:
			s.safeTick(ctx, patientID, window)
		}
	}
}

// safeTick 执行单次 tick，panic 被捕获并记录
// 单次评估失败不能终止患者的周期监护，下一个 tick 不受影响
func (s *PatientScheduler) safeTick(ctx context.Context, patientID string, window *history.Window) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Tick panicked",
				zap.String("patient_id", patientID),
				zap.Any("panic", r),
			)
		}
	}()
	s.tick(ctx, patientID, window)
}

// tick 单次评估
func (s *PatientScheduler) tick(ctx context.Context, patientID string, window *history.Window) {
	if s.metrics != nil {
		s.metrics.TicksTotal.Inc()
	}

	// 1. 新鲜度检查
	verdict := s.cache.CheckStaleness(patientID)
	if verdict.IsStale {
		s.handleStaleTick(ctx, patientID, verdict)
		return
	}

	// 2. 取当前数值并评分（趋势分析用的是本次之前的历史）
	values, err := s.cache.ValuesForScoring(patientID)
	if err != nil {
		s.logger.Warn("No cached values at tick time",
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
		return
	}

	assessment := s.evaluator.Evaluate(ctx, values, window.Entries())

	// 3. 追加历史（每个周期一条，容量满时淘汰最旧）
	window.Append(models.HistoryEntry{
		Values:     values,
		CapturedAt: time.Now(),
	})

	// 4. 持久化
	reading := &models.VitalReading{
		PatientID:        patientID,
		Vitals:           values,
		EWSResult:        assessment.EWSResult,
		AnomalyResult:    assessment.AnomalyResult,
		TrendResult:      assessment.Trend.Status,
		TrendReason:      assessment.Trend.Reason,
		TrendSignal:      assessment.Trend.Signal,
		FinalStatus:      assessment.FinalStatus,
		ProcessingStatus: models.ProcessingProcessed,
		OverrideApplied:  assessment.OverrideApplied,
		OverrideReason:   assessment.OverrideReason,
		RecordedAt:       time.Now(),
	}
	s.writeReading(ctx, reading)

	s.logger.Debug("Tick processed",
		zap.String("patient_id", patientID),
		zap.String("final_status", assessment.FinalStatus),
		zap.Bool("override_applied", assessment.OverrideApplied),
	)
}

// handleStaleTick 数据过期：写入 Stale 记录，跳过评分，不触碰历史窗口
func (s *PatientScheduler) handleStaleTick(ctx context.Context, patientID string, verdict models.StalenessVerdict) {
	if s.metrics != nil {
		s.metrics.StaleTicksTotal.Inc()
	}
	s.logger.Warn("Stale vitals, skipping evaluation",
		zap.String("patient_id", patientID),
		zap.Any("stale_signals", verdict.StaleSignals),
	)

	reading := &models.VitalReading{
		PatientID:        patientID,
		Vitals:           models.VitalValues{}, // 数值清零
		EWSResult:        models.EWSNormal,
		AnomalyResult:    models.AnomalyNormal,
		TrendResult:      models.TrendStable,
		FinalStatus:      models.FinalStable,
		ProcessingStatus: models.ProcessingStale,
		StaleSignals:     verdict.StaleSignals,
		RecordedAt:       time.Now(),
	}
	s.writeReading(ctx, reading)
}

// writeReading 持久化评分记录并更新镜像
// 持久化失败只记录日志：内存缓存仍是权威的最新数据源，不能因为一次写入失败中断监护
func (s *PatientScheduler) writeReading(ctx context.Context, reading *models.VitalReading) {
	if err := s.repo.CreateReading(ctx, reading); err != nil {
		if s.metrics != nil {
			s.metrics.SinkWriteFailuresTotal.Inc()
		}
		s.logger.Error("Failed to persist vital reading",
			zap.String("patient_id", reading.PatientID),
			zap.Error(err),
		)
	}

	if s.mirror != nil {
		if err := s.mirror.UpdateAssessment(ctx, reading.PatientID, reading); err != nil {
			s.logger.Warn("Failed to update assessment mirror",
				zap.String("patient_id", reading.PatientID),
				zap.Error(err),
			)
		}
	}
}
