package cache

import (
	"errors"
	"sync"
	"time"

	"github.com/Balaji-1206/CareSync-sub000/internal/models"

	"go.uber.org/zap"
)

// ErrPatientNotFound 表示缓存中不存在该患者
var ErrPatientNotFound = errors.New("patient not found in cache")

// signalMaxAge 各信号的最大允许数据年龄
// 不同信号的生理采样节奏不同：跌倒必须近实时，体温可以慢一些
var signalMaxAge = map[models.SignalKind]time.Duration{
	models.SignalHR:   5 * time.Second,
	models.SignalSpO2: 5 * time.Second,
	models.SignalTemp: 10 * time.Second,
	models.SignalRR:   8 * time.Second,
	models.SignalFall: 3 * time.Second,
}

// FreshnessCache 患者最新读数的内存缓存
//
// 结构：patientId -> { HR/SpO2/Temp/RR/Fall -> 最新读数 }
// 摄入路径和调度器 tick 可能并发访问同一患者，按患者加锁避免读到撕裂的快照
type FreshnessCache struct {
	mu       sync.RWMutex
	patients map[string]*patientEntry
	logger   *zap.Logger
}

type patientEntry struct {
	mu       sync.RWMutex
	readings models.PatientSnapshot
}

// NewFreshnessCache 创建缓存
func NewFreshnessCache(logger *zap.Logger) *FreshnessCache {
	return &FreshnessCache{
		patients: make(map[string]*patientEntry),
		logger:   logger,
	}
}

// entry 获取患者条目，create 为 true 时不存在则创建
func (c *FreshnessCache) entry(patientID string, create bool) *patientEntry {
	c.mu.RLock()
	e, ok := c.patients[patientID]
	c.mu.RUnlock()
	if ok || !create {
		return e
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok = c.patients[patientID]; ok {
		return e
	}
	e = &patientEntry{readings: make(models.PatientSnapshot)}
	c.patients[patientID] = e
	return e
}

// Update 更新患者的最新读数（last-write-wins，不合并）
//
// 上游已完成校验，这里只过滤非标准信号类型
func (c *FreshnessCache) Update(patientID string, readings map[models.SignalKind]models.SignalReading) {
	e := c.entry(patientID, true)

	e.mu.Lock()
	for kind, reading := range readings {
		if !models.IsCanonicalSignal(kind) {
			continue
		}
		e.readings[kind] = reading
	}
	e.mu.Unlock()

	c.logger.Debug("Updated freshness cache",
		zap.String("patient_id", patientID),
		zap.Int("signal_count", len(readings)),
	)
}

// Latest 获取患者最新快照（返回副本）
func (c *FreshnessCache) Latest(patientID string) (models.PatientSnapshot, error) {
	e := c.entry(patientID, false)
	if e == nil {
		return nil, ErrPatientNotFound
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	snapshot := make(models.PatientSnapshot, len(e.readings))
	for kind, reading := range e.readings {
		snapshot[kind] = reading
	}
	return snapshot, nil
}

// CheckStaleness 检查患者数据新鲜度
//
// 对五种标准信号逐一检查：没有读数或数据年龄超过阈值即为过期。
// 只要有一个信号过期，整个判定就是过期（评分流水线需要完整且新鲜的向量）。
// 每次调用实时计算，不缓存结果。
func (c *FreshnessCache) CheckStaleness(patientID string) models.StalenessVerdict {
	e := c.entry(patientID, false)
	if e == nil {
		stale := make([]models.SignalKind, len(models.CanonicalSignals))
		copy(stale, models.CanonicalSignals)
		return models.StalenessVerdict{IsStale: true, StaleSignals: stale}
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	now := time.Now()
	var staleSignals []models.SignalKind

	for _, kind := range models.CanonicalSignals {
		reading, ok := e.readings[kind]
		if !ok {
			staleSignals = append(staleSignals, kind)
			continue
		}
		if now.Sub(reading.ObservedAt) > signalMaxAge[kind] {
			staleSignals = append(staleSignals, kind)
		}
	}

	return models.StalenessVerdict{
		IsStale:      len(staleSignals) > 0,
		StaleSignals: staleSignals,
	}
}

// ValuesForScoring 获取五个最新数值（仅在新鲜度检查通过后使用）
func (c *FreshnessCache) ValuesForScoring(patientID string) (models.VitalValues, error) {
	e := c.entry(patientID, false)
	if e == nil {
		return models.VitalValues{}, ErrPatientNotFound
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	return models.VitalValues{
		HR:   e.readings[models.SignalHR].Value,
		SpO2: e.readings[models.SignalSpO2].Value,
		Temp: e.readings[models.SignalTemp].Value,
		RR:   e.readings[models.SignalRR].Value,
		Fall: e.readings[models.SignalFall].Value,
	}, nil
}

// Evict 删除患者缓存（管理操作，摄入路径不会隐式删除）
func (c *FreshnessCache) Evict(patientID string) {
	c.mu.Lock()
	delete(c.patients, patientID)
	c.mu.Unlock()

	c.logger.Info("Evicted patient from freshness cache",
		zap.String("patient_id", patientID),
	)
}

// Patients 返回缓存中的所有患者ID
func (c *FreshnessCache) Patients() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.patients))
	for id := range c.patients {
		ids = append(ids, id)
	}
	return ids
}
