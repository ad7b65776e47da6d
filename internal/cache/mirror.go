package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Balaji-1206/CareSync-sub000/internal/config"
	"github.com/Balaji-1206/CareSync-sub000/internal/models"

	"go.uber.org/zap"
)

// MirrorManager Redis 镜像缓存管理器
//
// 将最新快照和最新评估结果镜像到 Redis，供仪表盘等外部服务读取。
// 镜像是尽力而为的：写入失败只记录日志，内存缓存始终是权威数据源。
type MirrorManager struct {
	config *config.Config
	kv     KVStore
	logger *zap.Logger
}

// NewMirrorManager 创建镜像缓存管理器
func NewMirrorManager(cfg *config.Config, kv KVStore, logger *zap.Logger) *MirrorManager {
	return &MirrorManager{
		config: cfg,
		kv:     kv,
		logger: logger,
	}
}

func (m *MirrorManager) realtimeKey(patientID string) string {
	return m.config.Cache.KeyPrefix + patientID + m.config.Cache.RealtimeSuffix
}

func (m *MirrorManager) assessmentKey(patientID string) string {
	return m.config.Cache.KeyPrefix + patientID + m.config.Cache.AssessmentSuffix
}

func (m *MirrorManager) ttl() time.Duration {
	return time.Duration(m.config.Cache.TTL) * time.Second
}

// UpdateRealtime 镜像患者最新快照
func (m *MirrorManager) UpdateRealtime(ctx context.Context, patientID string, snapshot models.PatientSnapshot) error {
	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := m.realtimeKey(patientID)
	if err := m.kv.Set(ctx, key, string(jsonData), m.ttl()); err != nil {
		return fmt.Errorf("failed to set realtime mirror: %w", err)
	}

	m.logger.Debug("Updated realtime mirror",
		zap.String("patient_id", patientID),
		zap.String("key", key),
	)
	return nil
}

// UpdateAssessment 镜像患者最新评估结果
func (m *MirrorManager) UpdateAssessment(ctx context.Context, patientID string, reading *models.VitalReading) error {
	jsonData, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal assessment: %w", err)
	}

	key := m.assessmentKey(patientID)
	if err := m.kv.Set(ctx, key, string(jsonData), m.ttl()); err != nil {
		return fmt.Errorf("failed to set assessment mirror: %w", err)
	}

	m.logger.Debug("Updated assessment mirror",
		zap.String("patient_id", patientID),
		zap.String("key", key),
	)
	return nil
}

// GetAssessment 读取镜像中的最新评估结果
func (m *MirrorManager) GetAssessment(ctx context.Context, patientID string) (*models.VitalReading, error) {
	raw, err := m.kv.Get(ctx, m.assessmentKey(patientID))
	if err != nil {
		return nil, err
	}

	var reading models.VitalReading
	if err := json.Unmarshal([]byte(raw), &reading); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assessment: %w", err)
	}
	return &reading, nil
}
