package repository

import (
	"context"
	"errors"

	"github.com/Balaji-1206/CareSync-sub000/internal/models"
)

// ErrReadingNotFound 表示患者还没有任何持久化的评分记录
var ErrReadingNotFound = errors.New("vital reading not found")

// VitalReadingsRepository 评分结果仓库（ResultSink）
//
// 追加写入，记录写入后不可变。引擎写入后不回读结果做业务逻辑，
// 查询方法只供读取 API 使用。
type VitalReadingsRepository interface {
	// CreateReading 写入一条评分记录
	CreateReading(ctx context.Context, reading *models.VitalReading) error

	// GetLatestReading 获取患者最新一条评分记录
	GetLatestReading(ctx context.Context, patientID string) (*models.VitalReading, error)

	// ListReadings 按时间倒序返回患者的评分记录，最多 limit 条
	ListReadings(ctx context.Context, patientID string, limit int) ([]*models.VitalReading, error)
}
