package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Balaji-1206/CareSync-sub000/internal/models"

	"go.uber.org/zap"
)

// Ingestor 摄入入口，由 service 层实现
type Ingestor interface {
	Ingest(ctx context.Context, req *models.IngestRequest) (models.PatientSnapshot, error)
}

// VitalsBroker MQTT 摄入通道
//
// 订阅生理数据主题，载荷格式与 HTTP 摄入完全一致，校验同样在边界完成。
// 格式错误的消息记录日志后丢弃，不中断订阅。
type VitalsBroker struct {
	ingestor Ingestor
	logger   *zap.Logger
}

// NewVitalsBroker 创建 MQTT 摄入处理器
func NewVitalsBroker(ingestor Ingestor, logger *zap.Logger) *VitalsBroker {
	return &VitalsBroker{
		ingestor: ingestor,
		logger:   logger,
	}
}

// HandleMessage 处理一条摄入消息
func (b *VitalsBroker) HandleMessage(topic string, payload []byte) error {
	var req models.IngestRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal vitals message: %w", err)
	}

	if _, err := b.ingestor.Ingest(context.Background(), &req); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			// 校验失败的消息丢弃即可，MQTT 没有同步应答通道
			b.logger.Warn("Dropped invalid vitals message",
				zap.String("topic", topic),
				zap.String("reason", verr.Message),
			)
			return nil
		}
		return fmt.Errorf("failed to ingest vitals message: %w", err)
	}

	b.logger.Debug("Vitals message ingested",
		zap.String("topic", topic),
		zap.String("patient_id", req.PatientID),
	)
	return nil
}
