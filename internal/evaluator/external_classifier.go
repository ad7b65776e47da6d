package evaluator

import (
	"context"
	"fmt"
	"time"

	"github.com/Balaji-1206/CareSync-sub000/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// 外部模型服务支持的模型名
const (
	ModelEWS     = "ews"
	ModelAnomaly = "anomaly"
)

// PredictRequest 外部模型服务请求
type PredictRequest struct {
	Model string  `json:"model"`
	HR    float64 `json:"hr"`
	SpO2  float64 `json:"spo2"`
	Temp  float64 `json:"temp"`
	RR    float64 `json:"rr"`
	Fall  float64 `json:"fall"`
}

// PredictResponse 外部模型服务响应
type PredictResponse struct {
	Success    bool   `json:"success"`
	Prediction string `json:"prediction"`
	Error      string `json:"error,omitempty"`
}

// ExternalClassifier 外部模型服务分类器
//
// 通过 HTTP 调用模型服务，超时有界：模型服务慢或不可用时调用方回退到规则分类器，
// 不能无限期阻塞患者的监护节奏
type ExternalClassifier struct {
	httpClient *resty.Client
	model      string
	logger     *zap.Logger
}

// NewExternalClassifier 创建外部分类器
// model 取值 ModelEWS 或 ModelAnomaly
func NewExternalClassifier(baseURL, model string, timeout time.Duration, retryCount int, logger *zap.Logger) *ExternalClassifier {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &ExternalClassifier{
		httpClient: client,
		model:      model,
		logger:     logger,
	}
}

var _ Classifier = (*ExternalClassifier)(nil)

// Classify 调用外部模型服务进行预测
func (c *ExternalClassifier) Classify(ctx context.Context, values models.VitalValues) (string, error) {
	request := PredictRequest{
		Model: c.model,
		HR:    values.HR,
		SpO2:  values.SpO2,
		Temp:  values.Temp,
		RR:    values.RR,
		Fall:  values.Fall,
	}

	var response PredictResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&response).
		Post("/predict")

	if err != nil {
		return "", fmt.Errorf("failed to call classifier service: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("classifier service returned status %d", resp.StatusCode())
	}
	if !response.Success {
		return "", fmt.Errorf("classifier service error: %s", response.Error)
	}
	if response.Prediction == "" {
		return "", fmt.Errorf("classifier service returned empty prediction")
	}

	c.logger.Debug("External classifier prediction",
		zap.String("model", c.model),
		zap.String("prediction", response.Prediction),
	)

	return response.Prediction, nil
}
