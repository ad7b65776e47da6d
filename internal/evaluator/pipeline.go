package evaluator

import (
	"context"

	"github.com/Balaji-1206/CareSync-sub000/internal/metrics"
	"github.com/Balaji-1206/CareSync-sub000/internal/models"

	"go.uber.org/zap"
)

// ScoringPipeline 评分流水线
//
// 决策优先级（固定顺序）：
//   1. 临床安全规则（命中即短路，完全绕过分类器和趋势分析）
//   2. EWS 分类器
//   3. 异常分类器
//   4. 趋势分析
//
// EWS / 异常分类器各持有一个主分类器和一个规则回退分类器：
// 主分类器（可能是外部模型服务）失败时只对本次调用替换为回退结果
type ScoringPipeline struct {
	ews             Classifier
	ewsFallback     Classifier
	anomaly         Classifier
	anomalyFallback Classifier
	trend           *TrendAnalyzer
	metrics         *metrics.Metrics
	logger          *zap.Logger
}

// NewScoringPipeline 创建评分流水线
// ews / anomaly 为 nil 时直接使用对应的规则回退分类器
func NewScoringPipeline(
	ews Classifier,
	anomaly Classifier,
	trend *TrendAnalyzer,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ScoringPipeline {
	p := &ScoringPipeline{
		ews:             ews,
		ewsFallback:     NewRuleBasedEWSClassifier(),
		anomaly:         anomaly,
		anomalyFallback: NewRuleBasedAnomalyClassifier(),
		trend:           trend,
		metrics:         m,
		logger:          logger,
	}
	if p.ews == nil {
		p.ews = p.ewsFallback
	}
	if p.anomaly == nil {
		p.anomaly = p.anomalyFallback
	}
	return p
}

// classify 运行一个分类器，失败时回退到规则分类器（仅本次调用）
func (p *ScoringPipeline) classify(ctx context.Context, model string, primary, fallback Classifier, values models.VitalValues) string {
	result, err := primary.Classify(ctx, values)
	if err == nil {
		return result
	}

	p.logger.Warn("Classifier failed, using rule-based fallback",
		zap.String("model", model),
		zap.Error(err),
	)
	if p.metrics != nil {
		p.metrics.ClassifierFallbacksTotal.WithLabelValues(model).Inc()
	}

	// 规则分类器是纯函数，不会失败
	result, _ = fallback.Classify(ctx, values)
	return result
}

// Evaluate 评估当前读数向量，返回融合后的评估结果
func (p *ScoringPipeline) Evaluate(ctx context.Context, values models.VitalValues, entries []models.HistoryEntry) models.Assessment {
	// 优先级1：临床安全规则
	if override := EvaluateOverrides(values); override != nil {
		p.logger.Info("Clinical override applied, skipping classifiers",
			zap.String("reason", override.Reason),
		)
		if p.metrics != nil {
			p.metrics.OverridesTotal.Inc()
		}
		return models.Assessment{
			EWSResult:     models.EWSCritical,
			AnomalyResult: models.AnomalyAbnormal,
			Trend: models.TrendResult{
				Status: models.TrendStable,
				Reason: "Not evaluated due to clinical override",
				Signal: "None",
			},
			FinalStatus:     models.FinalCritical,
			OverrideApplied: true,
			OverrideReason:  override.Reason,
		}
	}

	// 优先级2-4：分类器和趋势分析
	ewsResult := p.classify(ctx, ModelEWS, p.ews, p.ewsFallback, values)
	anomalyResult := p.classify(ctx, ModelAnomaly, p.anomaly, p.anomalyFallback, values)
	trendResult := p.trend.Analyze(values, entries)

	// 固定优先级融合
	// Warning 是分类器中间值，对外映射为 Monitor
	var finalStatus string
	switch {
	case ewsResult == models.EWSCritical:
		finalStatus = models.FinalCritical
	case ewsResult == models.EWSWarning:
		finalStatus = models.FinalMonitor
	case anomalyResult == models.AnomalyAbnormal:
		finalStatus = models.FinalHighRisk
	case trendResult.Status == models.TrendDeclining:
		finalStatus = models.FinalMonitor
	default:
		finalStatus = models.FinalStable
	}

	return models.Assessment{
		EWSResult:     ewsResult,
		AnomalyResult: anomalyResult,
		Trend:         trendResult,
		FinalStatus:   finalStatus,
	}
}
