package evaluator

import (
	"context"

	"github.com/Balaji-1206/CareSync-sub000/internal/models"
)

// Classifier 风险分类器（EWS 或异常检测）
//
// 实现可以是外部模型服务（有界超时调用）或纯规则函数。
// 流水线对外部实现的失败做单次回退，不在这里处理。
type Classifier interface {
	Classify(ctx context.Context, values models.VitalValues) (string, error)
}

// RuleBasedEWSClassifier 规则版 EWS 分类器（外部模型不可用时的回退）
//
// 阈值比临床安全规则更宽：安全规则已经拦截的情况这里不再重复判定
type RuleBasedEWSClassifier struct{}

func NewRuleBasedEWSClassifier() *RuleBasedEWSClassifier {
	return &RuleBasedEWSClassifier{}
}

func (c *RuleBasedEWSClassifier) Classify(_ context.Context, values models.VitalValues) (string, error) {
	if values.Fall == 1 {
		return models.EWSCritical, nil
	}
	if values.SpO2 < 90 {
		return models.EWSCritical, nil
	}
	if values.HR < 40 || values.HR > 120 {
		return models.EWSWarning, nil
	}
	if values.Temp < 36 || values.Temp > 39 {
		return models.EWSWarning, nil
	}
	if values.RR < 12 || values.RR > 25 {
		return models.EWSWarning, nil
	}
	return models.EWSNormal, nil
}

// RuleBasedAnomalyClassifier 规则版异常分类器（外部模型不可用时的回退）
type RuleBasedAnomalyClassifier struct{}

func NewRuleBasedAnomalyClassifier() *RuleBasedAnomalyClassifier {
	return &RuleBasedAnomalyClassifier{}
}

func (c *RuleBasedAnomalyClassifier) Classify(_ context.Context, values models.VitalValues) (string, error) {
	if values.Fall == 1 {
		return models.AnomalyAbnormal, nil
	}
	if values.SpO2 < 85 {
		return models.AnomalyAbnormal, nil
	}
	if values.HR < 35 || values.HR > 150 {
		return models.AnomalyAbnormal, nil
	}
	if values.Temp < 35 || values.Temp > 40 {
		return models.AnomalyAbnormal, nil
	}
	if values.RR < 10 || values.RR > 30 {
		return models.AnomalyAbnormal, nil
	}
	return models.AnomalyNormal, nil
}
