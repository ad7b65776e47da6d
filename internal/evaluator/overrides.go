package evaluator

import (
	"fmt"

	"github.com/Balaji-1206/CareSync-sub000/internal/models"
)

// Override 临床安全规则的命中结果
type Override struct {
	Severity string // 目前只有 Critical
	Reason   string
}

// EvaluateOverrides 评估临床安全规则
//
// 危及患者安全的情况不能依赖统计模型的正确性或可用性，
// 必须在分类器之前用确定性规则直接判定。
// 规则按固定优先级顺序评估，第一条命中即返回；全部未命中返回 nil。
// 纯函数：不依赖历史状态，给定当前读数向量结果可复现。
func EvaluateOverrides(values models.VitalValues) *Override {
	if values.Fall == 1 {
		return &Override{
			Severity: models.EWSCritical,
			Reason:   "Fall detected - immediate intervention required",
		}
	}
	if values.SpO2 < 92 {
		return &Override{
			Severity: models.EWSCritical,
			Reason:   fmt.Sprintf("Severe hypoxemia (SpO2: %g%%) - oxygen therapy needed", values.SpO2),
		}
	}
	if values.RR < 10 {
		return &Override{
			Severity: models.EWSCritical,
			Reason:   fmt.Sprintf("Bradypnea (RR: %g) - respiratory failure risk", values.RR),
		}
	}
	if values.RR > 25 {
		return &Override{
			Severity: models.EWSCritical,
			Reason:   fmt.Sprintf("Tachypnea (RR: %g) - respiratory distress", values.RR),
		}
	}
	if values.HR < 50 {
		return &Override{
			Severity: models.EWSCritical,
			Reason:   fmt.Sprintf("Severe bradycardia (HR: %g) - cardiac emergency", values.HR),
		}
	}
	if values.HR > 130 {
		return &Override{
			Severity: models.EWSCritical,
			Reason:   fmt.Sprintf("Severe tachycardia (HR: %g) - cardiac emergency", values.HR),
		}
	}
	if values.Temp >= 39.0 {
		return &Override{
			Severity: models.EWSCritical,
			Reason:   fmt.Sprintf("High fever (Temp: %g°C) - severe infection risk", values.Temp),
		}
	}
	return nil
}
