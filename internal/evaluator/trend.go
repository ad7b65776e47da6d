package evaluator

import (
	"fmt"
	"math"

	"github.com/Balaji-1206/CareSync-sub000/internal/models"
)

const defaultTrendWindow = 10

// TrendAnalyzer 趋势分析器
//
// 取最近 window 条历史记录，按下标中点分为前后两半，比较各信号的半窗均值。
// 规则按固定优先级评估，第一条命中即返回：
//   1. SpO2 下降（下降永远是坏消息）
//   2. 体温上升（发热加重）
//   3. 呼吸率大幅变化（不稳定）
//   4. 心率（结合当前值判断方向：心动过速加重 / 心动过缓加重）
//   5. SpO2 / 体温从异常基线改善
//
// 心率必须结合上下文：从心动过速恢复时心率下降是好事，
// 已经心动过缓时继续下降才是恶化，对称阈值会把恢复误判为恶化。
type TrendAnalyzer struct {
	window int
}

// NewTrendAnalyzer 创建趋势分析器，window <= 0 时使用默认值 10
func NewTrendAnalyzer(window int) *TrendAnalyzer {
	if window <= 0 {
		window = defaultTrendWindow
	}
	return &TrendAnalyzer{window: window}
}

// halfMean 计算一组历史记录中某个信号的算术均值，忽略 NaN；无有效值时 ok 为 false
func halfMean(entries []models.HistoryEntry, extract func(models.VitalValues) float64) (mean float64, ok bool) {
	var sum float64
	var n int
	for _, e := range entries {
		v := extract(e.Values)
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Analyze 分析趋势
//
// 历史记录不足 3 条时无法判定趋势，返回 Stable
func (t *TrendAnalyzer) Analyze(values models.VitalValues, entries []models.HistoryEntry) models.TrendResult {
	if len(entries) < 3 {
		return models.TrendResult{
			Status: models.TrendStable,
			Reason: "Insufficient historical data for trend analysis",
			Signal: "None",
		}
	}

	recent := entries
	if len(recent) > t.window {
		recent = recent[len(recent)-t.window:]
	}

	mid := len(recent) / 2
	firstHalf := recent[:mid]
	secondHalf := recent[mid:]

	hrFirst, hrFirstOK := halfMean(firstHalf, func(v models.VitalValues) float64 { return v.HR })
	hrSecond, hrSecondOK := halfMean(secondHalf, func(v models.VitalValues) float64 { return v.HR })
	spo2First, spo2FirstOK := halfMean(firstHalf, func(v models.VitalValues) float64 { return v.SpO2 })
	spo2Second, spo2SecondOK := halfMean(secondHalf, func(v models.VitalValues) float64 { return v.SpO2 })
	tempFirst, tempFirstOK := halfMean(firstHalf, func(v models.VitalValues) float64 { return v.Temp })
	tempSecond, tempSecondOK := halfMean(secondHalf, func(v models.VitalValues) float64 { return v.Temp })
	rrFirst, rrFirstOK := halfMean(firstHalf, func(v models.VitalValues) float64 { return v.RR })
	rrSecond, rrSecondOK := halfMean(secondHalf, func(v models.VitalValues) float64 { return v.RR })

	// 优先级1：SpO2 下降
	if spo2FirstOK && spo2SecondOK {
		delta := spo2Second - spo2First
		if delta <= -3 {
			return models.TrendResult{
				Status: models.TrendDeclining,
				Reason: fmt.Sprintf("SpO2 declining by %.1f%% (%.1f%% → %.1f%%)", math.Abs(delta), spo2First, spo2Second),
				Signal: "SpO2",
			}
		}
	}

	// 优先级2：体温上升
	if tempFirstOK && tempSecondOK {
		delta := tempSecond - tempFirst
		if delta >= 1.5 {
			return models.TrendResult{
				Status: models.TrendDeclining,
				Reason: fmt.Sprintf("Temperature rising by %.1f°C (%.1f°C → %.1f°C)", delta, tempFirst, tempSecond),
				Signal: "Temperature",
			}
		}
	}

	// 优先级3：呼吸率大幅变化
	if rrFirstOK && rrSecondOK {
		delta := rrSecond - rrFirst
		if math.Abs(delta) > 5 {
			direction := "increasing"
			if delta < 0 {
				direction = "decreasing"
			}
			return models.TrendResult{
				Status: models.TrendDeclining,
				Reason: fmt.Sprintf("Respiratory rate %s by %.1f bpm (%.1f → %.1f bpm)", direction, math.Abs(delta), rrFirst, rrSecond),
				Signal: "RR",
			}
		}
	}

	// 优先级4：心率（结合当前值）
	if hrFirstOK && hrSecondOK {
		delta := hrSecond - hrFirst
		currentHR := values.HR
		if currentHR == 0 {
			currentHR = hrSecond
		}

		if currentHR > 110 && delta >= 10 {
			return models.TrendResult{
				Status: models.TrendDeclining,
				Reason: fmt.Sprintf("Tachycardia worsening - HR increasing by %.1f bpm (%.1f → %.1f bpm)", delta, hrFirst, hrSecond),
				Signal: "HR",
			}
		}
		if currentHR < 55 && delta <= -5 {
			return models.TrendResult{
				Status: models.TrendDeclining,
				Reason: fmt.Sprintf("Bradycardia worsening - HR decreasing by %.1f bpm (%.1f → %.1f bpm)", math.Abs(delta), hrFirst, hrSecond),
				Signal: "HR",
			}
		}
		// 其余心率变化不能单独定性，例如 120→110 是心动过速缓解
	}

	// 优先级5：从异常基线改善
	if spo2FirstOK && spo2SecondOK {
		delta := spo2Second - spo2First
		if spo2First < 95 && delta >= 2 {
			return models.TrendResult{
				Status: models.TrendImproving,
				Reason: fmt.Sprintf("SpO2 improving by %.1f%% from low baseline (%.1f%% → %.1f%%)", delta, spo2First, spo2Second),
				Signal: "SpO2",
			}
		}
	}
	if tempFirstOK && tempSecondOK {
		delta := tempSecond - tempFirst
		if tempFirst > 38 && delta <= -0.5 {
			return models.TrendResult{
				Status: models.TrendImproving,
				Reason: fmt.Sprintf("Fever resolving - Temperature dropping by %.1f°C (%.1f°C → %.1f°C)", math.Abs(delta), tempFirst, tempSecond),
				Signal: "Temperature",
			}
		}
	}

	return models.TrendResult{
		Status: models.TrendStable,
		Reason: "No significant trends detected in vital signs",
		Signal: "None",
	}
}
