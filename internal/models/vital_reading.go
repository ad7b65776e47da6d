package models

import "time"

// EWS 分类器输出
const (
	EWSNormal   = "Normal"
	EWSWarning  = "Warning"
	EWSCritical = "Critical"
)

// 异常分类器输出
const (
	AnomalyNormal   = "Normal"
	AnomalyAbnormal = "Abnormal"
)

// 趋势分析输出
const (
	TrendStable    = "Stable"
	TrendDeclining = "Declining"
	TrendImproving = "Improving"
)

// 最终状态（持久化的公开枚举，Warning 只是分类器中间值，不会出现在这里）
const (
	FinalStable   = "Stable"
	FinalMonitor  = "Monitor"
	FinalHighRisk = "High Risk"
	FinalCritical = "Critical"
)

// 处理状态
const (
	ProcessingProcessed = "Processed"
	ProcessingStale     = "Stale"
)

// TrendResult 趋势分析结果
type TrendResult struct {
	Status string `json:"status"` // Stable/Declining/Improving
	Reason string `json:"reason"`
	Signal string `json:"signal"` // 触发判定的信号，无则为 "None"
}

// Assessment 单次评分流水线的输出（尚未持久化）
type Assessment struct {
	EWSResult       string      `json:"ews"`
	AnomalyResult   string      `json:"anomaly"`
	Trend           TrendResult `json:"trend"`
	FinalStatus     string      `json:"final_status"`
	OverrideApplied bool        `json:"override_applied"`
	OverrideReason  string      `json:"override_reason,omitempty"`
}

// VitalReading 持久化的评分记录（追加写入，写入后不可变）
type VitalReading struct {
	ID               string       `json:"id"`
	PatientID        string       `json:"patient_id"`
	Vitals           VitalValues  `json:"vitals"`
	EWSResult        string       `json:"ews"`
	AnomalyResult    string       `json:"anomaly"`
	TrendResult      string       `json:"trend"`
	TrendReason      string       `json:"trend_reason,omitempty"`
	TrendSignal      string       `json:"trend_signal,omitempty"`
	FinalStatus      string       `json:"final_status"`
	ProcessingStatus string       `json:"processing_status"`
	OverrideApplied  bool         `json:"override_applied"`
	OverrideReason   string       `json:"override_reason,omitempty"`
	StaleSignals     []SignalKind `json:"stale_signals,omitempty"`
	RecordedAt       time.Time    `json:"recorded_at"`
}
