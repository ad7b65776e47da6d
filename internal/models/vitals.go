package models

import "time"

// SignalKind 生理信号类型
type SignalKind string

const (
	SignalHR   SignalKind = "HR"   // 心率
	SignalSpO2 SignalKind = "SpO2" // 血氧饱和度
	SignalTemp SignalKind = "Temp" // 体温
	SignalRR   SignalKind = "RR"   // 呼吸率
	SignalFall SignalKind = "Fall" // 跌倒指示（0/1）
)

// CanonicalSignals 五种标准信号（固定顺序，用于校验和缺失判断）
var CanonicalSignals = []SignalKind{SignalHR, SignalSpO2, SignalTemp, SignalRR, SignalFall}

// IsCanonicalSignal 判断信号类型是否属于五种标准信号
func IsCanonicalSignal(kind SignalKind) bool {
	for _, k := range CanonicalSignals {
		if k == kind {
			return true
		}
	}
	return false
}

// SignalReading 单次信号观测值
type SignalReading struct {
	Value      float64   `json:"value"`
	ObservedAt time.Time `json:"time"`
}

// PatientSnapshot 患者最新读数快照（每种信号只保留最新一条）
type PatientSnapshot map[SignalKind]SignalReading

// VitalValues 用于评分的五个数值（从快照提取）
type VitalValues struct {
	HR   float64 `json:"hr"`
	SpO2 float64 `json:"spo2"`
	Temp float64 `json:"temp"`
	RR   float64 `json:"rr"`
	Fall float64 `json:"fall"`
}

// StalenessVerdict 新鲜度判定结果（每次检查实时计算，不缓存）
type StalenessVerdict struct {
	IsStale      bool         `json:"is_stale"`
	StaleSignals []SignalKind `json:"stale_signals"`
}

// HistoryEntry 历史窗口中的一条记录（每个调度周期追加一次，而非每次摄入）
type HistoryEntry struct {
	Values     VitalValues `json:"values"`
	CapturedAt time.Time   `json:"captured_at"`
}
