package models

import "time"

// IngestReading 摄入载荷中的单个信号
// Value 用指针区分缺失：缺失或非数值的读数在边界处被拒绝
type IngestReading struct {
	Value *float64   `json:"value"`
	Time  *time.Time `json:"time,omitempty"`
}

// IngestRequest 生理数据摄入载荷
//
// 五种标准信号全部必填；time 缺省时以接收时间代替
type IngestRequest struct {
	PatientID string                   `json:"patientId"`
	Vitals    map[string]IngestReading `json:"vitals"`
}
