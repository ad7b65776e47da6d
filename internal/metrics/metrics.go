// Package metrics 提供监护引擎的 Prometheus 指标。
//
// 通过 /metrics 端点暴露，指标包括：
//   - caresync_engine_ticks_total: 调度器评估 tick 总数
//   - caresync_engine_stale_ticks_total: 因数据过期跳过评分的 tick 总数
//   - caresync_engine_overrides_total: 临床安全规则命中总数
//   - caresync_engine_classifier_fallbacks_total: 外部分类器回退次数（按模型）
//   - caresync_engine_sink_write_failures_total: 结果持久化失败次数
//   - caresync_engine_active_schedulers: 当前活跃的患者调度任务数
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 监护引擎的全部 Prometheus 指标
type Metrics struct {
	TicksTotal               prometheus.Counter
	StaleTicksTotal          prometheus.Counter
	OverridesTotal           prometheus.Counter
	ClassifierFallbacksTotal *prometheus.CounterVec
	SinkWriteFailuresTotal   prometheus.Counter
	ActiveSchedulers         prometheus.Gauge
}

// New 创建并注册所有指标
// 单元测试传入独立的 prometheus.NewRegistry() 避免重复注册
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TicksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "caresync_engine_ticks_total",
			Help: "Total number of scheduler evaluation ticks",
		}),
		StaleTicksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "caresync_engine_stale_ticks_total",
			Help: "Total number of ticks skipped because of stale vitals",
		}),
		OverridesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "caresync_engine_overrides_total",
			Help: "Total number of clinical override hits",
		}),
		ClassifierFallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caresync_engine_classifier_fallbacks_total",
			Help: "Total number of falls back to the rule-based classifier",
		}, []string{"model"}),
		SinkWriteFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "caresync_engine_sink_write_failures_total",
			Help: "Total number of failed result sink writes",
		}),
		ActiveSchedulers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "caresync_engine_active_schedulers",
			Help: "Number of patients with a running evaluation scheduler",
		}),
	}
}
