package diag

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 指标（Prometheus，进程内独立 Registry）：
// - bytecorpus_op_total{comp,stage,result}
// - bytecorpus_error_total{comp,code}
// - bytecorpus_op_duration_ms{comp,stage}
// - bytecorpus_items_total{kind}
var (
	registry = prometheus.NewRegistry()

	opTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bytecorpus",
		Name:      "op_total",
		Help:      "Component operations by stage and result.",
	}, []string{"comp", "stage", "result"})

	errorTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bytecorpus",
		Name:      "error_total",
		Help:      "Errors by component and classification code.",
	}, []string{"comp", "code"})

	opDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bytecorpus",
		Name:      "op_duration_ms",
		Help:      "Stage duration in milliseconds.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"comp", "stage"})

	itemsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bytecorpus",
		Name:      "items_total",
		Help:      "Items produced by kind (files, segments, records, windows, tokens).",
	}, []string{"kind"})
)

func init() {
	registry.MustRegister(opTotal, errorTotal, opDuration, itemsTotal)
}

// Registry 返回本进程的指标 Gatherer。
func Registry() prometheus.Gatherer { return registry }

// IncOp 累加操作计数（result=success|error）。
func IncOp(comp, stage, result string) {
	opTotal.WithLabelValues(comp, stage, result).Inc()
}

// IncError 按分类累加错误计数。
func IncError(comp, code string) {
	errorTotal.WithLabelValues(comp, code).Inc()
}

// ObserveDuration 记录阶段耗时（毫秒）。
func ObserveDuration(comp, stage string, durMS int64) {
	opDuration.WithLabelValues(comp, stage).Observe(float64(durMS))
}

// AddItems 累加产出条目数；n<=0 忽略。
func AddItems(kind string, n int) {
	if n <= 0 {
		return
	}
	itemsTotal.WithLabelValues(kind).Add(float64(n))
}

// RecordError 记录错误计数并返回分类（便于调用方记日志）。
func RecordError(comp string, err error) Code {
	code := Classify(err)
	IncOp(comp, "error", "error")
	IncError(comp, string(code))
	return code
}

// WriteMetrics 以 node-exporter textfile 格式原子写出当前指标。
func WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, registry)
}
