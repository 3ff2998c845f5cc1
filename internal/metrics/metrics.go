// Package metrics Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pagebuilder"

// 结果标签
const (
	ResultOK       = "ok"
	ResultConflict = "conflict"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics 服务指标
type Metrics struct {
	PageSaves   *prometheus.CounterVec // result
	BlockOps    *prometheus.CounterVec // op, result
	Uploads     *prometheus.CounterVec // result
	UploadBytes prometheus.Histogram
}

// New 创建并注册指标，reg 为 nil 时使用默认注册器
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		PageSaves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_saves_total",
			Help:      "Explicit page saves by result",
		}, []string{"result"}),
		BlockOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "block_ops_total",
			Help:      "Block operations received over HTTP by op and result",
		}, []string{"op", "result"}),
		Uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logo_uploads_total",
			Help:      "Logo uploads by result",
		}, []string{"result"}),
		UploadBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "logo_upload_bytes",
			Help:      "Size of accepted logo uploads",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8), // 1KB ~ 16MB
		}),
	}
}

// Nop 不注册到任何导出器（测试用）
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}
