// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層やワーカーから利用する。
type MetricsCollector interface {
	RecordTaskCreated()
	RecordTaskToggled()
	RecordTaskDeleted(count int)
	RecordBatchDeleteFailure()
	RecordLoginSuccess()
	RecordLoginFailure(reason string)
	RecordRequestLatency(duration time.Duration)
	RecordSessionsCleaned(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	taskCreated     prometheus.Counter
	taskToggled     prometheus.Counter
	taskDeleted     prometheus.Counter
	batchDeleteFail prometheus.Counter
	loginSuccess    prometheus.Counter
	loginFail       *prometheus.CounterVec
	requestLatency  prometheus.Histogram
	sessionsCleaned prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		taskCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checkmate_tasks_created_total",
			Help: "作成されたタスクの合計数",
		}),
		taskToggled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checkmate_tasks_toggled_total",
			Help: "完了フラグが反転されたタスクの合計数",
		}),
		taskDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checkmate_tasks_deleted_total",
			Help: "削除されたタスクの合計数",
		}),
		batchDeleteFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checkmate_batch_delete_fail_total",
			Help: "一括削除失敗の合計数",
		}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checkmate_login_success_total",
			Help: "ログイン成功の合計数",
		}),
		loginFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkmate_login_fail_total",
			Help: "理由別のログイン失敗数",
		}, []string{"reason"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "checkmate_request_latency_seconds",
			Help:    "リクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checkmate_sessions_cleaned_total",
			Help: "クリーンアップで削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.taskCreated,
		c.taskToggled,
		c.taskDeleted,
		c.batchDeleteFail,
		c.loginSuccess,
		c.loginFail,
		c.requestLatency,
		c.sessionsCleaned,
	)

	return c
}

// RecordTaskCreated はタスク作成を記録する。
func (c *Collector) RecordTaskCreated() {
	c.taskCreated.Inc()
}

// RecordTaskToggled は完了フラグの反転を記録する。
func (c *Collector) RecordTaskToggled() {
	c.taskToggled.Inc()
}

// RecordTaskDeleted はタスク削除を記録する。
func (c *Collector) RecordTaskDeleted(count int) {
	c.taskDeleted.Add(float64(count))
}

// RecordBatchDeleteFailure は一括削除の失敗を記録する。
func (c *Collector) RecordBatchDeleteFailure() {
	c.batchDeleteFail.Inc()
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure は理由別のログイン失敗を記録する。
func (c *Collector) RecordLoginFailure(reason string) {
	c.loginFail.WithLabelValues(reason).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordSessionsCleaned はクリーンアップで削除されたセッション数を記録する。
func (c *Collector) RecordSessionsCleaned(count int64) {
	c.sessionsCleaned.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
