// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 認証イベントの種別と結果のラベル値。
const (
	AuthEventRegister    = "register"
	AuthEventLogin       = "login"
	AuthEventGoogleLogin = "google_login"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// MetricsCollector はメトリクス収集のインターフェース。
// HTTPミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordAuthEvent(event, outcome string)
	RecordTaskOperation(operation string)
	RecordMailDelivery(delivered bool)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
	authEvents     *prometheus.CounterVec
	taskOperations *prometheus.CounterVec
	mailDeliveries *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskman_http_requests_total",
			Help: "ルート・メソッド・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskman_http_request_duration_seconds",
			Help:    "ルート別のHTTPリクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskman_auth_events_total",
			Help: "認証イベント（登録・ログイン）の結果別件数",
		}, []string{"event", "outcome"}),
		taskOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskman_task_operations_total",
			Help: "成功したタスク操作の件数",
		}, []string{"operation"}),
		mailDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskman_mail_deliveries_total",
			Help: "タスク共有メールの送信結果別件数",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.authEvents,
		c.taskOperations,
		c.mailDeliveries,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの件数と処理時間を記録する。
// routeにはchiのルートパターンを渡し、IDを含む実パスは渡さないこと。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordAuthEvent は認証イベントを記録する。
func (c *Collector) RecordAuthEvent(event, outcome string) {
	c.authEvents.WithLabelValues(event, outcome).Inc()
}

// RecordTaskOperation はタスク操作（create, update, delete）を記録する。
func (c *Collector) RecordTaskOperation(operation string) {
	c.taskOperations.WithLabelValues(operation).Inc()
}

// RecordMailDelivery はメール送信結果を記録する。
func (c *Collector) RecordMailDelivery(delivered bool) {
	result := "failed"
	if delivered {
		result = "delivered"
	}
	c.mailDeliveries.WithLabelValues(result).Inc()
}

// Nop は何も記録しないMetricsCollector。メトリクス不要なテストやツールで使う。
type Nop struct{}

func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
func (Nop) RecordAuthEvent(string, string)                        {}
func (Nop) RecordTaskOperation(string)                            {}
func (Nop) RecordMailDelivery(bool)                               {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NewRegistry はGoランタイムとプロセスのメトリクスを登録済みのレジストリを返す。
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
