// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// appwrite.MetricsRecorderとblog.MutationRecorderを実装する。
type Collector struct {
	platformRequests *prometheus.CounterVec
	platformLatency  *prometheus.HistogramVec
	postMutations    *prometheus.CounterVec
	cachedPosts      prometheus.Gauge
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		platformRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogman_platform_requests_total",
			Help: "リモートプラットフォームAPI呼び出しの合計数",
		}, []string{"service", "operation", "status"}),
		platformLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blogman_platform_latency_seconds",
			Help:    "リモートプラットフォームAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"service"}),
		postMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogman_post_mutations_total",
			Help: "記事の作成・更新・削除の合計数",
		}, []string{"operation"}),
		cachedPosts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "blogman_cached_posts",
			Help: "記事ストアが保持している記事数",
		}),
	}

	reg.MustRegister(
		c.platformRequests,
		c.platformLatency,
		c.postMutations,
		c.cachedPosts,
	)

	return c
}

// RecordPlatformRequest はプラットフォームAPI呼び出しの結果を記録する。
func (c *Collector) RecordPlatformRequest(service, operation, status string) {
	c.platformRequests.WithLabelValues(service, operation, status).Inc()
}

// RecordPlatformLatency はプラットフォームAPI呼び出しのレイテンシを記録する。
func (c *Collector) RecordPlatformLatency(service string, seconds float64) {
	c.platformLatency.WithLabelValues(service).Observe(seconds)
}

// RecordPostMutation は記事の作成・更新・削除を記録する。
func (c *Collector) RecordPostMutation(op string) {
	c.postMutations.WithLabelValues(op).Inc()
}

// SetCachedPosts は記事ストアの保持件数を記録する。
func (c *Collector) SetCachedPosts(count int) {
	c.cachedPosts.Set(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
