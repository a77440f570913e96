package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	Polls             prometheus.Counter
	PollFailures      prometheus.Counter
	PushApplied       prometheus.Counter
	PushIgnored       prometheus.Counter
	PushRefreshes     prometheus.Counter
	PushDisconnects   prometheus.Counter
	Submissions       prometheus.Counter
	SubmitFailures    prometheus.Counter
	AdminActions      *prometheus.CounterVec
	Searches          prometheus.Counter
	HistorySize       prometheus.Gauge
	RefreshLatencySec prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	polls := prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_poll_total"})
	pollFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_poll_failures_total"})
	pushApplied := prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_push_applied_total"})
	pushIgnored := prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_push_ignored_total"})
	pushRefreshes := prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_push_refresh_total"})
	pushDisconnects := prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_push_disconnects_total"})
	submissions := prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_submitted_total"})
	submitFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_submit_failures_total"})
	adminActions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_admin_actions_total",
	}, []string{"action", "result"})
	searches := prometheus.NewCounter(prometheus.CounterOpts{Name: "products_search_total"})
	historySize := prometheus.NewGauge(prometheus.GaugeOpts{Name: "orders_history_size"})
	refreshLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orders_refresh_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(polls, pollFailures, pushApplied, pushIgnored, pushRefreshes, pushDisconnects,
		submissions, submitFailures, adminActions, searches, historySize, refreshLatency)
	return &Registry{
		reg:               r,
		Polls:             polls,
		PollFailures:      pollFailures,
		PushApplied:       pushApplied,
		PushIgnored:       pushIgnored,
		PushRefreshes:     pushRefreshes,
		PushDisconnects:   pushDisconnects,
		Submissions:       submissions,
		SubmitFailures:    submitFailures,
		AdminActions:      adminActions,
		Searches:          searches,
		HistorySize:       historySize,
		RefreshLatencySec: refreshLatency,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
