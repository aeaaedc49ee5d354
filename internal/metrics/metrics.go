package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersEnqueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_enqueued_total", Help: "Orders accepted into the execution queue"},
		[]string{"venue"},
	)
	OrdersExecuted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_executed_total", Help: "Orders dispatched successfully"},
		[]string{"venue"},
	)
	OrdersFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_failed_total", Help: "Dispatches that ended in failure"},
		[]string{"venue"},
	)
	OrdersDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_dropped_total", Help: "Orders evicted before dispatch"},
		[]string{"venue"},
	)
	OrdersInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "orders_in_flight", Help: "Dispatches currently outstanding"},
		[]string{"venue"},
	)
	ExecutionLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "execution_latency_seconds",
			Help:    "Round-trip time of executor calls",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
	)
	FillsConfirmed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fills_confirmed_total", Help: "Out-of-band fill confirmations received"},
		[]string{"venue", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		OrdersEnqueued, OrdersExecuted, OrdersFailed, OrdersDropped,
		OrdersInFlight, ExecutionLatency, FillsConfirmed,
	)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
