package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "expense"

var (
	SheetsCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "sheets_calls_total", Help: "Google Sheets API calls by operation and outcome."},
		[]string{"op", "outcome"},
	)
	SheetsLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "sheets_call_seconds", Help: "Google Sheets API call latency.", Buckets: prometheus.DefBuckets},
		[]string{"op"},
	)
	Provisioning = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "provisioning_total", Help: "Private collection provisioning attempts by outcome."},
		[]string{"outcome"},
	)
	HandleCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "handle_cache_total", Help: "Resolver handle cache lookups by result."},
		[]string{"result"},
	)
	Repairs = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "collection_repairs_total", Help: "Collection repairs by kind (header, stale)."},
		[]string{"kind"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(SheetsCalls)
	reg.MustRegister(SheetsLatency)
	reg.MustRegister(Provisioning)
	reg.MustRegister(HandleCache)
	reg.MustRegister(Repairs)
}

// ObserveSheetsCall records one remote call.
func ObserveSheetsCall(op string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	SheetsCalls.WithLabelValues(op, outcome).Inc()
	SheetsLatency.WithLabelValues(op).Observe(time.Since(started).Seconds())
}
