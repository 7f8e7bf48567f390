package observability

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type httpMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	httpMetricsOnce sync.Once
	httpRegistry    *httpMetrics

	mintMetricsOnce sync.Once
	mintRegistry    *MintMetrics
)

// HTTP returns the lazily-initialised metrics registry used to record API
// activity.
func HTTP() *httpMetrics {
	httpMetricsOnce.Do(func() {
		httpRegistry = &httpMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "skb",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total API requests segmented by route and outcome.",
			}, []string{"route", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "skb",
				Subsystem: "http",
				Name:      "errors_total",
				Help:      "Total API errors segmented by route and status code.",
			}, []string{"route", "method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "skb",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for API handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "skb",
				Subsystem: "http",
				Name:      "throttles_total",
				Help:      "Count of API requests rejected due to throttling policies.",
			}, []string{"route", "reason"}),
		}
		prometheus.MustRegister(
			httpRegistry.requests,
			httpRegistry.errors,
			httpRegistry.latency,
			httpRegistry.throttles,
		)
	})
	return httpRegistry
}

// Observe records the outcome of a request. The status code should be the
// HTTP status that was ultimately written to the response writer.
func (m *httpMetrics) Observe(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
	}
	m.requests.WithLabelValues(route, method, outcome).Inc()
	if status >= 400 {
		m.errors.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	}
	m.latency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter for the supplied route and
// reason. Reasons should be stable strings such as "rate_limit".
func (m *httpMetrics) RecordThrottle(route, reason string) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(route, reason).Inc()
}

// MintMetrics tracks sale activity and treasury movements.
type MintMetrics struct {
	purchases   prometheus.Counter
	units       prometheus.Counter
	rejections  *prometheus.CounterVec
	treasury    prometheus.Gauge
	issued      prometheus.Gauge
	withdrawals *prometheus.CounterVec
}

// Mint returns the singleton metrics registry for the mint ledger.
func Mint() *MintMetrics {
	mintMetricsOnce.Do(func() {
		mintRegistry = &MintMetrics{
			purchases: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "skb",
				Subsystem: "mint",
				Name:      "purchases_total",
				Help:      "Count of accepted purchases.",
			}),
			units: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "skb",
				Subsystem: "mint",
				Name:      "units_total",
				Help:      "Count of units issued by accepted purchases.",
			}),
			rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "skb",
				Subsystem: "mint",
				Name:      "rejections_total",
				Help:      "Count of rejected ledger operations segmented by operation and reason.",
			}, []string{"operation", "reason"}),
			treasury: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "skb",
				Subsystem: "mint",
				Name:      "treasury_balance",
				Help:      "Treasury balance expressed in whole currency units.",
			}),
			issued: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "skb",
				Subsystem: "mint",
				Name:      "issued",
				Help:      "Units issued so far.",
			}),
			withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "skb",
				Subsystem: "mint",
				Name:      "withdrawals_total",
				Help:      "Count of treasury withdrawals segmented by outcome.",
			}, []string{"outcome"}),
		}
		prometheus.MustRegister(
			mintRegistry.purchases,
			mintRegistry.units,
			mintRegistry.rejections,
			mintRegistry.treasury,
			mintRegistry.issued,
			mintRegistry.withdrawals,
		)
	})
	return mintRegistry
}

// RecordPurchase records an accepted purchase of quantity units.
func (m *MintMetrics) RecordPurchase(quantity uint64) {
	if m == nil {
		return
	}
	m.purchases.Inc()
	m.units.Add(float64(quantity))
}

// RecordRejection records a rejected operation. Reasons should be stable
// short strings such as "sale_not_active".
func (m *MintMetrics) RecordRejection(operation, reason string) {
	if m == nil {
		return
	}
	operation = strings.TrimSpace(operation)
	if operation == "" {
		operation = "unknown"
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unspecified"
	}
	m.rejections.WithLabelValues(operation, reason).Inc()
}

// RecordWithdrawal records a withdrawal outcome ("success" or "failed").
func (m *MintMetrics) RecordWithdrawal(outcome string) {
	if m == nil {
		return
	}
	if strings.TrimSpace(outcome) == "" {
		outcome = "unknown"
	}
	m.withdrawals.WithLabelValues(outcome).Inc()
}

// SetLedger updates the treasury and issuance gauges from a ledger snapshot.
func (m *MintMetrics) SetLedger(treasuryWei *big.Int, issued uint64) {
	if m == nil {
		return
	}
	m.treasury.Set(weiToFloat(treasuryWei))
	m.issued.Set(float64(issued))
}

func weiToFloat(value *big.Int) float64 {
	if value == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(value), big.NewFloat(1e18)).Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}
