package observability

import (
	"math/big"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/0xhanvalen/skaterbirds-nft/core/events"
)

// valueKeys are the attributes carrying a wei amount, checked in order.
var valueKeys = []string{"paid", "amount"}

var weiPerEther = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

type eventMetrics struct {
	emitted *prometheus.CounterVec
	value   *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the collector fed by the ledger event stream. It is an
// events.Emitter so it can sit in a MultiEmitter next to the audit log.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "skb",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Ledger events by type.",
			}, []string{"type"}),
			value: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "skb",
				Subsystem: "events",
				Name:      "value_ether_total",
				Help:      "Ether carried by ledger events, by type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(eventRegistry.emitted, eventRegistry.value)
	})
	return eventRegistry
}

// Emit implements events.Emitter.
func (m *eventMetrics) Emit(evt events.Event) {
	if m == nil || evt == nil {
		return
	}
	eventType := strings.TrimSpace(evt.EventType())
	if eventType == "" {
		eventType = "unknown"
	}
	m.emitted.WithLabelValues(eventType).Inc()

	payload, ok := evt.(events.Payload)
	if !ok {
		return
	}
	raw := payload.Event()
	if raw == nil {
		return
	}
	for _, key := range valueKeys {
		if ether, ok := weiToEther(raw.Attributes[key]); ok {
			m.value.WithLabelValues(eventType).Add(ether)
			return
		}
	}
}

func weiToEther(raw string) (float64, bool) {
	wei, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok || wei.Sign() <= 0 {
		return 0, false
	}
	ether, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), weiPerEther).Float64()
	return ether, true
}
