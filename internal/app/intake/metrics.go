package intake

import (
	"time"

	exchangev1 "github.com/muhammadchandra19/matcha/internal/domain/exchange/v1"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	intentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "matcha_intents_total",
		Help: "Intents that reached a final state, by kind and outcome",
	}, []string{"pair", "kind", "state"})

	intentDurations = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name:       "matcha_intent_duration_us",
		Help:       "Time from receiving an intent to its final state in microseconds",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		AgeBuckets: 1,
	}, []string{"pair", "kind"})

	fillsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "matcha_fills_total",
		Help: "Fills settled by the intake pipeline",
	}, []string{"pair"})
)

func init() {
	prometheus.MustRegister(intentsTotal, intentDurations, fillsTotal)
}

func intentKind(intent exchangev1.Intent) string {
	switch intent.(type) {
	case exchangev1.OrderIntent:
		return "order"
	case exchangev1.CancelIntent:
		return "cancel"
	default:
		return "unknown"
	}
}

func (t *trace) observe(state exchangev1.IntentState) {
	kind := intentKind(t.intent)
	intentsTotal.WithLabelValues(t.pair, kind, string(state)).Inc()
	intentDurations.WithLabelValues(t.pair, kind).Observe(float64(time.Since(t.start) / time.Microsecond))
}

func countFills(pair string, actions []exchangev1.Action) {
	var n int
	for _, action := range actions {
		if _, ok := action.(exchangev1.Fill); ok {
			n++
		}
	}
	if n > 0 {
		fillsTotal.WithLabelValues(pair).Add(float64(n))
	}
}
