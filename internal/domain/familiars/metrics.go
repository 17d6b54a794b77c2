package familiars

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ellavondegurechaff/familiars/internal/domain/gameerr"
)

type Metrics struct {
	draws      *prometheus.CounterVec
	trades     *prometheus.CounterVec
	hunts      *prometheus.CounterVec
	lootItems  *prometheus.CounterVec
	operations *prometheus.CounterVec
}

// NewMetrics registers the engine collectors on reg. A nil reg keeps them unregistered,
// which is what tests use.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		draws: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "familiars",
			Name:      "draws_total",
			Help:      "Successful draws by pool rank and whether the uniform fallback was used.",
		}, []string{"pool", "fallback"}),
		trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "familiars",
			Name:      "trades_total",
			Help:      "Trade requests by resulting status.",
		}, []string{"status"}),
		hunts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "familiars",
			Name:      "hunts_total",
			Help:      "Expedition transitions by action and location.",
		}, []string{"action", "location"}),
		lootItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "familiars",
			Name:      "loot_items_total",
			Help:      "Items granted by claimed expeditions.",
		}, []string{"item"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "familiars",
			Name:      "operations_total",
			Help:      "Engine operations by name and outcome kind.",
		}, []string{"operation", "outcome"}),
	}

	if reg != nil {
		reg.MustRegister(m.draws, m.trades, m.hunts, m.lootItems, m.operations)
	}
	return m
}

func (m *Metrics) observe(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = gameerr.KindOf(err).String()
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) draw(pool string, fallback bool) {
	m.draws.WithLabelValues(pool, strconv.FormatBool(fallback)).Inc()
}
