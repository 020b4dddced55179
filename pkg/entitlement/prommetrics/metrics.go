// Package prommetrics exports entitlement decisions as Prometheus metrics.
package prommetrics

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dmitrymomot/invoicekit/pkg/entitlement"
)

const namespace = "entitlement"

// Metrics implements entitlement.Observer.
type Metrics struct {
	slotDecisions *prometheus.CounterVec
	commits       *prometheus.CounterVec
	releases      *prometheus.CounterVec
	rollovers     *prometheus.CounterVec
	conflicts     prometheus.Counter
	cacheEvicted  prometheus.Counter
}

var _ entitlement.Observer = (*Metrics)(nil)

// New registers the entitlement collectors with reg.
// Panics if they are already registered there.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		slotDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "slot_decisions_total",
				Help:      "Creation slot requests by effective tier and outcome.",
			},
			[]string{"tier", "allowed"},
		),
		commits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "creations_committed_total",
				Help:      "Invoice creations counted against quota, by effective tier.",
			},
			[]string{"tier"},
		),
		releases: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "slot_releases_total",
				Help:      "Slot releases by whether the counter was decremented.",
			},
			[]string{"decremented"},
		),
		rollovers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycle_rollovers_total",
				Help:      "Billing cycle rollovers persisted, by stored tier.",
			},
			[]string{"tier"},
		),
		conflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "update_conflicts_total",
			Help:      "Writes that lost an optimistic concurrency race.",
		}),
		cacheEvicted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Records dropped from the subscription cache.",
		}),
	}
}

func (m *Metrics) SlotRequested(effective entitlement.Tier, allowed bool) {
	m.slotDecisions.WithLabelValues(string(effective), strconv.FormatBool(allowed)).Inc()
}

func (m *Metrics) CreationCommitted(effective entitlement.Tier) {
	m.commits.WithLabelValues(string(effective)).Inc()
}

func (m *Metrics) SlotReleased(decremented bool) {
	m.releases.WithLabelValues(strconv.FormatBool(decremented)).Inc()
}

func (m *Metrics) CycleRolledOver(tier entitlement.Tier) {
	m.rollovers.WithLabelValues(string(tier)).Inc()
}

func (m *Metrics) UpdateConflict() {
	m.conflicts.Inc()
}

// CacheEvicted matches the cache eviction callback signature.
func (m *Metrics) CacheEvicted(uuid.UUID, *entitlement.UserSubscription) {
	m.cacheEvicted.Inc()
}
