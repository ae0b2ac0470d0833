package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/habitloop/backend/internal/service"
)

// Metrics holds the Prometheus collectors for the progression service.
type Metrics struct {
	registry *prometheus.Registry

	awardsTotal       prometheus.Counter
	pointsTotal       prometheus.Counter
	levelUpsTotal     prometheus.Counter
	unlocksTotal      prometheus.Counter
	poolsCreatedTotal *prometheus.CounterVec
	poolsClaimedTotal prometheus.Counter
}

// NewMetrics builds and registers the collectors, including the standard Go
// and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		awardsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "progression_awards_total",
			Help: "Completion awards processed.",
		}),
		pointsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "progression_points_awarded_total",
			Help: "Points awarded across all users and sources.",
		}),
		levelUpsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "progression_level_ups_total",
			Help: "Level boundaries crossed.",
		}),
		unlocksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "progression_achievements_unlocked_total",
			Help: "Achievements unlocked.",
		}),
		poolsCreatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progression_bonus_pools_created_total",
			Help: "Bonus pools created or topped up, by category.",
		}, []string{"category"}),
		poolsClaimedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "progression_bonus_pools_claimed_total",
			Help: "Bonus pools claimed for points.",
		}),
	}
	reg.MustRegister(m.awardsTotal, m.pointsTotal, m.levelUpsTotal,
		m.unlocksTotal, m.poolsCreatedTotal, m.poolsClaimedTotal)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordAward counts a processed completion award.
func (m *Metrics) RecordAward(points int) {
	m.awardsTotal.Inc()
	m.pointsTotal.Add(float64(points))
}

// Observe updates counters from a service event. Wire it alongside the ws
// broadcaster on the service's event callback.
func (m *Metrics) Observe(ev service.Event) {
	switch ev.Type {
	case service.EventLevelUp:
		m.levelUpsTotal.Inc()
	case service.EventAchievementUnlocked:
		m.unlocksTotal.Inc()
		m.pointsTotal.Add(float64(ev.Points))
	case service.EventPoolCreated:
		if ev.Pool != nil {
			m.poolsCreatedTotal.WithLabelValues(string(ev.Pool.Category)).Inc()
		}
	case service.EventPoolClaimed:
		m.poolsClaimedTotal.Inc()
		m.pointsTotal.Add(float64(ev.Points))
	}
}
