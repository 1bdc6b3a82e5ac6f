// Package metrics exposes prometheus collectors for the flow player.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics implements the player's Recorder interface on prometheus
// counters. One instance can serve many players.
type Metrics struct {
	explorations prometheus.Counter
	branches     *prometheus.CounterVec
	depthAborts  prometheus.Counter
	shadowAborts prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		explorations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dialogue_explorations_total",
			Help: "Branch explorations started.",
		}),
		branches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dialogue_branches_published_total",
			Help: "Branches published to callers, by validity.",
		}, []string{"validity"}),
		depthAborts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dialogue_explore_depth_aborts_total",
			Help: "Explorations truncated by the depth limit.",
		}),
		shadowAborts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dialogue_shadow_level_aborts_total",
			Help: "Shadow operations aborted by the nesting limit.",
		}),
	}
	reg.MustRegister(m.explorations, m.branches, m.depthAborts, m.shadowAborts)
	return m
}

func (m *Metrics) ExplorationStarted() {
	m.explorations.Inc()
}

func (m *Metrics) BranchesPublished(valid, invalid int) {
	m.branches.WithLabelValues("valid").Add(float64(valid))
	m.branches.WithLabelValues("invalid").Add(float64(invalid))
}

func (m *Metrics) DepthLimitExceeded() {
	m.depthAborts.Inc()
}

func (m *Metrics) ShadowLimitExceeded() {
	m.shadowAborts.Inc()
}
