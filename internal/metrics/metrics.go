package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RedirectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wisp_redirects_total",
		Help: "Slug resolution attempts by outcome.",
	}, []string{"status"}) // ok, not_found, expired, error

	RedirectDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wisp_redirect_duration_seconds",
		Help:    "Time from request receipt to redirect response.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
	})

	LinksCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wisp_links_created_total",
		Help: "Links created, split by random codes vs custom aliases.",
	}, []string{"kind"}) // random, custom

	CreateRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wisp_create_rejected_total",
		Help: "Create requests rejected before a write happened.",
	}, []string{"reason"}) // invalid_url, invalid_alias, policy, alias_taken, rate_limited, exhausted

	SweepDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wisp_sweep_deleted_total",
		Help: "Expired rows removed by the sweeper.",
	})

	LinksTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wisp_links_total",
		Help: "Total number of stored links, expired rows included.",
	})
)
