package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Send outcomes.
const (
	SendOK      = "ok"
	SendFailed  = "failed"
	SendBlocked = "blocked"
	SendSkipped = "skipped_blocked"
)

type Metrics struct {
	Inbound     *prometheus.CounterVec
	Sends       *prometheus.CounterVec
	AdminAlerts *prometheus.CounterVec
}

// New registers the collectors on reg. Pass a fresh registry per test.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Inbound: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffbot",
			Name:      "inbound_messages_total",
			Help:      "Inbound messages by classified intent.",
		}, []string{"intent"}),
		Sends: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffbot",
			Name:      "outbound_sends_total",
			Help:      "Outbound send attempts by outcome.",
		}, []string{"outcome"}),
		AdminAlerts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffbot",
			Name:      "admin_alerts_total",
			Help:      "Admin alerts sent by kind.",
		}, []string{"kind"}),
	}
}

// Nop returns collectors attached to a throwaway registry.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}
