package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "imaginify", Name: "webhook_events_total", Help: "Webhook deliveries by event type and outcome."},
		[]string{"type", "outcome"},
	)
	MetadataWriteBacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "imaginify", Name: "metadata_writebacks_total", Help: "Identity-provider metadata write-backs by outcome."},
		[]string{"outcome"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "imaginify", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "imaginify", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(WebhookEvents)
	reg.MustRegister(MetadataWriteBacks)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
