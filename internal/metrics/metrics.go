package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// NewLoginRateLimitExceededTotal counts login attempts rejected by the shared window limiter.
func NewLoginRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "login_rate_limit_exceeded_total",
		Help: "Total number of login attempts rejected by the shared rate limiter",
	})
}

// NewEventsPublishRetriesTotal returns a counter of lifecycle event publish retries.
func NewEventsPublishRetriesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "events_publish_retries_total",
		Help: "Total number of retry attempts performed while publishing lifecycle events",
	})
}

// NewDispatchCommandsTotal counts dispatcher commands by name and outcome.
func NewDispatchCommandsTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_commands_total",
		Help: "Total number of dispatch commands by command and outcome",
	}, []string{"command", "outcome"})
}
