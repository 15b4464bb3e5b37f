package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var OnboardingStartedCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "chatbot_onboarding_started_total",
		Help: "Total number of connected account onboarding runs started",
	},
)

// OnboardingCompletedCounter is labelled created (new account) or replayed (idempotent replay)
var OnboardingCompletedCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chatbot_onboarding_completed_total",
		Help: "Total number of onboarding runs that returned a link",
	},
	[]string{"outcome"},
)

var OnboardingFailedCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chatbot_onboarding_failed_total",
		Help: "Total number of onboarding runs that failed, by pipeline step",
	},
	[]string{"step"},
)

var CompensationCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chatbot_onboarding_compensations_total",
		Help: "Cleanup calls issued after a failed onboarding run",
	},
	[]string{"resource", "result"},
)

var ProcessorCallDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "chatbot_processor_call_duration_seconds",
		Help:    "Duration of payment processor API calls in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"operation", "status"},
)

var HelpDeskLookupCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "chatbot_helpdesk_lookups_total",
		Help: "Total number of public chatbot bootstrap requests",
	},
)

func init() {
	prometheus.MustRegister(OnboardingStartedCounter)
	prometheus.MustRegister(OnboardingCompletedCounter)
	prometheus.MustRegister(OnboardingFailedCounter)
	prometheus.MustRegister(CompensationCounter)
	prometheus.MustRegister(ProcessorCallDuration)
	prometheus.MustRegister(HelpDeskLookupCounter)
}

// TrackProcessorCall measures one processor API call; call the returned func with the call's error
func TrackProcessorCall(operation string) func(error) {
	start := time.Now()
	return func(err error) {
		status := "ok"
		if err != nil {
			status = "error"
		}
		ProcessorCallDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
	}
}
