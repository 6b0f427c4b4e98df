package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PollRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chartabot_poll_runs_total",
		Help: "Total poll cycles",
	})
	PollErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chartabot_poll_errors_total",
		Help: "Total failed poll cycles",
	})
	MentionsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chartabot_mentions_processed_total",
		Help: "Total mentions handed to the processor",
	})
	MentionsDeduped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chartabot_mentions_deduped_total",
		Help: "Total mentions skipped as already processed",
	})
	RepliesPosted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chartabot_replies_posted_total",
		Help: "Total replies posted",
	}, []string{"kind"})
	StageFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chartabot_stage_failures_total",
		Help: "Total pipeline stage failures",
	}, []string{"stage"})
	RenderDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "chartabot_render_duration_seconds",
		Help:    "Headless render duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chartabot_api_retries_total",
		Help: "Total API retry attempts",
	}, []string{"endpoint"})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chartabot_command_runs_total",
		Help: "Total CLI command invocations",
	}, []string{"cmd"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chartabot_command_errors_total",
		Help: "Total CLI command failures",
	}, []string{"cmd"})
)

func init() {
	prometheus.MustRegister(PollRuns, PollErrors, MentionsProcessed, MentionsDeduped,
		RepliesPosted, StageFailures, RenderDuration, APIRetries, CommandRuns, CommandErrors)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, nil) }()
}

// ObserveRenderDuration records one render duration.
func ObserveRenderDuration(start time.Time) {
	RenderDuration.Observe(time.Since(start).Seconds())
}

// IncAPIRetry increments the retry counter for an endpoint.
func IncAPIRetry(endpoint string) { APIRetries.WithLabelValues(endpoint).Inc() }

// IncCommandRun increments the run counter for a CLI command.
func IncCommandRun(cmd string) { CommandRuns.WithLabelValues(cmd).Inc() }

// IncCommandError increments the error counter for a CLI command.
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }

// IncStageFailure increments the failure counter for a pipeline stage.
func IncStageFailure(stage string) { StageFailures.WithLabelValues(stage).Inc() }
