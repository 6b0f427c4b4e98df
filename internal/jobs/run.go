package jobs

import (
	"context"
	"time"

	"chartabot/internal/logging"
	"chartabot/internal/metrics"
	"chartabot/internal/model"
	"chartabot/internal/pipeline"
	"chartabot/internal/schedule"
)

// MentionSource is the poller seen by the runner.
type MentionSource interface {
	Poll(ctx context.Context) []model.Mention
}

// MentionSink is the processor seen by the runner.
type MentionSink interface {
	Process(ctx context.Context, m model.Mention)
}

var _ MentionSink = (*pipeline.Processor)(nil)

// RunOnce executes one poll cycle: fetch mentions, then process each one
// sequentially and in full. The rendering engine is a shared stateful
// resource, so mentions are never processed in parallel.
func RunOnce(ctx context.Context, src MentionSource, sink MentionSink) {
	metrics.PollRuns.Inc()
	mentions := src.Poll(ctx)
	for _, m := range mentions {
		if ctx.Err() != nil {
			return
		}
		sink.Process(ctx, m)
	}
}

// RunLoop runs poll cycles on a ticker until ctx is cancelled. The first
// cycle fires immediately. The next cycle is only scheduled after the current
// one fully drains, so at most one cycle is ever in flight. Cycles that land
// in a configured quiet hour are skipped.
func RunLoop(ctx context.Context, src MentionSource, sink MentionSink, interval time.Duration, quietHours []int) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	if !schedule.IsQuietHour(time.Now().UTC(), quietHours) {
		RunOnce(ctx, src, sink)
	}
	for {
		select {
		case <-ctx.Done():
			logging.Info("poll_loop_stop", nil)
			return ctx.Err()
		case <-t.C:
			if schedule.IsQuietHour(time.Now().UTC(), quietHours) {
				logging.Info("poll_skipped_quiet_hour", nil)
				continue
			}
			RunOnce(ctx, src, sink)
		}
	}
}
