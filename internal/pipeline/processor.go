package pipeline

import (
	"context"
	"time"

	"chartabot/internal/chart"
	"chartabot/internal/logging"
	"chartabot/internal/metrics"
	"chartabot/internal/model"
	"chartabot/internal/vision"
	"chartabot/internal/xclient"
)

// Fixed user-facing reply texts. These are the only failure surface a
// requester ever sees; infrastructure failures stay silent.
const (
	replyNoImage = "I couldn't find an image in the tweet you replied to. Reply to a tweet that has a chart image and I'll make it epic! 📊"
	replyNoChart = "I couldn't extract chart data from that image. Make sure it shows a chart or a table of numbers and try again. 📊"
	replyDone    = "Here's your chart, made epic! ✨"
)

// Extractor pulls chart data out of an image, remotely by URL or from raw bytes.
type Extractor interface {
	ExtractFromURL(ctx context.Context, imageURL string) (model.ChartData, error)
	ExtractFromBytes(ctx context.Context, img []byte) (model.ChartData, error)
}

// Renderer turns chart data plus display config into a PNG.
type Renderer interface {
	Render(ctx context.Context, data model.ChartData, cfg model.DisplayConfig) ([]byte, error)
}

// Marker composites the watermark onto a rendered PNG.
type Marker interface {
	Apply(img []byte) ([]byte, error)
}

// Journal records terminal pipeline outcomes. Optional; may be nil.
type Journal interface {
	RecordOutcome(ctx context.Context, ev model.PipelineEvent)
}

// Gate decides whether another reply may be posted right now. Optional.
type Gate interface {
	AllowReply(ctx context.Context, now time.Time) bool
}

// Per-stage timeouts. Nothing in the pipeline may stall the single
// processing lane indefinitely.
const (
	fetchTimeout   = 30 * time.Second
	extractTimeout = 60 * time.Second
	renderTimeout  = 45 * time.Second
	uploadTimeout  = 30 * time.Second
	replyTimeout   = 30 * time.Second
)

// Processor drives one mention through extract → render → watermark → reply.
// Mentions are processed strictly one at a time; the processed set needs no
// locking because insertion happens before any suspension point.
type Processor struct {
	client    xclient.XClient
	extractor Extractor
	renderer  Renderer
	marker    Marker
	journal   Journal
	gate      Gate

	processed map[string]struct{}
}

func NewProcessor(client xclient.XClient, extractor Extractor, renderer Renderer, marker Marker) *Processor {
	return &Processor{
		client:    client,
		extractor: extractor,
		renderer:  renderer,
		marker:    marker,
		processed: make(map[string]struct{}),
	}
}

// WithJournal attaches an outcome journal.
func (p *Processor) WithJournal(j Journal) *Processor { p.journal = j; return p }

// WithGate attaches a reply budget gate.
func (p *Processor) WithGate(g Gate) *Processor { p.gate = g; return p }

// ProcessedCount returns the size of the processed-mention set.
func (p *Processor) ProcessedCount() int { return len(p.processed) }

// ResetProcessed clears the processed-mention set. Administrative use only.
func (p *Processor) ResetProcessed() { p.processed = make(map[string]struct{}) }

// Process runs the full pipeline for one mention. It never returns an error:
// every outcome is a posted reply, a user-facing error reply, or a logged
// silent failure. The caller's loop must survive any single mention.
func (p *Processor) Process(ctx context.Context, m model.Mention) {
	if _, done := p.processed[m.ID]; done {
		metrics.MentionsDeduped.Inc()
		return
	}
	// mark before any I/O so a re-entrant poll cannot double-process this id
	p.processed[m.ID] = struct{}{}
	metrics.MentionsProcessed.Inc()

	if p.gate != nil && !p.gate.AllowReply(ctx, time.Now().UTC()) {
		logging.Warn("reply_budget_exhausted", map[string]any{"mention": m.ID})
		return
	}

	if m.ParentID == "" {
		p.userError(ctx, m, "fetch_parent", replyNoImage)
		return
	}
	parent, err := p.fetchParent(ctx, m.ParentID)
	if err != nil {
		p.silentFailure(ctx, m, "fetch_parent", err)
		return
	}
	if parent.ImageURL == "" {
		p.userError(ctx, m, "fetch_parent", replyNoImage)
		return
	}

	data, err := p.extract(ctx, parent.ImageURL)
	if err != nil {
		switch vision.KindOf(err) {
		case vision.KindNoChartData, vision.KindInvalidStructure:
			p.userError(ctx, m, "extract", replyNoChart)
		default:
			p.silentFailure(ctx, m, "extract", err)
		}
		return
	}

	cfg := chart.DeriveConfig(data)
	rctx, cancel := context.WithTimeout(ctx, renderTimeout)
	img, err := p.renderer.Render(rctx, data, cfg)
	cancel()
	if err != nil {
		p.silentFailure(ctx, m, "render", err)
		return
	}

	marked, err := p.marker.Apply(img)
	if err != nil {
		p.silentFailure(ctx, m, "watermark", err)
		return
	}

	uctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	mediaID, err := p.client.UploadMedia(uctx, marked)
	cancel()
	if err != nil {
		p.silentFailure(ctx, m, "upload", err)
		return
	}

	pctx, cancel := context.WithTimeout(ctx, replyTimeout)
	postedID, err := p.client.PostReply(pctx, m.ID, replyDone, mediaID)
	cancel()
	if err != nil {
		p.silentFailure(ctx, m, "reply", err)
		return
	}
	metrics.RepliesPosted.WithLabelValues("chart").Inc()
	p.record(ctx, model.PipelineEvent{Timestamp: time.Now().UTC(), Type: "reply", MentionID: m.ID})
	logging.Info("mention_done", map[string]any{"mention": m.ID, "posted": postedID, "media": mediaID})
}

func (p *Processor) fetchParent(ctx context.Context, parentID string) (model.ParentPost, error) {
	fctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	return p.client.GetTweetWithMedia(fctx, parentID)
}

// extract tries the cheap URL path first, then falls back to downloading the
// bytes and retrying. The vision service can fail to dereference third-party
// CDN URLs while handling the same image fine as raw bytes.
func (p *Processor) extract(ctx context.Context, imageURL string) (model.ChartData, error) {
	ectx, cancel := context.WithTimeout(ctx, extractTimeout)
	data, err := p.extractor.ExtractFromURL(ectx, imageURL)
	cancel()
	if err == nil {
		return data, nil
	}
	logging.Warn("extract_url_failed", map[string]any{"error": err.Error(), "kind": vision.KindOf(err).String()})

	dctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	img, derr := p.client.DownloadImage(dctx, imageURL)
	cancel()
	if derr != nil {
		// couldn't even fetch the bytes; report the download failure
		return model.ChartData{}, derr
	}
	bctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()
	return p.extractor.ExtractFromBytes(bctx, img)
}

// userError posts a best-effort explanatory reply. A failure to post it is
// itself swallowed so one broken write path cannot cascade.
func (p *Processor) userError(ctx context.Context, m model.Mention, stage, text string) {
	metrics.IncStageFailure(stage)
	pctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()
	if _, err := p.client.PostReply(pctx, m.ID, text, ""); err != nil {
		logging.Error("user_error_reply_failed", map[string]any{"mention": m.ID, "stage": stage, "error": err.Error()})
	} else {
		metrics.RepliesPosted.WithLabelValues("user_error").Inc()
	}
	p.record(ctx, model.PipelineEvent{Timestamp: time.Now().UTC(), Type: "user_error", MentionID: m.ID, Stage: stage})
}

// silentFailure logs an infrastructure-class failure with full context and
// stops. No reply: the requester cannot act on it.
func (p *Processor) silentFailure(ctx context.Context, m model.Mention, stage string, err error) {
	metrics.IncStageFailure(stage)
	logging.Error("mention_failed", map[string]any{"mention": m.ID, "stage": stage, "error": err.Error()})
	p.record(ctx, model.PipelineEvent{Timestamp: time.Now().UTC(), Type: "silent_failure", MentionID: m.ID, Stage: stage})
}

func (p *Processor) record(ctx context.Context, ev model.PipelineEvent) {
	if p.journal != nil {
		p.journal.RecordOutcome(ctx, ev)
	}
}
