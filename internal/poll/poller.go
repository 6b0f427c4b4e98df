package poll

import (
	"context"

	"chartabot/internal/logging"
	"chartabot/internal/metrics"
	"chartabot/internal/model"
	"chartabot/internal/util"
	"chartabot/internal/xclient"
)

// Poller fetches new mentions of the bot account and filters them down to
// actionable ones. Cursor state lives on the struct, not in a global; it is
// in-memory only and resets with the process.
type Poller struct {
	client  xclient.XClient
	userID  string
	trigger string
	allowed map[string]bool // nil means no allow-list
	limit   int

	lastSeenID string
}

func New(client xclient.XClient, userID, trigger string, allowedAuthors []string, limit int) *Poller {
	var allowed map[string]bool
	if len(allowedAuthors) > 0 {
		allowed = make(map[string]bool, len(allowedAuthors))
		for _, a := range allowedAuthors {
			allowed[a] = true
		}
	}
	if limit <= 0 {
		limit = 25
	}
	return &Poller{client: client, userID: userID, trigger: trigger, allowed: allowed, limit: limit}
}

// Cursor returns the current last-seen id watermark.
func (p *Poller) Cursor() string { return p.lastSeenID }

// Poll fetches one page of mentions since the cursor and returns those that
// pass the filters. It never fails across cycles: a transient fetch error is
// logged and yields an empty result so the caller's loop keeps running.
func (p *Poller) Poll(ctx context.Context) []model.Mention {
	page, err := p.client.GetMentionsSince(ctx, p.userID, p.lastSeenID, p.limit)
	if err != nil {
		metrics.PollErrors.Inc()
		logging.Error("poll_fetch_failed", map[string]any{"error": err.Error(), "cursor": p.lastSeenID})
		return nil
	}
	var out []model.Mention
	for _, t := range page.Tweets {
		if p.allowed != nil && !p.allowed[t.AuthorID] {
			continue
		}
		if !util.ContainsCaseInsensitive(t.Text, p.trigger) {
			continue
		}
		// the bot only acts on replies: the parent holds the image
		if t.RepliedToID == "" {
			continue
		}
		out = append(out, model.Mention{
			ID:       t.ID,
			AuthorID: t.AuthorID,
			Text:     t.Text,
			ParentID: t.RepliedToID,
		})
	}
	// Advance past everything seen this cycle, filtered or not, so discarded
	// mentions are not re-scanned forever. Never move the cursor backward.
	if newerID(page.NewestID, p.lastSeenID) {
		p.lastSeenID = page.NewestID
	}
	if len(out) > 0 {
		logging.Info("poll_found_mentions", map[string]any{"count": len(out), "cursor": p.lastSeenID})
	}
	return out
}

// newerID compares snowflake-style numeric id strings: longer means larger,
// equal length falls back to lexicographic order.
func newerID(candidate, current string) bool {
	if candidate == "" {
		return false
	}
	if current == "" {
		return true
	}
	if len(candidate) != len(current) {
		return len(candidate) > len(current)
	}
	return candidate > current
}
