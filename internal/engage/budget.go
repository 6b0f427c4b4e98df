package engage

import (
	"context"
	"time"

	"chartabot/internal/config"
	"chartabot/internal/store/botdb"
)

// BudgetGate limits how many replies the bot posts per hour and per day,
// counting posted replies in the outcome journal. Zero limits mean unlimited.
type BudgetGate struct {
	db  *botdb.DB
	cfg config.BotConfig
}

func NewBudgetGate(db *botdb.DB, cfg config.BotConfig) *BudgetGate {
	return &BudgetGate{db: db, cfg: cfg}
}

// AllowReply reports whether another reply fits in the configured budgets.
// On a journal read error it allows the reply; budgets are advisory.
func (g *BudgetGate) AllowReply(ctx context.Context, now time.Time) bool {
	if g.db == nil || (g.cfg.MaxRepliesPerHour <= 0 && g.cfg.MaxRepliesPerDay <= 0) {
		return true
	}
	startHour := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, time.UTC)
	startDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if g.cfg.MaxRepliesPerHour > 0 {
		n, err := g.db.CountOutcomesWithin(ctx, startHour, startHour.Add(time.Hour), "reply")
		if err == nil && n >= g.cfg.MaxRepliesPerHour {
			return false
		}
	}
	if g.cfg.MaxRepliesPerDay > 0 {
		n, err := g.db.CountOutcomesWithin(ctx, startDay, startDay.Add(24*time.Hour), "reply")
		if err == nil && n >= g.cfg.MaxRepliesPerDay {
			return false
		}
	}
	return true
}
