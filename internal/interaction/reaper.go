package interaction

import (
	"context"
	"log/slog"
	"time"

	"github.com/adhocore/gronx"
)

// Reaper periodically clears expired reply contexts and tweak sessions.
// Driven by a cron expression rather than a bare ticker so the sweep
// cadence is visible and adjustable from config without a code change.
type Reaper struct {
	replyContexts *ReplyContextStore
	tweakSessions *TweakSessionStore
	expr          string
	log           *slog.Logger
}

// NewReaper builds a Reaper over the two stores, scheduled by the given
// cron expression (default "*/5 * * * *" if empty).
func NewReaper(replyContexts *ReplyContextStore, tweakSessions *TweakSessionStore, cronExpr string, log *slog.Logger) *Reaper {
	if cronExpr == "" {
		cronExpr = "*/5 * * * *"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reaper{replyContexts: replyContexts, tweakSessions: tweakSessions, expr: cronExpr, log: log}
}

// Run blocks, checking every minute whether the cron expression is due
// and sweeping both stores when it is, until ctx is canceled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			due, err := gronx.IsDue(r.expr, now)
			if err != nil {
				r.log.Warn("interaction: invalid reaper cron expression", "expr", r.expr, "err", err)
				continue
			}
			if !due {
				continue
			}
			r.sweep(now)
		}
	}
}

func (r *Reaper) sweep(now time.Time) {
	n1 := r.replyContexts.ReapExpired(now)
	n2 := r.tweakSessions.ReapExpired(now)
	if n1 > 0 || n2 > 0 {
		r.log.Debug("interaction: reaped expired state", "reply_contexts", n1, "tweak_sessions", n2)
	}
}
