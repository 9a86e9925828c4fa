// Package maintenance runs the background housekeeping jobs, currently
// just the OAuth state prune.
package maintenance

import (
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/harunnryd/koyomi/internal/session"
)

type Runner struct {
	cron     *cron.Cron
	sessions *session.Store
}

// New schedules the prune job. The schedule accepts cron specs and
// "@every" shorthand.
func New(sessions *session.Store, schedule string) (*Runner, error) {
	r := &Runner{
		cron:     cron.New(),
		sessions: sessions,
	}

	if _, err := r.cron.AddFunc(schedule, r.pruneOAuthStates); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runner) Start() {
	r.cron.Start()
}

// Stop halts scheduling; a running job finishes first.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

func (r *Runner) pruneOAuthStates() {
	if pruned := r.sessions.PruneStates(); pruned > 0 {
		slog.Info("Pruned expired OAuth states", "count", pruned, "sessions", r.sessions.Len())
	}
}
