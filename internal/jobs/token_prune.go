package jobs

import (
	"context"
	"log/slog"
	"time"
)

type tokenPruner interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// TokenPrune deletes refresh tokens that expired more than Grace ago.
type TokenPrune struct {
	Repo     tokenPruner
	Interval time.Duration
	Grace    time.Duration
	Now      func() time.Time
	Log      *slog.Logger
}

func (j *TokenPrune) RunOnce(ctx context.Context) (int64, error) {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return j.Repo.DeleteExpired(ctx, now().Add(-j.Grace))
}

func (j *TokenPrune) Start(ctx context.Context) {
	every(ctx, j.Interval, func() {
		n, err := j.RunOnce(ctx)
		if err != nil {
			j.Log.Error("token prune job error", "err", err)
			return
		}
		if n > 0 {
			j.Log.Debug("token prune job deleted tokens", "count", n)
		}
	})
}
