package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/iliyamo/gym-membership/internal/metrics"
	"github.com/iliyamo/gym-membership/internal/model"
)

// expirer is implemented by *repository.MembershipRepo.
type expirer interface {
	ExpireEndedBefore(ctx context.Context, day model.Date) (int64, error)
}

// MembershipExpiry marks memberships whose end date has passed as expired.
type MembershipExpiry struct {
	Repo     expirer
	Interval time.Duration
	Timeout  time.Duration
	Location *time.Location
	Now      func() time.Time
	Metrics  *metrics.Metrics
	Log      *slog.Logger
}

// RunOnce expires memberships ended before today and returns the count.
func (j *MembershipExpiry) RunOnce(ctx context.Context) (int64, error) {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	loc := j.Location
	if loc == nil {
		loc = time.UTC
	}
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	tickCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	n, err := j.Repo.ExpireEndedBefore(tickCtx, model.DateOf(now().In(loc)))
	if err != nil {
		return 0, err
	}
	j.Metrics.Expired(n)
	return n, nil
}

// Start runs RunOnce immediately and then every Interval until ctx ends.
func (j *MembershipExpiry) Start(ctx context.Context) {
	every(ctx, j.Interval, func() {
		n, err := j.RunOnce(ctx)
		if err != nil {
			j.Log.Error("membership expiry job error", "err", err)
			return
		}
		if n > 0 {
			j.Log.Info("membership expiry job expired memberships", "count", n)
		}
	})
}

// every calls fn now and on each tick of interval (default one hour) in a
// goroutine that exits with ctx.
func every(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		fn()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}
