package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/gym-membership/internal/model"
)

type fakeExpirer struct {
	day model.Date
	n   int64
	err error
}

func (f *fakeExpirer) ExpireEndedBefore(_ context.Context, day model.Date) (int64, error) {
	f.day = day
	return f.n, f.err
}

func TestRunOnceUsesLocalDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	repo := &fakeExpirer{n: 2}
	j := &MembershipExpiry{
		Repo:     repo,
		Location: loc,
		Now:      func() time.Time { return time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC) },
	}
	n, err := j.RunOnce(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("RunOnce = %d, %v", n, err)
	}
	// 02:00 UTC is still the previous evening in UTC-5.
	if repo.day.String() != "2024-02-29" {
		t.Fatalf("day = %s", repo.day)
	}
}

func TestRunOncePropagatesErrors(t *testing.T) {
	j := &MembershipExpiry{Repo: &fakeExpirer{err: errors.New("db down")}}
	if _, err := j.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

type fakePruner struct{ cutoff time.Time }

func (f *fakePruner) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 1, nil
}

func TestTokenPruneAppliesGrace(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakePruner{}
	j := &TokenPrune{Repo: repo, Grace: 24 * time.Hour, Now: func() time.Time { return now }}
	if n, err := j.RunOnce(context.Background()); err != nil || n != 1 {
		t.Fatalf("RunOnce = %d, %v", n, err)
	}
	if !repo.cutoff.Equal(now.Add(-24 * time.Hour)) {
		t.Fatalf("cutoff = %s", repo.cutoff)
	}
}

func TestEveryRunsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ran := make(chan struct{}, 1)
	every(ctx, time.Hour, func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	})
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("fn not called")
	}
}
