package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/gym-membership/internal/metrics"
	"github.com/iliyamo/gym-membership/internal/model"
	"github.com/iliyamo/gym-membership/internal/repository"
	"github.com/iliyamo/gym-membership/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	queues []string
}

func (p *recordingPublisher) Publish(_ context.Context, q string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queues = append(p.queues, q)
	return nil
}

func (p *recordingPublisher) count(q string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, got := range p.queues {
		if got == q {
			n++
		}
	}
	return n
}

type fixture struct {
	db       *sql.DB
	events   *recordingPublisher
	payments *Payments
	checkIns *CheckIns
	admin    model.Identity
	client   model.Identity
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	clk := func() time.Time { return now }
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	events := &recordingPublisher{}
	m := metrics.New(prometheus.NewRegistry())

	users := repository.NewUserRepo(db)
	admin := &model.User{Name: "Admin", Email: "admin@gym.test", Role: model.RoleAdministrator}
	client := &model.User{Name: "Ana", Email: "ana@gym.test", Role: model.RoleClient}
	for _, u := range []*model.User{admin, client} {
		if err := users.Create(context.Background(), u, "secret123", bcrypt.MinCost); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	return &fixture{
		db:       db,
		events:   events,
		payments: NewPayments(db, events, m, log, clk, time.UTC),
		checkIns: NewCheckIns(db, events, m, log, clk, time.UTC),
		admin:    model.Identity{UserID: admin.ID, Role: model.RoleAdministrator},
		client:   model.Identity{UserID: client.ID, Role: model.RoleClient},
		now:      now,
	}
}

func (f *fixture) plan(t *testing.T, classes, days *int) *model.MembershipPlan {
	t.Helper()
	p := &model.MembershipPlan{UserID: f.admin.UserID, Name: "Mensual 8", Type: model.PlanMonthly, Price: 4990, IncludedClasses: classes, DurationDays: days}
	if err := repository.NewPlanRepo(f.db).Create(context.Background(), p); err != nil {
		t.Fatalf("create plan: %v", err)
	}
	return p
}

func (f *fixture) buy(t *testing.T, plan *model.MembershipPlan) *PaymentResult {
	t.Helper()
	res, err := f.payments.Record(context.Background(), f.admin, RecordPaymentInput{UserID: f.client.UserID, PlanID: plan.ID})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	return res
}

// sessions creates a class and n sessions of it today at distinct hours.
func (f *fixture) sessions(t *testing.T, n int, capacity *int) []*model.ClassSession {
	t.Helper()
	ctx := context.Background()
	c := &model.Class{Name: "Spinning", Weekday: model.Monday, StartTime: "06:00:00", EndTime: "07:00:00", Capacity: capacity}
	if err := repository.NewClassRepo(f.db).Create(ctx, c); err != nil {
		t.Fatalf("create class: %v", err)
	}
	out := make([]*model.ClassSession, 0, n)
	for i := 0; i < n; i++ {
		s := &model.ClassSession{
			ClassID:   c.ID,
			Date:      model.DateOf(f.now),
			StartTime: model.Clock(fmt.Sprintf("%02d:00:00", 6+i)),
			EndTime:   model.Clock(fmt.Sprintf("%02d:45:00", 6+i)),
		}
		if err := repository.NewSessionRepo(f.db).Create(ctx, s); err != nil {
			t.Fatalf("create session: %v", err)
		}
		out = append(out, s)
	}
	return out
}

func intp(n int) *int { return &n }

func TestRecordPayment(t *testing.T) {
	f := newFixture(t)
	plan := f.plan(t, intp(8), intp(30))

	res := f.buy(t, plan)
	if res.Payment.Amount != plan.Price {
		t.Fatalf("amount = %v, want plan price %v", res.Payment.Amount, plan.Price)
	}
	m := res.Membership
	if m.StartDate.String() != "2024-01-15" || m.EndDate == nil || m.EndDate.String() != "2024-02-14" {
		t.Fatalf("membership dates = %s - %v", m.StartDate, m.EndDate)
	}
	if m.RemainingClasses == nil || *m.RemainingClasses != 8 || m.Status != model.MembershipActive {
		t.Fatalf("membership = %+v", m)
	}

	rows, err := repository.NewRevenueRepo(f.db).List(context.Background(), model.Date{}, model.Date{})
	if err != nil {
		t.Fatalf("revenue: %v", err)
	}
	if len(rows) != 1 || rows[0].PaymentID != res.Payment.ID || rows[0].Amount != 4990 {
		t.Fatalf("revenue rows = %+v", rows)
	}
	if f.events.count("payment.recorded") != 1 {
		t.Fatal("payment event not published")
	}

	custom := model.Money(1000)
	res2, err := f.payments.Record(context.Background(), f.admin, RecordPaymentInput{UserID: f.client.UserID, PlanID: plan.ID, Amount: &custom})
	if err != nil || res2.Payment.Amount != 1000 {
		t.Fatalf("custom amount = %+v, %v", res2, err)
	}
}

func TestRecordPaymentErrors(t *testing.T) {
	f := newFixture(t)
	plan := f.plan(t, nil, nil)
	ctx := context.Background()

	if _, err := f.payments.Record(ctx, f.client, RecordPaymentInput{UserID: f.client.UserID, PlanID: plan.ID}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.payments.Record(ctx, model.Identity{}, RecordPaymentInput{}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := f.payments.Record(ctx, f.admin, RecordPaymentInput{UserID: f.client.UserID, PlanID: 999}); !errors.Is(err, repository.ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
	if _, err := f.payments.Record(ctx, f.admin, RecordPaymentInput{UserID: 999, PlanID: plan.ID}); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	var n int
	if err := f.db.QueryRow("SELECT COUNT(*) FROM daily_revenue").Scan(&n); err != nil || n != 0 {
		t.Fatalf("revenue rows after failures = %d, %v", n, err)
	}
}

func TestEightClassPlanAllowsEightCheckIns(t *testing.T) {
	f := newFixture(t)
	bought := f.buy(t, f.plan(t, intp(8), intp(30)))
	sessions := f.sessions(t, 9, nil)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		res, err := f.checkIns.CheckInSession(ctx, f.client, sessions[i].ID)
		if err != nil {
			t.Fatalf("check-in %d: %v", i+1, err)
		}
		if res.RemainingClasses == nil || *res.RemainingClasses != 7-i {
			t.Fatalf("check-in %d remaining = %v", i+1, res.RemainingClasses)
		}
		if res.MembershipID != bought.Membership.ID {
			t.Fatalf("consumed membership %d, want %d", res.MembershipID, bought.Membership.ID)
		}
	}
	if _, err := f.checkIns.CheckInSession(ctx, f.client, sessions[8].ID); !errors.Is(err, ErrNoUsableMembership) {
		t.Fatalf("9th check-in: expected ErrNoUsableMembership, got %v", err)
	}
	if f.events.count("attendance.recorded") != 8 {
		t.Fatalf("attendance events = %d", f.events.count("attendance.recorded"))
	}
}

func TestZeroClassPlanGrantsNoCheckIns(t *testing.T) {
	f := newFixture(t)
	bought := f.buy(t, f.plan(t, intp(0), intp(30)))
	if bought.Membership.RemainingClasses == nil || *bought.Membership.RemainingClasses != 0 {
		t.Fatalf("remaining = %v, want 0", bought.Membership.RemainingClasses)
	}
	sessions := f.sessions(t, 3, nil)
	for i, s := range sessions {
		if _, err := f.checkIns.CheckInSession(context.Background(), f.client, s.ID); !errors.Is(err, ErrNoUsableMembership) {
			t.Fatalf("check-in %d: expected ErrNoUsableMembership, got %v", i+1, err)
		}
	}
}

func TestConcurrentCheckInsOnLastClass(t *testing.T) {
	f := newFixture(t)
	bought := f.buy(t, f.plan(t, intp(1), nil))
	sessions := f.sessions(t, 2, nil)

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.checkIns.CheckInSession(context.Background(), f.client, sessions[i].ID)
		}(i)
	}
	wg.Wait()

	ok, denied := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrNoUsableMembership):
			denied++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || denied != 1 {
		t.Fatalf("ok=%d denied=%d", ok, denied)
	}
	m, err := repository.NewMembershipRepo(f.db).GetByID(context.Background(), bought.Membership.ID)
	if err != nil {
		t.Fatalf("get membership: %v", err)
	}
	if m.RemainingClasses == nil || *m.RemainingClasses != 0 {
		t.Fatalf("remaining = %v", m.RemainingClasses)
	}
}

func TestConcurrentCheckInsRespectCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan := f.plan(t, intp(4), intp(30))
	sessions := f.sessions(t, 1, intp(2))

	members := make([]model.Identity, 5)
	for i := range members {
		u := &model.User{Name: fmt.Sprintf("Member %d", i), Email: fmt.Sprintf("member%d@gym.test", i), Role: model.RoleClient}
		if err := repository.NewUserRepo(f.db).Create(ctx, u, "secret123", bcrypt.MinCost); err != nil {
			t.Fatalf("create user: %v", err)
		}
		if _, err := f.payments.Record(ctx, f.admin, RecordPaymentInput{UserID: u.ID, PlanID: plan.ID}); err != nil {
			t.Fatalf("record payment: %v", err)
		}
		members[i] = model.Identity{UserID: u.ID, Role: model.RoleClient}
	}

	var wg sync.WaitGroup
	errs := make([]error, len(members))
	for i, who := range members {
		wg.Add(1)
		go func(i int, who model.Identity) {
			defer wg.Done()
			_, errs[i] = f.checkIns.CheckInSession(ctx, who, sessions[0].ID)
		}(i, who)
	}
	wg.Wait()

	ok, full := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrSessionFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 2 || full != 3 {
		t.Fatalf("ok=%d full=%d", ok, full)
	}
	var n int
	if err := f.db.QueryRow("SELECT COUNT(*) FROM attendances WHERE session_id = ?", sessions[0].ID).Scan(&n); err != nil || n != 2 {
		t.Fatalf("attendances = %d, %v", n, err)
	}
}

func TestCheckInRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sessions := f.sessions(t, 1, intp(1))

	if _, err := f.checkIns.CheckInSession(ctx, model.Identity{}, sessions[0].ID); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := f.checkIns.CheckInSession(ctx, f.client, sessions[0].ID); !errors.Is(err, ErrNoUsableMembership) {
		t.Fatalf("expected ErrNoUsableMembership without membership, got %v", err)
	}

	bought := f.buy(t, f.plan(t, intp(5), nil))
	if _, err := f.checkIns.CheckInSession(ctx, f.client, 9999); !errors.Is(err, repository.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := f.checkIns.CheckInSession(ctx, f.client, sessions[0].ID); err != nil {
		t.Fatalf("first check-in: %v", err)
	}
	if _, err := f.checkIns.CheckInSession(ctx, f.client, sessions[0].ID); !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Fatalf("expected ErrAlreadyCheckedIn, got %v", err)
	}

	// The admin buys a membership too; the single seat is taken.
	if _, err := f.payments.Record(ctx, f.admin, RecordPaymentInput{UserID: f.admin.UserID, PlanID: bought.Payment.PlanID}); err != nil {
		t.Fatalf("record admin payment: %v", err)
	}
	if _, err := f.checkIns.CheckInSession(ctx, f.admin, sessions[0].ID); !errors.Is(err, ErrSessionFull) {
		t.Fatalf("expected ErrSessionFull, got %v", err)
	}

	m, _ := repository.NewMembershipRepo(f.db).GetByID(ctx, bought.Membership.ID)
	if *m.RemainingClasses != 4 {
		t.Fatalf("rejected check-ins consumed classes: remaining = %d", *m.RemainingClasses)
	}
}

func TestCheckInClassCreatesTodaysSession(t *testing.T) {
	f := newFixture(t)
	f.buy(t, f.plan(t, nil, nil))
	ctx := context.Background()
	c := &model.Class{Name: "Yoga", Weekday: model.Monday, StartTime: "18:00:00", EndTime: "19:00:00"}
	if err := repository.NewClassRepo(f.db).Create(ctx, c); err != nil {
		t.Fatalf("create class: %v", err)
	}

	res, err := f.checkIns.CheckInClass(ctx, f.client, c.ID)
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if res.Session.Date.String() != "2024-01-15" || res.Session.StartTime != "18:00:00" {
		t.Fatalf("session = %+v", res.Session)
	}
	if res.RemainingClasses != nil {
		t.Fatalf("unlimited membership reported remaining %v", *res.RemainingClasses)
	}
	if _, err := f.checkIns.CheckInClass(ctx, f.client, c.ID); !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Fatalf("expected ErrAlreadyCheckedIn on same day, got %v", err)
	}
	if _, err := f.checkIns.CheckInClass(ctx, f.client, 4242); !errors.Is(err, repository.ErrClassNotFound) {
		t.Fatalf("expected ErrClassNotFound, got %v", err)
	}
}

func TestExpiredMembershipIsNotUsable(t *testing.T) {
	f := newFixture(t)
	plan := f.plan(t, intp(10), intp(30))
	old := f.now.AddDate(0, -2, 0)
	if _, err := f.payments.Record(context.Background(), f.admin, RecordPaymentInput{UserID: f.client.UserID, PlanID: plan.ID, PaidAt: &old}); err != nil {
		t.Fatalf("record: %v", err)
	}
	sessions := f.sessions(t, 1, nil)
	if _, err := f.checkIns.CheckInSession(context.Background(), f.client, sessions[0].ID); !errors.Is(err, ErrNoUsableMembership) {
		t.Fatalf("expected ErrNoUsableMembership for ended membership, got %v", err)
	}
}

func TestCheckOut(t *testing.T) {
	f := newFixture(t)
	f.buy(t, f.plan(t, nil, nil))
	sessions := f.sessions(t, 1, nil)
	ctx := context.Background()

	res, err := f.checkIns.CheckInSession(ctx, f.client, sessions[0].ID)
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	stranger := model.Identity{UserID: 777, Role: model.RoleClient}
	if _, err := f.checkIns.CheckOut(ctx, stranger, res.Attendance.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	att, err := f.checkIns.CheckOut(ctx, f.client, res.Attendance.ID)
	if err != nil || att.CheckOutAt == nil {
		t.Fatalf("check-out = %+v, %v", att, err)
	}
	if _, err := f.checkIns.CheckOut(ctx, f.admin, res.Attendance.ID); !errors.Is(err, ErrAlreadyCheckedOut) {
		t.Fatalf("expected ErrAlreadyCheckedOut, got %v", err)
	}
}
