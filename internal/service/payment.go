package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/iliyamo/gym-membership/internal/metrics"
	"github.com/iliyamo/gym-membership/internal/model"
	"github.com/iliyamo/gym-membership/internal/queue"
	"github.com/iliyamo/gym-membership/internal/repository"
)

// Payments records payments made at the front desk.  Each payment writes
// exactly one revenue ledger row and opens the membership it buys.
type Payments struct {
	DB          *sql.DB
	Plans       *repository.PlanRepo
	Payments    *repository.PaymentRepo
	Revenue     *repository.RevenueRepo
	Memberships *repository.MembershipRepo
	Events      queue.Publisher
	Metrics     *metrics.Metrics
	Log         *slog.Logger
	clock
}

func NewPayments(db *sql.DB, events queue.Publisher, m *metrics.Metrics, log *slog.Logger, now func() time.Time, loc *time.Location) *Payments {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &Payments{
		DB:          db,
		Plans:       repository.NewPlanRepo(db),
		Payments:    repository.NewPaymentRepo(db),
		Revenue:     repository.NewRevenueRepo(db),
		Memberships: repository.NewMembershipRepo(db),
		Events:      events,
		Metrics:     m,
		Log:         log,
		clock:       clock{Now: now, Location: loc},
	}
}

// RecordPaymentInput describes a payment.  A nil Amount charges the plan
// price; a nil PaidAt means now.
type RecordPaymentInput struct {
	UserID uint64
	PlanID uint64
	Amount *model.Money
	Method *string
	Notes  *string
	PaidAt *time.Time
}

type PaymentResult struct {
	Payment    *model.Payment
	Revenue    *model.DailyRevenue
	Membership *model.ActiveMembership
}

// Record stores the payment, its revenue row and the new membership in one
// transaction.  Only administrators may record payments.
func (s *Payments) Record(ctx context.Context, who model.Identity, in RecordPaymentInput) (*PaymentResult, error) {
	if !who.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if !who.IsAdmin() {
		return nil, ErrForbidden
	}
	paidAt := s.now()
	if in.PaidAt != nil {
		paidAt = *in.PaidAt
	}
	day := model.DateOf(paidAt.In(s.loc()))

	var res PaymentResult
	var plan *model.MembershipPlan
	err := repository.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		plan, err = s.Plans.GetByIDTx(ctx, tx, in.PlanID)
		if err != nil {
			return err
		}
		amount := plan.Price
		if in.Amount != nil {
			amount = *in.Amount
		}

		p := &model.Payment{UserID: in.UserID, PlanID: plan.ID, PaidAt: paidAt.UTC(), Amount: amount, Method: in.Method, Notes: in.Notes}
		if err := s.Payments.CreateTx(ctx, tx, p); err != nil {
			return err
		}

		rev := &model.DailyRevenue{Date: day, UserID: p.UserID, PaymentID: p.ID, Amount: p.Amount, Method: p.Method}
		if err := s.Revenue.InsertTx(ctx, tx, rev); err != nil {
			return err
		}

		m := MembershipFor(plan, p, day)
		if err := s.Memberships.CreateTx(ctx, tx, m); err != nil {
			return err
		}
		m.PlanName = plan.Name
		res = PaymentResult{Payment: p, Revenue: rev, Membership: m}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) && s.Log != nil {
			s.Log.Error("revenue row already present for new payment", "err", err)
		}
		return nil, err
	}

	s.Metrics.Payment(int64(res.Payment.Amount))
	method := ""
	if res.Payment.Method != nil {
		method = *res.Payment.Method
	}
	s.publish(ctx, queue.PaymentRecordedQueue, queue.PaymentRecorded{
		PaymentID:    res.Payment.ID,
		UserID:       res.Payment.UserID,
		PlanID:       plan.ID,
		PlanName:     plan.Name,
		MembershipID: res.Membership.ID,
		AmountCents:  int64(res.Payment.Amount),
		Method:       method,
		PaidAt:       res.Payment.PaidAt.Format(time.RFC3339),
	})
	return &res, nil
}

// MembershipFor derives the membership a payment on day buys: it ends
// DurationDays later (open ended when unset or zero) and carries the plan's
// included classes (unlimited only when unset; zero grants nothing).
func MembershipFor(plan *model.MembershipPlan, p *model.Payment, day model.Date) *model.ActiveMembership {
	m := &model.ActiveMembership{
		UserID:    p.UserID,
		PlanID:    plan.ID,
		PaymentID: p.ID,
		StartDate: day,
		Status:    model.MembershipActive,
	}
	if plan.DurationDays != nil && *plan.DurationDays > 0 {
		end := day.AddDays(*plan.DurationDays)
		m.EndDate = &end
	}
	if plan.IncludedClasses != nil {
		n := max(*plan.IncludedClasses, 0)
		m.RemainingClasses = &n
	}
	return m
}

func (s *Payments) publish(ctx context.Context, q string, data any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.Events.Publish(ctx, q, data); err != nil && s.Log != nil {
		s.Log.Warn("publish event failed", "queue", q, "err", err)
	}
}
