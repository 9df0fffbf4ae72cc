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

// CheckIns records attendance and consumes membership classes.
type CheckIns struct {
	DB          *sql.DB
	Memberships *repository.MembershipRepo
	Classes     *repository.ClassRepo
	Sessions    *repository.SessionRepo
	Attendances *repository.AttendanceRepo
	Events      queue.Publisher
	Metrics     *metrics.Metrics
	Log         *slog.Logger
	clock
}

func NewCheckIns(db *sql.DB, events queue.Publisher, m *metrics.Metrics, log *slog.Logger, now func() time.Time, loc *time.Location) *CheckIns {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &CheckIns{
		DB:          db,
		Memberships: repository.NewMembershipRepo(db),
		Classes:     repository.NewClassRepo(db),
		Sessions:    repository.NewSessionRepo(db),
		Attendances: repository.NewAttendanceRepo(db),
		Events:      events,
		Metrics:     m,
		Log:         log,
		clock:       clock{Now: now, Location: loc},
	}
}

// CheckInResult is what a successful check-in returns.
type CheckInResult struct {
	Attendance       *model.Attendance
	Session          *model.ClassSession
	MembershipID     uint64
	RemainingClasses *int
}

// CheckInSession checks the caller into an existing session.
func (s *CheckIns) CheckInSession(ctx context.Context, who model.Identity, sessionID uint64) (*CheckInResult, error) {
	return s.checkIn(ctx, who, func(tx *sql.Tx, _ model.Date) (*model.ClassSession, *model.Class, error) {
		sess, err := s.Sessions.GetByIDTx(ctx, tx, sessionID)
		if err != nil {
			return nil, nil, err
		}
		class, err := s.Classes.GetByIDTx(ctx, tx, sess.ClassID)
		if err != nil {
			return nil, nil, err
		}
		return sess, class, nil
	})
}

// CheckInClass checks the caller into today's session of a class, creating
// the session from the class schedule when it does not exist yet.
func (s *CheckIns) CheckInClass(ctx context.Context, who model.Identity, classID uint64) (*CheckInResult, error) {
	return s.checkIn(ctx, who, func(tx *sql.Tx, today model.Date) (*model.ClassSession, *model.Class, error) {
		class, err := s.Classes.GetByIDTx(ctx, tx, classID)
		if err != nil {
			return nil, nil, err
		}
		sess, err := s.Sessions.FindOrCreateTx(ctx, tx, class, today)
		if err != nil {
			return nil, nil, err
		}
		return sess, class, nil
	})
}

type sessionResolver func(tx *sql.Tx, today model.Date) (*model.ClassSession, *model.Class, error)

// checkIn runs the whole check-in in one transaction.  The conditional
// decrement in ConsumeClassTx serializes check-ins on the same membership;
// the session row lock serializes capacity checks on the same session.
func (s *CheckIns) checkIn(ctx context.Context, who model.Identity, resolve sessionResolver) (*CheckInResult, error) {
	if !who.Authenticated() {
		return nil, ErrUnauthenticated
	}
	now := s.now()
	today := s.today()

	var res CheckInResult
	err := repository.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		membership, err := s.Memberships.FindUsableTx(ctx, tx, who.UserID, today)
		if err != nil {
			if errors.Is(err, repository.ErrMembershipNotFound) {
				return ErrNoUsableMembership
			}
			return err
		}

		sess, class, err := resolve(tx, today)
		if err != nil {
			return err
		}

		exists, err := s.Attendances.ExistsTx(ctx, tx, who.UserID, sess.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyCheckedIn
		}

		if class.Capacity != nil {
			if err := s.Sessions.LockTx(ctx, tx, sess.ID); err != nil {
				return err
			}
			n, err := s.Attendances.CountBySessionTx(ctx, tx, sess.ID)
			if err != nil {
				return err
			}
			if n >= *class.Capacity {
				return ErrSessionFull
			}
		}

		if !membership.Unlimited() {
			ok, err := s.Memberships.ConsumeClassTx(ctx, tx, membership.ID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrNoUsableMembership
			}
		}

		membershipID := membership.ID
		att := &model.Attendance{
			UserID:       who.UserID,
			SessionID:    sess.ID,
			MembershipID: &membershipID,
			CheckInAt:    now.UTC(),
			ClassID:      class.ID,
			ClassName:    class.Name,
			SessionDate:  &sess.Date,
		}
		if err := s.Attendances.CreateTx(ctx, tx, att); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyCheckedIn
			}
			return err
		}

		remaining, err := s.Memberships.RemainingTx(ctx, tx, membership.ID)
		if err != nil {
			return err
		}
		sess.Attendees++
		res = CheckInResult{Attendance: att, Session: sess, MembershipID: membership.ID, RemainingClasses: remaining}
		return nil
	})
	s.Metrics.CheckIn(checkInOutcome(err))
	if err != nil {
		return nil, err
	}

	s.publish(ctx, queue.AttendanceRecordedQueue, queue.AttendanceRecorded{
		AttendanceID:     res.Attendance.ID,
		UserID:           who.UserID,
		SessionID:        res.Session.ID,
		ClassID:          res.Session.ClassID,
		ClassName:        res.Attendance.ClassName,
		SessionDate:      res.Session.Date.String(),
		MembershipID:     res.MembershipID,
		RemainingClasses: res.RemainingClasses,
		CheckInAt:        res.Attendance.CheckInAt.Format(time.RFC3339),
	})
	return &res, nil
}

// CheckOut stamps the check-out time on one of the caller's attendances.
// Administrators may check out anyone.
func (s *CheckIns) CheckOut(ctx context.Context, who model.Identity, attendanceID uint64) (*model.Attendance, error) {
	if !who.Authenticated() {
		return nil, ErrUnauthenticated
	}
	att, err := s.Attendances.GetByID(ctx, attendanceID)
	if err != nil {
		return nil, err
	}
	if att.UserID != who.UserID && !who.IsAdmin() {
		return nil, ErrForbidden
	}
	at := s.now().UTC()
	if err := s.Attendances.CheckOut(ctx, attendanceID, at); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyCheckedOut
		}
		return nil, err
	}
	att.CheckOutAt = &at
	return att, nil
}

func (s *CheckIns) publish(ctx context.Context, q string, data any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.Events.Publish(ctx, q, data); err != nil && s.Log != nil {
		s.Log.Warn("publish event failed", "queue", q, "err", err)
	}
}

func checkInOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.CheckInOK
	case errors.Is(err, ErrNoUsableMembership):
		return metrics.CheckInNoMembership
	case errors.Is(err, ErrAlreadyCheckedIn):
		return metrics.CheckInDuplicate
	case errors.Is(err, ErrSessionFull):
		return metrics.CheckInFull
	case errors.Is(err, repository.ErrNotFound):
		return metrics.CheckInNotFound
	}
	return metrics.CheckInError
}
