package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/gym-membership/internal/model"
)

const membershipColumns = "m.id, m.user_id, m.plan_id, COALESCE(p.name, ''), m.payment_id, m.start_date, m.end_date, m.remaining_classes, m.status, m.created_at, m.updated_at"

const membershipFrom = " FROM active_memberships m LEFT JOIN membership_plans p ON p.id = m.plan_id"

// MembershipRepo stores active memberships, the entitlements consumed by
// check-ins.
type MembershipRepo struct {
	db *sql.DB
}

func NewMembershipRepo(db *sql.DB) *MembershipRepo { return &MembershipRepo{db: db} }

// CreateTx inserts m inside tx.
func (r *MembershipRepo) CreateTx(ctx context.Context, tx *sql.Tx, m *model.ActiveMembership) error {
	now := nowUTC()
	if m.Status == "" {
		m.Status = model.MembershipActive
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO active_memberships (user_id, plan_id, payment_id, start_date, end_date, remaining_classes, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.UserID, m.PlanID, m.PaymentID, m.StartDate, m.EndDate, m.RemainingClasses, m.Status, now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	m.CreatedAt, m.UpdatedAt = now, now
	return nil
}

func (r *MembershipRepo) GetByID(ctx context.Context, id uint64) (*model.ActiveMembership, error) {
	return r.getByID(ctx, r.db, id)
}

func (r *MembershipRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.ActiveMembership, error) {
	return r.getByID(ctx, tx, id)
}

func (r *MembershipRepo) getByID(ctx context.Context, q querier, id uint64) (*model.ActiveMembership, error) {
	row := q.QueryRowContext(ctx, "SELECT "+membershipColumns+membershipFrom+" WHERE m.id = ?", id)
	m, err := scanMembership(row)
	return m, notFound(err, ErrMembershipNotFound)
}

// ListByUser returns a user's memberships, newest first.
func (r *MembershipRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.ActiveMembership, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+membershipColumns+membershipFrom+" WHERE m.user_id = ? ORDER BY m.start_date DESC, m.id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.ActiveMembership{}
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// FindUsableTx selects the membership a check-in on day should consume:
// active, started, not ended and with classes left (or unlimited).  The
// one ending soonest wins; open-ended memberships come last.
func (r *MembershipRepo) FindUsableTx(ctx context.Context, tx *sql.Tx, userID uint64, day model.Date) (*model.ActiveMembership, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+membershipColumns+membershipFrom+`
		  WHERE m.user_id = ? AND m.status = ? AND m.start_date <= ?
		    AND (m.end_date IS NULL OR m.end_date >= ?)
		    AND (m.remaining_classes IS NULL OR m.remaining_classes > 0)
		  ORDER BY CASE WHEN m.end_date IS NULL THEN 1 ELSE 0 END, m.end_date, m.id
		  LIMIT 1`,
		userID, model.MembershipActive, day, day)
	m, err := scanMembership(row)
	return m, notFound(err, ErrMembershipNotFound)
}

// ConsumeClassTx atomically takes one class from a limited membership.  It
// reports false when the balance was already zero or the membership is no
// longer active, so concurrent check-ins can never drive it negative.
func (r *MembershipRepo) ConsumeClassTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE active_memberships SET remaining_classes = remaining_classes - 1, updated_at = ?
		  WHERE id = ? AND status = ? AND remaining_classes > 0`,
		nowUTC(), id, model.MembershipActive)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RemainingTx reads the current class balance; nil means unlimited.
func (r *MembershipRepo) RemainingTx(ctx context.Context, tx *sql.Tx, id uint64) (*int, error) {
	var remaining *int
	err := tx.QueryRowContext(ctx, "SELECT remaining_classes FROM active_memberships WHERE id = ?", id).Scan(&remaining)
	return remaining, notFound(err, ErrMembershipNotFound)
}

// Update writes the administrator-adjustable columns of m.
func (r *MembershipRepo) Update(ctx context.Context, m *model.ActiveMembership) error {
	m.UpdatedAt = nowUTC()
	res, err := r.db.ExecContext(ctx,
		"UPDATE active_memberships SET end_date = ?, remaining_classes = ?, status = ?, updated_at = ? WHERE id = ?",
		m.EndDate, m.RemainingClasses, m.Status, m.UpdatedAt, m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, m.ID); err != nil {
			return err
		}
	}
	return nil
}

// ExpireEndedBefore marks active memberships whose end date is before day
// as expired and returns how many changed.
func (r *MembershipRepo) ExpireEndedBefore(ctx context.Context, day model.Date) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE active_memberships SET status = ?, updated_at = ? WHERE status = ? AND end_date IS NOT NULL AND end_date < ?",
		model.MembershipExpired, nowUTC(), model.MembershipActive, day)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanMembership(s rowScanner) (*model.ActiveMembership, error) {
	var m model.ActiveMembership
	if err := s.Scan(&m.ID, &m.UserID, &m.PlanID, &m.PlanName, &m.PaymentID, &m.StartDate, &m.EndDate,
		&m.RemainingClasses, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}
