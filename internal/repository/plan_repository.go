package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/gym-membership/internal/model"
)

const planColumns = "p.id, p.user_id, COALESCE(u.name, ''), p.name, p.type, p.price_cents, p.duration_days, p.included_classes, p.description, p.created_at, p.updated_at"

// PlanRepo stores membership plans.
type PlanRepo struct {
	db *sql.DB
}

func NewPlanRepo(db *sql.DB) *PlanRepo { return &PlanRepo{db: db} }

// DB exposes the handle so services can open transactions spanning
// several repositories.
func (r *PlanRepo) DB() *sql.DB { return r.db }

// Create inserts p.  An unknown owner yields ErrUserNotFound.
func (r *PlanRepo) Create(ctx context.Context, p *model.MembershipPlan) error {
	now := nowUTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO membership_plans (user_id, name, type, price_cents, duration_days, included_classes, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Name, p.Type, p.Price, p.DurationDays, p.IncludedClasses, p.Description, now, now)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

// GetByID returns the plan joined with its owner's name.
func (r *PlanRepo) GetByID(ctx context.Context, id uint64) (*model.MembershipPlan, error) {
	return r.getByID(ctx, r.db, id)
}

// GetByIDTx is GetByID inside tx.
func (r *PlanRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.MembershipPlan, error) {
	return r.getByID(ctx, tx, id)
}

func (r *PlanRepo) getByID(ctx context.Context, q querier, id uint64) (*model.MembershipPlan, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+planColumns+" FROM membership_plans p LEFT JOIN users u ON u.id = p.user_id WHERE p.id = ?", id)
	p, err := scanPlan(row)
	return p, notFound(err, ErrPlanNotFound)
}

// List returns every plan joined with the owning user's display name.
func (r *PlanRepo) List(ctx context.Context) ([]*model.MembershipPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+planColumns+" FROM membership_plans p LEFT JOIN users u ON u.id = p.user_id ORDER BY p.id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.MembershipPlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update writes every mutable column of p.
func (r *PlanRepo) Update(ctx context.Context, p *model.MembershipPlan) error {
	p.UpdatedAt = nowUTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE membership_plans SET user_id = ?, name = ?, type = ?, price_cents = ?, duration_days = ?, included_classes = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		p.UserID, p.Name, p.Type, p.Price, p.DurationDays, p.IncludedClasses, p.Description, p.UpdatedAt, p.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a plan together with the memberships, revenue rows and
// payments that reference it, inside one transaction.
func (r *PlanRepo) Delete(ctx context.Context, id uint64) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists uint64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM membership_plans WHERE id = ?", id).Scan(&exists); err != nil {
			return notFound(err, ErrPlanNotFound)
		}
		stmts := []string{
			"UPDATE attendances SET membership_id = NULL WHERE membership_id IN (SELECT id FROM active_memberships WHERE plan_id = ?)",
			"DELETE FROM active_memberships WHERE plan_id = ?",
			"DELETE FROM daily_revenue WHERE payment_id IN (SELECT id FROM payments WHERE plan_id = ?)",
			"DELETE FROM payments WHERE plan_id = ?",
			"DELETE FROM membership_plans WHERE id = ?",
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func scanPlan(s rowScanner) (*model.MembershipPlan, error) {
	var p model.MembershipPlan
	if err := s.Scan(&p.ID, &p.UserID, &p.UserName, &p.Name, &p.Type, &p.Price, &p.DurationDays,
		&p.IncludedClasses, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
