package model

import "time"

// MembershipPlan is a purchasable plan.  UserID is the user that created
// (owns) it; UserName is filled by listing queries that join users.
type MembershipPlan struct {
	ID              uint64    `json:"id"`
	UserID          uint64    `json:"user_id"`
	UserName        string    `json:"user_name,omitempty"`
	Name            string    `json:"name"`
	Type            PlanType  `json:"type"`
	Price           Money     `json:"price"`
	DurationDays    *int      `json:"duration_days"`
	IncludedClasses *int      `json:"included_classes"`
	Description     *string   `json:"description"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ActiveMembership is a user's entitlement bought with a Payment.
// RemainingClasses nil means unlimited; EndDate nil means open ended.
type ActiveMembership struct {
	ID               uint64           `json:"id"`
	UserID           uint64           `json:"user_id"`
	PlanID           uint64           `json:"plan_id"`
	PlanName         string           `json:"plan_name,omitempty"`
	PaymentID        uint64           `json:"payment_id"`
	StartDate        Date             `json:"start_date"`
	EndDate          *Date            `json:"end_date"`
	RemainingClasses *int             `json:"remaining_classes"`
	Status           MembershipStatus `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Unlimited reports whether check-ins never consume a class.
func (m *ActiveMembership) Unlimited() bool { return m.RemainingClasses == nil }

// UsableOn reports whether the membership grants access on the given day.
func (m *ActiveMembership) UsableOn(day Date) bool {
	if m.Status != MembershipActive {
		return false
	}
	if day.Before(m.StartDate) {
		return false
	}
	if m.EndDate != nil && day.After(*m.EndDate) {
		return false
	}
	return m.RemainingClasses == nil || *m.RemainingClasses > 0
}

// Payment is an immutable record of money received for a plan.
type Payment struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	PlanID    uint64    `json:"plan_id"`
	PaidAt    time.Time `json:"paid_at"`
	Amount    Money     `json:"amount"`
	Method    *string   `json:"method"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// DailyRevenue is the append-only ledger row written alongside every
// Payment.  Its key is (Date, UserID, PaymentID).
type DailyRevenue struct {
	Date      Date      `json:"date"`
	UserID    uint64    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	PaymentID uint64    `json:"payment_id"`
	Amount    Money     `json:"amount"`
	Method    *string   `json:"method"`
	CreatedAt time.Time `json:"created_at"`
}

// DailyRevenueTotal aggregates the ledger per day.
type DailyRevenueTotal struct {
	Date     Date  `json:"date"`
	Payments int   `json:"payments"`
	Amount   Money `json:"amount"`
}
