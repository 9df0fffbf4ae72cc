package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-membership/internal/model"
	"github.com/iliyamo/gym-membership/internal/repository"
	"github.com/iliyamo/gym-membership/internal/service"
	"github.com/iliyamo/gym-membership/internal/validation"
)

// PaymentHandler records payments and lets administrators adjust the
// memberships they opened.
type PaymentHandler struct {
	Service     *service.Payments
	Payments    *repository.PaymentRepo
	Memberships *repository.MembershipRepo
	Log         *slog.Logger
}

func NewPaymentHandler(s *service.Payments, p *repository.PaymentRepo, m *repository.MembershipRepo, log *slog.Logger) *PaymentHandler {
	return &PaymentHandler{Service: s, Payments: p, Memberships: m, Log: log}
}

type paymentReq struct {
	UserID *uint64      `json:"user_id" validate:"omitempty,gt=0"`
	PlanID *uint64      `json:"plan_id" validate:"omitempty,gt=0"`
	Amount *model.Money `json:"amount" validate:"omitempty,gte=0"`
	Method *string      `json:"method" validate:"omitempty,max=50"`
	Notes  *string      `json:"notes" validate:"omitempty,max=1000"`
	PaidAt *time.Time   `json:"paid_at"`

	IDUsuario *uint64      `json:"id_usuario"`
	IDPlan    *uint64      `json:"id_plan"`
	Monto     *model.Money `json:"monto"`
	Metodo    *string      `json:"metodo"`
}

func (r *paymentReq) normalize() {
	r.UserID = firstNonNil(r.UserID, r.IDUsuario)
	r.PlanID = firstNonNil(r.PlanID, r.IDPlan)
	r.Amount = firstNonNil(r.Amount, r.Monto)
	r.Method = firstNonNil(r.Method, r.Metodo)
}

// Create records a payment together with its revenue row and membership.
func (h *PaymentHandler) Create(c echo.Context) error {
	var req paymentReq
	err := bindValid(c, &req)
	if err == errInvalidBody {
		return respondError(c, h.Log, err)
	}
	if err := validation.Require(err, map[string]bool{
		"user_id": req.UserID != nil,
		"plan_id": req.PlanID != nil,
	}); err != nil {
		return respondError(c, h.Log, err)
	}
	res, err := h.Service.Record(c.Request().Context(), getIdentity(c), service.RecordPaymentInput{
		UserID: *req.UserID,
		PlanID: *req.PlanID,
		Amount: req.Amount,
		Method: trimmed(req.Method),
		Notes:  trimmed(req.Notes),
		PaidAt: req.PaidAt,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"payment":    res.Payment,
		"revenue":    res.Revenue,
		"membership": res.Membership,
	})
}

// List returns payments, optionally filtered by ?user_id=.
func (h *PaymentHandler) List(c echo.Context) error {
	var userID uint64
	if s := strings.TrimSpace(c.QueryParam("user_id")); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return respondError(c, h.Log, validation.Field("user_id", "The user id must be a number."))
		}
		userID = id
	}
	list, err := h.Payments.List(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *PaymentHandler) Show(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	p, err := h.Payments.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, p)
}

type membershipReq struct {
	EndDate          model.Nullable[string] `json:"end_date" validate:"omitempty,isodate"`
	RemainingClasses model.Nullable[int]    `json:"remaining_classes" validate:"omitempty,gte=0"`
	Status           *string                `json:"status" validate:"omitempty,membership_status"`
}

// UpdateMembership adjusts end date, remaining classes or status of an
// active membership.  A null end date makes it open ended; null remaining
// classes make it unlimited.
func (h *PaymentHandler) UpdateMembership(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx := c.Request().Context()
	m, err := h.Memberships.GetByID(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var req membershipReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	if req.EndDate.Set {
		m.EndDate = parseDatePtr(req.EndDate.Value)
		if m.EndDate != nil && m.EndDate.Before(m.StartDate) {
			return respondError(c, h.Log, validation.Field("end_date", "The end date must be a date after or equal to start date."))
		}
	}
	if req.RemainingClasses.Set {
		m.RemainingClasses = req.RemainingClasses.Value
	}
	if req.Status != nil {
		m.Status, _ = model.ParseMembershipStatus(*req.Status)
	}
	if err := h.Memberships.Update(ctx, m); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, m)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
