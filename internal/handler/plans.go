package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-membership/internal/model"
	"github.com/iliyamo/gym-membership/internal/repository"
	"github.com/iliyamo/gym-membership/internal/service"
	"github.com/iliyamo/gym-membership/internal/validation"
)

// PlanHandler serves membership plans under /v1/memberships.
type PlanHandler struct {
	Plans *repository.PlanRepo
	Log   *slog.Logger
}

func NewPlanHandler(p *repository.PlanRepo, log *slog.Logger) *PlanHandler {
	return &PlanHandler{Plans: p, Log: log}
}

type planReq struct {
	UserID          *uint64      `json:"user_id" validate:"omitempty,gt=0"`
	Name            *string      `json:"name" validate:"omitempty,min=1,max=255"`
	Type            *string      `json:"type" validate:"omitempty,plan_type"`
	Price           *model.Money `json:"price" validate:"omitempty,gte=0"`
	DurationDays    *int         `json:"duration_days" validate:"omitempty,gte=0"`
	IncludedClasses *int         `json:"included_classes" validate:"omitempty,gte=0"`
	Description     *string      `json:"description" validate:"omitempty,max=1000"`

	IDUsuario       *uint64      `json:"id_usuario"`
	Nombre          *string      `json:"nombre"`
	Tipo            *string      `json:"tipo"`
	Precio          *model.Money `json:"precio"`
	DuracionDias    *int         `json:"duracion_dias"`
	ClasesIncluidas *int         `json:"clases_incluidas"`
	Descripcion     *string      `json:"descripcion"`
}

func (r *planReq) normalize() {
	r.UserID = firstNonNil(r.UserID, r.IDUsuario)
	r.Name = firstNonNil(r.Name, r.Nombre)
	r.Type = firstNonNil(r.Type, r.Tipo)
	r.Price = firstNonNil(r.Price, r.Precio)
	r.DurationDays = firstNonNil(r.DurationDays, r.DuracionDias)
	r.IncludedClasses = firstNonNil(r.IncludedClasses, r.ClasesIncluidas)
	r.Description = firstNonNil(r.Description, r.Descripcion)
}

func (r *planReq) apply(p *model.MembershipPlan) {
	if r.UserID != nil {
		p.UserID = *r.UserID
	}
	if r.Name != nil {
		p.Name = strings.TrimSpace(*r.Name)
	}
	if r.Type != nil {
		p.Type, _ = model.ParsePlanType(*r.Type)
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.DurationDays != nil {
		p.DurationDays = r.DurationDays
	}
	if r.IncludedClasses != nil {
		p.IncludedClasses = r.IncludedClasses
	}
	if r.Description != nil {
		p.Description = r.Description
	}
}

func (h *PlanHandler) List(c echo.Context) error {
	plans, err := h.Plans.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, plans)
}

func (h *PlanHandler) Show(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	p, err := h.Plans.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Create stores a plan owned by the caller, or by user_id when the caller
// is an administrator.
func (h *PlanHandler) Create(c echo.Context) error {
	var req planReq
	err := bindValid(c, &req)
	if err == errInvalidBody {
		return respondError(c, h.Log, err)
	}
	if err := validation.Require(err, map[string]bool{
		"name":  req.Name != nil,
		"type":  req.Type != nil,
		"price": req.Price != nil,
	}); err != nil {
		return respondError(c, h.Log, err)
	}
	who := getIdentity(c)
	p := &model.MembershipPlan{UserID: who.UserID}
	req.apply(p)
	if p.UserID != who.UserID && !who.IsAdmin() {
		return respondError(c, h.Log, service.ErrForbidden)
	}
	ctx := c.Request().Context()
	if err := h.Plans.Create(ctx, p); err != nil {
		return respondError(c, h.Log, err)
	}
	if created, err := h.Plans.GetByID(ctx, p.ID); err == nil {
		p = created
	}
	return c.JSON(http.StatusCreated, p)
}

// Update serves PUT and PATCH.  Non-administrators may only touch their
// own plans and cannot hand them to someone else.
func (h *PlanHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx := c.Request().Context()
	p, err := h.Plans.GetByID(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	who := getIdentity(c)
	if p.UserID != who.UserID && !who.IsAdmin() {
		return respondError(c, h.Log, service.ErrForbidden)
	}
	var req planReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	req.apply(p)
	if p.UserID != who.UserID && !who.IsAdmin() {
		return respondError(c, h.Log, service.ErrForbidden)
	}
	if err := h.Plans.Update(ctx, p); err != nil {
		return respondError(c, h.Log, err)
	}
	if updated, err := h.Plans.GetByID(ctx, p.ID); err == nil {
		p = updated
	}
	return c.JSON(http.StatusOK, p)
}

// Delete removes the plan named by the :id path parameter.
func (h *PlanHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return h.delete(c, id)
}

// DeleteByBody accepts {"id": N} for clients that send the id in the
// request body.
func (h *PlanHandler) DeleteByBody(c echo.Context) error {
	var body struct {
		ID json.RawMessage `json:"id"`
	}
	if err := c.Bind(&body); err != nil {
		return respondError(c, h.Log, errInvalidBody)
	}
	id, err := bodyID(body.ID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return h.delete(c, id)
}

func (h *PlanHandler) delete(c echo.Context, id uint64) error {
	ctx := c.Request().Context()
	p, err := h.Plans.GetByID(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	who := getIdentity(c)
	if p.UserID != who.UserID && !who.IsAdmin() {
		return respondError(c, h.Log, service.ErrForbidden)
	}
	if err := h.Plans.Delete(ctx, id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "membership deleted"})
}

// bodyID accepts a JSON number or a numeric string.
func bodyID(raw json.RawMessage) (uint64, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0, validation.Field("id", "The id field is required.")
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, validation.Field("id", "The id must be a number.")
	}
	return id, nil
}
