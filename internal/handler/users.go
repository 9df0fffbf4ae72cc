package handler

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-membership/internal/config"
	"github.com/iliyamo/gym-membership/internal/model"
	"github.com/iliyamo/gym-membership/internal/repository"
	"github.com/iliyamo/gym-membership/internal/service"
	"github.com/iliyamo/gym-membership/internal/validation"
)

// UserHandler serves /v1/users and, when Roles is set, /v1/clients: the
// same CRUD restricted to users holding one of Roles.
type UserHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	Roles  []model.Role
	Log    *slog.Logger
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, log *slog.Logger) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Tokens: t, Log: log}
}

// NewClientHandler restricts the user endpoints to client and family
// accounts.
func NewClientHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, log *slog.Logger) *UserHandler {
	h := NewUserHandler(cfg, u, t, log)
	h.Roles = model.ClientRoles
	return h
}

type userReq struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email      *string `json:"email" validate:"omitempty,email,max=255"`
	Password   *string `json:"password" validate:"omitempty,min=6,max=72"`
	Role       *string `json:"role" validate:"omitempty,role"`
	Status     *string `json:"status" validate:"omitempty,user_status"`
	NationalID *string `json:"national_id" validate:"omitempty,max=50"`
	BirthDate  *string `json:"birth_date" validate:"omitempty,isodate"`
	Gender     *string `json:"gender" validate:"omitempty,gender"`

	Nombre *string `json:"nombre"`
	Rol    *string `json:"rol"`
	Estado *string `json:"estado"`
}

func (r *userReq) normalize() {
	r.Name = firstNonNil(r.Name, r.Nombre)
	r.Role = firstNonNil(r.Role, r.Rol)
	r.Status = firstNonNil(r.Status, r.Estado)
}

// apply copies the present fields onto u.  Tags have already validated
// every enum, so the parse results are ignored.
func (r *userReq) apply(u *model.User) {
	if r.Name != nil {
		u.Name = strings.TrimSpace(*r.Name)
	}
	if r.Email != nil {
		u.Email = *r.Email
	}
	if r.Role != nil {
		u.Role, _ = model.ParseRole(*r.Role)
	}
	if r.Status != nil {
		u.Status, _ = model.ParseUserStatus(*r.Status)
	}
	if r.NationalID != nil {
		u.NationalID = nil
		if v := strings.TrimSpace(*r.NationalID); v != "" {
			u.NationalID = &v
		}
	}
	if r.BirthDate != nil {
		u.BirthDate = parseDatePtr(r.BirthDate)
	}
	if r.Gender != nil {
		u.Gender = nil
		if g, ok := model.ParseGender(*r.Gender); ok {
			u.Gender = &g
		}
	}
}

// checkRole rejects roles outside the handler's subset.
func (h *UserHandler) checkRole(role model.Role) error {
	if len(h.Roles) > 0 && !slices.Contains(h.Roles, role) {
		return validation.Field("role", "The selected role is invalid.")
	}
	return nil
}

func (h *UserHandler) List(c echo.Context) error {
	users, err := h.Users.List(c.Request().Context(), h.Roles...)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Show(c echo.Context) error {
	u, err := h.load(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Create(c echo.Context) error {
	var req userReq
	err := bindValid(c, &req)
	if err == errInvalidBody {
		return respondError(c, h.Log, err)
	}
	if err := validation.Require(err, map[string]bool{
		"name":     req.Name != nil,
		"email":    req.Email != nil,
		"password": req.Password != nil,
	}); err != nil {
		return respondError(c, h.Log, err)
	}

	u := &model.User{Role: model.RoleUser, Status: model.UserActive}
	if len(h.Roles) > 0 {
		u.Role = h.Roles[0]
	}
	req.apply(u)
	if err := h.checkRole(u.Role); err != nil {
		return respondError(c, h.Log, err)
	}
	if u.Role == model.RoleAdministrator && !getIdentity(c).IsAdmin() {
		return respondError(c, h.Log, service.ErrForbidden)
	}
	if err := h.Users.Create(c.Request().Context(), u, *req.Password, h.Cfg.BcryptCost); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, u)
}

// Update serves both PUT and PATCH; absent fields keep their values.
func (h *UserHandler) Update(c echo.Context) error {
	u, err := h.load(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	who := getIdentity(c)
	if u.ID != who.UserID && !who.IsAdmin() {
		return respondError(c, h.Log, service.ErrForbidden)
	}

	var req userReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	wasActive := u.IsActive()
	req.apply(u)
	if err := h.checkRole(u.Role); err != nil {
		return respondError(c, h.Log, err)
	}
	if u.Role == model.RoleAdministrator && !who.IsAdmin() {
		return respondError(c, h.Log, service.ErrForbidden)
	}

	ctx := c.Request().Context()
	if err := h.Users.Update(ctx, u, deref(req.Password), h.Cfg.BcryptCost); err != nil {
		return respondError(c, h.Log, err)
	}
	if wasActive && !u.IsActive() {
		if err := h.Tokens.RevokeAllForUser(ctx, u.ID); err != nil {
			h.Log.Warn("revoke tokens of deactivated user failed", "user_id", u.ID, "err", err)
		}
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Delete(c echo.Context) error {
	u, err := h.load(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	who := getIdentity(c)
	if u.ID != who.UserID && !who.IsAdmin() {
		return respondError(c, h.Log, service.ErrForbidden)
	}
	if err := h.Users.Delete(c.Request().Context(), u.ID); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}

// load fetches the :id user, hiding users outside the handler's subset.
func (h *UserHandler) load(c echo.Context) (*model.User, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}
	return h.get(c.Request().Context(), id)
}

func (h *UserHandler) get(ctx context.Context, id uint64) (*model.User, error) {
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(h.Roles) > 0 && !slices.Contains(h.Roles, u.Role) {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}
