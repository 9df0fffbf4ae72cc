package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-membership/internal/model"
	"github.com/iliyamo/gym-membership/internal/repository"
	"github.com/iliyamo/gym-membership/internal/validation"
)

// ClassHandler serves the class catalogue and its dated sessions.
// Reads are public; writes are mounted behind RequireRole(Administrator).
type ClassHandler struct {
	Classes     *repository.ClassRepo
	Sessions    *repository.SessionRepo
	Attendances *repository.AttendanceRepo
	Log         *slog.Logger
}

func NewClassHandler(c *repository.ClassRepo, s *repository.SessionRepo, a *repository.AttendanceRepo, log *slog.Logger) *ClassHandler {
	return &ClassHandler{Classes: c, Sessions: s, Attendances: a, Log: log}
}

type classReq struct {
	Name       *string             `json:"name" validate:"omitempty,min=1,max=255"`
	Weekday    *string             `json:"weekday" validate:"omitempty,weekday"`
	StartTime  *string             `json:"start_time" validate:"omitempty,clock"`
	EndTime    *string             `json:"end_time" validate:"omitempty,clock"`
	Capacity   model.Nullable[int] `json:"capacity" validate:"omitempty,gt=0"`
	Instructor *string             `json:"instructor" validate:"omitempty,max=255"`

	NombreClase *string             `json:"nombre_clase"`
	DiasSemana  *string             `json:"dias_semana"`
	HoraInicio  *string             `json:"hora_inicio"`
	HoraFinal   *string             `json:"hora_final"`
	CupoMaximo  model.Nullable[int] `json:"cupo_maximo"`
}

func (r *classReq) normalize() {
	r.Name = firstNonNil(r.Name, r.NombreClase)
	r.Weekday = firstNonNil(r.Weekday, r.DiasSemana)
	r.StartTime = firstNonNil(r.StartTime, r.HoraInicio)
	r.EndTime = firstNonNil(r.EndTime, r.HoraFinal)
	if !r.Capacity.Set {
		r.Capacity = r.CupoMaximo
	}
}

func (r *classReq) apply(cl *model.Class) {
	if r.Name != nil {
		cl.Name = strings.TrimSpace(*r.Name)
	}
	if r.Weekday != nil {
		cl.Weekday, _ = model.ParseWeekday(*r.Weekday)
	}
	if r.StartTime != nil {
		cl.StartTime, _ = model.ParseClock(*r.StartTime)
	}
	if r.EndTime != nil {
		cl.EndTime, _ = model.ParseClock(*r.EndTime)
	}
	// An explicit null lifts the cap.
	if r.Capacity.Set {
		cl.Capacity = r.Capacity.Value
	}
	if r.Instructor != nil {
		cl.Instructor = nil
		if v := strings.TrimSpace(*r.Instructor); v != "" {
			cl.Instructor = &v
		}
	}
}

// checkTimes enforces start < end.
func checkTimes(start, end model.Clock) error {
	if !start.Before(end) {
		return validation.Field("end_time", "The end time must be a time after start time.")
	}
	return nil
}

func (h *ClassHandler) List(c echo.Context) error {
	classes, err := h.Classes.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, classes)
}

func (h *ClassHandler) Show(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	cl, err := h.Classes.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, cl)
}

func (h *ClassHandler) Create(c echo.Context) error {
	var req classReq
	err := bindValid(c, &req)
	if err == errInvalidBody {
		return respondError(c, h.Log, err)
	}
	if err := validation.Require(err, map[string]bool{
		"name":       req.Name != nil,
		"weekday":    req.Weekday != nil,
		"start_time": req.StartTime != nil,
		"end_time":   req.EndTime != nil,
	}); err != nil {
		return respondError(c, h.Log, err)
	}
	cl := &model.Class{}
	req.apply(cl)
	if err := checkTimes(cl.StartTime, cl.EndTime); err != nil {
		return respondError(c, h.Log, err)
	}
	if err := h.Classes.Create(c.Request().Context(), cl); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, cl)
}

func (h *ClassHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx := c.Request().Context()
	cl, err := h.Classes.GetByID(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var req classReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	req.apply(cl)
	if err := checkTimes(cl.StartTime, cl.EndTime); err != nil {
		return respondError(c, h.Log, err)
	}
	if err := h.Classes.Update(ctx, cl); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, cl)
}

// Delete removes the class with its sessions and their attendances.
func (h *ClassHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if err := h.Classes.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "class deleted"})
}

type sessionReq struct {
	Date      *string `json:"date" validate:"omitempty,isodate"`
	StartTime *string `json:"start_time" validate:"omitempty,clock"`
	EndTime   *string `json:"end_time" validate:"omitempty,clock"`

	Fecha      *string `json:"fecha"`
	HoraInicio *string `json:"hora_inicio"`
	HoraFinal  *string `json:"hora_final"`
}

func (r *sessionReq) normalize() {
	r.Date = firstNonNil(r.Date, r.Fecha)
	r.StartTime = firstNonNil(r.StartTime, r.HoraInicio)
	r.EndTime = firstNonNil(r.EndTime, r.HoraFinal)
}

func (r *sessionReq) apply(s *model.ClassSession) {
	if d := parseDatePtr(r.Date); d != nil {
		s.Date = *d
	}
	if r.StartTime != nil {
		s.StartTime, _ = model.ParseClock(*r.StartTime)
	}
	if r.EndTime != nil {
		s.EndTime, _ = model.ParseClock(*r.EndTime)
	}
}

func (h *ClassHandler) ListSessions(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx := c.Request().Context()
	if _, err := h.Classes.GetByID(ctx, id); err != nil {
		return respondError(c, h.Log, err)
	}
	sessions, err := h.Sessions.ListByClass(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, sessions)
}

// CreateSession schedules a dated session of the :id class.  Times default
// to the class's own.
func (h *ClassHandler) CreateSession(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var req sessionReq
	err = bindValid(c, &req)
	if err == errInvalidBody {
		return respondError(c, h.Log, err)
	}
	if err := validation.Require(err, map[string]bool{"date": req.Date != nil}); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx := c.Request().Context()
	cl, err := h.Classes.GetByID(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	s := &model.ClassSession{ClassID: cl.ID, ClassName: cl.Name, StartTime: cl.StartTime, EndTime: cl.EndTime}
	req.apply(s)
	if err := checkTimes(s.StartTime, s.EndTime); err != nil {
		return respondError(c, h.Log, err)
	}
	if err := h.Sessions.Create(ctx, s); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *ClassHandler) ShowSession(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	s, err := h.Sessions.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *ClassHandler) UpdateSession(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx := c.Request().Context()
	s, err := h.Sessions.GetByID(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var req sessionReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	req.apply(s)
	if err := checkTimes(s.StartTime, s.EndTime); err != nil {
		return respondError(c, h.Log, err)
	}
	if err := h.Sessions.Update(ctx, s); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *ClassHandler) DeleteSession(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if err := h.Sessions.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "session deleted"})
}

// SessionAttendances lists who checked into the :id session.
func (h *ClassHandler) SessionAttendances(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx := c.Request().Context()
	if _, err := h.Sessions.GetByID(ctx, id); err != nil {
		return respondError(c, h.Log, err)
	}
	list, err := h.Attendances.ListBySession(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}
