package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-membership/internal/repository"
	"github.com/iliyamo/gym-membership/internal/service"
)

// AttendanceHandler serves check-in, check-out and the caller's own
// attendance and membership history.
type AttendanceHandler struct {
	CheckIns    *service.CheckIns
	Attendances *repository.AttendanceRepo
	Memberships *repository.MembershipRepo
	Log         *slog.Logger
}

func NewAttendanceHandler(ci *service.CheckIns, a *repository.AttendanceRepo, m *repository.MembershipRepo, log *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{CheckIns: ci, Attendances: a, Memberships: m, Log: log}
}

// CheckInClass checks the caller into today's session of the :id class.
func (h *AttendanceHandler) CheckInClass(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	res, err := h.CheckIns.CheckInClass(c.Request().Context(), getIdentity(c), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, checkInBody(res))
}

// CheckInSession checks the caller into the :id session.
func (h *AttendanceHandler) CheckInSession(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	res, err := h.CheckIns.CheckInSession(c.Request().Context(), getIdentity(c), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, checkInBody(res))
}

func checkInBody(res *service.CheckInResult) echo.Map {
	return echo.Map{
		"message":           "check-in recorded",
		"attendance":        res.Attendance,
		"session":           res.Session,
		"membership_id":     res.MembershipID,
		"remaining_classes": res.RemainingClasses,
	}
}

func (h *AttendanceHandler) CheckOut(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	att, err := h.CheckIns.CheckOut(c.Request().Context(), getIdentity(c), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, att)
}

func (h *AttendanceHandler) MyAttendances(c echo.Context) error {
	list, err := h.Attendances.ListByUser(c.Request().Context(), getIdentity(c).UserID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AttendanceHandler) MyMemberships(c echo.Context) error {
	list, err := h.Memberships.ListByUser(c.Request().Context(), getIdentity(c).UserID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}
