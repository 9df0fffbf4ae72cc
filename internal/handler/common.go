package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-membership/internal/middleware"
	"github.com/iliyamo/gym-membership/internal/model"
	"github.com/iliyamo/gym-membership/internal/repository"
	"github.com/iliyamo/gym-membership/internal/service"
	"github.com/iliyamo/gym-membership/internal/validation"
)

var (
	errInvalidBody = errors.New("invalid body")
	errInvalidID   = errors.New("invalid id")
)

// getIdentity returns the caller resolved by middleware.JWTAuth.
func getIdentity(c echo.Context) model.Identity {
	return middleware.CurrentIdentity(c)
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// normalizer is implemented by requests that accept legacy field names.
type normalizer interface {
	normalize()
}

// bindValid decodes the body into req, folds legacy aliases into the
// canonical fields and runs the struct tags.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errInvalidBody
	}
	if n, ok := req.(normalizer); ok {
		n.normalize()
	}
	return c.Validate(req)
}

// respondError is the single translation point from errors to HTTP
// responses.  Unexpected errors are logged and answered with a generic 500.
func respondError(c echo.Context, log *slog.Logger, err error) error {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "validation failed", "errors": verrs})
	case errors.Is(err, errInvalidBody), errors.Is(err, errInvalidID):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, repository.ErrRefreshInvalid):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden), errors.Is(err, repository.ErrForbidden),
		errors.Is(err, service.ErrNoUsableMembership):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrEmailExists), errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrDuplicate), errors.Is(err, service.ErrAlreadyCheckedIn),
		errors.Is(err, service.ErrSessionFull), errors.Is(err, service.ErrAlreadyCheckedOut):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	if log == nil {
		log = slog.Default()
	}
	log.Error("request failed",
		"err", err,
		"method", c.Request().Method,
		"route", c.Path(),
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
	)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}

// parseDatePtr parses an optional YYYY-MM-DD string that already passed
// the isodate tag.
func parseDatePtr(s *string) *model.Date {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	d, err := model.ParseDate(*s)
	if err != nil {
		return nil
	}
	return &d
}

func firstNonNil[T any](vals ...*T) *T {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
