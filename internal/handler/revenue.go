package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-membership/internal/model"
	"github.com/iliyamo/gym-membership/internal/report"
	"github.com/iliyamo/gym-membership/internal/repository"
	"github.com/iliyamo/gym-membership/internal/validation"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RevenueHandler exposes the daily revenue ledger.
type RevenueHandler struct {
	Revenue *repository.RevenueRepo
	Log     *slog.Logger
}

func NewRevenueHandler(r *repository.RevenueRepo, log *slog.Logger) *RevenueHandler {
	return &RevenueHandler{Revenue: r, Log: log}
}

// dateQuery parses ?from= and ?to= (YYYY-MM-DD, both optional).
func dateQuery(c echo.Context) (from, to model.Date, err error) {
	errs := validation.Errors{}
	parse := func(name string) model.Date {
		s := strings.TrimSpace(c.QueryParam(name))
		if s == "" {
			return model.Date{}
		}
		d, perr := model.ParseDate(s)
		if perr != nil {
			errs.Add(name, fmt.Sprintf("The %s must be a date in YYYY-MM-DD format.", name))
		}
		return d
	}
	from, to = parse("from"), parse("to")
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		errs.Add("to", "The to must be a date after or equal to from.")
	}
	return from, to, errs.Err()
}

func (h *RevenueHandler) List(c echo.Context) error {
	from, to, err := dateQuery(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	rows, err := h.Revenue.List(c.Request().Context(), from, to)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *RevenueHandler) Summary(c echo.Context) error {
	from, to, err := dateQuery(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	totals, err := h.Revenue.Totals(c.Request().Context(), from, to)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var sum model.Money
	payments := 0
	for _, t := range totals {
		sum += t.Amount
		payments += t.Payments
	}
	return c.JSON(http.StatusOK, echo.Map{"days": totals, "payments": payments, "total": sum})
}

// Export streams the ledger and per-day totals as an XLSX workbook.
func (h *RevenueHandler) Export(c echo.Context) error {
	from, to, err := dateQuery(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx := c.Request().Context()
	rows, err := h.Revenue.List(ctx, from, to)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	totals, err := h.Revenue.Totals(ctx, from, to)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	file, err := report.RevenueXLSX(rows, totals)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="revenue.xlsx"`)
	return c.Blob(http.StatusOK, xlsxContentType, file)
}
