// Package report renders the revenue ledger as spreadsheets.
package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/gym-membership/internal/model"
)

const (
	ledgerSheet = "Ledger"
	totalsSheet = "Daily totals"
)

// RevenueXLSX builds a workbook with one sheet listing every ledger row and
// one sheet of per-day totals, and returns the encoded file.
func RevenueXLSX(rows []*model.DailyRevenue, totals []*model.DailyRevenueTotal) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), ledgerSheet); err != nil {
		return nil, err
	}
	header := []any{"Date", "Payment ID", "User ID", "User", "Method", "Amount"}
	if err := f.SetSheetRow(ledgerSheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, r := range rows {
		method := ""
		if r.Method != nil {
			method = *r.Method
		}
		line := []any{r.Date.String(), r.PaymentID, r.UserID, r.UserName, method, r.Amount.Float64()}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(ledgerSheet, cell, &line); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet(totalsSheet); err != nil {
		return nil, err
	}
	header = []any{"Date", "Payments", "Amount"}
	if err := f.SetSheetRow(totalsSheet, "A1", &header); err != nil {
		return nil, err
	}
	var grand model.Money
	for i, t := range totals {
		line := []any{t.Date.String(), t.Payments, t.Amount.Float64()}
		if err := f.SetSheetRow(totalsSheet, fmt.Sprintf("A%d", i+2), &line); err != nil {
			return nil, err
		}
		grand += t.Amount
	}
	last := len(totals) + 2
	_ = f.SetCellValue(totalsSheet, fmt.Sprintf("A%d", last), "Total")
	_ = f.SetCellValue(totalsSheet, fmt.Sprintf("C%d", last), grand.Float64())

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
