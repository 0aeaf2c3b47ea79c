package service

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/xuri/excelize/v2"

	"invoicepad/internal/domain"
)

var itemHeaders = []string{"#", "Item", "Qty", "Rate", "Trade Price", "Unit Price", "Line Total"}

// buildWorkbook lays the invoice out as a spreadsheet: metadata block,
// line item table, payment ledger, totals.
func buildWorkbook(inv domain.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Invoice"
	f.SetSheetName(f.GetSheetName(0), sheet)

	_ = f.SetDocProps(&excelize.DocProperties{Creator: "invoicepad"})

	meta := [][]any{
		{"Invoice", inv.Name},
		{"Date", inv.Date},
		{"Status", string(inv.Status)},
	}
	row := 1
	for _, pair := range meta {
		for col, v := range pair {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}
	row++

	for col, h := range itemHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = f.SetCellValue(sheet, cell, h)
	}
	row++

	for i, it := range inv.Items {
		values := []any{i + 1, it.Name, it.Quantity, it.Rate, it.TradePrice, it.EffectiveUnitPrice, it.LineTotal}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}
	row++

	var totalPaid float64
	if len(inv.Payments) > 0 {
		for col, h := range []string{"Payment", "Amount"} {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, h)
		}
		row++
		for _, p := range inv.Payments {
			for col, v := range []any{p.Narration, p.Amount} {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				_ = f.SetCellValue(sheet, cell, v)
			}
			totalPaid += p.Amount
			row++
		}
		row++
	}

	totals := [][]any{
		{"Grand Total", inv.TotalAmount},
		{"Paid", totalPaid},
		{"Balance Due", inv.RemainingBalance},
	}
	for _, pair := range totals {
		for col, v := range pair {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// buildPDF renders the invoice as an A4 document.
func buildPDF(inv domain.Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	title := inv.Name
	if title == "" {
		title = "Invoice"
	}
	pdf.CellFormat(190, 10, title, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Date: %s    Status: %s", inv.Date, inv.Status), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Line items
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(10, 7, "#", "1", 0, "C", true, 0, "")
	pdf.CellFormat(60, 7, "Item", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Rate", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Trade", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Unit", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Total", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for i, it := range inv.Items {
		name := it.Name
		if len(name) > 32 {
			name = name[:29] + "..."
		}
		pdf.CellFormat(10, 6, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(60, 6, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%g", it.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.2f", it.Rate), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.2f", it.TradePrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.2f", it.EffectiveUnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.2f", it.LineTotal), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(5)

	// Payments
	var totalPaid float64
	if len(inv.Payments) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(190, 8, "Payments", "1", 1, "L", true, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, p := range inv.Payments {
			pdf.CellFormat(140, 6, p.Narration, "1", 0, "L", false, 0, "")
			pdf.CellFormat(50, 6, fmt.Sprintf("%.2f", p.Amount), "1", 1, "R", false, 0, "")
			totalPaid += p.Amount
		}
		pdf.Ln(5)
	}

	// Totals
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 8, fmt.Sprintf("Grand Total: %.2f", inv.TotalAmount), "1", 0, "C", false, 0, "")
	pdf.CellFormat(95, 8, fmt.Sprintf("Paid: %.2f", totalPaid), "1", 1, "C", false, 0, "")

	if inv.RemainingBalance > 0 {
		pdf.SetFillColor(255, 200, 200)
	} else {
		pdf.SetFillColor(200, 255, 200)
	}
	pdf.SetFont("Arial", "B", 14)
	balanceText := fmt.Sprintf("Balance Due: %.2f", inv.RemainingBalance)
	if inv.RemainingBalance <= 0 {
		balanceText = "FULLY PAID"
	}
	pdf.CellFormat(190, 10, balanceText, "1", 1, "C", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
