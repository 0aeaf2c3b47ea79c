package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"invoicepad/internal/domain"
)

func renderedInvoice() domain.Invoice {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return domain.Invoice{
		ID:     "inv-42",
		Name:   "March works",
		Date:   "2026-03-01",
		Status: domain.StatusPending,
		Items: []domain.LineItem{
			{ID: "r1", Name: "widget", Quantity: 2, Rate: 100, TradePrice: 85.50, EffectiveUnitPrice: 85.50, LineTotal: 171.00},
			{ID: "r2", Name: "gadget", Quantity: 1, Rate: 50, TradePrice: 42.75, EffectiveUnitPrice: 42.75, LineTotal: 42.75},
		},
		Payments:         []domain.PaymentEntry{{ID: "p1", Narration: "advance", Amount: 50}},
		TotalAmount:      213.75,
		RemainingBalance: 163.75,
		CreatedAt:        &created,
	}
}

func TestBuildWorkbook(t *testing.T) {
	data, err := buildWorkbook(renderedInvoice())
	if err != nil {
		t.Fatalf("buildWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Invoice")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}

	var foundItem, foundBalance bool
	for _, row := range rows {
		for i, cell := range row {
			if cell == "widget" {
				foundItem = true
			}
			if cell == "Balance Due" && i+1 < len(row) {
				foundBalance = true
				if row[i+1] != "163.75" {
					t.Errorf("balance cell = %q, want 163.75", row[i+1])
				}
			}
		}
	}
	if !foundItem {
		t.Error("line item row missing from workbook")
	}
	if !foundBalance {
		t.Error("balance row missing from workbook")
	}
}

func TestBuildPDF(t *testing.T) {
	data, err := buildPDF(renderedInvoice())
	if err != nil {
		t.Fatalf("buildPDF: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output does not look like a PDF: %q", data[:8])
	}
}

func TestBuildPDFUntitledInvoice(t *testing.T) {
	inv := renderedInvoice()
	inv.Name = ""
	inv.Payments = nil
	inv.RemainingBalance = 0

	data, err := buildPDF(inv)
	if err != nil {
		t.Fatalf("buildPDF: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty PDF output")
	}
}

func TestRenderFileName(t *testing.T) {
	inv := renderedInvoice()
	inv.ID = "0123456789abcdef"

	name := renderFileName(inv, FormatPDF)
	if want := "invoice_01234567_"; len(name) < len(want) || name[:len(want)] != want {
		t.Fatalf("file name %q does not start with %q", name, want)
	}
	if name[len(name)-4:] != ".pdf" {
		t.Fatalf("file name %q missing extension", name)
	}
}
