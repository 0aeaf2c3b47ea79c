package pricing

import (
	"testing"

	"invoicepad/internal/domain"
)

func TestDerive(t *testing.T) {
	eng := NewEngine(Config{})

	tests := []struct {
		name     string
		item     domain.LineItem
		wantTP   float64
		wantUnit float64
		wantLine float64
	}{
		{
			name:     "no discount",
			item:     domain.LineItem{Rate: 100, Quantity: 2},
			wantTP:   85.50,
			wantUnit: 85.50,
			wantLine: 171.00,
		},
		{
			name:     "negative discount lowers the base",
			item:     domain.LineItem{Rate: 100, Quantity: 1, DiscountPercent: -10},
			wantTP:   85.50,
			wantUnit: 65.41,
			wantLine: 65.41,
		},
		{
			name:     "positive discount raises the base",
			item:     domain.LineItem{Rate: 100, Quantity: 1, DiscountPercent: 10},
			wantTP:   85.50,
			wantUnit: 79.94,
			wantLine: 79.94,
		},
		{
			name: "zero rate yields all zeros",
			item: domain.LineItem{Rate: 0, Quantity: 5, DiscountPercent: -10},
		},
		{
			name: "zero quantity yields zero total",
			item: domain.LineItem{Rate: 50, Quantity: 0},

			wantTP:   42.75,
			wantUnit: 42.75,
			wantLine: 0,
		},
		{
			name: "negative rate is inert by default",
			item: domain.LineItem{Rate: -100, Quantity: 2},
		},
		{
			name:     "negative quantity propagates",
			item:     domain.LineItem{Rate: 100, Quantity: -2},
			wantTP:   85.50,
			wantUnit: 85.50,
			wantLine: -171.00,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eng.Derive(tt.item)
			if got.TradePrice != tt.wantTP {
				t.Errorf("TradePrice = %v, want %v", got.TradePrice, tt.wantTP)
			}
			if got.EffectiveUnitPrice != tt.wantUnit {
				t.Errorf("EffectiveUnitPrice = %v, want %v", got.EffectiveUnitPrice, tt.wantUnit)
			}
			if got.LineTotal != tt.wantLine {
				t.Errorf("LineTotal = %v, want %v", got.LineTotal, tt.wantLine)
			}
		})
	}
}

func TestDeriveRoundsEachStageIndependently(t *testing.T) {
	eng := NewEngine(Config{})

	// Trade price rounds before the discount stage; the discount base
	// itself stays unrounded until the effective price is computed.
	got := eng.Derive(domain.LineItem{Rate: 100, Quantity: 1, DiscountPercent: -10})
	if got.EffectiveUnitPrice != 65.41 {
		t.Fatalf("expected 65.41 (85.50*0.85*0.90 rounded once), got %v", got.EffectiveUnitPrice)
	}

	// 3 * 33.335 = 100.005 must round up, not truncate.
	got = eng.Derive(domain.LineItem{Rate: 38.99, Quantity: 3})
	if got.TradePrice != 33.34 {
		t.Fatalf("expected trade price 33.34, got %v", got.TradePrice)
	}
	if got.LineTotal != Round2(got.EffectiveUnitPrice*3) {
		t.Fatalf("line total %v not rounded from unit price %v", got.LineTotal, got.EffectiveUnitPrice)
	}
}

func TestDeriveDoesNotTouchRawFields(t *testing.T) {
	eng := NewEngine(Config{})

	in := domain.LineItem{ID: "a", Name: "ACME widget", Rate: 12.5, Quantity: 4, DiscountPercent: 2}
	out := eng.Derive(in)

	if out.ID != in.ID || out.Name != in.Name || out.Rate != in.Rate ||
		out.Quantity != in.Quantity || out.DiscountPercent != in.DiscountPercent {
		t.Fatalf("raw fields changed: %+v", out)
	}
}

func TestDeriveNegativeRateAllowed(t *testing.T) {
	eng := NewEngine(Config{AllowNegativeRate: true})

	got := eng.Derive(domain.LineItem{Rate: -100, Quantity: 1})
	if got.TradePrice != -85.50 {
		t.Fatalf("expected trade price -85.50, got %v", got.TradePrice)
	}
	if got.LineTotal != -85.50 {
		t.Fatalf("expected line total -85.50, got %v", got.LineTotal)
	}
}
