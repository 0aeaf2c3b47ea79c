package domain

import (
	"errors"
	"time"
)

// InvoiceStatus is user-toggleable and independent of the computed balance.
type InvoiceStatus string

const (
	StatusPending InvoiceStatus = "pending"
	StatusPaid    InvoiceStatus = "paid"
)

var ErrInvoiceNotFound = errors.New("invoice not found")

// LineItem carries both the raw fields a user edits and the derived
// pricing fields. Derived fields are written only by the pricing engine.
type LineItem struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Quantity        float64 `json:"quantity"`
	Rate            float64 `json:"rate"`
	DiscountPercent float64 `json:"discount_percent"`

	TradePrice         float64 `json:"trade_price"`
	EffectiveUnitPrice float64 `json:"effective_unit_price"`
	LineTotal          float64 `json:"line_total"`
}

type PaymentEntry struct {
	ID        string  `json:"id"`
	Narration string  `json:"narration"`
	Amount    float64 `json:"amount"`
}

// Invoice is the aggregate root persisted as a whole-object snapshot.
type Invoice struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Date     string         `json:"date"`
	Status   InvoiceStatus  `json:"status"`
	Items    []LineItem     `json:"items"`
	Payments []PaymentEntry `json:"payments"`

	TotalAmount      float64 `json:"total_amount"`
	RemainingBalance float64 `json:"remaining_balance"`

	CreatedAt *time.Time `json:"created_at"`
}
