// Package editor owns the ordered line items and payments of one invoice
// editing session and keeps every derived field consistent with the
// pricing engine. A session is exclusively owned by one caller; there is
// no locking here.
package editor

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"invoicepad/internal/domain"
	"invoicepad/internal/pricing"
)

var (
	ErrIndexOutOfRange = errors.New("row index out of range")
	ErrLastItem        = errors.New("an invoice must keep at least one line item")
	ErrUnknownField    = errors.New("unknown field")
)

// Raw field names accepted by UpdateItem and UpdatePayment.
const (
	FieldName            = "name"
	FieldQuantity        = "quantity"
	FieldRate            = "rate"
	FieldDiscountPercent = "discount_percent"
	FieldNarration       = "narration"
	FieldAmount          = "amount"
)

// IDSource issues row and invoice identifiers. Injected so tests can
// supply deterministic ids.
type IDSource interface {
	NextID() string
}

type UUIDSource struct{}

func (UUIDSource) NextID() string { return uuid.NewString() }

// Editor holds the in-memory state of an editing session. Mutations
// replace the item/payment slices with fresh copies, so snapshots handed
// out earlier never alias live state.
type Editor struct {
	ids    IDSource
	engine pricing.Engine

	items     []domain.LineItem
	payments  []domain.PaymentEntry
	createdAt *time.Time
}

// New starts a session for a fresh invoice, seeded with one blank row.
func New(ids IDSource, engine pricing.Engine) *Editor {
	e := &Editor{ids: ids, engine: engine}
	e.items = []domain.LineItem{e.blankItem()}
	return e
}

// FromInvoice resumes a session from a stored snapshot. Every row is
// re-derived so stale derived state can never survive a load.
func FromInvoice(inv domain.Invoice, ids IDSource, engine pricing.Engine) *Editor {
	e := &Editor{ids: ids, engine: engine}

	e.items = make([]domain.LineItem, 0, len(inv.Items))
	for _, it := range inv.Items {
		if it.ID == "" {
			it.ID = ids.NextID()
		}
		e.items = append(e.items, engine.Derive(it))
	}
	if len(e.items) == 0 {
		e.items = []domain.LineItem{e.blankItem()}
	}

	e.payments = make([]domain.PaymentEntry, 0, len(inv.Payments))
	for _, p := range inv.Payments {
		if p.ID == "" {
			p.ID = ids.NextID()
		}
		e.payments = append(e.payments, p)
	}

	if inv.CreatedAt != nil {
		created := *inv.CreatedAt
		e.createdAt = &created
	}
	return e
}

func (e *Editor) blankItem() domain.LineItem {
	// All-zero raw fields already satisfy the derivation invariant.
	return domain.LineItem{ID: e.ids.NextID()}
}

// Items returns a copy of the current rows.
func (e *Editor) Items() []domain.LineItem {
	out := make([]domain.LineItem, len(e.items))
	copy(out, e.items)
	return out
}

// Payments returns a copy of the current payment entries.
func (e *Editor) Payments() []domain.PaymentEntry {
	out := make([]domain.PaymentEntry, len(e.payments))
	copy(out, e.payments)
	return out
}

// AddItem appends a blank row and returns it.
func (e *Editor) AddItem() domain.LineItem {
	item := e.blankItem()
	items := make([]domain.LineItem, 0, len(e.items)+1)
	items = append(items, e.items...)
	items = append(items, item)
	e.items = items
	return item
}

// UpdateItem sets one raw field on the row at index. Numeric field
// changes re-derive that single row; a name change bypasses derivation.
func (e *Editor) UpdateItem(index int, field string, value any) error {
	if index < 0 || index >= len(e.items) {
		return ErrIndexOutOfRange
	}

	item := e.items[index]
	switch field {
	case FieldName:
		item.Name = coerceString(value)
	case FieldQuantity:
		item.Quantity = coerceNumber(value)
	case FieldRate:
		item.Rate = coerceNumber(value)
	case FieldDiscountPercent:
		item.DiscountPercent = coerceNumber(value)
	default:
		return ErrUnknownField
	}

	if field != FieldName {
		item = e.engine.Derive(item)
	}

	items := make([]domain.LineItem, len(e.items))
	copy(items, e.items)
	items[index] = item
	e.items = items
	return nil
}

// DeleteItem removes the row at index. Deleting the last remaining row is
// refused: an invoice always keeps at least one.
func (e *Editor) DeleteItem(index int) error {
	if index < 0 || index >= len(e.items) {
		return ErrIndexOutOfRange
	}
	if len(e.items) == 1 {
		return ErrLastItem
	}

	items := make([]domain.LineItem, 0, len(e.items)-1)
	items = append(items, e.items[:index]...)
	items = append(items, e.items[index+1:]...)
	e.items = items
	return nil
}

// DuplicateItem clones the row at index with a fresh id and inserts the
// clone immediately after it. Derived fields carry over unchanged.
func (e *Editor) DuplicateItem(index int) (domain.LineItem, error) {
	if index < 0 || index >= len(e.items) {
		return domain.LineItem{}, ErrIndexOutOfRange
	}

	clone := e.items[index]
	clone.ID = e.ids.NextID()

	items := make([]domain.LineItem, 0, len(e.items)+1)
	items = append(items, e.items[:index+1]...)
	items = append(items, clone)
	items = append(items, e.items[index+1:]...)
	e.items = items
	return clone, nil
}

// AddPayment appends a blank payment entry and returns it.
func (e *Editor) AddPayment() domain.PaymentEntry {
	p := domain.PaymentEntry{ID: e.ids.NextID()}
	payments := make([]domain.PaymentEntry, 0, len(e.payments)+1)
	payments = append(payments, e.payments...)
	payments = append(payments, p)
	e.payments = payments
	return p
}

// UpdatePayment sets one field on the payment at index. Amounts are
// stored as entered; blank or junk input coerces to 0.
func (e *Editor) UpdatePayment(index int, field string, value any) error {
	if index < 0 || index >= len(e.payments) {
		return ErrIndexOutOfRange
	}

	p := e.payments[index]
	switch field {
	case FieldNarration:
		p.Narration = coerceString(value)
	case FieldAmount:
		p.Amount = coerceNumber(value)
	default:
		return ErrUnknownField
	}

	payments := make([]domain.PaymentEntry, len(e.payments))
	copy(payments, e.payments)
	payments[index] = p
	e.payments = payments
	return nil
}

func (e *Editor) DeletePayment(index int) error {
	if index < 0 || index >= len(e.payments) {
		return ErrIndexOutOfRange
	}

	payments := make([]domain.PaymentEntry, 0, len(e.payments)-1)
	payments = append(payments, e.payments[:index]...)
	payments = append(payments, e.payments[index+1:]...)
	e.payments = payments
	return nil
}

type Totals struct {
	GrandTotal       float64 `json:"grand_total"`
	TotalPaid        float64 `json:"total_paid"`
	RemainingBalance float64 `json:"remaining_balance"`
}

// Totals recomputes on demand; nothing is cached. The balance may go
// negative on overpayment.
func (e *Editor) Totals() Totals {
	var t Totals
	for _, it := range e.items {
		t.GrandTotal += it.LineTotal
	}
	for _, p := range e.payments {
		t.TotalPaid += p.Amount
	}
	t.GrandTotal = pricing.Round2(t.GrandTotal)
	t.TotalPaid = pricing.Round2(t.TotalPaid)
	t.RemainingBalance = pricing.Round2(t.GrandTotal - t.TotalPaid)
	return t
}

// Snapshot assembles the full persisted record. invoiceID is reused when
// editing an existing invoice, otherwise a new identifier is minted.
// CreatedAt is stamped once, on the first snapshot.
func (e *Editor) Snapshot(invoiceID, name, date string, status domain.InvoiceStatus) domain.Invoice {
	if invoiceID == "" {
		invoiceID = e.ids.NextID()
	}
	if status == "" {
		status = domain.StatusPending
	}
	if e.createdAt == nil {
		now := time.Now().UTC()
		e.createdAt = &now
	}
	created := *e.createdAt

	totals := e.Totals()
	return domain.Invoice{
		ID:               invoiceID,
		Name:             name,
		Date:             date,
		Status:           status,
		Items:            e.Items(),
		Payments:         e.Payments(),
		TotalAmount:      totals.GrandTotal,
		RemainingBalance: totals.RemainingBalance,
		CreatedAt:        &created,
	}
}

func coerceString(v any) string {
	s, _ := v.(string)
	return s
}

// coerceNumber maps anything that is not a number to 0 so the session
// always holds a displayable value.
func coerceNumber(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
