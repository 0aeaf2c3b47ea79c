package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"invoicepad/internal/domain"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// toNumber coerces lenient JSON input to a float64. Numeric entry fields
// on the client may arrive as numbers, numeric strings or junk; junk
// becomes 0 rather than an error so the invoice always shows a number.
func toNumber(v interface{}) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return t
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

func toStatus(v string) domain.InvoiceStatus {
	if domain.InvoiceStatus(v) == domain.StatusPaid {
		return domain.StatusPaid
	}
	return domain.StatusPending
}

type rawLineItem struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Quantity        interface{} `json:"quantity"`
	Rate            interface{} `json:"rate"`
	DiscountPercent interface{} `json:"discount_percent"`
}

type rawPaymentEntry struct {
	ID        string      `json:"id"`
	Narration string      `json:"narration"`
	Amount    interface{} `json:"amount"`
}

type rawInvoice struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Date      string            `json:"date"`
	Status    string            `json:"status"`
	Items     []rawLineItem     `json:"items"`
	Payments  []rawPaymentEntry `json:"payments"`
	CreatedAt *time.Time        `json:"created_at"`
}

// ValidateInvoiceRequest decodes an invoice snapshot with lenient numeric
// coercion. Derived fields are never read from the request; the service
// recomputes them.
func ValidateInvoiceRequest(r *http.Request) (domain.Invoice, error) {
	var raw rawInvoice
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && err != io.EOF {
		return domain.Invoice{}, err
	}

	inv := domain.Invoice{
		ID:        raw.ID,
		Name:      raw.Name,
		Date:      raw.Date,
		Status:    toStatus(raw.Status),
		CreatedAt: raw.CreatedAt,
	}

	for _, it := range raw.Items {
		inv.Items = append(inv.Items, domain.LineItem{
			ID:              it.ID,
			Name:            it.Name,
			Quantity:        toNumber(it.Quantity),
			Rate:            toNumber(it.Rate),
			DiscountPercent: toNumber(it.DiscountPercent),
		})
	}

	for _, p := range raw.Payments {
		inv.Payments = append(inv.Payments, domain.PaymentEntry{
			ID:        p.ID,
			Narration: p.Narration,
			Amount:    toNumber(p.Amount),
		})
	}

	return inv, nil
}

type PaymentRequest struct {
	Narration string
	Amount    float64
}

type rawPaymentRequest struct {
	Narration string      `json:"narration"`
	Amount    interface{} `json:"amount"`
}

func ValidatePaymentRequest(r *http.Request) (*PaymentRequest, error) {
	var raw rawPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && err != io.EOF {
		return nil, err
	}

	return &PaymentRequest{
		Narration: raw.Narration,
		Amount:    toNumber(raw.Amount),
	}, nil
}

type StatusRequest struct {
	Status domain.InvoiceStatus
}

func ValidateStatusRequest(r *http.Request) (*StatusRequest, error) {
	var raw struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && err != io.EOF {
		return nil, err
	}

	switch domain.InvoiceStatus(raw.Status) {
	case domain.StatusPending, domain.StatusPaid:
		return &StatusRequest{Status: domain.InvoiceStatus(raw.Status)}, nil
	default:
		return nil, &ValidationError{Field: "status", Message: "status must be pending or paid"}
	}
}

type RenderRequest struct {
	Format string
}

func ValidateRenderRequest(r *http.Request) (*RenderRequest, error) {
	var raw struct {
		Format string `json:"format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && err != io.EOF {
		return nil, err
	}

	switch raw.Format {
	case "":
		return &RenderRequest{Format: "pdf"}, nil
	case "pdf", "xlsx":
		return &RenderRequest{Format: raw.Format}, nil
	default:
		return nil, &ValidationError{Field: "format", Message: "format must be pdf or xlsx"}
	}
}
