package rest

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"invoicepad/internal/domain"
	"invoicepad/internal/transport/auth"
)

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	username, err := auth.GetUsername(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	invoices, err := h.invoices.List(r.Context(), username)
	if err != nil {
		log.Printf("[HTTP] listInvoices error: %v", err)
		ErrorInternal(w, "failed to list invoices")
		return
	}

	Success(w, "", invoices)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	username, err := auth.GetUsername(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	invoiceID := chi.URLParam(r, "invoice_id")
	inv, err := h.invoices.Get(r.Context(), username, invoiceID)
	if err != nil {
		if errors.Is(err, domain.ErrInvoiceNotFound) {
			ErrorNotFound(w, "invoice not found")
			return
		}
		log.Printf("[HTTP] getInvoice error: %v", err)
		ErrorInternal(w, "failed to load invoice")
		return
	}

	Success(w, "", inv)
}

// draftInvoice hands out an unsaved invoice seeded with one blank row so
// the client starts every new editing session from the same shape.
func (h *Handler) draftInvoice(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.GetUsername(r.Context()); err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	Success(w, "", h.invoices.Draft())
}

func (h *Handler) saveInvoice(w http.ResponseWriter, r *http.Request) {
	username, err := auth.GetUsername(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	submitted, err := ValidateInvoiceRequest(r)
	if err != nil {
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	saved, err := h.invoices.Save(r.Context(), username, submitted)
	if err != nil {
		log.Printf("[HTTP] saveInvoice error: %v", err)
		ErrorInternal(w, "failed to save invoice")
		return
	}

	SuccessCreated(w, "invoice saved", saved)
}

func (h *Handler) previewInvoice(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.GetUsername(r.Context()); err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	submitted, err := ValidateInvoiceRequest(r)
	if err != nil {
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	Success(w, "", h.invoices.Preview(submitted))
}

func (h *Handler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	username, err := auth.GetUsername(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	invoiceID := chi.URLParam(r, "invoice_id")
	if err := h.invoices.Remove(r.Context(), username, invoiceID); err != nil {
		if errors.Is(err, domain.ErrInvoiceNotFound) {
			ErrorNotFound(w, "invoice not found")
			return
		}
		log.Printf("[HTTP] deleteInvoice error: %v", err)
		ErrorInternal(w, "failed to delete invoice")
		return
	}

	Success(w, "invoice deleted", nil)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	username, err := auth.GetUsername(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	req, err := ValidatePaymentRequest(r)
	if err != nil {
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	invoiceID := chi.URLParam(r, "invoice_id")
	inv, err := h.invoices.RecordPayment(r.Context(), username, invoiceID, req.Narration, req.Amount)
	if err != nil {
		if errors.Is(err, domain.ErrInvoiceNotFound) {
			ErrorNotFound(w, "invoice not found")
			return
		}
		log.Printf("[HTTP] recordPayment error: %v", err)
		ErrorInternal(w, "failed to record payment")
		return
	}

	Success(w, "payment recorded", inv)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	username, err := auth.GetUsername(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	req, err := ValidateStatusRequest(r)
	if err != nil {
		if _, ok := err.(*ValidationError); ok {
			ErrorBadRequest(w, err.Error())
			return
		}
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	invoiceID := chi.URLParam(r, "invoice_id")
	inv, err := h.invoices.SetStatus(r.Context(), username, invoiceID, req.Status)
	if err != nil {
		if errors.Is(err, domain.ErrInvoiceNotFound) {
			ErrorNotFound(w, "invoice not found")
			return
		}
		log.Printf("[HTTP] setStatus error: %v", err)
		ErrorInternal(w, "failed to update status")
		return
	}

	Success(w, "status updated", inv)
}
