package rest

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"invoicepad/internal/domain"
	"invoicepad/internal/transport/auth"
)

func (h *Handler) renderInvoice(w http.ResponseWriter, r *http.Request) {
	username, err := auth.GetUsername(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	req, err := ValidateRenderRequest(r)
	if err != nil {
		if _, ok := err.(*ValidationError); ok {
			ErrorBadRequest(w, err.Error())
			return
		}
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	invoiceID := chi.URLParam(r, "invoice_id")
	renderID, err := h.renders.StartRender(r.Context(), username, invoiceID, req.Format)
	if err != nil {
		if errors.Is(err, domain.ErrInvoiceNotFound) {
			ErrorNotFound(w, "invoice not found")
			return
		}
		log.Printf("[HTTP] renderInvoice error: %v", err)
		ErrorInternal(w, "failed to start render")
		return
	}

	SuccessAccepted(w, "render started", map[string]string{"render_id": renderID})
}

func (h *Handler) listRenders(w http.ResponseWriter, r *http.Request) {
	username, err := auth.GetUsername(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	statuses, err := h.renders.GetRenders(r.Context(), username)
	if err != nil {
		log.Printf("[HTTP] listRenders error: %v", err)
		ErrorInternal(w, "failed to list renders")
		return
	}

	Success(w, "", statuses)
}

func (h *Handler) getRender(w http.ResponseWriter, r *http.Request) {
	username, err := auth.GetUsername(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	renderID := chi.URLParam(r, "render_id")
	status, err := h.renders.GetRender(r.Context(), renderID, username)
	if err != nil {
		ErrorNotFound(w, "render not found")
		return
	}

	Success(w, "", status)
}
