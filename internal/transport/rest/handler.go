package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"invoicepad/internal/domain"
	"invoicepad/internal/service"
)

type InvoiceManager interface {
	Draft() domain.Invoice
	Preview(submitted domain.Invoice) domain.Invoice
	Save(ctx context.Context, username string, submitted domain.Invoice) (domain.Invoice, error)
	Get(ctx context.Context, username, invoiceID string) (domain.Invoice, error)
	List(ctx context.Context, username string) ([]domain.Invoice, error)
	Remove(ctx context.Context, username, invoiceID string) error
	RecordPayment(ctx context.Context, username, invoiceID, narration string, amount float64) (domain.Invoice, error)
	SetStatus(ctx context.Context, username, invoiceID string, status domain.InvoiceStatus) (domain.Invoice, error)
}

type RenderManager interface {
	StartRender(ctx context.Context, username, invoiceID, format string) (string, error)
	GetRenders(ctx context.Context, username string) ([]service.RenderStatus, error)
	GetRender(ctx context.Context, renderID, username string) (*service.RenderStatus, error)
}

type Handler struct {
	invoices InvoiceManager
	renders  RenderManager
}

func NewHandler(invoices InvoiceManager, renders RenderManager) *Handler {
	return &Handler{
		invoices: invoices,
		renders:  renders,
	}
}

func (h *Handler) InitRouter() *chi.Mux {
	return h.InitRouterWithAuth(nil)
}

func (h *Handler) InitRouterWithAuth(authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	if authMiddleware != nil {
		r.Use(authMiddleware)
	}

	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.listInvoices)
		r.Post("/", h.saveInvoice)
		r.Get("/new", h.draftInvoice)
		r.Post("/preview", h.previewInvoice)
		r.Get("/{invoice_id}", h.getInvoice)
		r.Delete("/{invoice_id}", h.deleteInvoice)
		r.Post("/{invoice_id}/payments", h.recordPayment)
		r.Post("/{invoice_id}/status", h.setStatus)
		r.Post("/{invoice_id}/render", h.renderInvoice)
	})

	r.Route("/renders", func(r chi.Router) {
		r.Get("/", h.listRenders)
		r.Get("/{render_id}", h.getRender)
	})

	return r
}
