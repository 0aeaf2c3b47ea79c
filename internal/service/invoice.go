package service

import (
	"context"
	"fmt"

	"invoicepad/internal/domain"
	"invoicepad/internal/editor"
	"invoicepad/internal/pricing"
)

// InvoiceRepository is the persistence collaborator: a record store of
// whole-invoice snapshots keyed by username.
type InvoiceRepository interface {
	Save(ctx context.Context, username string, inv domain.Invoice) error
	Get(ctx context.Context, username, invoiceID string) (domain.Invoice, error)
	List(ctx context.Context, username string) ([]domain.Invoice, error)
	Remove(ctx context.Context, username, invoiceID string) error
}

type InvoiceService struct {
	repo   InvoiceRepository
	ids    editor.IDSource
	engine pricing.Engine
}

func NewInvoiceService(repo InvoiceRepository, ids editor.IDSource, engine pricing.Engine) *InvoiceService {
	return &InvoiceService{repo: repo, ids: ids, engine: engine}
}

// Draft returns a fresh unsaved invoice seeded with one blank row. No id
// is minted and nothing is persisted until the first save.
func (s *InvoiceService) Draft() domain.Invoice {
	ed := editor.New(s.ids, s.engine)
	return domain.Invoice{
		Status: domain.StatusPending,
		Items:  ed.Items(),
	}
}

// Preview runs a submitted snapshot through the editor and returns it
// with every derived field and total recomputed, without persisting.
func (s *InvoiceService) Preview(submitted domain.Invoice) domain.Invoice {
	ed := editor.FromInvoice(submitted, s.ids, s.engine)
	return ed.Snapshot(submitted.ID, submitted.Name, submitted.Date, submitted.Status)
}

// Save rebuilds the submitted snapshot through the editor (the single
// derivation entry point) and persists the canonical result whole. On a
// persistence failure nothing is partially written, so retry is safe.
func (s *InvoiceService) Save(ctx context.Context, username string, submitted domain.Invoice) (domain.Invoice, error) {
	ed := editor.FromInvoice(submitted, s.ids, s.engine)
	snapshot := ed.Snapshot(submitted.ID, submitted.Name, submitted.Date, submitted.Status)

	if err := s.repo.Save(ctx, username, snapshot); err != nil {
		return domain.Invoice{}, fmt.Errorf("save invoice: %w", err)
	}
	return snapshot, nil
}

func (s *InvoiceService) Get(ctx context.Context, username, invoiceID string) (domain.Invoice, error) {
	return s.repo.Get(ctx, username, invoiceID)
}

func (s *InvoiceService) List(ctx context.Context, username string) ([]domain.Invoice, error) {
	return s.repo.List(ctx, username)
}

func (s *InvoiceService) Remove(ctx context.Context, username, invoiceID string) error {
	return s.repo.Remove(ctx, username, invoiceID)
}

// RecordPayment appends a payment entry to a stored invoice and persists
// the recomputed snapshot.
func (s *InvoiceService) RecordPayment(ctx context.Context, username, invoiceID, narration string, amount float64) (domain.Invoice, error) {
	inv, err := s.repo.Get(ctx, username, invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}

	ed := editor.FromInvoice(inv, s.ids, s.engine)
	ed.AddPayment()
	last := len(ed.Payments()) - 1
	if err := ed.UpdatePayment(last, editor.FieldNarration, narration); err != nil {
		return domain.Invoice{}, err
	}
	if err := ed.UpdatePayment(last, editor.FieldAmount, amount); err != nil {
		return domain.Invoice{}, err
	}

	snapshot := ed.Snapshot(inv.ID, inv.Name, inv.Date, inv.Status)
	if err := s.repo.Save(ctx, username, snapshot); err != nil {
		return domain.Invoice{}, fmt.Errorf("save invoice: %w", err)
	}
	return snapshot, nil
}

// SetStatus toggles the pending/paid flag. The flag is user-controlled
// and independent of the computed balance.
func (s *InvoiceService) SetStatus(ctx context.Context, username, invoiceID string, status domain.InvoiceStatus) (domain.Invoice, error) {
	inv, err := s.repo.Get(ctx, username, invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}

	ed := editor.FromInvoice(inv, s.ids, s.engine)
	snapshot := ed.Snapshot(inv.ID, inv.Name, inv.Date, status)
	if err := s.repo.Save(ctx, username, snapshot); err != nil {
		return domain.Invoice{}, fmt.Errorf("save invoice: %w", err)
	}
	return snapshot, nil
}
