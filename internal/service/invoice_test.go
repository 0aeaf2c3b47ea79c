package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"invoicepad/internal/domain"
	"invoicepad/internal/pricing"
)

type memRepo struct {
	byUser  map[string]map[string]domain.Invoice
	saveErr error
}

func newMemRepo() *memRepo {
	return &memRepo{byUser: make(map[string]map[string]domain.Invoice)}
}

func (m *memRepo) Save(_ context.Context, username string, inv domain.Invoice) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.byUser[username] == nil {
		m.byUser[username] = make(map[string]domain.Invoice)
	}
	m.byUser[username][inv.ID] = inv
	return nil
}

func (m *memRepo) Get(_ context.Context, username, invoiceID string) (domain.Invoice, error) {
	inv, ok := m.byUser[username][invoiceID]
	if !ok {
		return domain.Invoice{}, domain.ErrInvoiceNotFound
	}
	return inv, nil
}

func (m *memRepo) List(_ context.Context, username string) ([]domain.Invoice, error) {
	var out []domain.Invoice
	for _, inv := range m.byUser[username] {
		out = append(out, inv)
	}
	return out, nil
}

func (m *memRepo) Remove(_ context.Context, username, invoiceID string) error {
	if _, ok := m.byUser[username][invoiceID]; !ok {
		return domain.ErrInvoiceNotFound
	}
	delete(m.byUser[username], invoiceID)
	return nil
}

type countingIDs struct {
	n int
}

func (c *countingIDs) NextID() string {
	c.n++
	return fmt.Sprintf("gen-%d", c.n)
}

func newInvoiceService(repo InvoiceRepository) *InvoiceService {
	return NewInvoiceService(repo, &countingIDs{}, pricing.NewEngine(pricing.Config{}))
}

func TestDraftSeedsBlankRow(t *testing.T) {
	svc := newInvoiceService(newMemRepo())

	draft := svc.Draft()
	if draft.ID != "" {
		t.Fatal("draft must not carry an invoice id")
	}
	if len(draft.Items) != 1 {
		t.Fatalf("expected 1 seeded row, got %d", len(draft.Items))
	}
	if draft.Status != domain.StatusPending {
		t.Fatalf("draft status = %q", draft.Status)
	}
}

func TestSaveDerivesAndPersists(t *testing.T) {
	repo := newMemRepo()
	svc := newInvoiceService(repo)
	ctx := context.Background()

	submitted := domain.Invoice{
		Name: "March works",
		Date: "2026-03-01",
		Items: []domain.LineItem{
			// stale derived values come in from the client untrusted
			{Rate: 100, Quantity: 2, LineTotal: 1},
		},
		Payments: []domain.PaymentEntry{{Narration: "advance", Amount: 50}},
	}

	saved, err := svc.Save(ctx, "alice", submitted)
	if err != nil {
		t.Fatal(err)
	}
	if saved.ID == "" {
		t.Fatal("save did not mint an invoice id")
	}
	if saved.Items[0].LineTotal != 171.00 {
		t.Fatalf("stale derived value persisted: %+v", saved.Items[0])
	}
	if saved.TotalAmount != 171.00 || saved.RemainingBalance != 121.00 {
		t.Fatalf("totals wrong: %+v", saved)
	}
	if saved.CreatedAt == nil {
		t.Fatal("CreatedAt not stamped on first save")
	}

	stored, err := svc.Get(ctx, "alice", saved.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.ID != saved.ID || stored.TotalAmount != saved.TotalAmount {
		t.Fatalf("stored snapshot differs: %+v", stored)
	}
}

func TestSaveKeepsIDAndCreatedAtOnResave(t *testing.T) {
	repo := newMemRepo()
	svc := newInvoiceService(repo)
	ctx := context.Background()

	first, err := svc.Save(ctx, "alice", domain.Invoice{Name: "v1", Items: []domain.LineItem{{Rate: 10, Quantity: 1}}})
	if err != nil {
		t.Fatal(err)
	}

	second, err := svc.Save(ctx, "alice", domain.Invoice{
		ID:        first.ID,
		Name:      "v2",
		Items:     first.Items,
		CreatedAt: first.CreatedAt,
	})
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Fatal("resave minted a new id")
	}
	if !second.CreatedAt.Equal(*first.CreatedAt) {
		t.Fatal("resave restamped CreatedAt")
	}
	if second.Name != "v2" {
		t.Fatalf("metadata not updated: %q", second.Name)
	}
}

func TestSaveFailureLeavesNothingBehind(t *testing.T) {
	repo := newMemRepo()
	repo.saveErr = errors.New("redis down")
	svc := newInvoiceService(repo)

	_, err := svc.Save(context.Background(), "alice", domain.Invoice{Items: []domain.LineItem{{Rate: 10, Quantity: 1}}})
	if err == nil {
		t.Fatal("expected persistence failure to surface")
	}
	if len(repo.byUser["alice"]) != 0 {
		t.Fatal("failed save left a record behind")
	}
}

func TestRecordPayment(t *testing.T) {
	repo := newMemRepo()
	svc := newInvoiceService(repo)
	ctx := context.Background()

	saved, err := svc.Save(ctx, "alice", domain.Invoice{Items: []domain.LineItem{{Rate: 100, Quantity: 2}}})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.RecordPayment(ctx, "alice", saved.ID, "first instalment", 50)
	if err != nil {
		t.Fatal(err)
	}
	updated, err = svc.RecordPayment(ctx, "alice", saved.ID, "second instalment", 30)
	if err != nil {
		t.Fatal(err)
	}

	if len(updated.Payments) != 2 {
		t.Fatalf("expected 2 payments, got %d", len(updated.Payments))
	}
	if updated.RemainingBalance != 91.00 {
		t.Fatalf("remaining balance = %v, want 91.00", updated.RemainingBalance)
	}

	if _, err := svc.RecordPayment(ctx, "alice", "missing", "x", 1); !errors.Is(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
}

func TestSetStatusIndependentOfBalance(t *testing.T) {
	repo := newMemRepo()
	svc := newInvoiceService(repo)
	ctx := context.Background()

	saved, err := svc.Save(ctx, "alice", domain.Invoice{Items: []domain.LineItem{{Rate: 100, Quantity: 2}}})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.SetStatus(ctx, "alice", saved.ID, domain.StatusPaid)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != domain.StatusPaid {
		t.Fatalf("status = %q, want paid", updated.Status)
	}
	// Balance untouched: the flag does not clear the ledger.
	if updated.RemainingBalance != 171.00 {
		t.Fatalf("balance changed with status: %v", updated.RemainingBalance)
	}
}

func TestPreviewDoesNotPersist(t *testing.T) {
	repo := newMemRepo()
	svc := newInvoiceService(repo)

	out := svc.Preview(domain.Invoice{Items: []domain.LineItem{{Rate: 100, Quantity: 1, DiscountPercent: -10}}})
	if out.Items[0].EffectiveUnitPrice != 65.41 {
		t.Fatalf("preview not derived: %+v", out.Items[0])
	}
	if out.TotalAmount != 65.41 {
		t.Fatalf("preview totals wrong: %v", out.TotalAmount)
	}
	if len(repo.byUser) != 0 {
		t.Fatal("preview persisted a record")
	}
}
