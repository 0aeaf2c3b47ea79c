package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"invoicepad/internal/domain"
)

// KV is the key-value surface the invoice store needs. The redis client
// wrapper satisfies it in production; tests use an in-memory fake.
type KV interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	SAdd(ctx context.Context, key string, members ...any) error
	SRem(ctx context.Context, key string, members ...any) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// InvoiceRepository persists invoices as whole-object JSON snapshots:
// one record per invoice plus a per-user index set of invoice ids.
type InvoiceRepository struct {
	kv KV
}

func NewInvoiceRepository(kv KV) *InvoiceRepository {
	return &InvoiceRepository{kv: kv}
}

func recordKey(username, invoiceID string) string {
	return fmt.Sprintf("invoices:%s:%s", username, invoiceID)
}

func indexKey(username string) string {
	return fmt.Sprintf("invoices:%s", username)
}

// Save upserts the snapshot by invoice id. Records never expire.
func (r *InvoiceRepository) Save(ctx context.Context, username string, inv domain.Invoice) error {
	data, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("marshal invoice %q: %w", inv.ID, err)
	}
	if err := r.kv.Set(ctx, recordKey(username, inv.ID), string(data), 0); err != nil {
		return fmt.Errorf("store invoice %q: %w", inv.ID, err)
	}
	if err := r.kv.SAdd(ctx, indexKey(username), inv.ID); err != nil {
		return fmt.Errorf("index invoice %q: %w", inv.ID, err)
	}
	return nil
}

func (r *InvoiceRepository) Get(ctx context.Context, username, invoiceID string) (domain.Invoice, error) {
	data, err := r.kv.Get(ctx, recordKey(username, invoiceID))
	if err != nil {
		return domain.Invoice{}, domain.ErrInvoiceNotFound
	}

	var inv domain.Invoice
	if err := json.Unmarshal([]byte(data), &inv); err != nil {
		return domain.Invoice{}, fmt.Errorf("parse invoice %q: %w", invoiceID, err)
	}
	return inv, nil
}

// List returns the user's invoices sorted by date descending (newest
// first), falling back to CreatedAt for same-day invoices. Index entries
// whose record is missing or unreadable are skipped.
func (r *InvoiceRepository) List(ctx context.Context, username string) ([]domain.Invoice, error) {
	ids, err := r.kv.SMembers(ctx, indexKey(username))
	if err != nil {
		return nil, fmt.Errorf("list invoices for %q: %w", username, err)
	}

	var invoices []domain.Invoice
	for _, id := range ids {
		data, err := r.kv.Get(ctx, recordKey(username, id))
		if err != nil {
			continue
		}
		var inv domain.Invoice
		if err := json.Unmarshal([]byte(data), &inv); err != nil {
			continue
		}
		invoices = append(invoices, inv)
	}

	sort.Slice(invoices, func(i, j int) bool {
		if invoices[i].Date != invoices[j].Date {
			return invoices[i].Date > invoices[j].Date
		}
		ci, cj := invoices[i].CreatedAt, invoices[j].CreatedAt
		if ci != nil && cj != nil {
			return ci.After(*cj)
		}
		return invoices[i].ID < invoices[j].ID
	})

	return invoices, nil
}

func (r *InvoiceRepository) Remove(ctx context.Context, username, invoiceID string) error {
	if _, err := r.kv.Get(ctx, recordKey(username, invoiceID)); err != nil {
		return domain.ErrInvoiceNotFound
	}
	if err := r.kv.Del(ctx, recordKey(username, invoiceID)); err != nil {
		return fmt.Errorf("delete invoice %q: %w", invoiceID, err)
	}
	if err := r.kv.SRem(ctx, indexKey(username), invoiceID); err != nil {
		return fmt.Errorf("unindex invoice %q: %w", invoiceID, err)
	}
	return nil
}
