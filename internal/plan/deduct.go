// Package plan pre-consumes stock already promised to a pickup plan.
package plan

import (
	"strings"

	"github.com/andresuchdata/autotransfer/backend-go/internal/columns"
	"github.com/andresuchdata/autotransfer/backend-go/internal/domain"
	"github.com/andresuchdata/autotransfer/backend-go/internal/sheet"
	"github.com/shopspring/decimal"
)

type key struct {
	SKU   string
	FNSKU string
}

// Balances holds the remaining reserved quantity per (SKU, FNSKU)
type Balances struct {
	remaining map[key]decimal.Decimal
	order     []key
}

// Load locates the plan header, resolves its columns and aggregates reserved
// quantities. A missing FNSKU column groups everything under an empty FNSKU.
func Load(raw sheet.Raw) (*Balances, error) {
	table, err := sheet.Locate(raw, sheet.HeaderMarker)
	if err != nil {
		return nil, err
	}

	mapping, err := columns.PlanRules.Resolve(table.Header)
	if err != nil {
		return nil, err
	}
	projected := mapping.Project(table)

	reservations := make([]domain.PlanReservation, 0, len(projected.Rows))
	for i := range projected.Rows {
		reservations = append(reservations, domain.PlanReservation{
			SKU:      strings.TrimSpace(projected.Value(i, columns.ColSKU)),
			FNSKU:    strings.TrimSpace(projected.Value(i, columns.ColFNSKU)),
			Reserved: domain.ParseQuantity(projected.Value(i, columns.ColPlanQty)),
		})
	}
	return NewBalances(reservations), nil
}

// NewBalances groups reservations by (SKU, FNSKU) and sums them.
func NewBalances(reservations []domain.PlanReservation) *Balances {
	b := &Balances{remaining: make(map[key]decimal.Decimal)}
	for _, r := range reservations {
		k := key{SKU: r.SKU, FNSKU: r.FNSKU}
		cur, ok := b.remaining[k]
		if !ok {
			b.order = append(b.order, k)
		}
		b.remaining[k] = cur.Add(r.Reserved)
	}
	return b
}

// Reservations returns the aggregated balances in first-seen order.
func (b *Balances) Reservations() []domain.PlanReservation {
	out := make([]domain.PlanReservation, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, domain.PlanReservation{SKU: k.SKU, FNSKU: k.FNSKU, Reserved: b.remaining[k]})
	}
	return out
}

// Remaining returns the balance left for a key.
func (b *Balances) Remaining(sku, fnsku string) decimal.Decimal {
	return b.remaining[key{SKU: sku, FNSKU: fnsku}]
}

// Deduct walks records in the given order and consumes min(available, balance)
// from both sides. It never takes a record below zero nor a balance below zero.
// It returns the total quantity deducted.
func (b *Balances) Deduct(records []*domain.InventoryRecord) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range records {
		k := key{SKU: rec.SKU, FNSKU: rec.FNSKU}
		bal, ok := b.remaining[k]
		if !ok || !bal.IsPositive() {
			continue
		}
		taken := rec.Take(bal)
		b.remaining[k] = bal.Sub(taken)
		total = total.Add(taken)
	}
	return total
}
