// backend-go/internal/domain/models.go
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MatchKind tells whether an allocation delivered the requested FNSKU or a substitute
type MatchKind string

const (
	MatchExact       MatchKind = "exact"
	MatchSubstituted MatchKind = "substituted"
)

// Remark returns the annotation written to the transfer order for this match kind.
func (k MatchKind) Remark() string {
	switch k {
	case MatchExact:
		return "目标匹配"
	case MatchSubstituted:
		return "自动补位"
	default:
		return ""
	}
}

// DemandLine is one requested (SKU, FNSKU, quantity) row
type DemandLine struct {
	Line     int             `json:"line"`
	SKU      string          `json:"sku"`
	FNSKU    string          `json:"fnsku"`
	Quantity decimal.Decimal `json:"qty"`
	Tag      string          `json:"country,omitempty"`
}

// InventoryRecord is one normalized on-hand stock row.
// Available is mutated by plan deduction and allocation and never drops below zero.
type InventoryRecord struct {
	ID        int             `json:"id"`
	SKU       string          `json:"sku"`
	FNSKU     string          `json:"fnsku"`
	Warehouse string          `json:"warehouse"`
	Zone      string          `json:"zone"`
	Available decimal.Decimal `json:"available"`
}

// Take removes up to qty from the record and returns the amount actually taken.
func (r *InventoryRecord) Take(qty decimal.Decimal) decimal.Decimal {
	if !qty.IsPositive() || !r.Available.IsPositive() {
		return decimal.Zero
	}
	taken := decimal.Min(qty, r.Available)
	r.Available = r.Available.Sub(taken)
	return taken
}

// PlanReservation is the aggregated reserved quantity for one (SKU, FNSKU) pair
type PlanReservation struct {
	SKU      string          `json:"sku"`
	FNSKU    string          `json:"fnsku"`
	Reserved decimal.Decimal `json:"reserved"`
}

// AllocationResult is one (demand line, inventory record) pairing with a nonzero quantity
type AllocationResult struct {
	Line           int             `json:"line"`
	Tag            string          `json:"country,omitempty"`
	Warehouse      string          `json:"source_warehouse"`
	Zone           string          `json:"source_zone"`
	SKU            string          `json:"sku"`
	FNSKU          string          `json:"fnsku"`
	RequestedFNSKU string          `json:"requested_fnsku"`
	Quantity       decimal.Decimal `json:"qty"`
	InventoryID    int             `json:"inventory_id"`
	Match          MatchKind       `json:"match"`
}

// ShortageEntry records the quantity a demand line could not be served
type ShortageEntry struct {
	Line        int             `json:"line"`
	SKU         string          `json:"sku"`
	FNSKU       string          `json:"fnsku"`
	Unfulfilled decimal.Decimal `json:"unfulfilled"`
}

// String renders the shortage log line shown to operators.
func (s ShortageEntry) String() string {
	return fmt.Sprintf("SKU %s (FnSKU: %s) 缺货: %s", s.SKU, s.FNSKU, s.Unfulfilled.String())
}

// TransferLine is one row of the direct transfer order handed to the WMS import
type TransferLine struct {
	TransferType  string          `json:"transfer_type"`
	FromWarehouse string          `json:"from_warehouse"`
	ToWarehouse   string          `json:"to_warehouse"`
	SKU           string          `json:"sku"`
	FNSKU         string          `json:"fnsku"`
	FromZone      string          `json:"from_zone"`
	ToZone        string          `json:"to_zone"`
	Quantity      decimal.Decimal `json:"qty"`
	Remark        string          `json:"remark"`
}

// TransferColumns is the column order of the transfer order export
var TransferColumns = []string{"调拨类型", "调出仓库", "调入仓库", "SKU", "FNSKU", "调出库区", "调入库区", "调拨数量", "备注"}

// Values returns the row cells in TransferColumns order.
func (l TransferLine) Values() []string {
	return []string{
		l.TransferType,
		l.FromWarehouse,
		l.ToWarehouse,
		l.SKU,
		l.FNSKU,
		l.FromZone,
		l.ToZone,
		l.Quantity.String(),
		l.Remark,
	}
}
