// Package inventory cleans resolved stock rows and keeps only the
// warehouses a transfer run draws from.
package inventory

import (
	"strings"

	"github.com/andresuchdata/autotransfer/backend-go/internal/columns"
	"github.com/andresuchdata/autotransfer/backend-go/internal/domain"
	"github.com/andresuchdata/autotransfer/backend-go/internal/sheet"
)

// DefaultTargets are the outsourced warehouse name fragments stock is pulled from.
var DefaultTargets = []string{"外协", "天源"}

const previewRows = 3

// Filter selects the warehouses relevant to a run
type Filter struct {
	Targets []string
}

// Match reports whether the warehouse name contains any target fragment.
func (f Filter) Match(warehouse string) bool {
	for _, t := range f.Targets {
		if t != "" && strings.Contains(warehouse, t) {
			return true
		}
	}
	return false
}

// Stats describes what normalization saw before and after filtering
type Stats struct {
	Candidates int                      `json:"candidates"`
	Targets    int                      `json:"targets"`
	Preview    []domain.InventoryRecord `json:"preview"`
}

// Normalize converts a table produced by columns.InventoryRules into records
// and drops rows outside the target warehouses. Numeric cells never fail:
// unparsable stock is treated as zero availability.
func Normalize(t *sheet.Table, f Filter) ([]*domain.InventoryRecord, Stats, error) {
	stats := Stats{Candidates: len(t.Rows)}
	records := make([]*domain.InventoryRecord, 0, len(t.Rows))

	for i := range t.Rows {
		rec := domain.InventoryRecord{
			SKU:       strings.TrimSpace(t.Value(i, columns.ColSKU)),
			FNSKU:     strings.TrimSpace(t.Value(i, columns.ColFNSKU)),
			Warehouse: strings.TrimSpace(t.Value(i, columns.ColWarehouse)),
			Zone:      strings.TrimSpace(t.Value(i, columns.ColZone)),
			Available: domain.ParseQuantity(t.Value(i, columns.ColStock)),
		}
		if len(stats.Preview) < previewRows {
			stats.Preview = append(stats.Preview, rec)
		}
		if !f.Match(rec.Warehouse) {
			continue
		}
		rec.ID = len(records)
		records = append(records, &rec)
	}

	stats.Targets = len(records)
	if len(records) == 0 {
		return nil, stats, &domain.NoTargetInventoryError{
			Candidates: stats.Candidates,
			Targets:    append([]string(nil), f.Targets...),
		}
	}
	return records, stats, nil
}
