// Package allocation serves demand lines greedily from a shared inventory store.
package allocation

import (
	"sort"

	"github.com/andresuchdata/autotransfer/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// Store owns the mutable availability of one run. Records are ordered by
// available quantity (largest first, original order on ties) at construction
// and keep that order while they are depleted.
type Store struct {
	records []*domain.InventoryRecord
	bySKU   map[string][]*domain.InventoryRecord
	byID    map[int]*domain.InventoryRecord
}

// NewStore indexes the run's records. The records are shared, not copied, so
// depletion is visible to the caller after allocation.
func NewStore(records []*domain.InventoryRecord) *Store {
	sorted := make([]*domain.InventoryRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Available.GreaterThan(sorted[j].Available)
	})

	s := &Store{
		records: sorted,
		bySKU:   make(map[string][]*domain.InventoryRecord),
		byID:    make(map[int]*domain.InventoryRecord, len(sorted)),
	}
	for _, rec := range sorted {
		s.bySKU[rec.SKU] = append(s.bySKU[rec.SKU], rec)
		s.byID[rec.ID] = rec
	}
	return s
}

// Candidates returns the records of a SKU in allocation order.
func (s *Store) Candidates(sku string) []*domain.InventoryRecord {
	return s.bySKU[sku]
}

// Available returns the remaining quantity of a record, zero for unknown IDs.
func (s *Store) Available(id int) decimal.Decimal {
	if rec, ok := s.byID[id]; ok {
		return rec.Available
	}
	return decimal.Zero
}

// Records returns every record in allocation order.
func (s *Store) Records() []*domain.InventoryRecord {
	return s.records
}

// Total returns the sum of remaining availability.
func (s *Store) Total() decimal.Decimal {
	total := decimal.Zero
	for _, rec := range s.records {
		total = total.Add(rec.Available)
	}
	return total
}
