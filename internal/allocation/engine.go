package allocation

import (
	"strings"

	"github.com/andresuchdata/autotransfer/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// Outcome collects what a single allocation pass produced
type Outcome struct {
	Results   []domain.AllocationResult `json:"results"`
	Shortages []domain.ShortageEntry    `json:"shortages"`
	Skipped   int                       `json:"skipped"`
}

// Allocated returns the total quantity across results.
func (o Outcome) Allocated() decimal.Decimal {
	total := decimal.Zero
	for _, r := range o.Results {
		total = total.Add(r.Quantity)
	}
	return total
}

// Engine runs the exact then substitute allocation over one Store
type Engine struct {
	store *Store
}

// NewEngine allocates against store, which is depleted as lines are served.
func NewEngine(store *Store) *Engine {
	return &Engine{store: store}
}

// Allocate serves lines in the given order. Depletion is cumulative across
// lines. Lines with a blank SKU or a non-positive quantity are skipped.
func (e *Engine) Allocate(lines []domain.DemandLine) Outcome {
	var out Outcome
	for _, line := range lines {
		if strings.TrimSpace(line.SKU) == "" || !line.Quantity.IsPositive() {
			out.Skipped++
			continue
		}

		remaining := line.Quantity
		remaining = e.serve(&out, line, remaining, domain.MatchExact)
		if remaining.IsPositive() {
			remaining = e.serve(&out, line, remaining, domain.MatchSubstituted)
		}
		if remaining.IsPositive() {
			out.Shortages = append(out.Shortages, domain.ShortageEntry{
				Line:        line.Line,
				SKU:         line.SKU,
				FNSKU:       line.FNSKU,
				Unfulfilled: remaining,
			})
		}
	}
	return out
}

func (e *Engine) serve(out *Outcome, line domain.DemandLine, remaining decimal.Decimal, kind domain.MatchKind) decimal.Decimal {
	for _, rec := range e.store.Candidates(line.SKU) {
		if !remaining.IsPositive() {
			break
		}
		exact := rec.FNSKU == line.FNSKU
		if exact != (kind == domain.MatchExact) {
			continue
		}

		taken := rec.Take(remaining)
		if taken.IsZero() {
			continue
		}
		remaining = remaining.Sub(taken)

		out.Results = append(out.Results, domain.AllocationResult{
			Line:           line.Line,
			Tag:            line.Tag,
			Warehouse:      rec.Warehouse,
			Zone:           rec.Zone,
			SKU:            line.SKU,
			FNSKU:          rec.FNSKU,
			RequestedFNSKU: line.FNSKU,
			Quantity:       taken,
			InventoryID:    rec.ID,
			Match:          kind,
		})
	}
	return remaining
}
