package pipeline

import (
	"github.com/andresuchdata/autotransfer/backend-go/internal/domain"
	"github.com/andresuchdata/autotransfer/backend-go/internal/inventory"
	"github.com/andresuchdata/autotransfer/backend-go/internal/partition"
	"github.com/andresuchdata/autotransfer/backend-go/internal/sheet"
)

// Config holds the business policy a run is evaluated under
type Config struct {
	Targets     []string              // warehouse name fragments stock is drawn from
	Destination partition.Destination // fixed receiving side of every line
	PartitionBy string                // zone, warehouse or tag
}

// DefaultConfig returns the outsourced-to-Shenzhen policy split by zone
func DefaultConfig() Config {
	return Config{
		Targets:     inventory.DefaultTargets,
		Destination: partition.DefaultDestination,
		PartitionBy: "zone",
	}
}

// Input is everything one run consumes. Plan is optional.
type Input struct {
	Demand    []domain.DemandLine
	Inventory sheet.Source
	Plan      *sheet.Source
}

// Stage names a step of a run, used in logs
type Stage string

const (
	StageLocate    Stage = "locate"
	StageResolve   Stage = "resolve"
	StageNormalize Stage = "normalize"
	StageDeduct    Stage = "deduct"
	StageAllocate  Stage = "allocate"
	StagePartition Stage = "partition"
)

// Diagnostics is the operator facing account of how the inventory was read
type Diagnostics struct {
	HeaderRow    int                      `json:"header_row"`
	ColumnReport string                   `json:"column_report"`
	Candidates   int                      `json:"candidates"`
	Targets      int                      `json:"targets"`
	Preview      []domain.InventoryRecord `json:"preview"`
	PlanApplied  bool                     `json:"plan_applied"`
	PlanDeducted string                   `json:"plan_deducted"`
	Skipped      int                      `json:"skipped"`
	Warnings     []string                 `json:"warnings,omitempty"`
}

// Result is the complete output of a successful run
type Result struct {
	RunID       string                    `json:"run_id"`
	Lines       []domain.TransferLine     `json:"lines"`
	Results     []domain.AllocationResult `json:"results"`
	Shortages   []domain.ShortageEntry    `json:"shortages"`
	Groups      []partition.Group         `json:"groups"`
	Diagnostics Diagnostics               `json:"diagnostics"`
}

// ShortageLog returns the human readable shortage lines in order.
func (r *Result) ShortageLog() []string {
	out := make([]string, 0, len(r.Shortages))
	for _, s := range r.Shortages {
		out = append(out, s.String())
	}
	return out
}
