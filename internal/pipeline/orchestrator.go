package pipeline

import (
	"context"
	"fmt"

	"github.com/andresuchdata/autotransfer/backend-go/internal/allocation"
	"github.com/andresuchdata/autotransfer/backend-go/internal/columns"
	"github.com/andresuchdata/autotransfer/backend-go/internal/domain"
	"github.com/andresuchdata/autotransfer/backend-go/internal/inventory"
	"github.com/andresuchdata/autotransfer/backend-go/internal/partition"
	"github.com/andresuchdata/autotransfer/backend-go/internal/plan"
	"github.com/andresuchdata/autotransfer/backend-go/internal/sheet"
	"github.com/andresuchdata/autotransfer/backend-go/pkg/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WarnNoTransfers is attached when every demand line ended up short.
const WarnNoTransfers = "no transfer line generated: stock is insufficient or demand SKUs do not match inventory SKUs"

// Orchestrator runs locate, resolve, normalize, deduct, allocate and partition
// for one request. It keeps no state between runs.
type Orchestrator struct {
	cfg    Config
	keyFor partition.KeyFunc
}

// New validates cfg and returns an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	key, err := partition.ParseStrategy(cfg.PartitionBy)
	if err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		cfg.Targets = inventory.DefaultTargets
	}
	return &Orchestrator{cfg: cfg, keyFor: key}, nil
}

// WithPartition returns a copy that splits by another strategy.
func (o *Orchestrator) WithPartition(name string) (*Orchestrator, error) {
	cfg := o.cfg
	cfg.PartitionBy = name
	return New(cfg)
}

// Run evaluates one request. Any error from reading the inventory through
// normalization aborts the run and no Result is returned. A missing or
// unreadable plan only produces a warning.
func (o *Orchestrator) Run(ctx context.Context, in Input) (*Result, error) {
	runID := uuid.NewString()
	log := logger.ForRun(runID)
	res := &Result{RunID: runID}

	records, err := o.loadInventory(ctx, log, in.Inventory, &res.Diagnostics)
	if err != nil {
		log.Warn().Err(err).Str("kind", domain.ErrorKind(err)).Msg("run aborted")
		return nil, err
	}

	if in.Plan != nil {
		o.deduct(log, *in.Plan, records, &res.Diagnostics)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outcome := allocation.NewEngine(allocation.NewStore(records)).Allocate(in.Demand)
	res.Results = outcome.Results
	res.Shortages = outcome.Shortages
	res.Diagnostics.Skipped = outcome.Skipped
	log.Info().
		Str("stage", string(StageAllocate)).
		Int("demand_lines", len(in.Demand)).
		Int("results", len(outcome.Results)).
		Int("shortages", len(outcome.Shortages)).
		Str("allocated", outcome.Allocated().String()).
		Msg("allocation complete")

	if len(res.Results) == 0 {
		res.Diagnostics.Warnings = append(res.Diagnostics.Warnings, WarnNoTransfers)
	}

	res.Lines = partition.Lines(res.Results, o.cfg.Destination)
	res.Groups = partition.Split(res.Results, o.cfg.Destination, o.keyFor)
	log.Debug().Str("stage", string(StagePartition)).Int("groups", len(res.Groups)).Msg("results partitioned")

	return res, nil
}

func (o *Orchestrator) loadInventory(ctx context.Context, log zerolog.Logger, src sheet.Source, diag *Diagnostics) ([]*domain.InventoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := sheet.Read(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory %s: %w", src.Name, err)
	}
	table, err := sheet.Locate(raw, sheet.HeaderMarker)
	if err != nil {
		return nil, fmt.Errorf("failed to locate inventory header: %w", err)
	}
	diag.HeaderRow = table.HeaderRow
	log.Debug().Str("stage", string(StageLocate)).Int("header_row", table.HeaderRow).Int("rows", len(table.Rows)).Msg("header located")

	mapping, err := columns.InventoryRules.Resolve(table.Header)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve inventory columns: %w", err)
	}
	diag.ColumnReport = mapping.Report()
	log.Info().Str("stage", string(StageResolve)).Msg(diag.ColumnReport)

	records, stats, err := inventory.Normalize(mapping.Project(table), inventory.Filter{Targets: o.cfg.Targets})
	diag.Candidates = stats.Candidates
	diag.Targets = stats.Targets
	diag.Preview = stats.Preview
	if err != nil {
		return nil, err
	}
	log.Info().Str("stage", string(StageNormalize)).Int("candidates", stats.Candidates).Int("targets", stats.Targets).Msg("inventory normalized")

	return records, nil
}

func (o *Orchestrator) deduct(log zerolog.Logger, src sheet.Source, records []*domain.InventoryRecord, diag *Diagnostics) {
	raw, err := sheet.Read(src)
	if err == nil {
		var balances *plan.Balances
		balances, err = plan.Load(raw)
		if err == nil {
			total := balances.Deduct(records)
			diag.PlanApplied = true
			diag.PlanDeducted = total.String()
			log.Info().Str("stage", string(StageDeduct)).Str("deducted", diag.PlanDeducted).Msg("plan deducted")
			return
		}
	}

	diag.Warnings = append(diag.Warnings, fmt.Sprintf("plan %s ignored: %v", src.Name, err))
	log.Warn().Str("stage", string(StageDeduct)).Err(err).Str("file", src.Name).Msg("plan ignored, inventory left undiminished")
}
