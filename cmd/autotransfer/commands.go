package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/autotransfer/backend-go/internal/app"
	"github.com/andresuchdata/autotransfer/backend-go/internal/columns"
	"github.com/andresuchdata/autotransfer/backend-go/internal/config"
	"github.com/andresuchdata/autotransfer/backend-go/internal/demand"
	"github.com/andresuchdata/autotransfer/backend-go/internal/domain"
	"github.com/andresuchdata/autotransfer/backend-go/internal/drive"
	"github.com/andresuchdata/autotransfer/backend-go/internal/inventory"
	"github.com/andresuchdata/autotransfer/backend-go/internal/pipeline"
	"github.com/andresuchdata/autotransfer/backend-go/internal/service"
	"github.com/andresuchdata/autotransfer/backend-go/internal/sheet"
	"github.com/andresuchdata/autotransfer/backend-go/pkg/logger"
	"github.com/urfave/cli/v2"
)

func runTransfer(c *cli.Context, cfg *config.Config) error {
	inv, err := loadSource(c, cfg, c.String("inventory"))
	if err != nil {
		return err
	}

	lines, err := loadDemand(c.String("demand"), c.App.Reader)
	if err != nil {
		return err
	}

	in := pipeline.Input{Demand: lines, Inventory: inv}
	if p := c.String("plan"); p != "" {
		plan, err := readFile(p)
		if err != nil {
			return err
		}
		in.Plan = &plan
	}

	transfer := cfg.Transfer
	transfer.PartitionBy = c.String("partition-by")
	orch, err := app.NewOrchestrator(transfer)
	if err != nil {
		return err
	}

	res, err := orch.Run(c.Context, in)
	if err != nil {
		if kind := domain.ErrorKind(err); kind != "" {
			return fmt.Errorf("%s: %w", kind, err)
		}
		return err
	}

	written, err := writeArtifacts(c.String("out"), res)
	if err != nil {
		return err
	}

	out := c.App.Writer
	fmt.Fprintln(out, res.Diagnostics.ColumnReport)
	fmt.Fprintf(out, "run %s: %d transfer lines, %d shortages\n", res.RunID, len(res.Lines), len(res.Shortages))
	for _, w := range res.Diagnostics.Warnings {
		fmt.Fprintln(out, "warning:", w)
	}
	for _, s := range res.ShortageLog() {
		fmt.Fprintln(out, s)
	}
	for _, path := range written {
		fmt.Fprintln(out, "wrote", path)
	}
	return nil
}

// writeArtifacts stores every rendered file under dir and returns the paths.
func writeArtifacts(dir string, res *pipeline.Result) ([]string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	artifacts, err := service.Render(res)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		path := filepath.Join(dir, a.Name)
		if err := os.WriteFile(path, a.Data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func inspectInventory(c *cli.Context, cfg *config.Config) error {
	src, err := loadSource(c, cfg, c.String("inventory"))
	if err != nil {
		return err
	}

	raw, err := sheet.Read(src)
	if err != nil {
		return err
	}
	table, err := sheet.Locate(raw, sheet.HeaderMarker)
	if err != nil {
		return err
	}
	mapping, err := columns.InventoryRules.Resolve(table.Header)
	if err != nil {
		return err
	}

	out := c.App.Writer
	fmt.Fprintf(out, "header row: %d (%d data rows)\n", table.HeaderRow, len(table.Rows))
	fmt.Fprintln(out, mapping.Report())

	targets := app.PipelineConfig(cfg.Transfer).Targets
	_, stats, err := inventory.Normalize(mapping.Project(table), inventory.Filter{Targets: targets})
	fmt.Fprintf(out, "candidates: %d, in target warehouses %v: %d\n", stats.Candidates, targets, stats.Targets)
	for _, rec := range stats.Preview {
		fmt.Fprintf(out, "  %s | %s | %s | %s | %s\n", rec.Warehouse, rec.SKU, rec.FNSKU, rec.Zone, rec.Available)
	}
	return err
}

func listDriveFiles(c *cli.Context, cfg *config.Config) error {
	svc, err := app.NewDrive(c.Context, cfg.Drive)
	if err != nil {
		return err
	}
	if svc == nil {
		return service.ErrDriveDisabled
	}

	folderID, err := svc.FindFolderByPath(c.Context, c.String("folder"))
	if err != nil {
		return err
	}
	files, err := svc.ListFiles(c.Context, folderID)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\n", f.ID, f.ModifiedTime, drive.LocalName(f))
	}
	return nil
}

// loadSource reads a local file or fetches a drive:// reference.
func loadSource(c *cli.Context, cfg *config.Config, ref string) (sheet.Source, error) {
	id, ok := drive.ParseRef(ref)
	if !ok {
		return readFile(ref)
	}

	svc, err := app.NewDrive(c.Context, cfg.Drive)
	if err != nil {
		return sheet.Source{}, err
	}
	if svc == nil {
		return sheet.Source{}, service.ErrDriveDisabled
	}
	logger.Log.Info().Str("file_id", id).Msg("fetching inventory from drive")
	return svc.Fetch(c.Context, id)
}

func readFile(path string) (sheet.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sheet.Source{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return sheet.Source{Name: filepath.Base(path), Data: data}, nil
}

// loadDemand picks the decoder from the path: "-" is pasted text on stdin,
// .json is a JSON array, anything else a spreadsheet.
func loadDemand(path string, stdin io.Reader) ([]domain.DemandLine, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read demand from stdin: %w", err)
		}
		return demand.FromText(string(data))
	}

	src, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return demand.FromJSON(src.Data)
	}
	return demand.FromSource(src)
}
