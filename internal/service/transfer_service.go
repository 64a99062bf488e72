package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/andresuchdata/autotransfer/backend-go/internal/cache"
	"github.com/andresuchdata/autotransfer/backend-go/internal/domain"
	"github.com/andresuchdata/autotransfer/backend-go/internal/export"
	"github.com/andresuchdata/autotransfer/backend-go/internal/partition"
	"github.com/andresuchdata/autotransfer/backend-go/internal/pipeline"
	"github.com/andresuchdata/autotransfer/backend-go/internal/sheet"
	"github.com/andresuchdata/autotransfer/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
)

const (
	AllArtifact      = "all"
	ShortageArtifact = "shortages"

	AllFileName      = partition.CombinedFileName
	ShortageFileName = "shortages.txt"
	textContentType  = "text/plain; charset=utf-8"
)

var (
	ErrInventoryRequired = errors.New("an inventory file or drive id is required")
	ErrDriveDisabled     = errors.New("drive inventory source is not configured")
)

// InventoryFetcher downloads an inventory export by remote file id.
type InventoryFetcher interface {
	Fetch(ctx context.Context, fileID string) (sheet.Source, error)
}

// TransferRequest is one reconciliation request
type TransferRequest struct {
	Demand           []domain.DemandLine
	Inventory        *sheet.Source
	InventoryDriveID string
	Plan             *sheet.Source
	PartitionBy      string
}

// GroupSummary describes one downloadable partition
type GroupSummary struct {
	Index    int    `json:"index"`
	Key      string `json:"key"`
	FileName string `json:"file_name"`
	Rows     int    `json:"rows"`
	URL      string `json:"url,omitempty"`
}

// TransferSummary is what callers get back from a successful run
type TransferSummary struct {
	RunID       string                `json:"run_id"`
	Lines       []domain.TransferLine `json:"lines"`
	Shortages   []string              `json:"shortages"`
	Groups      []GroupSummary        `json:"groups"`
	Diagnostics pipeline.Diagnostics  `json:"diagnostics"`
	AllURL      string                `json:"all_url,omitempty"`
}

type TransferService struct {
	orchestrator *pipeline.Orchestrator
	artifacts    cache.ArtifactCache
	publisher    *storage.Publisher
	drive        InventoryFetcher
}

// NewTransferService wires the run orchestrator to artifact staging. publisher
// and drive may be nil.
func NewTransferService(orchestrator *pipeline.Orchestrator, artifacts cache.ArtifactCache, publisher *storage.Publisher, drive InventoryFetcher) *TransferService {
	if artifacts == nil {
		artifacts = cache.NewMemoryArtifactCache(0, 0)
	}
	return &TransferService{
		orchestrator: orchestrator,
		artifacts:    artifacts,
		publisher:    publisher,
		drive:        drive,
	}
}

// FileArtifact names the workbook of the i-th partition.
func FileArtifact(i int) string {
	return "file:" + strconv.Itoa(i)
}

// Run executes a reconciliation and stages its workbooks for download.
func (s *TransferService) Run(ctx context.Context, req TransferRequest) (*TransferSummary, error) {
	inv, err := s.inventory(ctx, req)
	if err != nil {
		return nil, err
	}

	orch := s.orchestrator
	if req.PartitionBy != "" {
		if orch, err = orch.WithPartition(req.PartitionBy); err != nil {
			return nil, err
		}
	}

	res, err := orch.Run(ctx, pipeline.Input{Demand: req.Demand, Inventory: inv, Plan: req.Plan})
	if err != nil {
		return nil, err
	}

	artifacts, err := Render(res)
	if err != nil {
		return nil, err
	}

	summary := &TransferSummary{
		RunID:       res.RunID,
		Lines:       res.Lines,
		Shortages:   res.ShortageLog(),
		Diagnostics: res.Diagnostics,
		Groups:      make([]GroupSummary, len(res.Groups)),
	}
	for i, g := range res.Groups {
		summary.Groups[i] = GroupSummary{Index: i, Key: g.Key, FileName: g.FileName, Rows: len(g.Lines)}
	}

	for _, a := range artifacts {
		if err := s.artifacts.Put(ctx, res.RunID, a.Key, a.Artifact); err != nil {
			log.Warn().Err(err).Str("run_id", res.RunID).Str("artifact", a.Key).Msg("transfer: cache put failed")
		}
	}

	s.publish(ctx, summary, artifacts)
	return summary, nil
}

// Artifact returns a staged file of a previous run.
func (s *TransferService) Artifact(ctx context.Context, runID, name string) (*cache.Artifact, bool, error) {
	return s.artifacts.Get(ctx, runID, name)
}

func (s *TransferService) inventory(ctx context.Context, req TransferRequest) (sheet.Source, error) {
	if req.Inventory != nil {
		return *req.Inventory, nil
	}
	if req.InventoryDriveID == "" {
		return sheet.Source{}, ErrInventoryRequired
	}
	if s.drive == nil {
		return sheet.Source{}, ErrDriveDisabled
	}
	src, err := s.drive.Fetch(ctx, req.InventoryDriveID)
	if err != nil {
		return sheet.Source{}, fmt.Errorf("failed to fetch inventory from drive: %w", err)
	}
	return src, nil
}

// publish uploads the artifacts when object storage is configured. Upload
// failures leave the cached downloads intact and are reported as warnings.
func (s *TransferService) publish(ctx context.Context, summary *TransferSummary, artifacts []RenderedArtifact) {
	if s.publisher == nil {
		return
	}

	files := make([]storage.File, len(artifacts))
	for i, a := range artifacts {
		files[i] = storage.File{Name: a.Name, ContentType: a.ContentType, Data: a.Data}
	}

	published, err := s.publisher.Publish(ctx, summary.RunID, files)
	if err != nil {
		log.Warn().Err(err).Str("run_id", summary.RunID).Msg("transfer: artifact upload failed")
		summary.Diagnostics.Warnings = append(summary.Diagnostics.Warnings, "artifact upload failed: "+err.Error())
		return
	}

	for i, a := range artifacts {
		switch {
		case a.Group >= 0:
			summary.Groups[a.Group].URL = published[i].URL
		case a.Key == AllArtifact:
			summary.AllURL = published[i].URL
		}
	}
}

// RenderedArtifact is a rendered file with its cache name. Group is the
// partition index, -1 for run-wide files.
type RenderedArtifact struct {
	cache.Artifact
	Key   string
	Group int
}

// Render builds the partition workbooks, the combined workbook and the
// shortage log of a run, in that order.
func Render(res *pipeline.Result) ([]RenderedArtifact, error) {
	out := make([]RenderedArtifact, 0, len(res.Groups)+2)
	for i, g := range res.Groups {
		data, err := export.Workbook(g.Lines)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", g.FileName, err)
		}
		out = append(out, RenderedArtifact{
			Artifact: cache.Artifact{Name: g.FileName, ContentType: export.ContentType, Data: data},
			Key:      FileArtifact(i),
			Group:    i,
		})
	}

	all, err := export.Workbook(res.Lines)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", AllFileName, err)
	}
	out = append(out,
		RenderedArtifact{
			Artifact: cache.Artifact{Name: AllFileName, ContentType: export.ContentType, Data: all},
			Key:      AllArtifact,
			Group:    -1,
		},
		RenderedArtifact{
			Artifact: cache.Artifact{Name: ShortageFileName, ContentType: textContentType, Data: []byte(export.ShortageLog(res.Shortages))},
			Key:      ShortageArtifact,
			Group:    -1,
		},
	)
	return out, nil
}
