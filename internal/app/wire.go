// Package app builds the runtime components shared by the HTTP server and the CLI.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/andresuchdata/autotransfer/backend-go/internal/config"
	"github.com/andresuchdata/autotransfer/backend-go/internal/drive"
	"github.com/andresuchdata/autotransfer/backend-go/internal/pipeline"
	"github.com/andresuchdata/autotransfer/backend-go/internal/storage"
)

// PipelineConfig maps the transfer policy onto the pipeline, keeping the
// defaults for any blank field.
func PipelineConfig(cfg config.TransferConfig) pipeline.Config {
	out := pipeline.DefaultConfig()
	if len(cfg.Targets) > 0 {
		out.Targets = cfg.Targets
	}
	if cfg.TransferType != "" {
		out.Destination.TransferType = cfg.TransferType
	}
	if cfg.DestinationWarehouse != "" {
		out.Destination.Warehouse = cfg.DestinationWarehouse
	}
	if cfg.DestinationZone != "" {
		out.Destination.Zone = cfg.DestinationZone
	}
	if cfg.PartitionBy != "" {
		out.PartitionBy = cfg.PartitionBy
	}
	return out
}

// NewOrchestrator builds the orchestrator for cfg.
func NewOrchestrator(cfg config.TransferConfig) (*pipeline.Orchestrator, error) {
	orch, err := pipeline.New(PipelineConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("invalid transfer config: %w", err)
	}
	return orch, nil
}

// NewDrive returns nil when Drive is disabled. Inline JSON credentials win
// over the credentials file.
func NewDrive(ctx context.Context, cfg config.DriveConfig) (*drive.Service, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	creds := strings.TrimSpace(cfg.CredentialsJSON)
	if creds == "" && cfg.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read drive credentials: %w", err)
		}
		creds = string(data)
	}
	if creds == "" {
		return nil, fmt.Errorf("drive is enabled but no credentials are configured")
	}
	return drive.NewService(ctx, creds)
}

// NewPublisher returns nil when object storage is disabled.
func NewPublisher(cfg config.StorageConfig) (*storage.Publisher, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	client, err := storage.NewMinioClient(storage.MinioConfig{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return storage.NewPublisher(client, cfg.Prefix, time.Duration(cfg.PresignTTLSeconds)*time.Second), nil
}
