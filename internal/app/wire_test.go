package app_test

import (
	"context"
	"testing"

	"github.com/andresuchdata/autotransfer/backend-go/internal/app"
	"github.com/andresuchdata/autotransfer/backend-go/internal/config"
	"github.com/andresuchdata/autotransfer/backend-go/internal/partition"
	"github.com/andresuchdata/autotransfer/backend-go/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineConfig_KeepsDefaultsForBlankFields(t *testing.T) {
	assert.Equal(t, pipeline.DefaultConfig(), app.PipelineConfig(config.TransferConfig{}))
}

func TestPipelineConfig_Overrides(t *testing.T) {
	got := app.PipelineConfig(config.TransferConfig{
		Targets:              []string{"海外仓"},
		DestinationWarehouse: "FBA-US",
		PartitionBy:          "tag",
	})

	assert.Equal(t, []string{"海外仓"}, got.Targets)
	assert.Equal(t, "FBA-US", got.Destination.Warehouse)
	assert.Equal(t, partition.DefaultDestination.Zone, got.Destination.Zone)
	assert.Equal(t, partition.DefaultDestination.TransferType, got.Destination.TransferType)
	assert.Equal(t, "tag", got.PartitionBy)
}

func TestNewOrchestrator_RejectsUnknownPartition(t *testing.T) {
	_, err := app.NewOrchestrator(config.TransferConfig{PartitionBy: "sku"})
	assert.ErrorIs(t, err, partition.ErrUnknownStrategy)
}

func TestOptionalComponentsDisabled(t *testing.T) {
	d, err := app.NewDrive(context.Background(), config.DriveConfig{})
	require.NoError(t, err)
	assert.Nil(t, d)

	p, err := app.NewPublisher(config.StorageConfig{})
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestOptionalComponentsMisconfigured(t *testing.T) {
	_, err := app.NewDrive(context.Background(), config.DriveConfig{Enabled: true})
	assert.Error(t, err)

	_, err = app.NewDrive(context.Background(), config.DriveConfig{Enabled: true, CredentialsFile: "/nonexistent/creds.json"})
	assert.Error(t, err)

	_, err = app.NewPublisher(config.StorageConfig{Enabled: true, Endpoint: "localhost:9000"})
	assert.Error(t, err)
}

func TestNewPublisher_Configured(t *testing.T) {
	p, err := app.NewPublisher(config.StorageConfig{
		Enabled:   true,
		Endpoint:  "http://localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "transfers",
	})
	require.NoError(t, err)
	assert.NotNil(t, p)
}
