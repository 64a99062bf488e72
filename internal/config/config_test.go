package config_test

import (
	"testing"

	"github.com/andresuchdata/autotransfer/backend-go/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg := config.FromViper(viper.New())

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, []string{"外协", "天源"}, cfg.Transfer.Targets)
	assert.Equal(t, "DLM供应链亚马逊深圳仓-SZ", cfg.Transfer.DestinationWarehouse)
	assert.Equal(t, "zone", cfg.Transfer.PartitionBy)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 3600, cfg.Cache.ArtifactTTLSeconds)
	assert.False(t, cfg.Storage.Enabled)
	assert.True(t, cfg.Storage.UseSSL)
}

func TestFromViper_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("TRANSFER_TARGET_WAREHOUSES", "外协 , 代工")
	t.Setenv("TRANSFER_PARTITION_BY", "warehouse")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("STORAGE_BUCKET", "exports")

	cfg := config.FromViper(viper.New())

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, []string{"外协", "代工"}, cfg.Transfer.Targets)
	assert.Equal(t, "warehouse", cfg.Transfer.PartitionBy)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "exports", cfg.Storage.Bucket)
}
