// backend-go/internal/config/config.go
package config

import (
	"log"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	App      AppConfig
	Transfer TransferConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Drive    DriveConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
	MaxUploadMB    int64
}

type AppConfig struct {
	LogFormat string
	OutputDir string
}

// TransferConfig is the business policy applied to every run
type TransferConfig struct {
	Targets              []string
	TransferType         string
	DestinationWarehouse string
	DestinationZone      string
	PartitionBy          string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	ArtifactTTLSeconds int
	MemoryEntries      int
}

type StorageConfig struct {
	Enabled           bool
	Endpoint          string
	AccessKey         string
	SecretKey         string
	Bucket            string
	Region            string
	UseSSL            bool
	Prefix            string
	PresignTTLSeconds int
}

type DriveConfig struct {
	Enabled         bool
	CredentialsJSON string
	CredentialsFile string
}

var (
	once     sync.Once
	instance *Config
)

// Load reads .env and the environment once and returns the shared Config.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		instance = FromViper(viper.GetViper())
		if instance.App.OutputDir != "" {
			ensureDir(instance.App.OutputDir)
		}
	})

	return instance
}

// FromViper applies defaults to v, binds the environment and builds a Config.
func FromViper(v *viper.Viper) *Config {
	setDefaults(v)

	// Read from environment variables
	v.AutomaticEnv()

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: splitList(v.GetString("SERVER_ALLOWED_ORIGINS")),
			MaxUploadMB:    v.GetInt64("SERVER_MAX_UPLOAD_MB"),
		},
		App: AppConfig{
			LogFormat: v.GetString("APP_LOG_FORMAT"),
			OutputDir: v.GetString("APP_OUTPUT_DIR"),
		},
		Transfer: TransferConfig{
			Targets:              splitList(v.GetString("TRANSFER_TARGET_WAREHOUSES")),
			TransferType:         v.GetString("TRANSFER_TYPE"),
			DestinationWarehouse: v.GetString("TRANSFER_DEST_WAREHOUSE"),
			DestinationZone:      v.GetString("TRANSFER_DEST_ZONE"),
			PartitionBy:          v.GetString("TRANSFER_PARTITION_BY"),
		},
		Cache: CacheConfig{
			Enabled:            v.GetBool("CACHE_ENABLED"),
			RedisURL:           v.GetString("REDIS_URL"),
			RedisHost:          v.GetString("REDIS_HOST"),
			RedisPort:          v.GetString("REDIS_PORT"),
			RedisPassword:      v.GetString("REDIS_PASSWORD"),
			RedisDB:            v.GetInt("REDIS_DB"),
			ArtifactTTLSeconds: v.GetInt("CACHE_ARTIFACT_TTL_SECONDS"),
			MemoryEntries:      v.GetInt("CACHE_MEMORY_ENTRIES"),
		},
		Storage: StorageConfig{
			Enabled:           v.GetBool("STORAGE_ENABLED"),
			Endpoint:          v.GetString("STORAGE_ENDPOINT"),
			AccessKey:         v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey:         v.GetString("STORAGE_SECRET_KEY"),
			Bucket:            v.GetString("STORAGE_BUCKET"),
			Region:            v.GetString("STORAGE_REGION"),
			UseSSL:            v.GetBool("STORAGE_USE_SSL"),
			Prefix:            v.GetString("STORAGE_PREFIX"),
			PresignTTLSeconds: v.GetInt("STORAGE_PRESIGN_TTL_SECONDS"),
		},
		Drive: DriveConfig{
			Enabled:         v.GetBool("DRIVE_ENABLED"),
			CredentialsJSON: v.GetString("GOOGLE_CREDENTIALS_JSON"),
			CredentialsFile: v.GetString("GOOGLE_CREDENTIALS_FILE"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", "*")
	v.SetDefault("SERVER_MAX_UPLOAD_MB", 32)
	v.SetDefault("APP_LOG_FORMAT", "console")
	v.SetDefault("APP_OUTPUT_DIR", "")
	v.SetDefault("TRANSFER_TARGET_WAREHOUSES", "外协,天源")
	v.SetDefault("TRANSFER_TYPE", "组织内调拨")
	v.SetDefault("TRANSFER_DEST_WAREHOUSE", "DLM供应链亚马逊深圳仓-SZ")
	v.SetDefault("TRANSFER_DEST_ZONE", "成品-存储1区")
	v.SetDefault("TRANSFER_PARTITION_BY", "zone")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_ARTIFACT_TTL_SECONDS", 3600)
	v.SetDefault("CACHE_MEMORY_ENTRIES", 256)
	v.SetDefault("STORAGE_ENABLED", false)
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("STORAGE_PREFIX", "transfers")
	v.SetDefault("STORAGE_PRESIGN_TTL_SECONDS", 86400)
	v.SetDefault("DRIVE_ENABLED", false)
}

// splitList splits comma separated settings; viper only splits on whitespace.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
