package configs

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	DefaultStoreRoot     = "/data/datastore"
	DefaultStoreTempDir  = ".staging"
	DefaultStoreDirPerm  = 0o755
	DefaultStoreFilePerm = 0o644

	DefaultArchiveEndpoint  = "localhost:9000"
	DefaultArchiveAccessKey = "minioadmin"
	DefaultArchiveSecretKey = "minioadmin"
	DefaultArchiveUseSSL    = false
	DefaultArchiveBucket    = "magvault-archive"
	DefaultArchiveRegion    = "us-east-1"
)

// StoreConfig configures the shared datastore root and the optional
// S3-compatible archive mirror used by retention archive mode.
type StoreConfig struct {
	// Root is the canonical datastore root. Every published file lives
	// under this directory at a path derived from its logical key.
	Root string `mapstructure:"root" rule:"required"`
	// TempDir is the staging directory name under Root. Files are written
	// here first and renamed into place, so it must be on the same mount.
	TempDir  string `mapstructure:"temp_dir"`
	DirPerm  uint32 `mapstructure:"dir_perm"`
	FilePerm uint32 `mapstructure:"file_perm"`

	Archive ArchiveConfig `mapstructure:"archive"`
}

// ArchiveConfig configures the MinIO/S3 archive mirror.
type ArchiveConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
}

// TempPath returns the absolute staging directory.
func (c *StoreConfig) TempPath() string {
	return filepath.Join(c.Root, c.TempDir)
}

// GetEndpointURL returns the full archive endpoint URL.
func (c *ArchiveConfig) GetEndpointURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, c.Endpoint)
}

// setDefaults applies store config defaults.
func (c *StoreConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("store.root", DefaultStoreRoot)
	v.SetDefault("store.temp_dir", DefaultStoreTempDir)
	v.SetDefault("store.dir_perm", DefaultStoreDirPerm)
	v.SetDefault("store.file_perm", DefaultStoreFilePerm)

	v.SetDefault("store.archive.enabled", false)
	v.SetDefault("store.archive.endpoint", DefaultArchiveEndpoint)
	v.SetDefault("store.archive.access_key_id", DefaultArchiveAccessKey)
	v.SetDefault("store.archive.secret_access_key", DefaultArchiveSecretKey)
	v.SetDefault("store.archive.use_ssl", DefaultArchiveUseSSL)
	v.SetDefault("store.archive.bucket", DefaultArchiveBucket)
	v.SetDefault("store.archive.region", DefaultArchiveRegion)
}
