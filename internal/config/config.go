package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bstardust/imgmeta/pkg/common"
)

// EnvPrefix prefixes every environment override, e.g. IMGMETA_SCAN_CONCURRENCY.
const EnvPrefix = "IMGMETA"

// Config represents the application configuration
type Config struct {
	LogLevel  string       `mapstructure:"log_level"`
	LogFormat string       `mapstructure:"log_format"`
	S3        S3Config     `mapstructure:"s3"`
	Scan      ScanConfig   `mapstructure:"scan"`
	Server    ServerConfig `mapstructure:"server"`
}

// S3Config represents S3 connection configuration
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	// MaxObjectSize caps how many bytes are downloaded per object.
	MaxObjectSize int64 `mapstructure:"max_object_size"`
}

// ScanConfig represents batch scan configuration
type ScanConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	Resume      bool          `mapstructure:"resume"`
	JournalPath string        `mapstructure:"journal"`
	Output      string        `mapstructure:"out"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ServerConfig represents the HTTP endpoint configuration
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ImagesDir       string        `mapstructure:"images"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// New creates a new configuration with default values
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		S3: S3Config{
			Region:        "us-east-1",
			UseSSL:        true,
			MaxObjectSize: 64 << 20,
		},
		Scan: ScanConfig{
			Concurrency: 4,
			Resume:      false,
			Timeout:     0,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ImagesDir:       "images",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// FlagKeys maps command-line flag names onto configuration keys.
var FlagKeys = map[string]string{
	"log-level":   "log_level",
	"log-format":  "log_format",
	"endpoint":    "s3.endpoint",
	"region":      "s3.region",
	"access-key":  "s3.access_key",
	"secret-key":  "s3.secret_key",
	"use-ssl":     "s3.use_ssl",
	"max-size":    "s3.max_object_size",
	"concurrency": "scan.concurrency",
	"resume":      "scan.resume",
	"journal":     "scan.journal",
	"out":         "scan.out",
	"timeout":     "scan.timeout",
	"addr":        "server.addr",
	"images":      "server.images",
}

// Load layers defaults, an optional config file, IMGMETA_* environment
// variables and explicitly set flags, in increasing priority. An empty path
// searches for imgmeta.{yaml,json,toml} in the working directory and
// $HOME/.config/imgmeta; a missing file there is not an error.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, New())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("imgmeta")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "imgmeta"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, common.NewConfigError(fmt.Sprintf("failed to read config: %v", err))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, common.NewConfigError(fmt.Sprintf("failed to bind flag %s: %v", name, err))
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, common.NewConfigError(fmt.Sprintf("failed to decode config: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("s3.endpoint", d.S3.Endpoint)
	v.SetDefault("s3.region", d.S3.Region)
	v.SetDefault("s3.access_key", d.S3.AccessKey)
	v.SetDefault("s3.secret_key", d.S3.SecretKey)
	v.SetDefault("s3.use_ssl", d.S3.UseSSL)
	v.SetDefault("s3.max_object_size", d.S3.MaxObjectSize)
	v.SetDefault("scan.concurrency", d.Scan.Concurrency)
	v.SetDefault("scan.resume", d.Scan.Resume)
	v.SetDefault("scan.journal", d.Scan.JournalPath)
	v.SetDefault("scan.out", d.Scan.Output)
	v.SetDefault("scan.timeout", d.Scan.Timeout)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.images", d.Server.ImagesDir)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
}

// Validate checks values that would otherwise fail deep inside a command.
func (c *Config) Validate() error {
	if c.Scan.Concurrency < 1 {
		return common.NewConfigError(fmt.Sprintf("concurrency must be at least 1, got %d", c.Scan.Concurrency))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return common.NewConfigError(fmt.Sprintf("unknown log format %q", c.LogFormat))
	}
	if c.S3.MaxObjectSize <= 0 {
		return common.NewConfigError("max object size must be positive")
	}
	return nil
}
