package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/capforge/autoloader/hashes"
	"github.com/capforge/autoloader/signing"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Build inputs
	WorkDir  string `mapstructure:"work-dir"`
	StubPath string `mapstructure:"stub-path"`

	// Build ledger
	HistoryPath string `mapstructure:"history-path"`

	// Checksums and signatures
	HashAlgorithms []string `mapstructure:"hash-algorithms"`
	SigningKey     string   `mapstructure:"signing-key"`
	SigningScheme  string   `mapstructure:"signing-scheme"`

	// S3 mirror
	S3Bucket string `mapstructure:"s3-bucket"`
	S3Region string `mapstructure:"s3-region"`
	S3Prefix string `mapstructure:"s3-prefix"`

	Verbose bool `mapstructure:"verbose"`
}

// Load reads configuration from environment, config file, and defaults
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads configuration through the given viper instance.
func LoadFrom(v *viper.Viper) (*Config, error) {
	// The working directory is resolved once, here, instead of relying on
	// the process directory at build time.
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working directory: %w", err)
	}

	// Set defaults
	v.SetDefault("work-dir", cwd)
	v.SetDefault("stub-path", "")
	v.SetDefault("history-path", ".capcreator/history.db")
	v.SetDefault("hash-algorithms", []string{"sha512", "sha256", "md5"})
	v.SetDefault("signing-key", "")
	v.SetDefault("signing-scheme", "ed25519")
	v.SetDefault("s3-bucket", "")
	v.SetDefault("s3-region", "us-east-1")
	v.SetDefault("s3-prefix", "autoloaders/")
	v.SetDefault("verbose", false)

	// Environment variables (will be CAPCREATOR_WORK_DIR, etc.)
	v.SetEnvPrefix("CAPCREATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Config file (optional)
	v.SetConfigName("capcreator")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.capcreator")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	if c.WorkDir == "" {
		return fmt.Errorf("work-dir cannot be empty")
	}
	if c.HistoryPath == "" {
		return fmt.Errorf("history-path cannot be empty")
	}
	for _, alg := range c.HashAlgorithms {
		if !hashes.Known(alg) {
			return fmt.Errorf("unknown hash algorithm %q", alg)
		}
	}
	if !signing.Known(c.SigningScheme) {
		return fmt.Errorf("unknown signing scheme %q", c.SigningScheme)
	}
	return nil
}
