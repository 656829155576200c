// Package config loads the slabdb YAML configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/sushant-115/slabdb/pkg/logger"
	"github.com/sushant-115/slabdb/pkg/telemetry"
	"gopkg.in/yaml.v3"
)

const (
	defaultDataDir  = "./data"
	defaultPageFile = "data.page"
	// 1 MiB/s; a page copies in a few milliseconds.
	defaultBackupRate = 1 << 20
)

// BackupConfig controls `backup` in the CLI.
type BackupConfig struct {
	// RateBytesPerSec caps the copy rate. Zero or negative means unthrottled.
	RateBytesPerSec int64 `yaml:"rate_bytes_per_sec"`
	// Verify re-reads the copy and compares checksums.
	Verify bool `yaml:"verify"`
}

// Config is the top-level slabdb configuration.
type Config struct {
	// DataDir holds page files.
	DataDir string `yaml:"data_dir"`
	// PageFile is the page name inside DataDir.
	PageFile  string           `yaml:"page_file"`
	Logger    logger.Config    `yaml:"logger"`
	Telemetry telemetry.Config `yaml:"telemetry"`
	Backup    BackupConfig     `yaml:"backup"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		DataDir:  defaultDataDir,
		PageFile: defaultPageFile,
		Logger: logger.Config{
			Level:      "info",
			Format:     "console",
			OutputFile: "stderr",
		},
		Telemetry: telemetry.Config{
			ServiceName:      "slabdb",
			TraceSampleRatio: 1.0,
		},
		Backup: BackupConfig{
			RateBytesPerSec: defaultBackupRate,
			Verify:          true,
		},
	}
}

// Load reads path and fills in defaults for anything the file leaves out.
// An empty path returns Default().
func Load(path string) (Config, error) {
	config := Default()
	if path == "" {
		return config, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	config.applyDefaults()
	return config, nil
}

// applyDefaults restores defaults for fields a file explicitly blanked.
func (c *Config) applyDefaults() {
	def := Default()
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.PageFile == "" {
		c.PageFile = def.PageFile
	}
	if c.Logger.Level == "" {
		c.Logger.Level = def.Logger.Level
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = def.Telemetry.ServiceName
	}
}
