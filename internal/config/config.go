// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package config loads the server configuration once at startup. The
// resulting struct is passed explicitly to every component; nothing reads
// configuration ambiently after Load returns.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	configBaseName = "excelsearch"
	envPrefix      = "EXCELSEARCH"

	defaultMaxFileSizeMB   = 100
	defaultMaxFilesPerScan = 1000
	defaultBatchWorkers    = 4
	defaultLogMaxSizeMB    = 10
	defaultLogMaxBackups   = 3
	defaultLogMaxAgeDays   = 28
)

// DefaultExtensions lists the workbook formats the collaborator library can
// open. Legacy .xls and .xlsb are not parseable and are rejected up front.
var DefaultExtensions = []string{".xlsx", ".xlsm", ".xltx", ".xltm"}

// Config is the process-wide configuration, loaded once at startup.
type Config struct {
	WorkDirectory       string   `mapstructure:"work_directory"`
	SupportedExtensions []string `mapstructure:"supported_extensions"`
	MaxFileSizeMB       int      `mapstructure:"max_file_size_mb"`
	MaxFilesPerScan     int      `mapstructure:"max_files_per_scan"`
	RecursiveScan       bool     `mapstructure:"recursive_scan"`
	BatchWorkers        int      `mapstructure:"batch_workers"`
	Log                 Log      `mapstructure:"log"`
}

// Log configures the rotated log file. Stdout carries the wire protocol, so
// logs never go there.
type Log struct {
	Filename   string `mapstructure:"filename"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// Load reads configuration from the given file (or excelsearch.yaml in the
// working directory when empty), applies EXCELSEARCH_* env overrides, and
// validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configBaseName)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file means defaults plus env overrides.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	normalize(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	v.SetDefault("work_directory", cwd)
	v.SetDefault("supported_extensions", DefaultExtensions)
	v.SetDefault("max_file_size_mb", defaultMaxFileSizeMB)
	v.SetDefault("max_files_per_scan", defaultMaxFilesPerScan)
	v.SetDefault("recursive_scan", true)
	v.SetDefault("batch_workers", defaultBatchWorkers)
	v.SetDefault("log.filename", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size", defaultLogMaxSizeMB)
	v.SetDefault("log.max_backups", defaultLogMaxBackups)
	v.SetDefault("log.max_age", defaultLogMaxAgeDays)
	v.SetDefault("log.compress", true)
}

func normalize(cfg *Config) {
	if cfg.MaxFileSizeMB <= 0 {
		cfg.MaxFileSizeMB = defaultMaxFileSizeMB
	}
	if cfg.MaxFilesPerScan <= 0 {
		cfg.MaxFilesPerScan = defaultMaxFilesPerScan
	}
	if cfg.BatchWorkers <= 0 {
		cfg.BatchWorkers = defaultBatchWorkers
	}
	if len(cfg.SupportedExtensions) == 0 {
		cfg.SupportedExtensions = append([]string{}, DefaultExtensions...)
	}
	for i, ext := range cfg.SupportedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.SupportedExtensions[i] = ext
	}
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.WorkDirectory) == "" {
		return fmt.Errorf("work_directory is required")
	}
	info, err := os.Stat(cfg.WorkDirectory)
	if err != nil {
		return fmt.Errorf("work_directory %q is not accessible: %w", cfg.WorkDirectory, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("work_directory %q is not a directory", cfg.WorkDirectory)
	}
	return nil
}

// MaxFileSizeBytes returns the file size ceiling in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// ExtensionSet returns the allow-list as a lowercase lookup set.
func (c *Config) ExtensionSet() map[string]bool {
	set := make(map[string]bool, len(c.SupportedExtensions))
	for _, ext := range c.SupportedExtensions {
		if ext != "" {
			set[ext] = true
		}
	}
	return set
}
