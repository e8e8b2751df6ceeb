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

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"excelsearch/internal/config"
	"excelsearch/internal/excel"
	"excelsearch/internal/paths"
	"excelsearch/internal/scanner"
	"excelsearch/internal/tools"
)

var (
	configPath string
	debugMode  bool
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "excelsearch",
	Short: "Workbook search and inspection server confined to a work directory",
	Long: `Excelsearch exposes workbook operations (list, summarize, read, search)
over a directory of spreadsheet files. Every path is validated against a
single configured work root before it is touched.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default excelsearch.yaml in the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file path (overrides config; logs disabled when unset)")
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the components built once at startup from the loaded config.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	policy   *paths.Policy
	scanner  *scanner.Scanner
	reader   *excel.Reader
	registry *tools.Registry
}

func buildApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := initLogger(cfg, debugMode, logFile)
	logger.Info().Str("work_directory", cfg.WorkDirectory).Msg("excelsearch starting")

	policy, err := paths.NewPolicy(cfg.WorkDirectory)
	if err != nil {
		return nil, err
	}

	extensions := cfg.ExtensionSet()
	sc := scanner.New(policy, extensions, cfg.MaxFilesPerScan, logger)
	validator := excel.NewValidator(policy, extensions, cfg.MaxFileSizeBytes())
	reader := excel.NewReader(validator, logger)

	registry := tools.NewRegistry(logger)
	tools.RegisterOperations(registry, tools.Services{
		Scanner:          sc,
		Reader:           reader,
		RecursiveDefault: cfg.RecursiveScan,
		BatchWorkers:     cfg.BatchWorkers,
		Extensions:       cfg.SupportedExtensions,
	})

	return &app{
		cfg:      cfg,
		log:      logger,
		policy:   policy,
		scanner:  sc,
		reader:   reader,
		registry: registry,
	}, nil
}

// initLogger builds the process logger. Stdout carries the protocol, so log
// output goes to a rotated file when configured and is discarded otherwise.
func initLogger(cfg *config.Config, debug bool, overridePath string) zerolog.Logger {
	level := parseLevel(cfg.Log.Level)
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	path := cfg.Log.Filename
	if overridePath != "" {
		path = overridePath
	}

	var output io.Writer = io.Discard
	if path != "" {
		output = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		}
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
