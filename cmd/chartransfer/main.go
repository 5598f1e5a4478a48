// chartransfer migrates one player character from a TAKP-schema
// database to a PEQ-schema database, translating inventory slot numbers
// between the two layouts.
//
// Usage:
//
//	chartransfer -c <character> [-config path] [-report path]
//
// Connection settings come from the TOML config file, CHARTRANSFER_*
// environment variables, or a .env file in the working directory. The
// run is idempotent per character: re-running replaces the previous
// import of the same character without touching account rows.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/eqmac/chartransfer/internal/config"
	"github.com/eqmac/chartransfer/internal/persist"
	"github.com/eqmac/chartransfer/internal/transfer"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		characterName = flag.String("c", "", "name of the character to migrate (required)")
		configPath    = flag.String("config", "config/transfer.toml", "path to TOML config")
		reportPath    = flag.String("report", "", "write a YAML migration report to this path")
	)
	flag.Parse()

	if *characterName == "" {
		flag.Usage()
		return fmt.Errorf("-c <character> is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx := context.Background()

	src, err := persist.NewDB(ctx, cfg.Source, log)
	if err != nil {
		return fmt.Errorf("source database: %w", err)
	}
	defer src.Close()

	dst, err := persist.NewDB(ctx, cfg.Target, log)
	if err != nil {
		return fmt.Errorf("target database: %w", err)
	}
	defer dst.Close()

	report, err := transfer.New(src.Pool, dst.Pool, log).Run(ctx, *characterName)
	if err != nil {
		return err
	}

	if *reportPath != "" {
		if err := report.WriteFile(*reportPath); err != nil {
			return err
		}
		log.Info("report written", zap.String("path", *reportPath))
	}
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
