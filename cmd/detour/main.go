// Copyright 2024-2026 Madhukar Beema, Distinguished Engineer. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

// Command detour is a self-hooking demo of the detour engine: it installs
// hooks inside its own process and toggles them from the keyboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mbeema/detour/pkg/config"
	"github.com/mbeema/detour/pkg/control"
	"github.com/mbeema/detour/pkg/hook"
	"github.com/mbeema/detour/pkg/input"
	"github.com/mbeema/detour/pkg/patch"
	"github.com/mbeema/detour/pkg/winutil"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	var (
		configPath  string
		logLevel    string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "path to configuration file")
	flag.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "show version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("detour %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Override log level from CLI
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting detour",
		zap.String("version", version),
		zap.String("commit", commit),
	)

	engine := hook.New(patch.NewMinHook(), logger)
	if err := engine.Initialize(); err != nil {
		logger.Fatal("failed to initialize patching primitive", zap.Error(err))
	}
	defer func() {
		if err := engine.Uninitialize(); err != nil {
			logger.Error("error uninitializing patching primitive", zap.Error(err))
		}
	}()

	ctrl := control.New(cfg, engine, input.AsyncKeySampler, logger)

	if err := registerDemoHooks(engine, ctrl, logger); err != nil {
		logger.Fatal("failed to register demo hooks", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ctrl.Start(ctx); err != nil {
		logger.Fatal("failed to start controller", zap.Error(err))
	}

	// Watch the config file for live rebinding
	var watcher *config.Watcher
	if cfgPath != "" {
		watcher = config.NewWatcher(cfgPath, func(newCfg *config.Config) {
			ctrl.Reload(newCfg)
		}, logger)
		if err := watcher.Start(ctx); err != nil {
			logger.Error("failed to start config watcher", zap.Error(err))
			watcher = nil
		}
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	if watcher != nil {
		watcher.Stop()
	}
	cancel()
	if err := ctrl.Stop(); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
	logger.Info("detour stopped")
}

// loadConfig resolves the config file: the -config flag, then detour.yaml
// next to the module, then defaults. Returns the path actually used so the
// watcher knows what to follow.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}

	if modPath, err := winutil.ModulePath(); err == nil {
		p := filepath.Join(filepath.Dir(modPath), "detour.yaml")
		if _, err := os.Stat(p); err == nil {
			cfg, err := config.Load(p)
			return cfg, p, err
		}
	}

	if _, err := os.Stat("configs/detour.yaml"); err == nil {
		cfg, err := config.Load("configs/detour.yaml")
		return cfg, "configs/detour.yaml", err
	}

	return config.DefaultConfig(), "", nil
}

func newLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Encoding:         "console",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	return cfg.Build()
}
