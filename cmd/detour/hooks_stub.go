// Copyright 2024-2026 Madhukar Beema. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

//go:build !windows

package main

import (
	"go.uber.org/zap"

	"github.com/mbeema/detour/pkg/control"
	"github.com/mbeema/detour/pkg/hook"
)

// registerDemoHooks is never reached off Windows; the stub primitive fails
// Initialize with a typed error before hooks come into play.
func registerDemoHooks(engine *hook.Engine, ctrl *control.Controller, logger *zap.Logger) error {
	logger.Warn("no demo hooks on this platform")
	return nil
}
