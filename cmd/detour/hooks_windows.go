// Copyright 2024-2026 Madhukar Beema. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

//go:build windows

package main

import (
	"fmt"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	"github.com/mbeema/detour/pkg/control"
	"github.com/mbeema/detour/pkg/hook"
)

// Published before the hook can be enabled, read from arbitrary threads
// once it is.
var beepTrampoline atomic.Uintptr

// registerDemoHooks hooks user32!MessageBeep in this process and registers
// it as the "beep-tap" feature. The detour logs each call and forwards to
// the original through the trampoline, cast back to MessageBeep's shape.
func registerDemoHooks(engine *hook.Engine, ctrl *control.Controller, logger *zap.Logger) error {
	target := windows.NewLazySystemDLL("user32.dll").NewProc("MessageBeep")
	if err := target.Find(); err != nil {
		return fmt.Errorf("resolve MessageBeep: %w", err)
	}

	detour := windows.NewCallback(func(beepType uintptr) uintptr {
		logger.Info("MessageBeep intercepted", zap.Uintptr("type", beepType))
		r, _, _ := syscall.SyscallN(beepTrampoline.Load(), beepType)
		return r
	})

	h, err := engine.Create(target.Addr(), detour)
	if err != nil {
		return err
	}
	beepTrampoline.Store(h.Trampoline())

	return ctrl.RegisterFeature("beep-tap", h)
}
