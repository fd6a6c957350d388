// Copyright 2024-2026 Madhukar Beema. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

//go:build !windows

package patch

import "github.com/mbeema/detour/pkg/status"

// MinHook is the non-Windows stand-in for the MinHook binding. Every
// operation reports UnsupportedFunction so the engine degrades to typed
// errors instead of failing to build off Windows.
type MinHook struct{}

// NewMinHook returns the stub primitive.
func NewMinHook() *MinHook {
	return &MinHook{}
}

func (m *MinHook) Initialize() status.Status   { return status.UnsupportedFunction }
func (m *MinHook) Uninitialize() status.Status { return status.UnsupportedFunction }

func (m *MinHook) CreateHook(target, detour uintptr) (uintptr, status.Status) {
	return 0, status.UnsupportedFunction
}

func (m *MinHook) EnableHook(target uintptr) status.Status       { return status.UnsupportedFunction }
func (m *MinHook) DisableHook(target uintptr) status.Status      { return status.UnsupportedFunction }
func (m *MinHook) RemoveHook(target uintptr) status.Status       { return status.UnsupportedFunction }
func (m *MinHook) QueueEnableHook(target uintptr) status.Status  { return status.UnsupportedFunction }
func (m *MinHook) QueueDisableHook(target uintptr) status.Status { return status.UnsupportedFunction }
func (m *MinHook) ApplyQueued() status.Status                    { return status.UnsupportedFunction }
