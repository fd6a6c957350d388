// Copyright 2024-2026 Madhukar Beema. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

// Package patch abstracts the code-patching primitive the hook engine
// drives. The primitive owns everything that touches executable memory:
// prologue relocation, trampoline pages, protection flags, and the
// guarantee that no thread executes a target while its prologue is being
// rewritten. This package only carries addresses across the boundary.
package patch

import "github.com/mbeema/detour/pkg/status"

// Primitive is the low-level patching interface.
//
// Target and detour addresses are opaque handles. They are never
// dereferenced on this side of the boundary; the caller casts the returned
// trampoline to the correct function signature, and keeping that signature
// honest is the caller's unchecked contract.
type Primitive interface {
	// Initialize prepares the primitive. Must be called exactly once
	// before any CreateHook.
	Initialize() status.Status

	// Uninitialize tears the primitive down, removing all hooks.
	Uninitialize() status.Status

	// CreateHook installs a (disabled) redirection from target to detour
	// and returns the trampoline through which the original behavior
	// stays reachable.
	CreateHook(target, detour uintptr) (uintptr, status.Status)

	// EnableHook activates the redirection for target immediately.
	EnableHook(target uintptr) status.Status

	// DisableHook deactivates the redirection for target immediately.
	DisableHook(target uintptr) status.Status

	// RemoveHook destroys the hook for target. The hook must be disabled
	// first.
	RemoveHook(target uintptr) status.Status

	// QueueEnableHook marks target for activation at the next ApplyQueued.
	QueueEnableHook(target uintptr) status.Status

	// QueueDisableHook marks target for deactivation at the next
	// ApplyQueued.
	QueueDisableHook(target uintptr) status.Status

	// ApplyQueued commits all queued transitions in one batch.
	ApplyQueued() status.Status
}
