// Copyright 2024-2026 Madhukar Beema. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

//go:build windows

package patch

import (
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/mbeema/detour/pkg/status"
)

// MinHook binds the MinHook library (minhook.dll, shipped alongside the
// tool). Procs resolve lazily on first use, so constructing a MinHook never
// fails; a missing DLL surfaces as a status on the first call instead.
type MinHook struct {
	dll *windows.LazyDLL

	procInitialize   *windows.LazyProc
	procUninitialize *windows.LazyProc
	procCreateHook   *windows.LazyProc
	procEnableHook   *windows.LazyProc
	procDisableHook  *windows.LazyProc
	procRemoveHook   *windows.LazyProc
	procQueueEnable  *windows.LazyProc
	procQueueDisable *windows.LazyProc
	procApplyQueued  *windows.LazyProc
}

// NewMinHook returns a Primitive backed by minhook.dll.
func NewMinHook() *MinHook {
	dll := windows.NewLazyDLL("minhook.dll")
	return &MinHook{
		dll:              dll,
		procInitialize:   dll.NewProc("MH_Initialize"),
		procUninitialize: dll.NewProc("MH_Uninitialize"),
		procCreateHook:   dll.NewProc("MH_CreateHook"),
		procEnableHook:   dll.NewProc("MH_EnableHook"),
		procDisableHook:  dll.NewProc("MH_DisableHook"),
		procRemoveHook:   dll.NewProc("MH_RemoveHook"),
		procQueueEnable:  dll.NewProc("MH_QueueEnableHook"),
		procQueueDisable: dll.NewProc("MH_QueueDisableHook"),
		procApplyQueued:  dll.NewProc("MH_ApplyQueued"),
	}
}

// call resolves and invokes one MH_* export. Resolution failures are folded
// into the status namespace so no caller ever sees a panic from a missing
// DLL in a process we do not control.
func (m *MinHook) call(p *windows.LazyProc, args ...uintptr) status.Status {
	if err := m.dll.Load(); err != nil {
		return status.ModuleNotFound
	}
	if err := p.Find(); err != nil {
		return status.FunctionNotFound
	}
	r, _, _ := p.Call(args...)
	return status.Status(int32(uint32(r)))
}

func (m *MinHook) Initialize() status.Status {
	return m.call(m.procInitialize)
}

func (m *MinHook) Uninitialize() status.Status {
	return m.call(m.procUninitialize)
}

func (m *MinHook) CreateHook(target, detour uintptr) (uintptr, status.Status) {
	var trampoline uintptr
	st := m.call(m.procCreateHook, target, detour, uintptr(unsafe.Pointer(&trampoline)))
	if st != status.OK {
		return 0, st
	}
	return trampoline, st
}

func (m *MinHook) EnableHook(target uintptr) status.Status {
	return m.call(m.procEnableHook, target)
}

func (m *MinHook) DisableHook(target uintptr) status.Status {
	return m.call(m.procDisableHook, target)
}

func (m *MinHook) RemoveHook(target uintptr) status.Status {
	return m.call(m.procRemoveHook, target)
}

func (m *MinHook) QueueEnableHook(target uintptr) status.Status {
	return m.call(m.procQueueEnable, target)
}

func (m *MinHook) QueueDisableHook(target uintptr) status.Status {
	return m.call(m.procQueueDisable, target)
}

func (m *MinHook) ApplyQueued() status.Status {
	return m.call(m.procApplyQueued)
}
