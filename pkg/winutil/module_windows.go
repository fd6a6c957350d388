// Copyright 2024-2026 Madhukar Beema. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

//go:build windows

// Package winutil holds small Win32 helpers for the detour tool.
package winutil

import (
	"fmt"
	"reflect"
	"unsafe"

	"golang.org/x/sys/windows"
)

// ModulePath returns the on-disk path of the module (DLL or EXE) this code
// lives in. When injected as a DLL this is the DLL path, which is where the
// tool looks for its config by default.
func ModulePath() (string, error) {
	var module windows.Handle
	// Any address inside this module works for the FROM_ADDRESS lookup;
	// a function in this package is the cheapest one at hand.
	addr := reflect.ValueOf(ModulePath).Pointer()
	err := windows.GetModuleHandleEx(
		windows.GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT|windows.GET_MODULE_HANDLE_EX_FLAG_FROM_ADDRESS,
		(*uint16)(unsafe.Pointer(addr)),
		&module,
	)
	if err != nil {
		return "", fmt.Errorf("resolve own module handle: %w", err)
	}

	buf := make([]uint16, windows.MAX_PATH)
	n, err := windows.GetModuleFileName(module, &buf[0], uint32(len(buf)))
	if err != nil {
		return "", fmt.Errorf("resolve module file name: %w", err)
	}
	return windows.UTF16ToString(buf[:n]), nil
}
