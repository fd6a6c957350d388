// Copyright 2024-2026 Madhukar Beema. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

// Package keymap maps human-readable key names to Windows virtual-key
// codes and back. The table is static, read-only process-wide data,
// initialized once on first use and never mutated.
package keymap

import (
	"strings"
	"sync"
)

// The common virtual-key codes used in key bindings.
const (
	VKLButton = 0x01
	VKRButton = 0x02
	VKMButton = 0x04
	VKBack    = 0x08
	VKTab     = 0x09
	VKReturn  = 0x0D
	VKShift   = 0x10
	VKControl = 0x11
	VKMenu    = 0x12
	VKPause   = 0x13
	VKEscape  = 0x1B
	VKSpace   = 0x20
	VKPrior   = 0x21
	VKNext    = 0x22
	VKEnd     = 0x23
	VKHome    = 0x24
	VKLeft    = 0x25
	VKUp      = 0x26
	VKRight   = 0x27
	VKDown    = 0x28
	VKInsert  = 0x2D
	VKDelete  = 0x2E
	VKF1      = 0x70
	VKF12     = 0x7B
)

var (
	initOnce   sync.Once
	nameToCode map[string]int
	codeToName map[int]string
)

var namedKeys = map[string]int{
	"lbutton":    VKLButton,
	"rbutton":    VKRButton,
	"cancel":     0x03,
	"mbutton":    VKMButton,
	"xbutton1":   0x05,
	"xbutton2":   0x06,
	"back":       VKBack,
	"tab":        VKTab,
	"clear":      0x0C,
	"return":     VKReturn,
	"shift":      VKShift,
	"control":    VKControl,
	"menu":       VKMenu,
	"pause":      VKPause,
	"capital":    0x14,
	"escape":     VKEscape,
	"space":      VKSpace,
	"prior":      VKPrior,
	"next":       VKNext,
	"end":        VKEnd,
	"home":       VKHome,
	"left":       VKLeft,
	"up":         VKUp,
	"right":      VKRight,
	"down":       VKDown,
	"select":     0x29,
	"print":      0x2A,
	"execute":    0x2B,
	"snapshot":   0x2C,
	"insert":     VKInsert,
	"delete":     VKDelete,
	"help":       0x2F,
	"lwin":       0x5B,
	"rwin":       0x5C,
	"apps":       0x5D,
	"sleep":      0x5F,
	"multiply":   0x6A,
	"add":        0x6B,
	"separator":  0x6C,
	"subtract":   0x6D,
	"decimal":    0x6E,
	"divide":     0x6F,
	"numlock":    0x90,
	"scroll":     0x91,
	"lshift":     0xA0,
	"rshift":     0xA1,
	"lcontrol":   0xA2,
	"rcontrol":   0xA3,
	"lmenu":      0xA4,
	"rmenu":      0xA5,
	"oem_1":      0xBA,
	"oem_plus":   0xBB,
	"oem_comma":  0xBC,
	"oem_minus":  0xBD,
	"oem_period": 0xBE,
	"oem_2":      0xBF,
	"oem_3":      0xC0,
	"oem_4":      0xDB,
	"oem_5":      0xDC,
	"oem_6":      0xDD,
	"oem_7":      0xDE,
	"oem_8":      0xDF,
	"oem_102":    0xE2,
}

func buildTables() {
	nameToCode = make(map[string]int, len(namedKeys)+70)
	codeToName = make(map[int]string, len(namedKeys)+70)

	put := func(name string, code int) {
		nameToCode[name] = code
		if _, ok := codeToName[code]; !ok {
			codeToName[code] = name
		}
	}

	for name, code := range namedKeys {
		put(name, code)
	}

	// Digits and letters map to their ASCII codes.
	for c := '0'; c <= '9'; c++ {
		put(string(c), int(c))
	}
	for c := 'a'; c <= 'z'; c++ {
		put(string(c), int(c-'a'+'A'))
	}

	// numpad0..numpad9 are 0x60..0x69, f1..f24 are 0x70..0x87.
	for i := 0; i <= 9; i++ {
		put("numpad"+string(rune('0'+i)), 0x60+i)
	}
	for i := 1; i <= 24; i++ {
		name := "f"
		if i >= 10 {
			name += string(rune('0' + i/10))
		}
		name += string(rune('0' + i%10))
		put(name, 0x70+i-1)
	}
}

// Code resolves a key name (case-insensitive) to its virtual-key code.
func Code(name string) (int, bool) {
	initOnce.Do(buildTables)
	code, ok := nameToCode[strings.ToLower(strings.TrimSpace(name))]
	return code, ok
}

// Name returns the canonical name for a virtual-key code.
func Name(code int) (string, bool) {
	initOnce.Do(buildTables)
	name, ok := codeToName[code]
	return name, ok
}
