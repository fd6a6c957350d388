// Copyright 2024-2026 Madhukar Beema. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

//go:build !windows

package winutil

import "os"

// ModulePath falls back to the executable path off Windows.
func ModulePath() (string, error) {
	return os.Executable()
}
