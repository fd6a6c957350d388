// Copyright 2024-2026 Madhukar Beema. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

//go:build !windows

package input

// AsyncKeySampler is the non-Windows stand-in; it reports every key as up.
func AsyncKeySampler(vk int) bool {
	return false
}
