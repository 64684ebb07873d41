// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package lattice

import (
	"os"
	"runtime"
	"strconv"
	"sync"
)

// kernelPackT is the process-wide packing mode of the T face. Guarded by
// packTMu so that overrides from concurrent callers are serialised.
var (
	packTMu     sync.Mutex
	kernelPackT bool
)

func init() {
	kernelPackT = KernelPackTEnv()
}

// KernelPackTEnv reports the LATTICE_KERNEL_PACK_T environment setting.
// Any non-empty value that does not parse as a boolean counts as true.
func KernelPackTEnv() bool {
	val := os.Getenv("LATTICE_KERNEL_PACK_T")
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}

// KernelPackT reports whether the T face is packed with a parallel kernel
// rather than copied inline.
func KernelPackT() bool {
	packTMu.Lock()
	defer packTMu.Unlock()
	return kernelPackT
}

// SetKernelPackT sets the T-face packing mode for the process.
func SetKernelPackT(pack bool) {
	packTMu.Lock()
	kernelPackT = pack
	packTMu.Unlock()
}

// PackTGuard restores the T-face packing mode that was active when it was
// created.
type PackTGuard struct {
	prev     bool
	restored sync.Once
}

// PushKernelPackT overrides the T-face packing mode until the returned guard
// is restored. Guards nest: restoring them in reverse order of creation
// returns the process to its original mode.
func PushKernelPackT(pack bool) *PackTGuard {
	packTMu.Lock()
	defer packTMu.Unlock()
	g := &PackTGuard{prev: kernelPackT}
	kernelPackT = pack
	return g
}

// Restore reinstates the previous mode. Calling it more than once is a no-op.
func (g *PackTGuard) Restore() {
	g.restored.Do(func() {
		SetKernelPackT(g.prev)
	})
}

// DefaultWorkers returns the worker count for site-parallel kernels:
// LATTICE_WORKERS when set to a positive integer, GOMAXPROCS otherwise.
func DefaultWorkers() int {
	if val := os.Getenv("LATTICE_WORKERS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return runtime.GOMAXPROCS(0)
}
