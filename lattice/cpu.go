// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package lattice

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// CPUFeatures lists the vector extensions of the host that matter for the
// site-local arithmetic, in the order they are usually reported.
func CPUFeatures() []string {
	var f []string
	switch runtime.GOARCH {
	case "amd64", "386":
		if cpu.X86.HasSSE2 {
			f = append(f, "sse2")
		}
		if cpu.X86.HasAVX {
			f = append(f, "avx")
		}
		if cpu.X86.HasAVX2 {
			f = append(f, "avx2")
		}
		if cpu.X86.HasFMA {
			f = append(f, "fma")
		}
		if cpu.X86.HasAVX512F {
			f = append(f, "avx512f")
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			f = append(f, "asimd")
		}
		if cpu.ARM64.HasFPHP {
			f = append(f, "fphp")
		}
		if cpu.ARM64.HasSVE {
			f = append(f, "sve")
		}
		if cpu.ARM64.HasSVE2 {
			f = append(f, "sve2")
		}
	}
	if len(f) == 0 {
		f = append(f, "scalar")
	}
	return f
}
