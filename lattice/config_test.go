// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package lattice

import "testing"

func TestKernelPackTEnv(t *testing.T) {
	tests := []struct {
		val  string
		want bool
	}{
		{"", false},
		{"0", false},
		{"false", false},
		{"1", true},
		{"true", true},
		{"yes", true},
	}
	for _, tt := range tests {
		t.Setenv("LATTICE_KERNEL_PACK_T", tt.val)
		if got := KernelPackTEnv(); got != tt.want {
			t.Errorf("KernelPackTEnv(%q) = %v, want %v", tt.val, got, tt.want)
		}
	}
}

func TestPushKernelPackTNests(t *testing.T) {
	SetKernelPackT(false)
	defer SetKernelPackT(false)

	outer := PushKernelPackT(true)
	if !KernelPackT() {
		t.Fatal("outer push did not take effect")
	}
	inner := PushKernelPackT(false)
	if KernelPackT() {
		t.Fatal("inner push did not take effect")
	}
	inner.Restore()
	if !KernelPackT() {
		t.Error("restoring inner guard should return to the outer value")
	}
	inner.Restore()
	if !KernelPackT() {
		t.Error("second Restore must be a no-op")
	}
	outer.Restore()
	if KernelPackT() {
		t.Error("restoring outer guard should return to the original value")
	}
}

func TestPushKernelPackTRestoresOnPanic(t *testing.T) {
	SetKernelPackT(false)
	defer SetKernelPackT(false)

	func() {
		defer func() { _ = recover() }()
		g := PushKernelPackT(true)
		defer g.Restore()
		panic("kernel failure")
	}()
	if KernelPackT() {
		t.Error("guard did not restore after panic")
	}
}

func TestDefaultWorkers(t *testing.T) {
	t.Setenv("LATTICE_WORKERS", "3")
	if got := DefaultWorkers(); got != 3 {
		t.Errorf("DefaultWorkers() = %d, want 3", got)
	}
	t.Setenv("LATTICE_WORKERS", "nope")
	if got := DefaultWorkers(); got < 1 {
		t.Errorf("DefaultWorkers() = %d, want >= 1", got)
	}
}

func TestCPUFeatures(t *testing.T) {
	if len(CPUFeatures()) == 0 {
		t.Error("CPUFeatures() returned no entries")
	}
}
