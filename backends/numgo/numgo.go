// Copyright 2025-2026 The Zernigo Authors. SPDX-License-Identifier: Apache-2.0

// Package numgo implements the plain, portable pure-Go backend for zernigo.
//
// It is not fast: every primitive is a direct loop with the same semantics as
// the accelerated backend's, and the function transforms (Jit, ExecuteOnCPU)
// are identity. It is the backend New falls back to when the accelerated one
// cannot be constructed.
package numgo

import (
	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"

	"github.com/YigitElma/zernigo/backends"
)

// BackendName to be used in ZERNIGO_BACKEND to specify this backend.
const BackendName = "numgo"

func init() {
	backends.Register(BackendName, New)
}

// New constructs a new numgo Backend. The config string is the device
// preference; anything but the CPU is downgraded with a warning.
func New(config string) backends.Backend {
	kind, err := backends.ParseDeviceKind(config)
	if err != nil {
		klog.Warningf("Backend %q: %v, using the CPU", BackendName, err)
		kind = backends.DeviceCPU
	}
	if kind != backends.DeviceCPU {
		klog.Warningf("Backend %q is CPU only, ignoring the %q device preference", BackendName, kind)
		kind = backends.DeviceCPU
	}
	b := &Backend{}
	device := backends.SetDevice(kind)
	selfCheck(b)
	klog.Infof("Using %s backend on %s", BackendName, device)
	return b
}

// selfCheck evaluates exp over a small linspace, verifying the primitives are
// wired before the backend is handed out.
func selfCheck(b *Backend) {
	y := b.Exp(b.Linspace(0, 5, 50))
	if y.Size() != 50 {
		exceptions.Panicf("backend %q: self-check failed", BackendName)
	}
}

// Backend implements the backends.Backend interface with plain Go loops.
type Backend struct{}

// Compile-time check that numgo.Backend implements backends.Backend.
var _ backends.Backend = &Backend{}

// Name returns the short name of the backend.
func (b *Backend) Name() string { return BackendName }

// Description is a longer description of the Backend that can be used to pretty-print.
func (b *Backend) Description() string {
	return "Plain Go Portable Backend"
}

// Accelerated reports that this backend runs no accelerated kernels.
func (b *Backend) Accelerated() bool { return false }

// NumDevices returns 1 for the CPU and 0 for anything else.
func (b *Backend) NumDevices(kind backends.DeviceKind) int {
	if kind == backends.DeviceCPU {
		return 1
	}
	return 0
}

// Jit returns fn unchanged: there is nothing to compile here.
func (b *Backend) Jit(fn backends.TensorFunc) backends.TensorFunc { return fn }

// ExecuteOnCPU returns fn unchanged: everything already runs on the CPU.
func (b *Backend) ExecuteOnCPU(fn backends.TensorFunc) backends.TensorFunc { return fn }

// CustomJVP attaches the adjacent-order derivative rule to fn. The rule is
// evaluated eagerly, by a second call at dr+1.
func (b *Backend) CustomJVP(fn backends.OrderedFunc) *backends.Differentiable {
	return backends.NewDifferentiable(fn)
}

// Finalize releases all the associated resources immediately, and makes the backend invalid.
func (b *Backend) Finalize() {}
