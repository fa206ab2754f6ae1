// Copyright 2025-2026 The Zernigo Authors. SPDX-License-Identifier: Apache-2.0

// Package blas implements the accelerated backend for zernigo, on top of
// gonum's kernels.
//
// Simply import it with import _ "github.com/YigitElma/zernigo/backends/blas"
// to make it available in your program. It will register itself as an available
// backend during initialization.
//
// The device preference given in the configuration ("cpu" or "gpu") selects the
// execution target. GPU devices are probed only when zernigo is built with the
// "cuda" build tag; when GPU execution is requested but no GPU is detected the
// backend warns and downgrades to the CPU. Kernel execution itself always
// happens on the host -- the recorded device drives placement decisions in the
// layers above.
package blas

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"

	"github.com/YigitElma/zernigo/backends"
	"github.com/YigitElma/zernigo/types/tensor"
)

// BackendName to be used in ZERNIGO_BACKEND to specify this backend.
const BackendName = "blas"

func init() {
	backends.Register(BackendName, New)
}

// New constructs a new blas Backend. The config string is the device
// preference, "cpu" (the default) or "gpu".
func New(config string) backends.Backend {
	kind, err := backends.ParseDeviceKind(config)
	if err != nil {
		exceptions.Panicf("backend %q: %v", BackendName, err)
	}
	if kind == backends.DeviceGPU && cudaDeviceCount() == 0 {
		klog.Warningf("Backend %q failed to detect a GPU, are you sure zernigo was built with GPU support (-tags cuda)? Using the CPU", BackendName)
		kind = backends.DeviceCPU
	}
	b := &Backend{device: kind}
	device := backends.SetDevice(kind)
	selfCheck(b)
	klog.Infof("Using %s backend on %s", BackendName, device)
	return b
}

// selfCheck evaluates exp over a small linspace, verifying the kernels are
// usable before the backend is handed out.
func selfCheck(b *Backend) {
	y := b.Exp(b.Linspace(0, 5, 50))
	if y.Size() != 50 {
		exceptions.Panicf("backend %q: self-check failed", BackendName)
	}
}

// Backend implements the backends.Backend interface on gonum kernels.
type Backend struct {
	device backends.DeviceKind
}

// Compile-time check that blas.Backend implements backends.Backend.
var _ backends.Backend = &Backend{}

// Name returns the short name of the backend.
func (b *Backend) Name() string { return BackendName }

// Description is a longer description of the Backend that can be used to pretty-print.
func (b *Backend) Description() string {
	if name := cudaDeviceName(); name != "" {
		return fmt.Sprintf("Gonum/BLAS Accelerated Backend (%s: %s)", b.device, name)
	}
	return fmt.Sprintf("Gonum/BLAS Accelerated Backend (%s)", b.device)
}

// Accelerated reports that this backend runs on accelerated numeric kernels.
func (b *Backend) Accelerated() bool { return true }

// NumDevices returns the number of devices of the given kind: always 1 CPU,
// and however many GPUs the cuda probe found.
func (b *Backend) NumDevices(kind backends.DeviceKind) int {
	switch kind {
	case backends.DeviceCPU:
		return 1
	case backends.DeviceGPU:
		return cudaDeviceCount()
	}
	return 0
}

// ExecuteOnCPU returns fn pinned to the CPU device: while fn runs, the
// backend's device selection is forced to the CPU, even when a GPU was
// selected at startup.
func (b *Backend) ExecuteOnCPU(fn backends.TensorFunc) backends.TensorFunc {
	return func(args ...*tensor.Tensor) *tensor.Tensor {
		prev := b.device
		b.device = backends.DeviceCPU
		defer func() { b.device = prev }()
		return fn(args...)
	}
}

// Finalize releases all the associated resources immediately, and makes the backend invalid.
func (b *Backend) Finalize() {}
