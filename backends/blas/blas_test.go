// Copyright 2025-2026 The Zernigo Authors. SPDX-License-Identifier: Apache-2.0

package blas

import (
	"fmt"
	"math"
	"os"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"

	"github.com/YigitElma/zernigo/backends"
	"github.com/YigitElma/zernigo/types/tensor"
)

var backend backends.Backend

func init() {
	klog.InitFlags(nil)
}

func setup() {
	fmt.Printf("Available backends: %q\n", backends.List())
	if os.Getenv(backends.ConfigEnvVar) == "" {
		must.M(os.Setenv(backends.ConfigEnvVar, BackendName))
	}
	backend = backends.MustNew()
	fmt.Printf("Backend: %s, %s\n", backend.Name(), backend.Description())
}

func teardown() {
	backend.Finalize()
}

func TestMain(m *testing.M) {
	setup()
	code := m.Run()
	teardown()
	os.Exit(code)
}

func TestBackendMetadata(t *testing.T) {
	require.Equal(t, BackendName, backend.Name())
	require.True(t, backend.Accelerated())
	require.Equal(t, 1, backend.NumDevices(backends.DeviceCPU))
}

func TestBadDeviceConfigPanics(t *testing.T) {
	require.Panics(t, func() { New("tpu") })
}

func TestLinspace(t *testing.T) {
	x := backend.Linspace(0, 5, 50)
	require.Equal(t, 50, x.Size())
	require.Equal(t, 0.0, x.At(0))
	require.Equal(t, 5.0, x.At(49))
	require.InDelta(t, 5.0/49.0, x.At(1), 1e-12)

	// Degenerate point counts.
	require.Equal(t, []float64{2}, backend.Linspace(2, 7, 1).Flat())
	require.Equal(t, 0, backend.Linspace(2, 7, 0).Size())
	require.Panics(t, func() { backend.Linspace(0, 1, -1) })
}

func TestPut(t *testing.T) {
	arr := tensor.FromVector(0, 1, 2, 3, 4)
	got := backend.Put(arr, []int{1, 3}, tensor.FromVector(10, 30))
	require.Equal(t, []float64{0, 10, 2, 30, 4}, got.Flat())
	require.Equal(t, []float64{0, 1, 2, 3, 4}, arr.Flat())
}

func TestSignOfZeroIsOne(t *testing.T) {
	got := backend.Sign(tensor.FromVector(-2, 0, math.Copysign(0, -1), 3))
	require.Equal(t, []float64{-1, 1, 1, 1}, got.Flat())
}

func TestGammaLn(t *testing.T) {
	got := backend.GammaLn(tensor.FromVector(4))
	require.InDelta(t, math.Log(6), got.Value(), 1e-12)
}

func TestJitCachesRepeatedCalls(t *testing.T) {
	calls := 0
	fn := func(args ...*tensor.Tensor) *tensor.Tensor {
		calls++
		return backend.Exp(args[0])
	}
	jitted := backend.Jit(fn)

	x := tensor.FromVector(1, 2, 3)
	first := jitted(x)
	second := jitted(x)
	require.Equal(t, 1, calls, "second call on the same operands must hit the cache")
	require.True(t, first.Equal(second))

	// Cached results are copies: mutating one must not leak into the next call.
	first.Set(-1, 0)
	require.True(t, second.Equal(jitted(x)))
	require.Equal(t, 1, calls)

	// The cache is keyed on values, not identity: a distinct tensor with equal
	// contents still hits it.
	jitted(tensor.FromVector(1, 2, 3))
	require.Equal(t, 1, calls)

	jitted(tensor.FromVector(9, 9, 9))
	require.Equal(t, 2, calls, "different operand values must re-evaluate")
}

func TestJitRecomputesAfterInPlaceMutation(t *testing.T) {
	calls := 0
	double := func(args ...*tensor.Tensor) *tensor.Tensor {
		calls++
		out := args[0].Clone()
		flat := out.Flat()
		for i := range flat {
			flat[i] *= 2
		}
		return out
	}
	jitted := backend.Jit(double)

	x := tensor.FromVector(1, 2, 3)
	require.Equal(t, []float64{2, 4, 6}, jitted(x).Flat())

	// Mutating an operand through Flat must invalidate the cached result: the
	// same call sequence yields the same values as on the portable backend.
	x.Flat()[0] = 100
	require.Equal(t, []float64{200, 4, 6}, jitted(x).Flat())
	require.Equal(t, 2, calls)

	notJitted := double(tensor.FromVector(100, 2, 3))
	require.Equal(t, notJitted.Flat(), jitted(x).Flat())
}

func TestExecuteOnCPUPinsDevice(t *testing.T) {
	b := &Backend{device: backends.DeviceGPU}
	var observed backends.DeviceKind
	fn := func(args ...*tensor.Tensor) *tensor.Tensor {
		observed = b.device
		return args[0]
	}
	pinned := b.ExecuteOnCPU(fn)
	pinned(tensor.FromVector(1))
	require.Equal(t, backends.DeviceCPU, observed)
	require.Equal(t, backends.DeviceGPU, b.device, "device selection must be restored after the call")
}

func TestGPUPreferenceDowngradesWithoutCUDA(t *testing.T) {
	if cudaDeviceCount() > 0 {
		t.Skip("a GPU is available, the downgrade path is not reachable")
	}
	b := New("gpu")
	defer b.Finalize()
	require.Equal(t, backends.DeviceCPU, backends.Device().Kind)
	require.Equal(t, 0, b.NumDevices(backends.DeviceGPU))
}

func TestCustomJVPSharesEvaluations(t *testing.T) {
	calls := 0
	fn := func(r *tensor.Tensor, l, m []int, dr int) *tensor.Tensor {
		calls++
		out := r.Clone()
		flat := out.Flat()
		for i := range flat {
			flat[i] *= float64(dr + 1)
		}
		return out
	}
	d := backend.CustomJVP(fn)
	r := tensor.FromVector(1, 2)
	modes := []int{0}

	first := d.Eval(r, modes, modes, 0)
	second := d.Eval(r, modes, modes, 0)
	require.Equal(t, 1, calls)
	require.True(t, first.Equal(second))

	// A different derivative order re-evaluates.
	_, tangent := d.JVP(r, modes, modes, 0, tensor.Scalar(1))
	require.Equal(t, 2, calls, "JVP reuses the cached dr evaluation and adds one call for dr+1")
	require.Equal(t, []float64{2, 4}, tangent.Flat())
}

func TestCustomJVPRecomputesAfterInPlaceMutation(t *testing.T) {
	calls := 0
	fn := func(r *tensor.Tensor, l, m []int, dr int) *tensor.Tensor {
		calls++
		return r.Clone()
	}
	d := backend.CustomJVP(fn)
	modes := []int{0}

	r := tensor.FromVector(1, 2)
	require.Equal(t, []float64{1, 2}, d.Eval(r, modes, modes, 0).Flat())

	// In-place mutation of the points must miss the value-keyed cache.
	r.Flat()[0] = 5
	require.Equal(t, []float64{5, 2}, d.Eval(r, modes, modes, 0).Flat())
	require.Equal(t, 2, calls)

	// Different mode numbers miss it too.
	d.Eval(r, []int{2}, modes, 0)
	require.Equal(t, 3, calls)
}
