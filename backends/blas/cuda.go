// Copyright 2025-2026 The Zernigo Authors. SPDX-License-Identifier: Apache-2.0

//go:build cuda

package blas

/*
#cgo CFLAGS: -I/opt/cuda/include
#cgo LDFLAGS: -L/opt/cuda/lib64 -lcudart

#include <cuda_runtime_api.h>

static int zernigoCudaDeviceCount() {
	int count = 0;
	if (cudaGetDeviceCount(&count) != cudaSuccess) {
		return 0;
	}
	return count;
}

static const char* zernigoCudaDeviceName() {
	static struct cudaDeviceProp prop;
	int count = 0;
	if (cudaGetDeviceCount(&count) != cudaSuccess || count == 0) {
		return "";
	}
	if (cudaGetDeviceProperties(&prop, 0) != cudaSuccess) {
		return "";
	}
	return prop.name;
}
*/
import "C"

// cudaDeviceCount returns the number of CUDA devices visible to the process.
func cudaDeviceCount() int {
	return int(C.zernigoCudaDeviceCount())
}

// cudaDeviceName returns the name of the first CUDA device, or "".
func cudaDeviceName() string {
	return C.GoString(C.zernigoCudaDeviceName())
}
