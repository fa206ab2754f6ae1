// Copyright 2025-2026 The Zernigo Authors. SPDX-License-Identifier: Apache-2.0

//go:build !cuda

package blas

// Stubs used when zernigo is built without the "cuda" tag: no GPU is ever
// detected, so a "gpu" device preference downgrades to the CPU.

func cudaDeviceCount() int { return 0 }

func cudaDeviceName() string { return "" }
