// Copyright 2025-2026 The Zernigo Authors. SPDX-License-Identifier: Apache-2.0

package blas

import (
	"slices"

	"github.com/YigitElma/zernigo/backends"
	"github.com/YigitElma/zernigo/types/tensor"
)

// Jit returns fn behind a one-entry call cache keyed on the argument values:
// when called again with arguments equal in shape and contents, the previous
// result is returned without re-evaluating fn. An operand mutated in place
// (e.g. through Flat) no longer matches the snapshot and re-evaluates, so any
// call sequence yields the same values here as on the portable backend.
//
// This stands in for the accelerated framework's trace-and-compile: zernigo
// evaluation patterns re-invoke the same function on the same operands (e.g.
// the primal and JVP passes share the dr evaluation), and the cache removes the
// duplicate work. Results are returned as copies so callers can mutate them
// freely.
func (b *Backend) Jit(fn backends.TensorFunc) backends.TensorFunc {
	var (
		lastArgs   []*tensor.Tensor // snapshots of the argument values
		lastResult *tensor.Tensor
	)
	return func(args ...*tensor.Tensor) *tensor.Tensor {
		if lastResult != nil && equalArgs(lastArgs, args) {
			return lastResult.Clone()
		}
		// Snapshot before evaluating, in case fn mutates its operands.
		lastArgs = make([]*tensor.Tensor, len(args))
		for i, arg := range args {
			lastArgs[i] = arg.Clone()
		}
		lastResult = fn(args...)
		return lastResult.Clone()
	}
}

func equalArgs(snapshots, args []*tensor.Tensor) bool {
	if len(snapshots) != len(args) {
		return false
	}
	for i, snapshot := range snapshots {
		if !snapshot.Equal(args[i]) {
			return false
		}
	}
	return true
}

// CustomJVP attaches the adjacent-order derivative rule to fn, with the same
// one-entry value-keyed cache as Jit on (r, l, m, dr), so that evaluating the
// rule twice on the same points costs one call per derivative order.
func (b *Backend) CustomJVP(fn backends.OrderedFunc) *backends.Differentiable {
	var (
		lastR      *tensor.Tensor // snapshot of the point values
		lastL      []int
		lastM      []int
		lastDr     int
		lastResult *tensor.Tensor
	)
	cached := func(r *tensor.Tensor, l, m []int, dr int) *tensor.Tensor {
		if lastResult != nil && dr == lastDr && lastR.Equal(r) &&
			slices.Equal(lastL, l) && slices.Equal(lastM, m) {
			return lastResult.Clone()
		}
		lastR = r.Clone()
		lastL = slices.Clone(l)
		lastM = slices.Clone(m)
		lastDr = dr
		lastResult = fn(r, l, m, dr)
		return lastResult.Clone()
	}
	return backends.NewDifferentiable(cached)
}
