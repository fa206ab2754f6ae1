// Copyright 2025-2026 The Zernigo Authors. SPDX-License-Identifier: Apache-2.0

package numgo

import (
	"math"

	"github.com/gomlx/exceptions"

	"github.com/YigitElma/zernigo/types/tensor"
)

// Put returns arr with arr[inds[i]] = vals[i], flat indexing, without modifying
// the input. A scalar vals is broadcast over all the indices.
func (b *Backend) Put(arr *tensor.Tensor, inds []int, vals *tensor.Tensor) *tensor.Tensor {
	out := arr.Clone()
	flat := out.Flat()
	valsFlat := vals.Flat()
	broadcast := vals.IsScalar() || vals.Size() == 1
	if !broadcast && vals.Size() != len(inds) {
		exceptions.Panicf("Put: %d indices but %d values", len(inds), vals.Size())
	}
	for i, idx := range inds {
		if idx < 0 || idx >= len(flat) {
			exceptions.Panicf("Put: index %d out of range for tensor of size %d", idx, len(flat))
		}
		if broadcast {
			flat[idx] = valsFlat[0]
		} else {
			flat[idx] = valsFlat[i]
		}
	}
	return out
}

// Sign returns +1 where x >= 0 and -1 where x < 0. Zero maps to +1.
func (b *Backend) Sign(x *tensor.Tensor) *tensor.Tensor {
	out := x.Clone()
	flat := out.Flat()
	for i, v := range flat {
		if v < 0 {
			flat[i] = -1
		} else {
			flat[i] = 1
		}
	}
	return out
}

// Select returns onTrue where pred is non-zero and onFalse elsewhere.
func (b *Backend) Select(pred, onTrue, onFalse *tensor.Tensor) *tensor.Tensor {
	if pred.Size() != onTrue.Size() || pred.Size() != onFalse.Size() {
		exceptions.Panicf("Select: mismatched sizes %d, %d and %d", pred.Size(), onTrue.Size(), onFalse.Size())
	}
	out := onTrue.Clone()
	flat := out.Flat()
	predFlat := pred.Flat()
	falseFlat := onFalse.Flat()
	for i := range flat {
		if predFlat[i] == 0 {
			flat[i] = falseFlat[i]
		}
	}
	return out
}

// Bincount counts occurrences of each value of x in [0, length).
func (b *Backend) Bincount(x []int, length int) *tensor.Tensor {
	out := tensor.New(length)
	flat := out.Flat()
	for _, v := range x {
		if v >= 0 && v < length {
			flat[v]++
		}
	}
	return out
}

// GammaLn returns log|Gamma(x)|, elementwise.
func (b *Backend) GammaLn(x *tensor.Tensor) *tensor.Tensor {
	out := x.Clone()
	flat := out.Flat()
	for i, v := range flat {
		flat[i], _ = math.Lgamma(v)
	}
	return out
}

// Exp returns e**x, elementwise.
func (b *Backend) Exp(x *tensor.Tensor) *tensor.Tensor {
	out := x.Clone()
	flat := out.Flat()
	for i, v := range flat {
		flat[i] = math.Exp(v)
	}
	return out
}

// Linspace returns num evenly spaced values from start to stop, inclusive.
// num of 1 returns just start, 0 an empty vector.
func (b *Backend) Linspace(start, stop float64, num int) *tensor.Tensor {
	if num < 0 {
		exceptions.Panicf("Linspace: num must be >= 0, got %d", num)
	}
	out := tensor.New(num)
	flat := out.Flat()
	if num < 2 {
		if num == 1 {
			flat[0] = start
		}
		return out
	}
	step := (stop - start) / float64(num-1)
	for i := range flat {
		flat[i] = start + float64(i)*step
	}
	flat[num-1] = stop
	return out
}

// Vmap returns the vectorized version of fn: it maps fn over the slices of its
// argument along axis 0 and stacks the results with the mapped axis at
// outAxis (negative counts from the end of the result's shape).
//
// Every intermediate result is materialized before stacking -- values match the
// accelerated framework's batched execution, peak memory does not.
func (b *Backend) Vmap(fn func(*tensor.Tensor) *tensor.Tensor, outAxis int) func(*tensor.Tensor) *tensor.Tensor {
	return func(batched *tensor.Tensor) *tensor.Tensor {
		n := batched.Dim(0)
		results := make([]*tensor.Tensor, n)
		for i := 0; i < n; i++ {
			results[i] = fn(batched.Slice(i))
		}
		return tensor.Stack(results, outAxis)
	}
}
