package backends

import (
	"github.com/YigitElma/zernigo/types/tensor"
)

// Host-level control-flow combinators. The accelerated framework this API
// mirrors traces them into a compiled graph; here every backend executes them
// directly, so they are backend independent. Values are identical either way,
// memory behavior is not: see Scan and Backend.Vmap for the eager
// materialization caveat.

// Cond applies trueFn to operand when pred is true, falseFn otherwise.
func Cond[T, R any](pred bool, trueFn, falseFn func(T) R, operand T) R {
	if pred {
		return trueFn(operand)
	}
	return falseFn(operand)
}

// Switch applies exactly one of branches, selected by index, to operand.
//
// An out-of-bounds index is clamped: -1 behaves like 0 and len(branches) like
// len(branches)-1.
func Switch[T, R any](index int, branches []func(T) R, operand T) R {
	if index < 0 {
		index = 0
	}
	if index > len(branches)-1 {
		index = len(branches) - 1
	}
	return branches[index](operand)
}

// ForiLoop loops from lower (inclusive) to upper (exclusive), applying body to
// the carried value. An empty range (lower >= upper) returns init unchanged.
func ForiLoop[T any](lower, upper int, body func(i int, val T) T, init T) T {
	val := init
	for i := lower; i < upper; i++ {
		val = body(i, val)
	}
	return val
}

// WhileLoop applies body to the carried value while cond holds, starting from
// init.
func WhileLoop[T any](cond func(val T) bool, body func(val T) T, init T) T {
	val := init
	for cond(val) {
		val = body(val)
	}
	return val
}

// Scan applies f to a carry and each slice of xs along axis 0 in order,
// returning the final carry and the per-step outputs stacked on axis 0.
//
// The per-step outputs are materialized eagerly before stacking.
func Scan[C any](f func(carry C, x *tensor.Tensor) (C, *tensor.Tensor), init C, xs *tensor.Tensor) (C, *tensor.Tensor) {
	carry := init
	n := xs.Dim(0)
	ys := make([]*tensor.Tensor, n)
	for i := 0; i < n; i++ {
		carry, ys[i] = f(carry, xs.Slice(i))
	}
	return carry, tensor.Stack(ys, 0)
}
