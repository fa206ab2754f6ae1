package backends

import (
	"github.com/gomlx/exceptions"

	"github.com/YigitElma/zernigo/types/tensor"
)

// OrderedFunc is an order-indexed radial function: fn(r, l, m, dr) evaluates
// the dr-th radial derivative of a family of radial polynomials at the points
// r, for the mode numbers l and m. The derivative order dr is a static
// argument: it selects which function is computed and is never differentiated
// through.
//
// The result has shape [len(r)] for a single mode, or [len(r), len(l)] when
// several modes are evaluated at once.
type OrderedFunc func(r *tensor.Tensor, l, m []int, dr int) *tensor.Tensor

// Differentiable is an OrderedFunc with its custom derivative rule attached.
//
// The rule is the adjacent-order identity: d/dr fn(r, l, m, dr) is exactly
// fn(r, l, m, dr+1), so the JVP for a tangent rdot is fn(..., dr+1) scaled
// per-point by rdot. The mode numbers are integer-valued and carry no tangent.
//
// This is an adapter onto whatever differentiation machinery sits above it --
// there is no AD engine in zernigo itself.
type Differentiable struct {
	fn OrderedFunc
}

// NewDifferentiable attaches the adjacent-order derivative rule to fn.
// Backends use it to implement Backend.CustomJVP, possibly wrapping fn first
// (e.g. with their Jit layer).
func NewDifferentiable(fn OrderedFunc) *Differentiable {
	return &Differentiable{fn: fn}
}

// Eval evaluates the wrapped function.
func (d *Differentiable) Eval(r *tensor.Tensor, l, m []int, dr int) *tensor.Tensor {
	return d.fn(r, l, m, dr)
}

// JVP returns the primal output fn(r, l, m, dr) together with the
// Jacobian-vector product for the tangent rdot on r:
//
//	tangent[i, ...] = fn(r, l, m, dr+1)[i, ...] * rdot[i]
//
// rdot must be a vector with one tangent per point in r (or a scalar, applied
// to every point).
func (d *Differentiable) JVP(r *tensor.Tensor, l, m []int, dr int, rdot *tensor.Tensor) (primal, tangent *tensor.Tensor) {
	primal = d.fn(r, l, m, dr)
	df := d.fn(r, l, m, dr+1)
	tangent = scaleLeadingAxis(df, rdot)
	return primal, tangent
}

// scaleLeadingAxis multiplies each slice of t along axis 0 by the matching
// entry of the vector scale. A scalar scale is applied uniformly.
func scaleLeadingAxis(t *tensor.Tensor, scale *tensor.Tensor) *tensor.Tensor {
	out := t.Clone()
	flat := out.Flat()
	if scale.IsScalar() {
		s := scale.Value()
		for i := range flat {
			flat[i] *= s
		}
		return out
	}
	if scale.Rank() != 1 || t.Rank() < 1 || scale.Dim(0) != t.Dim(0) {
		exceptions.Panicf("JVP: tangent has shape %v, want a vector matching the leading axis of %v", scale.Dims(), t.Dims())
	}
	n := t.Dim(0)
	inner := t.Size() / n
	scaleFlat := scale.Flat()
	for i := 0; i < n; i++ {
		s := scaleFlat[i]
		for j := i * inner; j < (i+1)*inner; j++ {
			flat[j] *= s
		}
	}
	return out
}
