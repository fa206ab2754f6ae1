// Package tensor implements a minimal dense float64 tensor used by the zernigo
// backends.
//
// It is storage only: a shape (list of dimensions) plus a flat slice of values in
// row-major order. There is no broadcasting, no dtype dispatch and no device
// placement here -- backends decide how the flat data is consumed.
//
// ## Glossary
//
//   - Rank: number of axes of a Tensor.
//   - Axis: the index of a dimension. A tensor of shape [2 3] has axis 0 with
//     dimension 2 and axis 1 with dimension 3.
//   - Scalar: a rank-0 tensor holding a single value.
package tensor

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
)

// Tensor is a dense float64 array with an explicit shape.
// The zero value is not usable; use New, FromFlat, FromVector or Scalar.
type Tensor struct {
	dims []int
	flat []float64
}

// New returns a zero-initialized tensor with the given dimensions.
// New() returns a scalar.
func New(dims ...int) *Tensor {
	size := 1
	for _, d := range dims {
		if d < 0 {
			exceptions.Panicf("tensor.New: invalid dimension %d in %v", d, dims)
		}
		size *= d
	}
	return &Tensor{
		dims: append([]int{}, dims...),
		flat: make([]float64, size),
	}
}

// FromFlat wraps the given flat data (row-major) into a tensor of the given
// dimensions. The data is not copied, ownership is transferred.
func FromFlat(flat []float64, dims ...int) *Tensor {
	size := 1
	for _, d := range dims {
		size *= d
	}
	if size != len(flat) {
		exceptions.Panicf("tensor.FromFlat: dimensions %v require %d values, got %d", dims, size, len(flat))
	}
	return &Tensor{dims: append([]int{}, dims...), flat: flat}
}

// FromVector returns a rank-1 tensor with a copy of the given values.
func FromVector(values ...float64) *Tensor {
	flat := make([]float64, len(values))
	copy(flat, values)
	return &Tensor{dims: []int{len(values)}, flat: flat}
}

// Scalar returns a rank-0 tensor holding the given value.
func Scalar(value float64) *Tensor {
	return &Tensor{dims: nil, flat: []float64{value}}
}

// Rank returns the number of axes.
func (t *Tensor) Rank() int { return len(t.dims) }

// Dims returns a copy of the dimensions.
func (t *Tensor) Dims() []int { return append([]int{}, t.dims...) }

// Dim returns the dimension of the given axis.
func (t *Tensor) Dim(axis int) int {
	if axis < 0 || axis >= len(t.dims) {
		exceptions.Panicf("tensor.Dim: axis %d out of range for rank %d", axis, len(t.dims))
	}
	return t.dims[axis]
}

// Size returns the total number of elements.
func (t *Tensor) Size() int { return len(t.flat) }

// Flat returns the underlying row-major data. It is not a copy: mutating it
// mutates the tensor.
func (t *Tensor) Flat() []float64 { return t.flat }

// IsScalar reports whether the tensor has rank 0.
func (t *Tensor) IsScalar() bool { return len(t.dims) == 0 }

// Value returns the value of a scalar tensor.
func (t *Tensor) Value() float64 {
	if !t.IsScalar() {
		exceptions.Panicf("tensor.Value: tensor has shape %v, not a scalar", t.dims)
	}
	return t.flat[0]
}

// offset converts a multi-index to a position in the flat data.
func (t *Tensor) offset(indices ...int) int {
	if len(indices) != len(t.dims) {
		exceptions.Panicf("tensor: got %d indices for rank %d tensor", len(indices), len(t.dims))
	}
	pos := 0
	for axis, idx := range indices {
		if idx < 0 || idx >= t.dims[axis] {
			exceptions.Panicf("tensor: index %d out of range for axis %d with dimension %d", idx, axis, t.dims[axis])
		}
		pos = pos*t.dims[axis] + idx
	}
	return pos
}

// At returns the element at the given multi-index.
func (t *Tensor) At(indices ...int) float64 {
	return t.flat[t.offset(indices...)]
}

// Set assigns the element at the given multi-index.
func (t *Tensor) Set(value float64, indices ...int) {
	t.flat[t.offset(indices...)] = value
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	flat := make([]float64, len(t.flat))
	copy(flat, t.flat)
	return &Tensor{dims: append([]int{}, t.dims...), flat: flat}
}

// Slice returns a copy of the i-th sub-tensor along axis 0.
// For a rank-1 tensor it returns a scalar.
func (t *Tensor) Slice(i int) *Tensor {
	if len(t.dims) == 0 {
		exceptions.Panicf("tensor.Slice: cannot slice a scalar")
	}
	if i < 0 || i >= t.dims[0] {
		exceptions.Panicf("tensor.Slice: index %d out of range for axis 0 with dimension %d", i, t.dims[0])
	}
	subSize := len(t.flat) / t.dims[0]
	flat := make([]float64, subSize)
	copy(flat, t.flat[i*subSize:(i+1)*subSize])
	return &Tensor{dims: append([]int{}, t.dims[1:]...), flat: flat}
}

// Stack combines n tensors of identical shape into one tensor whose new axis of
// dimension n is inserted at the given position. axis must be in
// [0, rank(parts)] -- stacking scalars on axis 0 yields a vector. A negative
// axis counts from the end of the result's shape: -1 appends the new axis last.
func Stack(parts []*Tensor, axis int) *Tensor {
	if len(parts) == 0 {
		exceptions.Panicf("tensor.Stack: no tensors to stack")
	}
	first := parts[0]
	for i, p := range parts[1:] {
		if !sameDims(first.dims, p.dims) {
			exceptions.Panicf("tensor.Stack: tensor %d has shape %v, want %v", i+1, p.dims, first.dims)
		}
	}
	rank := len(first.dims)
	if axis < 0 {
		axis += rank + 1
	}
	if axis < 0 || axis > rank {
		exceptions.Panicf("tensor.Stack: axis %d out of range for parts of rank %d", axis, rank)
	}

	n := len(parts)
	outer := 1
	for _, d := range first.dims[:axis] {
		outer *= d
	}
	inner := len(first.flat) / outer

	dims := make([]int, 0, rank+1)
	dims = append(dims, first.dims[:axis]...)
	dims = append(dims, n)
	dims = append(dims, first.dims[axis:]...)
	flat := make([]float64, n*len(first.flat))
	for o := 0; o < outer; o++ {
		for i, p := range parts {
			copy(flat[(o*n+i)*inner:(o*n+i+1)*inner], p.flat[o*inner:(o+1)*inner])
		}
	}
	return &Tensor{dims: dims, flat: flat}
}

// Equal reports whether both tensors have the same shape and exactly the same
// values.
func (t *Tensor) Equal(other *Tensor) bool {
	if !sameDims(t.dims, other.dims) {
		return false
	}
	for i, v := range t.flat {
		if v != other.flat[i] {
			return false
		}
	}
	return true
}

func sameDims(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i, d := range a {
		if d != b[i] {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer, printing the shape and (for small tensors)
// the values.
func (t *Tensor) String() string {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "(float64)%v", t.dims)
	if len(t.flat) <= 16 {
		_, _ = fmt.Fprintf(&sb, ": %v", t.flat)
	} else {
		_, _ = fmt.Fprintf(&sb, ": [%d values]", len(t.flat))
	}
	return sb.String()
}
