// Package zernike evaluates radial Zernike polynomials and their radial
// derivatives, written entirely against the backends API so the same code runs
// on the accelerated and on the portable backend.
//
// The radial polynomial of degree l and azimuthal order m is the finite series
//
//	R_l^m(r) = sum_s (-1)^s binom-coefficients(l, m, s) * r^(l-2s)
//
// and its dr-th radial derivative follows by differentiating the powers term
// by term. Coefficients are formed in log space with GammaLn to avoid
// factorial overflow.
package zernike

import (
	"github.com/gomlx/exceptions"

	"github.com/YigitElma/zernigo/backends"
	"github.com/YigitElma/zernigo/types/tensor"
)

// Radial evaluates the dr-th radial derivative of the Zernike radial
// polynomials R_l^m at the points r (a vector), for the paired mode numbers
// l and m. The result has shape [len(r), len(l)]: one row per point, one
// column per mode.
func Radial(b backends.Backend, r *tensor.Tensor, l, m []int, dr int) *tensor.Tensor {
	if r.Rank() != 1 {
		exceptions.Panicf("zernike.Radial: r must be a vector, got shape %v", r.Dims())
	}
	if len(l) != len(m) {
		exceptions.Panicf("zernike.Radial: %d radial degrees but %d azimuthal orders", len(l), len(m))
	}
	if dr < 0 {
		exceptions.Panicf("zernike.Radial: negative derivative order %d", dr)
	}
	nPoints := r.Dim(0)
	nModes := len(l)
	out := tensor.New(nPoints, nModes)
	for j := 0; j < nModes; j++ {
		n, mAbs := l[j], abs(m[j])
		if n < 0 || mAbs > n {
			exceptions.Panicf("zernike.Radial: invalid mode l=%d, m=%d", l[j], m[j])
		}
		column := backends.Cond((n-mAbs)%2 == 0,
			func(r *tensor.Tensor) *tensor.Tensor { return radialMode(b, r, n, mAbs, dr) },
			func(r *tensor.Tensor) *tensor.Tensor { return tensor.New(r.Dim(0)) },
			r)
		inds := make([]int, nPoints)
		for i := range inds {
			inds[i] = i*nModes + j
		}
		out = b.Put(out, inds, column)
	}
	return out
}

// radialMode evaluates one mode: the dr-th derivative of R_n^m, m >= 0 and
// n-m even, at every point of r.
func radialMode(b backends.Backend, r *tensor.Tensor, n, m, dr int) *tensor.Tensor {
	nTerms := (n-m)/2 + 1
	return backends.ForiLoop(0, nTerms, func(s int, acc *tensor.Tensor) *tensor.Tensor {
		power := n - 2*s
		if power < dr {
			// The term's power differentiates to zero.
			return acc
		}
		coef := termCoefficient(b, n, m, s)
		// Differentiating r**power dr times brings down power!/(power-dr)!.
		coef *= fallingFactorial(b, power, dr)
		if s%2 == 1 {
			coef = -coef
		}
		flat := acc.Flat()
		for i, rv := range r.Flat() {
			flat[i] += coef * pow(rv, power-dr)
		}
		return acc
	}, tensor.New(r.Dim(0)))
}

// termCoefficient returns (n-s)! / (s! ((n+m)/2-s)! ((n-m)/2-s)!), formed in
// log space.
func termCoefficient(b backends.Backend, n, m, s int) float64 {
	g := b.GammaLn(tensor.FromVector(
		float64(n-s+1),
		float64(s+1),
		float64((n+m)/2-s+1),
		float64((n-m)/2-s+1),
	)).Flat()
	return b.Exp(tensor.Scalar(g[0] - g[1] - g[2] - g[3])).Value()
}

// fallingFactorial returns p! / (p-dr)!, formed in log space.
func fallingFactorial(b backends.Backend, p, dr int) float64 {
	if dr == 0 {
		return 1
	}
	g := b.GammaLn(tensor.FromVector(float64(p+1), float64(p-dr+1))).Flat()
	return b.Exp(tensor.Scalar(g[0] - g[1])).Value()
}

// RadialVmap is Radial expressed through the backend's vectorized map: a
// single-point evaluation mapped over r and stacked on axis 0. Values match
// Radial exactly; it exists to exercise the batched path.
func RadialVmap(b backends.Backend, r *tensor.Tensor, l, m []int, dr int) *tensor.Tensor {
	perPoint := func(point *tensor.Tensor) *tensor.Tensor {
		single := tensor.FromVector(point.Value())
		return Radial(b, single, l, m, dr).Slice(0)
	}
	return b.Vmap(perPoint, 0)(r)
}

// WithDerivativeRule returns Radial on backend b wrapped with its custom
// derivative rule: the derivative of Radial(..., dr) with respect to r is
// Radial(..., dr+1), dr being a static argument.
func WithDerivativeRule(b backends.Backend) *backends.Differentiable {
	return b.CustomJVP(func(r *tensor.Tensor, l, m []int, dr int) *tensor.Tensor {
		return Radial(b, r, l, m, dr)
	})
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// pow is integer exponentiation by squaring; power is always small here.
func pow(base float64, power int) float64 {
	result := 1.0
	for power > 0 {
		if power&1 == 1 {
			result *= base
		}
		base *= base
		power >>= 1
	}
	return result
}
