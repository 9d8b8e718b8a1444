// Package clinalg provides small dense complex matrix kernels shared by the
// separation packages: multiplication, LU-based solve and inversion,
// determinants, and a 1-norm condition estimate.
//
// Matrices are stored row-major in flat slices; element (i, j) of an n-column
// matrix lives at index i*n+j. All kernels target the small per-frequency-bin
// matrices of determined source separation (a handful of channels), so they
// favour clarity over blocking or SIMD.
package clinalg

import (
	"errors"
	"math"
	"math/cmplx"
)

// ErrSingular is returned when elimination encounters a pivot of zero
// magnitude and the system cannot be solved.
var ErrSingular = errors.New("clinalg: singular matrix")

// Mul computes dst = a*b for square n-by-n matrices.
// dst must not alias a or b.
func Mul(dst, a, b []complex128, n int) {
	for i := range n {
		for j := range n {
			var sum complex128
			for k := range n {
				sum += a[i*n+k] * b[k*n+j]
			}
			dst[i*n+j] = sum
		}
	}
}

// MulRect computes dst = a*b where a is rows-by-inner and b is
// inner-by-cols. dst must not alias a or b.
func MulRect(dst, a, b []complex128, rows, inner, cols int) {
	for i := range rows {
		for j := range cols {
			var sum complex128
			for k := range inner {
				sum += a[i*inner+k] * b[k*cols+j]
			}
			dst[i*cols+j] = sum
		}
	}
}

// lu factors a into L and U in place with partial pivoting. perm receives the
// row permutation and the return value is the number of row swaps. Returns
// ErrSingular if a pivot vanishes.
func lu(a []complex128, perm []int, n int) (int, error) {
	for i := range n {
		perm[i] = i
	}

	swaps := 0
	for col := range n {
		pivot := col
		pivotMag := cmplx.Abs(a[perm[col]*n+col])
		for row := col + 1; row < n; row++ {
			if mag := cmplx.Abs(a[perm[row]*n+col]); mag > pivotMag {
				pivot = row
				pivotMag = mag
			}
		}
		if pivotMag == 0 {
			return swaps, ErrSingular
		}
		if pivot != col {
			perm[col], perm[pivot] = perm[pivot], perm[col]
			swaps++
		}

		pr := perm[col]
		inv := 1 / a[pr*n+col]
		for row := col + 1; row < n; row++ {
			r := perm[row]
			factor := a[r*n+col] * inv
			a[r*n+col] = factor
			for j := col + 1; j < n; j++ {
				a[r*n+j] -= factor * a[pr*n+j]
			}
		}
	}

	return swaps, nil
}

// Solve solves m*x = rhs for a square n-by-n matrix and writes the solution
// into dst. m and rhs are left unmodified. dst and rhs may alias.
func Solve(dst, m, rhs []complex128, n int) error {
	work := make([]complex128, n*n)
	copy(work, m)
	perm := make([]int, n)

	if _, err := lu(work, perm, n); err != nil {
		return err
	}

	y := make([]complex128, n)
	for i := range n {
		v := rhs[perm[i]]
		for j := range i {
			v -= work[perm[i]*n+j] * y[j]
		}
		y[i] = v
	}

	for i := n - 1; i >= 0; i-- {
		v := y[i]
		for j := i + 1; j < n; j++ {
			v -= work[perm[i]*n+j] * dst[j]
		}
		dst[i] = v / work[perm[i]*n+i]
	}

	return nil
}

// Inverse writes the inverse of the square n-by-n matrix m into dst.
// m is left unmodified. dst must not alias m.
func Inverse(dst, m []complex128, n int) error {
	work := make([]complex128, n*n)
	copy(work, m)
	perm := make([]int, n)

	if _, err := lu(work, perm, n); err != nil {
		return err
	}

	y := make([]complex128, n)
	col := make([]complex128, n)
	for c := range n {
		for i := range n {
			var v complex128
			if perm[i] == c {
				v = 1
			}
			for j := range i {
				v -= work[perm[i]*n+j] * y[j]
			}
			y[i] = v
		}
		for i := n - 1; i >= 0; i-- {
			v := y[i]
			for j := i + 1; j < n; j++ {
				v -= work[perm[i]*n+j] * col[j]
			}
			col[i] = v / work[perm[i]*n+i]
		}
		for i := range n {
			dst[i*n+c] = col[i]
		}
	}

	return nil
}

// Det returns the determinant of the square n-by-n matrix m.
// m is left unmodified. A singular matrix yields zero.
func Det(m []complex128, n int) complex128 {
	work := make([]complex128, n*n)
	copy(work, m)
	perm := make([]int, n)

	swaps, err := lu(work, perm, n)
	if err != nil {
		return 0
	}

	det := complex(1, 0)
	for i := range n {
		det *= work[perm[i]*n+i]
	}
	if swaps%2 == 1 {
		det = -det
	}
	return det
}

// Cond returns the 1-norm condition estimate norm1(m)*norm1(inv(m)) of the
// square n-by-n matrix m. A singular matrix yields +Inf.
func Cond(m []complex128, n int) float64 {
	inv := make([]complex128, n*n)
	if err := Inverse(inv, m, n); err != nil {
		return math.Inf(1)
	}
	return norm1(m, n) * norm1(inv, n)
}

// norm1 returns the maximum absolute column sum.
func norm1(m []complex128, n int) float64 {
	maxSum := 0.0
	for j := range n {
		sum := 0.0
		for i := range n {
			sum += cmplx.Abs(m[i*n+j])
		}
		if sum > maxSum {
			maxSum = sum
		}
	}
	return maxSum
}
