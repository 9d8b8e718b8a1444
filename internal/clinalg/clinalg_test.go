package clinalg

import (
	"math"
	"math/cmplx"
	"testing"
)

func requireClose(t *testing.T, got, want complex128, tol float64) {
	t.Helper()
	if cmplx.Abs(got-want) > tol {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestMul(t *testing.T) {
	a := []complex128{1, 2i, 3, 4}
	b := []complex128{0, 1, 1, 0}
	dst := make([]complex128, 4)

	Mul(dst, a, b, 2)

	want := []complex128{2i, 1, 4, 3}
	for i := range want {
		requireClose(t, dst[i], want[i], 1e-14)
	}
}

func TestMulRect(t *testing.T) {
	// (1x3) * (3x2)
	a := []complex128{1, 2, 3}
	b := []complex128{1, 0, 0, 1, 1i, 0}
	dst := make([]complex128, 2)

	MulRect(dst, a, b, 1, 3, 2)

	requireClose(t, dst[0], 1+3i, 1e-14)
	requireClose(t, dst[1], 2, 1e-14)
}

func TestSolve2x2(t *testing.T) {
	// Build the right-hand side from a known solution.
	m := []complex128{2, 1, 1, 3i}
	x := []complex128{1 - 1i, 2}
	rhs := make([]complex128, 2)
	MulRect(rhs, m, x, 2, 2, 1)

	got := make([]complex128, 2)
	if err := Solve(got, m, rhs, 2); err != nil {
		t.Fatalf("Solve error: %v", err)
	}

	for i := range x {
		requireClose(t, got[i], x[i], 1e-12)
	}
}

func TestSolve3x3NeedsPivoting(t *testing.T) {
	// Zero leading element forces a row swap.
	m := []complex128{0, 1, 2, 1, 1i, 0, 3, 0, 1}
	x := []complex128{2i, -1, 0.5}
	rhs := make([]complex128, 3)
	MulRect(rhs, m, x, 3, 3, 1)

	got := make([]complex128, 3)
	if err := Solve(got, m, rhs, 3); err != nil {
		t.Fatalf("Solve error: %v", err)
	}

	for i := range x {
		requireClose(t, got[i], x[i], 1e-12)
	}
}

func TestSolveSingular(t *testing.T) {
	m := []complex128{1, 2, 2, 4}
	rhs := []complex128{1, 1}
	got := make([]complex128, 2)

	if err := Solve(got, m, rhs, 2); err != ErrSingular {
		t.Fatalf("expected ErrSingular, got %v", err)
	}
}

func TestInverse(t *testing.T) {
	m := []complex128{1, 1i, 0, 2, 1, 1, -1i, 0, 3}
	inv := make([]complex128, 9)
	if err := Inverse(inv, m, 3); err != nil {
		t.Fatalf("Inverse error: %v", err)
	}

	prod := make([]complex128, 9)
	Mul(prod, m, inv, 3)

	for i := range 3 {
		for j := range 3 {
			want := complex128(0)
			if i == j {
				want = 1
			}
			requireClose(t, prod[i*3+j], want, 1e-12)
		}
	}
}

func TestDet(t *testing.T) {
	// det([a b; c d]) = ad - bc
	m := []complex128{1 + 1i, 2, 3, 4i}
	want := (1 + 1i) * 4i - complex128(6)

	requireClose(t, Det(m, 2), want, 1e-12)
}

func TestDetIdentity(t *testing.T) {
	m := []complex128{1, 0, 0, 0, 1, 0, 0, 0, 1}
	requireClose(t, Det(m, 3), 1, 1e-14)
}

func TestDetSingular(t *testing.T) {
	m := []complex128{1, 2, 2, 4}
	requireClose(t, Det(m, 2), 0, 1e-14)
}

func TestCond(t *testing.T) {
	ident := []complex128{1, 0, 0, 1}
	if c := Cond(ident, 2); math.Abs(c-1) > 1e-12 {
		t.Fatalf("identity condition should be 1, got %v", c)
	}

	nearSingular := []complex128{1, 1, 1, 1 + 1e-13}
	if c := Cond(nearSingular, 2); c < 1e12 {
		t.Fatalf("near-singular condition too small: %v", c)
	}

	singular := []complex128{1, 2, 2, 4}
	if c := Cond(singular, 2); !math.IsInf(c, 1) {
		t.Fatalf("singular condition should be +Inf, got %v", c)
	}
}

func TestSolveDoesNotModifyInputs(t *testing.T) {
	m := []complex128{0, 1, 1, 0}
	rhs := []complex128{2, 3}
	mCopy := append([]complex128(nil), m...)
	rhsCopy := append([]complex128(nil), rhs...)

	got := make([]complex128, 2)
	if err := Solve(got, m, rhs, 2); err != nil {
		t.Fatalf("Solve error: %v", err)
	}

	for i := range m {
		if m[i] != mCopy[i] {
			t.Fatalf("Solve modified the matrix")
		}
	}
	for i := range rhs {
		if rhs[i] != rhsCopy[i] {
			t.Fatalf("Solve modified the right-hand side")
		}
	}
}
