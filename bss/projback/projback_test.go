package projback

import (
	"math/cmplx"
	"testing"

	"github.com/cwbudde/algo-bss/dsp/tensor"
	"github.com/cwbudde/algo-bss/internal/testutil"
)

func TestResolveRecoversKnownScale(t *testing.T) {
	// One source, and a mixture channel that is exactly g * source.
	const bins, frames = 3, 5
	gains := []complex128{2, 0.5i, -1 + 1i}

	est := testutil.DeterministicMixture(5, 1, bins, frames)
	mix := tensor.NewComplex3(1, bins, frames)
	for f := range bins {
		y := est.Vec(0, f)
		x := mix.Vec(0, f)
		for i := range y {
			x[i] = gains[f] * y[i]
		}
	}

	scale, err := Resolve(est, mix, 0)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}

	testutil.RequireComplexSliceNearlyEqual(t, scale, gains, 1e-12)
}

func TestResolveZeroSourceIsFinite(t *testing.T) {
	est := tensor.NewComplex3(1, 2, 4)
	mix := testutil.DeterministicMixture(9, 1, 2, 4)

	scale, err := Resolve(est, mix, 0)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	for i, g := range scale {
		if cmplx.IsNaN(g) || cmplx.IsInf(g) {
			t.Fatalf("scale[%d] not finite: %v", i, g)
		}
	}
}

func TestResolveValidation(t *testing.T) {
	est := testutil.DeterministicMixture(1, 2, 3, 4)
	mix := testutil.DeterministicMixture(2, 2, 3, 5)

	if _, err := Resolve(est, mix, 0); err == nil {
		t.Fatalf("expected error for frame count mismatch")
	}

	mix = testutil.DeterministicMixture(2, 2, 3, 4)
	if _, err := Resolve(est, mix, 2); err == nil {
		t.Fatalf("expected error for out-of-range reference channel")
	}
	if _, err := Resolve(nil, mix, 0); err == nil {
		t.Fatalf("expected error for nil estimate")
	}
}

func TestApply(t *testing.T) {
	est := testutil.DeterministicMixture(4, 2, 2, 3)
	want := est.Clone()
	scale := []complex128{1, 2i, -1, 0.5}

	if err := Apply(est, scale); err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	for s := range 2 {
		for f := range 2 {
			for m := range 3 {
				expect := want.At(s, f, m) * scale[s*2+f]
				if cmplx.Abs(est.At(s, f, m)-expect) > 1e-14 {
					t.Fatalf("(%d,%d,%d): got %v, want %v", s, f, m, est.At(s, f, m), expect)
				}
			}
		}
	}
}

func TestApplyValidation(t *testing.T) {
	est := testutil.DeterministicMixture(4, 2, 2, 3)
	if err := Apply(est, make([]complex128, 3)); err == nil {
		t.Fatalf("expected error for scale length mismatch")
	}
	if err := Apply(nil, nil); err == nil {
		t.Fatalf("expected error for nil estimate")
	}
}
