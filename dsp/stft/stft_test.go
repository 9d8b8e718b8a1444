package stft

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-bss/internal/testutil"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(100, 50); err == nil {
		t.Fatalf("expected error for non-power-of-two block size")
	}
	if _, err := New(4, 2); err == nil {
		t.Fatalf("expected error for too-small block size")
	}
	if _, err := New(64, 0); err == nil {
		t.Fatalf("expected error for zero hop size")
	}
	if _, err := New(64, 65); err == nil {
		t.Fatalf("expected error for hop larger than block")
	}
}

func TestForwardShape(t *testing.T) {
	tr, err := New(64, 32)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	sig := [][]float64{
		testutil.DeterministicSine(1000, 16000, 1, 256),
		testutil.DeterministicNoise(3, 1, 256),
	}

	spec, err := tr.Forward(sig)
	if err != nil {
		t.Fatalf("Forward error: %v", err)
	}

	wantFrames := (256-64)/32 + 1
	if spec.Dim0 != 2 || spec.Dim1 != 33 || spec.Dim2 != wantFrames {
		t.Fatalf("unexpected spectrogram shape (%d, %d, %d)", spec.Dim0, spec.Dim1, spec.Dim2)
	}
	testutil.RequireComplexFinite(t, spec.Data)
}

func TestForwardErrors(t *testing.T) {
	tr, err := New(64, 32)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if _, err := tr.Forward(nil); err == nil {
		t.Fatalf("expected error for empty input")
	}
	if _, err := tr.Forward([][]float64{make([]float64, 32)}); err == nil {
		t.Fatalf("expected error for short signal")
	}
	if _, err := tr.Forward([][]float64{make([]float64, 128), make([]float64, 64)}); err == nil {
		t.Fatalf("expected error for channel length mismatch")
	}
}

func TestRoundTripInterior(t *testing.T) {
	tr, err := New(64, 32)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	sig := testutil.DeterministicSine(440, 8000, 0.8, 512)

	spec, err := tr.Forward([][]float64{sig})
	if err != nil {
		t.Fatalf("Forward error: %v", err)
	}

	rec, err := tr.Inverse(spec, len(sig))
	if err != nil {
		t.Fatalf("Inverse error: %v", err)
	}
	if len(rec) != 1 || len(rec[0]) != len(sig) {
		t.Fatalf("unexpected reconstruction shape")
	}

	// Edge blocks are attenuated by the analysis window; check the interior.
	for i := 64; i < tr.NaturalLength(spec.Dim2)-64; i++ {
		if math.Abs(rec[0][i]-sig[i]) > 1e-10 {
			t.Fatalf("sample %d: got %v, want %v", i, rec[0][i], sig[i])
		}
	}
}

func TestRoundTripImpulse(t *testing.T) {
	tr, err := New(64, 16)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	// An interior impulse is fully covered by overlapping frames and must
	// survive the round trip exactly, bin packing included.
	sig := testutil.Impulse(256, 128)

	spec, err := tr.Forward([][]float64{sig})
	if err != nil {
		t.Fatalf("Forward error: %v", err)
	}

	rec, err := tr.Inverse(spec, len(sig))
	if err != nil {
		t.Fatalf("Inverse error: %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, rec[0][64:192], sig[64:192], 1e-10)
}

func TestInverseForwardPreservesShape(t *testing.T) {
	tr, err := New(64, 32)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	sig := [][]float64{
		testutil.DeterministicNoise(11, 1, 320),
		testutil.DeterministicNoise(12, 1, 320),
	}
	spec, err := tr.Forward(sig)
	if err != nil {
		t.Fatalf("Forward error: %v", err)
	}

	// The consistency projection relies on this shape round trip.
	y, err := tr.Inverse(spec, 0)
	if err != nil {
		t.Fatalf("Inverse error: %v", err)
	}
	if len(y[0]) != tr.NaturalLength(spec.Dim2) {
		t.Fatalf("natural length mismatch: %d", len(y[0]))
	}

	spec2, err := tr.Forward(y)
	if err != nil {
		t.Fatalf("second Forward error: %v", err)
	}
	if !spec.SameShape(spec2) {
		t.Fatalf("round trip changed shape: (%d, %d, %d) -> (%d, %d, %d)",
			spec.Dim0, spec.Dim1, spec.Dim2, spec2.Dim0, spec2.Dim1, spec2.Dim2)
	}
}

func TestInverseErrors(t *testing.T) {
	tr, err := New(64, 32)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if _, err := tr.Inverse(nil, 0); err == nil {
		t.Fatalf("expected error for nil spectrogram")
	}

	spec := testutil.DeterministicMixture(1, 1, 17, 4)
	if _, err := tr.Inverse(spec, 0); err == nil {
		t.Fatalf("expected error for bin count mismatch")
	}
}

func TestFramesAndNaturalLength(t *testing.T) {
	tr, err := New(64, 16)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if got := tr.Frames(63); got != 0 {
		t.Fatalf("Frames(63) = %d, want 0", got)
	}
	if got := tr.Frames(64); got != 1 {
		t.Fatalf("Frames(64) = %d, want 1", got)
	}
	if got := tr.NaturalLength(5); got != 4*16+64 {
		t.Fatalf("NaturalLength(5) = %d", got)
	}
}
