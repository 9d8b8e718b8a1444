// Package projback resolves the per-source scale ambiguity of blind source
// separation by least-squares projection onto a reference mixture channel.
//
// A demixing filter recovers each source only up to an arbitrary complex
// per-bin gain. Projection back picks the gain that best explains the
// reference microphone observation, restoring the scale (and per-bin phase)
// each source had at that microphone.
package projback

import (
	"fmt"

	"github.com/cwbudde/algo-bss/dsp/tensor"
)

const denomFloor = 1e-12

// Resolve computes the least-squares complex scale per (source, bin) that
// fits each separated source onto the chosen mixture channel:
//
//	scale[s, f] = sum_t conj(Y[s, f, t]) * X[ref, f, t] / sum_t |Y[s, f, t]|^2
//
// estimate has axes (source, bin, frame) and mixture (channel, bin, frame);
// both must agree on bins and frames. The returned slice is row-major
// (source, bin). Vanishing denominators are floored, yielding a finite scale
// for all-zero sources.
func Resolve(estimate, mixture *tensor.Complex3, referenceChannel int) ([]complex128, error) {
	if estimate == nil || mixture == nil {
		return nil, fmt.Errorf("projback: estimate and mixture must be non-nil")
	}
	if estimate.Dim1 != mixture.Dim1 || estimate.Dim2 != mixture.Dim2 {
		return nil, fmt.Errorf("projback: estimate (%d, %d, %d) and mixture (%d, %d, %d) disagree on bins/frames",
			estimate.Dim0, estimate.Dim1, estimate.Dim2, mixture.Dim0, mixture.Dim1, mixture.Dim2)
	}
	if referenceChannel < 0 || referenceChannel >= mixture.Dim0 {
		return nil, fmt.Errorf("projback: reference channel %d out of range [0, %d)", referenceChannel, mixture.Dim0)
	}

	sources, bins := estimate.Dim0, estimate.Dim1
	scale := make([]complex128, sources*bins)

	for s := range sources {
		for f := range bins {
			y := estimate.Vec(s, f)
			x := mixture.Vec(referenceChannel, f)

			var num complex128
			var den float64
			for tIdx := range y {
				v := y[tIdx]
				num += complex(real(v), -imag(v)) * x[tIdx]
				den += real(v)*real(v) + imag(v)*imag(v)
			}
			if den < denomFloor {
				den = denomFloor
			}
			scale[s*bins+f] = num / complex(den, 0)
		}
	}

	return scale, nil
}

// Apply multiplies every frame of estimate by its (source, bin) scale in
// place. scale must be row-major (source, bin) as returned by [Resolve].
func Apply(estimate *tensor.Complex3, scale []complex128) error {
	if estimate == nil {
		return fmt.Errorf("projback: estimate must be non-nil")
	}
	if len(scale) != estimate.Dim0*estimate.Dim1 {
		return fmt.Errorf("projback: scale length %d does not match %d sources x %d bins",
			len(scale), estimate.Dim0, estimate.Dim1)
	}

	for s := range estimate.Dim0 {
		for f := range estimate.Dim1 {
			g := scale[s*estimate.Dim1+f]
			y := estimate.Vec(s, f)
			for tIdx := range y {
				y[tIdx] *= g
			}
		}
	}

	return nil
}
