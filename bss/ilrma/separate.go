package ilrma

import (
	"fmt"

	"github.com/cwbudde/algo-bss/dsp/tensor"
)

// IdentityFilter returns a demixing filter (bin, source, channel) holding an
// identity matrix at every bin, the canonical initialization of the
// determined separation problem.
func IdentityFilter(bins, channels int) *tensor.Complex3 {
	w := tensor.NewComplex3(bins, channels, channels)
	for f := range bins {
		for c := range channels {
			w.Set(f, c, c, 1)
		}
	}
	return w
}

// Separate applies a per-bin demixing filter to a mixture.
//
// mixture has axes (channel, bin, frame) and filter (bin, source, channel)
// with sources == channels; the result has axes (source, bin, frame) where
// each frame vector at bin f is filter[f] applied to the mixture frame
// vector at that bin. The inputs are not modified.
func Separate(mixture, filter *tensor.Complex3) (*tensor.Complex3, error) {
	if mixture == nil || filter == nil {
		return nil, fmt.Errorf("ilrma: separate requires non-nil mixture and filter")
	}
	if filter.Dim0 != mixture.Dim1 {
		return nil, fmt.Errorf("ilrma: filter has %d bins, mixture has %d", filter.Dim0, mixture.Dim1)
	}
	if filter.Dim2 != mixture.Dim0 {
		return nil, fmt.Errorf("ilrma: filter expects %d channels, mixture has %d", filter.Dim2, mixture.Dim0)
	}
	if filter.Dim1 != filter.Dim2 {
		return nil, fmt.Errorf("ilrma: demixing filter must be square per bin: (%d, %d)", filter.Dim1, filter.Dim2)
	}

	out := tensor.NewComplex3(filter.Dim1, mixture.Dim1, mixture.Dim2)
	separateInto(out, mixture, filter)
	return out, nil
}

// separateInto writes filter applied to mixture into dst (shape-checked by
// the callers).
func separateInto(dst, mixture, filter *tensor.Complex3) {
	sources := filter.Dim1
	channels := mixture.Dim0
	bins := mixture.Dim1

	for s := range sources {
		for f := range bins {
			y := dst.Vec(s, f)
			clear(y)
			for c := range channels {
				w := filter.At(f, s, c)
				if w == 0 {
					continue
				}
				x := mixture.Vec(c, f)
				for t := range y {
					y[t] += w * x[t]
				}
			}
		}
	}
}
