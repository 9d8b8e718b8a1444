package stft

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/window"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-bss/dsp/tensor"
)

const (
	minBlockSize = 8
	normFloor    = 1e-12
)

// Transform computes forward and inverse STFTs with a shared FFT plan.
//
// A Transform is not safe for concurrent use; it reuses internal frame
// scratch buffers between calls.
type Transform struct {
	blockSize int
	hopSize   int

	plan *algofft.Plan[complex128]

	windowCoeffs []float64
	frameReal    []float64
	frameFreq    []complex128
	frameTime    []complex128
}

// New creates a transform. blockSize must be a power of two and at least 8;
// hopSize must be in [1, blockSize].
func New(blockSize, hopSize int) (*Transform, error) {
	if blockSize < minBlockSize || !isPowerOf2(blockSize) {
		return nil, fmt.Errorf("stft: block size must be power-of-two and >= %d: %d", minBlockSize, blockSize)
	}
	if hopSize <= 0 || hopSize > blockSize {
		return nil, fmt.Errorf("stft: hop size must be in [1, %d]: %d", blockSize, hopSize)
	}

	plan, err := algofft.NewPlan64(blockSize)
	if err != nil {
		return nil, fmt.Errorf("stft: failed to create FFT plan: %w", err)
	}

	return &Transform{
		blockSize:    blockSize,
		hopSize:      hopSize,
		plan:         plan,
		windowCoeffs: window.Generate(window.TypeHann, blockSize, window.WithPeriodic()),
		frameReal:    make([]float64, blockSize),
		frameFreq:    make([]complex128, blockSize),
		frameTime:    make([]complex128, blockSize),
	}, nil
}

// BlockSize returns the analysis block size.
func (t *Transform) BlockSize() int { return t.blockSize }

// HopSize returns the analysis hop size.
func (t *Transform) HopSize() int { return t.hopSize }

// Bins returns the number of non-negative-frequency bins per frame.
func (t *Transform) Bins() int { return t.blockSize/2 + 1 }

// Frames returns the number of full analysis frames for a signal of the
// given length, or 0 if the signal is shorter than one block.
func (t *Transform) Frames(length int) int {
	if length < t.blockSize {
		return 0
	}
	return (length-t.blockSize)/t.hopSize + 1
}

// NaturalLength returns the signal length spanned by the given frame count.
func (t *Transform) NaturalLength(frames int) int {
	if frames <= 0 {
		return 0
	}
	return (frames-1)*t.hopSize + t.blockSize
}

// Forward computes the STFT of a multichannel signal. All channels must have
// equal length of at least one block. Samples beyond the last full frame are
// dropped.
func (t *Transform) Forward(signal [][]float64) (*tensor.Complex3, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("stft: forward requires at least one channel")
	}

	length := len(signal[0])
	for c := range signal {
		if len(signal[c]) != length {
			return nil, fmt.Errorf("stft: channel length mismatch: channel %d has %d, want %d", c, len(signal[c]), length)
		}
	}

	frames := t.Frames(length)
	if frames == 0 {
		return nil, fmt.Errorf("stft: signal length %d shorter than block size %d", length, t.blockSize)
	}

	bins := t.Bins()
	spec := tensor.NewComplex3(len(signal), bins, frames)

	for c := range signal {
		for m := range frames {
			pos := m * t.hopSize
			vecmath.MulBlock(t.frameReal, signal[c][pos:pos+t.blockSize], t.windowCoeffs)
			for i, v := range t.frameReal {
				t.frameFreq[i] = complex(v, 0)
			}

			if err := t.plan.Forward(t.frameFreq, t.frameFreq); err != nil {
				return nil, fmt.Errorf("stft: forward FFT failed: %w", err)
			}

			for k := range bins {
				spec.Set(c, k, m, t.frameFreq[k])
			}
		}
	}

	return spec, nil
}

// Inverse reconstructs a multichannel signal from a (channel, bin, frame)
// spectrogram by windowed overlap-add. The spectrogram must carry
// blockSize/2+1 bins. If length > 0 the output is trimmed or zero-padded to
// length samples, otherwise the natural length is returned.
func (t *Transform) Inverse(spec *tensor.Complex3, length int) ([][]float64, error) {
	if spec == nil || spec.Dim0 == 0 || spec.Dim2 == 0 {
		return nil, fmt.Errorf("stft: inverse requires a non-empty spectrogram")
	}

	bins := t.Bins()
	if spec.Dim1 != bins {
		return nil, fmt.Errorf("stft: spectrogram has %d bins, want %d for block size %d", spec.Dim1, bins, t.blockSize)
	}

	frames := spec.Dim2
	natural := t.NaturalLength(frames)
	half := t.blockSize / 2

	out := make([][]float64, spec.Dim0)
	acc := make([]float64, natural)
	norm := make([]float64, natural)

	for c := range out {
		clear(acc)
		clear(norm)

		for m := range frames {
			for k := range bins {
				t.frameFreq[k] = spec.At(c, k, m)
			}
			// Restore conjugate symmetry for the real-valued frame.
			t.frameFreq[0] = complex(real(t.frameFreq[0]), 0)
			t.frameFreq[half] = complex(real(t.frameFreq[half]), 0)
			for k := 1; k < half; k++ {
				v := t.frameFreq[k]
				t.frameFreq[t.blockSize-k] = complex(real(v), -imag(v))
			}

			if err := t.plan.Inverse(t.frameTime, t.frameFreq); err != nil {
				return nil, fmt.Errorf("stft: inverse FFT failed: %w", err)
			}

			pos := m * t.hopSize
			for i := range t.blockSize {
				w := t.windowCoeffs[i]
				acc[pos+i] += real(t.frameTime[i]) * w
				norm[pos+i] += w * w
			}
		}

		target := natural
		if length > 0 {
			target = length
		}

		channel := make([]float64, target)
		for i := 0; i < target && i < natural; i++ {
			if norm[i] > normFloor {
				channel[i] = acc[i] / norm[i]
			}
		}
		out[c] = channel
	}

	return out, nil
}

func isPowerOf2(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
