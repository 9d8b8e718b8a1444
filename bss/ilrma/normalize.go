package ilrma

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/spectrum"
	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-bss/bss/projback"
	"github.com/cwbudde/algo-bss/internal/clinalg"
)

// normalizePower rescales every source to unit RMS power, folding the
// correction into the demixing filter and the spectral model so the loss is
// unchanged. For the partitioned model the squared correction is distributed
// through the latent weights, whose columns are renormalized to sum to one
// with the shared base absorbing the remainder.
func (s *Separator) normalizePower() {
	aux := make([]float64, s.sources)
	for src := range s.sources {
		p := spectrum.Power(s.estimate.Block(src))
		a := math.Sqrt(floats.Sum(p) / float64(len(p)))
		if a < s.cfg.Epsilon {
			a = s.cfg.Epsilon
		}
		aux[src] = a

		inv := complex(1/a, 0)
		for f := range s.bins {
			row := s.filter.Vec(f, src)
			for c := range row {
				row[c] *= inv
			}
		}
		est := s.estimate.Block(src)
		for i := range est {
			est[i] *= inv
		}
	}

	if !s.cfg.Partitioning {
		for src := range s.sources {
			raw := s.nmf.base[src].RawMatrix()
			vecmath.ScaleBlockInPlace(raw.Data, 1/(aux[src]*aux[src]))
		}
		return
	}

	// Latent correction: divide each source row by aux^2, push the column
	// sums into the shared base, and renormalize the columns to one.
	latent := s.nmf.latent
	sources, bases := latent.Dims()
	colSum := make([]float64, bases)
	for src := range sources {
		inv := 1 / (aux[src] * aux[src])
		for k := range bases {
			v := latent.At(src, k) * inv
			latent.Set(src, k, v)
			colSum[k] += v
		}
	}
	for k := range bases {
		if colSum[k] < s.cfg.Epsilon {
			colSum[k] = s.cfg.Epsilon
		}
	}
	scaleColumns(s.nmf.sharedBase, s.nmf.sharedBase, colSum)
	for src := range sources {
		for k := range bases {
			latent.Set(src, k, latent.At(src, k)/colSum[k])
		}
	}
}

// normalizeProjectionBack rescales each source by its least-squares
// projection onto the reference channel and refits the demixing filter as
// the closed-form linear map consistent with the rescaled estimate:
//
//	W[f] = Y[f] X[f]^H (X[f] X[f]^H)^{-1}
func (s *Separator) normalizeProjectionBack() error {
	scale, err := projback.Resolve(s.estimate, s.mixture, s.cfg.ReferenceChannel)
	if err != nil {
		return err
	}
	if err := projback.Apply(s.estimate, scale); err != nil {
		return err
	}

	channels := s.channels
	yxh := make([]complex128, s.sources*channels)
	xxh := make([]complex128, channels*channels)
	inv := make([]complex128, channels*channels)

	for f := range s.bins {
		for c1 := range channels {
			x1 := s.mixture.Vec(c1, f)
			for c2 := range channels {
				x2 := s.mixture.Vec(c2, f)
				var sum complex128
				for t := range x1 {
					sum += x1[t] * complex(real(x2[t]), -imag(x2[t]))
				}
				xxh[c1*channels+c2] = sum
			}
		}
		for src := range s.sources {
			y := s.estimate.Vec(src, f)
			for c := range channels {
				x := s.mixture.Vec(c, f)
				var sum complex128
				for t := range y {
					sum += y[t] * complex(real(x[t]), -imag(x[t]))
				}
				yxh[src*channels+c] = sum
			}
		}

		if err := clinalg.Inverse(inv, xxh, channels); err != nil {
			return fmt.Errorf("ilrma: projection-back refit at bin %d: %w", f, err)
		}
		clinalg.MulRect(s.filter.Block(f), yxh, inv, s.sources, channels, channels)
	}

	return nil
}
