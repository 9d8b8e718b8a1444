package ilrma

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/spectrum"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-bss/internal/clinalg"
)

// weightedCovariance writes the per-bin weighted sample covariance
//
//	U[f] = mean_t x[f,t] x[f,t]^H / weights[f,t]
//
// into dst (bins consecutive channels-by-channels blocks). weights must be
// strictly positive; the callers floor it first.
func (s *Separator) weightedCovariance(dst []complex128, weights *mat.Dense) {
	channels := s.channels
	clear(dst)

	for f := range s.bins {
		block := dst[f*channels*channels : (f+1)*channels*channels]
		for t := range s.frames {
			w := complex(1/weights.At(f, t), 0)
			for c1 := range channels {
				x1 := s.mixture.At(c1, f, t) * w
				for c2 := range channels {
					x2 := s.mixture.At(c2, f, t)
					block[c1*channels+c2] += x1 * complex(real(x2), -imag(x2))
				}
			}
		}
		invFrames := complex(1/float64(s.frames), 0)
		for i := range block {
			block[i] *= invFrames
		}
	}
}

// updateSpatialGauss performs the iterative-projection filter update under
// the Gaussian model.
//
// Sources are visited in strict sequence: source s reads the filter rows
// already rewritten by sources 0..s-1 at the same bin within this iteration.
// Parallelizing across the source index would break that dependency; only
// the per-bin work inside a fixed source is independent.
func (s *Separator) updateSpatialGauss() {
	channels := s.channels
	var r mat.Dense
	m := make([]complex128, channels*channels)
	w := make([]complex128, channels)
	rhs := make([]complex128, channels)

	for src := range s.sources {
		s.nmf.psdInto(&r, src)
		floorInPlace(&r, s.cfg.Epsilon)
		s.weightedCovariance(s.ucov, &r)

		for i := range rhs {
			rhs[i] = 0
		}
		rhs[src] = 1

		for f := range s.bins {
			u := s.ucov[f*channels*channels : (f+1)*channels*channels]
			clinalg.Mul(m, s.filter.Block(f), u, channels)

			// A near-singular system would inject numerical garbage into the
			// filter and corrupt the log-determinant term of the loss; keep
			// the previous row instead.
			if clinalg.Cond(m, channels) >= s.cfg.CondThreshold {
				s.skipped++
				continue
			}
			if err := clinalg.Solve(w, m, rhs, channels); err != nil {
				s.skipped++
				continue
			}

			denom := math.Sqrt(real(quadraticForm(w, u, channels)))
			for c := range channels {
				v := w[c]
				s.filter.Set(f, src, c, complex(real(v), -imag(v))/complex(denom, 0))
			}
		}
	}
}

// updateSpatialT performs the iterative-projection update under the
// Student's-t model. The covariance weight blends the modeled power with the
// observed one according to the degrees of freedom, the filter row comes
// from a direct matrix inverse, and no condition-number guard is applied;
// an exactly singular system is a hard failure.
func (s *Separator) updateSpatialT() error {
	channels := s.channels
	nu := s.cfg.Nu
	var r mat.Dense
	m := make([]complex128, channels*channels)
	minv := make([]complex128, channels*channels)
	w := make([]complex128, channels)

	for src := range s.sources {
		s.nmf.psdInto(&r, src)
		floorInPlace(&r, s.cfg.Epsilon)

		// Xi = (nu*R + 2*P) / (nu + 2)
		p := spectrum.Power(s.estimate.Block(src))
		xi := mat.NewDense(s.bins, s.frames, p)
		xi.Apply(func(i, j int, v float64) float64 {
			return (nu*r.At(i, j) + 2*v) / (nu + 2)
		}, xi)

		s.weightedCovariance(s.ucov, xi)

		for f := range s.bins {
			u := s.ucov[f*channels*channels : (f+1)*channels*channels]
			clinalg.Mul(m, s.filter.Block(f), u, channels)

			if err := clinalg.Inverse(minv, m, channels); err != nil {
				return fmt.Errorf("ilrma: t spatial update at bin %d: %w", f, err)
			}
			for c := range channels {
				w[c] = minv[c*channels+src]
			}

			denom := math.Sqrt(real(quadraticForm(w, u, channels)))
			if denom < s.cfg.Epsilon {
				denom = s.cfg.Epsilon
			}
			for c := range channels {
				v := w[c]
				s.filter.Set(f, src, c, complex(real(v), -imag(v))/complex(denom, 0))
			}
		}
	}

	return nil
}

// quadraticForm returns w^H U w for an n-vector and a flat n-by-n matrix.
func quadraticForm(w, u []complex128, n int) complex128 {
	var sum complex128
	for i := range n {
		wi := complex(real(w[i]), -imag(w[i]))
		for j := range n {
			sum += wi * u[i*n+j] * w[j]
		}
	}
	return sum
}
