package ilrma

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-dsp/dsp/spectrum"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-bss/internal/clinalg"
)

// gaussLoss returns the Gaussian negative log-likelihood
//
//	sum_{s,f,t}( P/R + log R ) - 2*T*sum_f log|det W[f]|
//
// of the current estimate, model, and filter.
func (s *Separator) gaussLoss() float64 {
	var r mat.Dense
	sum := 0.0
	for src := range s.sources {
		s.nmf.psdInto(&r, src)
		floorInPlace(&r, s.cfg.Epsilon)
		p := spectrum.Power(s.estimate.Block(src))
		raw := r.RawMatrix()
		for i, v := range raw.Data {
			sum += p[i]/v + math.Log(v)
		}
	}
	return sum - 2*float64(s.frames)*s.logDetFilter()
}

// tLoss returns the Student's-t negative log-likelihood
//
//	sum_{s,f,t}( (1+nu/2)*log(1 + (2/nu)*(P/R)) + log R ) - 2*T*sum_f log|det W[f]|
func (s *Separator) tLoss() float64 {
	nu := s.cfg.Nu
	var r mat.Dense
	sum := 0.0
	for src := range s.sources {
		s.nmf.psdInto(&r, src)
		floorInPlace(&r, s.cfg.Epsilon)
		p := spectrum.Power(s.estimate.Block(src))
		raw := r.RawMatrix()
		for i, v := range raw.Data {
			sum += (1+nu/2)*math.Log1p((2/nu)*(p[i]/v)) + math.Log(v)
		}
	}
	return sum - 2*float64(s.frames)*s.logDetFilter()
}

// logDetFilter returns sum_f log|det W[f]|. A singular bin contributes -Inf,
// which surfaces immediately in the loss trajectory instead of being masked.
func (s *Separator) logDetFilter() float64 {
	sum := 0.0
	for f := range s.bins {
		sum += math.Log(cmplx.Abs(clinalg.Det(s.filter.Block(f), s.channels)))
	}
	return sum
}
