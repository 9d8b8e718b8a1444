package ilrma

import (
	"math"
	"math/rand/v2"

	"github.com/cwbudde/algo-dsp/dsp/spectrum"
	"gonum.org/v1/gonum/mat"
)

// sourceModel holds the low-rank nonnegative power-spectral model.
//
// The unconstrained shape keeps an independent (bins x bases) base and
// (bases x frames) activation per source. The partitioned shape shares one
// base/activation pair and mixes it with per-source latent weights whose
// columns sum to one across sources.
type sourceModel struct {
	bases       int
	partitioned bool
	eps         float64

	base []*mat.Dense
	act  []*mat.Dense

	latent     *mat.Dense
	sharedBase *mat.Dense
	sharedAct  *mat.Dense
}

func newSourceModel(cfg *Config, sources, bins, frames int, rng *rand.Rand) *sourceModel {
	m := &sourceModel{
		bases:       cfg.Bases,
		partitioned: cfg.Partitioning,
		eps:         cfg.Epsilon,
	}

	if m.partitioned {
		m.latent = mat.NewDense(sources, cfg.Bases, nil)
		for s := range sources {
			for k := range cfg.Bases {
				m.latent.Set(s, k, 1/float64(sources))
			}
		}
		m.sharedBase = randDense(bins, cfg.Bases, rng)
		m.sharedAct = randDense(cfg.Bases, frames, rng)
		return m
	}

	m.base = make([]*mat.Dense, sources)
	m.act = make([]*mat.Dense, sources)
	for s := range sources {
		m.base[s] = randDense(bins, cfg.Bases, rng)
		m.act[s] = randDense(cfg.Bases, frames, rng)
	}
	return m
}

// psdInto writes the modeled (bins x frames) power spectral density of
// source s into dst without flooring.
func (m *sourceModel) psdInto(dst *mat.Dense, s int) {
	if !m.partitioned {
		dst.Mul(m.base[s], m.act[s])
		return
	}

	weights := mat.Row(nil, s, m.latent)
	var zt mat.Dense
	scaleColumns(&zt, m.sharedBase, weights)
	dst.Mul(&zt, m.sharedAct)
}

// updateUnconstrainedGauss applies one multiplicative base/activation update
// for source s against the observed power spectrogram p.
func (m *sourceModel) updateUnconstrainedGauss(s int, p *mat.Dense) {
	base, act := m.base[s], m.act[s]
	var r, div, rinv, num, den mat.Dense

	// Base update.
	r.Mul(base, act)
	floorInPlace(&r, m.eps)
	elemDivSquare(&div, p, &r)
	elemReciprocal(&rinv, &r)
	num.Mul(&div, act.T())
	den.Mul(&rinv, act.T())
	floorInPlace(&den, m.eps)
	mulRootRatio(base, &num, &den)

	// Activation update against the refreshed model.
	r.Mul(base, act)
	floorInPlace(&r, m.eps)
	elemDivSquare(&div, p, &r)
	elemReciprocal(&rinv, &r)
	num.Reset()
	den.Reset()
	num.Mul(base.T(), &div)
	den.Mul(base.T(), &rinv)
	floorInPlace(&den, m.eps)
	mulRootRatio(act, &num, &den)
}

// updatePartitionedGauss applies one latent/base/activation update round
// against the per-source power spectrograms p. Each step rebuilds the model
// from the factors refreshed by the previous step.
func (m *sourceModel) updatePartitionedGauss(p []*mat.Dense) {
	sources := len(p)
	bins, _ := m.sharedBase.Dims()
	_, frames := m.sharedAct.Dims()

	var r, div, rinv, a, b, zt, contrib mat.Dense

	// Latent update: ratio of base/activation-weighted sums over bins and
	// frames, then renormalize columns across sources.
	numZ := mat.NewDense(sources, m.bases, nil)
	denZ := mat.NewDense(sources, m.bases, nil)
	for s := range sources {
		m.psdInto(&r, s)
		floorInPlace(&r, m.eps)
		elemDivSquare(&div, p[s], &r)
		elemReciprocal(&rinv, &r)
		a.Mul(&div, m.sharedAct.T())
		b.Mul(&rinv, m.sharedAct.T())
		for k := range m.bases {
			var ns, ds float64
			for f := range bins {
				tv := m.sharedBase.At(f, k)
				ns += tv * a.At(f, k)
				ds += tv * b.At(f, k)
			}
			numZ.Set(s, k, ns)
			denZ.Set(s, k, ds)
		}
	}
	floorInPlace(denZ, m.eps)
	m.latent.Apply(func(i, j int, _ float64) float64 {
		return math.Sqrt(numZ.At(i, j) / denZ.At(i, j))
	}, m.latent)
	m.normalizeLatentColumns()

	// Shared base update, summing contributions over sources.
	numT := mat.NewDense(bins, m.bases, nil)
	denT := mat.NewDense(bins, m.bases, nil)
	for s := range sources {
		m.psdInto(&r, s)
		floorInPlace(&r, m.eps)
		elemDivSquare(&div, p[s], &r)
		elemReciprocal(&rinv, &r)
		a.Mul(&div, m.sharedAct.T())
		b.Mul(&rinv, m.sharedAct.T())
		for f := range bins {
			for k := range m.bases {
				z := m.latent.At(s, k)
				numT.Set(f, k, numT.At(f, k)+z*a.At(f, k))
				denT.Set(f, k, denT.At(f, k)+z*b.At(f, k))
			}
		}
	}
	floorInPlace(denT, m.eps)
	mulRootRatio(m.sharedBase, numT, denT)

	// Shared activation update, summing contributions over sources.
	numV := mat.NewDense(m.bases, frames, nil)
	denV := mat.NewDense(m.bases, frames, nil)
	for s := range sources {
		m.psdInto(&r, s)
		floorInPlace(&r, m.eps)
		elemDivSquare(&div, p[s], &r)
		elemReciprocal(&rinv, &r)
		weights := mat.Row(nil, s, m.latent)
		scaleColumns(&zt, m.sharedBase, weights)
		contrib.Mul(zt.T(), &div)
		numV.Add(numV, &contrib)
		contrib.Mul(zt.T(), &rinv)
		denV.Add(denV, &contrib)
	}
	floorInPlace(denV, m.eps)
	mulRootRatio(m.sharedAct, numV, denV)
}

// normalizeLatentColumns rescales every basis column to sum to one across
// sources. The column sum is floored to keep an all-zero column finite; the
// degenerate case only arises for an identically zero mixture.
func (m *sourceModel) normalizeLatentColumns() {
	sources, bases := m.latent.Dims()
	for k := range bases {
		sum := 0.0
		for s := range sources {
			sum += m.latent.At(s, k)
		}
		if sum < m.eps {
			sum = m.eps
		}
		inv := 1 / sum
		for s := range sources {
			m.latent.Set(s, k, m.latent.At(s, k)*inv)
		}
	}
}

// updateSourceModelGauss runs the Gaussian multiplicative update round
// against the power spectrogram of the current estimate.
func (s *Separator) updateSourceModelGauss() {
	p := s.powerMatrices()
	if s.cfg.Partitioning {
		s.nmf.updatePartitionedGauss(p)
		return
	}
	for src := range s.sources {
		s.nmf.updateUnconstrainedGauss(src, p[src])
	}
}

// powerMatrices returns |estimate|^2 per source as (bins x frames) matrices.
func (s *Separator) powerMatrices() []*mat.Dense {
	out := make([]*mat.Dense, s.sources)
	for src := range s.sources {
		out[src] = mat.NewDense(s.bins, s.frames, spectrum.Power(s.estimate.Block(src)))
	}
	return out
}

func randDense(rows, cols int, rng *rand.Rand) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.Float64()
	}
	return mat.NewDense(rows, cols, data)
}

// floorInPlace clamps every entry of m to at least eps.
func floorInPlace(m *mat.Dense, eps float64) {
	m.Apply(func(_, _ int, v float64) float64 {
		if v < eps {
			return eps
		}
		return v
	}, m)
}

// elemDivSquare computes dst = p / (r*r) elementwise.
func elemDivSquare(dst, p, r *mat.Dense) {
	var sq mat.Dense
	sq.MulElem(r, r)
	dst.DivElem(p, &sq)
}

// elemReciprocal computes dst = 1/r elementwise.
func elemReciprocal(dst, r *mat.Dense) {
	dst.Apply(func(_, _ int, v float64) float64 { return 1 / v }, r)
}

// mulRootRatio computes dst *= sqrt(num/den) elementwise.
func mulRootRatio(dst, num, den *mat.Dense) {
	var ratio mat.Dense
	ratio.DivElem(num, den)
	ratio.Apply(func(_, _ int, v float64) float64 { return math.Sqrt(v) }, &ratio)
	dst.MulElem(dst, &ratio)
}

// scaleColumns computes dst[i,k] = src[i,k] * w[k].
func scaleColumns(dst, src *mat.Dense, w []float64) {
	dst.Apply(func(_, k int, v float64) float64 { return v * w[k] }, src)
}
