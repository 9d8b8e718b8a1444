package ilrma

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/cwbudde/algo-bss/bss/projback"
	"github.com/cwbudde/algo-bss/dsp/stft"
	"github.com/cwbudde/algo-bss/dsp/tensor"
)

// Errors returned by the separator constructors and [Separator.Run].
var (
	// ErrNotImplemented marks a recognized but unimplemented variant.
	ErrNotImplemented = errors.New("ilrma: variant not implemented")
	// ErrUnsupportedNormalization marks a normalization mode the chosen
	// configuration cannot support.
	ErrUnsupportedNormalization = errors.New("ilrma: unsupported normalization for this configuration")
)

// model is the per-variant dispatch: one full update round and the matching
// likelihood evaluation.
type model interface {
	updateOnce(s *Separator) error
	negLogLikelihood(s *Separator) float64
}

type runState int

const (
	stateUninitialized runState = iota
	stateInitialized
	stateIterating
	stateDone
)

// Separator drives one ILRMA variant over a fixed iteration budget.
//
// All state is owned by the separator for the duration of a run; the
// per-iteration callback and the getters expose it read-only. A Separator is
// not safe for concurrent use, but repeated Run calls reset it completely.
type Separator struct {
	cfg   Config
	model model

	transform *stft.Transform

	mixture  *tensor.Complex3
	filter   *tensor.Complex3
	estimate *tensor.Complex3
	nmf      *sourceModel
	rng      *rand.Rand
	ucov     []complex128

	sources, channels, bins, frames int

	iteration int
	loss      []float64
	skipped   int
	state     runState
}

// NewGauss creates a separator with the time-variant Gaussian source model.
func NewGauss(opts ...Option) (*Separator, error) {
	cfg := applyOptions(opts)
	if err := cfg.validateCommon(); err != nil {
		return nil, err
	}
	if cfg.CondThreshold <= 0 {
		return nil, fmt.Errorf("ilrma: condition threshold must be > 0: %g", cfg.CondThreshold)
	}
	switch cfg.Normalization {
	case NormalizePower:
	case NormalizeProjectionBack:
		if cfg.Partitioning {
			return nil, fmt.Errorf("%w: projection-back normalization cannot rescale the partitioned model, use power normalization", ErrUnsupportedNormalization)
		}
	default:
		return nil, fmt.Errorf("ilrma: unknown normalization: %v", cfg.Normalization)
	}

	return &Separator{cfg: cfg, model: gaussModel{}}, nil
}

// NewT creates a separator with the complex Student's-t source model. The
// spectral model stays at its random initialization (see the package
// documentation); only power normalization is supported.
func NewT(opts ...Option) (*Separator, error) {
	cfg := applyOptions(opts)
	if err := cfg.validateCommon(); err != nil {
		return nil, err
	}
	if cfg.Nu <= 0 {
		return nil, fmt.Errorf("ilrma: degrees of freedom must be > 0: %g", cfg.Nu)
	}
	if cfg.Normalization != NormalizePower {
		return nil, fmt.Errorf("%w: the t variant supports only power normalization", ErrUnsupportedNormalization)
	}

	return &Separator{cfg: cfg, model: tModel{}}, nil
}

// NewConsistentGauss creates a Gaussian separator that restores transform
// consistency before every iteration. WithTransform must supply the STFT
// block size that produced the mixture; a zero hop defaults to half the
// block. The variant performs its own projection-back scale correction, so
// the general normalization modes do not apply, and the partitioned model is
// not supported.
func NewConsistentGauss(opts ...Option) (*Separator, error) {
	cfg := applyOptions(opts)
	if err := cfg.validateCommon(); err != nil {
		return nil, err
	}
	if cfg.CondThreshold <= 0 {
		return nil, fmt.Errorf("ilrma: condition threshold must be > 0: %g", cfg.CondThreshold)
	}
	if cfg.BlockSize == 0 {
		return nil, fmt.Errorf("ilrma: consistent variant requires a transform block size, see WithTransform")
	}
	if cfg.Partitioning {
		return nil, fmt.Errorf("%w: the consistent variant's projection-back rescale cannot rescale the partitioned model", ErrUnsupportedNormalization)
	}
	if cfg.HopSize == 0 {
		cfg.HopSize = cfg.BlockSize / 2
	}

	transform, err := stft.New(cfg.BlockSize, cfg.HopSize)
	if err != nil {
		return nil, err
	}

	cfg.Normalization = normalizeNone
	return &Separator{cfg: cfg, model: consistentModel{}, transform: transform}, nil
}

// NewKL would create a separator minimizing the generalized Kullback-Leibler
// divergence. The update rules are not implemented; construction fails fast.
func NewKL(...Option) (*Separator, error) {
	return nil, fmt.Errorf("%w: KL-divergence source model", ErrNotImplemented)
}

// NewRegularized would create a separator with sparsity regularization on
// the time-series activity. The update rules are not implemented;
// construction fails fast.
func NewRegularized(...Option) (*Separator, error) {
	return nil, fmt.Errorf("%w: sparsity-regularized source model", ErrNotImplemented)
}

// Config returns the construction-time configuration.
func (s *Separator) Config() Config { return s.cfg }

// Loss returns a copy of the loss trajectory of the most recent run: one
// baseline entry before any update and one entry per completed iteration.
func (s *Separator) Loss() []float64 {
	out := make([]float64, len(s.loss))
	copy(out, s.loss)
	return out
}

// Iteration returns the number of completed iterations of the current or
// most recent run.
func (s *Separator) Iteration() int { return s.iteration }

// SkippedUpdates returns how many per-bin filter row updates were skipped by
// the condition-number guard during the current or most recent run.
func (s *Separator) SkippedUpdates() int { return s.skipped }

// Estimate returns the current source estimate with axes (source, bin,
// frame). The returned tensor is the separator's working state and must be
// treated as read-only.
func (s *Separator) Estimate() *tensor.Complex3 { return s.estimate }

// Filter returns the current demixing filter with axes (bin, source,
// channel). The returned tensor is the separator's working state and must be
// treated as read-only.
func (s *Separator) Filter() *tensor.Complex3 { return s.filter }

// Run separates the mixture (channel, bin, frame) with the configured number
// of iterations and returns the estimate (source, bin, frame) with
// sources == channels. The mixture is not modified. The estimate is rescaled
// by projection back against the reference channel before being returned,
// regardless of the per-iteration normalization mode.
func (s *Separator) Run(mixture *tensor.Complex3, iterations int) (*tensor.Complex3, error) {
	if s.state == stateIterating {
		return nil, fmt.Errorf("ilrma: run already in progress")
	}
	if mixture == nil || mixture.Dim0 == 0 || mixture.Dim1 == 0 || mixture.Dim2 == 0 {
		return nil, fmt.Errorf("ilrma: mixture must be a non-empty (channel, bin, frame) tensor")
	}
	if iterations < 0 {
		return nil, fmt.Errorf("ilrma: iteration count must be >= 0: %d", iterations)
	}
	if s.cfg.ReferenceChannel >= mixture.Dim0 {
		return nil, fmt.Errorf("ilrma: reference channel %d out of range for %d channels", s.cfg.ReferenceChannel, mixture.Dim0)
	}
	if s.transform != nil && mixture.Dim1 != s.transform.Bins() {
		return nil, fmt.Errorf("ilrma: mixture has %d bins, transform block size %d implies %d",
			mixture.Dim1, s.cfg.BlockSize, s.transform.Bins())
	}

	s.initialize(mixture)

	s.loss = append(s.loss, s.model.negLogLikelihood(s))
	s.state = stateIterating

	for range iterations {
		if err := s.model.updateOnce(s); err != nil {
			s.state = stateUninitialized
			return nil, err
		}
		s.iteration++
		s.loss = append(s.loss, s.model.negLogLikelihood(s))
		if s.cfg.Callback != nil {
			s.cfg.Callback(s)
		}
	}

	// Resolve the remaining scale ambiguity against the reference channel.
	separateInto(s.estimate, s.mixture, s.filter)
	scale, err := projback.Resolve(s.estimate, s.mixture, s.cfg.ReferenceChannel)
	if err != nil {
		return nil, err
	}
	if err := projback.Apply(s.estimate, scale); err != nil {
		return nil, err
	}
	s.state = stateDone

	return s.estimate.Clone(), nil
}

// initialize resets all run state: identity-like filter, seeded random
// spectral model, and the initial estimate.
func (s *Separator) initialize(mixture *tensor.Complex3) {
	s.mixture = mixture
	s.channels = mixture.Dim0
	s.sources = mixture.Dim0
	s.bins = mixture.Dim1
	s.frames = mixture.Dim2

	s.filter = IdentityFilter(s.bins, s.channels)
	s.estimate = tensor.NewComplex3(s.sources, s.bins, s.frames)
	separateInto(s.estimate, s.mixture, s.filter)

	s.rng = rand.New(rand.NewPCG(s.cfg.Seed, s.cfg.Seed))
	s.nmf = newSourceModel(&s.cfg, s.sources, s.bins, s.frames, s.rng)
	s.ucov = make([]complex128, s.bins*s.channels*s.channels)

	s.iteration = 0
	s.skipped = 0
	s.loss = s.loss[:0]
	s.state = stateInitialized
}

// recomputeEstimate refreshes the estimate from the mixture and the current
// filter.
func (s *Separator) recomputeEstimate() {
	separateInto(s.estimate, s.mixture, s.filter)
}

// normalize applies the configured per-iteration scale resolution.
func (s *Separator) normalize() error {
	switch s.cfg.Normalization {
	case NormalizePower:
		s.normalizePower()
		return nil
	case NormalizeProjectionBack:
		return s.normalizeProjectionBack()
	case normalizeNone:
		return nil
	default:
		return fmt.Errorf("ilrma: unknown normalization: %v", s.cfg.Normalization)
	}
}
