package ilrma

import "fmt"

// Normalization selects how the scale ambiguity of the factorized model is
// resolved after each iteration.
type Normalization int

const (
	// NormalizePower rescales each source to unit RMS power and folds the
	// correction into the demixing filter and the spectral model.
	NormalizePower Normalization = iota
	// NormalizeProjectionBack rescales each source by least-squares
	// projection onto the reference mixture channel and refits the filter.
	NormalizeProjectionBack
	// normalizeNone disables the general normalizer; the consistent variant
	// performs its own dedicated scale correction every iteration.
	normalizeNone
)

// String returns the normalization name.
func (n Normalization) String() string {
	switch n {
	case NormalizePower:
		return "power"
	case NormalizeProjectionBack:
		return "projection-back"
	case normalizeNone:
		return "none"
	default:
		return fmt.Sprintf("Normalization(%d)", int(n))
	}
}

// Defaults applied by [DefaultConfig].
const (
	DefaultBases         = 10
	DefaultEpsilon       = 1e-12
	DefaultCondThreshold = 1e12
	DefaultNu            = 1.0
	DefaultSeed          = 1
)

// Callback observes the separator after each completed iteration. The
// callback must treat the separator as read-only; mutating its state
// mid-run voids the convergence guarantee.
type Callback func(s *Separator)

// Config collects all construction-time settings of a [Separator]. It is
// validated once at construction and never mutated afterwards.
type Config struct {
	// Bases is the number of NMF basis vectors per source (shared across
	// sources when Partitioning is enabled).
	Bases int
	// Partitioning shares one basis/activation pair across sources with
	// per-source latent weights summing to one per basis.
	Partitioning bool
	// Normalization selects the per-iteration scale resolution.
	Normalization Normalization
	// ReferenceChannel indexes the mixture channel used for projection back.
	ReferenceChannel int
	// Epsilon floors every denominator and spectral model entry.
	Epsilon float64
	// CondThreshold skips a spatial row update whose per-bin system exceeds
	// this condition number (Gaussian variant only).
	CondThreshold float64
	// Nu is the degrees of freedom of the Student's-t source model.
	Nu float64
	// BlockSize and HopSize configure the waveform-domain round trip of the
	// consistent variant.
	BlockSize int
	HopSize   int
	// Seed fixes the random initialization of the spectral model.
	Seed uint64
	// Callback, if set, observes each completed iteration.
	Callback Callback
}

// DefaultConfig returns the defaults shared by all variants.
func DefaultConfig() Config {
	return Config{
		Bases:         DefaultBases,
		Normalization: NormalizePower,
		Epsilon:       DefaultEpsilon,
		CondThreshold: DefaultCondThreshold,
		Nu:            DefaultNu,
		Seed:          DefaultSeed,
	}
}

// Option mutates a Config.
type Option func(*Config)

// WithBases sets the number of basis vectors.
func WithBases(bases int) Option {
	return func(cfg *Config) {
		cfg.Bases = bases
	}
}

// WithPartitioning toggles the shared-basis model with latent source weights.
func WithPartitioning(enabled bool) Option {
	return func(cfg *Config) {
		cfg.Partitioning = enabled
	}
}

// WithNormalization selects the per-iteration scale resolution.
func WithNormalization(n Normalization) Option {
	return func(cfg *Config) {
		cfg.Normalization = n
	}
}

// WithReferenceChannel sets the mixture channel used for projection back.
func WithReferenceChannel(channel int) Option {
	return func(cfg *Config) {
		cfg.ReferenceChannel = channel
	}
}

// WithEpsilon sets the denominator floor.
func WithEpsilon(eps float64) Option {
	return func(cfg *Config) {
		cfg.Epsilon = eps
	}
}

// WithCondThreshold sets the condition-number guard of the Gaussian spatial
// update.
func WithCondThreshold(threshold float64) Option {
	return func(cfg *Config) {
		cfg.CondThreshold = threshold
	}
}

// WithNu sets the degrees of freedom of the Student's-t model. Nu of 1 is
// the Cauchy distribution; large Nu approaches the Gaussian model.
func WithNu(nu float64) Option {
	return func(cfg *Config) {
		cfg.Nu = nu
	}
}

// WithTransform sets the STFT geometry of the consistent variant. A hop of 0
// defaults to half the block size.
func WithTransform(blockSize, hopSize int) Option {
	return func(cfg *Config) {
		cfg.BlockSize = blockSize
		cfg.HopSize = hopSize
	}
}

// WithSeed fixes the random initialization seed.
func WithSeed(seed uint64) Option {
	return func(cfg *Config) {
		cfg.Seed = seed
	}
}

// WithCallback registers a per-iteration observer.
func WithCallback(cb Callback) Option {
	return func(cfg *Config) {
		cfg.Callback = cb
	}
}

func applyOptions(opts []Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (cfg *Config) validateCommon() error {
	if cfg.Bases < 1 {
		return fmt.Errorf("ilrma: basis count must be >= 1: %d", cfg.Bases)
	}
	if cfg.Epsilon <= 0 {
		return fmt.Errorf("ilrma: epsilon must be > 0: %g", cfg.Epsilon)
	}
	if cfg.ReferenceChannel < 0 {
		return fmt.Errorf("ilrma: reference channel must be >= 0: %d", cfg.ReferenceChannel)
	}
	return nil
}
